// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package clientprofile

import (
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/authflow-core/oauth"
)

func writeProfile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Parallel()

	path := writeProfile(t, `
issuer: https://idp.example
client_id: my-cli
client_secret: s3cret
redirect_uri: http://127.0.0.1:8085/callback
scopes:
  - openid
  - profile
additional_parameters:
  prompt: consent
`)

	profile, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://idp.example", profile.Issuer)
	assert.Equal(t, "my-cli", profile.ClientID)
	assert.Equal(t, "s3cret", profile.ClientSecret)
	assert.Equal(t, []string{"openid", "profile"}, profile.Scopes)
	assert.Equal(t, "consent", profile.AdditionalParameters["prompt"])
}

func TestLoad_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{"missing issuer", "client_id: my-cli\n", ErrMissingIssuer},
		{"missing client_id", "issuer: https://idp.example\n", ErrMissingClientID},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Load(writeProfile(t, tt.content))
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoad_UnknownFieldRejected(t *testing.T) {
	t.Parallel()

	path := writeProfile(t, `
issuer: https://idp.example
client_id: my-cli
client_secrett: typo
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "client_secrett")
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	t.Parallel()

	profile := &Profile{
		Issuer:   "https://idp.example",
		ClientID: "my-cli",
		Scopes:   []string{"openid"},
	}

	path := filepath.Join(t.TempDir(), "nested", "profile.yaml")
	require.NoError(t, profile.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, profile, loaded)
}

func TestProfile_AuthorizationRequest(t *testing.T) {
	t.Parallel()

	authz, err := url.Parse("https://idp.example/authorize")
	require.NoError(t, err)
	token, err := url.Parse("https://idp.example/token")
	require.NoError(t, err)
	cfg, err := oauth.NewServiceConfiguration(authz, token)
	require.NoError(t, err)

	profile := &Profile{
		Issuer:      "https://idp.example",
		ClientID:    "my-cli",
		RedirectURI: "http://127.0.0.1:8085/callback",
		Scopes:      []string{"openid"},
	}

	req, err := profile.AuthorizationRequest(cfg, "state-1")
	require.NoError(t, err)
	assert.Equal(t, cfg, req.Configuration)
	assert.Equal(t, "my-cli", req.ClientID)
	assert.Equal(t, "state-1", req.State)
	require.NotNil(t, req.RedirectURI)
	assert.Equal(t, "http://127.0.0.1:8085/callback", req.RedirectURI.String())

	u, err := req.URL()
	require.NoError(t, err)
	assert.Equal(t, "my-cli", u.Query().Get("client_id"))
}

func TestProfile_TokenRequest(t *testing.T) {
	t.Parallel()

	redirect, err := url.Parse("http://127.0.0.1:8085/callback")
	require.NoError(t, err)
	response := &oauth.AuthorizationResponse{
		Request: &oauth.AuthorizationRequest{
			ClientID:    "my-cli",
			RedirectURI: redirect,
		},
		AuthorizationCode: "auth-code-1",
	}

	profile := &Profile{Issuer: "https://idp.example", ClientID: "my-cli", ClientSecret: "s3cret"}
	req := profile.TokenRequest(response, "verifier-1")
	assert.Equal(t, oauth.GrantTypeAuthorizationCode, req.GrantType)
	assert.Equal(t, "auth-code-1", req.AuthorizationCode)
	assert.Equal(t, "s3cret", req.ClientSecret)
	assert.Equal(t, "verifier-1", req.CodeVerifier)
}
