// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package oauth

import (
	"net/url"
	"testing"
)

func testServiceConfiguration(t *testing.T) *ServiceConfiguration {
	t.Helper()
	cfg, err := NewServiceConfiguration(
		mustParseURL(t, "https://idp.example/authorize"),
		mustParseURL(t, "https://idp.example/token"),
	)
	if err != nil {
		t.Fatalf("NewServiceConfiguration: %v", err)
	}
	return cfg
}

func TestGenerateState(t *testing.T) {
	t.Parallel()

	first := GenerateState()
	second := GenerateState()

	if first == "" || second == "" {
		t.Fatal("GenerateState returned an empty state")
	}
	if first == second {
		t.Error("two generated states are equal")
	}
	// 32 bytes of entropy, base64url without padding.
	if len(first) != 43 {
		t.Errorf("state length = %d, want 43", len(first))
	}
}

func TestAuthorizationRequest_URL(t *testing.T) {
	t.Parallel()

	req := &AuthorizationRequest{
		Configuration:       testServiceConfiguration(t),
		ClientID:            "client-1",
		RedirectURI:         mustParseURL(t, "http://127.0.0.1:8085/callback"),
		Scopes:              []string{"openid", "profile"},
		State:               "state-1",
		CodeChallenge:       "challenge-1",
		CodeChallengeMethod: PKCEMethodS256,
		AdditionalParameters: map[string]string{
			"prompt": "consent",
		},
	}

	u, err := req.URL()
	if err != nil {
		t.Fatalf("URL() error = %v", err)
	}

	if u.Scheme != "https" || u.Host != "idp.example" || u.Path != "/authorize" {
		t.Errorf("URL base = %q, want the authorization endpoint", u.String())
	}

	q := u.Query()
	want := map[string]string{
		paramResponseType:        ResponseTypeCode,
		paramClientID:            "client-1",
		paramRedirectURI:         "http://127.0.0.1:8085/callback",
		paramScope:               "openid profile",
		paramState:               "state-1",
		paramCodeChallenge:       "challenge-1",
		paramCodeChallengeMethod: PKCEMethodS256,
		"prompt":                 "consent",
	}
	for key, value := range want {
		if got := q.Get(key); got != value {
			t.Errorf("query %q = %q, want %q", key, got, value)
		}
	}
}

func TestAuthorizationRequest_URL_Defaults(t *testing.T) {
	t.Parallel()

	req := &AuthorizationRequest{
		Configuration: testServiceConfiguration(t),
		ClientID:      "client-1",
		RedirectURI:   mustParseURL(t, "https://app.example/cb"),
		CodeChallenge: "challenge-1",
	}

	u, err := req.URL()
	if err != nil {
		t.Fatalf("URL() error = %v", err)
	}

	q := u.Query()
	if got := q.Get(paramResponseType); got != ResponseTypeCode {
		t.Errorf("response_type = %q, want code by default", got)
	}
	if got := q.Get(paramCodeChallengeMethod); got != PKCEMethodS256 {
		t.Errorf("code_challenge_method = %q, want S256 by default", got)
	}
	if q.Has(paramScope) || q.Has(paramState) {
		t.Error("empty scope and state must not be sent")
	}
}

func TestAuthorizationRequest_URL_AdditionalParametersCannotOverride(t *testing.T) {
	t.Parallel()

	req := &AuthorizationRequest{
		Configuration: testServiceConfiguration(t),
		ClientID:      "client-1",
		RedirectURI:   mustParseURL(t, "https://app.example/cb"),
		AdditionalParameters: map[string]string{
			paramClientID:    "spoofed",
			paramRedirectURI: "https://evil.example/cb",
		},
	}

	u, err := req.URL()
	if err != nil {
		t.Fatalf("URL() error = %v", err)
	}
	q := u.Query()
	if got := q.Get(paramClientID); got != "client-1" {
		t.Errorf("client_id = %q, standard parameters win over additional ones", got)
	}
	if got := q.Get(paramRedirectURI); got != "https://app.example/cb" {
		t.Errorf("redirect_uri = %q, standard parameters win over additional ones", got)
	}
}

func TestAuthorizationRequest_URL_Validation(t *testing.T) {
	t.Parallel()

	cfg := testServiceConfiguration(t)
	redirect := mustParseURL(t, "https://app.example/cb")

	tests := []struct {
		name string
		req  *AuthorizationRequest
	}{
		{"no configuration", &AuthorizationRequest{ClientID: "c", RedirectURI: redirect}},
		{"no client_id", &AuthorizationRequest{Configuration: cfg, RedirectURI: redirect}},
		{"no redirect_uri", &AuthorizationRequest{Configuration: cfg, ClientID: "c"}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := tt.req.URL(); err == nil {
				t.Error("URL() = nil error, want validation failure")
			}
		})
	}
}

func TestAuthorizationRequest_Clone(t *testing.T) {
	t.Parallel()

	orig := &AuthorizationRequest{
		Configuration:        testServiceConfiguration(t),
		ClientID:             "client-1",
		RedirectURI:          mustParseURL(t, "https://app.example/cb"),
		Scopes:               []string{"openid"},
		AdditionalParameters: map[string]string{"prompt": "consent"},
	}

	c := orig.clone()

	orig.ClientID = "mutated"
	orig.Scopes[0] = "mutated"
	orig.AdditionalParameters["prompt"] = "mutated"
	orig.RedirectURI.Host = "mutated.example"

	if c.ClientID != "client-1" {
		t.Error("clone shares ClientID with the original")
	}
	if c.Scopes[0] != "openid" {
		t.Error("clone shares the Scopes slice with the original")
	}
	if c.AdditionalParameters["prompt"] != "consent" {
		t.Error("clone shares the AdditionalParameters map with the original")
	}
	if c.RedirectURI.Host != "app.example" {
		t.Error("clone shares the RedirectURI with the original")
	}
}

func TestParseAuthorizationResponse(t *testing.T) {
	t.Parallel()

	req := &AuthorizationRequest{ClientID: "client-1"}
	params := url.Values{}
	params.Set(paramCode, "auth-code-1")
	params.Set(paramState, "state-1")
	params.Set("session_state", "extra-1")

	resp := parseAuthorizationResponse(req, params)
	if resp.AuthorizationCode != "auth-code-1" {
		t.Errorf("AuthorizationCode = %q", resp.AuthorizationCode)
	}
	if resp.State != "state-1" {
		t.Errorf("State = %q", resp.State)
	}
	if resp.Request != req {
		t.Error("response should reference the originating request")
	}
	if resp.AdditionalParameters["session_state"] != "extra-1" {
		t.Error("non-standard parameters go to AdditionalParameters")
	}
	if _, ok := resp.AdditionalParameters[paramCode]; ok {
		t.Error("code must not be duplicated into AdditionalParameters")
	}
}

func TestAuthorizationResponse_TokenExchangeRequest(t *testing.T) {
	t.Parallel()

	cfg := testServiceConfiguration(t)
	redirect := mustParseURL(t, "https://app.example/cb")
	resp := &AuthorizationResponse{
		Request: &AuthorizationRequest{
			Configuration: cfg,
			ClientID:      "client-1",
			RedirectURI:   redirect,
		},
		AuthorizationCode: "auth-code-1",
	}

	tokenReq := resp.TokenExchangeRequest("verifier-1")
	if tokenReq.GrantType != GrantTypeAuthorizationCode {
		t.Errorf("GrantType = %q", tokenReq.GrantType)
	}
	if tokenReq.AuthorizationCode != "auth-code-1" {
		t.Errorf("AuthorizationCode = %q", tokenReq.AuthorizationCode)
	}
	if tokenReq.Configuration != cfg || tokenReq.RedirectURI != redirect {
		t.Error("token request should carry the request's configuration and redirect URI")
	}
	if tokenReq.ClientID != "client-1" {
		t.Errorf("ClientID = %q", tokenReq.ClientID)
	}
	if tokenReq.CodeVerifier != "verifier-1" {
		t.Errorf("CodeVerifier = %q", tokenReq.CodeVerifier)
	}
}
