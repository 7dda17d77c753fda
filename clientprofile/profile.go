// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package clientprofile

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/stacklok/authflow-core/oauth"
)

// DefaultProfileName is the profile path relative to the XDG config
// directory.
const DefaultProfileName = "authflow/profile.yaml"

// Validation errors for client profiles.
var (
	// ErrMissingIssuer indicates the profile has no issuer.
	ErrMissingIssuer = errors.New("profile is missing issuer")

	// ErrMissingClientID indicates the profile has no client_id.
	ErrMissingClientID = errors.New("profile is missing client_id")
)

// Profile is a pre-registered OAuth client: the issuer it was registered
// with and the material needed to build authorization and token requests.
type Profile struct {
	// Issuer is the authorization server's issuer URI, used for discovery.
	Issuer string `yaml:"issuer"`

	// ClientID is the registered client identifier.
	ClientID string `yaml:"client_id"`

	// ClientSecret authenticates confidential clients at the token
	// endpoint. Public clients leave it empty.
	ClientSecret string `yaml:"client_secret,omitempty"`

	// RedirectURI is the registered redirect target. Empty when the host
	// binds a loopback listener and supplies the URI at runtime.
	RedirectURI string `yaml:"redirect_uri,omitempty"`

	// Scopes are the scopes requested by default.
	Scopes []string `yaml:"scopes,omitempty"`

	// AdditionalParameters are extra authorization request parameters sent
	// with every request built from this profile.
	AdditionalParameters map[string]string `yaml:"additional_parameters,omitempty"`
}

// Validate checks the profile carries the fields needed to drive a flow.
func (p *Profile) Validate() error {
	if p.Issuer == "" {
		return ErrMissingIssuer
	}
	if p.ClientID == "" {
		return ErrMissingClientID
	}
	if p.RedirectURI != "" {
		if _, err := url.Parse(p.RedirectURI); err != nil {
			return fmt.Errorf("invalid redirect_uri: %w", err)
		}
	}
	return nil
}

// Load reads and validates a profile from a YAML file.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read client profile: %w", err)
	}

	var profile Profile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&profile); err != nil {
		return nil, fmt.Errorf("failed to parse client profile %s: %w", filepath.Base(path), err)
	}

	if err := profile.Validate(); err != nil {
		return nil, err
	}
	return &profile, nil
}

// LoadDefault loads the profile from its XDG default location.
func LoadDefault() (*Profile, error) {
	path, err := xdg.SearchConfigFile(DefaultProfileName)
	if err != nil {
		return nil, fmt.Errorf("no client profile found: %w", err)
	}
	return Load(path)
}

// Save writes the profile to the given path, creating parent directories as
// needed. The file is written with owner-only permissions since it may carry
// a client secret.
func (p *Profile) Save(path string) error {
	if err := p.Validate(); err != nil {
		return err
	}

	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode client profile: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create profile directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write client profile: %w", err)
	}
	return nil
}

// AuthorizationRequest builds an authorization request from the profile
// against a discovered service configuration. The caller supplies the state;
// PKCE material, when used, is set on the returned request afterwards.
func (p *Profile) AuthorizationRequest(cfg *oauth.ServiceConfiguration, state string) (*oauth.AuthorizationRequest, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	req := &oauth.AuthorizationRequest{
		Configuration:        cfg,
		ClientID:             p.ClientID,
		Scopes:               p.Scopes,
		State:                state,
		AdditionalParameters: p.AdditionalParameters,
	}
	if p.RedirectURI != "" {
		u, err := url.Parse(p.RedirectURI)
		if err != nil {
			return nil, fmt.Errorf("invalid redirect_uri: %w", err)
		}
		req.RedirectURI = u
	}
	return req, nil
}

// TokenRequest builds a token request exchanging an authorization response's
// code, carrying the profile's client credentials.
func (p *Profile) TokenRequest(response *oauth.AuthorizationResponse, codeVerifier string) *oauth.TokenRequest {
	req := response.TokenExchangeRequest(codeVerifier)
	req.ClientSecret = p.ClientSecret
	return req
}
