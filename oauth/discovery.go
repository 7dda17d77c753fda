// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package oauth

import (
	"fmt"
	"net/url"
)

// DiscoveryDocument represents an OpenID Connect Discovery 1.0 document,
// which extends OAuth 2.0 Authorization Server Metadata (RFC 8414).
type DiscoveryDocument struct {
	// Issuer is the authorization server's issuer identifier.
	Issuer string `json:"issuer,omitempty"`

	// AuthorizationEndpoint is the URL of the authorization endpoint.
	// Required for building a ServiceConfiguration.
	AuthorizationEndpoint string `json:"authorization_endpoint"`

	// TokenEndpoint is the URL of the token endpoint.
	// Required for building a ServiceConfiguration.
	TokenEndpoint string `json:"token_endpoint"`

	// JWKSURI is the URL of the JSON Web Key Set document (OPTIONAL here;
	// token verification is out of scope for this package).
	JWKSURI string `json:"jwks_uri,omitempty"`

	// UserinfoEndpoint is the URL of the UserInfo endpoint (OPTIONAL, OIDC specific).
	UserinfoEndpoint string `json:"userinfo_endpoint,omitempty"`

	// RegistrationEndpoint is the URL of the Dynamic Client Registration endpoint (OPTIONAL).
	RegistrationEndpoint string `json:"registration_endpoint,omitempty"`

	// EndSessionEndpoint is the URL of the RP-initiated logout endpoint (OPTIONAL).
	EndSessionEndpoint string `json:"end_session_endpoint,omitempty"`

	// ResponseTypesSupported lists the response types supported.
	ResponseTypesSupported []string `json:"response_types_supported,omitempty"`

	// GrantTypesSupported lists the grant types supported.
	GrantTypesSupported []string `json:"grant_types_supported,omitempty"`

	// ScopesSupported lists the OAuth 2.0 scope values supported.
	ScopesSupported []string `json:"scopes_supported,omitempty"`

	// CodeChallengeMethodsSupported lists the PKCE code challenge methods supported.
	CodeChallengeMethodsSupported []string `json:"code_challenge_methods_supported,omitempty"`

	// TokenEndpointAuthMethodsSupported lists the client authentication methods
	// supported at the token endpoint.
	TokenEndpointAuthMethodsSupported []string `json:"token_endpoint_auth_methods_supported,omitempty"`

	// SubjectTypesSupported lists the subject identifier types supported (OIDC).
	SubjectTypesSupported []string `json:"subject_types_supported,omitempty"`

	// IDTokenSigningAlgValuesSupported lists the JWS algorithms supported for ID tokens (OIDC).
	IDTokenSigningAlgValuesSupported []string `json:"id_token_signing_alg_values_supported,omitempty"`

	// ClaimsSupported lists the claims that can be returned (OIDC).
	ClaimsSupported []string `json:"claims_supported,omitempty"`
}

// Validate checks that the document carries the fields this package needs to
// drive an authorization code flow.
func (d *DiscoveryDocument) Validate() error {
	if d.AuthorizationEndpoint == "" {
		return ErrMissingAuthorizationEndpoint
	}
	if d.TokenEndpoint == "" {
		return ErrMissingTokenEndpoint
	}
	return nil
}

// SupportsPKCE returns true if the authorization server advertises PKCE
// support with S256.
func (d *DiscoveryDocument) SupportsPKCE() bool {
	for _, method := range d.CodeChallengeMethodsSupported {
		if method == PKCEMethodS256 {
			return true
		}
	}
	return false
}

// SupportsGrantType returns true if the authorization server advertises
// support for the given grant type.
func (d *DiscoveryDocument) SupportsGrantType(grantType string) bool {
	for _, gt := range d.GrantTypesSupported {
		if gt == grantType {
			return true
		}
	}
	return false
}

// ServiceConfiguration holds the endpoints needed to drive an authorization
// flow and a token exchange against one authorization server. It is
// immutable once constructed.
type ServiceConfiguration struct {
	// AuthorizationEndpoint is the URI where the end user authenticates and
	// grants access.
	AuthorizationEndpoint *url.URL

	// TokenEndpoint is the URI exchanging a grant for tokens.
	TokenEndpoint *url.URL

	// DiscoveryDocument is the document the configuration was extracted
	// from, when the configuration came from discovery. Nil for explicitly
	// constructed configurations.
	DiscoveryDocument *DiscoveryDocument
}

// NewServiceConfiguration builds a configuration from two explicit endpoint URIs.
func NewServiceConfiguration(authorizationEndpoint, tokenEndpoint *url.URL) (*ServiceConfiguration, error) {
	if authorizationEndpoint == nil {
		return nil, ErrMissingAuthorizationEndpoint
	}
	if tokenEndpoint == nil {
		return nil, ErrMissingTokenEndpoint
	}
	return &ServiceConfiguration{
		AuthorizationEndpoint: authorizationEndpoint,
		TokenEndpoint:         tokenEndpoint,
	}, nil
}

// NewServiceConfigurationFromDiscovery extracts both endpoints from a
// discovery document. It fails if either endpoint is absent or malformed.
func NewServiceConfigurationFromDiscovery(doc *DiscoveryDocument) (*ServiceConfiguration, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	authzEndpoint, err := url.Parse(doc.AuthorizationEndpoint)
	if err != nil {
		return nil, fmt.Errorf("malformed authorization_endpoint: %w", err)
	}
	tokenEndpoint, err := url.Parse(doc.TokenEndpoint)
	if err != nil {
		return nil, fmt.Errorf("malformed token_endpoint: %w", err)
	}

	return &ServiceConfiguration{
		AuthorizationEndpoint: authzEndpoint,
		TokenEndpoint:         tokenEndpoint,
		DiscoveryDocument:     doc,
	}, nil
}
