// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package oauth

// Well-known endpoint paths as defined by OpenID Connect Discovery 1.0 and RFC 8414.
const (
	// WellKnownOIDCPath is the standard OIDC discovery endpoint path
	// per OpenID Connect Discovery 1.0 specification.
	WellKnownOIDCPath = "/.well-known/openid-configuration"

	// WellKnownOAuthServerPath is the standard OAuth authorization server metadata
	// endpoint path per RFC 8414 (OAuth 2.0 Authorization Server Metadata).
	WellKnownOAuthServerPath = "/.well-known/oauth-authorization-server"
)

// Grant types as defined by RFC 6749.
const (
	// GrantTypeAuthorizationCode is the authorization code grant type (RFC 6749 Section 4.1).
	GrantTypeAuthorizationCode = "authorization_code"

	// GrantTypeRefreshToken is the refresh token grant type (RFC 6749 Section 6).
	GrantTypeRefreshToken = "refresh_token"
)

// Response types as defined by RFC 6749.
const (
	// ResponseTypeCode is the authorization code response type (RFC 6749 Section 4.1.1).
	ResponseTypeCode = "code"
)

// PKCE (Proof Key for Code Exchange) methods as defined by RFC 7636.
const (
	// PKCEMethodS256 uses the SHA-256 hash of the code verifier (recommended).
	PKCEMethodS256 = "S256"

	// PKCEMethodPlain sends the code verifier unhashed. Discouraged; provided
	// for servers that do not support S256.
	PKCEMethodPlain = "plain"
)

// Request and response parameter names from RFC 6749 and RFC 7636.
const (
	paramResponseType        = "response_type"
	paramClientID            = "client_id"
	paramClientSecret        = "client_secret"
	paramRedirectURI         = "redirect_uri"
	paramScope               = "scope"
	paramState               = "state"
	paramCode                = "code"
	paramGrantType           = "grant_type"
	paramRefreshToken        = "refresh_token"
	paramCodeChallenge       = "code_challenge"
	paramCodeChallengeMethod = "code_challenge_method"
	paramCodeVerifier        = "code_verifier"
	paramResource            = "resource"
	paramError               = "error"
	paramErrorDescription    = "error_description"
	paramErrorURI            = "error_uri"
)
