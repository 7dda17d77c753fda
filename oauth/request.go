// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package oauth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"maps"
	"net/url"
	"slices"
	"strings"
)

// stateEntropyBytes is the entropy of a generated state parameter.
const stateEntropyBytes = 32

// GenerateState returns a cryptographically random state parameter suitable
// for linking an authorization response back to its request and preventing
// cross-site request forgery.
func GenerateState() string {
	b := make([]byte, stateEntropyBytes)
	// rand.Read never fails on supported platforms (crypto/rand contract
	// since Go 1.24).
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

// AuthorizationRequest describes one authorization endpoint request
// (RFC 6749 Section 4.1.1). A Session copies the request when it starts, so
// later mutation by the caller does not affect an in-flight flow.
type AuthorizationRequest struct {
	// Configuration identifies the authorization server.
	Configuration *ServiceConfiguration

	// ClientID is the registered OAuth client identifier.
	ClientID string

	// RedirectURI is the registered redirect target the authorization
	// server sends the user agent back to.
	RedirectURI *url.URL

	// ResponseType is the OAuth response type. Defaults to
	// ResponseTypeCode when empty.
	ResponseType string

	// Scopes are the requested access scopes.
	Scopes []string

	// State is the opaque anti-forgery correlation token echoed back in
	// the redirect. Use GenerateState when the host has no value of its
	// own to carry.
	State string

	// CodeChallenge and CodeChallengeMethod carry a pre-computed PKCE
	// challenge (RFC 7636). Verifier generation is the caller's concern.
	CodeChallenge       string
	CodeChallengeMethod string

	// AdditionalParameters are extra authorization request parameters
	// (e.g. prompt, login_hint, audience).
	AdditionalParameters map[string]string
}

// clone returns a deep copy of the request, freezing it against caller
// mutation for the lifetime of a session.
func (r *AuthorizationRequest) clone() *AuthorizationRequest {
	c := *r
	c.Scopes = slices.Clone(r.Scopes)
	c.AdditionalParameters = maps.Clone(r.AdditionalParameters)
	if r.RedirectURI != nil {
		u := *r.RedirectURI
		c.RedirectURI = &u
	}
	return &c
}

// URL builds the authorization endpoint URI for this request.
func (r *AuthorizationRequest) URL() (*url.URL, error) {
	if r.Configuration == nil || r.Configuration.AuthorizationEndpoint == nil {
		return nil, fmt.Errorf("authorization request has no authorization endpoint")
	}
	if r.ClientID == "" {
		return nil, fmt.Errorf("authorization request has no client_id")
	}
	if r.RedirectURI == nil {
		return nil, fmt.Errorf("authorization request has no redirect_uri")
	}

	responseType := r.ResponseType
	if responseType == "" {
		responseType = ResponseTypeCode
	}

	params := url.Values{}
	for key, value := range r.AdditionalParameters {
		params.Set(key, value)
	}
	params.Set(paramResponseType, responseType)
	params.Set(paramClientID, r.ClientID)
	params.Set(paramRedirectURI, r.RedirectURI.String())
	if len(r.Scopes) > 0 {
		params.Set(paramScope, strings.Join(r.Scopes, " "))
	}
	if r.State != "" {
		params.Set(paramState, r.State)
	}
	if r.CodeChallenge != "" {
		params.Set(paramCodeChallenge, r.CodeChallenge)
		method := r.CodeChallengeMethod
		if method == "" {
			method = PKCEMethodS256
		}
		params.Set(paramCodeChallengeMethod, method)
	}

	authURL := *r.Configuration.AuthorizationEndpoint
	authURL.RawQuery = params.Encode()
	return &authURL, nil
}

// AuthorizationResponse is a successful authorization redirect (RFC 6749
// Section 4.1.2), parsed from the redirect's query parameters. A response is
// only meaningful relative to the request whose state it was verified
// against; sessions never emit a response whose state differs from the
// request's.
type AuthorizationResponse struct {
	// Request is the originating authorization request.
	Request *AuthorizationRequest

	// AuthorizationCode is the code grant to exchange at the token endpoint.
	AuthorizationCode string

	// State echoes the request's state parameter.
	State string

	// AdditionalParameters holds the remaining redirect parameters.
	AdditionalParameters map[string]string
}

// parseAuthorizationResponse builds a provisional response from the full
// redirect parameter set. State verification happens separately in the
// session.
func parseAuthorizationResponse(request *AuthorizationRequest, params url.Values) *AuthorizationResponse {
	resp := &AuthorizationResponse{
		Request:           request,
		AuthorizationCode: params.Get(paramCode),
		State:             params.Get(paramState),
	}

	additional := make(map[string]string)
	for key := range params {
		switch key {
		case paramCode, paramState:
		default:
			additional[key] = params.Get(key)
		}
	}
	if len(additional) > 0 {
		resp.AdditionalParameters = additional
	}
	return resp
}

// TokenExchangeRequest builds the token endpoint request exchanging this
// response's authorization code (RFC 6749 Section 4.1.3). The PKCE code
// verifier matching the request's challenge is supplied by the caller; pass
// an empty string when the flow did not use PKCE.
func (r *AuthorizationResponse) TokenExchangeRequest(codeVerifier string) *TokenRequest {
	return &TokenRequest{
		Configuration:     r.Request.Configuration,
		GrantType:         GrantTypeAuthorizationCode,
		AuthorizationCode: r.AuthorizationCode,
		RedirectURI:       r.Request.RedirectURI,
		ClientID:          r.Request.ClientID,
		CodeVerifier:      codeVerifier,
	}
}
