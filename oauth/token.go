// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/stacklok/authflow-core/httperr"
	httpvalidate "github.com/stacklok/authflow-core/validation/http"
)

// maxTokenResponseSize bounds the token response body (DoS protection).
const maxTokenResponseSize = 1 << 20 // 1 MiB

// TokenRequest describes one token endpoint request (RFC 6749 Section 3.2):
// an authorization code exchange or a refresh.
type TokenRequest struct {
	// Configuration identifies the authorization server.
	Configuration *ServiceConfiguration

	// GrantType selects the grant being presented: GrantTypeAuthorizationCode
	// or GrantTypeRefreshToken.
	GrantType string

	// AuthorizationCode is the code grant (authorization_code grant type).
	AuthorizationCode string

	// RedirectURI must repeat the authorization request's redirect URI for
	// the authorization_code grant type.
	RedirectURI *url.URL

	// RefreshToken is the refresh grant (refresh_token grant type).
	RefreshToken string

	// ClientID is the registered OAuth client identifier.
	ClientID string

	// ClientSecret, when set, authenticates the client to the token
	// endpoint via HTTP Basic authentication. Public clients leave it
	// empty and send only client_id.
	ClientSecret string

	// CodeVerifier is the PKCE verifier matching the authorization
	// request's code challenge (RFC 7636).
	CodeVerifier string

	// Scopes optionally narrows the requested scope on refresh.
	Scopes []string

	// Resources are RFC 8707 resource indicators naming the protected
	// resources the token is intended for.
	Resources []string

	// AdditionalParameters are extra token request parameters.
	AdditionalParameters map[string]string
}

// NewRefreshTokenRequest builds a refresh grant request (RFC 6749 Section 6).
func NewRefreshTokenRequest(cfg *ServiceConfiguration, clientID, refreshToken string) *TokenRequest {
	return &TokenRequest{
		Configuration: cfg,
		GrantType:     GrantTypeRefreshToken,
		ClientID:      clientID,
		RefreshToken:  refreshToken,
	}
}

// formValues builds the form-encoded request body.
func (r *TokenRequest) formValues() (url.Values, error) {
	if r.GrantType == "" {
		return nil, fmt.Errorf("token request has no grant_type")
	}
	if r.ClientID == "" {
		return nil, fmt.Errorf("token request has no client_id")
	}

	form := url.Values{}
	for key, value := range r.AdditionalParameters {
		form.Set(key, value)
	}
	form.Set(paramGrantType, r.GrantType)
	form.Set(paramClientID, r.ClientID)

	switch r.GrantType {
	case GrantTypeAuthorizationCode:
		if r.AuthorizationCode == "" {
			return nil, fmt.Errorf("authorization_code grant requires a code")
		}
		form.Set(paramCode, r.AuthorizationCode)
		if r.RedirectURI != nil {
			form.Set(paramRedirectURI, r.RedirectURI.String())
		}
		if r.CodeVerifier != "" {
			form.Set(paramCodeVerifier, r.CodeVerifier)
		}
	case GrantTypeRefreshToken:
		if r.RefreshToken == "" {
			return nil, fmt.Errorf("refresh_token grant requires a refresh token")
		}
		form.Set(paramRefreshToken, r.RefreshToken)
	default:
		// Extension grants pass through; their parameters ride in
		// AdditionalParameters.
	}

	if len(r.Scopes) > 0 {
		form.Set(paramScope, strings.Join(r.Scopes, " "))
	}
	for _, resource := range r.Resources {
		if err := httpvalidate.ValidateResourceURI(resource); err != nil {
			return nil, fmt.Errorf("invalid resource indicator: %w", err)
		}
		form.Add(paramResource, resource)
	}

	return form, nil
}

// TokenResponse is a successful token endpoint response (RFC 6749
// Section 5.1). Request retains the originating TokenRequest for
// traceability.
type TokenResponse struct {
	// Request is the originating token request.
	Request *TokenRequest

	// AccessToken is the issued access token.
	AccessToken string

	// TokenType is the access token's type, typically "Bearer".
	TokenType string

	// IDToken is the OpenID Connect ID token, when issued.
	IDToken string

	// RefreshToken is the refresh grant for obtaining new access tokens,
	// when issued.
	RefreshToken string

	// ExpiresIn is the access token lifetime in seconds; zero when the
	// server did not state one.
	ExpiresIn int64

	// Scope is the granted scope when it differs from the requested one.
	Scope string

	// AdditionalParameters holds the remaining response fields.
	AdditionalParameters map[string]any
}

// Expiry returns the access token's expiry relative to the given issue
// time, or the zero time when the server stated no lifetime.
func (t *TokenResponse) Expiry(issuedAt time.Time) time.Time {
	if t.ExpiresIn <= 0 {
		return time.Time{}
	}
	return issuedAt.Add(time.Duration(t.ExpiresIn) * time.Second)
}

// newTokenResponse constructs a TokenResponse from a parsed token document
// bound to its originating request. access_token and token_type are
// required per RFC 6749 Section 5.1; a missing or mistyped field is a
// construction failure, distinct from a parse failure.
func newTokenResponse(request *TokenRequest, doc map[string]any) (*TokenResponse, error) {
	accessToken, err := requiredString(doc, "access_token")
	if err != nil {
		return nil, err
	}
	tokenType, err := requiredString(doc, "token_type")
	if err != nil {
		return nil, err
	}

	resp := &TokenResponse{
		Request:     request,
		AccessToken: accessToken,
		TokenType:   tokenType,
	}

	resp.IDToken, _ = doc["id_token"].(string)
	resp.RefreshToken, _ = doc["refresh_token"].(string)
	resp.Scope, _ = doc["scope"].(string)

	if raw, ok := doc["expires_in"]; ok {
		expiresIn, err := numericField(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid expires_in: %w", err)
		}
		resp.ExpiresIn = expiresIn
	}

	additional := make(map[string]any)
	for key, value := range doc {
		switch key {
		case "access_token", "token_type", "id_token", "refresh_token", "scope", "expires_in":
		default:
			additional[key] = value
		}
	}
	if len(additional) > 0 {
		resp.AdditionalParameters = additional
	}

	return resp, nil
}

func requiredString(doc map[string]any, field string) (string, error) {
	raw, ok := doc[field]
	if !ok {
		return "", fmt.Errorf("token response is missing required field %q", field)
	}
	s, ok := raw.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("token response field %q is not a non-empty string", field)
	}
	return s, nil
}

// numericField coerces a JSON number or numeric string to int64. Some
// servers serialize expires_in as a string.
func numericField(raw any) (int64, error) {
	switch v := raw.(type) {
	case float64:
		return int64(v), nil
	case string:
		var n int64
		if _, err := fmt.Sscanf(v, "%d", &n); err != nil {
			return 0, fmt.Errorf("not a number: %q", v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("unexpected type %T", raw)
	}
}

// ExchangeToken executes one token endpoint exchange and classifies the
// result, evaluated in order:
//
//   - Transport failure: FlowError with ErrCodeNetwork wrapping the cause.
//   - Status 400 with a body carrying an error field: OAuthError in the
//     token domain built from the full error document, wrapping the HTTP
//     response error (takes precedence over the generic server error).
//   - Any other non-200 status: FlowError with ErrCodeServer wrapping the
//     HTTP response error.
//   - Status 200 with an unparsable body: FlowError with
//     ErrCodeJSONDeserialization.
//   - Status 200 with a parsed document missing required fields: FlowError
//     with ErrCodeTokenResponseConstruction.
//   - Otherwise: the TokenResponse.
//
// ExchangeToken is stateless; a Client may run many exchanges concurrently.
func (c *Client) ExchangeToken(ctx context.Context, request *TokenRequest) (*TokenResponse, error) {
	if request.Configuration == nil || request.Configuration.TokenEndpoint == nil {
		return nil, fmt.Errorf("token request has no token endpoint")
	}

	form, err := request.formValues()
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		request.Configuration.TokenEndpoint.String(), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, NewFlowError(ErrCodeNetwork, err, "failed to build token request")
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Accept", "application/json")

	if request.ClientSecret != "" {
		// Credentials travel in a header; reject material that would
		// corrupt it (CRLF injection, control characters).
		for _, credential := range []string{request.ClientID, request.ClientSecret} {
			if err := httpvalidate.ValidateHeaderValue(credential); err != nil {
				return nil, fmt.Errorf("invalid client credential: %w", err)
			}
		}
		httpReq.SetBasicAuth(url.QueryEscape(request.ClientID), url.QueryEscape(request.ClientSecret))
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, NewFlowError(ErrCodeNetwork, err, "connection error during token exchange")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTokenResponseSize))
	if err != nil {
		return nil, NewFlowError(ErrCodeNetwork, err, "failed to read token response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, c.classifyTokenErrorResponse(resp.StatusCode, body)
	}

	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, NewFlowError(ErrCodeJSONDeserialization, err, "token response body is not valid JSON")
	}

	tokenResp, err := newTokenResponse(request, doc)
	if err != nil {
		return nil, NewFlowError(ErrCodeTokenResponseConstruction, err, "token response is incomplete")
	}

	c.logger.Debug("token exchange succeeded",
		"grant_type", request.GrantType,
		"client_id", request.ClientID,
		"has_refresh_token", tokenResp.RefreshToken != "",
	)
	return tokenResp, nil
}

// classifyTokenErrorResponse maps a non-200 token endpoint response to the
// error taxonomy. A 400 carrying a structured OAuth error document (RFC
// 6749 Section 5.2) becomes an OAuthError in the token domain; anything
// else becomes a generic server error. Both wrap the HTTP response error as
// the underlying cause.
func (c *Client) classifyTokenErrorResponse(statusCode int, body []byte) error {
	responseErr := httperr.FromResponse(statusCode, body)

	if statusCode == http.StatusBadRequest {
		var doc map[string]any
		if err := json.Unmarshal(body, &doc); err == nil {
			if _, ok := doc[paramError].(string); ok {
				c.logger.Debug("token endpoint returned OAuth error document",
					"status", statusCode,
					"error", doc[paramError],
				)
				return NewOAuthError(DomainToken, doc, responseErr)
			}
		}
	}

	c.logger.Debug("token endpoint returned unexpected status",
		"status", statusCode,
	)
	return NewFlowError(ErrCodeServer, responseErr, "token exchange failed")
}
