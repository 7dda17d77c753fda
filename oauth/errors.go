// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package oauth

import (
	"errors"
	"fmt"
	"net/url"
)

// Validation errors for discovery documents.
var (
	// ErrMissingAuthorizationEndpoint indicates the authorization_endpoint field is missing.
	ErrMissingAuthorizationEndpoint = errors.New("missing authorization_endpoint")

	// ErrMissingTokenEndpoint indicates the token_endpoint field is missing.
	ErrMissingTokenEndpoint = errors.New("missing token_endpoint")
)

// ErrorCode identifies a kind of flow failure. The enumeration is closed:
// every transport, HTTP, or protocol failure produced by this package is
// classified as exactly one of these kinds, with the raw cause attached as
// the wrapped error.
type ErrorCode int

const (
	// ErrCodeNetwork indicates a transport-level failure, or a failed
	// HTTP exchange during discovery.
	ErrCodeNetwork ErrorCode = iota + 1

	// ErrCodeServer indicates a non-200 token endpoint response that did
	// not carry a structured OAuth error document.
	ErrCodeServer

	// ErrCodeJSONDeserialization indicates a response body that could not
	// be parsed as a structured document.
	ErrCodeJSONDeserialization

	// ErrCodeTokenResponseConstruction indicates a parsed token document
	// that is missing required fields or carries fields of the wrong type.
	ErrCodeTokenResponseConstruction

	// ErrCodeUserCanceledFlow indicates the caller explicitly canceled the
	// authorization flow.
	ErrCodeUserCanceledFlow

	// ErrCodeProgramCanceledFlow indicates the external user agent was
	// dismissed by the end user before any redirect was observed.
	ErrCodeProgramCanceledFlow

	// ErrCodeInvalidFlowState indicates a redirect was delivered to a
	// session with no flow pending. This is a programmer error, not a
	// protocol outcome, and aborts the operation.
	ErrCodeInvalidFlowState
)

// String returns a stable identifier for the error kind.
func (c ErrorCode) String() string {
	switch c {
	case ErrCodeNetwork:
		return "network_error"
	case ErrCodeServer:
		return "server_error"
	case ErrCodeJSONDeserialization:
		return "json_deserialization_error"
	case ErrCodeTokenResponseConstruction:
		return "token_response_construction_error"
	case ErrCodeUserCanceledFlow:
		return "user_canceled_authorization_flow"
	case ErrCodeProgramCanceledFlow:
		return "program_canceled_authorization_flow"
	case ErrCodeInvalidFlowState:
		return "invalid_authorization_flow"
	default:
		return "unknown"
	}
}

// FlowError is a classified flow or exchange failure. Code discriminates the
// kind; Err carries the underlying cause when one exists.
type FlowError struct {
	Code        ErrorCode
	Description string
	Err         error
}

// Error implements the error interface.
func (e *FlowError) Error() string {
	msg := e.Code.String()
	if e.Description != "" {
		msg += ": " + e.Description
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for errors.Is() and errors.As() compatibility.
func (e *FlowError) Unwrap() error {
	return e.Err
}

// NewFlowError builds a FlowError of the given kind wrapping err.
// The description is optional.
func NewFlowError(code ErrorCode, err error, description string) *FlowError {
	return &FlowError{Code: code, Description: description, Err: err}
}

// IsFlowError reports whether err is (or wraps) a FlowError of the given kind.
func IsFlowError(err error, code ErrorCode) bool {
	var fe *FlowError
	return errors.As(err, &fe) && fe.Code == code
}

// OAuthErrorDomain distinguishes which protocol exchange produced an OAuth
// error document: the authorization response (RFC 6749 Section 4.1.2.1) or
// the token response (RFC 6749 Section 5.2).
type OAuthErrorDomain string

const (
	// DomainAuthorization is the error domain for authorization responses.
	DomainAuthorization OAuthErrorDomain = "authorization"

	// DomainToken is the error domain for token endpoint responses.
	DomainToken OAuthErrorDomain = "token"
)

// IsOAuthErrorDomain reports whether domain names one of the two OAuth error
// domains, as opposed to any other error namespace.
func IsOAuthErrorDomain(domain string) bool {
	switch OAuthErrorDomain(domain) {
	case DomainAuthorization, DomainToken:
		return true
	default:
		return false
	}
}

// OAuthErrorCode enumerates the standard OAuth error code strings from
// RFC 6749 Sections 4.1.2.1 and 5.2, plus OAuthOther for codes outside the
// standard set. Unknown codes are never dropped: they map to OAuthOther with
// the raw string preserved on the OAuthError.
type OAuthErrorCode int

const (
	// OAuthInvalidRequest is the invalid_request error code.
	OAuthInvalidRequest OAuthErrorCode = iota + 1
	// OAuthUnauthorizedClient is the unauthorized_client error code.
	OAuthUnauthorizedClient
	// OAuthAccessDenied is the access_denied error code.
	OAuthAccessDenied
	// OAuthUnsupportedResponseType is the unsupported_response_type error code.
	OAuthUnsupportedResponseType
	// OAuthInvalidScope is the invalid_scope error code.
	OAuthInvalidScope
	// OAuthServerError is the server_error error code.
	OAuthServerError
	// OAuthTemporarilyUnavailable is the temporarily_unavailable error code.
	OAuthTemporarilyUnavailable
	// OAuthInvalidClient is the invalid_client error code (token responses only).
	OAuthInvalidClient
	// OAuthInvalidGrant is the invalid_grant error code (token responses only).
	OAuthInvalidGrant
	// OAuthUnsupportedGrantType is the unsupported_grant_type error code (token responses only).
	OAuthUnsupportedGrantType
	// OAuthOther is the fallback for error codes outside the RFC 6749 set.
	OAuthOther
)

var oauthErrorCodes = map[string]OAuthErrorCode{
	"invalid_request":           OAuthInvalidRequest,
	"unauthorized_client":       OAuthUnauthorizedClient,
	"access_denied":             OAuthAccessDenied,
	"unsupported_response_type": OAuthUnsupportedResponseType,
	"invalid_scope":             OAuthInvalidScope,
	"server_error":              OAuthServerError,
	"temporarily_unavailable":   OAuthTemporarilyUnavailable,
	"invalid_client":            OAuthInvalidClient,
	"invalid_grant":             OAuthInvalidGrant,
	"unsupported_grant_type":    OAuthUnsupportedGrantType,
}

// OAuthErrorCodeFromString maps an RFC 6749 error code string to its
// OAuthErrorCode. Strings outside the standard set map to OAuthOther.
func OAuthErrorCodeFromString(code string) OAuthErrorCode {
	if c, ok := oauthErrorCodes[code]; ok {
		return c
	}
	return OAuthOther
}

// OAuthError is an error document returned by the authorization server,
// per RFC 6749 Section 4.1.2.1 (authorization domain) or Section 5.2
// (token domain). Response retains the full parameter set of the document.
type OAuthError struct {
	Domain      OAuthErrorDomain
	Code        OAuthErrorCode
	RawCode     string
	Description string
	ErrorURI    string
	Response    map[string]any
	Err         error
}

// Error implements the error interface.
func (e *OAuthError) Error() string {
	msg := fmt.Sprintf("oauth %s error: %s", e.Domain, e.RawCode)
	if e.Description != "" {
		msg += ": " + e.Description
	}
	return msg
}

// Unwrap returns the underlying cause for errors.Is() and errors.As() compatibility.
func (e *OAuthError) Unwrap() error {
	return e.Err
}

// NewOAuthError builds an OAuthError from the full parameter set of an OAuth
// error document. The error, error_description, and error_uri fields are
// extracted; the complete document is retained on Response.
func NewOAuthError(domain OAuthErrorDomain, response map[string]any, underlying error) *OAuthError {
	rawCode, _ := response[paramError].(string)
	description, _ := response[paramErrorDescription].(string)
	errorURI, _ := response[paramErrorURI].(string)

	return &OAuthError{
		Domain:      domain,
		Code:        OAuthErrorCodeFromString(rawCode),
		RawCode:     rawCode,
		Description: description,
		ErrorURI:    errorURI,
		Response:    response,
		Err:         underlying,
	}
}

// StateMismatchError is produced when the state parameter of an otherwise
// matching redirect does not equal the state of the originating request.
// The provisional response is discarded; Params retains the full redirect
// parameter set as diagnostic context. Expected or Actual is nil when the
// corresponding side carried no state at all.
type StateMismatchError struct {
	Expected *string
	Actual   *string
	Params   url.Values
}

// Error implements the error interface.
func (e *StateMismatchError) Error() string {
	return fmt.Sprintf("state mismatch: expected %s, received %s",
		formatState(e.Expected), formatState(e.Actual))
}

func formatState(s *string) string {
	if s == nil {
		return "(absent)"
	}
	return fmt.Sprintf("%q", *s)
}

// valuesToDocument flattens url.Values into the generic document shape used
// by OAuthError. Repeated parameters keep their first value, matching how
// the authorization server parameters are interpreted elsewhere.
func valuesToDocument(values url.Values) map[string]any {
	doc := make(map[string]any, len(values))
	for key := range values {
		doc[key] = values.Get(key)
	}
	return doc
}
