// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package oauth

import (
	"context"
	"fmt"
	"net/url"

	"github.com/ory/fosite"
)

// MaxRedirectURILength is the maximum allowed length for a redirect URI.
// This limit provides DoS protection during URI parsing per RFC 3986
// practical constraints.
const MaxRedirectURILength = 2048

// RedirectURIPolicy controls which URI schemes are accepted when a session
// validates its registered redirect URI.
type RedirectURIPolicy int

const (
	// RedirectURIPolicyStrict allows only https and http-loopback schemes,
	// following RFC 8252 Section 8.4 strict security recommendations.
	RedirectURIPolicyStrict RedirectURIPolicy = iota

	// RedirectURIPolicyAllowPrivateSchemes also allows private-use URI
	// schemes (e.g. com.example.app:/oauth2redirect) per RFC 8252
	// Section 7.1, which native applications commonly register.
	RedirectURIPolicyAllowPrivateSchemes
)

// ValidateRedirectURI validates a registered redirect URI per RFC 6749
// Section 3.1.2 and RFC 8252 before it is sent in an authorization request.
//
// Validation rules applied:
//   - URI must not exceed MaxRedirectURILength (DoS protection)
//   - URI must be an absolute URI with a scheme (RFC 6749 Section 3.1.2)
//   - URI must not contain a fragment component (RFC 6749 Section 3.1.2)
//   - Scheme security per policy (strict https/http-loopback, or
//     additionally private-use schemes)
func ValidateRedirectURI(uri string, policy RedirectURIPolicy) error {
	if len(uri) > MaxRedirectURILength {
		return fmt.Errorf("redirect_uri too long (maximum %d characters)", MaxRedirectURILength)
	}

	parsed, err := url.Parse(uri)
	if err != nil {
		return fmt.Errorf("invalid redirect_uri format: %w", err)
	}

	// RFC 6749 Section 3.1.2: must be absolute URI without fragment
	if !fosite.IsValidRedirectURI(parsed) {
		return fmt.Errorf("redirect_uri must be an absolute URI without a fragment")
	}

	switch policy {
	case RedirectURIPolicyStrict:
		if !fosite.IsRedirectURISecureStrict(context.Background(), parsed) {
			return fmt.Errorf("redirect_uri must use http (for loopback) or https scheme")
		}
	case RedirectURIPolicyAllowPrivateSchemes:
		if !fosite.IsRedirectURISecure(context.Background(), parsed) {
			return fmt.Errorf("redirect_uri must use a secure scheme (https, http for loopback, or a private-use scheme)")
		}
	default:
		return fmt.Errorf("unknown redirect URI policy: %d", policy)
	}

	return nil
}

// redirectTargetsMatch reports whether a candidate redirect URI targets the
// registered redirect URI. Scheme, userinfo, host, port, and path are
// compared for structural identity; query and fragment are deliberately
// excluded so that authorization parameters riding on the redirect never
// affect the match. Each component uses null-safe equality: two absent
// components are equal, one present and one absent are not.
func redirectTargetsMatch(candidate, registered *url.URL) bool {
	if candidate == nil || registered == nil {
		return candidate == registered
	}
	if candidate.Scheme != registered.Scheme {
		return false
	}
	if !userinfoEqual(candidate.User, registered.User) {
		return false
	}
	if candidate.Hostname() != registered.Hostname() {
		return false
	}
	if candidate.Port() != registered.Port() {
		return false
	}
	return candidate.Path == registered.Path
}

// userinfoEqual compares the user and password components of two URIs,
// treating presence and value independently.
func userinfoEqual(a, b *url.Userinfo) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Username() != b.Username() {
		return false
	}
	aPass, aSet := a.Password()
	bPass, bSet := b.Password()
	return aSet == bSet && aPass == bPass
}
