// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package oauth implements the client side of the OAuth 2.0 authorization
// code flow and the OpenID Connect discovery and token exchanges.
//
// The package is organized around four pieces:
//
//   - A closed error taxonomy ([FlowError], [OAuthError],
//     [StateMismatchError]) that classifies every transport, HTTP, and
//     protocol failure before it reaches the caller. Raw errors are always
//     carried as the wrapped cause, never surfaced directly.
//
//   - Discovery: [Client.DiscoverConfiguration] fetches an issuer's
//     well-known metadata document and produces a [ServiceConfiguration]
//     holding the authorization and token endpoints.
//
//   - The authorization flow [Session]: one in-flight authorization
//     attempt, from presenting an external user agent (typically a browser,
//     see the agent package) to a single terminal outcome. The session
//     correlates returned redirects against the registered redirect URI,
//     verifies the anti-forgery state parameter, and guarantees the outcome
//     is delivered exactly once no matter how cancel, redirect, and
//     dismissal events interleave.
//
//   - Token exchange: [Client.ExchangeToken] posts a [TokenRequest] to the
//     token endpoint and classifies the response into a [TokenResponse] or
//     a typed error per RFC 6749 Section 5.2.
//
// A minimal end-to-end flow:
//
//	client := oauth.NewClient()
//	cfg, err := client.DiscoverConfiguration(ctx, "https://auth.example.com")
//	// handle err
//
//	req := &oauth.AuthorizationRequest{
//		Configuration: cfg,
//		ClientID:      "my-client",
//		RedirectURI:   redirectURI,
//		Scopes:        []string{"openid", "profile"},
//		State:         oauth.GenerateState(),
//	}
//	session := oauth.NewSession(req)
//	if err := session.Present(launcher); err != nil {
//		// handle err
//	}
//	// Deliver observed redirects with session.ResumeWithRedirect(ctx, uri).
//	resp, err := session.Wait(ctx)
//	// handle err
//
//	token, err := client.ExchangeToken(ctx, resp.TokenExchangeRequest(verifier))
//
// # Stability
//
// This package is Beta stability. The API may have minor changes before
// reaching stable status in v1.0.0.
package oauth
