// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package oauth

import (
	"time"

	"golang.org/x/oauth2"
)

// OAuth2Token converts the response to a golang.org/x/oauth2 Token for
// interop with libraries built on that package. The expiry is computed
// relative to issuedAt; the ID token, when present, is carried in the
// token's extra data under "id_token" following the x/oauth2 convention.
func (t *TokenResponse) OAuth2Token(issuedAt time.Time) *oauth2.Token {
	token := &oauth2.Token{
		AccessToken:  t.AccessToken,
		TokenType:    t.TokenType,
		RefreshToken: t.RefreshToken,
		Expiry:       t.Expiry(issuedAt),
	}
	if t.IDToken != "" {
		token = token.WithExtra(map[string]any{"id_token": t.IDToken})
	}
	return token
}
