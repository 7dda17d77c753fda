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

	"github.com/stacklok/authflow-core/httperr"
)

// maxDiscoveryDocumentSize bounds the discovery response body (DoS protection).
const maxDiscoveryDocumentSize = 1 << 20 // 1 MiB

// DiscoverConfiguration fetches the issuer's well-known OpenID configuration
// document and builds a ServiceConfiguration from it. The well-known suffix
// is appended to the issuer URI per OpenID Connect Discovery 1.0.
//
// Every failure is reported as a FlowError with ErrCodeNetwork wrapping the
// transport, HTTP, or validation cause.
func (c *Client) DiscoverConfiguration(ctx context.Context, issuer string) (*ServiceConfiguration, error) {
	issuerURL, err := url.Parse(issuer)
	if err != nil {
		return nil, NewFlowError(ErrCodeNetwork, err, "malformed issuer URI")
	}

	discoveryURL := *issuerURL
	discoveryURL.Path = strings.TrimSuffix(discoveryURL.Path, "/") + WellKnownOIDCPath

	return c.FetchConfiguration(ctx, &discoveryURL)
}

// FetchConfiguration fetches a discovery document from a full document URI
// and builds a ServiceConfiguration from it.
func (c *Client) FetchConfiguration(ctx context.Context, discoveryURL *url.URL) (*ServiceConfiguration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, discoveryURL.String(), nil)
	if err != nil {
		return nil, NewFlowError(ErrCodeNetwork, err, "failed to build discovery request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, NewFlowError(ErrCodeNetwork, err, "connection error fetching discovery document")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDiscoveryDocumentSize))
	if err != nil {
		return nil, NewFlowError(ErrCodeNetwork, err, "failed to read discovery document")
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Debug("discovery fetch returned non-200 status",
			"url", discoveryURL.String(),
			"status", resp.StatusCode,
		)
		return nil, NewFlowError(ErrCodeNetwork,
			httperr.FromResponse(resp.StatusCode, body),
			"discovery fetch failed")
	}

	cfg, err := parseServiceConfiguration(body)
	if err != nil {
		return nil, NewFlowError(ErrCodeNetwork, err, "invalid discovery document")
	}

	c.logger.Debug("discovered service configuration",
		"url", discoveryURL.String(),
		"authorization_endpoint", cfg.AuthorizationEndpoint.String(),
		"token_endpoint", cfg.TokenEndpoint.String(),
	)
	return cfg, nil
}

// parseServiceConfiguration validates, parses, and extracts endpoints from a
// raw discovery document.
func parseServiceConfiguration(body []byte) (*ServiceConfiguration, error) {
	if len(body) == 0 {
		return nil, fmt.Errorf("empty discovery document body")
	}

	if err := validateDiscoveryDocumentBytes(body); err != nil {
		return nil, err
	}

	var doc DiscoveryDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse discovery document: %w", err)
	}

	return NewServiceConfigurationFromDiscovery(&doc)
}
