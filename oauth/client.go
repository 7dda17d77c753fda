// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package oauth

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/stacklok/authflow-core/logging"
)

// DefaultHTTPTimeout is the default timeout for discovery and token
// endpoint requests.
const DefaultHTTPTimeout = 30 * time.Second

// Client performs discovery fetches and token exchanges. It is stateless per
// call: a single Client may run any number of discoveries and exchanges
// concurrently.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client. The default client applies
// DefaultHTTPTimeout. The client must support concurrent requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger used for protocol-level diagnostics.
// The default is a JSON logger from the logging package, scoped with a
// component attribute.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a Client with the given options.
func NewClient(opts ...Option) *Client {
	c := &Client{}
	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: DefaultHTTPTimeout}
	}
	if c.logger == nil {
		c.logger = logging.New(logging.WithComponent("oauth"))
	}
	return c
}
