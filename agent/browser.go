// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os/exec"
	"runtime"

	"github.com/stacklok/authflow-core/env"
	"github.com/stacklok/authflow-core/logging"
	"github.com/stacklok/authflow-core/oauth"
)

// browserEnvVar overrides the command used to open the authorization URL,
// following the conventional BROWSER environment variable.
const browserEnvVar = "BROWSER"

// Browser implements oauth.ExternalAgent by opening the authorization URL
// in the end user's browser.
type Browser struct {
	env    env.Reader
	logger *slog.Logger
}

// BrowserOption configures a Browser.
type BrowserOption func(*Browser)

// WithEnvReader sets the environment reader used to resolve the BROWSER
// override. The default reads the process environment.
func WithEnvReader(reader env.Reader) BrowserOption {
	return func(b *Browser) {
		b.env = reader
	}
}

// WithBrowserLogger sets the logger for launch diagnostics.
func WithBrowserLogger(logger *slog.Logger) BrowserOption {
	return func(b *Browser) {
		b.logger = logger
	}
}

// NewBrowser creates a system-browser external agent.
func NewBrowser(opts ...BrowserOption) *Browser {
	b := &Browser{}
	for _, opt := range opts {
		opt(b)
	}
	if b.env == nil {
		b.env = &env.OSReader{}
	}
	if b.logger == nil {
		b.logger = logging.New(logging.WithComponent("agent.browser"))
	}
	return b
}

// Present opens the authorization URL in the browser. The command is taken
// from the BROWSER environment variable when set, otherwise from the
// platform default (xdg-open, open, or cmd start). The command is started
// without waiting for it to complete.
func (b *Browser) Present(authorizationURL *url.URL) (oauth.AgentHandle, error) {
	cmd, err := b.launchCommand(authorizationURL.String())
	if err != nil {
		return nil, err
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to open browser: %w", err)
	}

	b.logger.Debug("opened authorization URL in browser", "command", cmd.Path)
	return browserHandle{}, nil
}

func (b *Browser) launchCommand(target string) (*exec.Cmd, error) {
	if override := b.env.Getenv(browserEnvVar); override != "" {
		return exec.Command(override, target), nil
	}

	switch runtime.GOOS {
	case "linux":
		return exec.Command("xdg-open", target), nil
	case "darwin":
		return exec.Command("open", target), nil
	case "windows":
		return exec.Command("cmd", "/c", "start", target), nil
	default:
		return nil, fmt.Errorf("no default browser command for platform %s (set %s)", runtime.GOOS, browserEnvVar)
	}
}

// browserHandle is the non-owning handle for an opened browser tab. System
// browsers offer no programmatic dismissal surface, so Dismiss is a no-op;
// the tab's landing page (served by Listener) tells the user to close it.
type browserHandle struct{}

// Dismiss implements oauth.AgentHandle.
func (browserHandle) Dismiss(_ context.Context) error {
	return nil
}
