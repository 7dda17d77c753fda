// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/stacklok/authflow-core/logging"
	"github.com/stacklok/authflow-core/recovery"
)

//go:embed templates/success.html
var successPage []byte

//go:embed templates/error.html
var errorPage []byte

const (
	defaultCallbackPath = "/callback"

	// shutdownTimeout bounds how long Stop waits for in-flight callback
	// requests to drain.
	shutdownTimeout = 5 * time.Second
)

// RedirectConsumer consumes candidate redirect URIs. It reports whether the
// URI was consumed; non-matching URIs are left for other consumers.
// *oauth.Session implements this interface.
type RedirectConsumer interface {
	ResumeWithRedirect(ctx context.Context, candidate *url.URL) (bool, error)
}

// Listener serves a loopback redirect endpoint for the authorization code
// flow. Every request received on the callback path is reconstructed into a
// full URI and offered to the consumer; the browser is shown a success or
// failure page depending on the redirect's parameters.
type Listener struct {
	consumer RedirectConsumer
	host     string
	port     int
	path     string
	logger   *slog.Logger

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

// ListenerOption configures a Listener.
type ListenerOption func(*Listener)

// WithPort pins the listener to a fixed loopback port. The default is an
// ephemeral port chosen by the operating system.
func WithPort(port int) ListenerOption {
	return func(l *Listener) {
		l.port = port
	}
}

// WithCallbackPath sets the path component of the redirect URI. The default
// is /callback.
func WithCallbackPath(path string) ListenerOption {
	return func(l *Listener) {
		l.path = path
	}
}

// WithListenerLogger sets the logger for listener diagnostics.
func WithListenerLogger(logger *slog.Logger) ListenerOption {
	return func(l *Listener) {
		l.logger = logger
	}
}

// NewListener creates a loopback redirect listener delivering to consumer.
func NewListener(consumer RedirectConsumer, opts ...ListenerOption) *Listener {
	l := &Listener{
		consumer: consumer,
		host:     "127.0.0.1",
		path:     defaultCallbackPath,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = logging.New(logging.WithComponent("agent.listener"))
	}
	return l
}

// Start binds the loopback socket and begins serving callback requests. It
// returns the redirect URI to register in the authorization request, with
// the bound port filled in. The listener serves until Stop is called.
func (l *Listener) Start(_ context.Context) (*url.URL, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.listener != nil {
		return nil, fmt.Errorf("listener already started")
	}

	ln, err := net.Listen("tcp", net.JoinHostPort(l.host, fmt.Sprintf("%d", l.port)))
	if err != nil {
		return nil, fmt.Errorf("failed to bind loopback listener: %w", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc(l.path, l.handleCallback)

	server := &http.Server{
		Handler:           recovery.Middleware(l.logger, mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	l.listener = ln
	l.server = server

	go func() {
		if serveErr := server.Serve(ln); serveErr != nil && serveErr != http.ErrServerClosed {
			l.logger.Error("callback server terminated", "error", serveErr.Error())
		}
	}()

	redirectURI := &url.URL{
		Scheme: "http",
		Host:   ln.Addr().String(),
		Path:   l.path,
	}
	l.logger.Debug("callback listener started", "redirect_uri", redirectURI.String())
	return redirectURI, nil
}

// Stop shuts the callback server down, waiting briefly for in-flight
// requests. Safe to call multiple times.
func (l *Listener) Stop() {
	l.mu.Lock()
	server := l.server
	l.server = nil
	l.listener = nil
	l.mu.Unlock()

	if server == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		l.logger.Warn("callback server shutdown", "error", err.Error())
	}
}

// handleCallback reconstructs the full redirect URI from the request and
// offers it to the consumer.
func (l *Listener) handleCallback(w http.ResponseWriter, r *http.Request) {
	candidate := &url.URL{
		Scheme:   "http",
		Host:     r.Host,
		Path:     r.URL.Path,
		RawQuery: r.URL.RawQuery,
	}

	consumed, err := l.consumer.ResumeWithRedirect(r.Context(), candidate)
	if err != nil {
		l.logger.Error("redirect delivery failed", "error", err.Error())
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if !consumed {
		// Not for us: no flow is pending on this URI anymore.
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if r.URL.Query().Has("error") {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(errorPage)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(successPage)
}
