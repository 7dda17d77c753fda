// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package oauth

//go:generate mockgen -copyright_file=../.github/license-header.txt -source=session.go -destination=mocks/mock_agent.go -package=mocks ExternalAgent,AgentHandle

import (
	"context"
	"log/slog"
	"net/url"
	"sync"

	"github.com/stacklok/authflow-core/logging"
)

// ExternalAgent launches the user-facing surface where the end user
// authenticates, typically a system browser or an embedded browser tab.
// The oauth package never renders anything itself.
type ExternalAgent interface {
	// Present shows the authorization URI to the end user and returns a
	// handle for dismissing the presented surface later.
	Present(authorizationURL *url.URL) (AgentHandle, error)
}

// AgentHandle is a non-owning reference to a presented external agent.
type AgentHandle interface {
	// Dismiss tears the presented surface down. It returns once dismissal
	// has completed.
	Dismiss(ctx context.Context) error
}

// sessionState tracks the lifecycle of a flow session.
type sessionState int

const (
	// stateIdle: the external agent has not been presented yet.
	stateIdle sessionState = iota

	// statePresented: the agent is up and a completion is pending.
	statePresented

	// stateTerminal: one terminal transition has been honored; all later
	// events are no-ops.
	stateTerminal
)

// Session owns exactly one in-flight authorization attempt. It manages
// external agent presentation, redirect correlation, state verification,
// and exactly-once delivery of the terminal outcome.
//
// Exactly one of the terminal transitions takes effect: a matching redirect
// (ResumeWithRedirect), an explicit cancellation (Cancel), or the end user
// dismissing the agent (AgentSelfDismissed). The agent handle and the
// pending completion are cleared together the moment a transition begins,
// so concurrent transitions observe a terminal session and become inert.
//
// Sessions are not reusable; start a new session to retry. All methods are
// safe for concurrent use.
type Session struct {
	request *AuthorizationRequest // frozen copy
	policy  RedirectURIPolicy
	logger  *slog.Logger

	mu    sync.Mutex
	state sessionState
	agent AgentHandle // slot cleared on every terminal transition

	// done is closed exactly once when the outcome is committed, making
	// "already completed" a structural fact rather than a nil check.
	done     chan struct{}
	response *AuthorizationResponse
	err      error
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithRedirectURIPolicy sets the scheme policy applied to the request's
// registered redirect URI at presentation time. The default allows
// private-use schemes, which native applications commonly register.
func WithRedirectURIPolicy(policy RedirectURIPolicy) SessionOption {
	return func(s *Session) {
		s.policy = policy
	}
}

// WithSessionLogger sets the logger for session lifecycle diagnostics.
func WithSessionLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) {
		s.logger = logger
	}
}

// NewSession creates a session for one authorization attempt. The request is
// deep-copied, freezing it against caller mutation for the session's
// lifetime.
func NewSession(request *AuthorizationRequest, opts ...SessionOption) *Session {
	s := &Session{
		request: request.clone(),
		policy:  RedirectURIPolicyAllowPrivateSchemes,
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.New(logging.WithComponent("oauth.session"))
	}
	return s
}

// Request returns the session's frozen copy of the authorization request.
func (s *Session) Request() *AuthorizationRequest {
	return s.request
}

// Present computes the authorization URI and launches the external agent.
// On success the session holds a non-owning handle to the presented agent
// and a completion becomes pending; the terminal outcome is later read with
// Wait. Present must be called exactly once per session.
func (s *Session) Present(agent ExternalAgent) error {
	if s.request.RedirectURI != nil {
		if err := ValidateRedirectURI(s.request.RedirectURI.String(), s.policy); err != nil {
			return err
		}
	}

	authURL, err := s.request.URL()
	if err != nil {
		return err
	}

	handle, err := agent.Present(authURL)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != stateIdle {
		// A concurrent Present lost the race; the surface it opened is
		// not tracked by this session.
		return NewFlowError(ErrCodeInvalidFlowState, nil, "session already presented")
	}
	s.state = statePresented
	s.agent = handle

	s.logger.Debug("authorization flow presented",
		"client_id", s.request.ClientID,
		"state_len", len(s.request.State),
	)
	return nil
}

// ResumeWithRedirect offers a candidate redirect URI to the session.
//
// The candidate is matched against the request's registered redirect URI on
// scheme, userinfo, host, port, and path; query and fragment are ignored.
// A non-matching candidate returns (false, nil) so other consumers may
// inspect the URI. A matching candidate delivered before Present is a fatal
// ErrCodeInvalidFlowState programmer error. A matching candidate after the
// session reached its terminal outcome returns (false, nil).
//
// When the candidate is consumed, the agent is dismissed and the terminal
// outcome committed: an OAuthError when the redirect carries an error
// parameter, a StateMismatchError when the state does not match the
// request's, or the parsed AuthorizationResponse otherwise. Returns true
// once the session has consumed the URI.
func (s *Session) ResumeWithRedirect(ctx context.Context, candidate *url.URL) (bool, error) {
	if !redirectTargetsMatch(candidate, s.request.RedirectURI) {
		return false, nil
	}

	s.mu.Lock()
	switch s.state {
	case stateTerminal:
		// A previous transition already cleared the pending completion.
		s.mu.Unlock()
		return false, nil
	case stateIdle:
		s.mu.Unlock()
		return false, NewFlowError(ErrCodeInvalidFlowState, nil,
			"redirect received but no authorization flow is pending")
	}
	handle := s.beginTerminalLocked()
	s.mu.Unlock()

	params := candidate.Query()

	var response *AuthorizationResponse
	var outcome error
	if params.Has(paramError) {
		outcome = NewOAuthError(DomainAuthorization, valuesToDocument(params), nil)
	} else {
		provisional := parseAuthorizationResponse(s.request, params)
		if expected, actual, ok := statesEqual(s.request.State, params); ok {
			response = provisional
		} else {
			s.logger.Warn("authorization response state mismatch",
				"client_id", s.request.ClientID,
			)
			outcome = &StateMismatchError{Expected: expected, Actual: actual, Params: params}
		}
	}

	s.dismiss(ctx, handle)
	s.complete(response, outcome)
	return true, nil
}

// Cancel terminates the flow on behalf of the caller. The agent is dismissed
// and the session completes with ErrCodeUserCanceledFlow. Canceling a
// session that already reached a terminal outcome, or that was never
// presented, is a no-op.
func (s *Session) Cancel(ctx context.Context) {
	s.mu.Lock()
	if s.state != statePresented {
		s.mu.Unlock()
		return
	}
	handle := s.beginTerminalLocked()
	s.mu.Unlock()

	s.dismiss(ctx, handle)
	s.complete(nil, NewFlowError(ErrCodeUserCanceledFlow, nil, "authorization flow was canceled"))
}

// AgentSelfDismissed notifies the session that the external agent was
// dismissed by the end user without any redirect occurring. The session
// completes with ErrCodeProgramCanceledFlow; no dismissal is issued since
// the surface is already gone. A no-op unless a flow is pending.
func (s *Session) AgentSelfDismissed() {
	s.mu.Lock()
	if s.state != statePresented {
		s.mu.Unlock()
		return
	}
	s.beginTerminalLocked()
	s.mu.Unlock()

	s.complete(nil, NewFlowError(ErrCodeProgramCanceledFlow, nil,
		"external agent was dismissed before the flow completed"))
}

// Wait blocks until the session reaches its terminal outcome or ctx is
// done. Exactly one of the response and the error is non-nil on terminal
// delivery; every waiter observes the same outcome.
func (s *Session) Wait(ctx context.Context) (*AuthorizationResponse, error) {
	select {
	case <-s.done:
		return s.response, s.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Done returns a channel closed when the session reaches its terminal
// outcome.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// beginTerminalLocked claims the single terminal transition: it clears the
// agent slot and marks the session terminal in one step, so no other
// transition can fire. Must be called with s.mu held and state Presented.
func (s *Session) beginTerminalLocked() AgentHandle {
	handle := s.agent
	s.agent = nil
	s.state = stateTerminal
	return handle
}

// dismiss tears down the presented agent. The outcome is delivered only
// after dismissal completes, so the agent is never left presented past a
// terminal outcome. Dismissal failures are logged, not surfaced: the flow
// outcome was already decided.
func (s *Session) dismiss(ctx context.Context, handle AgentHandle) {
	if handle == nil {
		return
	}
	if err := handle.Dismiss(ctx); err != nil {
		s.logger.Warn("failed to dismiss external agent", "error", err.Error())
	}
}

// complete commits the terminal outcome. It runs at most once per session:
// every terminal transition passes through beginTerminalLocked first, which
// admits a single caller.
func (s *Session) complete(response *AuthorizationResponse, err error) {
	s.response = response
	s.err = err
	close(s.done)
}

// statesEqual performs the null-safe state comparison between the request's
// state and the redirect parameters. An empty request state and an absent
// state parameter are both treated as absent; two absent states are equal,
// one present and one absent are not. The returned pointers report each
// side's state for diagnostics (nil when absent).
func statesEqual(requestState string, params url.Values) (expected, actual *string, equal bool) {
	if requestState != "" {
		expected = &requestState
	}
	if params.Has(paramState) {
		v := params.Get(paramState)
		actual = &v
	}

	switch {
	case expected == nil && actual == nil:
		return nil, nil, true
	case expected == nil || actual == nil:
		return expected, actual, false
	default:
		return expected, actual, *expected == *actual
	}
}
