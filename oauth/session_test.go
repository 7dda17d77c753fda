// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package oauth_test

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/authflow-core/oauth"
	"github.com/stacklok/authflow-core/oauth/mocks"
)

func newTestRequest(t *testing.T, state string) *oauth.AuthorizationRequest {
	t.Helper()

	authz, err := url.Parse("https://idp.example/authorize")
	require.NoError(t, err)
	token, err := url.Parse("https://idp.example/token")
	require.NoError(t, err)
	cfg, err := oauth.NewServiceConfiguration(authz, token)
	require.NoError(t, err)

	redirect, err := url.Parse("http://127.0.0.1:8085/callback")
	require.NoError(t, err)

	return &oauth.AuthorizationRequest{
		Configuration: cfg,
		ClientID:      "client-1",
		RedirectURI:   redirect,
		Scopes:        []string{"openid"},
		State:         state,
	}
}

// presentSession presents a session with a mock agent and returns the session
// and the handle the agent produced.
func presentSession(t *testing.T, ctrl *gomock.Controller, state string, opts ...oauth.SessionOption) (*oauth.Session, *mocks.MockAgentHandle) {
	t.Helper()

	session := oauth.NewSession(newTestRequest(t, state), opts...)

	handle := mocks.NewMockAgentHandle(ctrl)
	agent := mocks.NewMockExternalAgent(ctrl)
	agent.EXPECT().Present(gomock.Any()).Return(handle, nil)

	require.NoError(t, session.Present(agent))
	return session, handle
}

func redirectURL(t *testing.T, query string) *url.URL {
	t.Helper()
	u, err := url.Parse("http://127.0.0.1:8085/callback" + query)
	require.NoError(t, err)
	return u
}

func TestSession_SuccessfulFlow(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	session, handle := presentSession(t, ctrl, "state-1")
	handle.EXPECT().Dismiss(gomock.Any()).Return(nil)

	consumed, err := session.ResumeWithRedirect(context.Background(),
		redirectURL(t, "?code=auth-code-1&state=state-1&session_state=extra"))
	require.NoError(t, err)
	assert.True(t, consumed)

	resp, err := session.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "auth-code-1", resp.AuthorizationCode)
	assert.Equal(t, "state-1", resp.State)
	assert.Equal(t, "extra", resp.AdditionalParameters["session_state"])

	select {
	case <-session.Done():
	default:
		t.Error("Done() channel should be closed after the terminal outcome")
	}
}

func TestSession_PresentValidatesRedirectURI(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	request := newTestRequest(t, "state-1")
	u, err := url.Parse("http://not-loopback.example/callback")
	require.NoError(t, err)
	request.RedirectURI = u

	session := oauth.NewSession(request)

	// The agent must never be launched for an invalid redirect URI.
	agent := mocks.NewMockExternalAgent(ctrl)
	require.Error(t, session.Present(agent))
}

func TestSession_StrictPolicyRejectsPrivateScheme(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	request := newTestRequest(t, "state-1")
	u, err := url.Parse("com.example.app:/oauth2redirect")
	require.NoError(t, err)
	request.RedirectURI = u

	// Private-use schemes pass under the default policy but not the strict
	// one.
	agent := mocks.NewMockExternalAgent(ctrl)
	agent.EXPECT().Present(gomock.Any()).Return(mocks.NewMockAgentHandle(ctrl), nil)
	require.NoError(t, oauth.NewSession(request).Present(agent))

	strict := oauth.NewSession(request,
		oauth.WithRedirectURIPolicy(oauth.RedirectURIPolicyStrict))
	require.Error(t, strict.Present(mocks.NewMockExternalAgent(ctrl)))
}

func TestSession_PresentAgentFailure(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	session := oauth.NewSession(newTestRequest(t, "state-1"))

	agent := mocks.NewMockExternalAgent(ctrl)
	agent.EXPECT().Present(gomock.Any()).Return(nil, errors.New("browser not found"))

	err := session.Present(agent)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "browser not found")
}

func TestSession_PresentTwice(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	session, _ := presentSession(t, ctrl, "state-1")

	agent := mocks.NewMockExternalAgent(ctrl)
	agent.EXPECT().Present(gomock.Any()).Return(mocks.NewMockAgentHandle(ctrl), nil)

	err := session.Present(agent)
	require.Error(t, err)
	assert.True(t, oauth.IsFlowError(err, oauth.ErrCodeInvalidFlowState))
}

func TestSession_RedirectDoesNotMatch(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	session, handle := presentSession(t, ctrl, "state-1")

	// Different path: not consumed, session still pending.
	other, err := url.Parse("http://127.0.0.1:8085/other?code=abc")
	require.NoError(t, err)
	consumed, err := session.ResumeWithRedirect(context.Background(), other)
	require.NoError(t, err)
	assert.False(t, consumed)

	// The flow then completes normally.
	handle.EXPECT().Dismiss(gomock.Any()).Return(nil)
	consumed, err = session.ResumeWithRedirect(context.Background(),
		redirectURL(t, "?code=abc&state=state-1"))
	require.NoError(t, err)
	assert.True(t, consumed)
}

func TestSession_RedirectBeforePresent(t *testing.T) {
	t.Parallel()

	session := oauth.NewSession(newTestRequest(t, "state-1"))

	consumed, err := session.ResumeWithRedirect(context.Background(),
		redirectURL(t, "?code=abc&state=state-1"))
	assert.False(t, consumed)
	require.Error(t, err)
	assert.True(t, oauth.IsFlowError(err, oauth.ErrCodeInvalidFlowState))
}

func TestSession_ErrorRedirect(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	session, handle := presentSession(t, ctrl, "state-1")
	handle.EXPECT().Dismiss(gomock.Any()).Return(nil)

	consumed, err := session.ResumeWithRedirect(context.Background(),
		redirectURL(t, "?error=access_denied&error_description=user+denied&state=state-1"))
	require.NoError(t, err)
	assert.True(t, consumed)

	_, err = session.Wait(context.Background())
	require.Error(t, err)

	var oauthErr *oauth.OAuthError
	require.ErrorAs(t, err, &oauthErr)
	assert.Equal(t, oauth.DomainAuthorization, oauthErr.Domain)
	assert.Equal(t, oauth.OAuthAccessDenied, oauthErr.Code)
	assert.Equal(t, "access_denied", oauthErr.RawCode)
	assert.Equal(t, "user denied", oauthErr.Description)
}

func TestSession_StateMismatch(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	session, handle := presentSession(t, ctrl, "abc")
	handle.EXPECT().Dismiss(gomock.Any()).Return(nil)

	consumed, err := session.ResumeWithRedirect(context.Background(),
		redirectURL(t, "?code=auth-code-1&state=xyz"))
	require.NoError(t, err)
	assert.True(t, consumed)

	resp, err := session.Wait(context.Background())
	assert.Nil(t, resp)
	require.Error(t, err)

	var mismatch *oauth.StateMismatchError
	require.ErrorAs(t, err, &mismatch)
	require.NotNil(t, mismatch.Expected)
	require.NotNil(t, mismatch.Actual)
	assert.Equal(t, "abc", *mismatch.Expected)
	assert.Equal(t, "xyz", *mismatch.Actual)
	assert.Equal(t, "auth-code-1", mismatch.Params.Get("code"))
}

func TestSession_StateAbsentOnBothSides(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	session, handle := presentSession(t, ctrl, "")
	handle.EXPECT().Dismiss(gomock.Any()).Return(nil)

	consumed, err := session.ResumeWithRedirect(context.Background(),
		redirectURL(t, "?code=auth-code-1"))
	require.NoError(t, err)
	assert.True(t, consumed)

	resp, err := session.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "auth-code-1", resp.AuthorizationCode)
}

func TestSession_StateAbsentInRedirect(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	session, handle := presentSession(t, ctrl, "abc")
	handle.EXPECT().Dismiss(gomock.Any()).Return(nil)

	consumed, err := session.ResumeWithRedirect(context.Background(),
		redirectURL(t, "?code=auth-code-1"))
	require.NoError(t, err)
	assert.True(t, consumed)

	_, err = session.Wait(context.Background())
	var mismatch *oauth.StateMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Nil(t, mismatch.Actual)
}

func TestSession_Cancel(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	session, handle := presentSession(t, ctrl, "state-1")
	handle.EXPECT().Dismiss(gomock.Any()).Return(nil).Times(1)

	session.Cancel(context.Background())
	// Idempotent: the agent is dismissed exactly once.
	session.Cancel(context.Background())

	resp, err := session.Wait(context.Background())
	assert.Nil(t, resp)
	assert.True(t, oauth.IsFlowError(err, oauth.ErrCodeUserCanceledFlow))
}

func TestSession_CancelBeforePresent(t *testing.T) {
	t.Parallel()

	session := oauth.NewSession(newTestRequest(t, "state-1"))
	session.Cancel(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := session.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSession_AgentSelfDismissed(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	// No Dismiss expectation: the surface is already gone.
	session, _ := presentSession(t, ctrl, "state-1")
	session.AgentSelfDismissed()

	resp, err := session.Wait(context.Background())
	assert.Nil(t, resp)
	assert.True(t, oauth.IsFlowError(err, oauth.ErrCodeProgramCanceledFlow))
}

func TestSession_RedirectAfterTerminalIsInert(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	session, handle := presentSession(t, ctrl, "state-1")
	handle.EXPECT().Dismiss(gomock.Any()).Return(nil).Times(1)

	session.Cancel(context.Background())

	consumed, err := session.ResumeWithRedirect(context.Background(),
		redirectURL(t, "?code=late&state=state-1"))
	require.NoError(t, err)
	assert.False(t, consumed)

	// The committed outcome is unchanged.
	_, err = session.Wait(context.Background())
	assert.True(t, oauth.IsFlowError(err, oauth.ErrCodeUserCanceledFlow))
}

func TestSession_DismissFailureDoesNotAffectOutcome(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	session, handle := presentSession(t, ctrl, "state-1")
	handle.EXPECT().Dismiss(gomock.Any()).Return(errors.New("surface already closed"))

	consumed, err := session.ResumeWithRedirect(context.Background(),
		redirectURL(t, "?code=auth-code-1&state=state-1"))
	require.NoError(t, err)
	assert.True(t, consumed)

	resp, err := session.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "auth-code-1", resp.AuthorizationCode)
}

func TestSession_ExactlyOnceUnderConcurrency(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	session, handle := presentSession(t, ctrl, "state-1")
	// At most one terminal transition dismisses the agent; self-dismissal
	// never does.
	handle.EXPECT().Dismiss(gomock.Any()).Return(nil).MaxTimes(1)

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		_, _ = session.ResumeWithRedirect(context.Background(),
			redirectURL(t, "?code=auth-code-1&state=state-1"))
	}()
	go func() {
		defer wg.Done()
		session.Cancel(context.Background())
	}()
	go func() {
		defer wg.Done()
		session.AgentSelfDismissed()
	}()
	wg.Wait()

	// Exactly one outcome was committed; every waiter observes the same one.
	resp, err := session.Wait(context.Background())
	if err != nil {
		isCancel := oauth.IsFlowError(err, oauth.ErrCodeUserCanceledFlow) ||
			oauth.IsFlowError(err, oauth.ErrCodeProgramCanceledFlow)
		assert.True(t, isCancel, "unexpected terminal error: %v", err)
	} else {
		assert.Equal(t, "auth-code-1", resp.AuthorizationCode)
	}

	respAgain, errAgain := session.Wait(context.Background())
	assert.Equal(t, resp, respAgain)
	assert.Equal(t, err, errAgain)
}

func TestSession_WaitContextCanceled(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	session, _ := presentSession(t, ctrl, "state-1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := session.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSession_RequestIsFrozen(t *testing.T) {
	t.Parallel()

	request := newTestRequest(t, "state-1")
	session := oauth.NewSession(request)

	request.ClientID = "mutated"
	request.Scopes[0] = "mutated"

	frozen := session.Request()
	assert.Equal(t, "client-1", frozen.ClientID)
	assert.Equal(t, []string{"openid"}, frozen.Scopes)
}
