// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

/*
Package agent provides concrete external user agents for hosts driving an
authorization flow from a command line or desktop process.

[Browser] implements [oauth.ExternalAgent] by opening the authorization URL
in the system browser. [Listener] runs a loopback HTTP server on the
redirect URI and feeds every received redirect into a flow session, so a
host can run the full authorization code flow end to end:

	listener := agent.NewListener(session)
	redirectURI, err := listener.Start(ctx)
	// handle err; build the AuthorizationRequest with redirectURI,
	// then present the session with agent.NewBrowser()
	defer listener.Stop()

# Stability

This package is Alpha stability. The API may change without notice.
*/
package agent
