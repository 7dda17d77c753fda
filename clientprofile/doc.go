// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

/*
Package clientprofile loads pre-registered OAuth client material from a YAML
file, so hosts can keep client registration out of their code:

	issuer: https://idp.example
	client_id: my-cli
	scopes:
	  - openid
	  - profile

A profile builds authorization requests against a discovered service
configuration:

	profile, err := clientprofile.LoadDefault()
	// handle err
	req, err := profile.AuthorizationRequest(cfg, oauth.GenerateState())

The default location follows the XDG base directory specification
(typically ~/.config/authflow/profile.yaml).

# Stability

This package is Alpha stability. The API may change without notice.
*/
package clientprofile
