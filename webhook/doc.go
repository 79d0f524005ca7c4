/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package webhook accepts GitHub webhook deliveries and routes them to
// handlers by event kind and action.
//
// A Handler verifies the delivery signature against the shared secret,
// answers pings, parses the payload into an Event, and dispatches it through
// a Router together with a fresh ghclient.Session. Every failure, including
// a bad signature, is answered with 500 so the sender retries.
//
//	router := webhook.NewRouter()
//	router.Register(webhook.KindIssueComment, webhook.ActionCreated, onComment)
//	h, err := webhook.NewHandler(secret, router, factory)
//	http.Handle("/", h)
package webhook
