/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package ghclient is the bot's view of the GitHub REST API. A Factory is
// built once per process and owns the shared conditional-request Cache and
// credentials. Each inbound webhook delivery gets its own Session, which
// tracks the rate limit observed on that delivery's calls:
//
//	cache, err := ghclient.NewCache(500)
//	f, err := ghclient.NewFactory(tokens, cache)
//	session := f.NewSession()
//	ref, err := session.GetPullRequest(ctx, "owner", "repo", 42)
//
// GET responses carrying an ETag or Last-Modified header are kept in the
// Cache and revalidated with conditional requests, so unchanged resources
// are served without spending quota.
package ghclient
