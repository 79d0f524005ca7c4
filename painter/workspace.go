/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package painter

import (
	"context"

	"chainguard.dev/painterbot/clonemanager"
	"chainguard.dev/painterbot/ghclient"
)

// API is the subset of the GitHub API a run uses. *ghclient.Session
// implements it.
type API interface {
	GetPullRequest(ctx context.Context, owner, repo string, number int) (ghclient.PullRequestRef, error)
	ListChangedFiles(ctx context.Context, owner, repo string, number int) ([]string, error)
	PostComment(ctx context.Context, commentsURL, body string) error
}

var _ API = (*ghclient.Session)(nil)

// Workspace is a checked out pull request head.
type Workspace interface {
	WorkingTree() string
	Dirty() (bool, error)
	CommitAndPush(ctx context.Context, message string) error
	Return(ctx context.Context) error
}

// Workspaces hands out isolated workspaces.
type Workspaces interface {
	Lease(ctx context.Context, cloneURL, branch string) (Workspace, error)
}

// CloneManager adapts a clonemanager.Manager to Workspaces.
func CloneManager(m *clonemanager.Manager) Workspaces {
	return cloneManager{m: m}
}

type cloneManager struct {
	m *clonemanager.Manager
}

func (c cloneManager) Lease(ctx context.Context, cloneURL, branch string) (Workspace, error) {
	l, err := c.m.Lease(ctx, cloneURL, branch)
	if err != nil {
		return nil, err
	}
	return l, nil
}
