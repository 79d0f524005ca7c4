/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package clonemanager

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"golang.org/x/oauth2"
)

const cloneDirPrefix = "clonemanager-clone-"

// ErrNothingToCommit is returned by CommitAndPush when no tracked file was
// modified.
var ErrNothingToCommit = errors.New("nothing to commit")

// Manager creates leases on behalf of a single bot identity.
type Manager struct {
	tokenSource oauth2.TokenSource
	name        string
	email       string
	tempDir     string
}

// Option configures a Manager.
type Option func(*Manager)

// WithEmail overrides the committer email derived from the identity.
func WithEmail(email string) Option {
	return func(m *Manager) {
		m.email = strings.TrimSpace(email)
	}
}

// WithTempDir places clones under dir instead of the system temp directory.
func WithTempDir(dir string) Option {
	return func(m *Manager) {
		m.tempDir = dir
	}
}

// New constructs a Manager. The token source must allow cloning and pushing
// to the targeted repositories; it may be nil when only unauthenticated
// remotes are used. Identity is the committer name; unless WithEmail is
// given, the email is identity@users.noreply.github.com.
func New(tokenSource oauth2.TokenSource, identity string, opts ...Option) (*Manager, error) {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return nil, errors.New("identity cannot be empty")
	}

	m := &Manager{
		tokenSource: tokenSource,
		name:        identity,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.email == "" {
		m.email = identity + "@users.noreply.github.com"
	}
	return m, nil
}

// Lease is a clone checked out on a pull request's head branch.
type Lease struct {
	manager *Manager
	path    string
	repo    *git.Repository
	branch  plumbing.ReferenceName
	remote  string
}

// Lease clones cloneURL into a new temporary directory and checks out
// branch. On error, nothing is left on disk.
func (m *Manager) Lease(ctx context.Context, cloneURL, branch string) (*Lease, error) {
	switch {
	case cloneURL == "":
		return nil, errors.New("clone url cannot be empty")
	case branch == "":
		return nil, errors.New("branch cannot be empty")
	}

	l, err := m.clone(ctx, cloneURL)
	if err != nil {
		return nil, err
	}

	if err := m.prepare(ctx, l, branch); err != nil {
		if rerr := l.Return(ctx); rerr != nil {
			clog.FromContext(ctx).Warnf("Removing clone after prepare failure: %v", rerr)
		}
		return nil, err
	}
	return l, nil
}

func (m *Manager) clone(ctx context.Context, cloneURL string) (*Lease, error) {
	dir, err := os.MkdirTemp(m.tempDir, cloneDirPrefix)
	if err != nil {
		return nil, fmt.Errorf("creating temp dir: %w", err)
	}

	clog.FromContext(ctx).Infof("Cloning repository %s into %s", redact(cloneURL), dir)

	auth, err := m.authForRemote(cloneURL)
	if err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("getting token: %w", err)
	}

	repo, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:  cloneURL,
		Auth: auth,
	})
	if err != nil {
		os.RemoveAll(dir)
		return nil, &StepError{Step: StepClone, Err: fmt.Errorf("cloning repository: %w", err)}
	}

	return &Lease{manager: m, path: dir, repo: repo, remote: cloneURL}, nil
}

// prepare configures the committer identity, pulls, and checks out branch.
func (m *Manager) prepare(ctx context.Context, l *Lease, branch string) error {
	cfg, err := l.repo.Config()
	if err != nil {
		return &StepError{Step: StepConfigure, Err: fmt.Errorf("reading config: %w", err)}
	}
	cfg.User.Name = m.name
	cfg.User.Email = m.email
	if err := l.repo.SetConfig(cfg); err != nil {
		return &StepError{Step: StepConfigure, Err: fmt.Errorf("writing config: %w", err)}
	}

	auth, err := m.authForRemote(l.remote)
	if err != nil {
		return fmt.Errorf("getting token: %w", err)
	}

	worktree, err := l.repo.Worktree()
	if err != nil {
		return &StepError{Step: StepSync, Err: fmt.Errorf("getting worktree: %w", err)}
	}

	clog.FromContext(ctx).Infof("Pulling origin")
	if err := worktree.PullContext(ctx, &git.PullOptions{RemoteName: "origin", Auth: auth}); err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return &StepError{Step: StepSync, Err: fmt.Errorf("pulling origin: %w", err)}
	}

	local := plumbing.NewBranchReferenceName(branch)
	checkout := &git.CheckoutOptions{Branch: local, Force: true}
	if _, err := l.repo.Reference(local, true); err != nil {
		remoteRef, err := l.repo.Reference(plumbing.NewRemoteReferenceName("origin", branch), true)
		if err != nil {
			return &StepError{Step: StepSync, Err: fmt.Errorf("getting remote ref %s: %w", branch, err)}
		}
		checkout.Hash = remoteRef.Hash()
		checkout.Create = true
	}

	clog.FromContext(ctx).Infof("Checking out %s", branch)
	if err := worktree.Checkout(checkout); err != nil {
		return &StepError{Step: StepSync, Err: fmt.Errorf("checking out %s: %w", branch, err)}
	}

	l.branch = local
	return nil
}

func (m *Manager) authForRemote(remote string) (transport.AuthMethod, error) {
	if m.tokenSource == nil || !isHTTPRemote(remote) {
		return nil, nil
	}

	token, err := m.tokenSource.Token()
	if err != nil {
		return nil, err
	}

	return &githttp.BasicAuth{
		Username: "unused-when-using-access-tokens",
		Password: token.AccessToken,
	}, nil
}

func isHTTPRemote(remote string) bool {
	u, err := url.Parse(remote)
	if err != nil {
		return false
	}
	return u.Scheme == "https" || u.Scheme == "http"
}

// redact drops any credentials embedded in a remote URL before logging it.
func redact(remote string) string {
	u, err := url.Parse(remote)
	if err != nil || u.User == nil {
		return remote
	}
	u.User = nil
	return u.String()
}

// WorkingTree returns the absolute path to the lease's working directory.
func (l *Lease) WorkingTree() string {
	return l.path
}

// Repo returns the underlying git repository for this lease.
func (l *Lease) Repo() *git.Repository {
	return l.repo
}

// Branch returns the short name of the checked-out branch.
func (l *Lease) Branch() string {
	return l.branch.Short()
}

// Dirty reports whether any tracked file differs from HEAD. Untracked files
// are ignored.
func (l *Lease) Dirty() (bool, error) {
	worktree, err := l.repo.Worktree()
	if err != nil {
		return false, fmt.Errorf("getting worktree: %w", err)
	}

	status, err := worktree.Status()
	if err != nil {
		return false, fmt.Errorf("getting worktree status: %w", err)
	}

	for _, fs := range status {
		if fs.Worktree == git.Untracked {
			continue
		}
		if fs.Worktree != git.Unmodified || fs.Staging != git.Unmodified {
			return true, nil
		}
	}
	return false, nil
}

// CommitAndPush stages every tracked modification, commits it with message
// using the manager's identity, and pushes the head branch to origin.
func (l *Lease) CommitAndPush(ctx context.Context, message string) error {
	if message == "" {
		return errors.New("commit message cannot be empty")
	}

	dirty, err := l.Dirty()
	if err != nil {
		return err
	}
	if !dirty {
		return ErrNothingToCommit
	}

	worktree, err := l.repo.Worktree()
	if err != nil {
		return fmt.Errorf("getting worktree: %w", err)
	}

	sig := &object.Signature{
		Name:  l.manager.name,
		Email: l.manager.email,
		When:  time.Now(),
	}
	hash, err := worktree.Commit(message, &git.CommitOptions{
		All:       true,
		Author:    sig,
		Committer: sig,
	})
	if err != nil {
		return &StepError{Step: StepCommit, Err: fmt.Errorf("committing: %w", err)}
	}
	clog.FromContext(ctx).Infof("Created commit %s", hash)

	auth, err := l.manager.authForRemote(l.remote)
	if err != nil {
		return fmt.Errorf("getting token: %w", err)
	}

	refSpec := gitconfig.RefSpec(fmt.Sprintf("%s:%s", l.branch, l.branch))
	clog.FromContext(ctx).Infof("Pushing %s", refSpec)
	if err := l.repo.PushContext(ctx, &git.PushOptions{
		RemoteName: "origin",
		RefSpecs:   []gitconfig.RefSpec{refSpec},
		Auth:       auth,
	}); err != nil {
		if errors.Is(err, git.NoErrAlreadyUpToDate) {
			clog.FromContext(ctx).Infof("Branch already up to date")
			return nil
		}
		return &StepError{Step: StepPush, Err: fmt.Errorf("pushing: %w", err)}
	}
	return nil
}

// Return removes the lease's working directory. The lease is invalid
// afterwards; calling Return again is a no-op.
func (l *Lease) Return(ctx context.Context) error {
	if l.path == "" {
		return nil
	}
	clog.FromContext(ctx).Debugf("Removing clone %s", l.path)
	if err := os.RemoveAll(l.path); err != nil {
		return fmt.Errorf("removing clone: %w", err)
	}
	l.path = ""
	l.repo = nil
	return nil
}
