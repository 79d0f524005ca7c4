/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package ghclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v84/github"
	"golang.org/x/oauth2"
)

// PullRequestRef locates the head branch of a pull request.
type PullRequestRef struct {
	CloneURL  string
	BranchRef string
}

// Factory creates per-delivery Sessions that share a Cache and credentials.
type Factory struct {
	cache         *Cache
	base          http.RoundTripper
	tokens        oauth2.TokenSource
	commentTokens oauth2.TokenSource
	baseURL       *url.URL
}

// Option configures a Factory.
type Option func(*Factory) error

// WithCommentTokenSource makes comments be posted with a different
// credential than the one used for reads.
func WithCommentTokenSource(ts oauth2.TokenSource) Option {
	return func(f *Factory) error {
		if ts == nil {
			return errors.New("comment token source cannot be nil")
		}
		f.commentTokens = ts
		return nil
	}
}

// WithBaseURL points the clients at a different API root, such as a GitHub
// Enterprise Server ("https://ghe.example.com/api/v3/").
func WithBaseURL(raw string) Option {
	return func(f *Factory) error {
		if !strings.HasSuffix(raw, "/") {
			raw += "/"
		}
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("parsing base url: %w", err)
		}
		f.baseURL = u
		return nil
	}
}

// WithTransport sets the transport beneath the cache and authentication.
func WithTransport(rt http.RoundTripper) Option {
	return func(f *Factory) error {
		f.base = rt
		return nil
	}
}

// NewFactory constructs a Factory reading with tokens and caching in cache.
func NewFactory(tokens oauth2.TokenSource, cache *Cache, opts ...Option) (*Factory, error) {
	if tokens == nil {
		return nil, errors.New("token source cannot be nil")
	}
	if cache == nil {
		return nil, errNilCache
	}

	f := &Factory{
		cache:  cache,
		base:   http.DefaultTransport,
		tokens: tokens,
	}
	for _, opt := range opts {
		if err := opt(f); err != nil {
			return nil, err
		}
	}
	if f.commentTokens == nil {
		f.commentTokens = tokens
	}
	return f, nil
}

func (f *Factory) client(ts oauth2.TokenSource) *github.Client {
	c := github.NewClient(&http.Client{
		Transport: &oauth2.Transport{
			Source: ts,
			Base:   f.cache.Wrap(f.base),
		},
	})
	if f.baseURL != nil {
		u := *f.baseURL
		c.BaseURL = &u
	}
	return c
}

// NewSession returns a Session scoped to a single webhook delivery.
func (f *Factory) NewSession() *Session {
	return &Session{
		client:    f.client(f.tokens),
		commenter: f.client(f.commentTokens),
		rate:      &RateState{},
	}
}

// Session issues the GitHub calls needed while handling one delivery.
type Session struct {
	client    *github.Client
	commenter *github.Client
	rate      *RateState
}

// Rate returns the rate limit state observed by this session's reads.
// Comments are posted with a separate credential whose quota is not
// tracked here.
func (s *Session) Rate() *RateState {
	return s.rate
}

// GetPullRequest resolves the clone URL and branch of a pull request's head.
func (s *Session) GetPullRequest(ctx context.Context, owner, repo string, number int) (PullRequestRef, error) {
	pr, resp, err := s.client.PullRequests.Get(ctx, owner, repo, number)
	s.rate.observe(resp)
	if err != nil {
		return PullRequestRef{}, fmt.Errorf("fetching pull request %s/%s#%d: %w", owner, repo, number, err)
	}

	ref := PullRequestRef{
		CloneURL:  pr.GetHead().GetRepo().GetCloneURL(),
		BranchRef: pr.GetHead().GetRef(),
	}
	switch {
	case ref.CloneURL == "":
		return PullRequestRef{}, fmt.Errorf("pull request %s/%s#%d has no head repository", owner, repo, number)
	case ref.BranchRef == "":
		return PullRequestRef{}, fmt.Errorf("pull request %s/%s#%d has no head ref", owner, repo, number)
	}
	return ref, nil
}

// ListChangedFiles returns the paths touched by a pull request, following
// pagination. Removed files are skipped since there is nothing left to fix.
func (s *Session) ListChangedFiles(ctx context.Context, owner, repo string, number int) ([]string, error) {
	opts := &github.ListOptions{PerPage: 100}
	var paths []string
	for {
		files, resp, err := s.client.PullRequests.ListFiles(ctx, owner, repo, number, opts)
		s.rate.observe(resp)
		if err != nil {
			return nil, fmt.Errorf("listing files of %s/%s#%d: %w", owner, repo, number, err)
		}
		for _, f := range files {
			if f.GetStatus() == "removed" {
				continue
			}
			paths = append(paths, f.GetFilename())
		}
		if resp.NextPage == 0 {
			return paths, nil
		}
		opts.Page = resp.NextPage
	}
}

// PostComment posts body to the comments URL carried by the webhook payload.
func (s *Session) PostComment(ctx context.Context, commentsURL, body string) error {
	if commentsURL == "" {
		return errors.New("comments url cannot be empty")
	}
	req, err := s.commenter.NewRequest(http.MethodPost, commentsURL, &github.IssueComment{Body: github.Ptr(body)})
	if err != nil {
		return fmt.Errorf("building comment request: %w", err)
	}
	if _, err := s.commenter.Do(ctx, req, nil); err != nil {
		return fmt.Errorf("posting comment: %w", err)
	}
	return nil
}
