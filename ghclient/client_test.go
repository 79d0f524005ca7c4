/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package ghclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-github/v84/github"
)

type fakeGitHub struct {
	mu       sync.Mutex
	comments []postedComment
}

type postedComment struct {
	Path string
	Auth string
	Body string
}

func (f *fakeGitHub) handler(t *testing.T, srvURL func() string) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /repos/octo/widgets/pulls/7", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("X-RateLimit-Limit", "5000")
		w.Header().Set("X-RateLimit-Remaining", "4999")
		fmt.Fprint(w, `{"number":7,"head":{"ref":"feature/colors","repo":{"clone_url":"https://github.com/alice/widgets.git"}}}`)
	})

	mux.HandleFunc("GET /repos/octo/widgets/pulls/8", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"number":8,"head":{"ref":"gone","repo":null}}`)
	})

	mux.HandleFunc("GET /repos/octo/widgets/pulls/7/files", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Limit", "5000")
		switch r.URL.Query().Get("page") {
		case "", "1":
			w.Header().Set("X-RateLimit-Remaining", "4998")
			w.Header().Set("Link", fmt.Sprintf(`<%s/repos/octo/widgets/pulls/7/files?page=2&per_page=100>; rel="next"`, srvURL()))
			fmt.Fprint(w, `[{"filename":"a.py","status":"modified"},{"filename":"old.py","status":"removed"}]`)
		case "2":
			w.Header().Set("X-RateLimit-Remaining", "4997")
			fmt.Fprint(w, `[{"filename":"b/c.py","status":"added"}]`)
		default:
			t.Errorf("unexpected page %q", r.URL.Query().Get("page"))
		}
	})

	mux.HandleFunc("POST /repos/octo/widgets/issues/7/comments", func(w http.ResponseWriter, r *http.Request) {
		var c github.IssueComment
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
			t.Errorf("decoding comment: %v", err)
		}
		f.mu.Lock()
		f.comments = append(f.comments, postedComment{Path: r.URL.Path, Auth: r.Header.Get("Authorization"), Body: c.GetBody()})
		f.mu.Unlock()
		w.Header().Set("X-RateLimit-Limit", "5000")
		w.Header().Set("X-RateLimit-Remaining", "1234")
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id":1}`)
	})

	return mux
}

func newTestFactory(t *testing.T, opts ...Option) (*Factory, *fakeGitHub, string) {
	t.Helper()

	fake := &fakeGitHub{}
	var srv *httptest.Server
	srv = httptest.NewServer(fake.handler(t, func() string { return srv.URL }))
	t.Cleanup(srv.Close)

	tokens, err := StaticTokenSource("read-token")
	if err != nil {
		t.Fatalf("StaticTokenSource: %v", err)
	}
	cache, err := NewCache(DefaultCacheSize)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	f, err := NewFactory(tokens, cache, append([]Option{WithBaseURL(srv.URL)}, opts...)...)
	if err != nil {
		t.Fatalf("NewFactory: %v", err)
	}
	return f, fake, srv.URL
}

func TestGetPullRequest(t *testing.T) {
	f, _, _ := newTestFactory(t)
	session := f.NewSession()

	if _, ok := session.Rate().Remaining(); ok {
		t.Fatal("rate should be unknown before any call")
	}

	ref, err := session.GetPullRequest(context.Background(), "octo", "widgets", 7)
	if err != nil {
		t.Fatalf("GetPullRequest: %v", err)
	}
	want := PullRequestRef{CloneURL: "https://github.com/alice/widgets.git", BranchRef: "feature/colors"}
	if diff := cmp.Diff(want, ref); diff != "" {
		t.Errorf("GetPullRequest() mismatch (-want +got):\n%s", diff)
	}

	remaining, ok := session.Rate().Remaining()
	if !ok {
		t.Fatal("rate should be known after a call")
	}
	if remaining != 4999 {
		t.Errorf("Remaining() = %d, want 4999", remaining)
	}
}

func TestGetPullRequestNotFound(t *testing.T) {
	f, _, _ := newTestFactory(t)

	_, err := f.NewSession().GetPullRequest(context.Background(), "octo", "widgets", 404)
	if err == nil {
		t.Fatal("expected error")
	}
	var ghErr *github.ErrorResponse
	if !errors.As(err, &ghErr) {
		t.Fatalf("expected *github.ErrorResponse, got %T: %v", err, err)
	}
	if got := ghErr.Response.StatusCode; got != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want %d", got, http.StatusNotFound)
	}
}

func TestGetPullRequestWithoutHeadRepo(t *testing.T) {
	f, _, _ := newTestFactory(t)

	if _, err := f.NewSession().GetPullRequest(context.Background(), "octo", "widgets", 8); err == nil {
		t.Fatal("expected error for deleted head repository")
	}
}

func TestListChangedFilesPaginates(t *testing.T) {
	f, _, _ := newTestFactory(t)
	session := f.NewSession()

	files, err := session.ListChangedFiles(context.Background(), "octo", "widgets", 7)
	if err != nil {
		t.Fatalf("ListChangedFiles: %v", err)
	}
	if diff := cmp.Diff([]string{"a.py", "b/c.py"}, files); diff != "" {
		t.Errorf("ListChangedFiles() mismatch (-want +got):\n%s", diff)
	}
	if remaining, _ := session.Rate().Remaining(); remaining != 4997 {
		t.Errorf("Remaining() = %d, want 4997", remaining)
	}
}

func TestPostCommentUsesCommentToken(t *testing.T) {
	bot, err := StaticTokenSource("bot-token")
	if err != nil {
		t.Fatalf("StaticTokenSource: %v", err)
	}
	f, fake, base := newTestFactory(t, WithCommentTokenSource(bot))

	commentsURL := base + "/repos/octo/widgets/issues/7/comments"
	if err := f.NewSession().PostComment(context.Background(), commentsURL, "hello"); err != nil {
		t.Fatalf("PostComment: %v", err)
	}

	want := []postedComment{{
		Path: "/repos/octo/widgets/issues/7/comments",
		Auth: "Bearer bot-token",
		Body: "hello",
	}}
	if diff := cmp.Diff(want, fake.comments); diff != "" {
		t.Errorf("comments mismatch (-want +got):\n%s", diff)
	}
}

func TestPostCommentLeavesReadRateAlone(t *testing.T) {
	bot, err := StaticTokenSource("bot-token")
	if err != nil {
		t.Fatalf("StaticTokenSource: %v", err)
	}
	f, _, base := newTestFactory(t, WithCommentTokenSource(bot))
	session := f.NewSession()

	commentsURL := base + "/repos/octo/widgets/issues/7/comments"
	if err := session.PostComment(context.Background(), commentsURL, "hello"); err != nil {
		t.Fatalf("PostComment: %v", err)
	}
	if _, ok := session.Rate().Remaining(); ok {
		t.Fatal("comment quota should not be reported as the read quota")
	}

	if _, err := session.GetPullRequest(context.Background(), "octo", "widgets", 7); err != nil {
		t.Fatalf("GetPullRequest: %v", err)
	}
	if err := session.PostComment(context.Background(), commentsURL, "again"); err != nil {
		t.Fatalf("PostComment: %v", err)
	}
	if remaining, _ := session.Rate().Remaining(); remaining != 4999 {
		t.Errorf("Remaining() = %d, want the read quota 4999", remaining)
	}
}

func TestPostCommentRequiresURL(t *testing.T) {
	f, _, _ := newTestFactory(t)
	if err := f.NewSession().PostComment(context.Background(), "", "hello"); err == nil {
		t.Fatal("expected error")
	}
}

func TestSessionsHaveIndependentRate(t *testing.T) {
	f, _, _ := newTestFactory(t)

	first := f.NewSession()
	if _, err := first.GetPullRequest(context.Background(), "octo", "widgets", 7); err != nil {
		t.Fatalf("GetPullRequest: %v", err)
	}

	second := f.NewSession()
	if _, ok := second.Rate().Remaining(); ok {
		t.Error("a fresh session should not inherit rate state")
	}
}

func TestNewFactoryValidates(t *testing.T) {
	cache, err := NewCache(1)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	tokens, err := StaticTokenSource("x")
	if err != nil {
		t.Fatalf("StaticTokenSource: %v", err)
	}

	if _, err := NewFactory(nil, cache); err == nil {
		t.Error("expected error for nil token source")
	}
	if _, err := NewFactory(tokens, nil); err == nil {
		t.Error("expected error for nil cache")
	}
	if _, err := NewFactory(tokens, cache, WithCommentTokenSource(nil)); err == nil {
		t.Error("expected error for nil comment token source")
	}
	if _, err := StaticTokenSource(" "); err == nil {
		t.Error("expected error for empty token")
	}
}
