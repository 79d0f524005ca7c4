/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package testing provides local git remotes for clonemanager tests.
package testing

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Remote is a repository on the local filesystem standing in for the head
// repository of a pull request. Its HEAD stays on master so pushes to other
// branches are accepted.
type Remote struct {
	Dir  string
	Repo *git.Repository
}

// NewRemote creates a repository whose master branch holds a README and
// whose branch holds files on top of it.
func NewRemote(t testing.TB, branch string, files map[string]string) *Remote {
	t.Helper()

	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("PlainInit: %v", err)
	}
	r := &Remote{Dir: dir, Repo: repo}

	r.commit(t, map[string]string{"README.md": "# test\n"}, "initial")
	if err := repo.Storer.SetReference(plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName("master"))); err != nil {
		t.Fatalf("SetReference: %v", err)
	}

	if branch == "" || branch == "master" {
		if len(files) > 0 {
			r.commit(t, files, "add files")
		}
		return r
	}

	r.AddBranch(t, branch, files)
	return r
}

// AddBranch creates branch from master with files committed on top of it,
// leaving HEAD on master.
func (r *Remote) AddBranch(t testing.TB, branch string, files map[string]string) {
	t.Helper()

	head, err := r.Repo.Reference(plumbing.NewBranchReferenceName("master"), true)
	if err != nil {
		t.Fatalf("Reference master: %v", err)
	}
	wt := r.worktree(t)
	if err := wt.Checkout(&git.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(branch),
		Hash:   head.Hash(),
		Create: true,
	}); err != nil {
		t.Fatalf("Checkout %s: %v", branch, err)
	}
	r.commit(t, files, "add files")

	if err := wt.Checkout(&git.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName("master"),
		Force:  true,
	}); err != nil {
		t.Fatalf("Checkout master: %v", err)
	}
}

func (r *Remote) worktree(t testing.TB) *git.Worktree {
	t.Helper()
	wt, err := r.Repo.Worktree()
	if err != nil {
		t.Fatalf("Worktree: %v", err)
	}
	return wt
}

func (r *Remote) commit(t testing.TB, files map[string]string, message string) {
	t.Helper()

	wt := r.worktree(t)
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		path := filepath.Join(r.Dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("MkdirAll: %v", err)
		}
		if err := os.WriteFile(path, []byte(files[name]), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
		if _, err := wt.Add(name); err != nil {
			t.Fatalf("Add %s: %v", name, err)
		}
	}

	if _, err := wt.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  "Test",
			Email: "test@example.com",
			When:  time.Now(),
		},
	}); err != nil {
		t.Fatalf("Commit: %v", err)
	}
}

// Head returns the commit at the tip of branch.
func (r *Remote) Head(t testing.TB, branch string) *object.Commit {
	t.Helper()

	ref, err := r.Repo.Reference(plumbing.NewBranchReferenceName(branch), true)
	if err != nil {
		t.Fatalf("Reference %s: %v", branch, err)
	}
	commit, err := r.Repo.CommitObject(ref.Hash())
	if err != nil {
		t.Fatalf("CommitObject: %v", err)
	}
	return commit
}

// File returns the content of path at the tip of branch, and whether it
// exists there.
func (r *Remote) File(t testing.TB, branch, path string) (string, bool) {
	t.Helper()

	f, err := r.Head(t, branch).File(path)
	if err != nil {
		if err == object.ErrFileNotFound {
			return "", false
		}
		t.Fatalf("File %s: %v", path, err)
	}
	content, err := f.Contents()
	if err != nil {
		t.Fatalf("Contents: %v", err)
	}
	return content, true
}
