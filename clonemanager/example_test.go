/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package clonemanager

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

func ExampleLease_CommitAndPush() {
	ctx := context.Background()

	repoDir, cleanup := initExampleRepo("feature")
	defer cleanup()

	mgr, err := New(nil, "painter-bot")
	if err != nil {
		fmt.Println("error creating manager:", err)
		return
	}

	lease, err := mgr.Lease(ctx, repoDir, "feature")
	if err != nil {
		fmt.Println("lease error:", err)
		return
	}
	defer lease.Return(ctx)

	path := filepath.Join(lease.WorkingTree(), "example.py")
	if err := os.WriteFile(path, []byte("x = 1\n"), 0o644); err != nil {
		fmt.Println("write error:", err)
		return
	}

	dirty, err := lease.Dirty()
	if err != nil {
		fmt.Println("status error:", err)
		return
	}
	fmt.Println("dirty:", dirty)

	if err := lease.CommitAndPush(ctx, "Fix linter problems."); err != nil {
		fmt.Println("push error:", err)
		return
	}

	repo, err := git.PlainOpen(repoDir)
	if err != nil {
		fmt.Println("open origin error:", err)
		return
	}
	ref, err := repo.Reference(plumbing.NewBranchReferenceName("feature"), true)
	if err != nil {
		fmt.Println("reference error:", err)
		return
	}
	commit, err := repo.CommitObject(ref.Hash())
	if err != nil {
		fmt.Println("commit error:", err)
		return
	}
	fmt.Println("pushed:", strings.TrimSpace(commit.Message))
	fmt.Println("author:", commit.Author.Name)

	// Output:
	// dirty: true
	// pushed: Fix linter problems.
	// author: painter-bot
}

// initExampleRepo creates an origin with branch holding example.py on top of
// master, leaving HEAD on master.
func initExampleRepo(branch string) (string, func()) {
	dir, err := os.MkdirTemp("", "clonemanager-example-")
	if err != nil {
		panic(err)
	}
	cleanup := func() { os.RemoveAll(dir) }

	repo, err := git.PlainInit(dir, false)
	if err != nil {
		panic(err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		panic(err)
	}
	sig := &object.Signature{Name: "Example", Email: "example@example.com", When: time.Now()}

	commit := func(name, content, message string) {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			panic(err)
		}
		if _, err := wt.Add(name); err != nil {
			panic(err)
		}
		if _, err := wt.Commit(message, &git.CommitOptions{Author: sig}); err != nil {
			panic(err)
		}
	}

	commit("README.md", "# example\n", "initial")
	if err := repo.Storer.SetReference(plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName("master"))); err != nil {
		panic(err)
	}
	head, err := repo.Head()
	if err != nil {
		panic(err)
	}
	if err := wt.Checkout(&git.CheckoutOptions{Branch: plumbing.NewBranchReferenceName(branch), Hash: head.Hash(), Create: true}); err != nil {
		panic(err)
	}
	commit("example.py", "x=1\n", "add example")
	if err := wt.Checkout(&git.CheckoutOptions{Branch: plumbing.NewBranchReferenceName("master"), Force: true}); err != nil {
		panic(err)
	}
	return dir, cleanup
}
