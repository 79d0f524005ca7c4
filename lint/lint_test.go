/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package lint

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestCommandEditsFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.txt", "b.txt", "untouched.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("messy\n"), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}

	cmd, err := NewCommand("sh", "-c", `for f in "$@"; do echo clean > "$f"; done`, "sh")
	if err != nil {
		t.Fatalf("NewCommand: %v", err)
	}
	if err := cmd.Run(context.Background(), dir, []string{"a.txt", "b.txt"}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	for name, want := range map[string]string{"a.txt": "clean\n", "b.txt": "clean\n", "untouched.txt": "messy\n"} {
		got, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("ReadFile: %v", err)
		}
		if string(got) != want {
			t.Errorf("%s = %q, want %q", name, got, want)
		}
	}
}

func TestCommandRunsInDir(t *testing.T) {
	dir := t.TempDir()

	cmd, err := NewCommand("sh", "-c", `pwd > where.txt`, "sh")
	if err != nil {
		t.Fatalf("NewCommand: %v", err)
	}
	if err := cmd.Run(context.Background(), dir, []string{"x"}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(dir, "where.txt"))
	if err != nil {
		t.Fatalf("expected command to run inside %s: %v", dir, err)
	}
	gotDir, err := filepath.EvalSymlinks(strings.TrimSpace(string(got)))
	if err != nil {
		t.Fatalf("EvalSymlinks: %v", err)
	}
	wantDir, err := filepath.EvalSymlinks(dir)
	if err != nil {
		t.Fatalf("EvalSymlinks: %v", err)
	}
	if gotDir != wantDir {
		t.Errorf("ran in %s, want %s", gotDir, wantDir)
	}
}

func TestCommandIgnoresExitStatus(t *testing.T) {
	cmd, err := NewCommand("sh", "-c", "exit 3", "sh")
	if err != nil {
		t.Fatalf("NewCommand: %v", err)
	}
	if err := cmd.Run(context.Background(), t.TempDir(), []string{"a.py"}); err != nil {
		t.Errorf("Run: %v, want nil", err)
	}
}

func TestCommandMissingProgram(t *testing.T) {
	cmd, err := NewCommand("painterbot-no-such-tool")
	if err != nil {
		t.Fatalf("NewCommand: %v", err)
	}
	if err := cmd.Run(context.Background(), t.TempDir(), []string{"a.py"}); err == nil {
		t.Error("expected error for missing program")
	}
}

func TestCommandTimeout(t *testing.T) {
	cmd, err := NewCommand("sh", "-c", "exec sleep 5", "sh")
	if err != nil {
		t.Fatalf("NewCommand: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err = cmd.Run(ctx, t.TempDir(), []string{"a.py"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Run: got %v, want context.DeadlineExceeded", err)
	}
}

func TestCommandSkipsWithoutFiles(t *testing.T) {
	dir := t.TempDir()
	cmd, err := NewCommand("sh", "-c", "touch ran", "sh")
	if err != nil {
		t.Fatalf("NewCommand: %v", err)
	}
	if err := cmd.Run(context.Background(), dir, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "ran")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("command should not run without files, stat err=%v", err)
	}
}

func TestParseCommand(t *testing.T) {
	cmd, err := ParseCommand("  pre-commit   run --files ")
	if err != nil {
		t.Fatalf("ParseCommand: %v", err)
	}
	if diff := cmp.Diff([]string{"pre-commit", "run", "--files"}, cmd.argv); diff != "" {
		t.Errorf("argv mismatch (-want +got):\n%s", diff)
	}
	if got := cmd.String(); got != DefaultCommand {
		t.Errorf("String() = %q, want %q", got, DefaultCommand)
	}

	if _, err := ParseCommand("   "); err == nil {
		t.Error("expected error for empty command")
	}
}

func TestFunc(t *testing.T) {
	var gotDir string
	var gotFiles []string
	r := Func(func(_ context.Context, dir string, files []string) error {
		gotDir, gotFiles = dir, files
		return nil
	})
	if err := r.Run(context.Background(), "/w", []string{"a"}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if gotDir != "/w" || len(gotFiles) != 1 {
		t.Errorf("got dir=%q files=%v", gotDir, gotFiles)
	}
}
