/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package lint runs the external auto-fix tool over a set of files. Only the
// tool's edits to the working tree matter; its exit status is logged and
// otherwise ignored.
package lint

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"slices"
	"strings"
	"time"

	"github.com/chainguard-dev/clog"
)

// DefaultCommand is the tool run when none is configured.
const DefaultCommand = "pre-commit run --files"

const waitDelay = 10 * time.Second

// Runner fixes files inside dir. Paths in files are relative to dir.
type Runner interface {
	Run(ctx context.Context, dir string, files []string) error
}

// Func adapts a function to a Runner.
type Func func(ctx context.Context, dir string, files []string) error

// Run implements Runner.
func (f Func) Run(ctx context.Context, dir string, files []string) error {
	return f(ctx, dir, files)
}

// Command runs a fixed argv with the files appended.
type Command struct {
	argv []string
}

// NewCommand returns a Command for argv, which must name a program.
func NewCommand(argv ...string) (*Command, error) {
	if len(argv) == 0 || strings.TrimSpace(argv[0]) == "" {
		return nil, errors.New("command cannot be empty")
	}
	return &Command{argv: slices.Clone(argv)}, nil
}

// ParseCommand splits a whitespace-separated command line into a Command.
func ParseCommand(line string) (*Command, error) {
	return NewCommand(strings.Fields(line)...)
}

// String returns the command line without files.
func (c *Command) String() string {
	return strings.Join(c.argv, " ")
}

// Run invokes the command in dir. It fails only if the command cannot be
// started or ctx ends first; a non-zero exit is not an error.
func (c *Command) Run(ctx context.Context, dir string, files []string) error {
	log := clog.FromContext(ctx).With("command", c.argv[0])
	if len(files) == 0 {
		log.Info("No files to fix")
		return nil
	}

	args := append(slices.Clone(c.argv[1:]), files...)
	cmd := exec.CommandContext(ctx, c.argv[0], args...)
	cmd.Dir = dir
	// Children of the tool may hold the output pipes after it is killed.
	cmd.WaitDelay = waitDelay

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	log.Infof("Running %s on %d file(s)", c, len(files))
	err := cmd.Run()
	if out.Len() > 0 {
		log.Debugf("%s output:\n%s", c.argv[0], out.String())
	}

	if ctx.Err() != nil {
		return fmt.Errorf("running %s: %w", c.argv[0], ctx.Err())
	}

	var exitErr *exec.ExitError
	switch {
	case errors.As(err, &exitErr):
		log.With("exit_code", exitErr.ExitCode()).Info("Fix tool exited with non-zero status")
		return nil
	case err != nil:
		return fmt.Errorf("running %s: %w", c.argv[0], err)
	}
	return nil
}
