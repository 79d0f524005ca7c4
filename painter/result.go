/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package painter

import "fmt"

// Outcome is how a run ended.
type Outcome string

const (
	Fixed           Outcome = "fixed"
	NoChangesNeeded Outcome = "no_changes_needed"
	Failed          Outcome = "failed"
)

// Reason says which step a failed run stopped at.
type Reason string

const (
	ReasonNone         Reason = "none"
	ReasonResolve      Reason = "resolve"
	ReasonWorkspace    Reason = "workspace"
	ReasonSync         Reason = "sync"
	ReasonChangedFiles Reason = "changed_files"
	ReasonFix          Reason = "fix"
	ReasonInspect      Reason = "inspect"
	ReasonPublish      Reason = "publish"
	ReasonTimeout      Reason = "timeout"
)

// Result is the outcome of one run.
type Result struct {
	Outcome Outcome
	Reason  Reason
}

// Error is returned by a failed run.
type Error struct {
	Reason Reason
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
