/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package clonemanager

import "fmt"

// Step names the git operation that failed.
type Step string

const (
	StepClone     Step = "clone"
	StepConfigure Step = "configure"
	StepSync      Step = "sync"
	StepCommit    Step = "commit"
	StepPush      Step = "push"
)

// StepError records which step of a lease failed.
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
