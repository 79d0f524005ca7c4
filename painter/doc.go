/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package painter runs the fix workflow for a pull request.
//
// A run resolves the pull request's head, leases a fresh clone of it, runs
// the lint tool over the files the pull request changes, and pushes a
// commit when the tool modified anything. Whatever happens, exactly one
// comment reporting the outcome is posted on the conversation the trigger
// came from, and the clone is removed.
//
// Each step runs under its own timeout and OpenTelemetry span:
//
//	wf, err := painter.New(detector, painter.CloneManager(mgr), cmd,
//		painter.WithStepTimeout(5*time.Minute))
//	router.Register(webhook.KindIssueComment, webhook.ActionCreated, wf.Handler())
package painter
