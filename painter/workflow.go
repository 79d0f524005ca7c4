/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package painter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chainguard.dev/painterbot/clonemanager"
	"chainguard.dev/painterbot/ghclient"
	"chainguard.dev/painterbot/lint"
	"chainguard.dev/painterbot/trigger"
	"chainguard.dev/painterbot/webhook"
	"github.com/chainguard-dev/clog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// DefaultStepTimeout bounds each network or process step of a run.
	DefaultStepTimeout = 5 * time.Minute

	commitMessage  = "Fix linter problems."
	fixedMessage   = "@%s tried to fix as much as possible."
	noopMessage    = "@%s has nothing to change on this PR."
	failureMessage = "It was not possible to fix the problems.\nPlease try again or be sure that your code can be executed."
)

var tracer = otel.Tracer("chainguard.dev/painterbot/painter")

// Workflow fixes pull requests on request.
type Workflow struct {
	detector    *trigger.Detector
	workspaces  Workspaces
	fixer       lint.Runner
	stepTimeout time.Duration
}

// Option configures a Workflow.
type Option func(*Workflow)

// WithStepTimeout sets the timeout applied to each step. Zero or negative
// disables it.
func WithStepTimeout(d time.Duration) Option {
	return func(w *Workflow) {
		w.stepTimeout = d
	}
}

// New returns a Workflow answering to the detector's bot login.
func New(detector *trigger.Detector, workspaces Workspaces, fixer lint.Runner, opts ...Option) (*Workflow, error) {
	switch {
	case detector == nil:
		return nil, errors.New("detector cannot be nil")
	case workspaces == nil:
		return nil, errors.New("workspaces cannot be nil")
	case fixer == nil:
		return nil, errors.New("fixer cannot be nil")
	}

	w := &Workflow{
		detector:    detector,
		workspaces:  workspaces,
		fixer:       fixer,
		stepTimeout: DefaultStepTimeout,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Handler returns the webhook handler for comment events. Comments that are
// not a trigger, or that were deleted, are ignored.
func (w *Workflow) Handler() webhook.HandlerFunc {
	return func(ctx context.Context, ev webhook.Event, gh *ghclient.Session) error {
		if ev.Action == webhook.ActionDeleted {
			return nil
		}
		c, err := ev.Comment()
		if err != nil {
			return err
		}
		if !w.detector.Detect(c.Body, c.AuthorLogin) {
			clog.FromContext(ctx).Debugf("Comment by %s on %s#%d is not a trigger", c.AuthorLogin, c.RepositoryFullName(), c.Number)
			return nil
		}
		_, err = w.Run(ctx, c, gh)
		return err
	}
}

// Run fixes the pull request c was posted on and reports the outcome with a
// single comment. A failed run returns an *Error, joined with the error from
// posting the comment if that failed too.
func (w *Workflow) Run(ctx context.Context, c webhook.CommentPayload, api API) (Result, error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "painter.Run", trace.WithAttributes(
		attribute.String("repository", c.RepositoryFullName()),
		attribute.Int("number", c.Number),
	))
	defer span.End()

	log := clog.FromContext(ctx).With("repository", c.RepositoryFullName(), "number", c.Number)
	ctx = clog.WithLogger(ctx, log)
	log.Infof("Fixing %s#%d for %s", c.RepositoryFullName(), c.Number, c.AuthorLogin)

	result, err := w.fix(ctx, c, api)

	var message string
	switch result.Outcome {
	case Fixed:
		message = fmt.Sprintf(fixedMessage, w.detector.Login())
	case NoChangesNeeded:
		message = fmt.Sprintf(noopMessage, w.detector.Login())
	default:
		message = failureMessage
	}
	postErr := w.comment(ctx, api, c.CommentsURL, message)

	runs.WithLabelValues(string(result.Outcome), string(result.Reason)).Inc()
	runDuration.WithLabelValues(string(result.Outcome)).Observe(time.Since(start).Seconds())
	span.SetAttributes(attribute.String("outcome", string(result.Outcome)))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(result.Reason))
		log.Errorf("Fixing failed at %s: %v", result.Reason, err)
		return result, errors.Join(err, postErr)
	}
	log.Infof("Finished with %s", result.Outcome)
	return result, postErr
}

func (w *Workflow) fix(ctx context.Context, c webhook.CommentPayload, api API) (Result, error) {
	var ref ghclient.PullRequestRef
	if err := w.step(ctx, "resolve", func(ctx context.Context) (err error) {
		ref, err = api.GetPullRequest(ctx, c.Owner, c.Repo, c.Number)
		return err
	}); err != nil {
		return fail(ReasonResolve, fmt.Errorf("resolving pull request: %w", err))
	}

	var ws Workspace
	if err := w.step(ctx, "lease", func(ctx context.Context) (err error) {
		ws, err = w.workspaces.Lease(ctx, ref.CloneURL, ref.BranchRef)
		return err
	}); err != nil {
		reason := ReasonWorkspace
		var se *clonemanager.StepError
		if errors.As(err, &se) && se.Step == clonemanager.StepSync {
			reason = ReasonSync
		}
		return fail(reason, fmt.Errorf("preparing workspace for %s: %w", ref.BranchRef, err))
	}
	defer func() {
		if err := ws.Return(context.WithoutCancel(ctx)); err != nil {
			clog.FromContext(ctx).Warnf("Returning workspace: %v", err)
		}
	}()

	var files []string
	if err := w.step(ctx, "changed_files", func(ctx context.Context) (err error) {
		files, err = api.ListChangedFiles(ctx, c.Owner, c.Repo, c.Number)
		return err
	}); err != nil {
		return fail(ReasonChangedFiles, fmt.Errorf("listing changed files: %w", err))
	}
	clog.FromContext(ctx).Infof("Linting %d changed files", len(files))

	if err := w.step(ctx, "lint", func(ctx context.Context) error {
		return w.fixer.Run(ctx, ws.WorkingTree(), files)
	}); err != nil {
		return fail(ReasonFix, err)
	}

	dirty, err := ws.Dirty()
	if err != nil {
		return fail(ReasonInspect, fmt.Errorf("inspecting workspace: %w", err))
	}
	if !dirty {
		return Result{Outcome: NoChangesNeeded, Reason: ReasonNone}, nil
	}

	if err := w.step(ctx, "publish", func(ctx context.Context) error {
		return ws.CommitAndPush(ctx, commitMessage)
	}); err != nil {
		if errors.Is(err, clonemanager.ErrNothingToCommit) {
			return Result{Outcome: NoChangesNeeded, Reason: ReasonNone}, nil
		}
		return fail(ReasonPublish, fmt.Errorf("publishing fixes: %w", err))
	}
	return Result{Outcome: Fixed, Reason: ReasonNone}, nil
}

// step runs fn under the step timeout in its own span. An error returned
// after the step's deadline passed always matches context.DeadlineExceeded.
func (w *Workflow) step(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := tracer.Start(ctx, "painter."+name)
	defer span.End()

	cancel := context.CancelFunc(func() {})
	if w.stepTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, w.stepTimeout)
	}
	defer cancel()

	err := fn(ctx)
	if err == nil {
		return nil
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("%w (%w)", err, context.DeadlineExceeded)
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// comment posts body. Cancellation is not reported.
func (w *Workflow) comment(ctx context.Context, api API, commentsURL, body string) error {
	err := w.step(ctx, "comment", func(ctx context.Context) error {
		return api.PostComment(ctx, commentsURL, body)
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled):
		clog.FromContext(ctx).Warnf("Posting comment canceled: %v", err)
		return nil
	default:
		return fmt.Errorf("posting comment: %w", err)
	}
}

func fail(reason Reason, err error) (Result, error) {
	if errors.Is(err, context.DeadlineExceeded) {
		reason = ReasonTimeout
	}
	return Result{Outcome: Failed, Reason: reason}, &Error{Reason: reason, Err: err}
}
