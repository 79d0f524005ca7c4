/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package main runs painter-bot: it receives GitHub comment webhooks and,
// when asked, lints the pull request's changed files and pushes the fixes.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chainguard.dev/painterbot/clonemanager"
	"chainguard.dev/painterbot/ghclient"
	"chainguard.dev/painterbot/lint"
	"chainguard.dev/painterbot/painter"
	"chainguard.dev/painterbot/trigger"
	"chainguard.dev/painterbot/webhook"
	"github.com/chainguard-dev/clog"
	_ "github.com/chainguard-dev/clog/gcp/init"
	"github.com/chainguard-dev/terraform-infra-common/pkg/httpmetrics"
	"github.com/chainguard-dev/terraform-infra-common/pkg/profiler"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sethvargo/go-envconfig"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go httpmetrics.ScrapeDiskUsage(ctx)
	profiler.SetupProfiler()
	defer httpmetrics.SetupTracer(ctx)()

	var cfg config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		clog.FatalContextf(ctx, "processing config: %v", err)
	}

	tokens, commentTokens, err := cfg.tokenSources()
	if err != nil {
		clog.FatalContextf(ctx, "configuring GitHub credentials: %v", err)
	}

	cache, err := ghclient.NewCache(cfg.CacheSize)
	if err != nil {
		clog.FatalContextf(ctx, "creating cache: %v", err)
	}
	factoryOpts := []ghclient.Option{
		ghclient.WithTransport(httpmetrics.WrapTransport(http.DefaultTransport)),
		ghclient.WithCommentTokenSource(commentTokens),
	}
	if cfg.APIURL != "" {
		factoryOpts = append(factoryOpts, ghclient.WithBaseURL(cfg.APIURL))
	}
	factory, err := ghclient.NewFactory(tokens, cache, factoryOpts...)
	if err != nil {
		clog.FatalContextf(ctx, "creating GitHub client factory: %v", err)
	}

	var cmOpts []clonemanager.Option
	if cfg.Email != "" {
		cmOpts = append(cmOpts, clonemanager.WithEmail(cfg.Email))
	}
	if cfg.WorkspaceDir != "" {
		cmOpts = append(cmOpts, clonemanager.WithTempDir(cfg.WorkspaceDir))
	}
	mgr, err := clonemanager.New(tokens, cfg.Username, cmOpts...)
	if err != nil {
		clog.FatalContextf(ctx, "creating clone manager: %v", err)
	}

	fixer, err := lint.ParseCommand(cfg.lintCommand())
	if err != nil {
		clog.FatalContextf(ctx, "parsing lint command: %v", err)
	}

	detector, err := trigger.New(cfg.Username)
	if err != nil {
		clog.FatalContextf(ctx, "creating trigger detector: %v", err)
	}

	wf, err := painter.New(detector, painter.CloneManager(mgr), fixer, painter.WithStepTimeout(cfg.StepTimeout))
	if err != nil {
		clog.FatalContextf(ctx, "creating workflow: %v", err)
	}

	router := webhook.NewRouter()
	router.Register(webhook.KindIssueComment, webhook.ActionCreated, wf.Handler())
	router.Register(webhook.KindIssueComment, webhook.ActionEdited, wf.Handler())
	router.Register(webhook.KindPullRequestReviewComment, webhook.ActionAny, wf.Handler())

	webhooks, err := webhook.NewHandler([]byte(cfg.WebhookSecret), router, factory, webhook.WithDeliveryDedup(cfg.DedupTTL))
	if err != nil {
		clog.FatalContextf(ctx, "creating webhook handler: %v", err)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           newRouter(webhooks),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
	}
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metrics := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.MetricsPort),
		Handler:           metricsMux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg, ctx := errgroup.WithContext(ctx)
	for _, s := range []*http.Server{srv, metrics} {
		eg.Go(func() error {
			clog.InfoContextf(ctx, "Listening on %s", s.Addr)
			if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serving %s: %w", s.Addr, err)
			}
			return nil
		})
		eg.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
			defer cancel()
			return s.Shutdown(shutdownCtx)
		})
	}

	clog.InfoContextf(ctx, "Starting painter-bot as @%s", detector.Login())
	if err := eg.Wait(); err != nil {
		clog.FatalContextf(ctx, "server failed: %v", err)
	}
}
