/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package painter

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	runs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "painterbot_workflow_runs_total",
			Help: "Workflow runs by outcome and failure reason",
		},
		[]string{"outcome", "reason"},
	)

	runDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "painterbot_workflow_duration_seconds",
			Help:    "Duration of workflow runs",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
		},
		[]string{"outcome"},
	)
)
