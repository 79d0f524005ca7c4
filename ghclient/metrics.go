/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package ghclient

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "painterbot_github_cache_requests_total",
			Help: "GET requests to the GitHub API by cache result",
		},
		[]string{"result"},
	)

	rateRemaining = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "painterbot_github_rate_remaining",
			Help: "Most recently observed remaining GitHub API quota",
		},
	)
)
