/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package webhook

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// labelInvalid counts requests whose signature did not verify.
	labelInvalid = "invalid"
	labelOther   = "other"
)

var deliveries = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "painterbot_webhook_deliveries_total",
		Help: "Webhook deliveries by event kind and response code",
	},
	[]string{"kind", "code"},
)

// kindLabel bounds the kind label to the kinds the bot knows.
func kindLabel(k Kind) string {
	switch k {
	case KindPing, KindIssueComment, KindPullRequestReviewComment:
		return string(k)
	default:
		return labelOther
	}
}
