/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package webhook

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"chainguard.dev/painterbot/ghclient"
	"github.com/chainguard-dev/clog"
	"github.com/google/go-github/v84/github"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

const dedupSize = 1000

// SessionFactory creates the GitHub session handed to each delivery.
type SessionFactory interface {
	NewSession() *ghclient.Session
}

// Handler is the http.Handler receiving webhook deliveries.
type Handler struct {
	secret   []byte
	router   *Router
	sessions SessionFactory
	seen     *expirable.LRU[string, struct{}]
}

// Option configures a Handler.
type Option func(*Handler)

// WithDeliveryDedup remembers successfully handled delivery ids for ttl and
// skips re-deliveries of them. Failed deliveries are never remembered.
func WithDeliveryDedup(ttl time.Duration) Option {
	return func(h *Handler) {
		if ttl > 0 {
			h.seen = expirable.NewLRU[string, struct{}](dedupSize, nil, ttl)
		}
	}
}

// NewHandler returns a Handler verifying deliveries with secret.
func NewHandler(secret []byte, router *Router, sessions SessionFactory, opts ...Option) (*Handler, error) {
	switch {
	case len(secret) == 0:
		return nil, errors.New("webhook secret cannot be empty")
	case router == nil:
		return nil, errors.New("router cannot be nil")
	case sessions == nil:
		return nil, errors.New("session factory cannot be nil")
	}

	h := &Handler{secret: secret, router: router, sessions: sessions}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// ServeHTTP answers 200 for handled, ignored, and ping deliveries and 500
// for anything that failed.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := clog.FromContext(r.Context()).With("delivery", github.DeliveryID(r), "event", github.WebHookType(r))
	ctx := clog.WithLogger(r.Context(), log)

	code := http.StatusOK
	label, err := h.handle(ctx, r)
	if err != nil {
		log.Errorf("Handling delivery: %+v", err)
		code = http.StatusInternalServerError
	}

	deliveries.WithLabelValues(label, strconv.Itoa(code)).Inc()
	w.WriteHeader(code)
}

// handle returns the metric label for the delivery's kind. Until the
// signature is verified the label is labelInvalid.
func (h *Handler) handle(ctx context.Context, r *http.Request) (label string, err error) {
	label = labelInvalid
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v\n%s", p, debug.Stack())
		}
	}()

	payload, err := github.ValidatePayload(r, h.secret)
	if err != nil {
		return label, fmt.Errorf("validating payload: %w", err)
	}

	log := clog.FromContext(ctx)
	deliveryID := github.DeliveryID(r)
	kind := Kind(github.WebHookType(r))
	label = kindLabel(kind)
	log.Infof("GH delivery ID %s", deliveryID)

	if kind == KindPing {
		return label, nil
	}
	if h.seen != nil && deliveryID != "" && h.seen.Contains(deliveryID) {
		log.Info("Delivery already handled, skipping")
		return label, nil
	}

	ev, err := ParseEvent(kind, deliveryID, payload)
	if err != nil {
		return label, err
	}

	// The sender gives up on slow deliveries long before the workflow is
	// done; its disconnect must not abort the work already started.
	ctx = context.WithoutCancel(ctx)

	session := h.sessions.NewSession()
	err = h.router.Dispatch(ctx, ev, session)
	if remaining, ok := session.Rate().Remaining(); ok {
		log.Infof("GH requests remaining: %d", remaining)
	}
	if err != nil {
		return label, fmt.Errorf("dispatching %s/%s: %w", ev.Kind, ev.Action, err)
	}

	if h.seen != nil && deliveryID != "" {
		h.seen.Add(deliveryID, struct{}{})
	}
	return label, nil
}
