/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package webhook

import (
	"context"
	"sync"

	"chainguard.dev/painterbot/ghclient"
)

// HandlerFunc handles one routed event using the delivery's GitHub session.
type HandlerFunc func(ctx context.Context, ev Event, gh *ghclient.Session) error

type route struct {
	kind   Kind
	action Action
}

// Router maps (kind, action) pairs to handlers.
type Router struct {
	mu     sync.RWMutex
	routes map[route][]HandlerFunc
}

// NewRouter returns an empty Router.
func NewRouter() *Router {
	return &Router{routes: make(map[route][]HandlerFunc)}
}

// Register adds h for events of kind with the given action. ActionAny
// matches every action of kind.
func (r *Router) Register(kind Kind, action Action, h HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := route{kind: kind, action: action}
	r.routes[key] = append(r.routes[key], h)
}

func (r *Router) handlers(ev Event) []HandlerFunc {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var hs []HandlerFunc
	if ev.Action != ActionAny {
		hs = append(hs, r.routes[route{kind: ev.Kind, action: ev.Action}]...)
	}
	return append(hs, r.routes[route{kind: ev.Kind, action: ActionAny}]...)
}

// Dispatch runs, in registration order, every handler matching ev. Events
// with no handler are ignored. The first handler error stops dispatch.
func (r *Router) Dispatch(ctx context.Context, ev Event, gh *ghclient.Session) error {
	for _, h := range r.handlers(ev) {
		if err := h(ctx, ev, gh); err != nil {
			return err
		}
	}
	return nil
}
