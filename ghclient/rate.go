/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package ghclient

import (
	"sync"

	"github.com/google/go-github/v84/github"
)

// RateState holds the most recent rate limit reported by GitHub for one
// Session. It is written by the Session and read by everyone else.
type RateState struct {
	mu    sync.Mutex
	rate  github.Rate
	known bool
}

func (s *RateState) observe(resp *github.Response) {
	if resp == nil || resp.Rate.Limit == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rate = resp.Rate
	s.known = true
	rateRemaining.Set(float64(resp.Rate.Remaining))
}

// Rate returns the last observed rate limit. The boolean is false until a
// call that reported one has completed.
func (s *RateState) Rate() (github.Rate, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rate, s.known
}

// Remaining is shorthand for the remaining calls in the current window.
func (s *RateState) Remaining() (int, bool) {
	r, ok := s.Rate()
	return r.Remaining, ok
}
