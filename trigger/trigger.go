/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package trigger recognizes the commands that ask the bot to fix a pull
// request. A command is a mention of the bot followed by either "paint it
// all" or "fix" (optionally "please fix"), anywhere in a comment body.
// Commands are whole words: "@painter-bot fixes" or "@painter-bot fixture"
// is not a command.
package trigger

import (
	"fmt"
	"regexp"
	"strings"
)

// Detector matches trigger phrases addressed to a single bot login.
type Detector struct {
	login    string
	patterns []*regexp.Regexp
}

// New returns a Detector for the given bot login (without the leading "@").
func New(login string) (*Detector, error) {
	login = strings.TrimPrefix(strings.TrimSpace(login), "@")
	if login == "" {
		return nil, fmt.Errorf("bot login cannot be empty")
	}

	// The mention is delimited on both sides: nothing word-like before the
	// "@", and only commas then whitespace after the login.
	quoted := regexp.QuoteMeta(login)
	phrases := []string{
		`(?im)(?:^|[^\w-])@` + quoted + `,*\s+paint\s+it\s+all\b`,
		`(?im)(?:^|[^\w-])@` + quoted + `,*\s+(?:please\s+)?fix\b`,
	}

	d := &Detector{login: login}
	for _, p := range phrases {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compiling trigger %q: %w", p, err)
		}
		d.patterns = append(d.patterns, re)
	}
	return d, nil
}

// Login returns the bot login the detector answers to.
func (d *Detector) Login() string {
	return d.login
}

// Detect reports whether body carries a trigger phrase. Comments authored by
// the bot itself never match.
func (d *Detector) Detect(body, author string) bool {
	if strings.EqualFold(author, d.login) {
		return false
	}
	for _, re := range d.patterns {
		if re.MatchString(body) {
			return true
		}
	}
	return false
}
