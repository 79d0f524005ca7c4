/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"errors"
	"time"

	"chainguard.dev/painterbot/ghclient"
	"chainguard.dev/painterbot/lint"
	"golang.org/x/oauth2"
)

type config struct {
	Port        int `env:"PORT,default=8080"`
	MetricsPort int `env:"METRICS_PORT,default=2112"`

	WebhookSecret string `env:"GITHUB_WEBHOOK_SECRET,required"`

	// Identity the bot answers to and commits as.
	Username string `env:"GITHUB_USERNAME,default=painter-bot"`
	Email    string `env:"GITHUB_EMAIL"`

	// Either a personal access token or a GitHub App installation.
	Token             string `env:"GITHUB_TOKEN"`
	BotToken          string `env:"GITHUB_BOT_TOKEN"`
	AppID             int64  `env:"GITHUB_APP_ID"`
	InstallationID    int64  `env:"GITHUB_INSTALLATION_ID"`
	AppPrivateKeyPath string `env:"GITHUB_APP_PRIVATE_KEY_PATH"`
	APIURL            string `env:"GITHUB_API_URL"`

	LintCommand  string        `env:"LINT_COMMAND"`
	StepTimeout  time.Duration `env:"STEP_TIMEOUT,default=5m"`
	DedupTTL     time.Duration `env:"DELIVERY_DEDUP_TTL,default=0"`
	CacheSize    int           `env:"CACHE_SIZE,default=500"`
	WorkspaceDir string        `env:"WORKSPACE_DIR"`
}

// tokenSources returns the credential used for reads, clones, and pushes,
// and the one used for posting comments.
func (c config) tokenSources() (oauth2.TokenSource, oauth2.TokenSource, error) {
	var (
		tokens oauth2.TokenSource
		err    error
	)
	switch {
	case c.AppID != 0:
		if c.InstallationID == 0 || c.AppPrivateKeyPath == "" {
			return nil, nil, errors.New("GITHUB_APP_ID requires GITHUB_INSTALLATION_ID and GITHUB_APP_PRIVATE_KEY_PATH")
		}
		tokens, err = ghclient.NewAppTokenSource(c.AppID, c.InstallationID, c.AppPrivateKeyPath, c.APIURL)
	case c.Token != "":
		tokens, err = ghclient.StaticTokenSource(c.Token)
	default:
		return nil, nil, errors.New("one of GITHUB_TOKEN or GITHUB_APP_ID must be set")
	}
	if err != nil {
		return nil, nil, err
	}

	if c.BotToken == "" {
		return tokens, tokens, nil
	}
	comments, err := ghclient.StaticTokenSource(c.BotToken)
	if err != nil {
		return nil, nil, err
	}
	return tokens, comments, nil
}

// lintCommand returns the configured fix tool command line, or the lint
// package's default.
func (c config) lintCommand() string {
	if c.LintCommand == "" {
		return lint.DefaultCommand
	}
	return c.LintCommand
}
