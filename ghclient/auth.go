/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package ghclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"golang.org/x/oauth2"
)

// StaticTokenSource returns a token source for a personal access token.
func StaticTokenSource(token string) (oauth2.TokenSource, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.New("token cannot be empty")
	}
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}), nil
}

// NewAppTokenSource returns a token source minting installation tokens for a
// GitHub App. apiURL may be empty for github.com.
func NewAppTokenSource(appID, installationID int64, privateKeyPath, apiURL string) (oauth2.TokenSource, error) {
	tr, err := ghinstallation.NewKeyFromFile(http.DefaultTransport, appID, installationID, privateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("loading app key: %w", err)
	}
	if apiURL != "" {
		tr.BaseURL = strings.TrimSuffix(apiURL, "/")
	}
	return oauth2.ReuseTokenSource(nil, &installationTokenSource{tr: tr}), nil
}

type installationTokenSource struct {
	tr *ghinstallation.Transport
}

func (s *installationTokenSource) Token() (*oauth2.Token, error) {
	token, err := s.tr.Token(context.Background())
	if err != nil {
		return nil, fmt.Errorf("minting installation token: %w", err)
	}
	expiry, _, err := s.tr.Expiry()
	if err != nil {
		return nil, fmt.Errorf("reading installation token expiry: %w", err)
	}
	return &oauth2.Token{AccessToken: token, Expiry: expiry}, nil
}
