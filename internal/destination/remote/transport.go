// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package remote

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// newTransport creates an HTTP transport authenticating with either a static token
// or a client-credentials flow. Without credentials the default transport is used.
func newTransport(ctx context.Context, config *Config) http.RoundTripper {
	var source oauth2.TokenSource
	switch {
	case config.ClientID != "" && config.ClientSecret != "":
		credentials := clientcredentials.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			TokenURL:     config.AuthEndpoint,
			AuthStyle:    oauth2.AuthStyleInHeader,
		}
		source = credentials.TokenSource(ctx)
	case config.Token != "":
		source = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: config.Token, TokenType: "Bearer"})
	}

	if source == nil {
		return http.DefaultTransport
	}

	return &oauth2.Transport{
		Source: source,
	}
}
