// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package remote

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/mia-platform/etl/internal/destination"
	"github.com/mia-platform/etl/internal/etlerr"
)

const defaultAuthPath = "/oauth/token"

var (
	errMissingEndpoint     = errors.New("remote destination requires an endpoint")
	errMultipleAuthMethods = errors.New("only one of token or client credentials can be set")
	errMissingClientSecret = errors.New("client secret is required when client id is set")
	errMissingClientID     = errors.New("client id is required when client secret is set")
)

// Config holds the settings of the remote loader.
type Config struct {
	Endpoint     string           `json:"endpoint" yaml:"endpoint" env:"ETL_REMOTE_ENDPOINT"`
	Token        string           `json:"token,omitempty" yaml:"token,omitempty" env:"ETL_REMOTE_TOKEN"`
	ClientID     string           `json:"clientId,omitempty" yaml:"clientId,omitempty" env:"ETL_REMOTE_CLIENT_ID"`
	ClientSecret string           `json:"clientSecret,omitempty" yaml:"clientSecret,omitempty" env:"ETL_REMOTE_CLIENT_SECRET"`
	AuthEndpoint string           `json:"authEndpoint,omitempty" yaml:"authEndpoint,omitempty" env:"ETL_REMOTE_AUTH_ENDPOINT"`
	BatchSize    int              `json:"batchSize,omitempty" yaml:"batchSize,omitempty" env:"ETL_REMOTE_BATCH_SIZE" validate:"gte=0"`
	Timeout      time.Duration    `json:"timeout,omitempty" yaml:"timeout,omitempty" env:"ETL_REMOTE_TIMEOUT"`
	Mode         destination.Mode `json:"mode,omitempty" yaml:"mode,omitempty" validate:"omitempty,oneof=overwrite append"`
}

// resolveConfig overlays the environment on base and validates the result.
func resolveConfig(base Config) (*Config, error) {
	config := base
	if err := env.Parse(&config); err != nil {
		return nil, handleConfigError(err)
	}

	if config.Endpoint == "" {
		return nil, handleConfigError(errMissingEndpoint)
	}
	endpoint, err := url.ParseRequestURI(config.Endpoint)
	if err != nil {
		return nil, handleConfigError(fmt.Errorf("invalid endpoint: %w", err))
	}

	switch {
	case config.Token != "" && (config.ClientID != "" || config.ClientSecret != ""):
		return nil, handleConfigError(errMultipleAuthMethods)
	case config.ClientID != "" && config.ClientSecret == "":
		return nil, handleConfigError(errMissingClientSecret)
	case config.ClientID == "" && config.ClientSecret != "":
		return nil, handleConfigError(errMissingClientID)
	}

	if config.AuthEndpoint == "" {
		config.AuthEndpoint = (&url.URL{Scheme: endpoint.Scheme, Host: endpoint.Host, Path: defaultAuthPath}).String()
	} else if _, err := url.ParseRequestURI(config.AuthEndpoint); err != nil {
		return nil, handleConfigError(fmt.Errorf("invalid auth endpoint: %w", err))
	}

	if config.BatchSize < 0 {
		return nil, handleConfigError(fmt.Errorf("batch size must not be negative, got %d", config.BatchSize))
	}

	if config.Mode, err = destination.ParseMode(string(config.Mode)); err != nil {
		return nil, err
	}
	return &config, nil
}

func handleConfigError(err error) error {
	var parseErr env.AggregateError
	if errors.As(err, &parseErr) {
		err = parseErr.Errors[0]
	}
	return fmt.Errorf("%w: remote: %w", etlerr.ErrInvalidConfiguration, err)
}
