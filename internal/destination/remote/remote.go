// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/samber/lo"

	"github.com/mia-platform/etl/internal/destination"
	"github.com/mia-platform/etl/internal/etlerr"
	"github.com/mia-platform/etl/internal/info"
	"github.com/mia-platform/etl/internal/logger"
	"github.com/mia-platform/etl/internal/record"
)

const (
	connectorName = "remote"
	loggerName    = "etl:destination:remote"
)

var _ destination.Loader = &Loader{}

// Loader sends records to an HTTP endpoint. In overwrite mode the first request
// is a PUT replacing the remote collection, every other request is a POST
// appending to it.
type Loader struct {
	config Config

	client atomic.Pointer[http.Client]
}

// NewLoader returns a Loader for config, overlaid with the ETL_REMOTE_* environment.
func NewLoader(config Config) (*Loader, error) {
	resolved, err := resolveConfig(config)
	if err != nil {
		return nil, err
	}
	return &Loader{config: *resolved}, nil
}

// Load implements destination.Loader.
func (l *Loader) Load(ctx context.Context, records record.Sequence) error {
	batches := []record.Sequence{records}
	if l.config.BatchSize > 0 && len(records) > l.config.BatchSize {
		batches = batches[:0]
		for _, chunk := range lo.Chunk(records, l.config.BatchSize) {
			batches = append(batches, record.Sequence(chunk))
		}
	}

	log := logger.FromContext(ctx).WithName(loggerName)
	for idx, batch := range batches {
		method := http.MethodPost
		if idx == 0 && l.config.Mode == destination.ModeOverwrite {
			method = http.MethodPut
		}

		if err := l.send(ctx, method, batch); err != nil {
			return err
		}
		log.Trace("batch sent", "method", method, "batch", idx, "records", len(batch))
	}
	return nil
}

// send issues an HTTP call to the endpoint with records encoded as a JSON array.
func (l *Loader) send(ctx context.Context, method string, records record.Sequence) error {
	if records == nil {
		records = record.Sequence{}
	}
	body, err := json.Marshal(records)
	if err != nil {
		return etlerr.Format(connectorName, err)
	}

	if l.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.config.Timeout)
		defer cancel()
	}

	request, err := http.NewRequestWithContext(ctx, method, l.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return etlerr.DestinationUnavailable(connectorName, err)
	}

	request.Header.Set("User-Agent", info.UserAgent())
	request.Header.Set("Accept", "application/json")
	request.Header.Set("Content-Type", "application/json")

	//nolint:contextcheck // need a new context because it will be used in token requests
	resp, err := l.getClient(context.Background()).Do(request)
	if err != nil {
		return etlerr.DestinationUnavailable(connectorName, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return etlerr.DestinationUnavailable(connectorName, errors.New("invalid token or insufficient permissions"))
	default:
		var respBody map[string]any
		if err := json.NewDecoder(resp.Body).Decode(&respBody); err == nil {
			if message, ok := respBody["message"].(string); ok {
				return etlerr.DestinationUnavailable(connectorName, errors.New(message))
			}
		}
		return etlerr.DestinationUnavailable(connectorName, fmt.Errorf("unexpected status code %d", resp.StatusCode))
	}
}

func (l *Loader) getClient(ctx context.Context) *http.Client {
	client := l.client.Load()
	if client != nil {
		return client
	}

	client = &http.Client{}
	client.Transport = newTransport(ctx, &l.config)
	l.client.Store(client)
	return client
}
