// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package neo4j implements an extractor running a Cypher query on a graph
// database. Every result row becomes a record with the returned keys as fields.
package neo4j

import (
	"context"
	"encoding/json"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/mia-platform/etl/internal/connection"
	"github.com/mia-platform/etl/internal/etlerr"
	"github.com/mia-platform/etl/internal/logger"
	"github.com/mia-platform/etl/internal/record"
	"github.com/mia-platform/etl/internal/source"
)

const (
	connectorName = "neo4j"
	loggerName    = "etl:source:neo4j"

	connectTimeout = 10 * time.Second
)

// Config holds the extractor settings.
type Config struct {
	Connection connection.Params `json:"connection" yaml:"connection"`
	Query      string            `json:"query" yaml:"query" validate:"required"`
	Parameters map[string]any    `json:"parameters,omitempty" yaml:"parameters,omitempty"`
}

var _ source.Extractor = &Extractor{}

// Extractor runs its query in a read transaction on every Extract call.
type Extractor struct {
	config Config
}

// NewExtractor validates config and returns an Extractor.
func NewExtractor(config Config) (*Extractor, error) {
	if config.Query == "" {
		return nil, etlerr.InvalidConfiguration("neo4j source requires a query")
	}
	if config.Connection.Host == "" && config.Connection.DSN == "" {
		return nil, etlerr.InvalidConfiguration("neo4j source requires a host or a dsn")
	}
	return &Extractor{config: config}, nil
}

// Extract runs the query and returns the rows in result order.
func (e *Extractor) Extract(ctx context.Context) (record.Sequence, error) {
	log := logger.FromContext(ctx).WithName(loggerName)

	params := e.config.Connection
	auth := neo4j.NoAuth()
	if params.User != "" {
		auth = neo4j.BasicAuth(params.User, params.ResolvedPassword(), "")
	}

	driver, err := neo4j.NewDriverWithContext(params.Neo4jURI(), auth, func(c *neo4j.Config) {
		c.SocketConnectTimeout = connectTimeout
		c.ConnectionAcquisitionTimeout = connectTimeout
		c.UserAgent = "etl"
	})
	if err != nil {
		return nil, etlerr.SourceUnavailable(connectorName, err)
	}
	defer driver.Close(ctx)

	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, etlerr.SourceUnavailable(connectorName, err)
	}

	options := []neo4j.ExecuteQueryConfigurationOption{neo4j.ExecuteQueryWithReadersRouting()}
	if params.Database != "" {
		options = append(options, neo4j.ExecuteQueryWithDatabase(params.Database))
	}

	result, err := neo4j.ExecuteQuery(ctx, driver, e.config.Query, e.config.Parameters, neo4j.EagerResultTransformer, options...)
	if err != nil {
		return nil, etlerr.SourceUnavailable(connectorName, err)
	}

	records := make(record.Sequence, 0, len(result.Records))
	for _, row := range result.Records {
		r := record.New()
		for idx, key := range row.Keys {
			r.Set(key, graphValue(row.Values[idx]))
		}
		records = append(records, r)
	}

	log.Debug("cypher query completed", "records", len(records))
	return records, nil
}

// graphValue converts a driver value to a record value. Nodes and relationships
// become the JSON text of their properties, lists and maps their JSON text.
func graphValue(value any) any {
	switch v := value.(type) {
	case neo4j.Node:
		return jsonText(v.Props)
	case neo4j.Relationship:
		return jsonText(v.Props)
	case neo4j.Path:
		nodes := make([]map[string]any, 0, len(v.Nodes))
		for _, node := range v.Nodes {
			nodes = append(nodes, node.Props)
		}
		return jsonText(nodes)
	case []any, map[string]any:
		return jsonText(v)
	default:
		return record.Normalize(v)
	}
}

func jsonText(value any) any {
	data, err := json.Marshal(value)
	if err != nil {
		return record.Normalize(value)
	}
	return string(data)
}
