// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package sql implements an extractor running a query on a relational database
// and returning one record per result row, with the columns as fields.
package sql

import (
	"context"
	"database/sql"

	"github.com/mia-platform/etl/internal/connection"
	"github.com/mia-platform/etl/internal/etlerr"
	"github.com/mia-platform/etl/internal/logger"
	"github.com/mia-platform/etl/internal/record"
	"github.com/mia-platform/etl/internal/source"
)

const (
	connectorName = "sql"
	loggerName    = "etl:source:sql"
)

// Config holds the extractor settings.
type Config struct {
	Driver     connection.Driver `json:"driver" yaml:"driver" validate:"required,oneof=postgres mysql sqlite sqlserver"`
	Connection connection.Params `json:"connection" yaml:"connection"`
	Query      string            `json:"query" yaml:"query" validate:"required"`
	Args       []any             `json:"args,omitempty" yaml:"args,omitempty"`
}

var _ source.Extractor = &Extractor{}

// Extractor runs its query on every Extract call, opening and closing the
// connection pool within the call.
type Extractor struct {
	config Config
}

// NewExtractor validates config and returns an Extractor.
func NewExtractor(config Config) (*Extractor, error) {
	if config.Query == "" {
		return nil, etlerr.InvalidConfiguration("sql source requires a query")
	}
	if _, err := config.Driver.DSN(config.Connection); err != nil {
		return nil, err
	}
	return &Extractor{config: config}, nil
}

// Extract runs the query. Column values are normalized to record values.
func (e *Extractor) Extract(ctx context.Context) (record.Sequence, error) {
	log := logger.FromContext(ctx).WithName(loggerName)

	db, err := connection.OpenSQL(ctx, e.config.Driver, e.config.Connection)
	if err != nil {
		return nil, etlerr.SourceUnavailable(connectorName, err)
	}
	defer db.Close()

	log.Trace("running query", "driver", e.config.Driver)
	rows, err := db.QueryContext(ctx, e.config.Query, e.config.Args...)
	if err != nil {
		return nil, etlerr.SourceUnavailable(connectorName, err)
	}
	defer rows.Close()

	records, err := ScanRows(rows)
	if err != nil {
		return nil, err
	}

	log.Debug("query completed", "driver", e.config.Driver, "records", len(records))
	return records, nil
}

// ScanRows reads every row as a record, fields in column order.
func ScanRows(rows *sql.Rows) (record.Sequence, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, etlerr.Format(connectorName, err)
	}

	records := make(record.Sequence, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for idx := range values {
			pointers[idx] = &values[idx]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, etlerr.Format(connectorName, err)
		}

		r := record.New()
		for idx, column := range columns {
			r.Set(column, record.Normalize(values[idx]))
		}
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, etlerr.SourceUnavailable(connectorName, err)
	}
	return records, nil
}
