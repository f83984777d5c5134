// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package postgres implements a loader bulk copying records into a PostgreSQL
// table with the COPY protocol.
package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/mia-platform/etl/internal/connection"
	"github.com/mia-platform/etl/internal/destination"
	"github.com/mia-platform/etl/internal/etlerr"
	"github.com/mia-platform/etl/internal/logger"
	"github.com/mia-platform/etl/internal/record"
)

const (
	connectorName = "postgres"
	loggerName    = "etl:destination:postgres"

	connectTimeout = 10 * time.Second
)

// Config holds the loader settings.
type Config struct {
	Connection connection.Params `json:"connection" yaml:"connection"`
	// Table can be schema qualified, e.g. reporting.orders.
	Table   string           `json:"table" yaml:"table" validate:"required"`
	Columns []string         `json:"columns,omitempty" yaml:"columns,omitempty"`
	Mode    destination.Mode `json:"mode,omitempty" yaml:"mode,omitempty" validate:"omitempty,oneof=overwrite append"`
}

var _ destination.Loader = &Loader{}

// Loader copies records into an existing table inside a transaction. In
// overwrite mode the table is truncated first.
type Loader struct {
	config     Config
	connConfig *pgx.ConnConfig
	mode       destination.Mode
}

// NewLoader validates config and returns a Loader.
func NewLoader(config Config) (*Loader, error) {
	if config.Table == "" {
		return nil, etlerr.InvalidConfiguration("postgres destination requires a table")
	}
	mode, err := destination.ParseMode(string(config.Mode))
	if err != nil {
		return nil, err
	}

	connConfig, err := pgx.ParseConfig(config.Connection.PostgresDSN())
	if err != nil {
		return nil, etlerr.InvalidConfiguration("postgres connection: %s", err)
	}
	if connConfig.ConnectTimeout == 0 {
		connConfig.ConnectTimeout = connectTimeout
	}

	return &Loader{config: config, connConfig: connConfig, mode: mode}, nil
}

// Load implements destination.Loader.
func (l *Loader) Load(ctx context.Context, records record.Sequence) error {
	log := logger.FromContext(ctx).WithName(loggerName)

	columns := l.config.Columns
	if len(columns) == 0 {
		columns = records.Fields()
	}

	rows := make([][]any, len(records))
	for idx, r := range records {
		values, err := destination.ColumnValues(r, columns)
		if err != nil {
			return etlerr.Format(connectorName, fmt.Errorf("record %d: %w", idx, err))
		}
		rows[idx] = values
	}

	conn, err := pgx.ConnectConfig(ctx, l.connConfig)
	if err != nil {
		return etlerr.DestinationUnavailable(connectorName, err)
	}
	defer func() {
		if err := conn.Close(context.WithoutCancel(ctx)); err != nil {
			log.Warn("error closing postgres connection", "error", err)
		}
	}()

	var copied int64
	err = pgx.BeginFunc(ctx, conn, func(tx pgx.Tx) error {
		table := pgx.Identifier(strings.Split(l.config.Table, "."))
		if l.mode == destination.ModeOverwrite {
			if _, err := tx.Exec(ctx, "TRUNCATE TABLE "+table.Sanitize()); err != nil {
				return err
			}
		}
		if len(rows) == 0 || len(columns) == 0 {
			return nil
		}

		n, err := tx.CopyFrom(ctx, table, columns, pgx.CopyFromRows(rows))
		copied = n
		return err
	})
	if err != nil {
		return etlerr.DestinationUnavailable(connectorName, err)
	}

	log.Debug("table copied", "table", l.config.Table, "mode", l.mode, "records", copied)
	return nil
}
