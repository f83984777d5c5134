// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package sql implements a loader inserting records as rows of a relational
// table. Every load runs in a single transaction, so a failed load leaves the
// table untouched.
package sql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/mia-platform/etl/internal/connection"
	"github.com/mia-platform/etl/internal/destination"
	"github.com/mia-platform/etl/internal/etlerr"
	"github.com/mia-platform/etl/internal/logger"
	"github.com/mia-platform/etl/internal/record"
)

const (
	connectorName = "sql"
	loggerName    = "etl:destination:sql"
)

// Config holds the loader settings.
type Config struct {
	Driver     connection.Driver `json:"driver" yaml:"driver" validate:"required,oneof=postgres mysql sqlite sqlserver"`
	Connection connection.Params `json:"connection" yaml:"connection"`
	Table      string            `json:"table" yaml:"table" validate:"required"`
	// Columns restricts and orders the written fields, the union of the record
	// fields when empty.
	Columns []string         `json:"columns,omitempty" yaml:"columns,omitempty"`
	Mode    destination.Mode `json:"mode,omitempty" yaml:"mode,omitempty" validate:"omitempty,oneof=overwrite append"`
}

var _ destination.Loader = &Loader{}

// Loader writes records into an existing table. In overwrite mode every row of
// the table is deleted before inserting.
type Loader struct {
	config Config
	mode   destination.Mode
}

// NewLoader validates config and returns a Loader.
func NewLoader(config Config) (*Loader, error) {
	if config.Table == "" {
		return nil, etlerr.InvalidConfiguration("sql destination requires a table")
	}
	if _, err := config.Driver.DSN(config.Connection); err != nil {
		return nil, err
	}
	mode, err := destination.ParseMode(string(config.Mode))
	if err != nil {
		return nil, err
	}
	return &Loader{config: config, mode: mode}, nil
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

	db, err := connection.OpenSQL(ctx, l.config.Driver, l.config.Connection)
	if err != nil {
		return etlerr.DestinationUnavailable(connectorName, err)
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return etlerr.DestinationUnavailable(connectorName, err)
	}
	if err := l.write(ctx, tx, columns, rows); err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			log.Warn("error rolling back transaction", "error", rollbackErr)
		}
		return etlerr.DestinationUnavailable(connectorName, err)
	}
	if err := tx.Commit(); err != nil {
		return etlerr.DestinationUnavailable(connectorName, err)
	}

	log.Debug("table written", "table", l.config.Table, "mode", l.mode, "records", len(records))
	return nil
}

func (l *Loader) write(ctx context.Context, tx *sql.Tx, columns []string, rows [][]any) error {
	table := l.config.Driver.QuoteIdentifier(l.config.Table)
	if l.mode == destination.ModeOverwrite {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}

	if len(rows) == 0 || len(columns) == 0 {
		return nil
	}

	statement, err := tx.PrepareContext(ctx, l.insertStatement(table, columns))
	if err != nil {
		return err
	}
	defer statement.Close()

	for idx, values := range rows {
		if _, err := statement.ExecContext(ctx, values...); err != nil {
			return fmt.Errorf("record %d: %w", idx, err)
		}
	}
	return nil
}

func (l *Loader) insertStatement(table string, columns []string) string {
	quoted := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	for idx, column := range columns {
		quoted[idx] = l.config.Driver.QuoteColumn(column)
		placeholders[idx] = l.config.Driver.Placeholder(idx + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(quoted, ", "), strings.Join(placeholders, ", "))
}
