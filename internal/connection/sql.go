// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package connection

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	// database/sql drivers
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/microsoft/go-mssqldb"
	_ "modernc.org/sqlite"

	"github.com/mia-platform/etl/internal/etlerr"
)

// Driver names a supported relational database.
type Driver string

const (
	Postgres  Driver = "postgres"
	MySQL     Driver = "mysql"
	SQLite    Driver = "sqlite"
	SQLServer Driver = "sqlserver"
)

// Drivers lists the supported relational databases.
var Drivers = []Driver{Postgres, MySQL, SQLite, SQLServer}

const (
	pingTimeout = 10 * time.Second
)

// DSN returns the connection string of params for driver.
func (d Driver) DSN(params Params) (string, error) {
	switch d {
	case Postgres:
		return params.PostgresDSN(), nil
	case MySQL:
		return params.MySQLDSN(), nil
	case SQLite:
		return params.SQLiteDSN(), nil
	case SQLServer:
		return params.SQLServerDSN(), nil
	default:
		return "", etlerr.InvalidConfiguration("unsupported sql driver %q", d)
	}
}

// Placeholder returns the bind parameter for the position-th argument, starting from 1.
func (d Driver) Placeholder(position int) string {
	switch d {
	case Postgres:
		return "$" + strconv.Itoa(position)
	case SQLServer:
		return "@p" + strconv.Itoa(position)
	default:
		return "?"
	}
}

// QuoteIdentifier quotes a possibly schema qualified table name. Dotted names
// are quoted part by part.
func (d Driver) QuoteIdentifier(name string) string {
	parts := strings.Split(name, ".")
	for idx, part := range parts {
		parts[idx] = d.QuoteColumn(part)
	}
	return strings.Join(parts, ".")
}

// QuoteColumn quotes name as a single identifier, dots included.
func (d Driver) QuoteColumn(name string) string {
	switch d {
	case MySQL:
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	case SQLServer:
		return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
	default:
		return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
	}
}

// OpenSQL opens a pool for driver and checks that the database answers.
// The caller must close the returned pool.
func OpenSQL(ctx context.Context, driver Driver, params Params) (*sql.DB, error) {
	dsn, err := driver.DSN(params)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(string(driver), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return db, nil
}
