// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package connection turns the database connection parameters of a pipeline
// definition into the connection strings expected by each driver.
package connection

import (
	"fmt"
	"maps"
	"net"
	"net/url"
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Params are the settings needed to reach a database. When DSN is set it is
// used as is and the other fields are ignored.
type Params struct {
	Host     string            `json:"host,omitempty" yaml:"host,omitempty"`
	Port     int               `json:"port,omitempty" yaml:"port,omitempty" validate:"omitempty,min=1,max=65535"`
	Database string            `json:"database,omitempty" yaml:"database,omitempty"`
	User     string            `json:"user,omitempty" yaml:"user,omitempty"`
	Password string            `json:"password,omitempty" yaml:"password,omitempty"`
	Options  map[string]string `json:"options,omitempty" yaml:"options,omitempty"`
	DSN      string            `json:"dsn,omitempty" yaml:"dsn,omitempty"`
}

// ResolvedPassword returns the password with ${VAR} and $VAR references
// replaced by the values of the environment variables.
func (p Params) ResolvedPassword() string {
	return os.ExpandEnv(p.Password)
}

func (p Params) hostPort(defaultPort int) string {
	port := p.Port
	if port == 0 {
		port = defaultPort
	}
	return net.JoinHostPort(p.Host, strconv.Itoa(port))
}

func (p Params) query() url.Values {
	values := url.Values{}
	for _, key := range slices.Sorted(maps.Keys(p.Options)) {
		values.Set(key, p.Options[key])
	}
	return values
}

func (p Params) userInfo() *url.Userinfo {
	switch {
	case p.User == "":
		return nil
	case p.Password == "":
		return url.User(p.User)
	default:
		return url.UserPassword(p.User, p.ResolvedPassword())
	}
}

// PostgresDSN returns a postgres:// URL understood by both lib/pq and pgx.
// sslmode defaults to disable.
func (p Params) PostgresDSN() string {
	if p.DSN != "" {
		return p.DSN
	}

	query := p.query()
	if !query.Has("sslmode") {
		query.Set("sslmode", "disable")
	}

	dsn := url.URL{
		Scheme:   "postgres",
		User:     p.userInfo(),
		Host:     p.hostPort(5432),
		Path:     "/" + p.Database,
		RawQuery: query.Encode(),
	}
	return dsn.String()
}

// MySQLDSN returns a go-sql-driver/mysql DSN with time parsing enabled.
func (p Params) MySQLDSN() string {
	if p.DSN != "" {
		return p.DSN
	}

	config := mysql.NewConfig()
	config.User = p.User
	config.Passwd = p.ResolvedPassword()
	config.Net = "tcp"
	config.Addr = p.hostPort(3306)
	config.DBName = p.Database
	config.ParseTime = true
	config.Timeout = 10 * time.Second
	if len(p.Options) > 0 {
		config.Params = maps.Clone(p.Options)
	}
	return config.FormatDSN()
}

// SQLServerDSN returns a sqlserver:// URL for go-mssqldb.
func (p Params) SQLServerDSN() string {
	if p.DSN != "" {
		return p.DSN
	}

	query := p.query()
	if p.Database != "" {
		query.Set("database", p.Database)
	}

	dsn := url.URL{
		Scheme:   "sqlserver",
		User:     p.userInfo(),
		Host:     p.hostPort(1433),
		RawQuery: query.Encode(),
	}
	return dsn.String()
}

// SQLiteDSN returns the database file path, Host or Database, with the options
// appended as query parameters.
func (p Params) SQLiteDSN() string {
	if p.DSN != "" {
		return p.DSN
	}

	path := p.Database
	if path == "" {
		path = p.Host
	}
	if len(p.Options) == 0 {
		return path
	}
	return path + "?" + p.query().Encode()
}

// MongoURI returns a mongodb:// URI. A Host already holding a mongodb:// or
// mongodb+srv:// URI is used as base.
func (p Params) MongoURI() string {
	if p.DSN != "" {
		return p.DSN
	}

	base, err := url.Parse(p.Host)
	if err != nil || (base.Scheme != "mongodb" && base.Scheme != "mongodb+srv") {
		base = &url.URL{Scheme: "mongodb", Host: p.hostPort(27017)}
	}
	if base.User == nil {
		base.User = p.userInfo()
	}
	if base.Path == "" {
		base.Path = "/"
	}

	query := base.Query()
	for key, values := range p.query() {
		query[key] = values
	}
	base.RawQuery = query.Encode()
	return base.String()
}

// Neo4jURI returns the bolt URI of a graph database. A Host holding a full
// neo4j:// or bolt:// URI is used as is.
func (p Params) Neo4jURI() string {
	if p.DSN != "" {
		return p.DSN
	}

	if parsed, err := url.Parse(p.Host); err == nil && parsed.Scheme != "" && parsed.Host != "" {
		return p.Host
	}
	return fmt.Sprintf("neo4j://%s", p.hostPort(7687))
}
