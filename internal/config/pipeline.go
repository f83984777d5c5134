// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package config

import (
	"github.com/mia-platform/etl/internal/destination/csv"
	destmongo "github.com/mia-platform/etl/internal/destination/mongo"
	"github.com/mia-platform/etl/internal/destination/postgres"
	"github.com/mia-platform/etl/internal/destination/remote"
	destsql "github.com/mia-platform/etl/internal/destination/sql"
	"github.com/mia-platform/etl/internal/manipulation/builtin"
	sourcecsv "github.com/mia-platform/etl/internal/source/csv"
	"github.com/mia-platform/etl/internal/source/mongo"
	"github.com/mia-platform/etl/internal/source/neo4j"
	sourcesql "github.com/mia-platform/etl/internal/source/sql"
	"github.com/mia-platform/etl/internal/source/xml"
)

// SourceType names an extractor implementation.
type SourceType string

const (
	SourceCSV   SourceType = "csv"
	SourceXML   SourceType = "xml"
	SourceSQL   SourceType = "sql"
	SourceNeo4j SourceType = "neo4j"
	SourceMongo SourceType = "mongo"
)

// DestinationType names a loader implementation.
type DestinationType string

const (
	DestinationCSV      DestinationType = "csv"
	DestinationWriter   DestinationType = "writer"
	DestinationSQL      DestinationType = "sql"
	DestinationPostgres DestinationType = "postgres"
	DestinationMongo    DestinationType = "mongo"
	DestinationRemote   DestinationType = "remote"
)

// Pipeline is the definition of a single pipeline.
type Pipeline struct {
	Name        string `json:"name" yaml:"name" validate:"required"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Schedule is a cron expression, or a descriptor like @hourly or @every 5m,
	// used by the serve command to run the pipeline periodically.
	Schedule string `json:"schedule,omitempty" yaml:"schedule,omitempty"`
	// Watch lists files whose changes trigger a run in the serve command.
	Watch []string `json:"watch,omitempty" yaml:"watch,omitempty" validate:"dive,required"`

	Source        Source               `json:"source" yaml:"source"`
	Manipulations []builtin.Definition `json:"manipulations,omitempty" yaml:"manipulations,omitempty" validate:"dive"`
	Destination   Destination          `json:"destination" yaml:"destination"`

	// file is the definition file, used in error messages.
	file string
}

// File returns the path of the file the definition was read from.
func (p *Pipeline) File() string {
	return p.file
}

// Source selects and configures the extractor. Only the block matching Type
// can be set.
type Source struct {
	Type  SourceType        `json:"type" yaml:"type" validate:"required,oneof=csv xml sql neo4j mongo"`
	CSV   *sourcecsv.Config `json:"csv,omitempty" yaml:"csv,omitempty" validate:"required_if=Type csv"`
	XML   *xml.Config       `json:"xml,omitempty" yaml:"xml,omitempty" validate:"required_if=Type xml"`
	SQL   *sourcesql.Config `json:"sql,omitempty" yaml:"sql,omitempty" validate:"required_if=Type sql"`
	Neo4j *neo4j.Config     `json:"neo4j,omitempty" yaml:"neo4j,omitempty" validate:"required_if=Type neo4j"`
	Mongo *mongo.Config     `json:"mongo,omitempty" yaml:"mongo,omitempty" validate:"required_if=Type mongo"`
}

func (s Source) blocks() int {
	return countSet(s.CSV != nil, s.XML != nil, s.SQL != nil, s.Neo4j != nil, s.Mongo != nil)
}

// Destination selects and configures the loader. Only the block matching Type
// can be set. The remote block is optional since it can be fully configured
// from the environment.
type Destination struct {
	Type     DestinationType   `json:"type" yaml:"type" validate:"required,oneof=csv writer sql postgres mongo remote"`
	CSV      *csv.Config       `json:"csv,omitempty" yaml:"csv,omitempty" validate:"required_if=Type csv"`
	Writer   *Writer           `json:"writer,omitempty" yaml:"writer,omitempty"`
	SQL      *destsql.Config   `json:"sql,omitempty" yaml:"sql,omitempty" validate:"required_if=Type sql"`
	Postgres *postgres.Config  `json:"postgres,omitempty" yaml:"postgres,omitempty" validate:"required_if=Type postgres"`
	Mongo    *destmongo.Config `json:"mongo,omitempty" yaml:"mongo,omitempty" validate:"required_if=Type mongo"`
	Remote   *remote.Config    `json:"remote,omitempty" yaml:"remote,omitempty"`
}

func (d Destination) blocks() int {
	return countSet(d.CSV != nil, d.Writer != nil, d.SQL != nil, d.Postgres != nil, d.Mongo != nil, d.Remote != nil)
}

// Writer configures the writer destination, printing records as JSON lines.
type Writer struct {
	// Output is stdout or stderr, stdout when empty.
	Output string `json:"output,omitempty" yaml:"output,omitempty" validate:"omitempty,oneof=stdout stderr"`
	Indent bool   `json:"indent,omitempty" yaml:"indent,omitempty"`
}

func countSet(set ...bool) int {
	count := 0
	for _, isSet := range set {
		if isSet {
			count++
		}
	}
	return count
}
