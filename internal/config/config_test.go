// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package config

import (
	"path/filepath"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/mia-platform/etl/internal/connection"
	destcsv "github.com/mia-platform/etl/internal/destination/csv"
	"github.com/mia-platform/etl/internal/destination/postgres"
	"github.com/mia-platform/etl/internal/etlerr"
	"github.com/mia-platform/etl/internal/manipulation/builtin"
	"github.com/mia-platform/etl/internal/source"
	sourcecsv "github.com/mia-platform/etl/internal/source/csv"
	"github.com/mia-platform/etl/internal/source/mongo"
	sourcesql "github.com/mia-platform/etl/internal/source/sql"
	"github.com/mia-platform/etl/internal/source/xml"
)

func TestLoadPath(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	testCases := map[string]struct {
		path              string
		expectedPipelines []*Pipeline
		expectedError     error
	}{
		"valid yaml file with one pipeline": {
			path: filepath.Join("testdata", "one.yaml"),
			expectedPipelines: []*Pipeline{
				{
					Name:        "orders",
					Description: "total of the ordered items",
					Schedule:    "@every 1h",
					Source: Source{
						Type: SourceCSV,
						CSV: &sourcecsv.Config{
							Location:   source.Location{Path: "./orders.csv"},
							InferTypes: true,
						},
					},
					Manipulations: []builtin.Definition{
						{Type: builtin.TypeFilter, Field: "qty", Operator: "gt", Value: 0},
						{Type: builtin.TypeCompute, Field: "total", Expression: "qty * price"},
						{Type: builtin.TypeSelect, Fields: []string{"item", "total"}},
					},
					Destination: Destination{
						Type: DestinationCSV,
						CSV:  &destcsv.Config{Path: "./totals.csv", Mode: "append"},
					},
					file: filepath.Join("testdata", "one.yaml"),
				},
			},
		},
		"valid json file with one pipeline": {
			path: filepath.Join("testdata", "one.json"),
			expectedPipelines: []*Pipeline{
				{
					Name: "holdings",
					Source: Source{
						Type: SourceSQL,
						SQL: &sourcesql.Config{
							Driver:     connection.SQLite,
							Connection: connection.Params{Database: "./holdings.db"},
							Query:      "SELECT cusip, issuer, value FROM holdings",
						},
					},
					Destination: Destination{
						Type:   DestinationWriter,
						Writer: &Writer{Indent: true},
					},
					file: filepath.Join("testdata", "one.json"),
				},
			},
		},
		"valid yaml file with multiple pipelines": {
			path: filepath.Join("testdata", "multiple.yaml"),
			expectedPipelines: []*Pipeline{
				{
					Name: "first",
					Source: Source{
						Type: SourceXML,
						XML: &xml.Config{
							Location:      source.Location{Path: "https://example.com/feed.xml"},
							RecordElement: "infoTable",
						},
					},
					Destination: Destination{Type: DestinationRemote},
					file:        filepath.Join("testdata", "multiple.yaml"),
				},
				{
					Name:  "second",
					Watch: []string{"./input.csv"},
					Source: Source{
						Type: SourceMongo,
						Mongo: &mongo.Config{
							Connection: connection.Params{Host: "localhost", Database: "reporting"},
							Collection: "orders",
							Filter:     `{"qty": {"$gt": 0}}`,
						},
					},
					Destination: Destination{
						Type: DestinationPostgres,
						Postgres: &postgres.Config{
							Connection: connection.Params{Host: "localhost", Database: "reporting", User: "etl", Password: "${PG_PASSWORD}"},
							Table:      "public.orders",
						},
					},
					file: filepath.Join("testdata", "multiple.yaml"),
				},
			},
		},
		"missing file": {
			path:          filepath.Join(tempDir, "missing"),
			expectedError: syscall.ENOENT,
		},
		"unknown field": {
			path:          filepath.Join("testdata", "invalid.yaml"),
			expectedError: ErrParsing,
		},
	}

	for name, test := range testCases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			pipelines, err := LoadPath(test.path)
			if test.expectedError != nil {
				assert.ErrorIs(t, err, test.expectedError)
				assert.Nil(t, pipelines)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, test.expectedPipelines, pipelines)
			require.NoError(t, Validate(pipelines))
		})
	}
}

func TestLoadDirectory(t *testing.T) {
	t.Parallel()

	pipelines, err := LoadPath(filepath.Join("testdata", "dir"))
	require.NoError(t, err)
	require.Len(t, pipelines, 2)

	assert.Equal(t, "from-dir-a", pipelines[0].Name)
	assert.Equal(t, filepath.Join("testdata", "dir", "a.yaml"), pipelines[0].File())
	assert.Equal(t, SourceNeo4j, pipelines[0].Source.Type)
	assert.Equal(t, "from-dir-b", pipelines[1].Name)
	assert.Equal(t, DestinationSQL, pipelines[1].Destination.Type)
}

func TestLoadPaths(t *testing.T) {
	t.Parallel()

	t.Run("valid paths", func(t *testing.T) {
		t.Parallel()

		pipelines, err := LoadPaths(filepath.Join("testdata", "one.yaml"), filepath.Join("testdata", "dir"))
		require.NoError(t, err)
		assert.Len(t, pipelines, 3)
	})

	t.Run("duplicated names", func(t *testing.T) {
		t.Parallel()

		pipelines, err := LoadPaths(filepath.Join("testdata", "one.yaml"), filepath.Join("testdata", "one.yaml"))
		require.ErrorIs(t, err, etlerr.ErrInvalidConfiguration)
		assert.ErrorContains(t, err, "name already used")
		assert.Nil(t, pipelines)
	})

	t.Run("no definitions", func(t *testing.T) {
		t.Parallel()

		pipelines, err := LoadPaths(t.TempDir())
		require.ErrorIs(t, err, ErrNoPipelines)
		assert.Nil(t, pipelines)
	})
}

func TestValidate(t *testing.T) {
	t.Parallel()

	pipelines, err := LoadPath(filepath.Join("testdata", "invalid-definitions.yaml"))
	require.NoError(t, err)
	require.Len(t, pipelines, 2)

	err = Validate(pipelines)
	require.ErrorIs(t, err, etlerr.ErrInvalidConfiguration)

	expectedProblems := []string{
		"pipeline #0",
		"name is required",
		"source.csv is required when type is csv",
		"pipeline wrong-blocks",
		`manipulations[0].type must be one of`,
		`got "explode"`,
		"destination.csv.path is required",
		"destination.csv.delimiter must be 1 characters long",
		"source: only the csv block can be set",
		"schedule:",
	}
	for _, problem := range expectedProblems {
		assert.ErrorContains(t, err, problem)
	}
}

func TestValidateInlineDefinition(t *testing.T) {
	t.Parallel()

	definition := `
name: orders
source:
  type: csv
  csv: {path: a.csv, delimiter: ";"}
destination:
  type: writer
`
	pipeline := new(Pipeline)
	require.NoError(t, yaml.Unmarshal([]byte(definition), pipeline))
	assert.Equal(t, ";", pipeline.Source.CSV.Delimiter)
	assert.Nil(t, pipeline.Destination.Writer)
	assert.Empty(t, pipeline.File())
	require.NoError(t, Validate([]*Pipeline{pipeline}))
}
