// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package factory

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mia-platform/etl/internal/config"
	"github.com/mia-platform/etl/internal/connection"
	destcsv "github.com/mia-platform/etl/internal/destination/csv"
	destmongo "github.com/mia-platform/etl/internal/destination/mongo"
	"github.com/mia-platform/etl/internal/destination/postgres"
	"github.com/mia-platform/etl/internal/destination/remote"
	destsql "github.com/mia-platform/etl/internal/destination/sql"
	"github.com/mia-platform/etl/internal/etlerr"
	"github.com/mia-platform/etl/internal/manipulation/builtin"
	"github.com/mia-platform/etl/internal/pipeline"
	"github.com/mia-platform/etl/internal/source"
	sourcecsv "github.com/mia-platform/etl/internal/source/csv"
	sourcemongo "github.com/mia-platform/etl/internal/source/mongo"
	"github.com/mia-platform/etl/internal/source/neo4j"
	sourcesql "github.com/mia-platform/etl/internal/source/sql"
	"github.com/mia-platform/etl/internal/source/xml"
)

func TestExtractor(t *testing.T) {
	t.Parallel()

	testCases := map[string]struct {
		config       config.Source
		expectedType any
		expectedErr  error
	}{
		"csv": {
			config:       config.Source{Type: config.SourceCSV, CSV: &sourcecsv.Config{Location: source.Location{Path: "a.csv"}}},
			expectedType: &sourcecsv.Extractor{},
		},
		"xml": {
			config:       config.Source{Type: config.SourceXML, XML: &xml.Config{Location: source.Location{Path: "a.xml"}}},
			expectedType: &xml.Extractor{},
		},
		"sql": {
			config: config.Source{Type: config.SourceSQL, SQL: &sourcesql.Config{
				Driver:     connection.SQLite,
				Connection: connection.Params{Database: "a.db"},
				Query:      "SELECT 1",
			}},
			expectedType: &sourcesql.Extractor{},
		},
		"neo4j": {
			config: config.Source{Type: config.SourceNeo4j, Neo4j: &neo4j.Config{
				Connection: connection.Params{Host: "localhost"},
				Query:      "RETURN 1 AS one",
			}},
			expectedType: &neo4j.Extractor{},
		},
		"mongo": {
			config: config.Source{Type: config.SourceMongo, Mongo: &sourcemongo.Config{
				Connection: connection.Params{Host: "localhost", Database: "reporting"},
				Collection: "orders",
			}},
			expectedType: &sourcemongo.Extractor{},
		},
		"missing block": {
			config:      config.Source{Type: config.SourceCSV},
			expectedErr: etlerr.ErrInvalidConfiguration,
		},
		"invalid block": {
			config:      config.Source{Type: config.SourceSQL, SQL: &sourcesql.Config{Driver: connection.SQLite}},
			expectedErr: etlerr.ErrInvalidConfiguration,
		},
		"unknown type": {
			config:      config.Source{Type: "parquet"},
			expectedErr: etlerr.ErrInvalidConfiguration,
		},
	}

	for name, test := range testCases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			extractor, err := Extractor(test.config)
			if test.expectedErr != nil {
				require.ErrorIs(t, err, test.expectedErr)
				assert.Nil(t, extractor)
				return
			}

			require.NoError(t, err)
			assert.IsType(t, test.expectedType, extractor)
		})
	}
}

func TestLoader(t *testing.T) {
	t.Parallel()

	testCases := map[string]struct {
		config       config.Destination
		expectedType any
		expectedErr  error
	}{
		"csv": {
			config:       config.Destination{Type: config.DestinationCSV, CSV: &destcsv.Config{Path: "out.csv"}},
			expectedType: &destcsv.Loader{},
		},
		"sql": {
			config: config.Destination{Type: config.DestinationSQL, SQL: &destsql.Config{
				Driver:     connection.SQLite,
				Connection: connection.Params{Database: "a.db"},
				Table:      "orders",
			}},
			expectedType: &destsql.Loader{},
		},
		"postgres": {
			config: config.Destination{Type: config.DestinationPostgres, Postgres: &postgres.Config{
				Connection: connection.Params{Host: "localhost"},
				Table:      "orders",
			}},
			expectedType: &postgres.Loader{},
		},
		"mongo": {
			config: config.Destination{Type: config.DestinationMongo, Mongo: &destmongo.Config{
				Connection: connection.Params{Host: "localhost", Database: "reporting"},
				Collection: "orders",
			}},
			expectedType: &destmongo.Loader{},
		},
		"remote": {
			config:       config.Destination{Type: config.DestinationRemote, Remote: &remote.Config{Endpoint: "https://records.example.com/import"}},
			expectedType: &remote.Loader{},
		},
		"missing block": {
			config:      config.Destination{Type: config.DestinationPostgres},
			expectedErr: etlerr.ErrInvalidConfiguration,
		},
		"invalid block": {
			config:      config.Destination{Type: config.DestinationCSV, CSV: &destcsv.Config{}},
			expectedErr: etlerr.ErrInvalidConfiguration,
		},
		"unknown type": {
			config:      config.Destination{Type: "kafka"},
			expectedErr: etlerr.ErrInvalidConfiguration,
		},
	}

	for name, test := range testCases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			loader, err := Loader(test.config, Options{})
			if test.expectedErr != nil {
				require.ErrorIs(t, err, test.expectedErr)
				assert.Nil(t, loader)
				return
			}

			require.NoError(t, err)
			assert.IsType(t, test.expectedType, loader)
		})
	}
}

func TestWriterDestination(t *testing.T) {
	t.Parallel()

	definition := &config.Pipeline{
		Name: "inline",
		Source: config.Source{Type: config.SourceCSV, CSV: &sourcecsv.Config{
			Location: source.Location{Path: writeFile(t, "item,qty\nAPPLE,2\n")},
		}},
		Destination: config.Destination{Type: config.DestinationWriter, Writer: &config.Writer{Output: "stderr"}},
	}

	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	p, err := Pipeline(definition, Options{Stdout: stdout, Stderr: stderr})
	require.NoError(t, err)

	require.NoError(t, p.Run(t.Context()))
	assert.Empty(t, stdout.String())
	assert.Equal(t, `{"item":"APPLE","qty":"2"}`+"\n", stderr.String())
}

func writeFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "orders.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestPipelineRun(t *testing.T) {
	t.Parallel()

	input := writeFile(t, "item,qty,price\nAPPLE,2,3.0\nPEAR,0,5.0\n")
	output := filepath.Join(t.TempDir(), "totals.csv")

	definition := &config.Pipeline{
		Name: "orders",
		Source: config.Source{Type: config.SourceCSV, CSV: &sourcecsv.Config{
			Location:   source.Location{Path: input},
			InferTypes: true,
		}},
		Manipulations: []builtin.Definition{
			{Type: builtin.TypeFilter, Field: "qty", Operator: "gt", Value: 0},
			{Type: builtin.TypeCompute, Field: "total", Expression: "qty * price"},
			{Type: builtin.TypeSelect, Fields: []string{"item", "total"}},
		},
		Destination: config.Destination{Type: config.DestinationCSV, CSV: &destcsv.Config{Path: output}},
	}

	t.Run("to the configured destination", func(t *testing.T) {
		t.Parallel()

		p, err := Pipeline(definition, Options{})
		require.NoError(t, err)
		require.NoError(t, p.Run(t.Context()))
		assert.Equal(t, pipeline.Completed, p.State())

		content, err := os.ReadFile(output)
		require.NoError(t, err)
		assert.Equal(t, "item,total\nAPPLE,6\n", string(content))
	})

	t.Run("to the local output", func(t *testing.T) {
		t.Parallel()

		stdout := new(bytes.Buffer)
		p, err := Pipeline(definition, Options{Stdout: stdout, LocalOutput: true})
		require.NoError(t, err)
		require.NoError(t, p.Run(t.Context()))
		assert.Equal(t, `{"item":"APPLE","total":6}`+"\n", stdout.String())
	})
}

func TestPipelines(t *testing.T) {
	t.Parallel()

	definitions := []*config.Pipeline{
		{
			Name:        "broken-source",
			Source:      config.Source{Type: config.SourceCSV},
			Destination: config.Destination{Type: config.DestinationWriter},
		},
		{
			Name:          "broken-manipulation",
			Source:        config.Source{Type: config.SourceCSV, CSV: &sourcecsv.Config{Location: source.Location{Path: "a.csv"}}},
			Manipulations: []builtin.Definition{{Type: builtin.TypeCompute, Field: "total", Expression: "qty *"}},
			Destination:   config.Destination{Type: config.DestinationWriter},
		},
		{
			Name:        "valid",
			Source:      config.Source{Type: config.SourceCSV, CSV: &sourcecsv.Config{Location: source.Location{Path: "a.csv"}}},
			Destination: config.Destination{Type: config.DestinationWriter},
		},
	}

	pipelines, err := Pipelines(definitions, Options{})
	require.ErrorIs(t, err, etlerr.ErrInvalidConfiguration)
	assert.ErrorContains(t, err, "pipeline broken-source: source")
	assert.ErrorContains(t, err, "pipeline broken-manipulation: manipulations")
	assert.Nil(t, pipelines)

	pipelines, err = Pipelines(definitions[2:], Options{})
	require.NoError(t, err)
	require.Len(t, pipelines, 1)
	assert.Equal(t, "valid", pipelines[0].Name())
}
