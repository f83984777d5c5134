// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package csv

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mia-platform/etl/internal/etlerr"
	"github.com/mia-platform/etl/internal/record"
	"github.com/mia-platform/etl/internal/source"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "input.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNewExtractor(t *testing.T) {
	t.Parallel()

	_, err := NewExtractor(Config{})
	require.ErrorIs(t, err, etlerr.ErrInvalidConfiguration)

	_, err = NewExtractor(Config{Location: source.Location{Path: "a.csv"}, Delimiter: ";;"})
	require.ErrorIs(t, err, etlerr.ErrInvalidConfiguration)

	extractor, err := NewExtractor(Config{Location: source.Location{Path: "a.csv"}, Delimiter: "\t"})
	require.NoError(t, err)
	assert.Equal(t, '\t', extractor.delimiter)
}

func TestExtract(t *testing.T) {
	t.Parallel()

	testCases := map[string]struct {
		content  string
		config   Config
		expected record.Sequence
	}{
		"values are text by default": {
			content: "qty,price\n2,3.0\n0,5.0\n",
			expected: record.Sequence{
				record.FromPairs("qty", "2", "price", "3.0"),
				record.FromPairs("qty", "0", "price", "5.0"),
			},
		},
		"type inference": {
			content: "name,qty,price,active\nAPPLE,2,3.5,true\n",
			config:  Config{InferTypes: true},
			expected: record.Sequence{
				record.FromPairs("name", "APPLE", "qty", int64(2), "price", 3.5, "active", true),
			},
		},
		"delimiter bom and short rows": {
			content: "\ufeffa;b;c\n1;2\n",
			config:  Config{Delimiter: ";"},
			expected: record.Sequence{
				record.FromPairs("a", "1", "b", "2", "c", nil),
			},
		},
		"empty header names": {
			content: "id,,\n1,x,y\n",
			expected: record.Sequence{
				record.FromPairs("id", "1", "column_2", "x", "column_3", "y"),
			},
		},
		"header only": {
			content:  "a,b\n",
			expected: record.Sequence{},
		},
		"empty file": {
			content:  "",
			expected: record.Sequence{},
		},
	}

	for name, test := range testCases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			config := test.config
			config.Path = writeFile(t, test.content)
			extractor, err := NewExtractor(config)
			require.NoError(t, err)

			records, err := extractor.Extract(t.Context())
			require.NoError(t, err)
			assert.True(t, test.expected.Equal(records), "got %v", records.Maps())
		})
	}
}

func TestExtractErrors(t *testing.T) {
	t.Parallel()

	testCases := map[string]struct {
		path         func(t *testing.T) string
		expectedKind error
	}{
		"missing file": {
			path: func(t *testing.T) string {
				t.Helper()
				return filepath.Join(t.TempDir(), "missing.csv")
			},
			expectedKind: etlerr.ErrSourceUnavailable,
		},
		"too many values": {
			path: func(t *testing.T) string {
				t.Helper()
				return writeFile(t, "a,b\n1,2,3\n")
			},
			expectedKind: etlerr.ErrFormat,
		},
		"broken quotes": {
			path: func(t *testing.T) string {
				t.Helper()
				return writeFile(t, "a,b\n\"1,2\n3\"x,4\n")
			},
			expectedKind: etlerr.ErrFormat,
		},
		"duplicated header": {
			path: func(t *testing.T) string {
				t.Helper()
				return writeFile(t, "a,a\n1,2\n")
			},
			expectedKind: etlerr.ErrFormat,
		},
	}

	for name, test := range testCases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			extractor, err := NewExtractor(Config{Location: source.Location{Path: test.path(t)}})
			require.NoError(t, err)

			records, err := extractor.Extract(t.Context())
			assert.Nil(t, records)
			assert.ErrorIs(t, err, test.expectedKind)
		})
	}
}

func TestExtractRemote(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("cusip,value\n037833100,10\n"))
	}))
	defer server.Close()

	extractor, err := NewExtractor(Config{Location: source.Location{Path: server.URL + "/holdings.csv"}})
	require.NoError(t, err)

	records, err := extractor.Extract(t.Context())
	require.NoError(t, err)
	assert.True(t, record.Sequence{record.FromPairs("cusip", "037833100", "value", "10")}.Equal(records))
}
