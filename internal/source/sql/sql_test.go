// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package sql

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mia-platform/etl/internal/connection"
	"github.com/mia-platform/etl/internal/etlerr"
	"github.com/mia-platform/etl/internal/record"
)

func seedDatabase(t *testing.T) connection.Params {
	t.Helper()

	params := connection.Params{Database: filepath.Join(t.TempDir(), "holdings.db")}
	db, err := connection.OpenSQL(t.Context(), connection.SQLite, params)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.ExecContext(t.Context(), `CREATE TABLE holdings (cusip TEXT, issuer TEXT, value INTEGER, price REAL, note TEXT)`)
	require.NoError(t, err)
	_, err = db.ExecContext(t.Context(), `INSERT INTO holdings VALUES
		('037833100', 'APPLE INC', 100, 3.5, NULL),
		('594918104', 'MICROSOFT CORP', 0, 5.25, 'watch')`)
	require.NoError(t, err)

	return params
}

func TestExtract(t *testing.T) {
	t.Parallel()

	params := seedDatabase(t)

	testCases := map[string]struct {
		query    string
		args     []any
		expected record.Sequence
	}{
		"all rows in column order": {
			query: "SELECT cusip, issuer, value, price, note FROM holdings ORDER BY cusip",
			expected: record.Sequence{
				record.FromPairs("cusip", "037833100", "issuer", "APPLE INC", "value", int64(100), "price", 3.5, "note", nil),
				record.FromPairs("cusip", "594918104", "issuer", "MICROSOFT CORP", "value", int64(0), "price", 5.25, "note", "watch"),
			},
		},
		"query with arguments": {
			query:    "SELECT issuer FROM holdings WHERE value > ?",
			args:     []any{10},
			expected: record.Sequence{record.FromPairs("issuer", "APPLE INC")},
		},
		"no rows": {
			query:    "SELECT issuer FROM holdings WHERE value < 0",
			expected: record.Sequence{},
		},
	}

	for name, test := range testCases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			extractor, err := NewExtractor(Config{
				Driver:     connection.SQLite,
				Connection: params,
				Query:      test.query,
				Args:       test.args,
			})
			require.NoError(t, err)

			records, err := extractor.Extract(t.Context())
			require.NoError(t, err)
			assert.True(t, test.expected.Equal(records), "got %v", records.Maps())
		})
	}
}

func TestExtractErrors(t *testing.T) {
	t.Parallel()

	_, err := NewExtractor(Config{Driver: connection.SQLite})
	require.ErrorIs(t, err, etlerr.ErrInvalidConfiguration)

	_, err = NewExtractor(Config{Driver: "oracle", Query: "SELECT 1"})
	require.ErrorIs(t, err, etlerr.ErrInvalidConfiguration)

	extractor, err := NewExtractor(Config{
		Driver:     connection.SQLite,
		Connection: seedDatabase(t),
		Query:      "SELECT * FROM missing_table",
	})
	require.NoError(t, err)

	records, err := extractor.Extract(t.Context())
	assert.Nil(t, records)
	assert.ErrorIs(t, err, etlerr.ErrSourceUnavailable)
}
