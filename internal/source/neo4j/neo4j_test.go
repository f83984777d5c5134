// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package neo4j

import (
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mia-platform/etl/internal/connection"
	"github.com/mia-platform/etl/internal/etlerr"
)

func TestNewExtractor(t *testing.T) {
	t.Parallel()

	_, err := NewExtractor(Config{Connection: connection.Params{Host: "graph.local"}})
	require.ErrorIs(t, err, etlerr.ErrInvalidConfiguration)

	_, err = NewExtractor(Config{Query: "MATCH (n) RETURN n"})
	require.ErrorIs(t, err, etlerr.ErrInvalidConfiguration)

	extractor, err := NewExtractor(Config{Query: "MATCH (n) RETURN n", Connection: connection.Params{Host: "graph.local"}})
	require.NoError(t, err)
	assert.NotNil(t, extractor)
}

func TestGraphValue(t *testing.T) {
	t.Parallel()

	testCases := map[string]struct {
		value    any
		expected any
	}{
		"node": {
			value:    neo4j.Node{ElementId: "4:1", Labels: []string{"Issuer"}, Props: map[string]any{"name": "APPLE INC"}},
			expected: `{"name":"APPLE INC"}`,
		},
		"relationship": {
			value:    neo4j.Relationship{Type: "HOLDS", Props: map[string]any{"shares": int64(10)}},
			expected: `{"shares":10}`,
		},
		"list": {
			value:    []any{int64(1), "a"},
			expected: `[1,"a"]`,
		},
		"integer": {
			value:    int64(7),
			expected: int64(7),
		},
		"null": {
			value:    nil,
			expected: nil,
		},
	}

	for name, test := range testCases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, test.expected, graphValue(test.value))
		})
	}
}

func TestExtractUnreachable(t *testing.T) {
	t.Parallel()

	extractor, err := NewExtractor(Config{
		Query:      "MATCH (n) RETURN n",
		Connection: connection.Params{DSN: "bolt://127.0.0.1:1"},
	})
	require.NoError(t, err)

	records, err := extractor.Extract(t.Context())
	assert.Nil(t, records)
	assert.ErrorIs(t, err, etlerr.ErrSourceUnavailable)
}
