// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package writer

import (
	"bytes"
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mia-platform/etl/internal/etlerr"
	"github.com/mia-platform/etl/internal/record"
)

func TestWriterLoader(t *testing.T) {
	t.Parallel()

	records := record.Sequence{
		record.FromPairs("item", "APPLE", "qty", int64(2), "total", 6.0),
		record.FromPairs("item", "PEAR", "note", nil),
	}

	buffer := new(bytes.Buffer)
	require.NoError(t, NewLoader(buffer).Load(t.Context(), records))

	expectedOutput := `{"item":"APPLE","qty":2,"total":6}
{"item":"PEAR","note":null}
`
	assert.Equal(t, expectedOutput, buffer.String())
}

func TestIndentedWriterLoader(t *testing.T) {
	t.Parallel()

	buffer := new(bytes.Buffer)
	require.NoError(t, NewIndentedLoader(buffer).Load(t.Context(), record.Sequence{
		record.FromPairs("key", "value", "array", []string{"a", "b"}),
	}))

	expectedOutput := `{
	"key": "value",
	"array": [
		"a",
		"b"
	]
}
`
	assert.Equal(t, expectedOutput, buffer.String())
}

func TestWriterLoaderFailures(t *testing.T) {
	t.Parallel()

	testCases := map[string]struct {
		ctx         func() context.Context
		records     record.Sequence
		expectedErr error
	}{
		"value not representable": {
			ctx:         context.Background,
			records:     record.Sequence{record.FromPairs("ratio", math.NaN())},
			expectedErr: etlerr.ErrFormat,
		},
		"canceled context": {
			ctx: func() context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx
			},
			records:     record.Sequence{record.FromPairs("a", "1")},
			expectedErr: etlerr.ErrDestinationUnavailable,
		},
	}

	for name, test := range testCases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			buffer := new(bytes.Buffer)
			err := NewLoader(buffer).Load(test.ctx(), test.records)
			require.ErrorIs(t, err, test.expectedErr)
			assert.Empty(t, buffer.String())
		})
	}
}
