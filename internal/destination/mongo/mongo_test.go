// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package mongo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/mia-platform/etl/internal/connection"
	"github.com/mia-platform/etl/internal/destination"
	"github.com/mia-platform/etl/internal/etlerr"
	"github.com/mia-platform/etl/internal/record"
)

func TestNewLoader(t *testing.T) {
	t.Parallel()

	testCases := map[string]struct {
		config      Config
		expectedErr error
	}{
		"missing collection": {
			config:      Config{Connection: connection.Params{Host: "localhost", Database: "reporting"}},
			expectedErr: etlerr.ErrInvalidConfiguration,
		},
		"missing database": {
			config:      Config{Connection: connection.Params{Host: "localhost"}, Collection: "orders"},
			expectedErr: etlerr.ErrInvalidConfiguration,
		},
		"unknown mode": {
			config:      Config{Connection: connection.Params{Host: "localhost", Database: "reporting"}, Collection: "orders", Mode: "upsert"},
			expectedErr: etlerr.ErrInvalidConfiguration,
		},
		"append": {
			config: Config{Connection: connection.Params{Host: "localhost", Database: "reporting"}, Collection: "orders", Mode: destination.ModeAppend},
		},
	}

	for name, test := range testCases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			loader, err := NewLoader(test.config)
			if test.expectedErr != nil {
				require.ErrorIs(t, err, test.expectedErr)
				assert.Nil(t, loader)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, destination.ModeAppend, loader.mode)
		})
	}
}

func TestRecordToDocument(t *testing.T) {
	t.Parallel()

	document := RecordToDocument(record.FromPairs("item", "APPLE", "qty", int64(2), "note", nil))
	assert.Equal(t, bson.D{
		{Key: "item", Value: "APPLE"},
		{Key: "qty", Value: int64(2)},
		{Key: "note", Value: nil},
	}, document)

	assert.Equal(t, bson.D{}, RecordToDocument(record.New()))
}

func TestLoadUnreachableServer(t *testing.T) {
	t.Parallel()

	loader, err := NewLoader(Config{
		Connection: connection.Params{Host: "127.0.0.1", Port: 1, Database: "reporting"},
		Collection: "orders",
		Timeout:    200 * time.Millisecond,
	})
	require.NoError(t, err)

	err = loader.Load(t.Context(), record.Sequence{record.FromPairs("item", "APPLE")})
	require.ErrorIs(t, err, etlerr.ErrDestinationUnavailable)
}
