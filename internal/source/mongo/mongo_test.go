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
	"github.com/mia-platform/etl/internal/etlerr"
	"github.com/mia-platform/etl/internal/record"
)

func TestNewExtractor(t *testing.T) {
	t.Parallel()

	params := connection.Params{Host: "mongo.local", Database: "filings"}

	testCases := map[string]struct {
		config        Config
		expectedError bool
	}{
		"valid": {
			config: Config{Connection: params, Collection: "holdings", Filter: `{"value": {"$gt": 0}}`, Sort: `{"value": -1}`},
		},
		"missing collection": {
			config:        Config{Connection: params},
			expectedError: true,
		},
		"missing database": {
			config:        Config{Connection: connection.Params{Host: "mongo.local"}, Collection: "holdings"},
			expectedError: true,
		},
		"broken filter": {
			config:        Config{Connection: params, Collection: "holdings", Filter: `{"value": `},
			expectedError: true,
		},
	}

	for name, test := range testCases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			extractor, err := NewExtractor(test.config)
			if test.expectedError {
				assert.ErrorIs(t, err, etlerr.ErrInvalidConfiguration)
				assert.Nil(t, extractor)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, bson.D{{Key: "value", Value: int32(-1)}}, extractor.sort)
		})
	}
}

func TestDocumentToRecord(t *testing.T) {
	t.Parallel()

	id, err := bson.ObjectIDFromHex("65f1c0ffee0000000000abcd")
	require.NoError(t, err)
	reported := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)

	document := bson.D{
		{Key: "_id", Value: id},
		{Key: "issuer", Value: "APPLE INC"},
		{Key: "shares", Value: int32(100)},
		{Key: "value", Value: 3.5},
		{Key: "reported", Value: bson.NewDateTimeFromTime(reported)},
		{Key: "manager", Value: bson.D{{Key: "name", Value: "fund"}}},
		{Key: "tags", Value: bson.A{"tech", "us"}},
		{Key: "note", Value: nil},
	}

	expected := record.FromPairs(
		"_id", "65f1c0ffee0000000000abcd",
		"issuer", "APPLE INC",
		"shares", int64(100),
		"value", 3.5,
		"reported", "2024-03-31T00:00:00Z",
		"manager", `{"name":"fund"}`,
		"tags", `["tech","us"]`,
		"note", nil,
	)

	actual := DocumentToRecord(document)
	assert.True(t, expected.Equal(actual), "got %s", actual)
}

func TestExtractUnreachable(t *testing.T) {
	t.Parallel()

	extractor, err := NewExtractor(Config{
		Connection: connection.Params{Host: "127.0.0.1", Port: 1, Database: "filings"},
		Collection: "holdings",
		Timeout:    200 * time.Millisecond,
	})
	require.NoError(t, err)

	records, err := extractor.Extract(t.Context())
	assert.Nil(t, records)
	assert.ErrorIs(t, err, etlerr.ErrSourceUnavailable)
}
