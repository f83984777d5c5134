// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package etlerr

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConnectorError(t *testing.T) {
	t.Parallel()

	testCases := map[string]struct {
		err          error
		expectedKind error
		expectedMsg  string
	}{
		"source unavailable": {
			err:          SourceUnavailable("csv", fs.ErrNotExist),
			expectedKind: ErrSourceUnavailable,
			expectedMsg:  "csv: source unavailable: file does not exist",
		},
		"destination unavailable": {
			err:          DestinationUnavailable("sql", fs.ErrPermission),
			expectedKind: ErrDestinationUnavailable,
			expectedMsg:  "sql: destination unavailable: permission denied",
		},
		"format without cause": {
			err:          Format("xml", nil),
			expectedKind: ErrFormat,
			expectedMsg:  "xml: format error",
		},
	}

	for name, test := range testCases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			assert.EqualError(t, test.err, test.expectedMsg)
			assert.ErrorIs(t, test.err, test.expectedKind)

			var connectorErr *ConnectorError
			assert.ErrorAs(t, test.err, &connectorErr)
			assert.Equal(t, test.expectedKind, connectorErr.Kind())
		})
	}

	err := SourceUnavailable("csv", fs.ErrNotExist)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.NotErrorIs(t, err, ErrFormat)
}

func TestManipulationError(t *testing.T) {
	t.Parallel()

	cause := errors.New("malformed quantity")
	err := NewManipulationError(3, cause)

	assert.EqualError(t, err, "manipulation error at record 3: malformed quantity")
	assert.ErrorIs(t, err, ErrManipulation)
	assert.ErrorIs(t, err, cause)

	var target *ManipulationError
	assert.ErrorAs(t, error(err), &target)
	assert.Equal(t, 3, target.Index)

	assert.EqualError(t, NewManipulationError(0, nil), "manipulation error at record 0")
}

func TestInvalidConfiguration(t *testing.T) {
	t.Parallel()

	err := InvalidConfiguration("chain requires at least %d manipulation", 1)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
	assert.EqualError(t, err, "invalid configuration: chain requires at least 1 manipulation")
}
