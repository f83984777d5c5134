// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package destination

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mia-platform/etl/internal/etlerr"
)

func TestParseMode(t *testing.T) {
	t.Parallel()

	testCases := map[string]struct {
		input         string
		expected      Mode
		expectedError error
	}{
		"default": {
			expected: ModeOverwrite,
		},
		"overwrite": {
			input:    "overwrite",
			expected: ModeOverwrite,
		},
		"append": {
			input:    "append",
			expected: ModeAppend,
		},
		"unknown": {
			input:         "upsert",
			expectedError: etlerr.ErrInvalidConfiguration,
		},
	}

	for name, test := range testCases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			mode, err := ParseMode(test.input)
			if test.expectedError != nil {
				assert.ErrorIs(t, err, test.expectedError)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, test.expected, mode)
		})
	}
}
