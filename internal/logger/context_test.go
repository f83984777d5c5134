// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package logger

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoggerInContext(t *testing.T) {
	t.Parallel()

	testCases := map[string]struct {
		ctx      func() (context.Context, Logger)
		expected func(Logger) Logger
	}{
		"nil context returns the null logger": {
			ctx: func() (context.Context, Logger) {
				var ctx context.Context
				return ctx, nil
			},
			expected: func(Logger) Logger { return nullLogger },
		},
		"empty context returns the null logger": {
			ctx: func() (context.Context, Logger) {
				return t.Context(), nil
			},
			expected: func(Logger) Logger { return nullLogger },
		},
		"context with a logger returns that logger": {
			ctx: func() (context.Context, Logger) {
				log := NewLogger(io.Discard)
				return WithContext(t.Context(), log), log
			},
			expected: func(stored Logger) Logger { return stored },
		},
	}

	for name, test := range testCases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			ctx, stored := test.ctx()
			assert.Equal(t, test.expected(stored), FromContext(ctx))
		})
	}
}
