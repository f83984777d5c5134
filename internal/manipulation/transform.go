// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package manipulation

import (
	"context"
	"errors"

	"github.com/mia-platform/etl/internal/etlerr"
	"github.com/mia-platform/etl/internal/logger"
	"github.com/mia-platform/etl/internal/record"
)

var (
	errNilRecord = errors.New("transform returned a nil record")
)

// TransformFunc maps a record to its replacement. It can return r itself after
// changing it, or a brand new record.
type TransformFunc func(r *record.Record) (*record.Record, error)

// Transform applies a TransformFunc to every record of the sequence.
type Transform struct {
	fn TransformFunc
}

var _ Manipulation = &Transform{}

// NewTransform returns a Transform using fn.
func NewTransform(fn TransformFunc) (*Transform, error) {
	if fn == nil {
		return nil, etlerr.InvalidConfiguration("transform requires a function")
	}
	return &Transform{fn: fn}, nil
}

// Apply returns one record per input record, in the same order.
func (t *Transform) Apply(ctx context.Context, records record.Sequence) (record.Sequence, error) {
	output := make(record.Sequence, 0, len(records))
	for idx, r := range records {
		var result *record.Record
		err := callAt(idx, func() error {
			var err error
			if result, err = t.fn(r); err != nil {
				return err
			}
			if result == nil {
				return errNilRecord
			}
			return nil
		})
		if err != nil {
			return nil, err
		}

		output = append(output, result)
	}

	logger.FromContext(ctx).WithName(loggerName).Trace("transform applied", "records", len(output))
	return output, nil
}
