// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package manipulation

import (
	"context"
	"fmt"

	"github.com/mia-platform/etl/internal/etlerr"
	"github.com/mia-platform/etl/internal/record"
)

const (
	loggerName = "etl:manipulation"
)

// Manipulation transforms a sequence of records into another sequence.
type Manipulation interface {
	Apply(ctx context.Context, records record.Sequence) (record.Sequence, error)
}

// Func adapts a plain function to the Manipulation interface.
type Func func(ctx context.Context, records record.Sequence) (record.Sequence, error)

// Apply calls f.
func (f Func) Apply(ctx context.Context, records record.Sequence) (record.Sequence, error) {
	return f(ctx, records)
}

// Identity is a Manipulation returning its input untouched.
var Identity Manipulation = identity{}

type identity struct{}

func (identity) Apply(_ context.Context, records record.Sequence) (record.Sequence, error) {
	if records == nil {
		return record.Sequence{}, nil
	}
	return records, nil
}

// callAt runs fn for the record at index turning any error or panic into a
// ManipulationError.
func callAt(index int, fn func() error) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = etlerr.NewManipulationError(index, fmt.Errorf("panic: %v", recovered))
		}
	}()

	if err := fn(); err != nil {
		return etlerr.NewManipulationError(index, err)
	}
	return nil
}
