// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package manipulation

import (
	"context"

	"github.com/mia-platform/etl/internal/etlerr"
	"github.com/mia-platform/etl/internal/record"
)

// ReduceFunc folds r into the accumulator and returns the new accumulator.
type ReduceFunc func(acc *record.Record, r *record.Record) (*record.Record, error)

// Aggregate reduces a sequence to at most one record.
type Aggregate struct {
	initial *record.Record
	reducer ReduceFunc
}

var _ Manipulation = &Aggregate{}

// NewAggregate returns an Aggregate starting from a copy of initial for every run.
// A nil initial record starts from an empty record.
func NewAggregate(initial *record.Record, reducer ReduceFunc) (*Aggregate, error) {
	if reducer == nil {
		return nil, etlerr.InvalidConfiguration("aggregate requires a reducer")
	}
	if initial == nil {
		initial = record.New()
	}
	return &Aggregate{initial: initial.Clone(), reducer: reducer}, nil
}

// Apply folds all records. Empty input, or a nil final accumulator, gives an
// empty sequence.
func (a *Aggregate) Apply(_ context.Context, records record.Sequence) (record.Sequence, error) {
	if len(records) == 0 {
		return record.Sequence{}, nil
	}

	acc := a.initial.Clone()
	for idx, r := range records {
		err := callAt(idx, func() error {
			var err error
			acc, err = a.reducer(acc, r)
			return err
		})
		if err != nil {
			return nil, err
		}
	}

	if acc == nil {
		return record.Sequence{}, nil
	}
	return record.Sequence{acc}, nil
}
