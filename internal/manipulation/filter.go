// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package manipulation

import (
	"context"

	"github.com/mia-platform/etl/internal/etlerr"
	"github.com/mia-platform/etl/internal/logger"
	"github.com/mia-platform/etl/internal/record"
)

// PredicateFunc decides if a record is kept by a Filter.
type PredicateFunc func(r *record.Record) (bool, error)

// Filter keeps, in their original order, the records matching its predicate.
type Filter struct {
	predicate PredicateFunc
}

var _ Manipulation = &Filter{}

// NewFilter returns a Filter using predicate.
func NewFilter(predicate PredicateFunc) (*Filter, error) {
	if predicate == nil {
		return nil, etlerr.InvalidConfiguration("filter requires a predicate")
	}
	return &Filter{predicate: predicate}, nil
}

// Apply returns the subsequence of records for which the predicate is true.
// Records are passed to the output as they are, without copies.
func (f *Filter) Apply(ctx context.Context, records record.Sequence) (record.Sequence, error) {
	output := make(record.Sequence, 0, len(records))
	for idx, r := range records {
		var keep bool
		err := callAt(idx, func() error {
			var err error
			keep, err = f.predicate(r)
			return err
		})
		if err != nil {
			return nil, err
		}

		if keep {
			output = append(output, r)
		}
	}

	logger.FromContext(ctx).WithName(loggerName).Trace("filter applied", "input", len(records), "output", len(output))
	return output, nil
}
