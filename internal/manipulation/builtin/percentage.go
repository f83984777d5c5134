// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package builtin

import (
	"context"
	"math"

	"github.com/samber/lo"
	"github.com/spf13/cast"

	"github.com/mia-platform/etl/internal/etlerr"
	"github.com/mia-platform/etl/internal/manipulation"
	"github.com/mia-platform/etl/internal/record"
)

// percentage stores in target the share of every record value on the total of
// the field over the whole sequence, rounded to precision decimals. When the
// total is not positive no share exists and target is set to nil.
type percentage struct {
	field     string
	target    string
	precision int
}

const defaultPrecision = 2

var _ manipulation.Manipulation = &percentage{}

func (d Definition) buildPercentage() (manipulation.Manipulation, error) {
	if d.Field == "" {
		return nil, etlerr.InvalidConfiguration("percentage requires a field")
	}

	target := d.Target
	if target == "" {
		target = d.Field + "_pct"
	}
	precision := defaultPrecision
	if d.Precision != nil {
		precision = *d.Precision
	}
	if precision < 0 {
		return nil, etlerr.InvalidConfiguration("percentage precision must not be negative, got %d", precision)
	}
	return &percentage{field: d.Field, target: target, precision: precision}, nil
}

func (p *percentage) Apply(_ context.Context, records record.Sequence) (record.Sequence, error) {
	values := lo.Map(records, func(r *record.Record, _ int) float64 {
		return cast.ToFloat64(r.Value(p.field))
	})
	total := lo.Sum(values)

	scale := math.Pow(10, float64(p.precision))
	output := make(record.Sequence, 0, len(records))
	for idx, r := range records {
		if total > 0 {
			r.Set(p.target, math.Round(values[idx]/total*100*scale)/scale)
		} else {
			r.Set(p.target, nil)
		}
		output = append(output, r)
	}
	return output, nil
}
