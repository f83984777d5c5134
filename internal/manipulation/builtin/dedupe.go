// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package builtin

import (
	"context"
	"fmt"

	"github.com/spf13/cast"
	"github.com/zeebo/xxh3"

	"github.com/mia-platform/etl/internal/logger"
	"github.com/mia-platform/etl/internal/manipulation"
	"github.com/mia-platform/etl/internal/record"
)

// dedupe keeps the first record of every group of records sharing the same
// values in the key fields, or in all their fields when no key is set.
type dedupe struct {
	fields []string
}

var _ manipulation.Manipulation = &dedupe{}

func newDedupe(fields []string) *dedupe {
	return &dedupe{fields: fields}
}

func (d *dedupe) Apply(ctx context.Context, records record.Sequence) (record.Sequence, error) {
	seen := make(map[xxh3.Uint128]struct{}, len(records))
	output := make(record.Sequence, 0, len(records))

	for _, r := range records {
		key := d.key(r)
		if _, found := seen[key]; found {
			continue
		}
		seen[key] = struct{}{}
		output = append(output, r)
	}

	if removed := len(records) - len(output); removed > 0 {
		logger.FromContext(ctx).WithName("etl:manipulation").Debug("removed duplicated records", "count", removed)
	}
	return output, nil
}

func (d *dedupe) key(r *record.Record) xxh3.Uint128 {
	hasher := xxh3.New()
	write := func(field string, value any) {
		_, _ = hasher.WriteString(field)
		_, _ = hasher.Write([]byte{0})
		if value == nil {
			_, _ = hasher.Write([]byte{1})
		} else {
			// the dynamic type keeps int64(1), 1.0 and "1" apart
			_, _ = fmt.Fprintf(hasher, "%T", value)
			_, _ = hasher.Write([]byte{0})
			_, _ = hasher.WriteString(cast.ToString(value))
		}
		_, _ = hasher.Write([]byte{0})
	}

	if len(d.fields) == 0 {
		r.Each(func(field string, value any) bool {
			write(field, value)
			return true
		})
	} else {
		for _, field := range d.fields {
			write(field, r.Value(field))
		}
	}
	return hasher.Sum128()
}
