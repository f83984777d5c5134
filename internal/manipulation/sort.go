// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package manipulation

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/spf13/cast"

	"github.com/mia-platform/etl/internal/etlerr"
	"github.com/mia-platform/etl/internal/record"
)

// Sort reorders records by the value of a field. Records missing the field or
// holding nil are always placed last. The sort is stable.
type Sort struct {
	field      string
	descending bool
}

var _ Manipulation = &Sort{}

// NewSort returns a Sort on field.
func NewSort(field string, descending bool) (*Sort, error) {
	if field == "" {
		return nil, etlerr.InvalidConfiguration("sort requires a field")
	}
	return &Sort{field: field, descending: descending}, nil
}

// Apply returns a sorted copy of the sequence, the input slice is left untouched.
func (s *Sort) Apply(_ context.Context, records record.Sequence) (record.Sequence, error) {
	output := slices.Clone(records)
	if output == nil {
		return record.Sequence{}, nil
	}

	slices.SortStableFunc(output, func(a, b *record.Record) int {
		left, right := a.Value(s.field), b.Value(s.field)
		switch {
		case left == nil && right == nil:
			return 0
		case left == nil:
			return 1
		case right == nil:
			return -1
		}

		result := CompareValues(left, right)
		if s.descending {
			return -result
		}
		return result
	})

	return output, nil
}

// CompareValues compares two record values numerically when both can be read as
// numbers, and as text otherwise.
func CompareValues(left, right any) int {
	leftNumber, leftErr := cast.ToFloat64E(left)
	rightNumber, rightErr := cast.ToFloat64E(right)
	if leftErr == nil && rightErr == nil && !isBlank(left) && !isBlank(right) {
		return cmp.Compare(leftNumber, rightNumber)
	}

	return strings.Compare(cast.ToString(left), cast.ToString(right))
}

func isBlank(value any) bool {
	text, ok := value.(string)
	return ok && strings.TrimSpace(text) == ""
}
