// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package destination

import (
	"fmt"

	"github.com/mia-platform/etl/internal/record"
)

// ColumnValues returns the values of columns in r, ready to be bound as query
// arguments. Missing fields are nil. Only scalar values can be stored in a
// column, any other value returns an error naming the field.
func ColumnValues(r *record.Record, columns []string) ([]any, error) {
	values := make([]any, len(columns))
	for idx, column := range columns {
		value := r.Value(column)
		switch value.(type) {
		case nil, string, bool, int64, float64:
			values[idx] = value
		case int, int32, float32:
			values[idx] = record.Normalize(value)
		default:
			return nil, fmt.Errorf("field %q holds a %T value that cannot be stored in a column", column, value)
		}
	}
	return values, nil
}
