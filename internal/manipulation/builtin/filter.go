// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package builtin

import (
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cast"

	"github.com/mia-platform/etl/internal/etlerr"
	"github.com/mia-platform/etl/internal/manipulation"
	"github.com/mia-platform/etl/internal/record"
)

// Operator compares a record field with the filter value.
type Operator string

const (
	OperatorEqual          Operator = "eq"
	OperatorNotEqual       Operator = "neq"
	OperatorGreater        Operator = "gt"
	OperatorGreaterOrEqual Operator = "gte"
	OperatorLess           Operator = "lt"
	OperatorLessOrEqual    Operator = "lte"
	OperatorContains       Operator = "contains"
	OperatorIn             Operator = "in"
	OperatorExists         Operator = "exists"
	OperatorNotNull        Operator = "notnull"
)

func (d Definition) buildFilter() (manipulation.Manipulation, error) {
	if d.Expression != "" {
		program, err := compileExpression(d.Expression)
		if err != nil {
			return nil, err
		}
		return manipulation.NewFilter(func(r *record.Record) (bool, error) {
			result, err := program.run(r)
			if err != nil {
				return false, err
			}
			return result.ToBoolean(), nil
		})
	}

	if d.Field == "" {
		return nil, etlerr.InvalidConfiguration("filter requires a field or an expression")
	}

	predicate, err := comparison(d.Field, d.Operator, d.Value)
	if err != nil {
		return nil, err
	}
	return manipulation.NewFilter(predicate)
}

// buildRequire keeps only the records holding a non nil value in every field.
func (d Definition) buildRequire() (manipulation.Manipulation, error) {
	fields, err := d.requireFields()
	if err != nil {
		return nil, err
	}

	return manipulation.NewFilter(func(r *record.Record) (bool, error) {
		return lo.EveryBy(fields, func(field string) bool {
			return r.Value(field) != nil
		}), nil
	})
}

func comparison(field string, operator Operator, expected any) (manipulation.PredicateFunc, error) {
	switch operator {
	case OperatorExists:
		return func(r *record.Record) (bool, error) { return r.Has(field), nil }, nil
	case OperatorNotNull:
		return func(r *record.Record) (bool, error) { return r.Value(field) != nil, nil }, nil
	case OperatorContains:
		needle := cast.ToString(expected)
		return func(r *record.Record) (bool, error) {
			value := r.Value(field)
			return value != nil && strings.Contains(cast.ToString(value), needle), nil
		}, nil
	case OperatorIn:
		candidates, err := cast.ToSliceE(expected)
		if err != nil {
			return nil, etlerr.InvalidConfiguration("operator in requires a list value")
		}
		return func(r *record.Record) (bool, error) {
			value := r.Value(field)
			return lo.ContainsBy(candidates, func(candidate any) bool {
				return equalValues(value, candidate)
			}), nil
		}, nil
	case OperatorEqual, "":
		return func(r *record.Record) (bool, error) { return equalValues(r.Value(field), expected), nil }, nil
	case OperatorNotEqual:
		return func(r *record.Record) (bool, error) { return !equalValues(r.Value(field), expected), nil }, nil
	case OperatorGreater, OperatorGreaterOrEqual, OperatorLess, OperatorLessOrEqual:
		if expected == nil {
			return nil, etlerr.InvalidConfiguration("operator %s requires a value", operator)
		}
		return func(r *record.Record) (bool, error) {
			value := r.Value(field)
			if value == nil {
				return false, nil
			}
			return matchesOrder(operator, manipulation.CompareValues(value, expected)), nil
		}, nil
	default:
		return nil, etlerr.InvalidConfiguration("unknown filter operator %q", operator)
	}
}

func equalValues(value, expected any) bool {
	if value == nil || expected == nil {
		return value == nil && expected == nil
	}
	return manipulation.CompareValues(value, expected) == 0
}

func matchesOrder(operator Operator, result int) bool {
	switch operator {
	case OperatorGreater:
		return result > 0
	case OperatorGreaterOrEqual:
		return result >= 0
	case OperatorLess:
		return result < 0
	default:
		return result <= 0
	}
}
