// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package builtin

import (
	"encoding/json"
	"math"

	"github.com/dop251/goja"

	"github.com/mia-platform/etl/internal/etlerr"
	"github.com/mia-platform/etl/internal/manipulation"
	"github.com/mia-platform/etl/internal/record"
)

// recordVariable is the name of the global holding the whole record, for fields
// that are not valid identifiers.
const recordVariable = "record"

type expression struct {
	program *goja.Program
}

func compileExpression(source string) (*expression, error) {
	program, err := goja.Compile("expression", source, true)
	if err != nil {
		return nil, etlerr.InvalidConfiguration("invalid expression %q: %s", source, err)
	}
	return &expression{program: program}, nil
}

// run evaluates the expression in a fresh runtime where every field of r is a
// global variable.
func (e *expression) run(r *record.Record) (goja.Value, error) {
	vm := goja.New()
	var setErr error
	r.Each(func(field string, value any) bool {
		setErr = vm.Set(field, value)
		return setErr == nil
	})
	if setErr != nil {
		return nil, setErr
	}
	if err := vm.Set(recordVariable, r.Map()); err != nil {
		return nil, err
	}

	return vm.RunProgram(e.program)
}

func (d Definition) buildCompute() (manipulation.Manipulation, error) {
	if d.Field == "" || d.Expression == "" {
		return nil, etlerr.InvalidConfiguration("compute requires a field and an expression")
	}

	program, err := compileExpression(d.Expression)
	if err != nil {
		return nil, err
	}

	field := d.Field
	return manipulation.NewTransform(func(r *record.Record) (*record.Record, error) {
		result, err := program.run(r)
		if err != nil {
			return nil, err
		}
		return r.Set(field, exportValue(result)), nil
	})
}

// exportValue converts a JavaScript value into a record value. Numbers are
// always float64, as in JavaScript. Objects and arrays are stored as JSON text.
func exportValue(value goja.Value) any {
	if value == nil || goja.IsUndefined(value) || goja.IsNull(value) {
		return nil
	}

	switch exported := value.Export().(type) {
	case int64:
		return float64(exported)
	case float64:
		if math.IsNaN(exported) || math.IsInf(exported, 0) {
			return nil
		}
		return exported
	case string, bool:
		return exported
	default:
		data, err := json.Marshal(exported)
		if err != nil {
			return record.Normalize(exported)
		}
		return string(data)
	}
}
