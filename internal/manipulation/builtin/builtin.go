// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package builtin builds manipulations from their declarative definition, as
// found in pipeline files.
package builtin

import (
	"fmt"

	"github.com/mia-platform/etl/internal/etlerr"
	"github.com/mia-platform/etl/internal/manipulation"
	"github.com/mia-platform/etl/internal/mapper"
)

// Type names a builtin manipulation.
type Type string

const (
	TypeFilter     Type = "filter"
	TypeRequire    Type = "require"
	TypeCompute    Type = "compute"
	TypeTemplate   Type = "template"
	TypeRename     Type = "rename"
	TypeSelect     Type = "select"
	TypeDrop       Type = "drop"
	TypeDefault    Type = "default"
	TypeTrim       Type = "trim"
	TypeUpper      Type = "upper"
	TypeLower      Type = "lower"
	TypeASCII      Type = "ascii"
	TypeCast       Type = "cast"
	TypeDedupe     Type = "dedupe"
	TypeSort       Type = "sort"
	TypePercentage Type = "percentage"
	TypeChain      Type = "chain"
)

// Definition is the declarative form of a manipulation. Only the properties
// relevant for its Type are read.
type Definition struct {
	Type Type `json:"type" yaml:"type" validate:"required,oneof=filter require compute template rename select drop default trim upper lower ascii cast dedupe sort percentage chain"`

	Field  string   `json:"field,omitempty" yaml:"field,omitempty"`
	Fields []string `json:"fields,omitempty" yaml:"fields,omitempty"`
	Target string   `json:"target,omitempty" yaml:"target,omitempty"`

	// filter
	Operator   Operator `json:"operator,omitempty" yaml:"operator,omitempty"`
	Value      any      `json:"value,omitempty" yaml:"value,omitempty"`
	Expression string   `json:"expression,omitempty" yaml:"expression,omitempty"`

	// rename
	Mapping map[string]string `json:"mapping,omitempty" yaml:"mapping,omitempty"`
	// template
	Templates  []mapper.FieldTemplate `json:"templates,omitempty" yaml:"templates,omitempty" validate:"dive"`
	InferTypes bool                   `json:"inferTypes,omitempty" yaml:"inferTypes,omitempty"`
	// cast
	To CastType `json:"to,omitempty" yaml:"to,omitempty"`
	// sort
	Descending bool `json:"descending,omitempty" yaml:"descending,omitempty"`
	// percentage, nil means two decimals
	Precision *int `json:"precision,omitempty" yaml:"precision,omitempty" validate:"omitempty,min=0"`
	// chain
	Steps []Definition `json:"steps,omitempty" yaml:"steps,omitempty" validate:"dive"`
}

// Build returns the manipulation described by definitions. No definitions give
// the identity manipulation, a single one is returned as is and more than one
// are wrapped in a Chain.
func Build(definitions []Definition) (manipulation.Manipulation, error) {
	switch len(definitions) {
	case 0:
		return manipulation.Identity, nil
	case 1:
		return definitions[0].Build()
	default:
		return buildChain(definitions)
	}
}

func buildChain(definitions []Definition) (manipulation.Manipulation, error) {
	children := make([]manipulation.Manipulation, 0, len(definitions))
	for idx, definition := range definitions {
		child, err := definition.Build()
		if err != nil {
			return nil, fmt.Errorf("manipulation %d: %w", idx, err)
		}
		children = append(children, child)
	}

	chain, err := manipulation.NewChain(children...)
	if err != nil {
		return nil, err
	}
	return chain, nil
}

// Build returns the manipulation described by d.
func (d Definition) Build() (manipulation.Manipulation, error) {
	switch d.Type {
	case TypeFilter:
		return d.buildFilter()
	case TypeRequire:
		return d.buildRequire()
	case TypeCompute:
		return d.buildCompute()
	case TypeTemplate:
		return d.buildTemplate()
	case TypeRename:
		return d.buildRename()
	case TypeSelect:
		return d.buildSelect()
	case TypeDrop:
		return d.buildDrop()
	case TypeDefault:
		return d.buildDefault()
	case TypeTrim, TypeUpper, TypeLower, TypeASCII:
		return d.buildText()
	case TypeCast:
		return d.buildCast()
	case TypeDedupe:
		return newDedupe(d.Fields), nil
	case TypeSort:
		return manipulation.NewSort(d.Field, d.Descending)
	case TypePercentage:
		return d.buildPercentage()
	case TypeChain:
		return buildChain(d.Steps)
	default:
		return nil, etlerr.InvalidConfiguration("unknown manipulation type %q", d.Type)
	}
}

func (d Definition) requireFields() ([]string, error) {
	fields := d.Fields
	if d.Field != "" {
		fields = append([]string{d.Field}, fields...)
	}
	if len(fields) == 0 {
		return nil, etlerr.InvalidConfiguration("%s requires at least one field", d.Type)
	}
	return fields, nil
}
