// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package mapper renders record fields from Go text templates.
package mapper

import (
	"errors"
	"strconv"
	"strings"
	"text/template"

	"github.com/mia-platform/etl/internal/mapper/functions"
	"github.com/mia-platform/etl/internal/record"
)

// FieldTemplate associates a template with the field receiving its output.
type FieldTemplate struct {
	Field    string `json:"field" yaml:"field" validate:"required"`
	Template string `json:"template" yaml:"template" validate:"required"`
}

// Mapper computes new field values for a record from a set of templates.
type Mapper interface {
	// ApplyTemplates renders every template against input and returns a copy of
	// input with the rendered fields set.
	ApplyTemplates(input *record.Record) (*record.Record, error)
}

var _ Mapper = &internalMapper{}

type compiledTemplate struct {
	field    string
	template *template.Template
}

// internalMapper is the default implementation of the Mapper interface.
type internalMapper struct {
	templates  []compiledTemplate
	inferTypes bool
}

// Option customizes a Mapper.
type Option func(*internalMapper)

// WithTypeInference converts rendered text into numbers and booleans when possible.
func WithTypeInference() Option {
	return func(m *internalMapper) {
		m.inferTypes = true
	}
}

// New parses the field templates, in order. All the parsing errors are reported
// together in a single ParsingError.
func New(fieldTemplates []FieldTemplate, options ...Option) (Mapper, error) {
	var parsingErrs error
	failed := make([]string, 0)
	root := template.New("main").Funcs(functions.FuncMap()).Option("missingkey=zero")

	templates := make([]compiledTemplate, 0, len(fieldTemplates))
	for _, fieldTemplate := range fieldTemplates {
		if fieldTemplate.Field == "" {
			parsingErrs = errors.Join(parsingErrs, errors.New("template without field name"))
			failed = append(failed, strconv.Quote(""))
			continue
		}

		tmpl, err := root.New(fieldTemplate.Field).Parse(fieldTemplate.Template)
		if err != nil {
			parsingErrs = errors.Join(parsingErrs, err)
			failed = append(failed, fieldTemplate.Field)
			continue
		}
		templates = append(templates, compiledTemplate{field: fieldTemplate.Field, template: tmpl})
	}

	if parsingErrs != nil {
		return nil, NewParsingError(failed, parsingErrs)
	}

	m := &internalMapper{templates: templates}
	for _, option := range options {
		option(m)
	}
	return m, nil
}

// ApplyTemplates renders the templates in order. Every template sees the input
// fields plus the ones rendered before it.
func (m *internalMapper) ApplyTemplates(input *record.Record) (*record.Record, error) {
	output := input.Clone()
	if output == nil {
		output = record.New()
	}

	for _, compiled := range m.templates {
		rendered := new(strings.Builder)
		if err := compiled.template.Execute(rendered, output.Map()); err != nil {
			return nil, &RenderError{Field: compiled.field, err: err}
		}

		var value any = strings.ReplaceAll(rendered.String(), "<no value>", "")
		if m.inferTypes {
			value = record.Infer(value.(string))
		}
		output.Set(compiled.field, value)
	}

	return output, nil
}
