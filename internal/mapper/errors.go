// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package mapper

import (
	"strconv"
	"strings"
)

var (
	_ error = &ParsingError{}
	_ error = &RenderError{}
)

// ParsingError collects the templates that failed to parse, by field.
type ParsingError struct {
	fields []string
	err    error
}

// NewParsingError returns a ParsingError for the templates of fields. err joins
// the parser errors.
func NewParsingError(fields []string, err error) *ParsingError {
	return &ParsingError{fields: fields, err: err}
}

// Fields returns the fields whose template could not be parsed.
func (e *ParsingError) Fields() []string {
	return e.fields
}

func (e *ParsingError) Error() string {
	msg := "template parsing error"
	if len(e.fields) > 0 {
		msg += " for fields " + strings.Join(e.fields, ", ")
	}
	if e.err != nil {
		msg += "\n" + e.err.Error()
	}
	return msg
}

func (e *ParsingError) Unwrap() error {
	return e.err
}

// Is matches another ParsingError with the same message.
func (e *ParsingError) Is(target error) bool {
	if e == nil || target == nil {
		return false
	}

	if t, ok := target.(*ParsingError); ok {
		return e.Error() == t.Error()
	}
	return false
}

// RenderError reports a template failing while rendering a record.
type RenderError struct {
	Field string
	err   error
}

func (e *RenderError) Error() string {
	return "rendering field " + strconv.Quote(e.Field) + ": " + e.err.Error()
}

func (e *RenderError) Unwrap() error {
	return e.err
}
