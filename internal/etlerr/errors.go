// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package etlerr holds the error taxonomy shared by extractors, manipulations,
// loaders and pipelines. Every typed error unwraps to one of the exported
// sentinels so callers can classify failures with errors.Is.
package etlerr

import (
	"errors"
	"fmt"
)

var (
	// ErrSourceUnavailable reports that a source cannot be opened or read.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrDestinationUnavailable reports that a destination cannot be opened or written.
	ErrDestinationUnavailable = errors.New("destination unavailable")
	// ErrFormat reports content that cannot be parsed into records or a record
	// that cannot be serialized to the destination representation.
	ErrFormat = errors.New("format error")
	// ErrManipulation reports a failure of a predicate or transform function.
	ErrManipulation = errors.New("manipulation error")
	// ErrInvalidConfiguration reports a component built with invalid settings.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// Ensure the typed errors implement the error interface.
var (
	_ error = &ConnectorError{}
	_ error = &ManipulationError{}
)

// ConnectorError decorates a failure of a concrete extractor or loader with the
// connector name and the failure kind.
type ConnectorError struct {
	Connector string
	Err       error

	kind error
}

// SourceUnavailable wraps err as an ErrSourceUnavailable failure of connector.
func SourceUnavailable(connector string, err error) error {
	return &ConnectorError{Connector: connector, Err: err, kind: ErrSourceUnavailable}
}

// DestinationUnavailable wraps err as an ErrDestinationUnavailable failure of connector.
func DestinationUnavailable(connector string, err error) error {
	return &ConnectorError{Connector: connector, Err: err, kind: ErrDestinationUnavailable}
}

// Format wraps err as an ErrFormat failure of connector.
func Format(connector string, err error) error {
	return &ConnectorError{Connector: connector, Err: err, kind: ErrFormat}
}

func (e *ConnectorError) Error() string {
	msg := e.Connector + ": " + e.kind.Error()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the failure kind and the original cause.
func (e *ConnectorError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.kind}
	}
	return []error{e.kind, e.Err}
}

// Kind returns the sentinel classifying the failure.
func (e *ConnectorError) Kind() error {
	return e.kind
}

// ManipulationError wraps the failure of a predicate or transform function with
// the 0-based position of the offending record.
type ManipulationError struct {
	Index int
	Err   error
}

// NewManipulationError returns a ManipulationError for the record at index.
func NewManipulationError(index int, err error) *ManipulationError {
	return &ManipulationError{Index: index, Err: err}
}

func (e *ManipulationError) Error() string {
	msg := fmt.Sprintf("%s at record %d", ErrManipulation, e.Index)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes ErrManipulation and the original failure.
func (e *ManipulationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrManipulation}
	}
	return []error{ErrManipulation, e.Err}
}

// InvalidConfiguration returns an ErrInvalidConfiguration error with a formatted reason.
func InvalidConfiguration(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfiguration, fmt.Sprintf(format, args...))
}
