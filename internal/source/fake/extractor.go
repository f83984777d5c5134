// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package fake provides an in memory Extractor for tests.
package fake

import (
	"context"
	"sync"
	"testing"

	"github.com/mia-platform/etl/internal/record"
	"github.com/mia-platform/etl/internal/source"
)

var _ source.Extractor = &Extractor{}

// Extractor returns a copy of its records, or its error, on every call.
type Extractor struct {
	tb      testing.TB
	records record.Sequence
	err     error

	lock  sync.Mutex
	calls int
}

// NewExtractor returns an Extractor producing records.
func NewExtractor(tb testing.TB, records record.Sequence) *Extractor {
	tb.Helper()
	return &Extractor{tb: tb, records: records}
}

// NewFailingExtractor returns an Extractor always failing with err.
func NewFailingExtractor(tb testing.TB, err error) *Extractor {
	tb.Helper()
	return &Extractor{tb: tb, err: err}
}

// Extract implements source.Extractor.
func (e *Extractor) Extract(ctx context.Context) (record.Sequence, error) {
	e.tb.Helper()

	e.lock.Lock()
	e.calls++
	e.lock.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if e.err != nil {
		return nil, e.err
	}

	records := e.records.Clone()
	if records == nil {
		records = record.Sequence{}
	}
	return records, nil
}

// Calls returns how many times Extract has been called.
func (e *Extractor) Calls() int {
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.calls
}
