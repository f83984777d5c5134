// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package fake

import (
	"context"
	"sync"
	"testing"

	"github.com/mia-platform/etl/internal/destination"
	"github.com/mia-platform/etl/internal/record"
)

var _ destination.Loader = &Loader{}

// Loader records every loaded sequence, or fails with a fixed error.
type Loader struct {
	tb  testing.TB
	err error

	lock    sync.Mutex
	batches []record.Sequence
}

// NewLoader returns a Loader keeping a copy of what it receives.
func NewLoader(tb testing.TB) *Loader {
	tb.Helper()
	return &Loader{tb: tb}
}

// NewFailingLoader returns a Loader whose Load always returns err.
func NewFailingLoader(tb testing.TB, err error) *Loader {
	tb.Helper()
	return &Loader{tb: tb, err: err}
}

func (l *Loader) Load(ctx context.Context, records record.Sequence) error {
	l.tb.Helper()
	if err := ctx.Err(); err != nil {
		return err
	}

	l.lock.Lock()
	defer l.lock.Unlock()
	if l.err != nil {
		return l.err
	}
	l.batches = append(l.batches, records.Clone())
	return nil
}

// Batches returns the sequences received by successful Load calls.
func (l *Loader) Batches() []record.Sequence {
	l.lock.Lock()
	defer l.lock.Unlock()
	return append([]record.Sequence(nil), l.batches...)
}

// Records returns the last loaded sequence, nil if nothing was loaded.
func (l *Loader) Records() record.Sequence {
	l.lock.Lock()
	defer l.lock.Unlock()
	if len(l.batches) == 0 {
		return nil
	}
	return l.batches[len(l.batches)-1]
}
