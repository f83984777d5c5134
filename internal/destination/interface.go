// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package destination

import (
	"context"

	"github.com/mia-platform/etl/internal/etlerr"
	"github.com/mia-platform/etl/internal/record"
)

// Loader writes a sequence of records to a destination. When Load returns
// without error every record has been durably written, in order for order
// sensitive destinations.
type Loader interface {
	Load(ctx context.Context, records record.Sequence) error
}

// LoaderFunc adapts a plain function to the Loader interface.
type LoaderFunc func(ctx context.Context, records record.Sequence) error

// Load calls f.
func (f LoaderFunc) Load(ctx context.Context, records record.Sequence) error {
	return f(ctx, records)
}

// Mode decides what happens to the content already in the destination when a
// loader runs again.
type Mode string

const (
	// ModeOverwrite replaces the destination content with the loaded records.
	ModeOverwrite Mode = "overwrite"
	// ModeAppend adds the loaded records after the existing content.
	ModeAppend Mode = "append"
)

// ParseMode validates mode, defaulting to ModeOverwrite when empty.
func ParseMode(mode string) (Mode, error) {
	switch Mode(mode) {
	case "", ModeOverwrite:
		return ModeOverwrite, nil
	case ModeAppend:
		return ModeAppend, nil
	default:
		return "", etlerr.InvalidConfiguration("unknown write mode %q, expected %s or %s", mode, ModeOverwrite, ModeAppend)
	}
}
