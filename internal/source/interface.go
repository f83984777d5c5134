// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package source

import (
	"context"

	"github.com/mia-platform/etl/internal/record"
)

// Extractor reads all the records available from a source at call time.
// Implementations must not change the source and must release any resource
// acquired during the call before returning.
type Extractor interface {
	Extract(ctx context.Context) (record.Sequence, error)
}

// ExtractorFunc adapts a plain function to the Extractor interface.
type ExtractorFunc func(ctx context.Context) (record.Sequence, error)

// Extract calls f.
func (f ExtractorFunc) Extract(ctx context.Context) (record.Sequence, error) {
	return f(ctx)
}
