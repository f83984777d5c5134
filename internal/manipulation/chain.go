// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package manipulation

import (
	"context"
	"slices"

	"github.com/mia-platform/etl/internal/etlerr"
	"github.com/mia-platform/etl/internal/logger"
	"github.com/mia-platform/etl/internal/record"
)

// Chain applies its children in order, feeding each one with the output of the
// previous one.
type Chain struct {
	children []Manipulation
}

var _ Manipulation = &Chain{}

// NewChain returns a Chain owning a copy of children. At least one child is required.
func NewChain(children ...Manipulation) (*Chain, error) {
	if len(children) == 0 {
		return nil, etlerr.InvalidConfiguration("chain requires at least 1 manipulation")
	}

	for idx, child := range children {
		if child == nil {
			return nil, etlerr.InvalidConfiguration("chain manipulation at position %d is nil", idx)
		}
	}

	return &Chain{children: slices.Clone(children)}, nil
}

// Len returns the number of direct children.
func (c *Chain) Len() int {
	return len(c.children)
}

// Apply threads records through every child. The first error stops the chain
// and is returned as is.
func (c *Chain) Apply(ctx context.Context, records record.Sequence) (record.Sequence, error) {
	log := logger.FromContext(ctx).WithName(loggerName)

	current := records
	for idx, child := range c.children {
		output, err := child.Apply(ctx, current)
		if err != nil {
			log.Debug("chain interrupted", "position", idx, "error", err)
			return nil, err
		}
		log.Trace("chain step completed", "position", idx, "input", len(current), "output", len(output))
		current = output
	}

	if current == nil {
		current = record.Sequence{}
	}
	return current, nil
}
