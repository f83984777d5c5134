// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package pipeline

import "errors"

var (
	// ErrAlreadyRunning is returned by Run when another run of the same pipeline
	// has not finished yet.
	ErrAlreadyRunning = errors.New("pipeline is already running")
	// ErrStagePanicked wraps the value recovered from a panicking stage.
	ErrStagePanicked = errors.New("stage panicked")
)
