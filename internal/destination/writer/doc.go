// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package writer implements a loader that prints the received records as JSON
// lines on the given io.Writer instance.
// It is primarily useful for debugging purposes, or for tweaking and adjusting
// the manipulation outputs before writing them to a real destination.
package writer
