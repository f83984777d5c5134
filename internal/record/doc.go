// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package record defines the shared data representation flowing through a pipeline.
// A Record is an ordered mapping from field names to values, and a Sequence is an
// ordered collection of records produced by an extractor and consumed by a loader.
package record
