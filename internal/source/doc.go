// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package source defines the Extractor contract implemented by every etl data
// source, together with the helpers shared by file based sources.
// Concrete sources live in the sub packages and report failures with the
// etlerr taxonomy: SourceUnavailable when the source cannot be reached and
// Format when its content cannot be turned into records.
package source
