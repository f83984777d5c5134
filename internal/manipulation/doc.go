// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package manipulation contains the record level transformations applied by a
// pipeline between extraction and loading.
// Every manipulation maps a record.Sequence into another record.Sequence, so
// filters, transforms and chains of them can be freely composed.
package manipulation
