// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package destination defines the Loader contract implemented by every etl data
// destination and the write modes shared by file and database loaders.
// Concrete loaders live in the sub packages and report failures with the
// etlerr taxonomy.
package destination
