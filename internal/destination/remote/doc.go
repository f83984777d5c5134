// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package remote implements a loader sending records to an HTTP endpoint as a
// JSON array. Connection settings come from the pipeline definition and can be
// overridden by ETL_REMOTE_* environment variables, so secrets never have to be
// stored in the definition files.
package remote
