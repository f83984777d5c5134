// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package pipeline provides the core building block to run a data processing job.
// A pipeline is composed of an extractor, a manipulation and a loader, executed
// one after the other on every run.
package pipeline
