// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package server exposes the pipelines of a running etl instance over HTTP.
// It sets up a Fiber application with the request logging middleware, the
// status routes under /-/ and the routes to inspect and trigger pipelines.
package server
