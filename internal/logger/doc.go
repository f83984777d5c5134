// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package logger wraps hclog behind the Logger interface used by every etl package.
// Loggers travel inside a context.Context, pipelines and connectors retrieve them
// with FromContext and name them after the component emitting the messages.
package logger
