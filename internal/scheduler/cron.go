// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package scheduler

import (
	"github.com/robfig/cron/v3"

	"github.com/mia-platform/etl/internal/logger"
)

var _ cron.Logger = cronLogger{}

// cronLogger sends the cron library logs to a Logger. Its informational
// messages are very chatty and are emitted at TRACE level.
type cronLogger struct {
	log logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Trace(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(msg, append(keysAndValues, "error", err.Error())...)
}
