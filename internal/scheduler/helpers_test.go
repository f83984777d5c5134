// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package scheduler

import (
	"io"
	"sync"
)

// lockedWriter serializes the writes of concurrent goroutines.
type lockedWriter struct {
	lock   sync.Mutex
	writer io.Writer
}

func (w *lockedWriter) Write(p []byte) (int, error) {
	w.lock.Lock()
	defer w.lock.Unlock()
	return w.writer.Write(p)
}
