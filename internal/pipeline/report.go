// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package pipeline

import (
	"time"
)

// State is the lifecycle position of a pipeline.
type State string

const (
	Ready     State = "ready"
	Running   State = "running"
	Completed State = "completed"
	Failed    State = "failed"
)

// Stage names a step of a run.
type Stage string

const (
	StageExtract    Stage = "extract"
	StageManipulate Stage = "manipulate"
	StageLoad       Stage = "load"
)

// Report describes a single run of a pipeline.
type Report struct {
	ID         string    `json:"id"`
	Pipeline   string    `json:"pipeline"`
	State      State     `json:"state"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt,omitzero"`
	// FailedStage is empty unless State is Failed.
	FailedStage Stage  `json:"failedStage,omitempty"`
	Error       string `json:"error,omitempty"`

	Extracted   int `json:"extracted"`
	Manipulated int `json:"manipulated"`
	Loaded      int `json:"loaded"`

	err error
}

// Err returns the error that made the run fail, nil otherwise.
func (r Report) Err() error {
	return r.err
}

// Duration returns how long the run took, or has been taking if still running.
func (r Report) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return time.Since(r.StartedAt)
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
