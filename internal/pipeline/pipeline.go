// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mia-platform/etl/internal/destination"
	"github.com/mia-platform/etl/internal/etlerr"
	"github.com/mia-platform/etl/internal/logger"
	"github.com/mia-platform/etl/internal/manipulation"
	"github.com/mia-platform/etl/internal/record"
	"github.com/mia-platform/etl/internal/source"
)

const (
	loggerName = "etl:pipeline"
)

// Pipeline runs extract, manipulate and load in sequence. Its components are
// fixed at construction; only the run state changes over time.
type Pipeline struct {
	name         string
	extractor    source.Extractor
	manipulation manipulation.Manipulation
	loader       destination.Loader

	lock    sync.Mutex
	state   State
	lastRun *Report
}

// New returns a Ready pipeline. The extractor, manipulation and loader are all
// required; use manipulation.Identity to move records unchanged.
func New(name string, extractor source.Extractor, m manipulation.Manipulation, loader destination.Loader) (*Pipeline, error) {
	switch {
	case extractor == nil:
		return nil, etlerr.InvalidConfiguration("pipeline %q requires an extractor", name)
	case m == nil:
		return nil, etlerr.InvalidConfiguration("pipeline %q requires a manipulation", name)
	case loader == nil:
		return nil, etlerr.InvalidConfiguration("pipeline %q requires a loader", name)
	}

	return &Pipeline{
		name:         name,
		extractor:    extractor,
		manipulation: m,
		loader:       loader,
		state:        Ready,
	}, nil
}

// Name returns the pipeline name.
func (p *Pipeline) Name() string {
	return p.name
}

// State returns the current state.
func (p *Pipeline) State() State {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.state
}

// LastRun returns the report of the latest run, including a run in progress.
// The boolean is false when the pipeline never ran.
func (p *Pipeline) LastRun() (Report, bool) {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.lastRun == nil {
		return Report{}, false
	}
	return *p.lastRun, true
}

// Run executes the pipeline once. Any stage error is returned unchanged and
// leaves the pipeline Failed, a stage panic is returned as ErrStagePanicked.
// Runs are independent, nothing is kept between them.
func (p *Pipeline) Run(ctx context.Context) error {
	report, err := p.start()
	if err != nil {
		return err
	}

	log := logger.FromContext(ctx).WithName(loggerName).With("pipeline", p.name, "runId", report.ID)
	ctx = logger.WithContext(ctx, log)

	log.Info("pipeline started")
	stage, err := p.execute(ctx, log, &report)

	report.FinishedAt = time.Now()
	if err != nil {
		report.State = Failed
		report.FailedStage = stage
		report.Error = err.Error()
		report.err = err
		log.Error("pipeline failed", "stage", stage, "error", err, "duration", report.Duration().String())
	} else {
		report.State = Completed
		log.Info("pipeline completed", "records", report.Loaded, "duration", report.Duration().String())
	}

	p.finish(report)
	return err
}

// start moves the pipeline to Running and registers a new report.
func (p *Pipeline) start() (Report, error) {
	p.lock.Lock()
	defer p.lock.Unlock()

	if p.state == Running {
		return Report{}, ErrAlreadyRunning
	}

	report := Report{
		ID:        uuid.NewString(),
		Pipeline:  p.name,
		State:     Running,
		StartedAt: time.Now(),
	}
	p.state = Running
	p.lastRun = &report
	return report, nil
}

func (p *Pipeline) finish(report Report) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.state = report.State
	p.lastRun = &report
}

// execute runs the stages in order. A panic in a stage is recovered and
// reported as an error of that stage, so the run always reaches a final state.
func (p *Pipeline) execute(ctx context.Context, log logger.Logger, report *Report) (stage Stage, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("%w: %s: %v", ErrStagePanicked, stage, recovered)
		}
	}()

	stage = StageExtract
	log.Debug("stage started", "stage", stage)
	records, err := p.extractor.Extract(ctx)
	if err != nil {
		return stage, err
	}
	report.Extracted = len(records)
	log.Debug("stage completed", "stage", stage, "records", len(records))

	stage = StageManipulate
	log.Debug("stage started", "stage", stage)
	records, err = p.manipulation.Apply(ctx, records)
	if err != nil {
		return stage, err
	}
	if records == nil {
		records = record.Sequence{}
	}
	report.Manipulated = len(records)
	log.Debug("stage completed", "stage", stage, "records", len(records))

	stage = StageLoad
	log.Debug("stage started", "stage", stage)
	if err := p.loader.Load(ctx, records); err != nil {
		return stage, err
	}
	report.Loaded = len(records)
	log.Debug("stage completed", "stage", stage, "records", len(records))

	return "", nil
}
