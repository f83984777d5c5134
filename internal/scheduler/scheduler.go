// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package scheduler keeps a set of named pipelines and runs them on demand, on
// cron schedules and when one of their watched files changes.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"

	"github.com/mia-platform/etl/internal/etlerr"
	"github.com/mia-platform/etl/internal/logger"
	"github.com/mia-platform/etl/internal/pipeline"
)

const (
	loggerName = "etl:scheduler"

	// DefaultDebounce is how long a watched file must stay quiet before its
	// pipeline runs.
	DefaultDebounce = 500 * time.Millisecond
)

var (
	ErrUnknownPipeline   = errors.New("unknown pipeline")
	ErrDuplicatePipeline = errors.New("pipeline already added")
	ErrStarted           = errors.New("scheduler already started")
	ErrStopped           = errors.New("scheduler stopped")
)

type entry struct {
	pipeline *pipeline.Pipeline
	schedule string
	watch    []string
	running  atomic.Bool
}

// Option customizes a Scheduler.
type Option func(*Scheduler)

// WithDebounce sets the quiet period of the file triggers.
func WithDebounce(debounce time.Duration) Option {
	return func(s *Scheduler) {
		s.debounce = debounce
	}
}

// Scheduler runs its pipelines in background goroutines. A pipeline already
// running is never started twice, whatever the trigger.
type Scheduler struct {
	debounce time.Duration

	lock    sync.Mutex
	entries map[string]*entry
	ctx     context.Context
	started bool
	stopped bool

	cron    *cron.Cron
	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
	timers  map[string]*time.Timer

	runs  sync.WaitGroup
	loops sync.WaitGroup
}

// New returns an empty Scheduler.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		debounce: DefaultDebounce,
		entries:  make(map[string]*entry),
		ctx:      context.Background(),
		timers:   make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add registers p. schedule is a standard cron expression or descriptor, empty
// for no schedule. watch lists files whose changes trigger a run.
func (s *Scheduler) Add(p *pipeline.Pipeline, schedule string, watch []string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.started {
		return ErrStarted
	}
	if _, found := s.entries[p.Name()]; found {
		return fmt.Errorf("%w: %s", ErrDuplicatePipeline, p.Name())
	}
	if schedule != "" {
		if _, err := cron.ParseStandard(schedule); err != nil {
			return etlerr.InvalidConfiguration("pipeline %s: schedule: %s", p.Name(), err)
		}
	}

	absolute := make([]string, 0, len(watch))
	for _, path := range watch {
		abs, err := filepath.Abs(path)
		if err != nil {
			return etlerr.InvalidConfiguration("pipeline %s: watch %s: %s", p.Name(), path, err)
		}
		absolute = append(absolute, abs)
	}

	s.entries[p.Name()] = &entry{pipeline: p, schedule: schedule, watch: absolute}
	return nil
}

// Pipelines returns the registered pipelines sorted by name.
func (s *Scheduler) Pipelines() []*pipeline.Pipeline {
	s.lock.Lock()
	defer s.lock.Unlock()

	pipelines := make([]*pipeline.Pipeline, 0, len(s.entries))
	for _, name := range slices.Sorted(maps.Keys(s.entries)) {
		pipelines = append(pipelines, s.entries[name].pipeline)
	}
	return pipelines
}

// Pipeline returns the pipeline registered as name.
func (s *Scheduler) Pipeline(name string) (*pipeline.Pipeline, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()

	e, found := s.entries[name]
	if !found {
		return nil, false
	}
	return e.pipeline, true
}

// Trigger starts a run of the named pipeline in background and returns
// immediately. It fails with pipeline.ErrAlreadyRunning when a run of the same
// pipeline is in progress.
func (s *Scheduler) Trigger(name string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.stopped {
		return ErrStopped
	}
	e, found := s.entries[name]
	if !found {
		return fmt.Errorf("%w: %s", ErrUnknownPipeline, name)
	}
	if !e.running.CompareAndSwap(false, true) {
		return fmt.Errorf("%w: %s", pipeline.ErrAlreadyRunning, name)
	}

	ctx := s.ctx
	s.runs.Add(1)
	go func() {
		defer s.runs.Done()
		defer e.running.Store(false)

		// the outcome is logged and recorded by the pipeline itself
		_ = e.pipeline.Run(ctx)
	}()
	return nil
}

// Start activates the schedules and file triggers. Runs started from now on use
// ctx, and its logger.
func (s *Scheduler) Start(ctx context.Context) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.started {
		return ErrStarted
	}
	if s.stopped {
		return ErrStopped
	}

	log := logger.FromContext(ctx).WithName(loggerName)
	s.ctx = ctx

	c := cron.New(cron.WithLogger(cronLogger{log: log}))
	for _, name := range slices.Sorted(maps.Keys(s.entries)) {
		e := s.entries[name]
		if e.schedule == "" {
			continue
		}
		if _, err := c.AddFunc(e.schedule, s.trigger(log, name, "schedule")); err != nil {
			return etlerr.InvalidConfiguration("pipeline %s: schedule: %s", name, err)
		}
		log.Debug("pipeline scheduled", "pipeline", name, "schedule", e.schedule)
	}

	watched := s.watchedFiles()
	if len(watched) > 0 {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return err
		}
		for _, dir := range watchedDirs(watched) {
			if err := watcher.Add(dir); err != nil {
				watcher.Close()
				return fmt.Errorf("watching %s: %w", dir, err)
			}
		}

		watchCtx, cancel := context.WithCancel(ctx)
		s.watcher = watcher
		s.cancel = cancel
		s.loops.Add(1)
		go s.watch(watchCtx, log, watched)
		log.Debug("watching files", "files", len(watched))
	}

	c.Start()
	s.cron = c
	s.started = true
	return nil
}

// Stop deactivates every trigger and waits for the runs in progress. The
// runs are not canceled: cancel the context given to Start for that.
func (s *Scheduler) Stop() {
	s.lock.Lock()
	if s.stopped {
		s.lock.Unlock()
		return
	}
	s.stopped = true

	if s.cancel != nil {
		s.cancel()
	}
	for _, timer := range s.timers {
		timer.Stop()
	}
	c := s.cron
	watcher := s.watcher
	s.lock.Unlock()

	s.loops.Wait()
	if watcher != nil {
		watcher.Close()
	}
	if c != nil {
		<-c.Stop().Done()
	}
	s.runs.Wait()
}

func (s *Scheduler) trigger(log logger.Logger, name, reason string) func() {
	return func() {
		log.Debug("triggering pipeline", "pipeline", name, "trigger", reason)
		switch err := s.Trigger(name); {
		case errors.Is(err, pipeline.ErrAlreadyRunning):
			log.Warn("pipeline still running, trigger skipped", "pipeline", name, "trigger", reason)
		case err != nil:
			log.Debug("trigger ignored", "pipeline", name, "trigger", reason, "error", err.Error())
		}
	}
}

// watchedFiles maps every watched file to the pipelines depending on it.
func (s *Scheduler) watchedFiles() map[string][]string {
	watched := make(map[string][]string)
	for _, name := range slices.Sorted(maps.Keys(s.entries)) {
		for _, path := range s.entries[name].watch {
			watched[path] = append(watched[path], name)
		}
	}
	return watched
}

func watchedDirs(watched map[string][]string) []string {
	dirs := make([]string, 0, len(watched))
	for path := range watched {
		dirs = append(dirs, filepath.Dir(path))
	}
	slices.Sort(dirs)
	return slices.Compact(dirs)
}

func (s *Scheduler) watch(ctx context.Context, log logger.Logger, watched map[string][]string) {
	defer s.loops.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			path, err := filepath.Abs(event.Name)
			if err != nil {
				continue
			}
			for _, name := range watched[path] {
				s.debounced(name, s.trigger(log, name, "watch"))
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			log.Warn("file watcher error", "error", err.Error())
		}
	}
}

// debounced restarts the quiet period of name, running fn when it expires.
func (s *Scheduler) debounced(name string, fn func()) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.stopped {
		return
	}
	if timer, found := s.timers[name]; found {
		timer.Stop()
	}
	s.timers[name] = time.AfterFunc(s.debounce, fn)
}
