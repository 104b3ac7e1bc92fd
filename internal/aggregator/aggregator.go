// Package aggregator accumulates test outcomes into per-run summaries.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/suitepulse/suitepulse/internal/event"
)

var (
	// ErrDuplicateRun is returned when a run id is started while already open.
	ErrDuplicateRun = errors.New("run already open")
	// ErrUnknownRun is returned when a run id does not match an open run.
	ErrUnknownRun = errors.New("no open run with this id")
)

// RunSummary is the finalized aggregate of one suite run. It is sealed by
// FinishRun and never mutated afterwards.
type RunSummary struct {
	RunID           string
	StartedAt       time.Time
	FinishedAt      time.Time
	Counts          map[event.Status]int
	TotalDurationMS int64
	Outcomes        []event.TestOutcome
}

// Aggregator collects per-test outcomes keyed by run and produces a sealed
// RunSummary when the run finishes.
type Aggregator interface {
	Start(ctx context.Context) error
	Stop() error
	StartRun() (string, error)
	StartRunWithID(runID string) error
	Record(runID string, outcome event.TestOutcome) error
	FinishRun(runID string) (*RunSummary, error)
	OpenRuns() []string
}

// openRun is the mutable accumulator for one in-flight run. Each run has
// its own lock so concurrent records against different runs never contend.
type openRun struct {
	mu              sync.Mutex
	startedAt       time.Time
	counts          map[event.Status]int
	totalDurationMS int64
	outcomes        []event.TestOutcome
}

type aggregator struct {
	log  logrus.FieldLogger
	mu   sync.RWMutex
	open map[string]*openRun
}

// New creates a new run aggregator.
func New(log logrus.FieldLogger) Aggregator {
	return &aggregator{
		log:  log.WithField("component", "run_aggregator"),
		open: make(map[string]*openRun),
	}
}

func (a *aggregator) Start(_ context.Context) error {
	a.log.Debug("run aggregator started")

	return nil
}

// Stop tears down the aggregator. Any run still open at teardown is an
// orchestration inconsistency: it is reported, not raised.
func (a *aggregator) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	for runID := range a.open {
		a.log.WithField("run_id", runID).Warn("run still open at aggregator teardown")
	}

	a.open = make(map[string]*openRun)
	a.log.Debug("run aggregator stopped")

	return nil
}

// StartRun opens a fresh accumulator under a generated run id.
func (a *aggregator) StartRun() (string, error) {
	runID := uuid.NewString()
	if err := a.StartRunWithID(runID); err != nil {
		return "", err
	}

	return runID, nil
}

// StartRunWithID opens a fresh accumulator under an externally-assigned id
// (e.g. a test-management run id).
func (a *aggregator) StartRunWithID(runID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.open[runID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateRun, runID)
	}

	a.open[runID] = &openRun{
		startedAt: time.Now(),
		counts:    make(map[event.Status]int, 4),
		outcomes:  make([]event.TestOutcome, 0, 64),
	}

	a.log.WithField("run_id", runID).Debug("run started")

	return nil
}

// Record appends an outcome to the open run and updates its counts and
// total duration in O(1).
func (a *aggregator) Record(runID string, outcome event.TestOutcome) error {
	if err := outcome.Validate(); err != nil {
		return fmt.Errorf("invalid outcome: %w", err)
	}

	a.mu.RLock()
	run, exists := a.open[runID]
	a.mu.RUnlock()

	if !exists {
		return fmt.Errorf("%w: %s", ErrUnknownRun, runID)
	}

	run.mu.Lock()
	defer run.mu.Unlock()

	run.counts[outcome.Status]++
	run.totalDurationMS += outcome.DurationMS
	run.outcomes = append(run.outcomes, outcome)

	return nil
}

// FinishRun seals the accumulator and returns the immutable summary. The
// run is removed from open state, so a second call yields ErrUnknownRun
// rather than a stale summary.
func (a *aggregator) FinishRun(runID string) (*RunSummary, error) {
	a.mu.Lock()
	run, exists := a.open[runID]
	if exists {
		delete(a.open, runID)
	}
	a.mu.Unlock()

	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRun, runID)
	}

	run.mu.Lock()
	defer run.mu.Unlock()

	counts := make(map[event.Status]int, len(run.counts))
	for status, count := range run.counts {
		counts[status] = count
	}

	outcomes := make([]event.TestOutcome, len(run.outcomes))
	copy(outcomes, run.outcomes)

	summary := &RunSummary{
		RunID:           runID,
		StartedAt:       run.startedAt,
		FinishedAt:      time.Now(),
		Counts:          counts,
		TotalDurationMS: run.totalDurationMS,
		Outcomes:        outcomes,
	}

	a.log.WithFields(logrus.Fields{
		"run_id":   runID,
		"outcomes": len(outcomes),
		"duration": time.Duration(summary.TotalDurationMS) * time.Millisecond,
	}).Debug("run finished")

	return summary, nil
}

// OpenRuns returns the ids of all runs that have not been finished yet.
func (a *aggregator) OpenRuns() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	runIDs := make([]string, 0, len(a.open))
	for runID := range a.open {
		runIDs = append(runIDs, runID)
	}

	return runIDs
}

// Compile-time interface compliance check
var _ Aggregator = (*aggregator)(nil)
