// Package pipeline wires runner lifecycle callbacks into the aggregation
// and export components. Every pipeline error is absorbed here: metrics
// delivery must never alter the exit status of the test run it observes.
package pipeline

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/suitepulse/suitepulse/internal/aggregator"
	"github.com/suitepulse/suitepulse/internal/encoder"
	"github.com/suitepulse/suitepulse/internal/event"
	"github.com/suitepulse/suitepulse/internal/exporter"
)

// Config contains the pipeline's injected collaborators. Run state lives
// in the aggregator instance owned here, scoped to one suite execution;
// there is no package-level state.
type Config struct {
	Logger     logrus.FieldLogger
	Aggregator aggregator.Aggregator
	Encoder    *encoder.Encoder
	Exporter   exporter.Exporter
}

// Pipeline bridges the runner's lifecycle hooks to the metric pipeline.
type Pipeline struct {
	log   logrus.FieldLogger
	agg   aggregator.Aggregator
	enc   *encoder.Encoder
	exp   exporter.Exporter
	runID string
}

// New creates a pipeline.
func New(cfg *Config) *Pipeline {
	return &Pipeline{
		log: cfg.Logger.WithField("component", "pipeline"),
		agg: cfg.Aggregator,
		enc: cfg.Encoder,
		exp: cfg.Exporter,
	}
}

// Start initializes the pipeline components.
func (p *Pipeline) Start(ctx context.Context) error {
	if err := p.agg.Start(ctx); err != nil {
		return fmt.Errorf("starting aggregator: %w", err)
	}

	if err := p.exp.Start(ctx); err != nil {
		return fmt.Errorf("starting exporter: %w", err)
	}

	p.log.Debug("pipeline started")

	return nil
}

// Stop tears down components in reverse order of start.
func (p *Pipeline) Stop() error {
	var errs []error

	if err := p.exp.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("stopping exporter: %w", err))
	}

	if err := p.agg.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("stopping aggregator: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors stopping pipeline: %v", errs) //nolint:err113 // Include error list for debugging
	}

	return nil
}

// OnRunStarted opens a run. With a non-empty id the externally-assigned
// run id (e.g. from the test-management backend) is used, otherwise one is
// generated. Returns the active run id; a failure leaves the pipeline
// inert but harmless.
func (p *Pipeline) OnRunStarted(runID string) string {
	var err error

	if runID == "" {
		runID, err = p.agg.StartRun()
	} else {
		err = p.agg.StartRunWithID(runID)
	}

	if err != nil {
		p.log.WithError(err).Error("failed to start run, metrics for this run will be lost")
		return ""
	}

	p.runID = runID

	return runID
}

// OnTestFinished records one terminal outcome. Aggregator misuse is an
// orchestration bug, logged and suppressed.
func (p *Pipeline) OnTestFinished(outcome event.TestOutcome) {
	if err := p.agg.Record(p.runID, outcome); err != nil {
		p.log.WithError(err).WithField("test", outcome.Name).Error("failed to record outcome")
	}
}

// OnRunFinished seals the run, encodes its summary and delivers the
// samples, draining the exporter synchronously. Samples for the run are
// only submitted after FinishRun returns, so partial-run metrics cannot
// reach the backend. All failures are logged, none propagate.
func (p *Pipeline) OnRunFinished(ctx context.Context) (*aggregator.RunSummary, *exporter.FlushReport) {
	summary, err := p.agg.FinishRun(p.runID)
	if err != nil {
		p.log.WithError(err).Error("failed to finish run")
		return nil, nil
	}

	samples := p.enc.Encode(summary)
	p.exp.Submit(samples)

	report, err := p.exp.Flush(ctx)
	if err != nil {
		p.log.WithError(err).Warn("final flush incomplete")
	}

	if report != nil && report.FailedCount+report.DroppedCount > 0 {
		p.log.WithFields(logrus.Fields{
			"failed":  report.FailedCount,
			"dropped": report.DroppedCount,
		}).Warn("some samples were not delivered")
	}

	return summary, report
}
