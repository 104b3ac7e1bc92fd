package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/suitepulse/suitepulse/internal/aggregator"
	"github.com/suitepulse/suitepulse/internal/config"
	"github.com/suitepulse/suitepulse/internal/encoder"
	"github.com/suitepulse/suitepulse/internal/event"
	"github.com/suitepulse/suitepulse/internal/exporter"
	"github.com/suitepulse/suitepulse/internal/output"
	"github.com/suitepulse/suitepulse/internal/pipeline"
	"github.com/suitepulse/suitepulse/pkg/interactive"
)

var (
	pushDryRun bool
	pushYes    bool
)

var pushCmd = &cobra.Command{
	Use:   "push [events-file]",
	Short: "Aggregate a test-run event stream and push its metrics",
	Long: `Read test outcome events (JSON lines, one event per line) from a file
or stdin, aggregate them into run-level statistics and push the resulting
samples to the configured metrics backend.

Event format:
  {"case_id":"TC-42","name":"test_login","status":"passed","duration_ms":120}

Statuses: passed, failed, skipped, broken. Failed and broken events may
carry an "error_summary".

Delivery failures never change the exit code: the metrics pipeline must
not fail the test run that produced the events. Use --dry-run to print
the wire payload instead of sending it.

Examples:
  suitepulse push results.jsonl
  pytest --suitepulse | suitepulse push -
  suitepulse push --dry-run results.jsonl`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		var reader io.Reader = os.Stdin

		if len(args) == 1 && args[0] != "-" {
			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening events file: %w", err)
			}
			defer func() { _ = file.Close() }()

			reader = file
		}

		outcomes, err := event.ReadAll(reader)
		if err != nil {
			return fmt.Errorf("reading events: %w", err)
		}

		cfg, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		return runPipeline(cfg, outcomes, pushDryRun, pushYes)
	},
}

// runPipeline drives the full aggregate-encode-export path for a set of
// outcomes. Shared by push and merge.
func runPipeline(cfg *config.Config, outcomes []event.TestOutcome, dryRun, yes bool) error {
	if len(outcomes) == 0 {
		Logger.Info("no test outcomes to report")
		return nil
	}

	// Sharded and retrying runners can emit the same case several times;
	// collapse to one terminal outcome per case before aggregation.
	outcomes = event.CollapseRetries(outcomes)

	formatter := output.NewFormatter(os.Stdout)

	enc := encoder.New(encoder.Config{
		StaticLabels:   cfg.StaticLabels(),
		PerCaseSamples: cfg.PerCaseSamples,
	})

	if dryRun || !cfg.PushEnabled {
		return printPayload(cfg, enc, formatter, outcomes)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if !yes && !interactive.Confirm(fmt.Sprintf("Push metrics for %d outcomes to %s?", len(outcomes), cfg.VictoriaURL)) {
		Logger.Info("push cancelled")
		return nil
	}

	pipe := pipeline.New(&pipeline.Config{
		Logger:     Logger,
		Aggregator: aggregator.New(Logger),
		Encoder:    enc,
		Exporter: exporter.New(Logger, exporter.Config{
			URL:           cfg.VictoriaURL,
			AuthToken:     cfg.AuthToken,
			BatchSize:     cfg.BatchSize,
			BatchInterval: cfg.BatchInterval,
			MaxAttempts:   cfg.MaxAttempts,
			BackoffBase:   cfg.BackoffBase,
			BackoffMax:    cfg.BackoffMax,
			FlushTimeout:  cfg.FlushTimeout,
		}),
	})

	ctx := context.Background()
	if err := pipe.Start(ctx); err != nil {
		return fmt.Errorf("starting pipeline: %w", err)
	}
	defer func() {
		if err := pipe.Stop(); err != nil {
			Logger.WithError(err).Warn("failed to stop pipeline")
		}
	}()

	pipe.OnRunStarted(cfg.RunID)

	for _, outcome := range outcomes {
		pipe.OnTestFinished(outcome)
	}

	summary, report := pipe.OnRunFinished(ctx)
	if summary != nil {
		formatter.PrintRunSummary(summary)
	}
	if report != nil {
		formatter.PrintFlushReport(report)
	}

	// A failed or partial delivery is reported above but is never an
	// error exit: the test run's own status stays untouched.
	return nil
}

// printPayload aggregates and encodes without any network delivery.
func printPayload(cfg *config.Config, enc *encoder.Encoder, formatter *output.Formatter, outcomes []event.TestOutcome) error {
	agg := aggregator.New(Logger)

	runID := cfg.RunID

	var err error
	if runID == "" {
		runID, err = agg.StartRun()
	} else {
		err = agg.StartRunWithID(runID)
	}
	if err != nil {
		return fmt.Errorf("starting run: %w", err)
	}

	for _, outcome := range outcomes {
		if err := agg.Record(runID, outcome); err != nil {
			Logger.WithError(err).WithField("test", outcome.Name).Warn("skipping outcome")
		}
	}

	summary, err := agg.FinishRun(runID)
	if err != nil {
		return fmt.Errorf("finishing run: %w", err)
	}

	formatter.PrintRunSummary(summary)
	formatter.PrintPayload(encoder.MarshalText(enc.Encode(summary)))

	return nil
}

func init() {
	pushCmd.Flags().BoolVar(&pushDryRun, "dry-run", false, "Print the wire payload instead of sending it")
	pushCmd.Flags().BoolVarP(&pushYes, "yes", "y", false, "Skip the confirmation prompt")
	rootCmd.AddCommand(pushCmd)
}
