package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/suitepulse/suitepulse/internal/config"
	"github.com/suitepulse/suitepulse/internal/event"
	"github.com/suitepulse/suitepulse/internal/spool"
)

var (
	mergeCleanup bool
	mergeDryRun  bool
	mergeYes     bool
)

var mergeCmd = &cobra.Command{
	Use:   "merge [dir]",
	Short: "Merge worker spool files and push the combined run metrics",
	Long: `Load the per-worker spool files written by sharded runner workers
(suitepulse_worker_*.json), merge them into one run and push the combined
metrics. Repeated outcomes for the same case collapse to one terminal
outcome per case, preferring a recorded pass.

Examples:
  suitepulse merge
  suitepulse merge /tmp/results --cleanup`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		dir := cfg.SpoolDir
		if len(args) == 1 {
			dir = args[0]
		}

		outcomes, err := spool.Merge(context.Background(), Logger, dir, mergeCleanup)
		if err != nil {
			return fmt.Errorf("merging spool files: %w", err)
		}

		return runPipeline(cfg, outcomes, mergeDryRun, mergeYes)
	},
}

var spoolCmd = &cobra.Command{
	Use:   "spool [events-file]",
	Short: "Save a worker's event stream as a spool file",
	Long: `Read test outcome events (JSON lines) from a file or stdin and save
them as a spool file for a later merge. Each runner worker saves under its
own worker id; the coordinating process merges and pushes once.

Examples:
  suitepulse spool --worker gw0 results-gw0.jsonl
  pytest --suitepulse | suitepulse spool --worker gw1 -`,
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

		writer := spool.NewWriter(Logger, cfg.SpoolDir)
		if err := writer.Save(spoolWorkerID, outcomes); err != nil {
			return fmt.Errorf("saving spool file: %w", err)
		}

		return nil
	},
}

var spoolWorkerID string

func init() {
	mergeCmd.Flags().BoolVar(&mergeCleanup, "cleanup", false, "Remove spool files after a successful merge")
	mergeCmd.Flags().BoolVar(&mergeDryRun, "dry-run", false, "Print the wire payload instead of sending it")
	mergeCmd.Flags().BoolVarP(&mergeYes, "yes", "y", false, "Skip the confirmation prompt")
	rootCmd.AddCommand(mergeCmd)

	spoolCmd.Flags().StringVar(&spoolWorkerID, "worker", "", "Worker id for the spool file (required)")
	_ = spoolCmd.MarkFlagRequired("worker")
	rootCmd.AddCommand(spoolCmd)
}
