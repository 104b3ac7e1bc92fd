// Package spool persists per-worker outcome shards as JSON files so that
// sharded runners (one process per worker) can hand their results to a
// single coordinating push.
package spool

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/suitepulse/suitepulse/internal/event"
)

const (
	filePrefix = "suitepulse_worker_"
	fileSuffix = ".json"

	// mergeConcurrency bounds parallel file reads during a merge.
	mergeConcurrency = 8
)

// Filename returns the spool file name for a worker id.
func Filename(workerID string) string {
	return filePrefix + workerID + fileSuffix
}

// Writer saves one worker's outcomes into a spool directory.
type Writer struct {
	log logrus.FieldLogger
	dir string
}

// NewWriter creates a spool writer rooted at dir.
func NewWriter(log logrus.FieldLogger, dir string) *Writer {
	return &Writer{
		log: log.WithField("component", "spool_writer"),
		dir: dir,
	}
}

// Save writes the worker's outcomes. Empty result sets produce no file.
func (w *Writer) Save(workerID string, outcomes []event.TestOutcome) error {
	if len(outcomes) == 0 {
		return nil
	}

	data, err := json.Marshal(outcomes)
	if err != nil {
		return fmt.Errorf("encoding outcomes: %w", err)
	}

	path := filepath.Join(w.dir, Filename(workerID))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing spool file: %w", err)
	}

	w.log.WithFields(logrus.Fields{
		"worker":   workerID,
		"outcomes": len(outcomes),
		"path":     path,
	}).Debug("saved worker outcomes")

	return nil
}

// Merge loads every worker spool file under dir and returns the combined
// outcomes. Files load concurrently but merge in filename order so the
// result is deterministic. With cleanup set, consumed files are removed.
func Merge(ctx context.Context, log logrus.FieldLogger, dir string, cleanup bool) ([]event.TestOutcome, error) {
	pattern := filepath.Join(dir, filePrefix+"*"+fileSuffix)

	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("globbing spool files: %w", err)
	}
	sort.Strings(paths)

	perFile := make([][]event.TestOutcome, len(paths))

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(mergeConcurrency)

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading %s: %w", path, err)
			}

			var outcomes []event.TestOutcome
			if err := json.Unmarshal(data, &outcomes); err != nil {
				return fmt.Errorf("decoding %s: %w", path, err)
			}

			// No mutex needed - each goroutine writes to a unique index
			perFile[i] = outcomes

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := make([]event.TestOutcome, 0, 64)
	for _, outcomes := range perFile {
		merged = append(merged, outcomes...)
	}

	if cleanup {
		for _, path := range paths {
			if err := os.Remove(path); err != nil {
				log.WithError(err).WithField("path", path).Warn("failed to remove spool file")
			}
		}
	}

	log.WithFields(logrus.Fields{
		"files":    len(paths),
		"outcomes": len(merged),
	}).Debug("merged worker spool files")

	return merged, nil
}
