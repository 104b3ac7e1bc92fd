// Package encoder converts finalized run summaries into timestamped,
// labeled metric samples and renders them in the backend's text format.
package encoder

import (
	"sort"

	"github.com/suitepulse/suitepulse/internal/aggregator"
	"github.com/suitepulse/suitepulse/internal/event"
)

// Metric names published by the pipeline.
const (
	// MetricTestCount counts outcomes per status for one run.
	MetricTestCount = "test_count"
	// MetricTestDurationMS is the summed wall time of all tests in one run.
	MetricTestDurationMS = "test_duration_ms"
	// MetricTestFailure marks each failed or broken case for drill-down.
	MetricTestFailure = "test_failure"
	// MetricCaseDurationMS is the per-case duration series (optional).
	MetricCaseDurationMS = "test_case_duration_ms"
	// MetricCaseStatus is the per-case pass/fail series (optional).
	MetricCaseStatus = "test_case_status"
)

// Sample is one timestamped, labeled numeric data point.
type Sample struct {
	Name        string
	Labels      map[string]string
	Value       float64
	TimestampMS int64
}

// Config controls sample generation.
type Config struct {
	// StaticLabels are merged into every emitted sample (e.g. project,
	// platform). Per-sample labels win on key collision.
	StaticLabels map[string]string
	// PerCaseSamples additionally emits one duration and one status sample
	// per outcome.
	PerCaseSamples bool
}

// Encoder derives metric samples from run summaries. Encoding is a pure
// function of the summary: no I/O, identical input yields byte-identical
// serialized output.
type Encoder struct {
	staticLabels map[string]string
	perCase      bool
}

// New creates an encoder.
func New(cfg Config) *Encoder {
	staticLabels := make(map[string]string, len(cfg.StaticLabels))
	for key, value := range cfg.StaticLabels {
		staticLabels[key] = SanitizeLabelValue(value)
	}

	return &Encoder{
		staticLabels: staticLabels,
		perCase:      cfg.PerCaseSamples,
	}
}

// Encode produces the sample sequence for a finished run: one test_count
// per present status (status-sorted for determinism), one test_duration_ms,
// and one test_failure per outcome carrying an error summary. With
// PerCaseSamples enabled it also emits the per-case series in completion
// order.
func (e *Encoder) Encode(summary *aggregator.RunSummary) []Sample {
	timestampMS := summary.FinishedAt.UnixMilli()
	runID := SanitizeLabelValue(summary.RunID)

	samples := make([]Sample, 0, len(summary.Counts)+1+len(summary.Outcomes))

	statuses := make([]event.Status, 0, len(summary.Counts))
	for status := range summary.Counts {
		statuses = append(statuses, status)
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i] < statuses[j] })

	for _, status := range statuses {
		samples = append(samples, Sample{
			Name: MetricTestCount,
			Labels: e.labels(map[string]string{
				"run_id": runID,
				"status": SanitizeLabelValue(string(status)),
			}),
			Value:       float64(summary.Counts[status]),
			TimestampMS: timestampMS,
		})
	}

	samples = append(samples, Sample{
		Name:        MetricTestDurationMS,
		Labels:      e.labels(map[string]string{"run_id": runID}),
		Value:       float64(summary.TotalDurationMS),
		TimestampMS: timestampMS,
	})

	for _, outcome := range summary.Outcomes {
		if outcome.ErrorSummary == "" {
			continue
		}

		samples = append(samples, Sample{
			Name: MetricTestFailure,
			Labels: e.labels(map[string]string{
				"run_id":  runID,
				"case_id": SanitizeLabelValue(outcome.CaseID),
				"name":    SanitizeLabelValue(outcome.Name),
			}),
			Value:       1,
			TimestampMS: timestampMS,
		})
	}

	if e.perCase {
		samples = append(samples, e.encodePerCase(summary, runID, timestampMS)...)
	}

	return samples
}

// encodePerCase emits the per-case duration and status series in outcome
// completion order.
func (e *Encoder) encodePerCase(summary *aggregator.RunSummary, runID string, timestampMS int64) []Sample {
	samples := make([]Sample, 0, 2*len(summary.Outcomes))

	for _, outcome := range summary.Outcomes {
		labels := e.labels(map[string]string{
			"run_id":  runID,
			"case_id": SanitizeLabelValue(outcome.CaseID),
			"name":    SanitizeLabelValue(outcome.Name),
			"status":  SanitizeLabelValue(string(outcome.Status)),
		})

		statusValue := 0.0
		if !outcome.Status.Failed() {
			statusValue = 1
		}

		samples = append(samples,
			Sample{
				Name:        MetricCaseDurationMS,
				Labels:      labels,
				Value:       float64(outcome.DurationMS),
				TimestampMS: timestampMS,
			},
			Sample{
				Name:        MetricCaseStatus,
				Labels:      labels,
				Value:       statusValue,
				TimestampMS: timestampMS,
			},
		)
	}

	return samples
}

// labels merges the static labels with sample-specific ones; the latter
// win on collision.
func (e *Encoder) labels(specific map[string]string) map[string]string {
	merged := make(map[string]string, len(e.staticLabels)+len(specific))
	for key, value := range e.staticLabels {
		merged[key] = value
	}
	for key, value := range specific {
		merged[key] = value
	}

	return merged
}
