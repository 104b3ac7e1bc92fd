package aggregator

import (
	"fmt"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/suitepulse/suitepulse/internal/event"
)

func newTestLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	return log
}

func TestRecord_CountsAndDurationSumRegardlessOfOrder(t *testing.T) {
	t.Parallel()

	outcomes := []event.TestOutcome{
		{Name: "test_a", Status: event.StatusPassed, DurationMS: 100},
		{Name: "test_b", Status: event.StatusFailed, DurationMS: 50, ErrorSummary: "boom"},
		{Name: "test_c", Status: event.StatusSkipped, DurationMS: 0},
		{Name: "test_d", Status: event.StatusPassed, DurationMS: 25},
	}

	forward := summarize(t, outcomes)

	reversed := make([]event.TestOutcome, len(outcomes))
	for i, outcome := range outcomes {
		reversed[len(outcomes)-1-i] = outcome
	}
	backward := summarize(t, reversed)

	require.Equal(t, forward.Counts, backward.Counts)
	require.Equal(t, forward.TotalDurationMS, backward.TotalDurationMS)

	total := 0
	for _, count := range forward.Counts {
		total += count
	}
	require.Equal(t, len(outcomes), total)
	require.Equal(t, int64(175), forward.TotalDurationMS)
}

func summarize(t *testing.T, outcomes []event.TestOutcome) *RunSummary {
	t.Helper()

	agg := New(newTestLogger())

	runID, err := agg.StartRun()
	require.NoError(t, err)

	for _, outcome := range outcomes {
		require.NoError(t, agg.Record(runID, outcome))
	}

	summary, err := agg.FinishRun(runID)
	require.NoError(t, err)

	return summary
}

func TestStartRunWithID_DuplicateFails(t *testing.T) {
	t.Parallel()

	agg := New(newTestLogger())

	require.NoError(t, agg.StartRunWithID("run-1"))
	require.ErrorIs(t, agg.StartRunWithID("run-1"), ErrDuplicateRun)
}

func TestRecord_UnknownRun(t *testing.T) {
	t.Parallel()

	agg := New(newTestLogger())

	err := agg.Record("nope", event.TestOutcome{Name: "test_a", Status: event.StatusPassed})
	require.ErrorIs(t, err, ErrUnknownRun)
}

func TestFinishRun_SecondCallFails(t *testing.T) {
	t.Parallel()

	agg := New(newTestLogger())

	runID, err := agg.StartRun()
	require.NoError(t, err)

	_, err = agg.FinishRun(runID)
	require.NoError(t, err)

	// Not idempotent: the run is gone, not stale.
	_, err = agg.FinishRun(runID)
	require.ErrorIs(t, err, ErrUnknownRun)
}

func TestRecord_AfterFinishIsRejected(t *testing.T) {
	t.Parallel()

	agg := New(newTestLogger())

	runID, err := agg.StartRun()
	require.NoError(t, err)

	_, err = agg.FinishRun(runID)
	require.NoError(t, err)

	err = agg.Record(runID, event.TestOutcome{Name: "late", Status: event.StatusPassed})
	require.ErrorIs(t, err, ErrUnknownRun)
}

func TestOutcomes_PreserveCompletionOrder(t *testing.T) {
	t.Parallel()

	agg := New(newTestLogger())

	runID, err := agg.StartRun()
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, agg.Record(runID, event.TestOutcome{
			Name:   fmt.Sprintf("test_%d", i),
			Status: event.StatusPassed,
		}))
	}

	summary, err := agg.FinishRun(runID)
	require.NoError(t, err)

	for i, outcome := range summary.Outcomes {
		require.Equal(t, fmt.Sprintf("test_%d", i), outcome.Name)
	}
}

func TestRecord_ConcurrentRunsDoNotCrossContaminate(t *testing.T) {
	t.Parallel()

	agg := New(newTestLogger())

	const runs = 4
	const perRun = 50

	runIDs := make([]string, runs)
	for i := range runIDs {
		runID, err := agg.StartRun()
		require.NoError(t, err)
		runIDs[i] = runID
	}

	var wg sync.WaitGroup
	for i, runID := range runIDs {
		i, runID := i, runID
		wg.Add(1)
		go func() {
			defer wg.Done()

			for j := 0; j < perRun; j++ {
				_ = agg.Record(runID, event.TestOutcome{
					Name:       fmt.Sprintf("run%d_test%d", i, j),
					Status:     event.StatusPassed,
					DurationMS: int64(i + 1),
				})
			}
		}()
	}
	wg.Wait()

	for i, runID := range runIDs {
		summary, err := agg.FinishRun(runID)
		require.NoError(t, err)
		require.Equal(t, perRun, summary.Counts[event.StatusPassed])
		require.Equal(t, int64(perRun*(i+1)), summary.TotalDurationMS)
	}
}

func TestStop_ReportsOpenRunsWithoutFailing(t *testing.T) {
	t.Parallel()

	agg := New(newTestLogger())

	_, err := agg.StartRun()
	require.NoError(t, err)

	require.Len(t, agg.OpenRuns(), 1)
	require.NoError(t, agg.Stop())
	require.Empty(t, agg.OpenRuns())
}

func TestRecord_InvalidOutcomeRejected(t *testing.T) {
	t.Parallel()

	agg := New(newTestLogger())

	runID, err := agg.StartRun()
	require.NoError(t, err)

	err = agg.Record(runID, event.TestOutcome{Name: "test_a", Status: "bogus"})
	require.Error(t, err)

	summary, err := agg.FinishRun(runID)
	require.NoError(t, err)
	require.Empty(t, summary.Outcomes)
}
