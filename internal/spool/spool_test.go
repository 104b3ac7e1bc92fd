package spool

import (
	"context"
	"os"
	"path/filepath"
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

func TestSaveAndMerge_Roundtrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	log := newTestLogger()
	writer := NewWriter(log, dir)

	require.NoError(t, writer.Save("gw0", []event.TestOutcome{
		{CaseID: "TC-1", Name: "test_a", Status: event.StatusPassed, DurationMS: 10},
	}))
	require.NoError(t, writer.Save("gw1", []event.TestOutcome{
		{CaseID: "TC-2", Name: "test_b", Status: event.StatusFailed, DurationMS: 20, ErrorSummary: "boom"},
		{CaseID: "TC-3", Name: "test_c", Status: event.StatusSkipped},
	}))

	merged, err := Merge(context.Background(), log, dir, false)
	require.NoError(t, err)
	require.Len(t, merged, 3)

	// Files load in filename order, so gw0 results come first.
	require.Equal(t, "TC-1", merged[0].CaseID)
	require.Equal(t, "TC-2", merged[1].CaseID)
	require.Equal(t, "TC-3", merged[2].CaseID)
}

func TestSave_EmptyOutcomesWriteNothing(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writer := NewWriter(newTestLogger(), dir)

	require.NoError(t, writer.Save("gw0", nil))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestMerge_CleanupRemovesConsumedFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	log := newTestLogger()
	writer := NewWriter(log, dir)

	require.NoError(t, writer.Save("gw0", []event.TestOutcome{
		{Name: "test_a", Status: event.StatusPassed},
	}))

	_, err := Merge(context.Background(), log, dir, true)
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestMerge_IgnoresUnrelatedFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	log := newTestLogger()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.json"), []byte(`[]`), 0o600))

	merged, err := Merge(context.Background(), log, dir, false)
	require.NoError(t, err)
	require.Empty(t, merged)
}

func TestMerge_BadFileFails(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	log := newTestLogger()

	require.NoError(t, os.WriteFile(filepath.Join(dir, Filename("gw0")), []byte("not json"), 0o600))

	_, err := Merge(context.Background(), log, dir, false)
	require.Error(t, err)
}
