package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, DefaultBatchSize, cfg.BatchSize)
	require.Equal(t, DefaultBatchInterval, cfg.BatchInterval)
	require.Equal(t, DefaultMaxAttempts, cfg.MaxAttempts)
	require.Equal(t, DefaultBackoffBase, cfg.BackoffBase)
	require.Equal(t, DefaultBackoffMax, cfg.BackoffMax)
	require.Equal(t, DefaultFlushTimeout, cfg.FlushTimeout)
	require.Equal(t, DefaultPushEnabled, cfg.PushEnabled)
	require.Equal(t, DefaultPerCaseSamples, cfg.PerCaseSamples)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv(EnvVictoriaURL, "http://victoria:8428/api/v1/import/prometheus")
	t.Setenv(EnvBatchSize, "50")
	t.Setenv(EnvBatchInterval, "2s")
	t.Setenv(EnvPerCaseSamples, "true")

	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, "http://victoria:8428/api/v1/import/prometheus", cfg.VictoriaURL)
	require.Equal(t, 50, cfg.BatchSize)
	require.Equal(t, 2*time.Second, cfg.BatchInterval)
	require.True(t, cfg.PerCaseSamples)
}

func TestLoad_FileThenEnvPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suitepulse.yaml")
	content := `victoria_url: http://from-file:8428/write
batch_size: 25
flush_timeout: 10s
project: checkout
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv(EnvBatchSize, "75")

	cfg, err := Load(path)
	require.NoError(t, err)

	// Env wins over file; file wins over defaults.
	require.Equal(t, 75, cfg.BatchSize)
	require.Equal(t, "http://from-file:8428/write", cfg.VictoriaURL)
	require.Equal(t, 10*time.Second, cfg.FlushTimeout)
	require.Equal(t, "checkout", cfg.Project)
}

func TestLoad_MissingFileIsFine(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	require.Equal(t, DefaultBatchSize, cfg.BatchSize)
}

func TestLoad_BadDurationFails(t *testing.T) {
	t.Setenv(EnvFlushTimeout, "soon")

	_, err := Load("")
	require.Error(t, err)
}

func TestValidate_RequiresURLWhenPushEnabled(t *testing.T) {
	cfg := &Config{PushEnabled: true}
	require.Error(t, cfg.Validate())

	cfg.VictoriaURL = "http://victoria:8428/write"
	require.NoError(t, cfg.Validate())

	disabled := &Config{PushEnabled: false}
	require.NoError(t, disabled.Validate())
}

func TestStaticLabels(t *testing.T) {
	cfg := &Config{Project: "checkout", Platform: "linux"}
	require.Equal(t, map[string]string{"project": "checkout", "platform": "linux"}, cfg.StaticLabels())

	empty := &Config{}
	require.Empty(t, empty.StaticLabels())
}
