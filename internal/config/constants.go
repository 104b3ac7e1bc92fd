package config

import "time"

// Environment variable names. Every knob is independently overridable;
// values from the environment win over the optional config file.
const (
	// EnvVictoriaURL is the metrics backend import endpoint.
	EnvVictoriaURL = "VICTORIA_URL"
	// EnvAuthToken is the bearer token for the backend, if any.
	EnvAuthToken = "VICTORIA_AUTH_TOKEN"
	// EnvRunID is an externally-assigned run id (e.g. from TestOps).
	EnvRunID = "RUN_ID"
	// EnvProject is a static project label added to every sample.
	EnvProject = "PROJECT"
	// EnvPlatform is a static platform label added to every sample.
	EnvPlatform = "PLATFORM"
	// EnvPushEnabled toggles network delivery ("true"/"false").
	EnvPushEnabled = "PUSH_ENABLED"
	// EnvPerCaseSamples toggles the per-case metric series.
	EnvPerCaseSamples = "PER_CASE_SAMPLES"
	// EnvBatchSize overrides the exporter batch size.
	EnvBatchSize = "BATCH_SIZE"
	// EnvBatchInterval overrides the exporter batch interval (duration).
	EnvBatchInterval = "BATCH_INTERVAL"
	// EnvMaxAttempts overrides the per-batch delivery attempt limit.
	EnvMaxAttempts = "MAX_ATTEMPTS"
	// EnvBackoffBase overrides the initial retry backoff (duration).
	EnvBackoffBase = "BACKOFF_BASE"
	// EnvBackoffMax overrides the retry backoff ceiling (duration).
	EnvBackoffMax = "BACKOFF_MAX"
	// EnvFlushTimeout overrides the final flush timeout (duration).
	EnvFlushTimeout = "FLUSH_TIMEOUT"
	// EnvSpoolDir overrides where worker spool files live.
	EnvSpoolDir = "SPOOL_DIR"
)

// Defaults for every configurable value.
const (
	// DefaultPushEnabled keeps delivery on unless explicitly disabled.
	DefaultPushEnabled = true
	// DefaultPerCaseSamples keeps the payload small by default.
	DefaultPerCaseSamples = false
	// DefaultBatchSize is the sample count that triggers a flush.
	DefaultBatchSize = 200
	// DefaultBatchInterval bounds queue latency during low volume.
	DefaultBatchInterval = 5 * time.Second
	// DefaultMaxAttempts is the total delivery attempts per batch.
	DefaultMaxAttempts = 4
	// DefaultBackoffBase is the initial retry backoff interval.
	DefaultBackoffBase = 500 * time.Millisecond
	// DefaultBackoffMax caps the retry backoff interval.
	DefaultBackoffMax = 10 * time.Second
	// DefaultFlushTimeout bounds the synchronous flush at suite end.
	DefaultFlushTimeout = 30 * time.Second
	// DefaultSpoolDir is where worker spool files are written.
	DefaultSpoolDir = "."
)
