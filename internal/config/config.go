// Package config handles configuration loading and management
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var errVictoriaURLRequired = errors.New("victoria_url is required when push is enabled")

// Config holds the pipeline configuration. Precedence: built-in defaults,
// then the optional YAML file, then environment variables (with .env
// loaded first).
type Config struct {
	VictoriaURL    string
	AuthToken      string
	RunID          string
	Project        string
	Platform       string
	PushEnabled    bool
	PerCaseSamples bool
	BatchSize      int
	BatchInterval  time.Duration
	MaxAttempts    int
	BackoffBase    time.Duration
	BackoffMax     time.Duration
	FlushTimeout   time.Duration
	SpoolDir       string
}

// fileConfig is the YAML schema. Durations are strings ("5s", "500ms");
// pointers distinguish "absent" from zero values.
type fileConfig struct {
	VictoriaURL    *string `yaml:"victoria_url"`
	AuthToken      *string `yaml:"auth_token"`
	RunID          *string `yaml:"run_id"`
	Project        *string `yaml:"project"`
	Platform       *string `yaml:"platform"`
	PushEnabled    *bool   `yaml:"push_enabled"`
	PerCaseSamples *bool   `yaml:"per_case_samples"`
	BatchSize      *int    `yaml:"batch_size"`
	BatchInterval  *string `yaml:"batch_interval"`
	MaxAttempts    *int    `yaml:"max_attempts"`
	BackoffBase    *string `yaml:"backoff_base"`
	BackoffMax     *string `yaml:"backoff_max"`
	FlushTimeout   *string `yaml:"flush_timeout"`
	SpoolDir       *string `yaml:"spool_dir"`
}

// Load reads configuration from defaults, an optional YAML file and the
// environment (including a .env file if present).
func Load(path string) (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// It's okay if the file doesn't exist
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	cfg := &Config{
		PushEnabled:    DefaultPushEnabled,
		PerCaseSamples: DefaultPerCaseSamples,
		BatchSize:      DefaultBatchSize,
		BatchInterval:  DefaultBatchInterval,
		MaxAttempts:    DefaultMaxAttempts,
		BackoffBase:    DefaultBackoffBase,
		BackoffMax:     DefaultBackoffMax,
		FlushTimeout:   DefaultFlushTimeout,
		SpoolDir:       DefaultSpoolDir,
	}

	if path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}

		return fmt.Errorf("reading config file: %w", err)
	}

	var file fileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}

	setString(&c.VictoriaURL, file.VictoriaURL)
	setString(&c.AuthToken, file.AuthToken)
	setString(&c.RunID, file.RunID)
	setString(&c.Project, file.Project)
	setString(&c.Platform, file.Platform)
	setString(&c.SpoolDir, file.SpoolDir)

	if file.PushEnabled != nil {
		c.PushEnabled = *file.PushEnabled
	}

	if file.PerCaseSamples != nil {
		c.PerCaseSamples = *file.PerCaseSamples
	}

	if file.BatchSize != nil {
		c.BatchSize = *file.BatchSize
	}

	if file.MaxAttempts != nil {
		c.MaxAttempts = *file.MaxAttempts
	}

	if err := setDuration(&c.BatchInterval, file.BatchInterval, "batch_interval"); err != nil {
		return err
	}

	if err := setDuration(&c.BackoffBase, file.BackoffBase, "backoff_base"); err != nil {
		return err
	}

	if err := setDuration(&c.BackoffMax, file.BackoffMax, "backoff_max"); err != nil {
		return err
	}

	if err := setDuration(&c.FlushTimeout, file.FlushTimeout, "flush_timeout"); err != nil {
		return err
	}

	return nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setDuration(dst *time.Duration, src *string, field string) error {
	if src == nil {
		return nil
	}

	parsed, err := time.ParseDuration(*src)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", field, err)
	}

	*dst = parsed

	return nil
}

// Validate checks that the configuration is usable for a push.
func (c *Config) Validate() error {
	if c.PushEnabled && c.VictoriaURL == "" {
		return errVictoriaURLRequired
	}

	return nil
}

func (c *Config) applyEnv() error {
	c.VictoriaURL = getEnv(EnvVictoriaURL, c.VictoriaURL)
	c.AuthToken = getEnv(EnvAuthToken, c.AuthToken)
	c.RunID = getEnv(EnvRunID, c.RunID)
	c.Project = getEnv(EnvProject, c.Project)
	c.Platform = getEnv(EnvPlatform, c.Platform)
	c.SpoolDir = getEnv(EnvSpoolDir, c.SpoolDir)

	var err error

	if c.PushEnabled, err = getEnvBool(EnvPushEnabled, c.PushEnabled); err != nil {
		return err
	}

	if c.PerCaseSamples, err = getEnvBool(EnvPerCaseSamples, c.PerCaseSamples); err != nil {
		return err
	}

	if c.BatchSize, err = getEnvInt(EnvBatchSize, c.BatchSize); err != nil {
		return err
	}

	if c.MaxAttempts, err = getEnvInt(EnvMaxAttempts, c.MaxAttempts); err != nil {
		return err
	}

	if c.BatchInterval, err = getEnvDuration(EnvBatchInterval, c.BatchInterval); err != nil {
		return err
	}

	if c.BackoffBase, err = getEnvDuration(EnvBackoffBase, c.BackoffBase); err != nil {
		return err
	}

	if c.BackoffMax, err = getEnvDuration(EnvBackoffMax, c.BackoffMax); err != nil {
		return err
	}

	if c.FlushTimeout, err = getEnvDuration(EnvFlushTimeout, c.FlushTimeout); err != nil {
		return err
	}

	return nil
}

// StaticLabels returns the labels attached to every emitted sample.
func (c *Config) StaticLabels() map[string]string {
	labels := make(map[string]string, 2)

	if c.Project != "" {
		labels["project"] = c.Project
	}

	if c.Platform != "" {
		labels["platform"] = c.Platform
	}

	return labels
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}

	return parsed, nil
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}

	return parsed, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}

	return parsed, nil
}

func (c *Config) String() string {
	tokenDisplay := "(not set)"
	if c.AuthToken != "" {
		tokenDisplay = "********"
	}

	urlDisplay := c.VictoriaURL
	if urlDisplay == "" {
		urlDisplay = "(not set)"
	}

	runIDDisplay := c.RunID
	if runIDDisplay == "" {
		runIDDisplay = "(generated at run start)"
	}

	return fmt.Sprintf(`Current Configuration:
======================
Victoria URL:       %s
Auth Token:         %s
Run ID:             %s
Project:            %s
Platform:           %s
Push Enabled:       %t
Per-Case Samples:   %t
Batch Size:         %d
Batch Interval:     %s
Max Attempts:       %d
Backoff Base:       %s
Backoff Max:        %s
Flush Timeout:      %s
Spool Dir:          %s`,
		urlDisplay,
		tokenDisplay,
		runIDDisplay,
		c.Project,
		c.Platform,
		c.PushEnabled,
		c.PerCaseSamples,
		c.BatchSize,
		c.BatchInterval,
		c.MaxAttempts,
		c.BackoffBase,
		c.BackoffMax,
		c.FlushTimeout,
		c.SpoolDir,
	)
}
