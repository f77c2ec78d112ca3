// Package config defines the run configuration for sessionstats.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete run configuration.
type Config struct {
	// Report configures the persisted report.
	Report ReportConfig `yaml:"report"`

	// Window selects the reporting period.
	Window WindowConfig `yaml:"window"`

	// Session configures sessionization.
	Session SessionConfig `yaml:"session"`

	// Sketch configures the quantile sketch.
	Sketch SketchConfig `yaml:"sketch"`

	// Quantiles are the rank levels reported for every metric.
	Quantiles []float64 `yaml:"quantiles"`

	// Source configures the event source.
	Source SourceConfig `yaml:"source"`

	// Parallel configures partition-parallel execution.
	Parallel ParallelConfig `yaml:"parallel"`
}

// ReportConfig configures the persisted report.
type ReportConfig struct {
	// Path is the persisted report file. The file is rewritten atomically
	// on every successful run.
	Path string `yaml:"path"`
}

// WindowConfig selects the reporting period.
type WindowConfig struct {
	// Year, Month, Day identify the first day of the period.
	Year  int `yaml:"year"`
	Month int `yaml:"month"`
	Day   int `yaml:"day"`

	// PeriodDays is the period length in days.
	PeriodDays int `yaml:"period_days"`
}

// SessionConfig configures sessionization.
type SessionConfig struct {
	// GapSeconds is the inactivity gap that closes a session.
	// Two consecutive events more than GapSeconds apart belong to
	// different sessions.
	GapSeconds int64 `yaml:"gap_seconds"`
}

// SketchConfig configures the quantile sketch.
type SketchConfig struct {
	// Resolution is the sketch resolution level k. The sketch holds at
	// most 2^k buckets; higher values trade memory for tighter bounds.
	Resolution int `yaml:"resolution"`
}

// SourceConfig configures the event source.
type SourceConfig struct {
	// Kind selects the source implementation: parquet or duckdb.
	Kind string `yaml:"kind"`

	// Dir is the directory of Parquet event files (parquet kind).
	Dir string `yaml:"dir"`

	// DSN is the DuckDB data source name (duckdb kind). Empty means an
	// in-memory database.
	DSN string `yaml:"dsn"`

	// Table is the table or view queried for events (duckdb kind).
	Table string `yaml:"table"`
}

// ParallelConfig configures partition-parallel execution.
type ParallelConfig struct {
	// Workers is the number of concurrent partition workers.
	Workers int `yaml:"workers"`

	// MaxRetries is the number of times a failed partition is re-run
	// before the run is aborted.
	MaxRetries int `yaml:"max_retries"`

	// RetryInterval is the initial backoff between partition retries.
	RetryInterval time.Duration `yaml:"retry_interval"`
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a configuration with sensible defaults.
// The window is left unset and must come from the file or CLI flags.
func DefaultConfig() *Config {
	return &Config{
		Report: ReportConfig{
			Path: "session_metrics.tsv",
		},
		Window: WindowConfig{
			PeriodDays: 30,
		},
		Session: SessionConfig{
			GapSeconds: 1800,
		},
		Sketch: SketchConfig{
			Resolution: 8,
		},
		Quantiles: []float64{0.1, 0.5, 0.9, 0.99},
		Source: SourceConfig{
			Kind: "parquet",
		},
		Parallel: ParallelConfig{
			Workers:       4,
			MaxRetries:    2,
			RetryInterval: time.Second,
		},
	}
}
