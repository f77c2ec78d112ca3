package config

import (
	"fmt"

	"github.com/xtxerr/sessionstats/internal/errors"
)

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	v := errors.NewValidationErrors()

	if c.Report.Path == "" {
		v.AddMissing("report.path")
	}

	if c.Window.Year < 1970 {
		v.AddField("window.year", fmt.Sprintf("must be >= 1970, got %d", c.Window.Year))
	}
	if c.Window.Month < 1 || c.Window.Month > 12 {
		v.AddField("window.month", fmt.Sprintf("must be 1-12, got %d", c.Window.Month))
	}
	if c.Window.Day < 1 || c.Window.Day > 31 {
		v.AddField("window.day", fmt.Sprintf("must be 1-31, got %d", c.Window.Day))
	}
	if c.Window.PeriodDays < 1 {
		v.AddField("window.period_days", fmt.Sprintf("must be >= 1, got %d", c.Window.PeriodDays))
	}

	if c.Session.GapSeconds <= 0 {
		v.AddField("session.gap_seconds", fmt.Sprintf("must be > 0, got %d", c.Session.GapSeconds))
	}

	if c.Sketch.Resolution < 1 || c.Sketch.Resolution > 30 {
		v.AddField("sketch.resolution", fmt.Sprintf("must be 1-30, got %d", c.Sketch.Resolution))
	}

	if len(c.Quantiles) == 0 {
		v.AddMissing("quantiles")
	}
	for _, q := range c.Quantiles {
		if q < 0 || q > 1 {
			v.AddField("quantiles", fmt.Sprintf("levels must be in [0,1], got %v", q))
		}
	}

	switch c.Source.Kind {
	case "parquet":
		if c.Source.Dir == "" {
			v.AddMissing("source.dir")
		}
	case "duckdb":
		if c.Source.Table == "" {
			v.AddMissing("source.table")
		}
	default:
		v.AddField("source.kind", fmt.Sprintf("must be parquet or duckdb, got %q", c.Source.Kind))
	}

	if c.Parallel.Workers < 1 {
		v.AddField("parallel.workers", fmt.Sprintf("must be >= 1, got %d", c.Parallel.Workers))
	}
	if c.Parallel.MaxRetries < 0 {
		v.AddField("parallel.max_retries", fmt.Sprintf("must be >= 0, got %d", c.Parallel.MaxRetries))
	}

	return v.Err()
}
