// sessionstats reconstructs per-subject sessions from timestamped events
// and merges the session metrics of one reporting window into the
// persisted cumulative report.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/xtxerr/sessionstats/internal/config"
	apperrors "github.com/xtxerr/sessionstats/internal/errors"
	"github.com/xtxerr/sessionstats/internal/job"
	"github.com/xtxerr/sessionstats/internal/logging"
	"github.com/xtxerr/sessionstats/internal/report"
	"github.com/xtxerr/sessionstats/internal/source"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	// CLI flags
	cfgPath := flag.String("config", "", "config file path")
	reportPath := flag.String("report", "", "report file (overrides config)")
	srcKind := flag.String("source", "", "event source kind: parquet or duckdb (overrides config)")
	dir := flag.String("dir", "", "parquet event directory (overrides config)")
	dsn := flag.String("dsn", "", "duckdb data source name (overrides config)")
	table := flag.String("table", "", "duckdb event table (overrides config)")
	year := flag.Int("year", 0, "window start year (overrides config)")
	month := flag.Int("month", 0, "window start month (overrides config)")
	day := flag.Int("day", 0, "window start day (overrides config)")
	days := flag.Int("days", 0, "window length in days (overrides config)")
	gap := flag.Int64("gap", 0, "session inactivity gap in seconds (overrides config)")
	resolution := flag.Int("k", 0, "sketch resolution level (overrides config)")
	debug := flag.Bool("debug", false, "enable debug logging")
	jsonLog := flag.Bool("json", false, "log as JSON")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logging.Init(level, *jsonLog)

	log := logging.Component("main")
	log.Info("sessionstats starting", "version", Version)

	// Load config
	cfg := config.DefaultConfig()
	if *cfgPath != "" {
		loaded, err := config.Load(*cfgPath)
		if err != nil {
			log.Error("load config", "error", err)
			os.Exit(2)
		}
		cfg = loaded
	}

	// CLI overrides
	if *reportPath != "" {
		cfg.Report.Path = *reportPath
	}
	if *srcKind != "" {
		cfg.Source.Kind = *srcKind
	}
	if *dir != "" {
		cfg.Source.Dir = *dir
	}
	if *dsn != "" {
		cfg.Source.DSN = *dsn
	}
	if *table != "" {
		cfg.Source.Table = *table
	}
	if *year != 0 {
		cfg.Window.Year = *year
	}
	if *month != 0 {
		cfg.Window.Month = *month
	}
	if *day != 0 {
		cfg.Window.Day = *day
	}
	if *days != 0 {
		cfg.Window.PeriodDays = *days
	}
	if *gap != 0 {
		cfg.Session.GapSeconds = *gap
	}
	if *resolution != 0 {
		cfg.Sketch.Resolution = *resolution
	}

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	src, closeSource, err := buildSource(cfg)
	if err != nil {
		log.Error("open event source", "error", err)
		os.Exit(1)
	}
	defer closeSource()

	store := report.NewStore(cfg.Report.Path)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := job.Run(ctx, cfg, src, store); err != nil {
		log.Error("run failed", "error", err)
		os.Exit(1)
	}
}

// buildSource constructs the configured event source.
func buildSource(cfg *config.Config) (source.Source, func(), error) {
	switch cfg.Source.Kind {
	case "parquet":
		return source.NewParquetSource(cfg.Source.Dir), func() {}, nil
	case "duckdb":
		s, err := source.NewDuckDBSource(cfg.Source.DSN, cfg.Source.Table)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	default:
		return nil, nil, apperrors.NewInvalidValue("source.kind", cfg.Source.Kind, "unknown source kind")
	}
}
