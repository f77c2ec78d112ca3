// Package job orchestrates one session metrics run: events are read
// from the source, grouped and sessionized, aggregated into the three
// session metrics, and merged into the persisted report.
//
// A run either fully succeeds (the report file is atomically replaced)
// or fully fails (the previous report is untouched). There is no
// partial commit path; cancelling a run before the pipeline completes
// never touches the store.
package job

import (
	"context"

	"github.com/google/uuid"

	"github.com/xtxerr/sessionstats/internal/config"
	apperrors "github.com/xtxerr/sessionstats/internal/errors"
	"github.com/xtxerr/sessionstats/internal/grouper"
	"github.com/xtxerr/sessionstats/internal/logging"
	"github.com/xtxerr/sessionstats/internal/metrics"
	"github.com/xtxerr/sessionstats/internal/parallel"
	"github.com/xtxerr/sessionstats/internal/report"
	"github.com/xtxerr/sessionstats/internal/session"
	"github.com/xtxerr/sessionstats/internal/source"
)

// Run executes one session metrics run for the window configured in cfg.
func Run(ctx context.Context, cfg *config.Config, src source.Source, store *report.Store) error {
	log := logging.Component("job").With("run_id", uuid.NewString())

	w := source.Window{
		Year:       cfg.Window.Year,
		Month:      cfg.Window.Month,
		Day:        cfg.Window.Day,
		PeriodDays: cfg.Window.PeriodDays,
	}
	log.Info("run starting", "window", w.Label(), "report", store.Path())

	parts, err := src.Partitions(ctx, w)
	if err != nil {
		return apperrors.Wrap(err, "read events")
	}

	obsParts, dq := project(parts)
	if dq.malformed > 0 || dq.emptyKey > 0 {
		log.Warn("dropped bad records",
			"malformed_timestamp", dq.malformed,
			"empty_key", dq.emptyKey,
		)
	}

	popts := parallel.Options{
		Workers:       cfg.Parallel.Workers,
		MaxRetries:    cfg.Parallel.MaxRetries,
		RetryInterval: cfg.Parallel.RetryInterval,
	}

	// Barrier one: every key's partial runs are merged before any
	// sessionization happens.
	grouped, err := parallel.MapReduce(ctx, obsParts,
		func(_ context.Context, part []grouper.Observation) (grouper.Grouped, error) {
			return grouper.Collect(part), nil
		},
		grouper.Combine,
		popts,
	)
	if err != nil {
		return apperrors.Wrap(err, "group events")
	}

	if grouped.Keys() == 0 {
		log.Info("no qualifying events for window, leaving report untouched",
			"non_qualifying", dq.nonQualifying)
		return nil
	}

	ks := session.Sessionize(grouped, cfg.Session.GapSeconds)
	log.Debug("sessionized",
		"keys", grouped.Keys(),
		"events", grouped.Events(),
		"sessions", ks.Count(),
	)

	reports, err := metrics.Pipeline(ctx, ks, metrics.Config{
		Resolution: cfg.Sketch.Resolution,
		Quantiles:  cfg.Quantiles,
		Parallel:   popts,
	})
	if err != nil {
		return apperrors.Wrap(err, "aggregate metrics")
	}
	if len(reports) == 0 {
		log.Info("no metric produced observations, leaving report untouched")
		return nil
	}

	rows := make([]report.Row, len(reports))
	for i, rep := range reports {
		rows[i] = report.NewRow(w, rep)
	}

	if err := store.Merge(rows, w.Label()); err != nil {
		return err
	}

	log.Info("run complete", "rows", len(rows))
	return nil
}

// quality counts records dropped during projection.
type quality struct {
	nonQualifying int64
	emptyKey      int64
	malformed     int64
}

// project reduces raw events to qualifying observations, dropping
// non-qualifying records silently and bad records with a warning count.
func project(parts [][]source.Event) ([][]grouper.Observation, quality) {
	var dq quality

	out := make([][]grouper.Observation, 0, len(parts))
	for _, part := range parts {
		obs := make([]grouper.Observation, 0, len(part))
		for _, e := range part {
			switch {
			case !e.Qualifying:
				dq.nonQualifying++
			case e.Key == "":
				dq.emptyKey++
			case e.Time < 0:
				dq.malformed++
			default:
				obs = append(obs, grouper.Observation{Key: e.Key, Time: e.Time})
			}
		}
		if len(obs) > 0 {
			out = append(out, obs)
		}
	}
	return out, dq
}
