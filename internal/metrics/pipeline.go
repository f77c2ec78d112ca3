package metrics

import (
	"context"

	apperrors "github.com/xtxerr/sessionstats/internal/errors"
	"github.com/xtxerr/sessionstats/internal/logging"
	"github.com/xtxerr/sessionstats/internal/parallel"
	"github.com/xtxerr/sessionstats/internal/session"
)

// Metric names, reported in this fixed order.
const (
	MetricSessionsPerUser     = "SessionsPerUser"
	MetricPageviewsPerSession = "PageviewsPerSession"
	MetricSessionLength       = "SessionLength"
)

// Observations derives the three observation sets from the session data:
//
//   - SessionsPerUser: per key, the number of session windows.
//   - PageviewsPerSession: per session (flattened across keys), the
//     number of timestamps in it.
//   - SessionLength: per session with at least two timestamps, the span
//     between its first and last timestamp. Single-event sessions are
//     excluded from this set only; they still count in the other two.
func Observations(ks session.KeySessions) (perUser, perSession, lengths []int64) {
	for _, windows := range ks {
		perUser = append(perUser, int64(len(windows)))
		for _, w := range windows {
			perSession = append(perSession, int64(len(w)))
			if len(w) >= 2 {
				lengths = append(lengths, w.Length())
			}
		}
	}
	return perUser, perSession, lengths
}

// Pipeline aggregates the three session metrics in fixed order. A metric
// with no observations is logged and skipped rather than failing the
// run, so the result may hold fewer than three reports.
func Pipeline(ctx context.Context, ks session.KeySessions, cfg Config) ([]Report, error) {
	log := logging.Component("pipeline")

	perUser, perSession, lengths := Observations(ks)

	sets := []struct {
		name string
		obs  []int64
	}{
		{MetricSessionsPerUser, perUser},
		{MetricPageviewsPerSession, perSession},
		{MetricSessionLength, lengths},
	}

	reports := make([]Report, 0, len(sets))
	for _, set := range sets {
		parts := parallel.Chunks(set.obs, cfg.Parallel.Workers)

		rep, err := Aggregate(ctx, set.name, parts, cfg)
		if err != nil {
			if apperrors.Is(err, apperrors.ErrEmptyMetric) {
				log.Info("metric has no observations, reporting nothing for it", "metric", set.name)
				continue
			}
			return nil, err
		}
		reports = append(reports, rep)
	}

	return reports, nil
}
