// Package metrics aggregates observation sets into metric reports.
//
// A Summary folds an exact (count, min, max) reducer together with two
// sketches: the deterministic bounds sketch that backs the persisted
// quantile intervals, and a DDSketch carried for point-estimate debug
// logging. Summaries are built partition-locally with Observe and
// combined with the pure Merge, so the aggregate is identical for any
// partitioning of the observations.
package metrics

import (
	"context"
	"fmt"
	"math"

	"github.com/DataDog/sketches-go/ddsketch"

	apperrors "github.com/xtxerr/sessionstats/internal/errors"
	"github.com/xtxerr/sessionstats/internal/logging"
	"github.com/xtxerr/sessionstats/internal/parallel"
	"github.com/xtxerr/sessionstats/internal/sketch"
)

// estimateAccuracy is the DDSketch relative accuracy for the auxiliary
// point estimates (1% error).
const estimateAccuracy = 0.01

// Summary is the partition-local metric accumulator.
type Summary struct {
	count int64
	min   int64
	max   int64

	// bounds backs the persisted quantile intervals.
	bounds *sketch.Sketch

	// est provides point estimates for logging only (nil if DDSketch
	// construction failed).
	est *ddsketch.DDSketch
}

// NewSummary creates an empty summary with sketch resolution k.
func NewSummary(k int) *Summary {
	s := &Summary{
		min:    math.MaxInt64,
		max:    math.MinInt64,
		bounds: sketch.New(k),
	}
	if dd, err := ddsketch.NewDefaultDDSketch(estimateAccuracy); err == nil {
		s.est = dd
	}
	return s
}

// Observe adds one observation.
func (s *Summary) Observe(v int64) {
	s.count++
	if v < s.min {
		s.min = v
	}
	if v > s.max {
		s.max = v
	}
	s.bounds.Insert(v)
	if s.est != nil {
		s.est.Add(float64(v))
	}
}

// Merge returns a new summary covering both inputs. Neither input is
// modified.
func (s *Summary) Merge(o *Summary) *Summary {
	if o == nil {
		o = &Summary{min: math.MaxInt64, max: math.MinInt64}
	}

	m := &Summary{
		count:  s.count + o.count,
		min:    s.min,
		max:    s.max,
		bounds: s.bounds.Merge(o.bounds),
	}
	if o.min < m.min {
		m.min = o.min
	}
	if o.max > m.max {
		m.max = o.max
	}

	if dd, err := ddsketch.NewDefaultDDSketch(estimateAccuracy); err == nil {
		if s.est != nil {
			dd.MergeWith(s.est)
		}
		if o.est != nil {
			dd.MergeWith(o.est)
		}
		m.est = dd
	}

	return m
}

// Count returns the number of observations.
func (s *Summary) Count() int64 { return s.count }

// Estimate returns the DDSketch point estimate for quantile q, if
// available. It never feeds the persisted report.
func (s *Summary) Estimate(q float64) (float64, bool) {
	if s.est == nil || s.count == 0 {
		return 0, false
	}
	v, err := s.est.GetValueAtQuantile(q)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Bound is one quantile level with its bracketing interval.
type Bound struct {
	Q    float64
	Low  int64
	High int64
}

// Report is the aggregate result for one named metric. Count, Min and
// Max are exact; only the quantile bounds are approximate.
type Report struct {
	Name  string
	Count int64
	Min   int64
	Max   int64

	Bounds []Bound
}

// Report produces the metric report for the given quantile levels.
// An empty summary yields an error matching errors.ErrEmptyMetric;
// callers treat that as "N/A for this run", not as a failure.
func (s *Summary) Report(name string, quantiles []float64) (Report, error) {
	if s.count == 0 {
		return Report{}, fmt.Errorf("%s: %w", name, apperrors.ErrEmptyMetric)
	}

	bounds := make([]Bound, len(quantiles))
	for i, q := range quantiles {
		low, high := s.bounds.QuantileBounds(q)
		bounds[i] = Bound{Q: q, Low: low, High: high}
	}

	return Report{
		Name:   name,
		Count:  s.count,
		Min:    s.min,
		Max:    s.max,
		Bounds: bounds,
	}, nil
}

// Config holds the aggregation settings shared by all metrics of a run.
type Config struct {
	// Resolution is the bounds sketch resolution level k.
	Resolution int

	// Quantiles are the reported rank levels.
	Quantiles []float64

	// Parallel configures the partition fold.
	Parallel parallel.Options
}

// Aggregate folds a partitioned observation collection into one metric
// report: partition-local Observe, then pairwise Merge across
// partitions. It fails with errors.ErrEmptyMetric when the collection
// is empty.
func Aggregate(ctx context.Context, name string, parts [][]int64, cfg Config) (Report, error) {
	summary, err := parallel.MapReduce(ctx, parts,
		func(_ context.Context, part []int64) (*Summary, error) {
			s := NewSummary(cfg.Resolution)
			for _, v := range part {
				s.Observe(v)
			}
			return s, nil
		},
		(*Summary).Merge,
		cfg.Parallel,
	)
	if err != nil {
		return Report{}, err
	}
	if summary == nil || summary.count == 0 {
		return Report{}, fmt.Errorf("%s: %w", name, apperrors.ErrEmptyMetric)
	}

	rep, err := summary.Report(name, cfg.Quantiles)
	if err != nil {
		return Report{}, err
	}

	log := logging.Component("metrics")
	if p50, ok := summary.Estimate(0.5); ok {
		p99, _ := summary.Estimate(0.99)
		log.Debug("metric aggregated",
			"metric", name,
			"count", rep.Count,
			"min", rep.Min,
			"max", rep.Max,
			"p50_est", p50,
			"p99_est", p99,
		)
	}

	return rep, nil
}
