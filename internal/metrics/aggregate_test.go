package metrics

import (
	"context"
	"math"
	"math/rand"
	"slices"
	"testing"

	apperrors "github.com/xtxerr/sessionstats/internal/errors"
	"github.com/xtxerr/sessionstats/internal/parallel"
)

func testConfig() Config {
	return Config{
		Resolution: 8,
		Quantiles:  []float64{0.1, 0.5, 0.9, 0.99},
		Parallel:   parallel.Options{Workers: 2},
	}
}

func TestAggregate_ExactStats(t *testing.T) {
	rng := rand.New(rand.NewSource(13))

	values := make([]int64, 5000)
	for i := range values {
		values[i] = rng.Int63n(1_000_000)
	}

	rep, err := Aggregate(context.Background(), "test",
		parallel.Chunks(values, 7), testConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	if rep.Count != int64(len(values)) {
		t.Errorf("expected count=%d, got %d", len(values), rep.Count)
	}
	if rep.Min != sorted[0] {
		t.Errorf("expected min=%d, got %d", sorted[0], rep.Min)
	}
	if rep.Max != sorted[len(sorted)-1] {
		t.Errorf("expected max=%d, got %d", sorted[len(sorted)-1], rep.Max)
	}

	if len(rep.Bounds) != 4 {
		t.Fatalf("expected 4 quantile bounds, got %d", len(rep.Bounds))
	}
	for _, b := range rep.Bounds {
		rank := int(math.Ceil(b.Q * float64(len(sorted))))
		if rank < 1 {
			rank = 1
		}
		truth := sorted[rank-1]
		if truth < b.Low || truth > b.High {
			t.Errorf("q=%v: value %d outside bounds (%d,%d)", b.Q, truth, b.Low, b.High)
		}
	}
}

func TestAggregate_Empty(t *testing.T) {
	_, err := Aggregate(context.Background(), "test", nil, testConfig())
	if !apperrors.Is(err, apperrors.ErrEmptyMetric) {
		t.Errorf("expected ErrEmptyMetric, got %v", err)
	}
}

func TestAggregate_PartitioningInvariance(t *testing.T) {
	values := make([]int64, 1000)
	for i := range values {
		values[i] = int64(i * i % 7919)
	}

	one, err := Aggregate(context.Background(), "m", parallel.Chunks(values, 1), testConfig())
	if err != nil {
		t.Fatal(err)
	}
	many, err := Aggregate(context.Background(), "m", parallel.Chunks(values, 13), testConfig())
	if err != nil {
		t.Fatal(err)
	}

	if one.Count != many.Count || one.Min != many.Min || one.Max != many.Max {
		t.Error("exact stats differ across partitionings")
	}
	if !slices.Equal(one.Bounds, many.Bounds) {
		t.Errorf("quantile bounds differ across partitionings: %v vs %v",
			one.Bounds, many.Bounds)
	}
}

func TestSummary_MergeIsPure(t *testing.T) {
	a := NewSummary(8)
	a.Observe(1)
	b := NewSummary(8)
	b.Observe(100)

	m := a.Merge(b)

	if a.Count() != 1 || b.Count() != 1 {
		t.Error("merge must not modify its inputs")
	}
	if m.Count() != 2 || m.min != 1 || m.max != 100 {
		t.Errorf("bad merged summary: count=%d min=%d max=%d", m.Count(), m.min, m.max)
	}
}

func TestSummary_Estimate(t *testing.T) {
	s := NewSummary(8)
	for i := int64(1); i <= 1000; i++ {
		s.Observe(i)
	}

	p50, ok := s.Estimate(0.5)
	if !ok {
		t.Fatal("expected an estimate")
	}
	if p50 < 450 || p50 > 550 {
		t.Errorf("p50 estimate %f far from 500", p50)
	}
}
