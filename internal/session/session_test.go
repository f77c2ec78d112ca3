package session

import (
	"math/rand"
	"reflect"
	"slices"
	"testing"

	"github.com/xtxerr/sessionstats/internal/grouper"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name string
		ts   []int64
		gap  int64
		want []Window
	}{
		{
			name: "gap splits sessions",
			ts:   []int64{1000, 1500, 4000, 39000},
			gap:  1800,
			want: []Window{{1000, 1500}, {4000}, {39000}},
		},
		{
			name: "single timestamp",
			ts:   []int64{500},
			gap:  1800,
			want: []Window{{500}},
		},
		{
			name: "identical timestamps form one zero-length session",
			ts:   []int64{100, 100},
			gap:  1800,
			want: []Window{{100, 100}},
		},
		{
			name: "boundary gap exactly at threshold extends",
			ts:   []int64{0, 1800, 3600},
			gap:  1800,
			want: []Window{{0, 1800, 3600}},
		},
		{
			name: "boundary gap one past threshold splits",
			ts:   []int64{0, 1801},
			gap:  1800,
			want: []Window{{0}, {1801}},
		},
		{
			name: "empty",
			ts:   nil,
			gap:  1800,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Split(tt.ts, tt.gap)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Split(%v) = %v, want %v", tt.ts, got, tt.want)
			}
		})
	}
}

func TestWindow_Length(t *testing.T) {
	if got := (Window{1000, 1500}).Length(); got != 500 {
		t.Errorf("expected length 500, got %d", got)
	}
	if got := (Window{4000}).Length(); got != 0 {
		t.Errorf("expected length 0, got %d", got)
	}
}

func TestSessionize(t *testing.T) {
	g := grouper.Grouped{
		"abc": {1000, 1500, 4000, 39000},
		"xyz": {7},
	}

	ks := Sessionize(g, DefaultGapSeconds)

	if len(ks["abc"]) != 3 {
		t.Errorf("expected 3 sessions for abc, got %d", len(ks["abc"]))
	}
	if len(ks["xyz"]) != 1 {
		t.Errorf("expected 1 session for xyz, got %d", len(ks["xyz"]))
	}
	if ks.Count() != 4 {
		t.Errorf("expected 4 sessions total, got %d", ks.Count())
	}
}

// Sessions must be ascending, non-overlapping and maximal: within a
// session every adjacent gap is <= gap, between sessions the boundary
// gap is > gap.
func TestSplit_Invariants(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	const gap = int64(1800)

	ts := make([]int64, 500)
	cursor := int64(0)
	for i := range ts {
		cursor += rng.Int63n(5000)
		ts[i] = cursor
	}
	slices.Sort(ts)

	windows := Split(ts, gap)

	var rebuilt []int64
	for i, w := range windows {
		if len(w) == 0 {
			t.Fatal("empty session window")
		}
		for j := 1; j < len(w); j++ {
			if w[j]-w[j-1] > gap {
				t.Errorf("window %d: internal gap %d exceeds threshold", i, w[j]-w[j-1])
			}
		}
		if i > 0 {
			prev := windows[i-1]
			if w[0]-prev[len(prev)-1] <= gap {
				t.Errorf("windows %d/%d not maximal: boundary gap %d within threshold",
					i-1, i, w[0]-prev[len(prev)-1])
			}
		}
		rebuilt = append(rebuilt, w...)
	}

	if !slices.Equal(rebuilt, ts) {
		t.Error("concatenated windows do not reproduce the input sequence")
	}
}
