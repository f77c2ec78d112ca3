// Package grouper groups raw (key, timestamp) observations by key and
// produces a fully sorted timestamp sequence per key.
//
// Collect builds a partition-local result; Combine merges two results
// with a linear merge of sorted runs. Combine is associative and
// commutative, so the final per-key sequence does not depend on how the
// input was partitioned or in which order partial results were merged.
package grouper

import "slices"

// Observation is one qualifying event: a subject key and a timestamp in
// seconds since epoch.
type Observation struct {
	Key  string
	Time int64
}

// Run is an ascending-sorted sequence of timestamps for one key.
// Duplicates are preserved; repeated events are not deduplicated.
type Run []int64

// Grouped maps each key to its sorted run.
type Grouped map[string]Run

// Collect groups one partition's observations and sorts each key's run.
func Collect(obs []Observation) Grouped {
	g := make(Grouped)
	for _, o := range obs {
		g[o.Key] = append(g[o.Key], o.Time)
	}
	for _, run := range g {
		slices.Sort(run)
	}
	return g
}

// Combine merges two grouped results into a new one. Neither input is
// modified. Runs present in both are combined with MergeRuns.
func Combine(a, b Grouped) Grouped {
	out := make(Grouped, len(a)+len(b))
	for key, run := range a {
		out[key] = run
	}
	for key, run := range b {
		if existing, ok := out[key]; ok {
			out[key] = MergeRuns(existing, run)
		} else {
			out[key] = run
		}
	}
	return out
}

// MergeRuns merges two sorted runs into a new sorted run in linear time.
func MergeRuns(a, b Run) Run {
	if len(a) == 0 {
		return b
	}
	if len(b) == 0 {
		return a
	}

	out := make(Run, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if a[i] <= b[j] {
			out = append(out, a[i])
			i++
		} else {
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return out
}

// Keys returns the number of distinct keys.
func (g Grouped) Keys() int { return len(g) }

// Events returns the total number of grouped observations.
func (g Grouped) Events() int64 {
	var n int64
	for _, run := range g {
		n += int64(len(run))
	}
	return n
}
