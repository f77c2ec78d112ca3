package sketch

import (
	"math"
	"slices"
)

// DefaultResolution is the default resolution level k.
const DefaultResolution = 8

// Sketch summarizes an int64 multiset with at most 2^k power-of-two
// buckets. The zero value is not usable; call New.
//
// Insert mutates the receiver and is meant for partition-local
// accumulation. Merge is pure and must be used when combining sketches
// built independently on different partitions.
type Sketch struct {
	resolution int  // level k; bucket population capped at 2^k
	width      uint // log2 of the current bucket width

	buckets map[int64]int64 // value>>width -> count

	// Exact statistics, tracked alongside the histogram.
	count int64
	min   int64
	max   int64
}

// New creates an empty sketch with resolution level k.
// Values of k outside [1,30] fall back to DefaultResolution.
func New(k int) *Sketch {
	if k < 1 || k > 30 {
		k = DefaultResolution
	}
	return &Sketch{
		resolution: k,
		buckets:    make(map[int64]int64),
	}
}

// Insert adds one observation to the sketch.
func (s *Sketch) Insert(v int64) {
	if s.count == 0 {
		s.min, s.max = v, v
	} else {
		if v < s.min {
			s.min = v
		}
		if v > s.max {
			s.max = v
		}
	}

	s.buckets[v>>s.width]++
	s.count++
	s.collapse()
}

// Merge returns a new sketch representing the union of the two input
// multisets. Neither input is modified. If the resolutions differ, the
// coarser (smaller) level wins so that merge stays commutative.
func (s *Sketch) Merge(o *Sketch) *Sketch {
	if o == nil || o.count == 0 {
		return s.clone()
	}
	if s.count == 0 {
		return o.clone()
	}

	m := &Sketch{
		resolution: s.resolution,
		width:      s.width,
		count:      s.count + o.count,
		min:        s.min,
		max:        s.max,
	}
	if o.resolution < m.resolution {
		m.resolution = o.resolution
	}
	if o.width > m.width {
		m.width = o.width
	}
	if o.min < m.min {
		m.min = o.min
	}
	if o.max > m.max {
		m.max = o.max
	}

	m.buckets = make(map[int64]int64, len(s.buckets)+len(o.buckets))
	for _, src := range []*Sketch{s, o} {
		shift := m.width - src.width
		for idx, c := range src.buckets {
			m.buckets[idx>>shift] += c
		}
	}

	m.collapse()
	return m
}

// QuantileBounds returns an interval (low, high) that contains the true
// q-quantile of all inserted values. q is clamped to [0,1]. The sketch
// must be non-empty; an empty sketch yields (0, 0).
func (s *Sketch) QuantileBounds(q float64) (int64, int64) {
	if s.count == 0 {
		return 0, 0
	}
	if q < 0 {
		q = 0
	} else if q > 1 {
		q = 1
	}

	// 1-indexed rank of the q-quantile in the sorted multiset.
	rank := int64(math.Ceil(q * float64(s.count)))
	if rank < 1 {
		rank = 1
	}
	if rank > s.count {
		rank = s.count
	}

	idxs := make([]int64, 0, len(s.buckets))
	for idx := range s.buckets {
		idxs = append(idxs, idx)
	}
	slices.Sort(idxs)

	var cum int64
	for _, idx := range idxs {
		cum += s.buckets[idx]
		if cum >= rank {
			low := idx << s.width
			high := low + (int64(1) << s.width) - 1
			if low < s.min {
				low = s.min
			}
			if high > s.max {
				high = s.max
			}
			return low, high
		}
	}

	return s.min, s.max
}

// Count returns the exact number of inserted values.
func (s *Sketch) Count() int64 { return s.count }

// Min returns the exact minimum. Only meaningful when Count() > 0.
func (s *Sketch) Min() int64 { return s.min }

// Max returns the exact maximum. Only meaningful when Count() > 0.
func (s *Sketch) Max() int64 { return s.max }

// Resolution returns the resolution level k.
func (s *Sketch) Resolution() int { return s.resolution }

// BucketWidth returns the current bucket width, which bounds the error
// of QuantileBounds.
func (s *Sketch) BucketWidth() int64 { return int64(1) << s.width }

// collapse doubles the bucket width until the population fits the cap.
// The width only grows when it has to, so for a given multiset the final
// width is the smallest that fits, regardless of how the multiset was
// assembled.
func (s *Sketch) collapse() {
	limit := 1 << s.resolution
	for len(s.buckets) > limit {
		next := make(map[int64]int64, (len(s.buckets)+1)/2)
		for idx, c := range s.buckets {
			next[idx>>1] += c
		}
		s.buckets = next
		s.width++
	}
}

func (s *Sketch) clone() *Sketch {
	c := &Sketch{
		resolution: s.resolution,
		width:      s.width,
		count:      s.count,
		min:        s.min,
		max:        s.max,
		buckets:    make(map[int64]int64, len(s.buckets)),
	}
	for idx, n := range s.buckets {
		c.buckets[idx] = n
	}
	return c
}
