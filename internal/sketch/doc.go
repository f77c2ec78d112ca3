// Package sketch implements a mergeable approximate rank summary over an
// int64 multiset.
//
// The summary is a histogram of power-of-two buckets. It starts at exact
// integer resolution and doubles the bucket width whenever the population
// of buckets would exceed 2^k, where k is the resolution level. The state
// is therefore always the exact histogram of the input multiset at the
// current width, which makes the result of any sequence of Insert and
// Merge operations independent of insertion and merge order.
//
// QuantileBounds returns an interval guaranteed to contain the true
// q-quantile of every inserted value. Count, Min and Max are exact.
package sketch
