// Package report persists session metric reports as newline-delimited,
// tab-separated rows, one per (date-range label, metric name) pair.
//
// Merging a run's rows is a full read-filter-concatenate-rewrite: rows
// carrying the run's own label are replaced, every other row is kept
// byte-for-byte. The rewrite goes through a temporary file in the report
// directory followed by an atomic rename, so a failed run leaves the
// previous report untouched.
package report
