// Package source provides event sources for session metric runs.
//
// A Source yields raw (key, timestamp, qualifying) events for a selected
// reporting window, split into partitions that downstream stages fold in
// parallel. Two implementations are provided: a Parquet directory source
// and a DuckDB SQL source.
package source

import (
	"context"
	"fmt"
	"time"
)

// Event is one raw input record.
type Event struct {
	// Key identifies the subject (a session/device token). Records with
	// an empty key are dropped downstream.
	Key string

	// Time is seconds since epoch. Negative values are dropped
	// downstream as malformed.
	Time int64

	// Qualifying marks records that count toward session metrics.
	Qualifying bool
}

// Window selects the reporting period: PeriodDays days starting at
// Year-Month-Day (UTC).
type Window struct {
	Year       int
	Month      int
	Day        int
	PeriodDays int
}

// Start returns the inclusive start of the window.
func (w Window) Start() time.Time {
	return time.Date(w.Year, time.Month(w.Month), w.Day, 0, 0, 0, 0, time.UTC)
}

// End returns the exclusive end of the window.
func (w Window) End() time.Time {
	return w.Start().AddDate(0, 0, w.PeriodDays)
}

// Contains reports whether the timestamp falls inside the window.
func (w Window) Contains(ts int64) bool {
	return ts >= w.Start().Unix() && ts < w.End().Unix()
}

// Label returns the date-range label identifying this reporting period,
// in the form "yyyy-m-d -- yyyy-m-d" (both days inclusive). The label is
// the deduplication key when merging report rows.
func (w Window) Label() string {
	start := w.Start()
	end := start.AddDate(0, 0, w.PeriodDays-1)
	return fmt.Sprintf("%d-%d-%d -- %d-%d-%d",
		start.Year(), int(start.Month()), start.Day(),
		end.Year(), int(end.Month()), end.Day())
}

// Source yields the raw events of a reporting window, partitioned for
// parallel folding. Partition boundaries carry no meaning; any grouping
// of the same events must produce the same final report.
type Source interface {
	Partitions(ctx context.Context, w Window) ([][]Event, error)
}
