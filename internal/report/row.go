package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xtxerr/sessionstats/internal/metrics"
	"github.com/xtxerr/sessionstats/internal/source"
)

// labelDateFormat matches the "yyyy-m-d" halves of a date-range label.
const labelDateFormat = "2006-1-2"

// Row is one dated report row: a metric report tagged with its
// reporting period. Rows are immutable; derive new ones with NewRow.
type Row struct {
	Year       int
	Month      int
	Day        int
	PeriodDays int
	DateRange  string
	Metric     string

	Count int64
	Min   int64
	Max   int64

	// Bounds carries the quantile intervals in reporting order. Q is
	// not encoded on disk and is zero for parsed rows.
	Bounds []metrics.Bound
}

// NewRow builds the dated row for one metric report of a window.
func NewRow(w source.Window, rep metrics.Report) Row {
	return Row{
		Year:       w.Year,
		Month:      w.Month,
		Day:        w.Day,
		PeriodDays: w.PeriodDays,
		DateRange:  w.Label(),
		Metric:     rep.Name,
		Count:      rep.Count,
		Min:        rep.Min,
		Max:        rep.Max,
		Bounds:     rep.Bounds,
	}
}

// Line renders the row as one tab-separated report line.
func (r Row) Line() string {
	fields := []string{
		strconv.Itoa(r.Year),
		strconv.Itoa(r.Month),
		strconv.Itoa(r.Day),
		r.DateRange,
		r.Metric,
		strconv.FormatInt(r.Count, 10),
		strconv.FormatInt(r.Min, 10),
		strconv.FormatInt(r.Max, 10),
	}
	for _, b := range r.Bounds {
		fields = append(fields, fmt.Sprintf("(%d,%d)", b.Low, b.High))
	}
	return strings.Join(fields, "\t")
}

// ParseLine parses one report line. PeriodDays is recovered from the
// date-range label.
func ParseLine(line string) (Row, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 8 {
		return Row{}, fmt.Errorf("report line has %d fields, want at least 8", len(fields))
	}

	var r Row
	var err error
	if r.Year, err = strconv.Atoi(fields[0]); err != nil {
		return Row{}, fmt.Errorf("parse year: %w", err)
	}
	if r.Month, err = strconv.Atoi(fields[1]); err != nil {
		return Row{}, fmt.Errorf("parse month: %w", err)
	}
	if r.Day, err = strconv.Atoi(fields[2]); err != nil {
		return Row{}, fmt.Errorf("parse day: %w", err)
	}
	r.DateRange = fields[3]
	r.Metric = fields[4]
	if r.Count, err = strconv.ParseInt(fields[5], 10, 64); err != nil {
		return Row{}, fmt.Errorf("parse count: %w", err)
	}
	if r.Min, err = strconv.ParseInt(fields[6], 10, 64); err != nil {
		return Row{}, fmt.Errorf("parse min: %w", err)
	}
	if r.Max, err = strconv.ParseInt(fields[7], 10, 64); err != nil {
		return Row{}, fmt.Errorf("parse max: %w", err)
	}

	for _, field := range fields[8:] {
		var b metrics.Bound
		if _, err := fmt.Sscanf(field, "(%d,%d)", &b.Low, &b.High); err != nil {
			return Row{}, fmt.Errorf("parse quantile bounds %q: %w", field, err)
		}
		r.Bounds = append(r.Bounds, b)
	}

	if days, err := periodDaysFromLabel(r.DateRange); err == nil {
		r.PeriodDays = days
	}

	return r, nil
}

func periodDaysFromLabel(label string) (int, error) {
	parts := strings.Split(label, " -- ")
	if len(parts) != 2 {
		return 0, fmt.Errorf("malformed date-range label %q", label)
	}
	start, err := time.Parse(labelDateFormat, parts[0])
	if err != nil {
		return 0, err
	}
	end, err := time.Parse(labelDateFormat, parts[1])
	if err != nil {
		return 0, err
	}
	return int(end.Sub(start).Hours()/24) + 1, nil
}

// labelField extracts the date-range label from a report line without a
// full parse, so foreign rows can be filtered and preserved verbatim.
func labelField(line string) string {
	fields := strings.SplitN(line, "\t", 5)
	if len(fields) < 4 {
		return ""
	}
	return fields[3]
}
