package source

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/marcboeker/go-duckdb"

	apperrors "github.com/xtxerr/sessionstats/internal/errors"
	"github.com/xtxerr/sessionstats/internal/logging"
)

// DuckDBSource reads events from a DuckDB table or view through
// database/sql. The window is split into one partition per day so the
// downstream fold gets useful parallelism.
//
// The table must expose the columns key (VARCHAR), ts (BIGINT, seconds
// since epoch) and qualifying (BOOLEAN). A view over read_parquet() works
// as well as a plain table.
type DuckDBSource struct {
	db    *sql.DB
	table string
	log   *slog.Logger
}

// NewDuckDBSource opens a DuckDB database. An empty dsn opens an
// in-memory database, which is only useful together with a view over
// external files.
func NewDuckDBSource(dsn, table string) (*DuckDBSource, error) {
	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	return &DuckDBSource{
		db:    db,
		table: table,
		log:   logging.Component("source"),
	}, nil
}

// Close closes the underlying database.
func (s *DuckDBSource) Close() error {
	return s.db.Close()
}

// Partitions queries one day of events at a time and returns the
// non-empty days as partitions.
func (s *DuckDBSource) Partitions(ctx context.Context, w Window) ([][]Event, error) {
	query := fmt.Sprintf(
		"SELECT key, ts, qualifying FROM %s WHERE ts >= ? AND ts < ?", s.table)

	start := w.Start()
	var parts [][]Event
	for day := 0; day < w.PeriodDays; day++ {
		lo := start.AddDate(0, 0, day).Unix()
		hi := start.AddDate(0, 0, day+1).Unix()

		events, err := s.queryRange(ctx, query, lo, hi)
		if err != nil {
			return nil, fmt.Errorf("query day %d: %v: %w", day, err, apperrors.ErrStorageRead)
		}
		s.log.Debug("read event day", "day", day, "events", len(events))
		if len(events) > 0 {
			parts = append(parts, events)
		}
	}

	return parts, nil
}

func (s *DuckDBSource) queryRange(ctx context.Context, query string, lo, hi int64) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, query, lo, hi)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.Key, &e.Time, &e.Qualifying); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
