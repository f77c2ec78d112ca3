package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/parquet-go/parquet-go"

	apperrors "github.com/xtxerr/sessionstats/internal/errors"
	"github.com/xtxerr/sessionstats/internal/logging"
)

// EventRow is the Parquet schema for raw events.
type EventRow struct {
	Key        string `parquet:"key,zstd"`
	TimestampS int64  `parquet:"timestamp_s"`
	Qualifying bool   `parquet:"qualifying"`
}

// ParquetSource reads events from a directory of Parquet files. Each
// file becomes one input partition.
type ParquetSource struct {
	dir string
	log *slog.Logger
}

// NewParquetSource creates a source over dir/*.parquet.
func NewParquetSource(dir string) *ParquetSource {
	return &ParquetSource{
		dir: dir,
		log: logging.Component("source"),
	}
}

// Partitions reads every Parquet file in the directory and returns one
// partition per file, filtered to the window's time range.
func (s *ParquetSource) Partitions(ctx context.Context, w Window) ([][]Event, error) {
	files, err := filepath.Glob(filepath.Join(s.dir, "*.parquet"))
	if err != nil {
		return nil, apperrors.Wrap(err, "list event files")
	}

	var parts [][]Event
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		events, err := s.readFile(path, w)
		if err != nil {
			return nil, fmt.Errorf("read %s: %v: %w", path, err, apperrors.ErrStorageRead)
		}
		s.log.Debug("read event file", "path", path, "events", len(events))
		if len(events) > 0 {
			parts = append(parts, events)
		}
	}

	return parts, nil
}

func (s *ParquetSource) readFile(path string, w Window) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	reader := parquet.NewGenericReader[EventRow](f, parquet.ReadBufferSize(1024*1024))
	defer reader.Close()

	var events []Event
	buf := make([]EventRow, 4096)
	for {
		n, err := reader.Read(buf)
		for i := 0; i < n; i++ {
			row := buf[i]
			if !w.Contains(row.TimestampS) {
				continue
			}
			events = append(events, Event{
				Key:        row.Key,
				Time:       row.TimestampS,
				Qualifying: row.Qualifying,
			})
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read rows: %w", err)
		}
	}

	return events, nil
}

// EventWriter writes events to a Parquet file. It is used to produce
// fixtures and demo inputs for the Parquet source.
type EventWriter struct {
	mu       sync.Mutex
	path     string
	file     *os.File
	writer   *parquet.GenericWriter[EventRow]
	rowCount int64
	closed   bool
}

// NewEventWriter creates a Parquet event writer at path.
func NewEventWriter(path string) (*EventWriter, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create file: %w", err)
	}

	writer := parquet.NewGenericWriter[EventRow](f, parquet.Compression(&parquet.Zstd))

	return &EventWriter{
		path:   path,
		file:   f,
		writer: writer,
	}, nil
}

// Write writes events to the Parquet file.
func (w *EventWriter) Write(events []Event) error {
	if len(events) == 0 {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWriterClosed
	}

	rows := make([]EventRow, len(events))
	for i, e := range events {
		rows[i] = EventRow{
			Key:        e.Key,
			TimestampS: e.Time,
			Qualifying: e.Qualifying,
		}
	}

	n, err := w.writer.Write(rows)
	if err != nil {
		return fmt.Errorf("write rows: %w", err)
	}

	w.rowCount += int64(n)
	return nil
}

// Close closes the writer.
func (w *EventWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	if err := w.writer.Close(); err != nil {
		w.file.Close()
		return fmt.Errorf("close writer: %w", err)
	}

	return w.file.Close()
}

// RowCount returns the number of rows written.
func (w *EventWriter) RowCount() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rowCount
}

// ErrWriterClosed is returned when writing to a closed writer.
var ErrWriterClosed = fmt.Errorf("event writer is closed")
