package report

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/xtxerr/sessionstats/internal/errors"
	"github.com/xtxerr/sessionstats/internal/logging"
)

// Store merges run results into the persisted cumulative report file.
// Exactly one writer per report file is assumed; concurrent runs
// against the same file are unsupported.
type Store struct {
	path string
	log  *slog.Logger
}

// NewStore creates a store over the report file at path. The file may
// not exist yet.
func NewStore(path string) *Store {
	return &Store{
		path: path,
		log:  logging.Component("report"),
	}
}

// Path returns the report file path.
func (s *Store) Path() string { return s.path }

// Load returns the persisted report lines. A missing file is an empty
// report; any other read failure matches errors.ErrStorageRead and must
// abort the run before the rewrite.
func (s *Store) Load() ([]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read report %s: %v: %w", s.path, err, apperrors.ErrStorageRead)
	}

	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines, nil
}

// Rows returns the persisted report parsed into rows.
func (s *Store) Rows() ([]Row, error) {
	lines, err := s.Load()
	if err != nil {
		return nil, err
	}

	rows := make([]Row, 0, len(lines))
	for i, line := range lines {
		row, err := ParseLine(line)
		if err != nil {
			return nil, fmt.Errorf("report line %d: %v: %w", i+1, err, apperrors.ErrStorageRead)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Merge replaces the rows of the given date-range label with newRows and
// rewrites the whole report atomically. Rows of other periods are kept
// byte-for-byte, so merging the same rows for the same label twice is a
// no-op after the first time.
func (s *Store) Merge(newRows []Row, label string) error {
	existing, err := s.Load()
	if err != nil {
		return err
	}

	kept := make([]string, 0, len(existing)+len(newRows))
	replaced := 0
	for _, line := range existing {
		if labelField(line) == label {
			replaced++
			continue
		}
		kept = append(kept, line)
	}
	for _, row := range newRows {
		kept = append(kept, row.Line())
	}

	if err := s.writeAtomic(kept); err != nil {
		return err
	}

	s.log.Info("report merged",
		"path", s.path,
		"label", label,
		"new_rows", len(newRows),
		"replaced_rows", replaced,
		"kept_rows", len(kept)-len(newRows),
	)
	return nil
}

// writeAtomic writes the full report to a temporary file in the report
// directory and renames it into place. The previous report stays intact
// unless the rename succeeds.
func (s *Store) writeAtomic(lines []string) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create report directory: %v: %w", err, apperrors.ErrStorageWrite)
	}

	tmp, err := os.CreateTemp(dir, ".report-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp report: %v: %w", err, apperrors.ErrStorageWrite)
	}
	tmpPath := tmp.Name()

	var content string
	if len(lines) > 0 {
		content = strings.Join(lines, "\n") + "\n"
	}

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp report: %v: %w", err, apperrors.ErrStorageWrite)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("sync temp report: %v: %w", err, apperrors.ErrStorageWrite)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp report: %v: %w", err, apperrors.ErrStorageWrite)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace report: %v: %w", err, apperrors.ErrStorageWrite)
	}
	return nil
}
