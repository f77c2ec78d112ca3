package source

import (
	"context"
	"path/filepath"
	"testing"
)

func TestWindow_Label(t *testing.T) {
	tests := []struct {
		name string
		w    Window
		want string
	}{
		{"thirty days", Window{2024, 3, 1, 30}, "2024-3-1 -- 2024-3-30"},
		{"single day", Window{2024, 12, 31, 1}, "2024-12-31 -- 2024-12-31"},
		{"month rollover", Window{2024, 1, 25, 10}, "2024-1-25 -- 2024-2-3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.w.Label(); got != tt.want {
				t.Errorf("Label() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWindow_Contains(t *testing.T) {
	w := Window{1970, 1, 1, 1} // [0, 86400)

	if !w.Contains(0) || !w.Contains(86399) {
		t.Error("window must contain its first and last second")
	}
	if w.Contains(-1) || w.Contains(86400) {
		t.Error("window must exclude timestamps outside its range")
	}
}

func TestParquetSource_RoundTrip(t *testing.T) {
	dir := t.TempDir()

	inWindow := []Event{
		{Key: "abc", Time: 1000, Qualifying: true},
		{Key: "abc", Time: 1500, Qualifying: true},
		{Key: "def", Time: 2000, Qualifying: false},
	}
	outOfWindow := []Event{
		{Key: "abc", Time: 90_000_000, Qualifying: true},
	}

	for i, batch := range [][]Event{inWindow, outOfWindow} {
		path := filepath.Join(dir, "events-"+string(rune('a'+i))+".parquet")
		w, err := NewEventWriter(path)
		if err != nil {
			t.Fatalf("create writer: %v", err)
		}
		if err := w.Write(batch); err != nil {
			t.Fatalf("write events: %v", err)
		}
		if err := w.Close(); err != nil {
			t.Fatalf("close writer: %v", err)
		}
	}

	src := NewParquetSource(dir)
	parts, err := src.Partitions(context.Background(), Window{1970, 1, 1, 30})
	if err != nil {
		t.Fatalf("partitions: %v", err)
	}

	// The out-of-window file yields no events and thus no partition.
	if len(parts) != 1 {
		t.Fatalf("expected 1 partition, got %d", len(parts))
	}
	if len(parts[0]) != len(inWindow) {
		t.Fatalf("expected %d events, got %d", len(inWindow), len(parts[0]))
	}
	for i, e := range parts[0] {
		if e != inWindow[i] {
			t.Errorf("event %d: got %+v, want %+v", i, e, inWindow[i])
		}
	}
}

func TestEventWriter_ClosedWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.parquet")
	w, err := NewEventWriter(path)
	if err != nil {
		t.Fatalf("create writer: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if err := w.Write([]Event{{Key: "k", Time: 1, Qualifying: true}}); err != ErrWriterClosed {
		t.Errorf("expected ErrWriterClosed, got %v", err)
	}
}

func TestParquetSource_EmptyDir(t *testing.T) {
	src := NewParquetSource(t.TempDir())
	parts, err := src.Partitions(context.Background(), Window{2024, 1, 1, 30})
	if err != nil {
		t.Fatalf("partitions: %v", err)
	}
	if len(parts) != 0 {
		t.Errorf("expected no partitions, got %d", len(parts))
	}
}
