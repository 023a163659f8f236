package state

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/autoprep/autoprep/pkg/dataset"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadInitial(t *testing.T) {
	h := NewHolder(nil)
	path := writeCSV(t, "a,b\n1,2\n3,4\n")

	if err := h.LoadInitial(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	frame, ok := h.Snapshot()
	if !ok {
		t.Fatal("expected a snapshot after load")
	}
	if frame.NumRows() != 2 || frame.NumCols() != 2 {
		t.Errorf("unexpected shape %s", frame.Shape())
	}
}

func TestLoadInitialEmptyDataset(t *testing.T) {
	h := NewHolder(nil)
	path := writeCSV(t, "a,b\n")

	err := h.LoadInitial(path)
	if !errors.Is(err, ErrEmptyDataset) {
		t.Fatalf("expected ErrEmptyDataset, got %v", err)
	}
	if _, ok := h.Snapshot(); ok {
		t.Error("no snapshot should exist after a failed load")
	}
}

func TestLoadInitialMissingFile(t *testing.T) {
	h := NewHolder(nil)
	if err := h.LoadInitial(filepath.Join(t.TempDir(), "nope.csv")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestSnapshotBeforeLoad(t *testing.T) {
	h := NewHolder(nil)
	if _, ok := h.Snapshot(); ok {
		t.Error("expected no snapshot before load")
	}
}

func TestReplace(t *testing.T) {
	h := NewHolder(nil)
	path := writeCSV(t, "a\n1\n2\n3\n")
	if err := h.LoadInitial(path); err != nil {
		t.Fatal(err)
	}

	next := dataset.Frame{Columns: []string{"a"}, Rows: [][]string{{"1"}}}
	h.Replace(next)

	frame, ok := h.Snapshot()
	if !ok {
		t.Fatal("expected snapshot after replace")
	}
	if !frame.Equal(next) {
		t.Errorf("snapshot not replaced: %+v", frame)
	}
}
