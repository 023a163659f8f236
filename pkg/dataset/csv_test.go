package dataset

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func TestReadBasic(t *testing.T) {
	input := "name,age,city\nalice,30,paris\nbob,25,london\n"

	frame, err := Read(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := frame.NumCols(); got != 3 {
		t.Errorf("expected 3 columns, got %d", got)
	}
	if got := frame.NumRows(); got != 2 {
		t.Errorf("expected 2 rows, got %d", got)
	}
	if frame.Rows[1][2] != "london" {
		t.Errorf("unexpected cell value %q", frame.Rows[1][2])
	}
}

func TestReadEdgeCases(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		rows    int
		wantErr bool
	}{
		{"header only", "a,b,c\n", 0, false},
		{"empty input", "", 0, true},
		{"quoted comma", "a,b\n\"x,y\",z\n", 1, false},
		{"short row padded", "a,b,c\n1,2\n", 1, false},
		{"long row rejected", "a,b\n1,2,3\n", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, err := Read(strings.NewReader(tt.input))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if frame.NumRows() != tt.rows {
				t.Errorf("expected %d rows, got %d", tt.rows, frame.NumRows())
			}
		})
	}
}

func TestReadNoHeader(t *testing.T) {
	if _, err := Read(strings.NewReader("")); !errors.Is(err, ErrNoHeader) {
		t.Errorf("expected ErrNoHeader, got %v", err)
	}
}

func TestReadPadsShortRows(t *testing.T) {
	frame, err := Read(strings.NewReader("a,b,c\n1,2\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(frame.Rows[0]) != 3 {
		t.Fatalf("expected padded row of 3 cells, got %d", len(frame.Rows[0]))
	}
	if frame.Rows[0][2] != "" {
		t.Errorf("expected empty padding cell, got %q", frame.Rows[0][2])
	}
}

func TestWriteRoundTrip(t *testing.T) {
	original := Frame{
		Columns: []string{"id", "note"},
		Rows: [][]string{
			{"1", "plain"},
			{"2", "has,comma"},
			{"3", "has \"quotes\""},
		},
	}

	var buf bytes.Buffer
	if err := Write(&buf, original); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	parsed, err := Read(&buf)
	if err != nil {
		t.Fatalf("read back failed: %v", err)
	}
	if !parsed.Equal(original) {
		t.Errorf("round trip mismatch:\noriginal: %+v\nparsed: %+v", original, parsed)
	}
}

func TestWriteRejectsRaggedFrame(t *testing.T) {
	ragged := Frame{
		Columns: []string{"a", "b"},
		Rows:    [][]string{{"1"}},
	}
	var buf bytes.Buffer
	if err := Write(&buf, ragged); err == nil {
		t.Fatal("expected validation error for ragged frame")
	}
}

func TestFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	frame := Frame{
		Columns: []string{"x", "y"},
		Rows:    [][]string{{"1", "2"}, {"3", ""}},
	}

	if err := WriteFile(path, frame); err != nil {
		t.Fatalf("write file failed: %v", err)
	}
	loaded, err := ReadFile(path)
	if err != nil {
		t.Fatalf("read file failed: %v", err)
	}
	if !loaded.Equal(frame) {
		t.Errorf("file round trip mismatch: %+v", loaded)
	}
}

func TestReadFileMissing(t *testing.T) {
	if _, err := ReadFile(filepath.Join(t.TempDir(), "absent.csv")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
