// Package dataset provides the tabular value type that flows through the
// pipeline: an ordered set of named columns over ordered rows, loaded from
// and persisted to CSV. It also computes the dataset profile that seeds
// plan generation.
package dataset

import (
	"fmt"
)

// Frame is a tabular dataset snapshot. Values are held as text; the CSV
// transfer format carries no type information, so typing is inferred at
// the profile layer rather than stored here. Exactly one Frame is current
// at any point in a pipeline run.
type Frame struct {
	// Columns are the ordered column names from the header row.
	Columns []string `json:"columns"`

	// Rows are the ordered data rows. Every row has len(Columns) cells.
	Rows [][]string `json:"rows"`
}

// NumRows returns the number of data rows (excluding the header).
func (f Frame) NumRows() int {
	return len(f.Rows)
}

// NumCols returns the number of columns.
func (f Frame) NumCols() int {
	return len(f.Columns)
}

// Shape returns the frame dimensions as "(rows, cols)".
func (f Frame) Shape() string {
	return fmt.Sprintf("(%d, %d)", f.NumRows(), f.NumCols())
}

// ColumnIndex returns the position of the named column, or -1 if the
// frame has no such column.
func (f Frame) ColumnIndex(name string) int {
	for i, c := range f.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Head returns a copy of the first n rows (all rows if the frame is
// shorter). The header is shared with the receiver.
func (f Frame) Head(n int) Frame {
	if n > len(f.Rows) {
		n = len(f.Rows)
	}
	rows := make([][]string, n)
	copy(rows, f.Rows[:n])
	return Frame{Columns: f.Columns, Rows: rows}
}

// Clone returns a deep copy of the frame.
func (f Frame) Clone() Frame {
	cols := make([]string, len(f.Columns))
	copy(cols, f.Columns)
	rows := make([][]string, len(f.Rows))
	for i, r := range f.Rows {
		row := make([]string, len(r))
		copy(row, r)
		rows[i] = row
	}
	return Frame{Columns: cols, Rows: rows}
}

// Equal reports whether two frames have identical columns, row count,
// and cell values.
func (f Frame) Equal(other Frame) bool {
	if len(f.Columns) != len(other.Columns) || len(f.Rows) != len(other.Rows) {
		return false
	}
	for i, c := range f.Columns {
		if other.Columns[i] != c {
			return false
		}
	}
	for i, r := range f.Rows {
		if len(r) != len(other.Rows[i]) {
			return false
		}
		for j, v := range r {
			if other.Rows[i][j] != v {
				return false
			}
		}
	}
	return true
}

// Validate checks the structural invariant that every row has exactly
// one cell per column.
func (f Frame) Validate() error {
	for i, r := range f.Rows {
		if len(r) != len(f.Columns) {
			return fmt.Errorf("row %d has %d cells, expected %d", i, len(r), len(f.Columns))
		}
	}
	return nil
}
