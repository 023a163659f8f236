package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrNoHeader indicates the CSV source contained no header row at all.
var ErrNoHeader = errors.New("csv source has no header row")

// Read parses comma-separated tabular text with a header row into a
// Frame. Cell values round-trip as text; quoting and embedded commas
// follow RFC 4180 via encoding/csv.
func Read(r io.Reader) (Frame, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return Frame{}, ErrNoHeader
	}
	if err != nil {
		return Frame{}, fmt.Errorf("failed to read header: %w", err)
	}

	frame := Frame{Columns: header}
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Frame{}, fmt.Errorf("failed to read row %d: %w", len(frame.Rows)+1, err)
		}
		// Pandas pads short rows with NaN; mirror that so its output
		// always deserializes.
		if len(record) < len(header) {
			padded := make([]string, len(header))
			copy(padded, record)
			record = padded
		}
		if len(record) > len(header) {
			return Frame{}, fmt.Errorf("row %d has %d cells, expected %d", len(frame.Rows)+1, len(record), len(header))
		}
		frame.Rows = append(frame.Rows, record)
	}
	return frame, nil
}

// Write serializes the frame as CSV with a header row.
func Write(w io.Writer, f Frame) error {
	if err := f.Validate(); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(f.Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, row := range f.Rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadFile loads a CSV file into a Frame.
func ReadFile(path string) (Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return Frame{}, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer file.Close()

	frame, err := Read(file)
	if err != nil {
		return Frame{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return frame, nil
}

// WriteFile persists the frame as a CSV file.
func WriteFile(path string, f Frame) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	if err := Write(file, f); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return file.Sync()
}
