package dataset

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// headSampleRows is the number of rows included in the profile sample.
const headSampleRows = 5

// Profile summarizes a frame for plan generation: shape, a head sample,
// per-column missing-value counts, numeric descriptive statistics, and
// distinct counts.
type Profile struct {
	// Rows is the number of data rows.
	Rows int `json:"rows"`

	// Cols is the number of columns.
	Cols int `json:"cols"`

	// SampleHead holds up to the first five rows as column->value maps.
	SampleHead []map[string]string `json:"sample_head"`

	// Columns holds per-column statistics in column order.
	Columns []ColumnProfile `json:"columns"`
}

// ColumnProfile describes a single column.
type ColumnProfile struct {
	// Name is the column name.
	Name string `json:"name"`

	// Missing is the count of empty cells.
	Missing int `json:"missing"`

	// MissingPct is Missing as a percentage of the row count,
	// rounded to two decimals.
	MissingPct float64 `json:"missing_pct"`

	// Distinct is the number of distinct non-missing values.
	Distinct int `json:"distinct"`

	// Numeric holds descriptive statistics when every non-missing
	// value parses as a number, nil otherwise.
	Numeric *NumericSummary `json:"numeric,omitempty"`
}

// NumericSummary holds descriptive statistics for a numeric column.
type NumericSummary struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// NewProfile computes the profile of a frame.
func NewProfile(f Frame) Profile {
	p := Profile{
		Rows:       f.NumRows(),
		Cols:       f.NumCols(),
		SampleHead: make([]map[string]string, 0, headSampleRows),
	}

	head := f.Head(headSampleRows)
	for _, row := range head.Rows {
		sample := make(map[string]string, len(f.Columns))
		for i, col := range f.Columns {
			sample[col] = row[i]
		}
		p.SampleHead = append(p.SampleHead, sample)
	}

	for i, col := range f.Columns {
		p.Columns = append(p.Columns, profileColumn(f, i, col))
	}
	return p
}

// JSON renders the profile for inclusion in a planning prompt.
func (p Profile) JSON() (string, error) {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func profileColumn(f Frame, idx int, name string) ColumnProfile {
	cp := ColumnProfile{Name: name}
	distinct := make(map[string]struct{})
	var values []float64
	numeric := true

	for _, row := range f.Rows {
		cell := row[idx]
		if isMissing(cell) {
			cp.Missing++
			continue
		}
		distinct[cell] = struct{}{}
		if numeric {
			// ParseFloat accepts "NaN" and "Inf" literals; those are not
			// meaningful measurements, so they disqualify the column.
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
				numeric = false
			} else {
				values = append(values, v)
			}
		}
	}

	cp.Distinct = len(distinct)
	if f.NumRows() > 0 {
		cp.MissingPct = math.Round(float64(cp.Missing)/float64(f.NumRows())*10000) / 100
	}
	if numeric && len(values) > 0 {
		cp.Numeric = describe(values)
	}
	return cp
}

func isMissing(cell string) bool {
	return strings.TrimSpace(cell) == ""
}

func describe(values []float64) *NumericSummary {
	s := &NumericSummary{
		Count: len(values),
		Min:   values[0],
		Max:   values[0],
	}
	var sum float64
	for _, v := range values {
		sum += v
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
	}
	s.Mean = sum / float64(len(values))

	// Sample standard deviation, matching pandas describe().
	if len(values) > 1 {
		var sq float64
		for _, v := range values {
			d := v - s.Mean
			sq += d * d
		}
		s.Std = math.Sqrt(sq / float64(len(values)-1))
	}
	return s
}
