// Package state owns the pipeline's mutable run state: the single
// current dataset snapshot, and the per-run output directory layout.
package state

import (
	"errors"
	"fmt"

	"github.com/autoprep/autoprep/pkg/dataset"
	"github.com/autoprep/autoprep/pkg/telemetry"
)

// ErrEmptyDataset indicates the initial load produced zero data rows.
var ErrEmptyDataset = errors.New("dataset contains no data rows")

// Holder owns the single current dataset snapshot. Snapshots are
// replaced, never merged; the execution loop is the only writer, and a
// single logical thread drives it, so no synchronization is needed.
type Holder struct {
	log    *telemetry.Logger
	frame  dataset.Frame
	loaded bool
}

// NewHolder creates an empty holder.
func NewHolder(log *telemetry.Logger) *Holder {
	if log == nil {
		log = telemetry.Nop()
	}
	return &Holder{log: log.NewComponentLogger("state")}
}

// LoadInitial reads the initial dataset from a CSV file. A missing file,
// a parse error, and an empty result are distinguishable errors; the
// holder is left without a snapshot in every failure case.
func (h *Holder) LoadInitial(path string) error {
	frame, err := dataset.ReadFile(path)
	if err != nil {
		return err
	}
	if frame.NumRows() == 0 {
		return fmt.Errorf("%s: %w", path, ErrEmptyDataset)
	}
	h.frame = frame
	h.loaded = true
	h.log.Infof("loaded %s with %d rows and %d columns", path, frame.NumRows(), frame.NumCols())
	return nil
}

// Snapshot returns the current snapshot, or false when none exists.
func (h *Holder) Snapshot() (dataset.Frame, bool) {
	return h.frame, h.loaded
}

// Replace supersedes the current snapshot. Visible to subsequent reads
// immediately.
func (h *Holder) Replace(frame dataset.Frame) {
	h.frame = frame
	h.loaded = true
	h.log.Debugf("snapshot replaced, now %d rows and %d columns", frame.NumRows(), frame.NumCols())
}
