package state

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/autoprep/autoprep/pkg/dataset"
)

// RunContext is the per-run output layout: a uniquely named directory
// holding data snapshots, visual artifacts, and text reports. It is
// constructed once per pipeline invocation and threaded explicitly
// through the orchestration, never accessed as ambient state. Concurrent
// runs get disjoint directories; the uuid suffix keeps two runs started
// in the same second apart.
type RunContext struct {
	// RunID is the unique, timestamp-keyed run identifier.
	RunID string

	// Dir is the run's root directory.
	Dir string

	// DataDir holds dataset snapshots.
	DataDir string

	// PlotsDir holds visual artifacts.
	PlotsDir string

	// ReportsDir holds text reports.
	ReportsDir string
}

// NewRunContext creates the run directory tree under outputRoot.
func NewRunContext(outputRoot string) (*RunContext, error) {
	runID := fmt.Sprintf("run_%s_%s", time.Now().Format("20060102_150405"), uuid.NewString()[:8])
	dir := filepath.Join(outputRoot, runID)

	rc := &RunContext{
		RunID:      runID,
		Dir:        dir,
		DataDir:    filepath.Join(dir, "data"),
		PlotsDir:   filepath.Join(dir, "plots"),
		ReportsDir: filepath.Join(dir, "reports"),
	}
	for _, d := range []string{rc.DataDir, rc.PlotsDir, rc.ReportsDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create run directory %s: %w", d, err)
		}
	}
	return rc, nil
}

// SaveSnapshot writes a dataset snapshot into the data directory and
// returns the file path.
func (rc *RunContext) SaveSnapshot(name string, frame dataset.Frame) (string, error) {
	path := filepath.Join(rc.DataDir, name)
	if err := dataset.WriteFile(path, frame); err != nil {
		return "", err
	}
	return path, nil
}

// SaveReport writes a text report into the reports directory and returns
// the file path.
func (rc *RunContext) SaveReport(name, content string) (string, error) {
	path := filepath.Join(rc.ReportsDir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write report %s: %w", path, err)
	}
	return path, nil
}

// SaveArtifact writes a binary artifact (a rendered plot, typically)
// into the plots directory and returns the file path.
func (rc *RunContext) SaveArtifact(name string, data []byte) (string, error) {
	path := filepath.Join(rc.PlotsDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write artifact %s: %w", path, err)
	}
	return path, nil
}
