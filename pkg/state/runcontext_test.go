package state

import (
	"os"
	"strings"
	"testing"

	"github.com/autoprep/autoprep/pkg/dataset"
)

func TestNewRunContextLayout(t *testing.T) {
	root := t.TempDir()
	rc, err := NewRunContext(root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.HasPrefix(rc.RunID, "run_") {
		t.Errorf("unexpected run id %q", rc.RunID)
	}
	for _, dir := range []string{rc.DataDir, rc.PlotsDir, rc.ReportsDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("missing directory %s: %v", dir, err)
		}
		if !info.IsDir() {
			t.Errorf("%s is not a directory", dir)
		}
	}
}

func TestNewRunContextUniqueness(t *testing.T) {
	root := t.TempDir()
	a, err := NewRunContext(root)
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewRunContext(root)
	if err != nil {
		t.Fatal(err)
	}
	if a.RunID == b.RunID {
		t.Errorf("two runs share id %q", a.RunID)
	}
	if a.Dir == b.Dir {
		t.Errorf("two runs share directory %q", a.Dir)
	}
}

func TestSaveSnapshotAndReport(t *testing.T) {
	rc, err := NewRunContext(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	frame := dataset.Frame{Columns: []string{"a"}, Rows: [][]string{{"1"}}}
	path, err := rc.SaveSnapshot("cleaned.csv", frame)
	if err != nil {
		t.Fatalf("save snapshot failed: %v", err)
	}
	loaded, err := dataset.ReadFile(path)
	if err != nil {
		t.Fatalf("read back failed: %v", err)
	}
	if !loaded.Equal(frame) {
		t.Error("snapshot round trip mismatch")
	}

	reportPath, err := rc.SaveReport("report.md", "# Report\n")
	if err != nil {
		t.Fatalf("save report failed: %v", err)
	}
	content, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "# Report\n" {
		t.Errorf("unexpected report content %q", content)
	}
}
