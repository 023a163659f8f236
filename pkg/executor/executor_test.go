package executor

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/autoprep/autoprep/pkg/dataset"
)

// stubInterpreter writes an executable shell script that stands in for
// the Python interpreter. It runs with the transfer directory as cwd, so
// it can read input.csv and write output.csv directly.
func stubInterpreter(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stub.sh")
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func inputFrame() dataset.Frame {
	return dataset.Frame{
		Columns: []string{"a", "b"},
		Rows:    [][]string{{"1", "2"}, {"3", "4"}},
	}
}

func newTestExecutor(t *testing.T, interpreter string, timeout time.Duration) *PythonExecutor {
	t.Helper()
	e, err := NewPythonExecutor(Config{
		Interpreter: interpreter,
		Timeout:     timeout,
		WorkDir:     t.TempDir(),
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = e.Cleanup() })
	return e
}

func TestExecuteSuccess(t *testing.T) {
	stub := stubInterpreter(t, `cp input.csv output.csv
echo "transformation completed successfully"`)
	e := newTestExecutor(t, stub, 0)

	result, err := e.Execute(context.Background(), "df = df", inputFrame())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Succeeded {
		t.Fatalf("expected success, got failure: %s", result.ErrorText)
	}
	if !result.Frame.Equal(inputFrame()) {
		t.Errorf("unexpected output frame %+v", result.Frame)
	}
	if !strings.Contains(result.ConsoleOutput, "completed successfully") {
		t.Errorf("missing console output: %q", result.ConsoleOutput)
	}
}

func TestExecuteNonzeroExit(t *testing.T) {
	stub := stubInterpreter(t, `echo "Traceback (most recent call last):" >&2
echo "KeyError: 'price'" >&2
exit 1`)
	e := newTestExecutor(t, stub, 0)

	result, err := e.Execute(context.Background(), "df = df", inputFrame())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Succeeded {
		t.Fatal("expected failure")
	}
	if result.ExitCode != 1 {
		t.Errorf("expected exit code 1, got %d", result.ExitCode)
	}
	if !strings.Contains(result.ErrorText, "KeyError") {
		t.Errorf("expected stderr as error text, got %q", result.ErrorText)
	}
}

func TestExecuteStdoutFallback(t *testing.T) {
	stub := stubInterpreter(t, `echo "error printed to stdout"
exit 2`)
	e := newTestExecutor(t, stub, 0)

	result, err := e.Execute(context.Background(), "df = df", inputFrame())
	if err != nil {
		t.Fatal(err)
	}
	if result.Succeeded {
		t.Fatal("expected failure")
	}
	if !strings.Contains(result.ErrorText, "error printed to stdout") {
		t.Errorf("expected stdout fallback, got %q", result.ErrorText)
	}
}

func TestExecuteMissingOutputIsFailure(t *testing.T) {
	// Exit 0 but no output artifact.
	stub := stubInterpreter(t, `echo "forgot to write output"`)
	e := newTestExecutor(t, stub, 0)

	result, err := e.Execute(context.Background(), "df = df", inputFrame())
	if err != nil {
		t.Fatal(err)
	}
	if result.Succeeded {
		t.Fatal("expected failure when no output artifact exists")
	}
	if result.ErrorText == "" {
		t.Error("expected non-empty error text")
	}
}

func TestExecuteTimeout(t *testing.T) {
	stub := stubInterpreter(t, "sleep 5")
	e := newTestExecutor(t, stub, 100*time.Millisecond)

	result, err := e.Execute(context.Background(), "df = df", inputFrame())
	if err != nil {
		t.Fatal(err)
	}
	if result.Succeeded {
		t.Fatal("expected timeout failure")
	}
	if !strings.Contains(result.ErrorText, "timed out") {
		t.Errorf("expected timeout message, got %q", result.ErrorText)
	}
}

func TestExecuteSpawnFailure(t *testing.T) {
	e := newTestExecutor(t, filepath.Join(t.TempDir(), "no-such-binary"), 0)

	if _, err := e.Execute(context.Background(), "df = df", inputFrame()); err == nil {
		t.Fatal("expected machinery error for unspawnable interpreter")
	}
}

func TestExecuteIsolatedTransferDirs(t *testing.T) {
	stub := stubInterpreter(t, "cp input.csv output.csv")
	e := newTestExecutor(t, stub, 0)

	for i := 0; i < 2; i++ {
		if _, err := e.Execute(context.Background(), "df = df", inputFrame()); err != nil {
			t.Fatal(err)
		}
	}
	entries, err := os.ReadDir(e.scratch)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Errorf("expected 2 transfer directories, got %d", len(entries))
	}
}

func TestCleanupRemovesScratch(t *testing.T) {
	stub := stubInterpreter(t, "cp input.csv output.csv")
	e := newTestExecutor(t, stub, 0)

	if _, err := e.Execute(context.Background(), "df = df", inputFrame()); err != nil {
		t.Fatal(err)
	}
	if err := e.Cleanup(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(e.scratch); !os.IsNotExist(err) {
		t.Error("scratch directory should be gone after cleanup")
	}
}

func TestDriverScriptContents(t *testing.T) {
	script := driverScript("df = df.dropna()", "/tmp/in.csv", "/tmp/out.csv")

	for _, want := range []string{
		`pd.read_csv("/tmp/in.csv")`,
		"df = df.dropna()",
		"df = transform_data(df)",
		`df.to_csv("/tmp/out.csv", index=False)`,
		"traceback.print_exc()",
		"sys.exit(1)",
	} {
		if !strings.Contains(script, want) {
			t.Errorf("driver script missing %q:\n%s", want, script)
		}
	}
}
