// Package executor runs untrusted generated transformation code against a
// dataset snapshot in a subordinate OS process.
//
// Generated code is synthesized by a nondeterministic external producer:
// it may be malformed, raise, hang, or have unexpected side effects.
// Process-level isolation bounds the blast radius and gives a uniform
// outcome signal via exit status, instead of requiring exhaustive fault
// interception in-process. The input snapshot travels to the subordinate
// process as CSV, and the result travels back the same way; exit code 0
// plus an existing output artifact classifies as success, anything else
// as failure with the captured stderr (falling back to stdout) as the
// error text.
package executor

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/autoprep/autoprep/pkg/dataset"
	"github.com/autoprep/autoprep/pkg/engine"
	"github.com/autoprep/autoprep/pkg/telemetry"
)

// EntryPoint is the transformation function the generated code must
// define: it accepts a dataframe and returns a dataframe.
const EntryPoint = "transform_data"

// DefaultTimeout bounds a single subordinate process invocation. A hung
// transformation is killed and classified as an execution failure rather
// than blocking the pipeline indefinitely.
const DefaultTimeout = 2 * time.Minute

// Config configures a PythonExecutor.
type Config struct {
	// Interpreter is the Python interpreter to spawn. Defaults to
	// "python3".
	Interpreter string

	// Timeout bounds each invocation. Zero means DefaultTimeout.
	Timeout time.Duration

	// WorkDir is where per-invocation scratch directories are created.
	// Defaults to the system temp directory.
	WorkDir string
}

// PythonExecutor executes generated pandas code in a subordinate Python
// process. Transfer artifacts are scoped to a per-executor scratch
// directory with per-invocation unique subdirectories, so concurrent
// orchestrators never share paths.
type PythonExecutor struct {
	cfg     Config
	log     *telemetry.Logger
	scratch string
}

// NewPythonExecutor creates an executor with a fresh scratch directory.
func NewPythonExecutor(cfg Config, log *telemetry.Logger) (*PythonExecutor, error) {
	if cfg.Interpreter == "" {
		cfg.Interpreter = "python3"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.WorkDir == "" {
		cfg.WorkDir = os.TempDir()
	}
	if log == nil {
		log = telemetry.Nop()
	}

	scratch := filepath.Join(cfg.WorkDir, "autoprep-exec-"+uuid.NewString()[:8])
	if err := os.MkdirAll(scratch, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}

	return &PythonExecutor{
		cfg:     cfg,
		log:     log.NewComponentLogger("executor"),
		scratch: scratch,
	}, nil
}

// Execute runs the code fragment against the input snapshot. The result
// classifies the outcome; the returned error is non-nil only when the
// execution machinery itself failed (artifact serialization, process
// spawn), which callers should also treat as an execution failure.
func (e *PythonExecutor) Execute(ctx context.Context, code string, input dataset.Frame) (*engine.ExecutionResult, error) {
	dir := filepath.Join(e.scratch, uuid.NewString()[:8])
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create transfer directory: %w", err)
	}

	inputPath := filepath.Join(dir, "input.csv")
	outputPath := filepath.Join(dir, "output.csv")
	scriptPath := filepath.Join(dir, "driver.py")

	if err := dataset.WriteFile(inputPath, input); err != nil {
		return nil, fmt.Errorf("failed to serialize input snapshot: %w", err)
	}
	if err := os.WriteFile(scriptPath, []byte(driverScript(code, inputPath, outputPath)), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write driver script: %w", err)
	}

	execCtx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(execCtx, e.cfg.Interpreter, scriptPath)
	cmd.Dir = dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	e.log.Debugf("spawning %s %s", e.cfg.Interpreter, scriptPath)
	runErr := cmd.Run()

	if execCtx.Err() == context.DeadlineExceeded {
		return &engine.ExecutionResult{
			Succeeded: false,
			ErrorText: fmt.Sprintf("execution timed out after %s", e.cfg.Timeout),
			ExitCode:  -1,
		}, nil
	}

	exitCode := 0
	if runErr != nil {
		exitErr, ok := runErr.(*exec.ExitError)
		if !ok {
			return nil, fmt.Errorf("failed to spawn subordinate process: %w", runErr)
		}
		exitCode = exitErr.ExitCode()
	}

	if exitCode == 0 {
		if frame, err := dataset.ReadFile(outputPath); err == nil {
			return &engine.ExecutionResult{
				Succeeded:     true,
				Frame:         frame,
				ConsoleOutput: stdout.String(),
			}, nil
		}
		// Exit 0 without a readable output artifact is still a failure:
		// the transformation never produced a result.
	}

	errText := stderr.String()
	if errText == "" {
		// Tracebacks sometimes land on stdout.
		errText = stdout.String()
	}
	if errText == "" {
		errText = fmt.Sprintf("subordinate process exited %d with no error output", exitCode)
	}
	return &engine.ExecutionResult{
		Succeeded: false,
		ErrorText: errText,
		ExitCode:  exitCode,
	}, nil
}

// Cleanup removes the executor's scratch directory and every transfer
// artifact under it.
func (e *PythonExecutor) Cleanup() error {
	if err := os.RemoveAll(e.scratch); err != nil {
		e.log.WithError(err).Warn("failed to remove scratch directory")
		return err
	}
	e.log.Debug("transfer artifacts removed")
	return nil
}

// driverScript composes the subordinate process script: load the input
// CSV, define the generated code, invoke the entry point, write the
// output CSV. Any exception exits nonzero with the traceback on stderr.
func driverScript(code, inputPath, outputPath string) string {
	return fmt.Sprintf(`import sys
import traceback

import pandas as pd

df = pd.read_csv(%q)

%s

try:
    df = %s(df)
    df.to_csv(%q, index=False)
    print("transformation completed successfully")
except Exception:
    traceback.print_exc()
    sys.exit(1)
`, inputPath, code, EntryPoint, outputPath)
}
