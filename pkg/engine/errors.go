package engine

import (
	"errors"
	"fmt"
)

// Stage classifies where in the per-task protocol a failure occurred.
// The stage drives the loop's handling: only execution failures enter
// the retry/repair cycle.
type Stage string

const (
	// StagePlanGeneration covers plan producer failures: unreachable
	// service or unparseable output. Handled by falling back to a
	// degenerate single-task plan, never by aborting the pipeline.
	StagePlanGeneration Stage = "plan_generation"

	// StageCodeGeneration covers code producer failures before any
	// execution attempt. The task fails immediately, without retry.
	StageCodeGeneration Stage = "code_generation"

	// StageExecution covers subordinate process failures: nonzero exit
	// or a missing output artifact. Drives the retry/repair cycle.
	StageExecution Stage = "execution"

	// StageRepair covers repair producer failures. Logged only; the
	// previous code is retried unchanged on the next attempt.
	StageRepair Stage = "repair"

	// StageState covers a missing snapshot when one is required. The
	// task fails immediately, without retry.
	StageState Stage = "state"
)

// PipelineError is a stage-classified error with task context. All
// pipeline errors are caught and converted into ledger entries at task
// granularity; none terminates the plan.
type PipelineError struct {
	// Stage is the failure classification.
	Stage Stage `json:"stage"`

	// Message is the human-readable error message.
	Message string `json:"message"`

	// TaskID is the task being processed when the error occurred,
	// zero when outside any task boundary.
	TaskID int `json:"task_id,omitempty"`

	// Err is the underlying error.
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	if e.TaskID != 0 {
		return fmt.Sprintf("[%s] task %d: %s%s", e.Stage, e.TaskID, e.Message, e.unwrapSuffix())
	}
	return fmt.Sprintf("[%s] %s%s", e.Stage, e.Message, e.unwrapSuffix())
}

// Unwrap returns the underlying error for error chain inspection.
func (e *PipelineError) Unwrap() error {
	return e.Err
}

// Is implements error equality for errors.Is: two pipeline errors match
// when their stages match.
func (e *PipelineError) Is(target error) bool {
	t, ok := target.(*PipelineError)
	if !ok {
		return false
	}
	return e.Stage == t.Stage
}

func (e *PipelineError) unwrapSuffix() string {
	if e.Err != nil {
		return ": " + e.Err.Error()
	}
	return ""
}

// WithTask adds task context to an error.
func (e *PipelineError) WithTask(taskID int) *PipelineError {
	e.TaskID = taskID
	return e
}

// NewPlanGenerationError creates a plan-generation stage error.
func NewPlanGenerationError(message string, err error) *PipelineError {
	return &PipelineError{Stage: StagePlanGeneration, Message: message, Err: err}
}

// NewCodeGenerationError creates a code-generation stage error.
func NewCodeGenerationError(message string, err error) *PipelineError {
	return &PipelineError{Stage: StageCodeGeneration, Message: message, Err: err}
}

// NewExecutionError creates an execution stage error.
func NewExecutionError(message string, err error) *PipelineError {
	return &PipelineError{Stage: StageExecution, Message: message, Err: err}
}

// NewRepairError creates a repair stage error.
func NewRepairError(message string, err error) *PipelineError {
	return &PipelineError{Stage: StageRepair, Message: message, Err: err}
}

// NewStateError creates a state stage error.
func NewStateError(message string, err error) *PipelineError {
	return &PipelineError{Stage: StageState, Message: message, Err: err}
}

// StageOf returns the stage of a pipeline error, or an empty stage for
// any other error.
func StageOf(err error) Stage {
	var e *PipelineError
	if errors.As(err, &e) {
		return e.Stage
	}
	return ""
}
