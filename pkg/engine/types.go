package engine

import (
	"context"
	"time"

	"github.com/autoprep/autoprep/pkg/dataset"
)

// Task is a single natural-language transformation step issued by the
// plan producer. Tasks are immutable once issued.
type Task struct {
	// ID is the unique, plan-ordered step number (starting from 1).
	ID int `json:"id" validate:"required,min=1"`

	// Description explains the action to take and its rationale.
	Description string `json:"task" validate:"required"`
}

// Plan is an ordered sequence of tasks; order is execution order, with
// no dependencies beyond order.
type Plan struct {
	// Tasks are the steps in execution order.
	Tasks []Task `json:"tasks"`

	// Fallback is true when the plan producer's output was malformed
	// and this plan is the degenerate single-task replacement.
	Fallback bool `json:"fallback,omitempty"`
}

// TaskStatus is the terminal status of a task.
type TaskStatus string

const (
	// TaskStatusSuccess indicates the task's transformation was committed.
	TaskStatusSuccess TaskStatus = "success"

	// TaskStatusFailed indicates the task exhausted its attempt budget
	// or failed before any execution attempt.
	TaskStatusFailed TaskStatus = "failed"
)

// LedgerEntry is the terminal record for one task. Entries are created
// once, never mutated; the ledger is the pipeline's audit trail and
// return value.
type LedgerEntry struct {
	// TaskID is the plan-ordered task number.
	TaskID int `json:"task_id"`

	// Description is the task's natural-language description.
	Description string `json:"description"`

	// Status is the terminal outcome.
	Status TaskStatus `json:"status"`

	// Stage names the phase a failed task died in. Empty on success.
	Stage Stage `json:"stage,omitempty"`

	// Code is the last candidate code used for this task. Empty when
	// code generation itself failed.
	Code string `json:"code,omitempty"`

	// AttemptsUsed is the number of execution attempts consumed,
	// in [1, max attempts]. Zero when no execution was attempted.
	AttemptsUsed int `json:"attempts_used,omitempty"`

	// Error is the final error text for failed tasks.
	Error string `json:"error,omitempty"`
}

// Attempt records a single execution try. Created per try, never mutated.
type Attempt struct {
	// TaskID is the task the attempt belongs to.
	TaskID int `json:"task_id"`

	// Number is the 1-based attempt number.
	Number int `json:"number"`

	// Code is the candidate code executed on this attempt.
	Code string `json:"code"`

	// Succeeded reports the executor's outcome classification.
	Succeeded bool `json:"succeeded"`

	// Error is the failure's error text, empty on success.
	Error string `json:"error,omitempty"`

	// Duration is how long the subordinate process ran.
	Duration time.Duration `json:"duration"`
}

// ExecutionResult is the isolated executor's outcome classification for
// one attempt.
type ExecutionResult struct {
	// Succeeded is true when the subordinate process exited zero and
	// produced an output artifact.
	Succeeded bool

	// Frame is the new dataset snapshot. Valid only when Succeeded.
	Frame dataset.Frame

	// ConsoleOutput is the captured standard output of the subordinate
	// process. Valid only when Succeeded.
	ConsoleOutput string

	// ErrorText is the captured standard error, falling back to standard
	// output when stderr is empty. Valid only when not Succeeded.
	ErrorText string

	// ExitCode is the subordinate process exit code.
	ExitCode int
}

// RunSummary aggregates terminal outcomes across a plan.
type RunSummary struct {
	// Total is the number of tasks attempted.
	Total int `json:"total"`

	// Succeeded is the number of tasks that committed a snapshot.
	Succeeded int `json:"succeeded"`

	// Failed is the number of tasks recorded as failed.
	Failed int `json:"failed"`
}

// Summarize computes the run summary for a ledger.
func Summarize(ledger []LedgerEntry) RunSummary {
	s := RunSummary{Total: len(ledger)}
	for _, e := range ledger {
		switch e.Status {
		case TaskStatusSuccess:
			s.Succeeded++
		case TaskStatusFailed:
			s.Failed++
		}
	}
	return s
}

// StateHolder owns the single current dataset snapshot. Replacement is
// visible to subsequent reads immediately; the loop is the only writer.
type StateHolder interface {
	// LoadInitial reads the initial dataset from a CSV source. Missing
	// files, parse errors, and empty results are distinguishable errors,
	// never a silent empty state.
	LoadInitial(path string) error

	// Snapshot returns the current snapshot, or false when none exists.
	Snapshot() (dataset.Frame, bool)

	// Replace supersedes the current snapshot atomically from the
	// loop's perspective.
	Replace(frame dataset.Frame)
}

// Executor runs untrusted generated code against a snapshot in an
// isolated subordinate process.
type Executor interface {
	// Execute runs the code fragment, which must define a transformation
	// entry point accepting and returning a dataframe, against the input
	// snapshot. The returned result classifies the outcome; the error is
	// non-nil only when the execution machinery itself failed (which the
	// loop also treats as an execution failure).
	Execute(ctx context.Context, code string, input dataset.Frame) (*ExecutionResult, error)

	// Cleanup removes transfer artifacts. Called exactly once per plan,
	// regardless of per-task outcomes. Failure to remove is logged by
	// the implementation, not fatal.
	Cleanup() error
}

// PlanProducer maps a dataset profile and a goal description to an
// ordered task list.
type PlanProducer interface {
	// ProducePlan returns the plan. Implementations must validate task
	// id uniqueness and non-empty descriptions, replacing malformed
	// responses with a single-task fallback plan signaling the parse
	// failure, never silently dropping them.
	ProducePlan(ctx context.Context, profile dataset.Profile, goal string) (Plan, error)
}

// CodeProducer maps task descriptions to candidate transformation code,
// and faulty code plus error text to repaired candidates.
type CodeProducer interface {
	// ProduceCode returns candidate code for the task description.
	ProduceCode(ctx context.Context, task string) (string, error)

	// RepairCode returns a repaired candidate for code that failed with
	// the given error text.
	RepairCode(ctx context.Context, code, errorText string) (string, error)
}

// Recorder persists run progress: ledger entries, attempts, and events.
// All methods are best-effort from the loop's perspective; persistence
// failures are logged and never interrupt execution.
type Recorder interface {
	// RecordTask persists a terminal ledger entry.
	RecordTask(ctx context.Context, runID string, entry LedgerEntry) error

	// RecordAttempt persists one execution attempt.
	RecordAttempt(ctx context.Context, runID string, attempt Attempt) error

	// RecordEvent appends an event to the run's event log.
	RecordEvent(ctx context.Context, runID string, level, message string, taskID int) error
}
