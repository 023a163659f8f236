package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/autoprep/autoprep/pkg/dataset"
	"github.com/autoprep/autoprep/pkg/telemetry"
)

// DefaultMaxAttempts is the execution attempt budget per task: one
// initial attempt plus at most two repair cycles.
const DefaultMaxAttempts = 3

// Options configures an Orchestrator.
type Options struct {
	// RunID identifies the pipeline run in logs, events, and the store.
	RunID string

	// MaxAttempts is the execution attempt budget per task. Zero means
	// DefaultMaxAttempts.
	MaxAttempts int

	// Logger receives structured progress output. Nil means silent.
	Logger *telemetry.Logger

	// Recorder persists ledger entries, attempts, and events. Nil
	// disables persistence.
	Recorder Recorder

	// Metrics collects run counters. Nil disables collection.
	Metrics *telemetry.RunMetrics
}

// Orchestrator drives the per-task retry protocol and advances the state
// holder on success. A single logical thread of control runs the loop;
// tasks execute strictly sequentially.
type Orchestrator struct {
	state    StateHolder
	executor Executor
	planner  PlanProducer
	coder    CodeProducer
	recorder Recorder
	metrics  *telemetry.RunMetrics
	log      *telemetry.Logger

	runID       string
	maxAttempts int
}

// NewOrchestrator creates an orchestrator over the given collaborators.
func NewOrchestrator(
	state StateHolder,
	executor Executor,
	planner PlanProducer,
	coder CodeProducer,
	opts Options,
) *Orchestrator {
	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	log := opts.Logger
	if log == nil {
		log = telemetry.Nop()
	}
	return &Orchestrator{
		state:       state,
		executor:    executor,
		planner:     planner,
		coder:       coder,
		recorder:    opts.Recorder,
		metrics:     opts.Metrics,
		log:         log.NewComponentLogger("engine").WithRunID(opts.RunID),
		runID:       opts.RunID,
		maxAttempts: maxAttempts,
	}
}

// RunPipeline orchestrates the full flow: load the dataset, profile it,
// generate a plan, and execute it. The returned ledger holds one terminal
// entry per attempted task. A non-nil error is returned only for
// catastrophic failures outside any task boundary; per-task failures are
// ledger entries, never errors.
func (o *Orchestrator) RunPipeline(ctx context.Context, datasetPath, goal string) ([]LedgerEntry, error) {
	o.log.Infof("loading dataset from %s", datasetPath)
	if err := o.state.LoadInitial(datasetPath); err != nil {
		return nil, fmt.Errorf("failed to load initial dataset: %w", err)
	}

	frame, ok := o.state.Snapshot()
	if !ok || frame.NumRows() == 0 {
		return nil, fmt.Errorf("dataset %s loaded empty", datasetPath)
	}
	o.log.Infof("loaded dataset with shape %s", frame.Shape())

	profile := dataset.NewProfile(frame)
	o.log.Info("dataset profile computed")

	plan := o.generatePlan(ctx, profile, goal)
	if len(plan.Tasks) == 0 {
		o.log.Error("no plan available, ending run early")
		return []LedgerEntry{}, nil
	}
	for _, task := range plan.Tasks {
		o.log.Debugf("plan step %d: %s", task.ID, task.Description)
	}

	return o.RunPlan(ctx, plan), nil
}

// RunPlan executes the plan's tasks in order and returns the ledger.
// Transfer artifacts are cleaned up exactly once at plan completion,
// regardless of per-task outcomes.
func (o *Orchestrator) RunPlan(ctx context.Context, plan Plan) []LedgerEntry {
	o.log.Infof("starting execution plan with %d tasks", len(plan.Tasks))
	defer func() {
		if err := o.executor.Cleanup(); err != nil {
			o.log.WithError(err).Warn("failed to clean up transfer artifacts")
		}
	}()

	ledger := make([]LedgerEntry, 0, len(plan.Tasks))
	for _, task := range plan.Tasks {
		entry := o.runTask(ctx, task)
		ledger = append(ledger, entry)
		o.recordTask(ctx, entry)
		o.countTask(entry)
	}

	summary := Summarize(ledger)
	o.log.Infof("execution plan completed: %d/%d tasks successful", summary.Succeeded, summary.Total)
	return ledger
}

// generatePlan asks the plan producer for a task list. A producer failure
// degrades to a single-task fallback plan describing the error rather
// than aborting the pipeline.
func (o *Orchestrator) generatePlan(ctx context.Context, profile dataset.Profile, goal string) Plan {
	o.log.Info("generating data processing plan")
	plan, err := o.planner.ProducePlan(ctx, profile, goal)
	if err != nil {
		perr := NewPlanGenerationError("plan producer failed", err)
		o.log.WithError(perr).Warn("falling back to degenerate plan")
		o.recordEvent(ctx, "warning", perr.Error(), 0)
		return Plan{
			Tasks: []Task{{
				ID:          1,
				Description: fmt.Sprintf("Plan generation failed (%v). Review the dataset profile and goal, then retry.", err),
			}},
			Fallback: true,
		}
	}
	return plan
}

// runTask drives one task through the state machine:
// Pending -> Generating -> Executing -> {Success | Retrying... | Failed}.
func (o *Orchestrator) runTask(ctx context.Context, task Task) LedgerEntry {
	log := o.log.WithTaskID(task.ID)
	log.Infof("executing task %d: %s", task.ID, task.Description)
	o.recordEvent(ctx, "info", "task started", task.ID)

	// Generating: a producer failure here fails the task without
	// entering the execution cycle.
	log.Debug("generating code")
	code, err := o.coder.ProduceCode(ctx, task.Description)
	if err != nil {
		gerr := NewCodeGenerationError("code producer failed", err).WithTask(task.ID)
		log.WithError(gerr).Error("task failed before execution")
		o.recordEvent(ctx, "error", gerr.Error(), task.ID)
		return LedgerEntry{
			TaskID:      task.ID,
			Description: task.Description,
			Status:      TaskStatusFailed,
			Stage:       StageCodeGeneration,
			Error:       gerr.Error(),
		}
	}

	var lastError string
	for attempt := 1; attempt <= o.maxAttempts; attempt++ {
		attemptLog := log.WithAttempt(attempt)

		frame, ok := o.state.Snapshot()
		if !ok {
			// Classified as a state error internally, but the ledger
			// records the execution stage: the failure surfaced while
			// executing the task.
			serr := NewStateError("no snapshot available", nil).WithTask(task.ID)
			attemptLog.WithError(serr).Error("task failed")
			o.recordEvent(ctx, "error", serr.Error(), task.ID)
			return LedgerEntry{
				TaskID:      task.ID,
				Description: task.Description,
				Status:      TaskStatusFailed,
				Stage:       StageExecution,
				Code:        code,
				Error:       serr.Error(),
			}
		}

		attemptLog.Infof("execution attempt %d/%d", attempt, o.maxAttempts)
		if o.metrics != nil {
			o.metrics.ExecutionAttempts.Inc()
		}

		started := time.Now()
		result, execErr := o.executor.Execute(ctx, code, frame)
		duration := time.Since(started)

		if execErr == nil && result != nil && result.Succeeded {
			o.state.Replace(result.Frame)
			attemptLog.Info("code executed successfully")
			o.recordAttempt(ctx, Attempt{
				TaskID: task.ID, Number: attempt, Code: code, Succeeded: true, Duration: duration,
			})
			return LedgerEntry{
				TaskID:       task.ID,
				Description:  task.Description,
				Status:       TaskStatusSuccess,
				Code:         code,
				AttemptsUsed: attempt,
			}
		}

		// Executing -> Retrying or Failed.
		lastError = failureText(result, execErr)
		attemptLog.Warnf("execution failed: %s", firstLine(lastError))
		o.recordAttempt(ctx, Attempt{
			TaskID: task.ID, Number: attempt, Code: code, Error: lastError, Duration: duration,
		})

		if attempt < o.maxAttempts {
			code = o.repair(ctx, attemptLog, task.ID, code, lastError)
		}
	}

	eerr := NewExecutionError("all attempts failed", nil).WithTask(task.ID)
	log.WithError(eerr).Error("task exhausted attempt budget, moving on")
	o.recordEvent(ctx, "error", eerr.Error(), task.ID)
	return LedgerEntry{
		TaskID:       task.ID,
		Description:  task.Description,
		Status:       TaskStatusFailed,
		Stage:        StageExecution,
		Code:         code,
		AttemptsUsed: o.maxAttempts,
		Error:        lastError,
	}
}

// repair asks the code producer to fix the failed candidate. A repair
// failure is not fatal to the retry loop: the previous code is retried
// unchanged on the next attempt.
func (o *Orchestrator) repair(ctx context.Context, log *telemetry.Logger, taskID int, code, errorText string) string {
	log.Debug("attempting to repair the code")
	repaired, err := o.coder.RepairCode(ctx, code, errorText)
	if err != nil || repaired == "" {
		rerr := NewRepairError("repair producer failed", err).WithTask(taskID)
		log.WithError(rerr).Warn("retrying with unrepaired code")
		o.recordEvent(ctx, "warning", rerr.Error(), taskID)
		if o.metrics != nil {
			o.metrics.RepairsFailed.Inc()
		}
		return code
	}
	if o.metrics != nil {
		o.metrics.RepairsIssued.Inc()
	}
	return repaired
}

func (o *Orchestrator) countTask(entry LedgerEntry) {
	if o.metrics == nil {
		return
	}
	switch entry.Status {
	case TaskStatusSuccess:
		o.metrics.TasksSucceeded.Inc()
	case TaskStatusFailed:
		o.metrics.TasksFailed.WithLabelValues(string(entry.Stage)).Inc()
	}
}

func (o *Orchestrator) recordTask(ctx context.Context, entry LedgerEntry) {
	if o.recorder == nil {
		return
	}
	if err := o.recorder.RecordTask(ctx, o.runID, entry); err != nil {
		o.log.WithError(err).Warn("failed to persist ledger entry")
	}
}

func (o *Orchestrator) recordAttempt(ctx context.Context, attempt Attempt) {
	if o.recorder == nil {
		return
	}
	if err := o.recorder.RecordAttempt(ctx, o.runID, attempt); err != nil {
		o.log.WithError(err).Warn("failed to persist attempt")
	}
}

func (o *Orchestrator) recordEvent(ctx context.Context, level, message string, taskID int) {
	if o.recorder == nil {
		return
	}
	if err := o.recorder.RecordEvent(ctx, o.runID, level, message, taskID); err != nil {
		o.log.WithError(err).Warn("failed to persist event")
	}
}

// failureText extracts the error text from an execution outcome.
func failureText(result *ExecutionResult, err error) string {
	if err != nil {
		return err.Error()
	}
	if result != nil && result.ErrorText != "" {
		return result.ErrorText
	}
	return "execution failed with no error output"
}

// firstLine trims multi-line tracebacks down for log lines; the full
// text still reaches the repair producer and the ledger.
func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
