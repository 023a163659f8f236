package stores

import (
	"context"
	"time"

	"github.com/autoprep/autoprep/pkg/engine"
)

// RunStatus represents the status of a pipeline run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run is the persisted record of a pipeline run.
type Run struct {
	ID          string     `json:"id"`
	DatasetPath string     `json:"dataset_path"`
	Goal        string     `json:"goal"`
	Status      RunStatus  `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       *string    `json:"error,omitempty"`
}

// Event is one append-only event log record.
type Event struct {
	ID        int64     `json:"id"`
	RunID     string    `json:"run_id"`
	TaskID    *int      `json:"task_id,omitempty"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Store is the persistence interface. It embeds engine.Recorder so the
// execution loop can persist progress without knowing the backend.
type Store interface {
	engine.Recorder

	// Lifecycle
	Init(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error

	// Run operations
	CreateRun(ctx context.Context, run *Run) error
	FinishRun(ctx context.Context, id string, status RunStatus, runErr *string) error
	GetRun(ctx context.Context, id string) (*Run, error)
	ListRuns(ctx context.Context, limit, offset int) ([]*Run, error)

	// Ledger queries
	GetLedger(ctx context.Context, runID string) ([]engine.LedgerEntry, error)
	GetAttempts(ctx context.Context, runID string, taskID int) ([]engine.Attempt, error)
	GetEvents(ctx context.Context, runID string, limit, offset int) ([]*Event, error)
}
