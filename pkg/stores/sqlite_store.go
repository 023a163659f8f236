package stores

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/autoprep/autoprep/pkg/engine"

	// SQLite driver
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore creates a new SQLite store instance for the given
// database path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}
	return &SQLiteStore{path: path}, nil
}

// Init opens the database connection and enables WAL mode.
func (s *SQLiteStore) Init(ctx context.Context) error {
	dsn := fmt.Sprintf("%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL", s.path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s.db = db
	return nil
}

// Migrate runs database migrations from the embedded filesystem.
func (s *SQLiteStore) Migrate(_ context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}

	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}
	driver, err := sqlite3.WithInstance(s.db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create database driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// CreateRun inserts a new run record.
func (s *SQLiteStore) CreateRun(ctx context.Context, run *Run) error {
	query := `
		INSERT INTO runs (id, dataset_path, goal, status, started_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	now := time.Now().UTC()
	if run.StartedAt.IsZero() {
		run.StartedAt = now
	}
	if run.Status == "" {
		run.Status = RunStatusRunning
	}
	_, err := s.db.ExecContext(ctx, query,
		run.ID, run.DatasetPath, run.Goal, run.Status, run.StartedAt, now, now)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

// FinishRun marks a run as completed or failed.
func (s *SQLiteStore) FinishRun(ctx context.Context, id string, status RunStatus, runErr *string) error {
	query := `
		UPDATE runs SET status = ?, completed_at = ?, error = ?, updated_at = ?
		WHERE id = ?`

	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx, query, status, now, runErr, now, id)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("run not found: %s", id)
	}
	return nil
}

// GetRun retrieves a run by ID.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*Run, error) {
	query := `
		SELECT id, dataset_path, goal, status, started_at, completed_at, error
		FROM runs WHERE id = ?`

	run := &Run{}
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&run.ID, &run.DatasetPath, &run.Goal, &run.Status,
		&run.StartedAt, &run.CompletedAt, &run.Error)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns returns runs ordered by start time, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit, offset int) ([]*Run, error) {
	query := `
		SELECT id, dataset_path, goal, status, started_at, completed_at, error
		FROM runs ORDER BY started_at DESC LIMIT ? OFFSET ?`

	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run := &Run{}
		if err := rows.Scan(&run.ID, &run.DatasetPath, &run.Goal, &run.Status,
			&run.StartedAt, &run.CompletedAt, &run.Error); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// RecordTask persists a terminal ledger entry. Implements engine.Recorder.
func (s *SQLiteStore) RecordTask(ctx context.Context, runID string, entry engine.LedgerEntry) error {
	query := `
		INSERT INTO tasks (run_id, task_id, description, status, stage, code, attempts_used, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		runID, entry.TaskID, entry.Description, string(entry.Status),
		nullString(string(entry.Stage)), nullString(entry.Code),
		entry.AttemptsUsed, nullString(entry.Error))
	if err != nil {
		return fmt.Errorf("failed to record task: %w", err)
	}
	return nil
}

// RecordAttempt persists one execution attempt. Implements engine.Recorder.
func (s *SQLiteStore) RecordAttempt(ctx context.Context, runID string, attempt engine.Attempt) error {
	query := `
		INSERT INTO attempts (run_id, task_id, number, code, succeeded, error, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		runID, attempt.TaskID, attempt.Number, attempt.Code,
		attempt.Succeeded, nullString(attempt.Error), attempt.Duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("failed to record attempt: %w", err)
	}
	return nil
}

// RecordEvent appends an event to the run's log. Implements engine.Recorder.
func (s *SQLiteStore) RecordEvent(ctx context.Context, runID string, level, message string, taskID int) error {
	query := `
		INSERT INTO events (run_id, task_id, level, message, timestamp)
		VALUES (?, ?, ?, ?, ?)`

	var task any
	if taskID != 0 {
		task = taskID
	}
	_, err := s.db.ExecContext(ctx, query, runID, task, level, message, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to record event: %w", err)
	}
	return nil
}

// GetLedger returns the persisted ledger for a run in task order.
func (s *SQLiteStore) GetLedger(ctx context.Context, runID string) ([]engine.LedgerEntry, error) {
	query := `
		SELECT task_id, description, status, stage, code, attempts_used, error
		FROM tasks WHERE run_id = ? ORDER BY task_id`

	rows, err := s.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger: %w", err)
	}
	defer rows.Close()

	var ledger []engine.LedgerEntry
	for rows.Next() {
		var entry engine.LedgerEntry
		var status, stage, code, errText sql.NullString
		if err := rows.Scan(&entry.TaskID, &entry.Description, &status, &stage,
			&code, &entry.AttemptsUsed, &errText); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entry.Status = engine.TaskStatus(status.String)
		entry.Stage = engine.Stage(stage.String)
		entry.Code = code.String
		entry.Error = errText.String
		ledger = append(ledger, entry)
	}
	return ledger, rows.Err()
}

// GetAttempts returns a task's attempts in attempt order.
func (s *SQLiteStore) GetAttempts(ctx context.Context, runID string, taskID int) ([]engine.Attempt, error) {
	query := `
		SELECT task_id, number, code, succeeded, error, duration_ms
		FROM attempts WHERE run_id = ? AND task_id = ? ORDER BY number`

	rows, err := s.db.QueryContext(ctx, query, runID, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to get attempts: %w", err)
	}
	defer rows.Close()

	var attempts []engine.Attempt
	for rows.Next() {
		var a engine.Attempt
		var errText sql.NullString
		var durationMS int64
		if err := rows.Scan(&a.TaskID, &a.Number, &a.Code, &a.Succeeded, &errText, &durationMS); err != nil {
			return nil, fmt.Errorf("failed to scan attempt: %w", err)
		}
		a.Error = errText.String
		a.Duration = time.Duration(durationMS) * time.Millisecond
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// GetEvents returns a run's events in append order.
func (s *SQLiteStore) GetEvents(ctx context.Context, runID string, limit, offset int) ([]*Event, error) {
	query := `
		SELECT id, run_id, task_id, level, message, timestamp
		FROM events WHERE run_id = ? ORDER BY id LIMIT ? OFFSET ?`

	rows, err := s.db.QueryContext(ctx, query, runID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		ev := &Event{}
		var taskID sql.NullInt64
		if err := rows.Scan(&ev.ID, &ev.RunID, &taskID, &ev.Level, &ev.Message, &ev.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		if taskID.Valid {
			t := int(taskID.Int64)
			ev.TaskID = &t
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// nullString converts empty strings to SQL NULL.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
