package stores

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/autoprep/autoprep/pkg/engine"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestNewSQLiteStoreRequiresPath(t *testing.T) {
	if _, err := NewSQLiteStore(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestRunLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	run := &Run{ID: "run-1", DatasetPath: "input.csv", Goal: "clean the data"}
	if err := store.CreateRun(ctx, run); err != nil {
		t.Fatalf("create run failed: %v", err)
	}

	got, err := store.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("get run failed: %v", err)
	}
	if got.Status != RunStatusRunning {
		t.Errorf("expected running status, got %s", got.Status)
	}
	if got.Goal != "clean the data" {
		t.Errorf("unexpected goal %q", got.Goal)
	}

	if err := store.FinishRun(ctx, "run-1", RunStatusCompleted, nil); err != nil {
		t.Fatalf("finish run failed: %v", err)
	}
	got, err = store.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != RunStatusCompleted {
		t.Errorf("expected completed status, got %s", got.Status)
	}
	if got.CompletedAt == nil {
		t.Error("expected completion timestamp")
	}
}

func TestFinishRunWithError(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.CreateRun(ctx, &Run{ID: "run-2", DatasetPath: "x.csv", Goal: "g"}); err != nil {
		t.Fatal(err)
	}
	msg := "dataset loaded empty"
	if err := store.FinishRun(ctx, "run-2", RunStatusFailed, &msg); err != nil {
		t.Fatal(err)
	}

	got, err := store.GetRun(ctx, "run-2")
	if err != nil {
		t.Fatal(err)
	}
	if got.Error == nil || *got.Error != msg {
		t.Errorf("expected persisted error %q, got %v", msg, got.Error)
	}
}

func TestFinishRunUnknownID(t *testing.T) {
	store := newTestStore(t)
	if err := store.FinishRun(context.Background(), "nope", RunStatusCompleted, nil); err == nil {
		t.Fatal("expected error for unknown run")
	}
}

func TestGetRunNotFound(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.GetRun(context.Background(), "missing"); err == nil {
		t.Fatal("expected error for missing run")
	}
}

func TestListRunsOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	old := time.Now().UTC().Add(-time.Hour)
	recent := time.Now().UTC()
	if err := store.CreateRun(ctx, &Run{ID: "old", DatasetPath: "a", Goal: "g", StartedAt: old}); err != nil {
		t.Fatal(err)
	}
	if err := store.CreateRun(ctx, &Run{ID: "recent", DatasetPath: "b", Goal: "g", StartedAt: recent}); err != nil {
		t.Fatal(err)
	}

	runs, err := store.ListRuns(ctx, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != "recent" {
		t.Errorf("expected newest first, got %s", runs[0].ID)
	}
}

func TestLedgerRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.CreateRun(ctx, &Run{ID: "run-3", DatasetPath: "x.csv", Goal: "g"}); err != nil {
		t.Fatal(err)
	}

	entries := []engine.LedgerEntry{
		{TaskID: 1, Description: "drop dupes", Status: engine.TaskStatusSuccess, Code: "df = df.drop_duplicates()", AttemptsUsed: 1},
		{TaskID: 2, Description: "impute", Status: engine.TaskStatusFailed, Stage: engine.StageExecution, Code: "bad", AttemptsUsed: 3, Error: "KeyError"},
	}
	for _, entry := range entries {
		if err := store.RecordTask(ctx, "run-3", entry); err != nil {
			t.Fatalf("record task failed: %v", err)
		}
	}

	ledger, err := store.GetLedger(ctx, "run-3")
	if err != nil {
		t.Fatal(err)
	}
	if len(ledger) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(ledger))
	}
	if ledger[0].Status != engine.TaskStatusSuccess || ledger[0].Stage != "" {
		t.Errorf("unexpected first entry %+v", ledger[0])
	}
	if ledger[1].Stage != engine.StageExecution || ledger[1].Error != "KeyError" || ledger[1].AttemptsUsed != 3 {
		t.Errorf("unexpected second entry %+v", ledger[1])
	}
}

func TestAttemptsRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.CreateRun(ctx, &Run{ID: "run-4", DatasetPath: "x.csv", Goal: "g"}); err != nil {
		t.Fatal(err)
	}
	attempts := []engine.Attempt{
		{TaskID: 1, Number: 1, Code: "v1", Error: "boom", Duration: 1500 * time.Millisecond},
		{TaskID: 1, Number: 2, Code: "v2", Succeeded: true, Duration: 900 * time.Millisecond},
	}
	for _, a := range attempts {
		if err := store.RecordAttempt(ctx, "run-4", a); err != nil {
			t.Fatalf("record attempt failed: %v", err)
		}
	}

	got, err := store.GetAttempts(ctx, "run-4", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(got))
	}
	if got[0].Error != "boom" || got[0].Duration != 1500*time.Millisecond {
		t.Errorf("unexpected first attempt %+v", got[0])
	}
	if !got[1].Succeeded || got[1].Code != "v2" {
		t.Errorf("unexpected second attempt %+v", got[1])
	}
}

func TestEventsRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.CreateRun(ctx, &Run{ID: "run-5", DatasetPath: "x.csv", Goal: "g"}); err != nil {
		t.Fatal(err)
	}
	if err := store.RecordEvent(ctx, "run-5", "info", "task started", 1); err != nil {
		t.Fatal(err)
	}
	if err := store.RecordEvent(ctx, "run-5", "warning", "plan fallback", 0); err != nil {
		t.Fatal(err)
	}

	events, err := store.GetEvents(ctx, "run-5", 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].TaskID == nil || *events[0].TaskID != 1 {
		t.Errorf("expected task id on first event, got %v", events[0].TaskID)
	}
	if events[1].TaskID != nil {
		t.Errorf("expected nil task id on run-level event, got %v", events[1].TaskID)
	}
	if events[1].Level != "warning" {
		t.Errorf("unexpected level %q", events[1].Level)
	}
}
