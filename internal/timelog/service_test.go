package timelog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/taskflowhq/taskflow/internal/model"
	"github.com/taskflowhq/taskflow/internal/storage"
)

func setupService(t *testing.T) (*Service, *time.Time) {
	t.Helper()
	repo, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "timelog-test.db"))
	if err != nil {
		t.Fatalf("open repo: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	task := model.Task{
		ID:          "task-1",
		Title:       "Tracked task",
		Priority:    model.PriorityMedium,
		Status:      model.StatusPending,
		WorkspaceID: model.DefaultWorkspaceID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := repo.CreateTask(context.Background(), task); err != nil {
		t.Fatalf("create task: %v", err)
	}

	clock := now
	svc := NewService(repo)
	svc.now = func() time.Time { return clock }
	return svc, &clock
}

func TestStartStopRoundTrip(t *testing.T) {
	svc, clock := setupService(t)
	ctx := context.Background()

	started, err := svc.Start(ctx, "task-1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if !started.Open() {
		t.Fatalf("fresh entry should be open: %#v", started)
	}

	*clock = clock.Add(50 * time.Minute)
	stopped, err := svc.Stop(ctx, "task-1", "design draft")
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if stopped.Minutes != 50 || stopped.Note != "design draft" {
		t.Fatalf("unexpected stopped entry: %#v", stopped)
	}
	if stopped.Open() {
		t.Fatalf("stopped entry still open: %#v", stopped)
	}

	total, err := svc.TotalMinutes(ctx, "task-1")
	if err != nil {
		t.Fatalf("total: %v", err)
	}
	if total != 50 {
		t.Fatalf("total = %d, want 50", total)
	}
}

func TestStartRejectsSecondOpenEntry(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	if _, err := svc.Start(ctx, "task-1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := svc.Start(ctx, "task-1"); err != ErrAlreadyTracking {
		t.Fatalf("expected ErrAlreadyTracking, got %v", err)
	}
}

func TestStopWithoutOpenEntry(t *testing.T) {
	svc, _ := setupService(t)
	if _, err := svc.Stop(context.Background(), "task-1", ""); err != ErrNotTracking {
		t.Fatalf("expected ErrNotTracking, got %v", err)
	}
}

func TestStartUnknownTask(t *testing.T) {
	svc, _ := setupService(t)
	if _, err := svc.Start(context.Background(), "ghost"); err != storage.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSnapshotReflectsActiveEntry(t *testing.T) {
	svc, clock := setupService(t)
	ctx := context.Background()

	if _, err := svc.Start(ctx, "task-1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	*clock = clock.Add(30 * time.Minute)
	if _, err := svc.Stop(ctx, "task-1", ""); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if _, err := svc.Start(ctx, "task-1"); err != nil {
		t.Fatalf("restart: %v", err)
	}

	snap, err := svc.Snapshot(ctx, "task-1")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snap.Sessions) != 2 || snap.TotalMinutes != 30 {
		t.Fatalf("unexpected snapshot: %#v", snap)
	}
	if !snap.IsActive || snap.ActiveSessionStart == nil {
		t.Fatalf("snapshot should show active tracking: %#v", snap)
	}
}
