package model

import (
	"errors"
	"testing"
	"time"
)

func validTask() Task {
	return Task{
		ID:          "task-1",
		Title:       "Write weekly report",
		Priority:    PriorityMedium,
		Status:      StatusPending,
		WorkspaceID: DefaultWorkspaceID,
		CreatedAt:   time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		UpdatedAt:   time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
	}
}

func TestTaskValidateAcceptsMinimalTask(t *testing.T) {
	if err := validTask().Validate(); err != nil {
		t.Fatalf("valid task rejected: %v", err)
	}
}

func TestTaskValidateRejectsBadPriority(t *testing.T) {
	task := validTask()
	task.Priority = "urgent"
	if err := task.Validate(); !errors.Is(err, ErrInvalidPriority) {
		t.Fatalf("expected ErrInvalidPriority, got %v", err)
	}
}

func TestTaskValidateRecurrenceFlagPairing(t *testing.T) {
	task := validTask()
	task.IsRecurring = true
	if err := task.Validate(); err == nil {
		t.Fatal("recurring task without pattern accepted")
	}

	task = validTask()
	task.Recurrence = &RecurrencePattern{Type: RecurrenceDaily, Interval: 1}
	if err := task.Validate(); err == nil {
		t.Fatal("pattern without is_recurring accepted")
	}

	task = validTask()
	task.IsRecurring = true
	task.Recurrence = &RecurrencePattern{Type: RecurrenceDaily, Interval: 1}
	if err := task.Validate(); err != nil {
		t.Fatalf("valid recurring task rejected: %v", err)
	}
}

func TestTaskValidateRejectsTemplateWithParent(t *testing.T) {
	task := validTask()
	task.IsRecurring = true
	task.Recurrence = &RecurrencePattern{Type: RecurrenceDaily, Interval: 1}
	task.ParentTaskID = "task-0"
	if err := task.Validate(); err == nil {
		t.Fatal("recurring template with parent accepted")
	}
}

func TestTaskValidateRejectsDuplicateTags(t *testing.T) {
	task := validTask()
	task.Tags = []string{"work", "deep", "work"}
	if err := task.Validate(); !errors.Is(err, ErrDuplicateTag) {
		t.Fatalf("expected ErrDuplicateTag, got %v", err)
	}
}

func TestWithStatusBumpsUpdatedAt(t *testing.T) {
	task := validTask()
	now := time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC)
	next, err := task.WithStatus(StatusChange{Status: StatusCompleted}, now)
	if err != nil {
		t.Fatalf("status change failed: %v", err)
	}
	if next.Status != StatusCompleted || !next.UpdatedAt.Equal(now) {
		t.Fatalf("unexpected task after status change: %#v", next)
	}
}

func TestWithStatusRejectsUnknownState(t *testing.T) {
	task := validTask()
	if _, err := task.WithStatus(StatusChange{Status: "archived"}, time.Now()); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestWithTagsRejectsDuplicates(t *testing.T) {
	task := validTask()
	if _, err := task.WithTags(TagsChange{Tags: []string{"a", "a"}}, time.Now()); !errors.Is(err, ErrDuplicateTag) {
		t.Fatalf("expected ErrDuplicateTag, got %v", err)
	}
}

func TestWithDetailsRequiresTitle(t *testing.T) {
	task := validTask()
	if _, err := task.WithDetails(DetailsChange{Title: "  ", Priority: PriorityLow}, time.Now()); err == nil {
		t.Fatal("blank title accepted")
	}
}
