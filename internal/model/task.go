package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidStatus   = errors.New("model: invalid task status")
	ErrInvalidPriority = errors.New("model: invalid task priority")
	ErrDuplicateTag    = errors.New("model: duplicate tag")
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

type Task struct {
	ID               string
	Title            string
	Description      string
	Priority         Priority
	Status           Status
	DueDate          *time.Time
	Tags             []string
	WorkspaceID      string
	EstimatedMinutes int
	CreatedAt        time.Time
	UpdatedAt        time.Time
	IsRecurring      bool
	Recurrence       *RecurrencePattern
	ParentTaskID     string
}

func (t Task) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return errors.New("model: task id is required")
	}
	if strings.TrimSpace(t.Title) == "" {
		return errors.New("model: task title is required")
	}
	if !t.Priority.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidPriority, t.Priority)
	}
	if !t.Status.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, t.Status)
	}
	if strings.TrimSpace(t.WorkspaceID) == "" {
		return errors.New("model: task workspace_id is required")
	}
	if t.EstimatedMinutes < 0 {
		return errors.New("model: estimated minutes must not be negative")
	}
	if t.CreatedAt.IsZero() {
		return errors.New("model: task created_at is required")
	}
	if t.IsRecurring && t.Recurrence == nil {
		return errors.New("model: recurring task requires a recurrence pattern")
	}
	if !t.IsRecurring && t.Recurrence != nil {
		return errors.New("model: recurrence pattern requires is_recurring")
	}
	if t.IsRecurring && t.ParentTaskID != "" {
		return errors.New("model: a recurring template cannot reference a parent task")
	}
	if t.Recurrence != nil {
		if err := t.Recurrence.Validate(); err != nil {
			return err
		}
	}
	seen := make(map[string]bool, len(t.Tags))
	for _, tag := range t.Tags {
		if seen[tag] {
			return fmt.Errorf("%w: %q", ErrDuplicateTag, tag)
		}
		seen[tag] = true
	}
	return nil
}

// StatusChange moves a task between states. Updates that touch other field
// groups must go through their own change type so that invalid partial
// combinations stay unrepresentable.
type StatusChange struct {
	Status Status
}

type ScheduleChange struct {
	DueDate *time.Time
}

type TagsChange struct {
	Tags []string
}

type DetailsChange struct {
	Title            string
	Description      string
	Priority         Priority
	EstimatedMinutes int
}

func (t Task) WithStatus(ch StatusChange, now time.Time) (Task, error) {
	if !ch.Status.IsValid() {
		return Task{}, fmt.Errorf("%w: %q", ErrInvalidStatus, ch.Status)
	}
	t.Status = ch.Status
	t.UpdatedAt = now
	return t, nil
}

func (t Task) WithSchedule(ch ScheduleChange, now time.Time) Task {
	t.DueDate = ch.DueDate
	t.UpdatedAt = now
	return t
}

func (t Task) WithTags(ch TagsChange, now time.Time) (Task, error) {
	seen := make(map[string]bool, len(ch.Tags))
	for _, tag := range ch.Tags {
		if seen[tag] {
			return Task{}, fmt.Errorf("%w: %q", ErrDuplicateTag, tag)
		}
		seen[tag] = true
	}
	t.Tags = ch.Tags
	t.UpdatedAt = now
	return t, nil
}

func (t Task) WithDetails(ch DetailsChange, now time.Time) (Task, error) {
	if strings.TrimSpace(ch.Title) == "" {
		return Task{}, errors.New("model: task title is required")
	}
	if !ch.Priority.IsValid() {
		return Task{}, fmt.Errorf("%w: %q", ErrInvalidPriority, ch.Priority)
	}
	if ch.EstimatedMinutes < 0 {
		return Task{}, errors.New("model: estimated minutes must not be negative")
	}
	t.Title = ch.Title
	t.Description = ch.Description
	t.Priority = ch.Priority
	t.EstimatedMinutes = ch.EstimatedMinutes
	t.UpdatedAt = now
	return t, nil
}
