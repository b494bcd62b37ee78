// Package recurrence generates and maintains task instances for
// recurring task templates.
package recurrence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/taskflowhq/taskflow/internal/model"
	"github.com/taskflowhq/taskflow/internal/storage"
)

const (
	// DefaultHorizonDays bounds how far ahead instances are generated
	// during normal refresh.
	DefaultHorizonDays = 30

	// CompletionHorizonDays is the wider look-ahead used when an
	// instance is completed, so the next occurrence is always visible.
	CompletionHorizonDays = 60
)

var ErrNotRecurring = errors.New("recurrence: task is not a recurring template")

// Service owns the lifecycle of recurring task templates and their
// generated instances.
type Service struct {
	repo storage.Repository
	now  func() time.Time
}

func NewService(repo storage.Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// CreateRecurringTask stores the template and generates instances up to
// the default horizon. Returns the newly created instances.
func (s *Service) CreateRecurringTask(ctx context.Context, template model.Task) ([]model.Task, error) {
	if err := template.Validate(); err != nil {
		return nil, err
	}
	if !template.IsRecurring || template.Recurrence == nil {
		return nil, ErrNotRecurring
	}
	if err := s.repo.CreateTask(ctx, template); err != nil {
		return nil, fmt.Errorf("create template: %w", err)
	}
	return s.GenerateUpcomingInstances(ctx, template.ID, DefaultHorizonDays)
}

// GenerateUpcomingInstances walks the template's recurrence pattern from
// its due date and creates any instance that falls inside the horizon
// and does not already exist on that calendar day. Generation stops at
// the horizon, the pattern's end date, or its occurrence cap, whichever
// comes first. Only freshly created instances are returned.
func (s *Service) GenerateUpcomingInstances(ctx context.Context, templateID string, horizonDays int) ([]model.Task, error) {
	template, err := s.repo.GetTask(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if !template.IsRecurring || template.Recurrence == nil {
		return nil, ErrNotRecurring
	}
	if horizonDays <= 0 {
		horizonDays = DefaultHorizonDays
	}

	existing, err := s.Instances(ctx, templateID)
	if err != nil {
		return nil, err
	}
	occupied := make(map[string]bool, len(existing))
	for _, inst := range existing {
		if inst.DueDate != nil {
			occupied[model.DayKey(*inst.DueDate)] = true
		}
	}

	pattern := template.Recurrence
	limit := pattern.Cap()
	total := len(existing)
	now := s.now()
	horizon := now.Add(time.Duration(horizonDays) * 24 * time.Hour)

	var created []model.Task
	current := template.DueDate
	for {
		next := pattern.NextOccurrence(current)
		if next == nil {
			break
		}
		if !next.Before(horizon) {
			break
		}
		if total >= limit {
			break
		}
		current = next
		day := model.DayKey(*next)
		if occupied[day] {
			continue
		}

		inst := s.instanceFrom(template, *next, now)
		if err := s.repo.CreateTask(ctx, inst); err != nil {
			return created, fmt.Errorf("create instance: %w", err)
		}
		occupied[day] = true
		total++
		created = append(created, inst)
	}
	return created, nil
}

// UpdateRecurringTask persists template edits. When the recurrence
// pattern itself changed, future incomplete instances are removed and
// the schedule is regenerated from the new pattern.
func (s *Service) UpdateRecurringTask(ctx context.Context, template model.Task) ([]model.Task, error) {
	if err := template.Validate(); err != nil {
		return nil, err
	}
	if !template.IsRecurring || template.Recurrence == nil {
		return nil, ErrNotRecurring
	}
	prev, err := s.repo.GetTask(ctx, template.ID)
	if err != nil {
		return nil, err
	}
	rescheduled := !patternsEqual(prev.Recurrence, template.Recurrence) ||
		!timesEqual(prev.DueDate, template.DueDate)

	if rescheduled {
		if err := s.cleanupFutureInstances(ctx, template.ID); err != nil {
			return nil, err
		}
	}
	if err := s.repo.UpdateTask(ctx, template); err != nil {
		return nil, err
	}
	if !rescheduled {
		return nil, nil
	}
	return s.GenerateUpcomingInstances(ctx, template.ID, DefaultHorizonDays)
}

// DeleteRecurringTask removes the template. Instances are either
// deleted with it or detached into standalone tasks.
func (s *Service) DeleteRecurringTask(ctx context.Context, templateID string, deleteInstances bool) error {
	instances, err := s.Instances(ctx, templateID)
	if err != nil {
		return err
	}
	for _, inst := range instances {
		if deleteInstances {
			if err := s.repo.DeleteTask(ctx, inst.ID); err != nil {
				return fmt.Errorf("delete instance %s: %w", inst.ID, err)
			}
			continue
		}
		inst.ParentTaskID = ""
		inst.UpdatedAt = s.now()
		if err := s.repo.UpdateTask(ctx, inst); err != nil {
			return fmt.Errorf("detach instance %s: %w", inst.ID, err)
		}
	}
	return s.repo.DeleteTask(ctx, templateID)
}

// Instances lists every generated task belonging to a template.
func (s *Service) Instances(ctx context.Context, templateID string) ([]model.Task, error) {
	return s.repo.ListTasks(ctx, storage.TaskListFilter{ParentTaskID: templateID})
}

// CompleteInstance marks a generated instance completed and, when it
// still belongs to a template, extends the schedule using the wider
// completion horizon. Returns any instances created by the extension.
func (s *Service) CompleteInstance(ctx context.Context, instanceID string) ([]model.Task, error) {
	inst, err := s.repo.GetTask(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	updated, err := inst.WithStatus(model.StatusChange{Status: model.StatusCompleted}, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateTask(ctx, updated); err != nil {
		return nil, err
	}
	if inst.ParentTaskID == "" {
		return nil, nil
	}
	created, err := s.GenerateUpcomingInstances(ctx, inst.ParentTaskID, CompletionHorizonDays)
	if errors.Is(err, storage.ErrNotFound) || errors.Is(err, ErrNotRecurring) {
		return nil, nil
	}
	return created, err
}

// cleanupFutureInstances deletes instances that are due in the future
// and not yet completed. Past and completed instances are history and
// stay untouched.
func (s *Service) cleanupFutureInstances(ctx context.Context, templateID string) error {
	instances, err := s.Instances(ctx, templateID)
	if err != nil {
		return err
	}
	now := s.now()
	for _, inst := range instances {
		if inst.Status == model.StatusCompleted {
			continue
		}
		if inst.DueDate == nil || !inst.DueDate.After(now) {
			continue
		}
		if err := s.repo.DeleteTask(ctx, inst.ID); err != nil {
			return fmt.Errorf("cleanup instance %s: %w", inst.ID, err)
		}
	}
	return nil
}

func (s *Service) instanceFrom(template model.Task, due time.Time, now time.Time) model.Task {
	tags := make([]string, len(template.Tags))
	copy(tags, template.Tags)
	return model.Task{
		ID:               uuid.NewString(),
		Title:            template.Title,
		Description:      template.Description,
		Priority:         template.Priority,
		Status:           model.StatusPending,
		DueDate:          &due,
		Tags:             tags,
		WorkspaceID:      template.WorkspaceID,
		EstimatedMinutes: template.EstimatedMinutes,
		CreatedAt:        now,
		UpdatedAt:        now,
		ParentTaskID:     template.ID,
	}
}

func patternsEqual(a, b *model.RecurrencePattern) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Type != b.Type || a.Interval != b.Interval ||
		a.DayOfMonth != b.DayOfMonth || a.MaxOccurrences != b.MaxOccurrences {
		return false
	}
	if !timesEqual(a.EndDate, b.EndDate) {
		return false
	}
	if len(a.DaysOfWeek) != len(b.DaysOfWeek) {
		return false
	}
	for i := range a.DaysOfWeek {
		if a.DaysOfWeek[i] != b.DaysOfWeek[i] {
			return false
		}
	}
	return true
}

func timesEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
