// Package timelog tracks manual time spent on individual tasks.
package timelog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/taskflowhq/taskflow/internal/model"
	"github.com/taskflowhq/taskflow/internal/storage"
)

var (
	ErrAlreadyTracking = errors.New("timelog: task already has an open entry")
	ErrNotTracking     = errors.New("timelog: task has no open entry")
)

// Service starts and stops time entries. A task has at most one open
// entry at a time.
type Service struct {
	repo storage.Repository
	now  func() time.Time
}

func NewService(repo storage.Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Start opens a new entry for the task.
func (s *Service) Start(ctx context.Context, taskID string) (model.TimeEntry, error) {
	if _, err := s.repo.GetTask(ctx, taskID); err != nil {
		return model.TimeEntry{}, err
	}
	open, err := s.openEntry(ctx, taskID)
	if err != nil {
		return model.TimeEntry{}, err
	}
	if open != nil {
		return model.TimeEntry{}, ErrAlreadyTracking
	}

	entry := model.TimeEntry{
		ID:        uuid.NewString(),
		TaskID:    taskID,
		StartTime: s.now(),
	}
	if err := s.repo.CreateTimeEntry(ctx, entry); err != nil {
		return model.TimeEntry{}, fmt.Errorf("start entry: %w", err)
	}
	return entry, nil
}

// Stop closes the task's open entry, recording elapsed whole minutes
// and an optional note.
func (s *Service) Stop(ctx context.Context, taskID, note string) (model.TimeEntry, error) {
	open, err := s.openEntry(ctx, taskID)
	if err != nil {
		return model.TimeEntry{}, err
	}
	if open == nil {
		return model.TimeEntry{}, ErrNotTracking
	}

	end := s.now()
	entry := *open
	entry.EndTime = &end
	entry.Minutes = int(end.Sub(entry.StartTime) / time.Minute)
	entry.Note = note
	if err := s.repo.UpdateTimeEntry(ctx, entry); err != nil {
		return model.TimeEntry{}, fmt.Errorf("stop entry: %w", err)
	}
	return entry, nil
}

// Entries lists every entry recorded for the task.
func (s *Service) Entries(ctx context.Context, taskID string) ([]model.TimeEntry, error) {
	return s.repo.ListTimeEntries(ctx, storage.TimeEntryFilter{TaskID: taskID})
}

// TotalMinutes sums the closed entries for the task.
func (s *Service) TotalMinutes(ctx context.Context, taskID string) (int, error) {
	entries, err := s.Entries(ctx, taskID)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, e := range entries {
		total += e.Minutes
	}
	return total, nil
}

// Snapshot assembles the task's full tracking state for display.
func (s *Service) Snapshot(ctx context.Context, taskID string) (model.TimeTracking, error) {
	entries, err := s.Entries(ctx, taskID)
	if err != nil {
		return model.TimeTracking{}, err
	}
	out := model.TimeTracking{Sessions: entries}
	for _, e := range entries {
		out.TotalMinutes += e.Minutes
		if e.Open() {
			out.IsActive = true
			start := e.StartTime
			out.ActiveSessionStart = &start
		}
	}
	return out, nil
}

func (s *Service) openEntry(ctx context.Context, taskID string) (*model.TimeEntry, error) {
	open, err := s.repo.ListTimeEntries(ctx, storage.TimeEntryFilter{TaskID: taskID, OpenOnly: true, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(open) == 0 {
		return nil, nil
	}
	return &open[0], nil
}
