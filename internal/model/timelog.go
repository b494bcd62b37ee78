package model

import (
	"errors"
	"strings"
	"time"
)

type TimeEntry struct {
	ID        string
	TaskID    string
	StartTime time.Time
	EndTime   *time.Time
	Minutes   int
	Note      string
}

func (e TimeEntry) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return errors.New("model: time entry id is required")
	}
	if strings.TrimSpace(e.TaskID) == "" {
		return errors.New("model: time entry task_id is required")
	}
	if e.StartTime.IsZero() {
		return errors.New("model: time entry start time is required")
	}
	if e.EndTime != nil && e.EndTime.Before(e.StartTime) {
		return errors.New("model: time entry end precedes start")
	}
	if e.Minutes < 0 {
		return errors.New("model: time entry minutes must not be negative")
	}
	return nil
}

func (e TimeEntry) Open() bool {
	return e.EndTime == nil
}

// TimeTracking is the denormalized per-task tracking view assembled from a
// task's entries.
type TimeTracking struct {
	Sessions           []TimeEntry
	TotalMinutes       int
	IsActive           bool
	ActiveSessionStart *time.Time
}
