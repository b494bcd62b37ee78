package model

import (
	"errors"
	"strings"
	"time"
)

// DefaultWorkspaceID names the reserved workspace that always exists and can
// never be deleted.
const DefaultWorkspaceID = "default"

type Workspace struct {
	ID        string
	Name      string
	Icon      string
	Color     string
	CreatedAt time.Time
}

func (w Workspace) Validate() error {
	if strings.TrimSpace(w.ID) == "" {
		return errors.New("model: workspace id is required")
	}
	if strings.TrimSpace(w.Name) == "" {
		return errors.New("model: workspace name is required")
	}
	if w.CreatedAt.IsZero() {
		return errors.New("model: workspace created_at is required")
	}
	return nil
}

func DefaultWorkspace(now time.Time) Workspace {
	return Workspace{
		ID:        DefaultWorkspaceID,
		Name:      "Personal",
		Icon:      "📝",
		Color:     "green",
		CreatedAt: now,
	}
}
