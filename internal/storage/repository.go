package storage

import (
	"context"
	"errors"

	"github.com/taskflowhq/taskflow/internal/model"
)

var (
	ErrNotFound         = errors.New("storage: not found")
	ErrDefaultWorkspace = errors.New("storage: default workspace cannot be deleted")
)

type Repository interface {
	CreateTask(ctx context.Context, in model.Task) error
	GetTask(ctx context.Context, id string) (model.Task, error)
	UpdateTask(ctx context.Context, in model.Task) error
	DeleteTask(ctx context.Context, id string) error
	ListTasks(ctx context.Context, filter TaskListFilter) ([]model.Task, error)

	CreateWorkspace(ctx context.Context, in model.Workspace) error
	GetWorkspace(ctx context.Context, id string) (model.Workspace, error)
	UpdateWorkspace(ctx context.Context, in model.Workspace) error
	DeleteWorkspace(ctx context.Context, id string) error
	ListWorkspaces(ctx context.Context) ([]model.Workspace, error)

	CreateFocusSession(ctx context.Context, in model.FocusSession) error
	ListFocusSessions(ctx context.Context, filter FocusSessionFilter) ([]model.FocusSession, error)

	CreateTree(ctx context.Context, in model.ForestTree) error
	ListTrees(ctx context.Context, filter TreeFilter) ([]model.ForestTree, error)

	GetForestStats(ctx context.Context) (model.ForestStats, error)
	SaveForestStats(ctx context.Context, in model.ForestStats) error

	CreateTimeEntry(ctx context.Context, in model.TimeEntry) error
	UpdateTimeEntry(ctx context.Context, in model.TimeEntry) error
	ListTimeEntries(ctx context.Context, filter TimeEntryFilter) ([]model.TimeEntry, error)
}

type TaskListFilter struct {
	WorkspaceID  string
	Status       model.Status
	ParentTaskID string
	Limit        int
	Offset       int
}

type FocusSessionFilter struct {
	Date          string
	CompletedOnly bool
	Limit         int
	Offset        int
}

type TreeFilter struct {
	PlantedDate string
	Limit       int
	Offset      int
}

type TimeEntryFilter struct {
	TaskID   string
	OpenOnly bool
	Limit    int
	Offset   int
}
