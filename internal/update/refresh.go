package update

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/taskflowhq/taskflow/internal/model"
	"github.com/taskflowhq/taskflow/internal/notify"
	"github.com/taskflowhq/taskflow/internal/storage"
)

func (m Model) loadTasksCmd() tea.Cmd {
	repo := m.Services.Repo
	workspace := m.ActiveWorkspace
	return func() tea.Msg {
		tasks, err := repo.ListTasks(context.Background(), storage.TaskListFilter{WorkspaceID: workspace})
		if err != nil {
			return AppErrorMsg{Err: err}
		}
		return TasksLoadedMsg{Tasks: tasks}
	}
}

func (m Model) loadWorkspacesCmd() tea.Cmd {
	repo := m.Services.Repo
	return func() tea.Msg {
		workspaces, err := repo.ListWorkspaces(context.Background())
		if err != nil {
			return AppErrorMsg{Err: err}
		}
		return WorkspacesLoadedMsg{Workspaces: workspaces}
	}
}

// loadTrackingCmd refreshes the timelog snapshot for one task, shown
// in the metadata pane while the cursor is on it.
func (m Model) loadTrackingCmd(taskID string) tea.Cmd {
	svc := m.Services.Timelog
	if svc == nil || taskID == "" {
		return nil
	}
	return func() tea.Msg {
		tracking, err := svc.Snapshot(context.Background(), taskID)
		if err != nil {
			return AppErrorMsg{Err: err}
		}
		return TrackingLoadedMsg{TaskID: taskID, Tracking: tracking}
	}
}

func (m Model) loadForestCmd() tea.Cmd {
	engine := m.Services.Forest
	return func() tea.Msg {
		ctx := context.Background()
		stats, err := engine.Stats(ctx)
		if err != nil {
			return AppErrorMsg{Err: err}
		}
		today, err := engine.TodayStats(ctx)
		if err != nil {
			return AppErrorMsg{Err: err}
		}
		grove, err := engine.Visualization(ctx)
		if err != nil {
			return AppErrorMsg{Err: err}
		}
		return ForestLoadedMsg{Stats: stats, Today: today, Grove: grove}
	}
}

// generateInstancesCmd refreshes every recurring template's upcoming
// instances. Runs at startup and after recurring edits.
func (m Model) generateInstancesCmd() tea.Cmd {
	repo := m.Services.Repo
	svc := m.Services.Recurrence
	return func() tea.Msg {
		ctx := context.Background()
		tasks, err := repo.ListTasks(ctx, storage.TaskListFilter{})
		if err != nil {
			return AppErrorMsg{Err: err}
		}
		count := 0
		for _, task := range tasks {
			if !task.IsRecurring {
				continue
			}
			created, err := svc.GenerateUpcomingInstances(ctx, task.ID, 0)
			if err != nil {
				return AppErrorMsg{Err: err}
			}
			count += len(created)
		}
		return InstancesGeneratedMsg{Count: count}
	}
}

func (m Model) saveSessionCmd(completed bool) tea.Cmd {
	engine := m.Services.Forest
	draft := m.focusSessionDraft(completed)
	return func() tea.Msg {
		session, err := engine.SaveSession(context.Background(), draft)
		if err != nil {
			return AppErrorMsg{Err: err}
		}
		return SessionSavedMsg{Session: session}
	}
}

// waitForNotificationCmd bridges the monitor's channel into the
// program's message stream, one notification per command.
func waitForNotificationCmd(ch <-chan notify.Notification) tea.Cmd {
	return func() tea.Msg {
		n, ok := <-ch
		if !ok {
			return nil
		}
		return NotificationMsg{Notification: n}
	}
}

// watchedTasks is what the monitor polls: every task across
// workspaces, so a background workspace still alerts.
func (m Model) watchedTasks() []model.Task {
	tasks, err := m.Services.Repo.ListTasks(context.Background(), storage.TaskListFilter{})
	if err != nil {
		return nil
	}
	return tasks
}
