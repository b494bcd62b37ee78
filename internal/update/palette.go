package update

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/taskflowhq/taskflow/internal/commands"
	"github.com/taskflowhq/taskflow/internal/exchange"
	"github.com/taskflowhq/taskflow/internal/storage"
)

func (m Model) handlePaletteKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.Palette.Active = false
		m.Palette.Input = ""
		m.commandInput.SetValue("")
		m.commandInput.Blur()
		m.Status = StatusBar{Text: "command palette closed"}
		return m, nil
	case "enter":
		m.Palette.Input = m.commandInput.Value()
		return m.executePaletteCommand()
	default:
		if msg.Type == tea.KeyRunes {
			m.commandInput.SetValue(m.commandInput.Value() + string(msg.Runes))
			m.Palette.Input = m.commandInput.Value()
			return m, nil
		}
		var cmd tea.Cmd
		m.commandInput, cmd = m.commandInput.Update(msg)
		m.Palette.Input = m.commandInput.Value()
		return m, cmd
	}
}

func (m Model) executePaletteCommand() (tea.Model, tea.Cmd) {
	raw := strings.TrimSpace(m.Palette.Input)
	m.Palette.Active = false
	m.Palette.Input = ""
	m.commandInput.SetValue("")
	m.commandInput.Blur()

	cmd, err := commands.Parse(raw)
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m, nil
	}

	var followUp tea.Cmd
	next := m
	res, err := commands.Execute(cmd, commands.Handlers{
		Add: func(a commands.AddArgs) (commands.Result, error) {
			updated, teaCmd := next.createTask(a)
			next = updated.(Model)
			followUp = teaCmd
			return commands.Result{Message: next.Status.Text}, nil
		},
		Done: func(a commands.DoneArgs) (commands.Result, error) {
			created, err := next.Services.Recurrence.CompleteInstance(context.Background(), a.Target)
			if err != nil {
				return commands.Result{}, err
			}
			followUp = next.loadTasksCmd()
			if len(created) > 0 {
				return commands.Result{Message: fmt.Sprintf("completed %s (+%d upcoming)", a.Target, len(created))}, nil
			}
			return commands.Result{Message: "completed " + a.Target}, nil
		},
		Show: func(a commands.ShowArgs) (commands.Result, error) {
			switch a.Subject {
			case "forest", "stats":
				next.CurrentView = ViewForest
				followUp = next.loadForestCmd()
			default:
				next.CurrentView = ViewTasks
			}
			if a.Tag != "" {
				next.Tasks.TagFilter = a.Tag
				next.Tasks.Cursor = 0
				next.syncSelectedTask()
				next.syncTaskList()
				return commands.Result{Message: fmt.Sprintf("show %s tag:%s", a.Subject, a.Tag)}, nil
			}
			return commands.Result{Message: "show " + a.Subject}, nil
		},
		Workspace: func(a commands.WorkspaceArgs) (commands.Result, error) {
			switch a.Action {
			case "new":
				updated, teaCmd := next.createWorkspace(a.Name)
				next = updated.(Model)
				followUp = teaCmd
			case "switch":
				updated, teaCmd := next.switchWorkspace(workspaceID(a.Name))
				next = updated.(Model)
				followUp = teaCmd
			case "delete":
				ws, err := next.Services.Repo.GetWorkspace(context.Background(), workspaceID(a.Name))
				if err != nil {
					return commands.Result{}, err
				}
				updated, teaCmd := next.deleteWorkspace(ws)
				next = updated.(Model)
				followUp = teaCmd
			}
			return commands.Result{Message: next.Status.Text}, nil
		},
		Export: func(a commands.ExportArgs) (commands.Result, error) {
			return next.exportData(a)
		},
		Import: func(a commands.ImportArgs) (commands.Result, error) {
			res, err := next.importData(a)
			if err != nil {
				return commands.Result{}, err
			}
			followUp = tea.Batch(next.loadTasksCmd(), next.loadWorkspacesCmd())
			return res, nil
		},
	})
	if err != nil {
		next.Status = StatusBar{Text: err.Error(), IsError: true}
		next.addBanner("Command Failed", err.Error(), "error")
	} else if res.Message != "" {
		next.Status = StatusBar{Text: res.Message}
	}
	return next, followUp
}

// importData loads a JSON bundle and persists its records. Existing
// workspaces and tasks with matching ids are kept up to date rather
// than duplicated.
func (m *Model) importData(a commands.ImportArgs) (commands.Result, error) {
	raw, err := os.ReadFile(a.Path)
	if err != nil {
		return commands.Result{}, err
	}
	bundle, err := exchange.ImportJSON(raw)
	if err != nil {
		return commands.Result{}, err
	}

	ctx := context.Background()
	for _, ws := range bundle.Workspaces {
		_, err := m.Services.Repo.GetWorkspace(ctx, ws.ID)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			if err := m.Services.Repo.CreateWorkspace(ctx, ws); err != nil {
				return commands.Result{}, err
			}
		case err != nil:
			return commands.Result{}, err
		}
	}
	for _, task := range bundle.Tasks {
		_, err := m.Services.Repo.GetTask(ctx, task.ID)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			err = m.Services.Repo.CreateTask(ctx, task)
		case err == nil:
			err = m.Services.Repo.UpdateTask(ctx, task)
		}
		if err != nil {
			return commands.Result{}, err
		}
	}
	return commands.Result{Message: fmt.Sprintf("imported %d task(s), %d workspace(s) from %s",
		len(bundle.Tasks), len(bundle.Workspaces), a.Path)}, nil
}

func (m *Model) exportData(a commands.ExportArgs) (commands.Result, error) {
	ctx := context.Background()
	tasks, err := m.Services.Repo.ListTasks(ctx, storage.TaskListFilter{})
	if err != nil {
		return commands.Result{}, err
	}

	path := a.Path
	var data []byte
	switch a.Format {
	case "json":
		workspaces, err := m.Services.Repo.ListWorkspaces(ctx)
		if err != nil {
			return commands.Result{}, err
		}
		data, err = exchange.ExportJSON(tasks, workspaces, m.now())
		if err != nil {
			return commands.Result{}, err
		}
		if path == "" {
			path = "taskflow-export.json"
		}
	case "csv":
		data, err = exchange.ExportCSV(tasks)
		if err != nil {
			return commands.Result{}, err
		}
		if path == "" {
			path = "taskflow-export.csv"
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return commands.Result{}, err
	}
	return commands.Result{Message: fmt.Sprintf("exported %d task(s) to %s", len(tasks), path)}, nil
}
