package update

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/taskflowhq/taskflow/internal/model"
	"github.com/taskflowhq/taskflow/internal/storage"
)

func (m Model) handleWorkspacesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		if m.Workspaces.Cursor < len(m.Workspaces.Items)-1 {
			m.Workspaces.Cursor++
		}
		return m, nil
	case "k", "up":
		if m.Workspaces.Cursor > 0 {
			m.Workspaces.Cursor--
		}
		return m, nil
	case "enter":
		if ws, ok := m.selectedWorkspace(); ok {
			return m.switchWorkspace(ws.ID)
		}
		return m, nil
	case "x":
		if ws, ok := m.selectedWorkspace(); ok {
			return m.deleteWorkspace(ws)
		}
		return m, nil
	}
	return m, nil
}

func (m Model) switchWorkspace(id string) (tea.Model, tea.Cmd) {
	m.ActiveWorkspace = id
	m.Tasks.Cursor = 0
	m.Status = StatusBar{Text: fmt.Sprintf("workspace: %s", id)}
	_ = m.persistUIState()
	return m, m.loadTasksCmd()
}

func (m Model) deleteWorkspace(ws model.Workspace) (tea.Model, tea.Cmd) {
	err := m.Services.Repo.DeleteWorkspace(context.Background(), ws.ID)
	if err == storage.ErrDefaultWorkspace {
		m.Status = StatusBar{Text: "the default workspace cannot be deleted", IsError: true}
		return m, nil
	}
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m, nil
	}
	if m.ActiveWorkspace == ws.ID {
		m.ActiveWorkspace = model.DefaultWorkspaceID
	}
	m.Status = StatusBar{Text: fmt.Sprintf("deleted workspace: %s", ws.Name)}
	return m, tea.Batch(m.loadWorkspacesCmd(), m.loadTasksCmd())
}

func (m Model) createWorkspace(name string) (tea.Model, tea.Cmd) {
	ws := model.Workspace{
		ID:        workspaceID(name),
		Name:      name,
		Icon:      "📁",
		Color:     "blue",
		CreatedAt: m.now(),
	}
	if err := ws.Validate(); err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m, nil
	}
	if err := m.Services.Repo.CreateWorkspace(context.Background(), ws); err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m, nil
	}
	m.Status = StatusBar{Text: fmt.Sprintf("created workspace: %s", name)}
	return m, m.loadWorkspacesCmd()
}

func (m Model) selectedWorkspace() (model.Workspace, bool) {
	if len(m.Workspaces.Items) == 0 || m.Workspaces.Cursor < 0 || m.Workspaces.Cursor >= len(m.Workspaces.Items) {
		return model.Workspace{}, false
	}
	return m.Workspaces.Items[m.Workspaces.Cursor], true
}
