package update

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/taskflowhq/taskflow/internal/forest"
)

func (m Model) handleFocusKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case " ":
		if m.Focus.Running {
			m.Focus.Running = false
			m.Status = StatusBar{Text: "focus paused"}
			return m, nil
		}
		if m.Focus.RemainingSec <= 0 {
			m.Focus.RemainingSec = m.Focus.DurationSec
		}
		if m.Focus.StartedAt.IsZero() {
			m.Focus.StartedAt = m.now()
		}
		m.Focus.Running = true
		m.Status = StatusBar{Text: "focus running"}
		return m, focusTickCmd()
	case "r":
		m.Focus.Running = false
		m.Focus.RemainingSec = m.Focus.DurationSec
		m.Focus.StartedAt = time.Time{}
		m.Status = StatusBar{Text: "focus reset"}
		return m, nil
	case "x":
		// Abandon: the session is recorded but plants nothing.
		if m.Focus.StartedAt.IsZero() {
			return m, nil
		}
		cmd := m.saveSessionCmd(false)
		m.Focus.Running = false
		m.Focus.RemainingSec = m.Focus.DurationSec
		m.Focus.StartedAt = time.Time{}
		return m, cmd
	}
	return m, nil
}

func (m Model) onFocusTick() (tea.Model, tea.Cmd) {
	if !m.Focus.Running {
		return m, nil
	}
	if m.Focus.RemainingSec > 0 {
		m.Focus.RemainingSec--
	}
	if m.Focus.RemainingSec == 0 {
		cmd := m.saveSessionCmd(true)
		m.Focus.Running = false
		m.Focus.RemainingSec = m.Focus.DurationSec
		m.Focus.StartedAt = time.Time{}
		return m, cmd
	}
	return m, focusTickCmd()
}

func (m *Model) bootstrapFocusTask() {
	if m.Focus.TaskID != "" {
		return
	}
	if task, ok := m.selectedTask(); ok {
		m.Focus.TaskID = task.ID
		m.Focus.TaskTitle = task.Title
	}
}

// focusSessionDraft snapshots the countdown for persistence. Duration
// is the elapsed part of the block in whole minutes.
func (m Model) focusSessionDraft(completed bool) forest.SessionDraft {
	elapsedSec := m.Focus.DurationSec - m.Focus.RemainingSec
	if completed {
		elapsedSec = m.Focus.DurationSec
	}
	start := m.Focus.StartedAt
	if start.IsZero() {
		start = m.now().Add(-time.Duration(elapsedSec) * time.Second)
	}
	return forest.SessionDraft{
		StartTime:   start,
		EndTime:     start.Add(time.Duration(elapsedSec) * time.Second),
		Duration:    elapsedSec / 60,
		Completed:   completed,
		WorkspaceID: m.ActiveWorkspace,
		TaskID:      m.Focus.TaskID,
	}
}

func focusTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg { return FocusTickMsg{} })
}
