package update

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/taskflowhq/taskflow/internal/commands"
	"github.com/taskflowhq/taskflow/internal/model"
	"github.com/taskflowhq/taskflow/internal/timelog"
)

func (m Model) handleTasksKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		if m.Tasks.Cursor < len(m.visibleTasks())-1 {
			m.Tasks.Cursor++
		}
		m.syncSelectedTask()
		return m, m.trackingForSelection()
	case "k", "up":
		if m.Tasks.Cursor > 0 {
			m.Tasks.Cursor--
		}
		m.syncSelectedTask()
		return m, m.trackingForSelection()
	case "a":
		m.Tasks.QuickAdd = true
		m.quickAddInput.Focus()
		m.quickAddInput.SetValue("")
		m.Status = StatusBar{Text: "quick add: type title, enter to save, esc to cancel"}
		return m, nil
	case "c":
		return m.completeSelectedTask()
	case "x":
		return m.deleteSelectedTask()
	case "R":
		m.recurrenceEditor.Active = true
		m.recurrenceEditor.Err = ""
		return m, nil
	case "n":
		task, ok := m.selectedTask()
		if !ok {
			return m, nil
		}
		m.Tasks.Notes = true
		m.notesArea.SetValue(task.Description)
		m.notesArea.Focus()
		m.Status = StatusBar{Text: "notes: esc to save"}
		return m, nil
	case "p":
		return m.postponeSelectedTask()
	case "t":
		return m.toggleTracking()
	case "f":
		m.Tasks.TagFilter = ""
		m.Tasks.Cursor = 0
		m.syncSelectedTask()
		m.syncTaskList()
		m.Status = StatusBar{Text: "tag filter cleared"}
		return m, nil
	}
	return m, nil
}

func (m Model) handleQuickAddKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.Tasks.QuickAdd = false
		m.quickAddInput.Blur()
		m.quickAddInput.SetValue("")
		m.Status = StatusBar{Text: "quick add cancelled"}
		return m, nil
	case "enter":
		raw := strings.TrimSpace(m.quickAddInput.Value())
		m.Tasks.QuickAdd = false
		m.quickAddInput.Blur()
		m.quickAddInput.SetValue("")
		if raw == "" {
			return m, nil
		}
		return m.addTaskFromInput(raw)
	default:
		var cmd tea.Cmd
		m.quickAddInput, cmd = m.quickAddInput.Update(msg)
		return m, cmd
	}
}

// handleNotesKey edits the selected task's description in place.
// Esc saves and closes.
func (m Model) handleNotesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "esc" {
		m.Tasks.Notes = false
		m.notesArea.Blur()
		task, ok := m.selectedTask()
		if !ok {
			return m, nil
		}
		updated, err := task.WithDetails(model.DetailsChange{
			Title:            task.Title,
			Description:      strings.TrimRight(m.notesArea.Value(), "\n"),
			Priority:         task.Priority,
			EstimatedMinutes: task.EstimatedMinutes,
		}, m.now())
		if err == nil {
			err = m.Services.Repo.UpdateTask(context.Background(), updated)
		}
		if err != nil {
			m.Status = StatusBar{Text: err.Error(), IsError: true}
			return m, nil
		}
		m.Status = StatusBar{Text: fmt.Sprintf("notes saved: %s", task.Title)}
		return m, m.loadTasksCmd()
	}
	var cmd tea.Cmd
	m.notesArea, cmd = m.notesArea.Update(msg)
	return m, cmd
}

// addTaskFromInput reuses the palette grammar so "title priority:high
// due:2026-03-15 tag:x" works in quick add too.
func (m Model) addTaskFromInput(raw string) (tea.Model, tea.Cmd) {
	cmd, err := commands.Parse("add " + raw)
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m, nil
	}
	return m.createTask(*cmd.Add)
}

func (m Model) createTask(args commands.AddArgs) (tea.Model, tea.Cmd) {
	now := m.now()
	priority := model.PriorityMedium
	if args.Priority != "" {
		priority = model.Priority(args.Priority)
	}
	task := model.Task{
		ID:          uuid.NewString(),
		Title:       args.Title,
		Priority:    priority,
		Status:      model.StatusPending,
		DueDate:     args.Due,
		WorkspaceID: m.ActiveWorkspace,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if len(args.Tags) > 0 {
		tagged, err := task.WithTags(model.TagsChange{Tags: args.Tags}, now)
		if err != nil {
			m.Status = StatusBar{Text: err.Error(), IsError: true}
			return m, nil
		}
		task = tagged
	}
	if err := task.Validate(); err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m, nil
	}
	if err := m.Services.Repo.CreateTask(context.Background(), task); err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m, nil
	}
	m.Status = StatusBar{Text: fmt.Sprintf("added: %s", task.Title)}
	return m, m.loadTasksCmd()
}

// completeSelectedTask finishes the selected task through the
// recurrence service so completing a generated instance extends its
// template's schedule.
func (m Model) completeSelectedTask() (tea.Model, tea.Cmd) {
	task, ok := m.selectedTask()
	if !ok {
		return m, nil
	}
	if task.Status == model.StatusCompleted {
		m.Status = StatusBar{Text: "task already completed"}
		return m, nil
	}
	created, err := m.Services.Recurrence.CompleteInstance(context.Background(), task.ID)
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m, nil
	}
	if len(created) > 0 {
		m.Status = StatusBar{Text: fmt.Sprintf("completed: %s (+%d upcoming)", task.Title, len(created))}
	} else {
		m.Status = StatusBar{Text: fmt.Sprintf("completed: %s", task.Title)}
	}
	return m, m.loadTasksCmd()
}

// postponeSelectedTask pushes the selected task's due date out by a
// day. Undated tasks have nothing to postpone.
func (m Model) postponeSelectedTask() (tea.Model, tea.Cmd) {
	task, ok := m.selectedTask()
	if !ok {
		return m, nil
	}
	if task.DueDate == nil {
		m.Status = StatusBar{Text: "task has no due date"}
		return m, nil
	}
	next := task.DueDate.Add(24 * time.Hour)
	updated := task.WithSchedule(model.ScheduleChange{DueDate: &next}, m.now())
	if err := m.Services.Repo.UpdateTask(context.Background(), updated); err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m, nil
	}
	m.Status = StatusBar{Text: fmt.Sprintf("postponed to %s: %s", next.Format("2006-01-02"), task.Title)}
	return m, m.loadTasksCmd()
}

// toggleTracking starts a time entry on the selected task, or closes
// the open one.
func (m Model) toggleTracking() (tea.Model, tea.Cmd) {
	task, ok := m.selectedTask()
	if !ok || m.Services.Timelog == nil {
		return m, nil
	}
	ctx := context.Background()
	if _, err := m.Services.Timelog.Start(ctx, task.ID); err != nil {
		if !errors.Is(err, timelog.ErrAlreadyTracking) {
			m.Status = StatusBar{Text: err.Error(), IsError: true}
			return m, nil
		}
		entry, err := m.Services.Timelog.Stop(ctx, task.ID, "")
		if err != nil {
			m.Status = StatusBar{Text: err.Error(), IsError: true}
			return m, nil
		}
		m.Status = StatusBar{Text: fmt.Sprintf("tracking stopped: %s (%dm)", task.Title, entry.Minutes)}
		return m, m.loadTrackingCmd(task.ID)
	}
	m.Status = StatusBar{Text: fmt.Sprintf("tracking started: %s", task.Title)}
	return m, m.loadTrackingCmd(task.ID)
}

func (m Model) trackingForSelection() tea.Cmd {
	if task, ok := m.selectedTask(); ok {
		return m.loadTrackingCmd(task.ID)
	}
	return nil
}

func (m Model) deleteSelectedTask() (tea.Model, tea.Cmd) {
	task, ok := m.selectedTask()
	if !ok {
		return m, nil
	}
	var err error
	if task.IsRecurring {
		err = m.Services.Recurrence.DeleteRecurringTask(context.Background(), task.ID, true)
	} else {
		err = m.Services.Repo.DeleteTask(context.Background(), task.ID)
	}
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m, nil
	}
	m.Status = StatusBar{Text: fmt.Sprintf("deleted: %s", task.Title)}
	return m, m.loadTasksCmd()
}

func (m Model) selectedTask() (model.Task, bool) {
	visible := m.visibleTasks()
	if len(visible) == 0 || m.Tasks.Cursor < 0 || m.Tasks.Cursor >= len(visible) {
		return model.Task{}, false
	}
	return visible[m.Tasks.Cursor], true
}

// visibleTasks applies the tag filter and hides recurring templates:
// templates are edited through the recurrence editor, their instances
// live in the list.
func (m Model) visibleTasks() []model.Task {
	out := make([]model.Task, 0, len(m.Tasks.Items))
	for _, task := range m.Tasks.Items {
		if task.IsRecurring {
			continue
		}
		if m.Tasks.TagFilter != "" && !contains(task.Tags, m.Tasks.TagFilter) {
			continue
		}
		out = append(out, task)
	}
	return out
}
