package update

import (
	"context"
	"fmt"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/taskflowhq/taskflow/internal/model"
)

var editorRuleTypes = []model.RecurrenceType{
	model.RecurrenceDaily,
	model.RecurrenceWeekly,
	model.RecurrenceMonthly,
	model.RecurrenceYearly,
}

func (m Model) handleRecurrenceEditorKey(msg tea.KeyMsg) Model {
	switch msg.String() {
	case "esc":
		m.recurrenceEditor.Active = false
		m.recurrenceEditor.Preview = nil
		m.recurrenceEditor.Err = ""
		m.Status = StatusBar{Text: "recurrence editor closed"}
		return m
	case "tab":
		m.recurrenceEditor.RuleType = string(nextRuleType(model.RecurrenceType(m.recurrenceEditor.RuleType)))
		m.recurrenceEditor.Preview = nil
		return m
	case "backspace":
		if n := len(m.recurrenceEditor.IntervalText); n > 0 {
			m.recurrenceEditor.IntervalText = m.recurrenceEditor.IntervalText[:n-1]
		}
		return m
	case "enter":
		return m.previewRecurrence()
	case "s":
		return m.saveRecurrence()
	default:
		if len(msg.String()) == 1 && msg.String() >= "0" && msg.String() <= "9" {
			m.recurrenceEditor.IntervalText += msg.String()
		}
		return m
	}
}

func (m Model) draftPattern() (model.RecurrencePattern, error) {
	interval, err := strconv.Atoi(m.recurrenceEditor.IntervalText)
	if err != nil || interval < 1 {
		return model.RecurrencePattern{}, fmt.Errorf("interval must be a positive number")
	}
	pattern := model.RecurrencePattern{
		Type:     model.RecurrenceType(m.recurrenceEditor.RuleType),
		Interval: interval,
	}
	if err := pattern.Validate(); err != nil {
		return model.RecurrencePattern{}, err
	}
	return pattern, nil
}

func (m Model) previewRecurrence() Model {
	task, ok := m.selectedTask()
	if !ok || task.DueDate == nil {
		m.recurrenceEditor.Err = "select a task with a due date first"
		return m
	}
	pattern, err := m.draftPattern()
	if err != nil {
		m.recurrenceEditor.Err = err.Error()
		return m
	}

	m.recurrenceEditor.Err = ""
	m.recurrenceEditor.Preview = m.recurrenceEditor.Preview[:0]
	current := task.DueDate
	for i := 0; i < 5; i++ {
		next := pattern.NextOccurrence(current)
		if next == nil {
			break
		}
		m.recurrenceEditor.Preview = append(m.recurrenceEditor.Preview, next.Format("Mon 2006-01-02"))
		current = next
	}
	return m
}

// saveRecurrence turns the selected task into a recurring template
// with the drafted pattern.
func (m Model) saveRecurrence() Model {
	task, ok := m.selectedTask()
	if !ok || task.DueDate == nil {
		m.recurrenceEditor.Err = "select a task with a due date first"
		return m
	}
	pattern, err := m.draftPattern()
	if err != nil {
		m.recurrenceEditor.Err = err.Error()
		return m
	}

	ctx := context.Background()
	template := task
	template.IsRecurring = true
	template.Recurrence = &pattern
	template.ParentTaskID = ""
	template.UpdatedAt = m.now()

	var created int
	if task.IsRecurring {
		instances, err := m.Services.Recurrence.UpdateRecurringTask(ctx, template)
		if err != nil {
			m.recurrenceEditor.Err = err.Error()
			return m
		}
		created = len(instances)
	} else {
		if err := m.Services.Repo.UpdateTask(ctx, template); err != nil {
			m.recurrenceEditor.Err = err.Error()
			return m
		}
		instances, err := m.Services.Recurrence.GenerateUpcomingInstances(ctx, template.ID, 0)
		if err != nil {
			m.recurrenceEditor.Err = err.Error()
			return m
		}
		created = len(instances)
	}

	m.recurrenceEditor.Active = false
	m.recurrenceEditor.Preview = nil
	m.recurrenceEditor.Err = ""
	m.Status = StatusBar{Text: fmt.Sprintf("recurring: %s every %d %s (+%d upcoming)",
		task.Title, mustAtoi(m.recurrenceEditor.IntervalText), m.recurrenceEditor.RuleType, created)}
	return m
}

func nextRuleType(current model.RecurrenceType) model.RecurrenceType {
	for i, rt := range editorRuleTypes {
		if rt == current {
			return editorRuleTypes[(i+1)%len(editorRuleTypes)]
		}
	}
	return editorRuleTypes[0]
}

func mustAtoi(s string) int {
	v, _ := strconv.Atoi(s)
	return v
}
