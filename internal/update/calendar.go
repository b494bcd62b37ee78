package update

import (
	"sort"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/taskflowhq/taskflow/internal/model"
)

func (m Model) handleCalendarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "h", "left":
		m.Calendar.FocusDate = m.Calendar.FocusDate.AddDate(0, -1, 0)
		m.syncCalendarTable()
		return m, nil
	case "l", "right":
		m.Calendar.FocusDate = m.Calendar.FocusDate.AddDate(0, 1, 0)
		m.syncCalendarTable()
		return m, nil
	case "t":
		m.Calendar.FocusDate = m.now()
		m.syncCalendarTable()
		return m, nil
	case "j", "down", "k", "up":
		var cmd tea.Cmd
		m.calendarTable, cmd = m.calendarTable.Update(msg)
		return m, cmd
	}
	return m, nil
}

// monthTasks returns the focused month's dated tasks sorted by due
// date. Recurring templates are excluded, their instances carry the
// dates.
func (m Model) monthTasks() []model.Task {
	year, month, _ := m.Calendar.FocusDate.Date()
	out := make([]model.Task, 0)
	for _, task := range m.Tasks.Items {
		if task.IsRecurring || task.DueDate == nil {
			continue
		}
		dueYear, dueMonth, _ := task.DueDate.Date()
		if dueYear == year && dueMonth == month {
			out = append(out, task)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DueDate.Before(*out[j].DueDate)
	})
	return out
}

func (m *Model) syncCalendarTable() {
	tasks := m.monthTasks()
	rows := make([]table.Row, 0, len(tasks))
	for _, task := range tasks {
		rows = append(rows, table.Row{
			task.DueDate.Format("2006-01-02"),
			string(task.Priority),
			task.Title,
		})
	}
	m.calendarTable.SetRows(rows)
}
