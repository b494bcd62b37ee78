package update

import (
	"sort"

	"github.com/taskflowhq/taskflow/internal/views"
)

func (m Model) renderTasksView() string {
	items := make([]views.TaskItemData, 0, len(m.visibleTasks()))
	for _, task := range m.visibleTasks() {
		item := views.TaskItemData{
			ID:       task.ID,
			Title:    task.Title,
			Priority: string(task.Priority),
			Status:   string(task.Status),
			Tags:     task.Tags,
		}
		if task.DueDate != nil {
			item.DueAt = task.DueDate.Format("2006-01-02 15:04")
		}
		if task.ParentTaskID != "" {
			item.Recurring = true
		}
		items = append(items, item)
	}
	quickAdd := ""
	if m.Tasks.QuickAdd {
		quickAdd = m.quickAddInput.View()
	}
	return views.RenderTasksPanel(views.TasksPanelData{
		ListView:     m.taskList.View(),
		Items:        items,
		SelectedID:   m.SelectedTaskID,
		TagFilter:    m.Tasks.TagFilter,
		QuickAddView: quickAdd,
	})
}

func (m Model) renderCalendarView() string {
	return views.RenderCalendarPanel(views.CalendarPanelData{
		Month:     m.Calendar.FocusDate.Format("January 2006"),
		TableView: m.calendarTable.View(),
	})
}

func (m Model) renderFocusView() string {
	total := m.Focus.DurationSec
	done := total - m.Focus.RemainingSec
	pct := 0.0
	if total > 0 {
		pct = float64(done) / float64(total)
	}
	return views.RenderFocusPanel(views.FocusPanelData{
		TaskTitle:    m.Focus.TaskTitle,
		Timer:        formatDuration(m.Focus.RemainingSec),
		Running:      m.Focus.Running,
		ProgressView: m.focusProgress.ViewAs(pct),
		ProgressPct:  int(pct * 100),
		SessionsDone: m.Focus.SessionsDone,
	})
}

func (m Model) renderForestView() string {
	dates := make([]string, 0, len(m.Forest.Grove))
	for date := range m.Forest.Grove {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	days := make([]views.ForestDayData, 0, len(dates))
	for _, date := range dates {
		day := views.ForestDayData{Date: date}
		for _, tree := range m.Forest.Grove[date] {
			day.TreeTypes = append(day.TreeTypes, string(tree.Type))
			day.Minutes += tree.Duration
		}
		days = append(days, day)
	}
	return views.RenderForestPanel(views.ForestPanelData{
		Level:         m.Forest.Stats.ForestLevel,
		TreesPlanted:  m.Forest.Stats.TreesPlanted,
		TotalSessions: m.Forest.Stats.TotalSessions,
		TotalMinutes:  m.Forest.Stats.TotalMinutes,
		CurrentStreak: m.Forest.Stats.CurrentStreak,
		LongestStreak: m.Forest.Stats.LongestStreak,
		Days:          days,
	})
}

func (m Model) renderTodayForestPane() string {
	treeTypes := make([]string, 0, len(m.Forest.Grove[m.Forest.Today.Date]))
	for _, tree := range m.Forest.Grove[m.Forest.Today.Date] {
		treeTypes = append(treeTypes, string(tree.Type))
	}
	return views.RenderTodayForestPane(views.TodayForestData{
		Date:      m.Forest.Today.Date,
		Sessions:  m.Forest.Today.Sessions,
		Minutes:   m.Forest.Today.Minutes,
		Trees:     m.Forest.Today.Trees,
		TreeTypes: treeTypes,
	})
}

func (m Model) renderWorkspacesView() string {
	items := make([]views.WorkspaceItemData, 0, len(m.Workspaces.Items))
	for i, ws := range m.Workspaces.Items {
		items = append(items, views.WorkspaceItemData{
			ID:       ws.ID,
			Name:     ws.Name,
			Icon:     ws.Icon,
			Active:   ws.ID == m.ActiveWorkspace,
			Selected: i == m.Workspaces.Cursor,
		})
	}
	return views.RenderWorkspacesPanel(views.WorkspacesPanelData{Items: items})
}

func (m Model) renderTaskMetadataPane() string {
	task, ok := m.selectedTask()
	if !ok {
		return "metadata:\n(no selection)"
	}
	recurring := ""
	if task.ParentTaskID != "" {
		recurring = "instance of " + task.ParentTaskID
	}
	if m.Tasks.Notes {
		return "notes (esc saves):\n" + m.notesArea.View()
	}
	data := views.TaskMetadataData{
		SelectedID:      task.ID,
		Priority:        string(task.Priority),
		Status:          string(task.Status),
		Tags:            task.Tags,
		Recurring:       recurring,
		DescriptionView: views.RenderMarkdown(task.Description),
	}
	if m.Tasks.TrackingTaskID == task.ID {
		data.TrackedMinutes = m.Tasks.Tracking.TotalMinutes
		if m.Tasks.Tracking.IsActive && m.Tasks.Tracking.ActiveSessionStart != nil {
			data.TrackingSince = m.Tasks.Tracking.ActiveSessionStart.Format("15:04")
		}
	}
	return views.RenderTaskMetadataPane(data)
}

func (m Model) renderCommandPalette() string {
	return views.RenderCommandPalette(m.Palette.Active, m.Palette.Input)
}

func (m Model) renderBannersView() string {
	if len(m.Banners) == 0 {
		return ""
	}
	b := m.Banners[len(m.Banners)-1]
	return views.RenderNotification(b.Severity, b.Title+": "+b.Body)
}

func (m Model) renderRecurrenceEditorIfVisible() string {
	return views.RenderRecurrenceEditor(views.RecurrenceEditorData{
		Active:       m.recurrenceEditor.Active,
		RuleType:     m.recurrenceEditor.RuleType,
		IntervalText: m.recurrenceEditor.IntervalText,
		ErrorText:    m.recurrenceEditor.Err,
		Preview:      m.recurrenceEditor.Preview,
	})
}

func (m Model) renderHelpIfVisible() string {
	if !m.HelpVisible {
		return ""
	}
	bindings := m.viewBindings()
	return "\n" + views.RenderHelpPanel(views.HelpPanelData{
		CurrentView: string(m.CurrentView),
		Bindings:    bindings,
		HelpView:    m.helpModel.View(globalKeyHelp{keys: m.Keys}),
	})
}

func (m Model) viewBindings() []string {
	switch m.CurrentView {
	case ViewTasks:
		return []string{
			"[j/k] move", "[a] quick add", "[c] complete", "[x] delete",
			"[n] notes", "[p] postpone", "[t] track time",
			"[R] recurrence editor", "[f] clear tag filter",
		}
	case ViewCalendar:
		return []string{"[h/l] month", "[t] today", "[j/k] rows"}
	case ViewFocus:
		return []string{"[space] start/pause", "[r] reset", "[x] abandon"}
	case ViewForest:
		return []string{"(read only)"}
	case ViewWorkspaces:
		return []string{"[j/k] move", "[enter] switch", "[x] delete"}
	default:
		return nil
	}
}
