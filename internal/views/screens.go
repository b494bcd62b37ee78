package views

import (
	"fmt"
	"strings"
)

type TaskItemData struct {
	ID        string
	Title     string
	Priority  string
	Status    string
	DueAt     string
	Tags      []string
	Recurring bool
}

type TasksPanelData struct {
	ListView     string
	Items        []TaskItemData
	SelectedID   string
	TagFilter    string
	QuickAddView string
}

type CalendarPanelData struct {
	Month     string
	TableView string
}

type FocusPanelData struct {
	TaskTitle    string
	Timer        string
	Running      bool
	ProgressView string
	ProgressPct  int
	SessionsDone int
}

type ForestDayData struct {
	Date      string
	TreeTypes []string
	Minutes   int
}

type ForestPanelData struct {
	Level         int
	TreesPlanted  int
	TotalSessions int
	TotalMinutes  int
	CurrentStreak int
	LongestStreak int
	Days          []ForestDayData
}

type TodayForestData struct {
	Date      string
	Sessions  int
	Minutes   int
	Trees     int
	TreeTypes []string
}

type WorkspaceItemData struct {
	ID       string
	Name     string
	Icon     string
	Active   bool
	Selected bool
}

type WorkspacesPanelData struct {
	Items []WorkspaceItemData
}

type TaskMetadataData struct {
	SelectedID      string
	Priority        string
	Status          string
	Tags            []string
	Recurring       string
	TrackedMinutes  int
	TrackingSince   string
	DescriptionView string
}

type RecurrenceEditorData struct {
	Active       bool
	RuleType     string
	IntervalText string
	ErrorText    string
	Preview      []string
}

type HelpPanelData struct {
	CurrentView string
	Bindings    []string
	HelpView    string
}

func RenderTasksPanel(data TasksPanelData) string {
	var b strings.Builder
	b.WriteString("tasks:\n")
	if data.TagFilter != "" {
		b.WriteString(fmt.Sprintf("filter: tag=%s\n", data.TagFilter))
	}
	b.WriteString("actions: [j/k]move [a]add [c]complete [x]delete [R]recurrence\n")
	if data.QuickAddView != "" {
		b.WriteString("quick-add: " + data.QuickAddView + "\n")
	}
	b.WriteString(data.ListView + "\n")

	pending := make([]TaskItemData, 0)
	inProgress := make([]TaskItemData, 0)
	done := make([]TaskItemData, 0)
	for _, item := range data.Items {
		switch item.Status {
		case "completed":
			done = append(done, item)
		case "in-progress":
			inProgress = append(inProgress, item)
		default:
			pending = append(pending, item)
		}
	}
	renderTaskSection(&b, "In Progress", inProgress, data.SelectedID)
	renderTaskSection(&b, "Pending", pending, data.SelectedID)
	renderTaskSection(&b, "Completed", done, data.SelectedID)
	return strings.TrimSpace(b.String())
}

func RenderCalendarPanel(data CalendarPanelData) string {
	var b strings.Builder
	b.WriteString("calendar:\n")
	b.WriteString(fmt.Sprintf("month: %s\n", data.Month))
	b.WriteString("actions: [h/l]month [t]today [j/k]rows\n")
	b.WriteString(data.TableView)
	return strings.TrimSpace(b.String())
}

func RenderFocusPanel(data FocusPanelData) string {
	var b strings.Builder
	b.WriteString("focus:\n")
	if data.TaskTitle != "" {
		b.WriteString(fmt.Sprintf("task: %s\n", data.TaskTitle))
	} else {
		b.WriteString("task: (none selected)\n")
	}
	state := "paused"
	if data.Running {
		state = "running"
	}
	b.WriteString(fmt.Sprintf("timer: %s (%s)\n", data.Timer, state))
	b.WriteString(fmt.Sprintf("progress: %s %d%%\n", data.ProgressView, data.ProgressPct))
	b.WriteString(fmt.Sprintf("sessions today: %d\n", data.SessionsDone))
	b.WriteString("actions: [space]start/pause [r]reset [x]abandon")
	return strings.TrimSpace(b.String())
}

// treeGlyphs renders a day's trees with one glyph per tier, longest
// sessions growing the biggest trees.
func treeGlyphs(types []string) string {
	if len(types) > 10 {
		types = types[:10]
	}
	var b strings.Builder
	for _, t := range types {
		switch t {
		case "sapling":
			b.WriteString("🌱")
		case "young":
			b.WriteString("🌿")
		case "mature":
			b.WriteString("🌳")
		default:
			b.WriteString("🌲")
		}
	}
	return treeStyle.Render(b.String())
}

func RenderForestPanel(data ForestPanelData) string {
	var b strings.Builder
	b.WriteString("forest:\n")
	b.WriteString(fmt.Sprintf("level %d | %d trees | %d sessions | %dm focused\n",
		data.Level, data.TreesPlanted, data.TotalSessions, data.TotalMinutes))
	b.WriteString(fmt.Sprintf("streak: %d day(s) (best %d)\n", data.CurrentStreak, data.LongestStreak))
	if len(data.Days) == 0 {
		b.WriteString("(no trees yet, complete a focus session)")
		return b.String()
	}
	b.WriteString("grove:\n")
	for _, day := range data.Days {
		b.WriteString(fmt.Sprintf("%s %s %d tree(s), %dm\n",
			day.Date, treeGlyphs(day.TreeTypes), len(day.TreeTypes), day.Minutes))
	}
	return strings.TrimSpace(b.String())
}

func RenderTodayForestPane(data TodayForestData) string {
	return strings.TrimSpace(fmt.Sprintf("today (%s):\nsessions: %d\nminutes: %d\ntrees: %s %d",
		data.Date, data.Sessions, data.Minutes, treeGlyphs(data.TreeTypes), data.Trees))
}

func RenderWorkspacesPanel(data WorkspacesPanelData) string {
	var b strings.Builder
	b.WriteString("workspaces:\n")
	b.WriteString("actions: [j/k]move [enter]switch [x]delete\n")
	for _, item := range data.Items {
		cursor := " "
		if item.Selected {
			cursor = ">"
		}
		active := ""
		if item.Active {
			active = " (active)"
		}
		b.WriteString(fmt.Sprintf("%s %s %s%s\n", cursor, item.Icon, item.Name, active))
	}
	return strings.TrimSpace(b.String())
}

func RenderTaskMetadataPane(data TaskMetadataData) string {
	if strings.TrimSpace(data.SelectedID) == "" {
		return "metadata:\n(no selection)"
	}
	var b strings.Builder
	b.WriteString("metadata:\n")
	b.WriteString(fmt.Sprintf("id: %s\n", data.SelectedID))
	b.WriteString(fmt.Sprintf("priority: %s | status: %s\n", data.Priority, data.Status))
	if len(data.Tags) > 0 {
		b.WriteString(fmt.Sprintf("tags: %s\n", strings.Join(data.Tags, ",")))
	}
	if data.Recurring != "" {
		b.WriteString(fmt.Sprintf("recurring: %s\n", data.Recurring))
	}
	if data.TrackingSince != "" {
		b.WriteString(fmt.Sprintf("tracking: since %s (%dm logged)\n", data.TrackingSince, data.TrackedMinutes))
	} else if data.TrackedMinutes > 0 {
		b.WriteString(fmt.Sprintf("tracked: %dm\n", data.TrackedMinutes))
	}
	if data.DescriptionView != "" {
		b.WriteString("\ndescription:\n" + data.DescriptionView)
	}
	return strings.TrimSpace(b.String())
}

func RenderCommandPalette(active bool, input string) string {
	if !active {
		return ""
	}
	return fmt.Sprintf("command: /%s", input)
}

func RenderNotification(severity string, body string) string {
	if strings.TrimSpace(body) == "" {
		return ""
	}
	styled := fmt.Sprintf("notification: [%s] %s", strings.ToUpper(severity), body)
	if severity == "error" {
		return errorStyle.Render(styled)
	}
	return styled
}

func RenderRecurrenceEditor(data RecurrenceEditorData) string {
	if !data.Active {
		return ""
	}
	var b strings.Builder
	b.WriteString("\nrecurrence-editor:\n")
	b.WriteString("keys: [tab]type [0-9]interval [enter]preview [s]save [esc]close\n")
	b.WriteString(fmt.Sprintf("type: %s\n", data.RuleType))
	b.WriteString(fmt.Sprintf("interval: %s\n", data.IntervalText))
	if data.ErrorText != "" {
		b.WriteString("error: " + data.ErrorText + "\n")
	}
	if len(data.Preview) > 0 {
		b.WriteString("preview:\n")
		for _, item := range data.Preview {
			b.WriteString("- " + item + "\n")
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func RenderHelpPanel(data HelpPanelData) string {
	return fmt.Sprintf("help:\n%s view:\n%s\nglobal:\n%s",
		strings.ToLower(data.CurrentView),
		strings.Join(data.Bindings, "\n"),
		data.HelpView,
	)
}

func renderTaskSection(b *strings.Builder, title string, items []TaskItemData, selectedID string) {
	b.WriteString(fmt.Sprintf("\n%s:\n", title))
	if len(items) == 0 {
		b.WriteString("  (none)\n")
		return
	}
	for _, item := range items {
		cursor := " "
		if selectedID == item.ID {
			cursor = ">"
		}
		b.WriteString(fmt.Sprintf("%s %s %s", cursor, priorityBadge(item.Priority), item.Title))
		if item.DueAt != "" {
			b.WriteString(fmt.Sprintf(" due:%s", item.DueAt))
		}
		if item.Recurring {
			b.WriteString(" ↻")
		}
		if len(item.Tags) > 0 {
			b.WriteString(" #" + strings.Join(item.Tags, " #"))
		}
		b.WriteString("\n")
	}
}

func priorityBadge(priority string) string {
	switch priority {
	case "high":
		return "[RED]"
	case "medium":
		return "[YELLOW]"
	default:
		return "[GREEN]"
	}
}
