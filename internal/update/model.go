package update

import (
	"fmt"
	"os/exec"
	"runtime"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"

	"github.com/taskflowhq/taskflow/internal/forest"
	"github.com/taskflowhq/taskflow/internal/model"
	"github.com/taskflowhq/taskflow/internal/notify"
	"github.com/taskflowhq/taskflow/internal/recurrence"
	"github.com/taskflowhq/taskflow/internal/storage"
	"github.com/taskflowhq/taskflow/internal/timelog"
)

type View string

const (
	ViewTasks      View = "Tasks"
	ViewCalendar   View = "Calendar"
	ViewFocus      View = "Focus"
	ViewForest     View = "Forest"
	ViewWorkspaces View = "Workspaces"
)

type StatusBar struct {
	Text    string
	IsError bool
}

type GlobalKeyMap struct {
	Tasks      string
	Calendar   string
	Focus      string
	Forest     string
	Workspaces string
	Help       string
	Quit       string
}

// Services bundles everything the TUI talks to.
type Services struct {
	Repo       storage.Repository
	Recurrence *recurrence.Service
	Forest     *forest.Engine
	Timelog    *timelog.Service
	Monitor    *notify.Monitor
}

type TasksState struct {
	Items     []model.Task
	Cursor    int
	TagFilter string
	QuickAdd  bool
	Notes     bool

	// Tracking mirrors the timelog state of the task the cursor is on.
	TrackingTaskID string
	Tracking       model.TimeTracking
}

type CalendarState struct {
	FocusDate time.Time
}

type FocusState struct {
	TaskID       string
	TaskTitle    string
	DurationSec  int
	RemainingSec int
	Running      bool
	StartedAt    time.Time
	SessionsDone int
}

type ForestViewState struct {
	Stats model.ForestStats
	Today forest.DayStats
	Grove map[string][]model.ForestTree
}

type WorkspacesState struct {
	Items  []model.Workspace
	Cursor int
}

type CommandPaletteState struct {
	Active bool
	Input  string
}

// RecurrenceEditorState drives the inline pattern editor on the tasks
// view. Preview shows the next few occurrences of the drafted pattern.
type RecurrenceEditorState struct {
	Active       bool
	RuleType     string
	IntervalText string
	Preview      []string
	Err          string
}

type Banner struct {
	Title    string
	Body     string
	Severity string
	At       time.Time
}

type Model struct {
	CurrentView     View
	Services        Services
	ActiveWorkspace string
	SelectedTaskID  string

	Tasks      TasksState
	Calendar   CalendarState
	Focus      FocusState
	Forest     ForestViewState
	Workspaces WorkspacesState

	Palette     CommandPaletteState
	Status      StatusBar
	Keys        GlobalKeyMap
	HelpVisible bool
	Banners     []Banner
	Quitting    bool
	LastError   error

	DesktopEnabled bool
	notifier       DesktopNotifier

	// Bubble components used for rich TUI controls
	taskList      list.Model
	calendarTable table.Model
	quickAddInput textinput.Model
	commandInput  textinput.Model
	notesArea     textarea.Model
	focusProgress progress.Model
	syncSpinner   spinner.Model
	helpModel     help.Model
	metaViewport  viewport.Model
	spinnerActive bool

	stateFilePath    string
	recurrenceEditor RecurrenceEditorState
	now              func() time.Time
}

type DesktopNotifier interface {
	Send(Banner) error
}

type NoopDesktopNotifier struct{}

func (NoopDesktopNotifier) Send(Banner) error { return nil }

type ExecDesktopNotifier struct{}

func (ExecDesktopNotifier) Send(b Banner) error {
	switch runtime.GOOS {
	case "linux":
		return exec.Command("notify-send", b.Title, b.Body).Run()
	case "darwin":
		script := fmt.Sprintf(`display notification "%s" with title "%s"`, escapeAppleScript(b.Body), escapeAppleScript(b.Title))
		return exec.Command("osascript", "-e", script).Run()
	default:
		return nil
	}
}

type SwitchViewMsg struct {
	View View
}

type SetStatusMsg struct {
	Text    string
	IsError bool
}

type ClearStatusMsg struct{}

type AppErrorMsg struct {
	Err error
}

type TasksLoadedMsg struct {
	Tasks []model.Task
}

type WorkspacesLoadedMsg struct {
	Workspaces []model.Workspace
}

type TrackingLoadedMsg struct {
	TaskID   string
	Tracking model.TimeTracking
}

type ForestLoadedMsg struct {
	Stats model.ForestStats
	Today forest.DayStats
	Grove map[string][]model.ForestTree
}

type FocusTickMsg struct{}

type SessionSavedMsg struct {
	Session model.FocusSession
}

type NotificationMsg struct {
	Notification notify.Notification
}

type InstancesGeneratedMsg struct {
	Count int
}

func NewModel(services Services) Model {
	m := Model{
		CurrentView:     ViewTasks,
		Services:        services,
		ActiveWorkspace: model.DefaultWorkspaceID,
		Focus: FocusState{
			DurationSec:  25 * 60,
			RemainingSec: 25 * 60,
		},
		Keys: GlobalKeyMap{
			Tasks:      "1",
			Calendar:   "2",
			Focus:      "3",
			Forest:     "4",
			Workspaces: "5",
			Help:       "?",
			Quit:       "q",
		},
		notifier: NoopDesktopNotifier{},
		recurrenceEditor: RecurrenceEditorState{
			RuleType:     "daily",
			IntervalText: "1",
		},
		now: time.Now,
	}
	m.Calendar.FocusDate = m.now()
	m.initBubbleComponents()
	return m
}

func NewModelWithConfig(services Services, notifier DesktopNotifier, cfg RuntimeConfig) Model {
	m := NewModel(services)
	m.DesktopEnabled = cfg.DesktopNotifications
	if notifier != nil {
		m.notifier = notifier
	}
	if cfg.FocusMinutes > 0 {
		m.Focus.DurationSec = cfg.FocusMinutes * 60
		m.Focus.RemainingSec = m.Focus.DurationSec
	}
	if cfg.Workspace != "" {
		m.ActiveWorkspace = cfg.Workspace
	}
	m.stateFilePath = cfg.UIStatePath
	if m.stateFilePath != "" {
		if state, err := loadUIState(m.stateFilePath); err == nil {
			if isKnownView(View(state.LastView)) {
				m.CurrentView = View(state.LastView)
			}
			if state.ActiveWorkspace != "" {
				m.ActiveWorkspace = state.ActiveWorkspace
			}
		}
	}
	return m
}

func (m *Model) initBubbleComponents() {
	taskDelegate := list.NewDefaultDelegate()
	m.taskList = list.New(nil, taskDelegate, 56, 14)
	m.taskList.SetShowHelp(false)
	m.taskList.Title = "Tasks"

	m.calendarTable = table.New(
		table.WithColumns([]table.Column{
			{Title: "Date", Width: 12},
			{Title: "Pri", Width: 6},
			{Title: "Task", Width: 34},
		}),
		table.WithHeight(10),
	)

	m.quickAddInput = textinput.New()
	m.quickAddInput.Placeholder = "task title, priority:high due:2026-01-02 tag:deep"
	m.quickAddInput.CharLimit = 200

	m.commandInput = textinput.New()
	m.commandInput.Placeholder = "add | done | show | workspace | export"
	m.commandInput.CharLimit = 200

	m.notesArea = textarea.New()
	m.notesArea.Placeholder = "notes"
	m.notesArea.SetWidth(52)
	m.notesArea.SetHeight(4)

	m.focusProgress = progress.New(progress.WithDefaultGradient())
	m.syncSpinner = spinner.New(spinner.WithSpinner(spinner.Dot))
	m.helpModel = help.New()
	m.metaViewport = viewport.New(52, 8)
}

type taskListItem struct {
	task model.Task
}

func (i taskListItem) FilterValue() string { return i.task.Title }
func (i taskListItem) Title() string       { return i.task.Title }
func (i taskListItem) Description() string {
	desc := string(i.task.Priority) + " / " + string(i.task.Status)
	if i.task.DueDate != nil {
		desc += " due " + i.task.DueDate.Format("2006-01-02 15:04")
	}
	return desc
}

func isKnownView(v View) bool {
	switch v {
	case ViewTasks, ViewCalendar, ViewFocus, ViewForest, ViewWorkspaces:
		return true
	default:
		return false
	}
}
