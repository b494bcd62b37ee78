package update

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/taskflowhq/taskflow/internal/model"
	"github.com/taskflowhq/taskflow/internal/views"
)

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.loadTasksCmd(),
		m.loadWorkspacesCmd(),
		m.loadForestCmd(),
		m.generateInstancesCmd(),
	}
	if m.Services.Monitor != nil {
		cmds = append(cmds, waitForNotificationCmd(m.Services.Monitor.C()))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(typed)
	case spinner.TickMsg:
		if m.spinnerActive {
			var cmd tea.Cmd
			m.syncSpinner, cmd = m.syncSpinner.Update(typed)
			return m, cmd
		}
	case SwitchViewMsg:
		if isKnownView(typed.View) {
			m.CurrentView = typed.View
			_ = m.persistUIState()
		}
		return m, nil
	case SetStatusMsg:
		m.Status = StatusBar{Text: typed.Text, IsError: typed.IsError}
		if strings.Contains(strings.ToLower(typed.Text), "sync complete") {
			m.spinnerActive = false
		}
		return m, nil
	case ClearStatusMsg:
		m.Status = StatusBar{}
		return m, nil
	case AppErrorMsg:
		m.LastError = typed.Err
		if typed.Err != nil {
			m.Status = StatusBar{Text: typed.Err.Error(), IsError: true}
			m.addBanner("Error", typed.Err.Error(), "error")
		}
		return m, nil
	case TasksLoadedMsg:
		m.Tasks.Items = typed.Tasks
		if m.Tasks.Cursor >= len(m.Tasks.Items) {
			m.Tasks.Cursor = 0
		}
		m.syncSelectedTask()
		m.syncTaskList()
		m.syncCalendarTable()
		if m.Services.Monitor != nil {
			m.Services.Monitor.UpdateTasks(m.watchedTasks())
		}
		if task, ok := m.selectedTask(); ok {
			return m, m.loadTrackingCmd(task.ID)
		}
		return m, nil
	case TrackingLoadedMsg:
		m.Tasks.TrackingTaskID = typed.TaskID
		m.Tasks.Tracking = typed.Tracking
		return m, nil
	case WorkspacesLoadedMsg:
		m.Workspaces.Items = typed.Workspaces
		if m.Workspaces.Cursor >= len(m.Workspaces.Items) {
			m.Workspaces.Cursor = 0
		}
		return m, nil
	case ForestLoadedMsg:
		m.Forest.Stats = typed.Stats
		m.Forest.Today = typed.Today
		m.Forest.Grove = typed.Grove
		return m, nil
	case InstancesGeneratedMsg:
		if typed.Count > 0 {
			m.Status = StatusBar{Text: fmt.Sprintf("generated %d upcoming task(s)", typed.Count)}
			return m, m.loadTasksCmd()
		}
		return m, nil
	case FocusTickMsg:
		return m.onFocusTick()
	case SessionSavedMsg:
		if typed.Session.Completed {
			m.Focus.SessionsDone++
			m.Status = StatusBar{Text: fmt.Sprintf("session saved, %s tree planted", model.ClassifyTree(typed.Session.Duration))}
		} else {
			m.Status = StatusBar{Text: "session abandoned, no tree planted"}
		}
		return m, m.loadForestCmd()
	case NotificationMsg:
		n := typed.Notification
		m.addBanner(n.TaskTitle, n.Message, string(n.Severity))
		m.Status = StatusBar{Text: fmt.Sprintf("%s: %s", n.TaskTitle, n.Message), IsError: n.Severity == "error"}
		if m.Services.Monitor != nil {
			return m, waitForNotificationCmd(m.Services.Monitor.C())
		}
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.Palette.Active {
		if msg.String() == m.Keys.Help {
			m.HelpVisible = !m.HelpVisible
			return m, nil
		}
		return m.handlePaletteKey(msg)
	}
	if m.recurrenceEditor.Active {
		return m.handleRecurrenceEditorKey(msg), nil
	}
	if m.Tasks.QuickAdd {
		return m.handleQuickAddKey(msg)
	}
	if m.Tasks.Notes {
		return m.handleNotesKey(msg)
	}

	switch msg.String() {
	case "/":
		m.Palette.Active = true
		m.Palette.Input = ""
		m.commandInput.Focus()
		m.commandInput.SetValue("")
		m.Status = StatusBar{Text: "command palette active"}
		return m, nil
	case m.Keys.Tasks:
		m.CurrentView = ViewTasks
		_ = m.persistUIState()
		return m, nil
	case m.Keys.Calendar:
		m.CurrentView = ViewCalendar
		_ = m.persistUIState()
		return m, nil
	case m.Keys.Focus:
		m.CurrentView = ViewFocus
		m.bootstrapFocusTask()
		_ = m.persistUIState()
		return m, nil
	case m.Keys.Forest:
		m.CurrentView = ViewForest
		_ = m.persistUIState()
		return m, m.loadForestCmd()
	case m.Keys.Workspaces:
		m.CurrentView = ViewWorkspaces
		_ = m.persistUIState()
		return m, m.loadWorkspacesCmd()
	case m.Keys.Help:
		m.HelpVisible = !m.HelpVisible
		return m, nil
	case "ctrl+c", m.Keys.Quit:
		m.Quitting = true
		_ = m.persistUIState()
		return m, tea.Quit
	}

	switch m.CurrentView {
	case ViewTasks:
		return m.handleTasksKey(msg)
	case ViewCalendar:
		return m.handleCalendarKey(msg)
	case ViewFocus:
		return m.handleFocusKey(msg)
	case ViewWorkspaces:
		return m.handleWorkspacesKey(msg)
	}
	return m, nil
}

func (m Model) View() string {
	status := ""
	if m.Status.Text != "" {
		status = fmt.Sprintf("status: %s", m.Status.Text)
	}

	leftPane := ""
	rightPane := ""
	switch m.CurrentView {
	case ViewTasks:
		leftPane = m.renderTasksView()
		rightPane = m.renderTaskMetadataPane() + m.renderRecurrenceEditorIfVisible() + m.renderHelpIfVisible()
	case ViewCalendar:
		leftPane = m.renderCalendarView()
		rightPane = m.renderHelpIfVisible()
	case ViewFocus:
		leftPane = m.renderFocusView()
		rightPane = m.renderTodayForestPane() + m.renderHelpIfVisible()
	case ViewForest:
		leftPane = m.renderForestView()
		rightPane = m.renderHelpIfVisible()
	case ViewWorkspaces:
		leftPane = m.renderWorkspacesView()
		rightPane = m.renderHelpIfVisible()
	}

	notificationView := strings.TrimSpace(strings.Join([]string{
		strings.TrimSpace(m.renderCommandPalette()),
		strings.TrimSpace(m.renderBannersView()),
	}, "\n"))
	if m.spinnerActive {
		notificationView = strings.TrimSpace(notificationView + "\nsync: " + m.syncSpinner.View() + " running")
	}

	return views.RenderApp(views.AppData{
		Header:        fmt.Sprintf("taskflow | view: %s | workspace: %s", m.CurrentView, m.ActiveWorkspace),
		LeftPane:      leftPane,
		RightPane:     rightPane,
		StatusLine:    status,
		StatusIsError: m.Status.IsError,
		Notification:  notificationView,
		Footer: fmt.Sprintf(
			"keys: %s tasks | %s cal | %s focus | %s forest | %s ws | / cmd | %s help | %s quit",
			m.Keys.Tasks, m.Keys.Calendar, m.Keys.Focus, m.Keys.Forest, m.Keys.Workspaces, m.Keys.Help, m.Keys.Quit),
	})
}

func (m *Model) addBanner(title, body, severity string) {
	if strings.TrimSpace(body) == "" {
		return
	}
	b := Banner{Title: title, Body: body, Severity: severity, At: m.now()}
	m.Banners = append(m.Banners, b)
	if len(m.Banners) > 40 {
		m.Banners = m.Banners[len(m.Banners)-40:]
	}
	if m.DesktopEnabled && m.notifier != nil {
		_ = m.notifier.Send(b)
	}
}

func (m *Model) syncSelectedTask() {
	if len(m.Tasks.Items) == 0 {
		m.SelectedTaskID = ""
		return
	}
	if m.Tasks.Cursor < 0 || m.Tasks.Cursor >= len(m.Tasks.Items) {
		m.Tasks.Cursor = 0
	}
	m.SelectedTaskID = m.Tasks.Items[m.Tasks.Cursor].ID
}

func (m *Model) syncTaskList() {
	items := make([]list.Item, 0, len(m.Tasks.Items))
	for _, task := range m.visibleTasks() {
		items = append(items, taskListItem{task: task})
	}
	m.taskList.SetItems(items)
}
