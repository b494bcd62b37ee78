package update

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/taskflowhq/taskflow/internal/forest"
	"github.com/taskflowhq/taskflow/internal/model"
	"github.com/taskflowhq/taskflow/internal/notify"
	"github.com/taskflowhq/taskflow/internal/recurrence"
	"github.com/taskflowhq/taskflow/internal/storage"
	"github.com/taskflowhq/taskflow/internal/timelog"
)

func newTestModel(t *testing.T) (Model, *storage.SQLiteRepository) {
	t.Helper()
	repo, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "app-test.db"))
	if err != nil {
		t.Fatalf("open repo: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	m := NewModel(Services{
		Repo:       repo,
		Recurrence: recurrence.NewService(repo),
		Forest:     forest.NewEngine(repo),
		Timelog:    timelog.NewService(repo),
	})
	m.now = func() time.Time { return time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC) }
	return m, repo
}

func runesKey(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func applyMsg(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	typed, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return typed, cmd
}

// drain runs a returned command chain until it stops producing
// messages, feeding each message back into the model.
func drain(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	for i := 0; cmd != nil && i < 10; i++ {
		msg := cmd()
		if msg == nil {
			return m
		}
		if batch, ok := msg.(tea.BatchMsg); ok {
			for _, sub := range batch {
				if sub == nil {
					continue
				}
				m = drain(t, m, sub)
			}
			return m
		}
		m, cmd = applyMsg(t, m, msg)
	}
	return m
}

func TestViewSwitchingKeys(t *testing.T) {
	m, _ := newTestModel(t)

	cases := []struct {
		key  string
		want View
	}{
		{"2", ViewCalendar},
		{"3", ViewFocus},
		{"4", ViewForest},
		{"5", ViewWorkspaces},
		{"1", ViewTasks},
	}
	for _, tc := range cases {
		next, _ := applyMsg(t, m, runesKey(tc.key))
		if next.CurrentView != tc.want {
			t.Fatalf("key %q: view = %s, want %s", tc.key, next.CurrentView, tc.want)
		}
		m = next
	}
}

func TestQuickAddCreatesTask(t *testing.T) {
	m, repo := newTestModel(t)

	m, _ = applyMsg(t, m, runesKey("a"))
	if !m.Tasks.QuickAdd {
		t.Fatalf("quick add not active")
	}
	for _, r := range "write report priority:high tag:work" {
		m, _ = applyMsg(t, m, runesKey(string(r)))
	}
	m, cmd := applyMsg(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = drain(t, m, cmd)

	tasks, err := repo.ListTasks(context.Background(), storage.TaskListFilter{})
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("expected one task, got %d", len(tasks))
	}
	task := tasks[0]
	if task.Title != "write report" || task.Priority != model.PriorityHigh {
		t.Fatalf("unexpected task: %#v", task)
	}
	if len(task.Tags) != 1 || task.Tags[0] != "work" {
		t.Fatalf("unexpected tags: %#v", task.Tags)
	}
	if len(m.Tasks.Items) != 1 {
		t.Fatalf("model did not reload tasks: %d", len(m.Tasks.Items))
	}
}

func TestQuickAddEscCancels(t *testing.T) {
	m, repo := newTestModel(t)

	m, _ = applyMsg(t, m, runesKey("a"))
	for _, r := range "oops" {
		m, _ = applyMsg(t, m, runesKey(string(r)))
	}
	m, _ = applyMsg(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.Tasks.QuickAdd {
		t.Fatalf("quick add still active after esc")
	}

	tasks, err := repo.ListTasks(context.Background(), storage.TaskListFilter{})
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if len(tasks) != 0 {
		t.Fatalf("cancelled quick add persisted a task")
	}
}

func TestCompleteSelectedTask(t *testing.T) {
	m, repo := newTestModel(t)
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	task := model.Task{
		ID:          "t1",
		Title:       "Finish me",
		Priority:    model.PriorityMedium,
		Status:      model.StatusPending,
		WorkspaceID: model.DefaultWorkspaceID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := repo.CreateTask(context.Background(), task); err != nil {
		t.Fatalf("create task: %v", err)
	}
	m, _ = applyMsg(t, m, TasksLoadedMsg{Tasks: []model.Task{task}})

	m, cmd := applyMsg(t, m, runesKey("c"))
	m = drain(t, m, cmd)

	got, err := repo.GetTask(context.Background(), "t1")
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if got.Status != model.StatusCompleted {
		t.Fatalf("task not completed: %s", got.Status)
	}
}

func TestPaletteAddCommand(t *testing.T) {
	m, repo := newTestModel(t)

	m, _ = applyMsg(t, m, runesKey("/"))
	if !m.Palette.Active {
		t.Fatalf("palette not active")
	}
	for _, r := range "add pay rent priority:low" {
		m, _ = applyMsg(t, m, runesKey(string(r)))
	}
	m, cmd := applyMsg(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = drain(t, m, cmd)

	if m.Palette.Active {
		t.Fatalf("palette should close after execute")
	}
	tasks, err := repo.ListTasks(context.Background(), storage.TaskListFilter{})
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Title != "pay rent" || tasks[0].Priority != model.PriorityLow {
		t.Fatalf("unexpected tasks: %#v", tasks)
	}
}

func TestPaletteExportWritesFile(t *testing.T) {
	m, repo := newTestModel(t)
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	task := model.Task{
		ID: "t1", Title: "Ship release", Priority: model.PriorityHigh, Status: model.StatusPending,
		WorkspaceID: model.DefaultWorkspaceID, CreatedAt: now, UpdatedAt: now,
	}
	if err := repo.CreateTask(context.Background(), task); err != nil {
		t.Fatalf("create task: %v", err)
	}

	path := filepath.Join(t.TempDir(), "out.csv")
	m, _ = applyMsg(t, m, runesKey("/"))
	for _, r := range "export csv " + path {
		m, _ = applyMsg(t, m, runesKey(string(r)))
	}
	m, _ = applyMsg(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.Status.IsError {
		t.Fatalf("export failed: %s", m.Status.Text)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !strings.Contains(string(raw), "Ship release") {
		t.Fatalf("export missing task: %q", raw)
	}
}

func TestPaletteUnknownCommandSetsErrorStatus(t *testing.T) {
	m, _ := newTestModel(t)

	m, _ = applyMsg(t, m, runesKey("/"))
	for _, r := range "frobnicate all" {
		m, _ = applyMsg(t, m, runesKey(string(r)))
	}
	m, _ = applyMsg(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if !m.Status.IsError {
		t.Fatalf("expected error status, got %+v", m.Status)
	}
}

func TestFocusCountdownSavesCompletedSession(t *testing.T) {
	m, repo := newTestModel(t)

	m, _ = applyMsg(t, m, runesKey("3"))
	m.Focus.DurationSec = 2
	m.Focus.RemainingSec = 2
	m, cmd := applyMsg(t, m, tea.KeyMsg{Type: tea.KeySpace})
	if !m.Focus.Running || cmd == nil {
		t.Fatalf("focus did not start")
	}

	m, _ = applyMsg(t, m, FocusTickMsg{})
	m, cmd = applyMsg(t, m, FocusTickMsg{})
	if m.Focus.Running {
		t.Fatalf("focus should stop at zero")
	}
	m = drain(t, m, cmd)

	sessions, err := repo.ListFocusSessions(context.Background(), storage.FocusSessionFilter{Date: "2026-03-02"})
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(sessions) != 1 || !sessions[0].Completed {
		t.Fatalf("expected one completed session, got %#v", sessions)
	}
	if m.Focus.SessionsDone != 1 {
		t.Fatalf("sessions done = %d", m.Focus.SessionsDone)
	}
}

func TestFocusAbandonSavesIncompleteSession(t *testing.T) {
	m, repo := newTestModel(t)

	m, _ = applyMsg(t, m, runesKey("3"))
	m, _ = applyMsg(t, m, tea.KeyMsg{Type: tea.KeySpace})
	m, cmd := applyMsg(t, m, runesKey("x"))
	m = drain(t, m, cmd)

	sessions, err := repo.ListFocusSessions(context.Background(), storage.FocusSessionFilter{Date: "2026-03-02"})
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(sessions) != 1 || sessions[0].Completed {
		t.Fatalf("expected one abandoned session, got %#v", sessions)
	}
	trees, err := repo.ListTrees(context.Background(), storage.TreeFilter{})
	if err != nil {
		t.Fatalf("list trees: %v", err)
	}
	if len(trees) != 0 {
		t.Fatalf("abandoned session must not plant a tree")
	}
}

func TestNotificationMsgAddsBanner(t *testing.T) {
	m, _ := newTestModel(t)

	n := notify.Notification{
		TaskID:    "t1",
		TaskTitle: "Pay rent",
		Milestone: "1h",
		Severity:  notify.SeverityError,
		Message:   "Due in 1 hour",
	}
	m, _ = applyMsg(t, m, NotificationMsg{Notification: n})
	if len(m.Banners) != 1 {
		t.Fatalf("expected one banner, got %d", len(m.Banners))
	}
	if m.Banners[0].Severity != "error" || !m.Status.IsError {
		t.Fatalf("unexpected banner state: %#v %#v", m.Banners[0], m.Status)
	}
}

func TestRecurrenceEditorSavesTemplate(t *testing.T) {
	m, repo := newTestModel(t)
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	due := now.Add(24 * time.Hour)
	task := model.Task{
		ID:          "t1",
		Title:       "Water plants",
		Priority:    model.PriorityLow,
		Status:      model.StatusPending,
		DueDate:     &due,
		WorkspaceID: model.DefaultWorkspaceID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := repo.CreateTask(context.Background(), task); err != nil {
		t.Fatalf("create task: %v", err)
	}
	m, _ = applyMsg(t, m, TasksLoadedMsg{Tasks: []model.Task{task}})

	m, _ = applyMsg(t, m, runesKey("R"))
	if !m.recurrenceEditor.Active {
		t.Fatalf("recurrence editor not active")
	}
	m, _ = applyMsg(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if len(m.recurrenceEditor.Preview) == 0 {
		t.Fatalf("expected occurrence preview, err=%q", m.recurrenceEditor.Err)
	}
	m, _ = applyMsg(t, m, runesKey("s"))
	if m.recurrenceEditor.Active {
		t.Fatalf("editor should close on save, err=%q", m.recurrenceEditor.Err)
	}

	got, err := repo.GetTask(context.Background(), "t1")
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if !got.IsRecurring || got.Recurrence == nil || got.Recurrence.Type != model.RecurrenceDaily {
		t.Fatalf("template not saved: %#v", got)
	}
	instances, err := repo.ListTasks(context.Background(), storage.TaskListFilter{ParentTaskID: "t1"})
	if err != nil {
		t.Fatalf("list instances: %v", err)
	}
	if len(instances) == 0 {
		t.Fatalf("expected generated instances")
	}
}

func TestNotesEditorSavesDescription(t *testing.T) {
	m, repo := newTestModel(t)
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	task := model.Task{
		ID: "t1", Title: "Plan sprint", Priority: model.PriorityMedium, Status: model.StatusPending,
		WorkspaceID: model.DefaultWorkspaceID, CreatedAt: now, UpdatedAt: now,
	}
	if err := repo.CreateTask(context.Background(), task); err != nil {
		t.Fatalf("create task: %v", err)
	}
	m, _ = applyMsg(t, m, TasksLoadedMsg{Tasks: []model.Task{task}})

	m, _ = applyMsg(t, m, runesKey("n"))
	if !m.Tasks.Notes {
		t.Fatalf("notes editor not active")
	}
	for _, r := range "talk to infra first" {
		m, _ = applyMsg(t, m, runesKey(string(r)))
	}
	m, cmd := applyMsg(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.Tasks.Notes {
		t.Fatalf("notes editor should close on esc")
	}
	m = drain(t, m, cmd)

	got, err := repo.GetTask(context.Background(), "t1")
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if got.Description != "talk to infra first" {
		t.Fatalf("description = %q", got.Description)
	}
}

func TestPostponeSelectedTask(t *testing.T) {
	m, repo := newTestModel(t)
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	due := time.Date(2026, 3, 5, 17, 0, 0, 0, time.UTC)
	task := model.Task{
		ID: "t1", Title: "File taxes", Priority: model.PriorityHigh, Status: model.StatusPending,
		DueDate: &due, WorkspaceID: model.DefaultWorkspaceID, CreatedAt: now, UpdatedAt: now,
	}
	if err := repo.CreateTask(context.Background(), task); err != nil {
		t.Fatalf("create task: %v", err)
	}
	m, _ = applyMsg(t, m, TasksLoadedMsg{Tasks: []model.Task{task}})

	m, cmd := applyMsg(t, m, runesKey("p"))
	m = drain(t, m, cmd)

	got, err := repo.GetTask(context.Background(), "t1")
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	want := due.Add(24 * time.Hour)
	if got.DueDate == nil || !got.DueDate.Equal(want) {
		t.Fatalf("due date = %v, want %v", got.DueDate, want)
	}
}

func TestUIStatePersistenceRoundTrip(t *testing.T) {
	m, _ := newTestModel(t)
	m.stateFilePath = filepath.Join(t.TempDir(), "state", "ui.json")
	m.CurrentView = ViewForest
	m.ActiveWorkspace = "work"

	if err := m.persistUIState(); err != nil {
		t.Fatalf("persist: %v", err)
	}
	state, err := loadUIState(m.stateFilePath)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if state.LastView != string(ViewForest) || state.ActiveWorkspace != "work" {
		t.Fatalf("unexpected state: %#v", state)
	}
}

func TestViewRendersHeaderAndFooter(t *testing.T) {
	m, _ := newTestModel(t)
	out := m.View()
	if !strings.Contains(out, "taskflow") {
		t.Fatalf("view missing header: %q", out)
	}
	if !strings.Contains(out, "quit") {
		t.Fatalf("view missing footer: %q", out)
	}
}

func TestVisibleTasksHidesTemplatesAndFilters(t *testing.T) {
	m, _ := newTestModel(t)
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	template := model.Task{
		ID: "tpl", Title: "Template", Priority: model.PriorityLow, Status: model.StatusPending,
		WorkspaceID: model.DefaultWorkspaceID, CreatedAt: now, UpdatedAt: now,
		IsRecurring: true,
		Recurrence:  &model.RecurrencePattern{Type: model.RecurrenceDaily, Interval: 1},
	}
	tagged := model.Task{
		ID: "a", Title: "Tagged", Priority: model.PriorityLow, Status: model.StatusPending,
		Tags: []string{"deep"}, WorkspaceID: model.DefaultWorkspaceID, CreatedAt: now, UpdatedAt: now,
	}
	plain := model.Task{
		ID: "b", Title: "Plain", Priority: model.PriorityLow, Status: model.StatusPending,
		WorkspaceID: model.DefaultWorkspaceID, CreatedAt: now, UpdatedAt: now,
	}
	m, _ = applyMsg(t, m, TasksLoadedMsg{Tasks: []model.Task{template, tagged, plain}})

	if got := len(m.visibleTasks()); got != 2 {
		t.Fatalf("templates should be hidden, got %d visible", got)
	}
	m.Tasks.TagFilter = "deep"
	visible := m.visibleTasks()
	if len(visible) != 1 || visible[0].ID != "a" {
		t.Fatalf("tag filter failed: %#v", visible)
	}
}

func TestTrackingToggleOpensAndClosesEntry(t *testing.T) {
	m, repo := newTestModel(t)
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	task := model.Task{
		ID: "t1", Title: "Deep work", Priority: model.PriorityMedium, Status: model.StatusPending,
		WorkspaceID: model.DefaultWorkspaceID, CreatedAt: now, UpdatedAt: now,
	}
	if err := repo.CreateTask(context.Background(), task); err != nil {
		t.Fatalf("create task: %v", err)
	}
	m, cmd := applyMsg(t, m, TasksLoadedMsg{Tasks: []model.Task{task}})
	m = drain(t, m, cmd)

	m, cmd = applyMsg(t, m, runesKey("t"))
	m = drain(t, m, cmd)

	open, err := repo.ListTimeEntries(context.Background(), storage.TimeEntryFilter{TaskID: "t1", OpenOnly: true})
	if err != nil {
		t.Fatalf("list open entries: %v", err)
	}
	if len(open) != 1 {
		t.Fatalf("expected one open entry, got %d", len(open))
	}
	if m.Tasks.TrackingTaskID != "t1" || !m.Tasks.Tracking.IsActive {
		t.Fatalf("tracking state not loaded: %#v", m.Tasks)
	}

	m, cmd = applyMsg(t, m, runesKey("t"))
	m = drain(t, m, cmd)

	open, err = repo.ListTimeEntries(context.Background(), storage.TimeEntryFilter{TaskID: "t1", OpenOnly: true})
	if err != nil {
		t.Fatalf("list open entries: %v", err)
	}
	if len(open) != 0 {
		t.Fatalf("entry still open after second toggle")
	}
	if m.Tasks.Tracking.IsActive {
		t.Fatalf("tracking snapshot still active: %#v", m.Tasks.Tracking)
	}
}

func TestPaletteImportRestoresBundle(t *testing.T) {
	source, sourceRepo := newTestModel(t)
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	task := model.Task{
		ID: "t1", Title: "Restore me", Priority: model.PriorityHigh, Status: model.StatusPending,
		Tags: []string{"backup"}, WorkspaceID: model.DefaultWorkspaceID, CreatedAt: now, UpdatedAt: now,
	}
	if err := sourceRepo.CreateTask(context.Background(), task); err != nil {
		t.Fatalf("create task: %v", err)
	}

	path := filepath.Join(t.TempDir(), "bundle.json")
	source, _ = applyMsg(t, source, runesKey("/"))
	for _, r := range "export json " + path {
		source, _ = applyMsg(t, source, runesKey(string(r)))
	}
	source, _ = applyMsg(t, source, tea.KeyMsg{Type: tea.KeyEnter})
	if source.Status.IsError {
		t.Fatalf("export failed: %s", source.Status.Text)
	}

	target, targetRepo := newTestModel(t)
	target, _ = applyMsg(t, target, runesKey("/"))
	for _, r := range "import " + path {
		target, _ = applyMsg(t, target, runesKey(string(r)))
	}
	target, cmd := applyMsg(t, target, tea.KeyMsg{Type: tea.KeyEnter})
	if target.Status.IsError {
		t.Fatalf("import failed: %s", target.Status.Text)
	}
	target = drain(t, target, cmd)

	got, err := targetRepo.GetTask(context.Background(), "t1")
	if err != nil {
		t.Fatalf("imported task missing: %v", err)
	}
	if got.Title != "Restore me" || len(got.Tags) != 1 || got.Tags[0] != "backup" {
		t.Fatalf("unexpected imported task: %#v", got)
	}
	if len(target.Tasks.Items) != 1 {
		t.Fatalf("model did not reload after import: %d", len(target.Tasks.Items))
	}
}

func TestPaletteImportRejectsBadBundle(t *testing.T) {
	m, _ := newTestModel(t)
	path := filepath.Join(t.TempDir(), "broken.json")
	if err := os.WriteFile(path, []byte(`{"version":"9.9.9"}`), 0o644); err != nil {
		t.Fatalf("write bundle: %v", err)
	}

	m, _ = applyMsg(t, m, runesKey("/"))
	for _, r := range "import " + path {
		m, _ = applyMsg(t, m, runesKey(string(r)))
	}
	m, _ = applyMsg(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if !m.Status.IsError {
		t.Fatalf("expected version error, got %+v", m.Status)
	}
}
