// Package notify watches due dates and emits one notification per task
// milestone, with milestones chosen by task priority.
package notify

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/taskflowhq/taskflow/internal/model"
)

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notification is a single fired due-date alert.
type Notification struct {
	TaskID    string
	TaskTitle string
	Milestone string
	Severity  Severity
	Message   string
	FiredAt   time.Time
}

// DefaultInterval is how often the monitor re-checks every task.
const DefaultInterval = 60 * time.Second

// milestone is one point on the countdown to a due date. A task hits
// the milestone when time-until-due lands within tolerance of before.
type milestone struct {
	id        string
	before    time.Duration
	tolerance time.Duration
	severity  Severity
	message   string
}

const (
	day = 24 * time.Hour

	dayTolerance    = 864 * time.Second // 0.01 day
	hourTolerance   = 6 * time.Minute   // 0.1 hour
	minuteTolerance = 3 * time.Minute   // 0.05 hour
)

// milestonesByPriority maps each priority to its countdown schedule, furthest
// milestone first. Tolerances never overlap, so task order decides
// nothing.
var milestonesByPriority = map[model.Priority][]milestone{
	model.PriorityHigh: {
		{id: "24h", before: 24 * time.Hour, tolerance: dayTolerance, severity: SeverityWarning, message: "Due in 24 hours"},
		{id: "12h", before: 12 * time.Hour, tolerance: hourTolerance, severity: SeverityWarning, message: "Due in 12 hours"},
		{id: "6h", before: 6 * time.Hour, tolerance: hourTolerance, severity: SeverityError, message: "Due in 6 hours"},
		{id: "2h", before: 2 * time.Hour, tolerance: hourTolerance, severity: SeverityError, message: "Due in 2 hours"},
		{id: "1h", before: time.Hour, tolerance: hourTolerance, severity: SeverityError, message: "Due in 1 hour"},
		{id: "30m", before: 30 * time.Minute, tolerance: minuteTolerance, severity: SeverityError, message: "Due in 30 minutes"},
	},
	model.PriorityMedium: {
		{id: "3d", before: 3 * day, tolerance: dayTolerance, severity: SeverityInfo, message: "Due in 3 days"},
		{id: "1d", before: day, tolerance: dayTolerance, severity: SeverityWarning, message: "Due in 1 day"},
		{id: "6h", before: 6 * time.Hour, tolerance: hourTolerance, severity: SeverityWarning, message: "Due in 6 hours"},
		{id: "2h", before: 2 * time.Hour, tolerance: hourTolerance, severity: SeverityError, message: "Due in 2 hours"},
	},
	model.PriorityLow: {
		{id: "7d", before: 7 * day, tolerance: dayTolerance, severity: SeverityInfo, message: "Due in 7 days"},
		{id: "3d", before: 3 * day, tolerance: dayTolerance, severity: SeverityInfo, message: "Due in 3 days"},
		{id: "1d", before: day, tolerance: dayTolerance, severity: SeverityWarning, message: "Due in 1 day"},
	},
}

var overdueMilestone = milestone{
	id:       "overdue",
	severity: SeverityError,
	message:  "Task is overdue",
}

// Monitor polls the watched task set on a fixed interval and emits
// notifications on its output channel. A task fires each milestone at
// most once for the lifetime of the monitor; slow consumers drop
// notifications rather than stall the loop.
type Monitor struct {
	mu      sync.Mutex
	tasks   []model.Task
	fired   map[string]bool
	started bool
	stopped bool

	interval time.Duration
	out      chan Notification
	stopCh   chan struct{}
	doneCh   chan struct{}
	dropped  uint64
	now      func() time.Time
}

func NewMonitor(interval time.Duration, bufferSize int) *Monitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &Monitor{
		fired:    make(map[string]bool),
		interval: interval,
		out:      make(chan Notification, bufferSize),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
		now:      time.Now,
	}
}

// C is the notification stream. It closes when the monitor stops.
func (m *Monitor) C() <-chan Notification {
	return m.out
}

// StartMonitoring begins polling the given tasks. The first check runs
// immediately, then every interval.
func (m *Monitor) StartMonitoring(tasks []model.Task) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return
	}
	m.started = true
	m.tasks = cloneTasks(tasks)
	go m.loop()
}

// StopMonitoring cancels the poll loop and waits for it to exit.
func (m *Monitor) StopMonitoring() {
	m.mu.Lock()
	if !m.started || m.stopped {
		m.mu.Unlock()
		return
	}
	m.stopped = true
	close(m.stopCh)
	m.mu.Unlock()
	<-m.doneCh
}

// UpdateTasks replaces the watched task set. Fired milestones are kept,
// so an already-notified task does not re-fire after an edit.
func (m *Monitor) UpdateTasks(tasks []model.Task) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks = cloneTasks(tasks)
}

// Dropped reports notifications discarded because the consumer lagged.
func (m *Monitor) Dropped() uint64 {
	return atomic.LoadUint64(&m.dropped)
}

// CheckNow evaluates every watched task once and returns what fired.
// Notifications are also delivered on the channel.
func (m *Monitor) CheckNow() []Notification {
	m.mu.Lock()
	tasks := cloneTasks(m.tasks)
	now := m.now()

	var fired []Notification
	for _, task := range tasks {
		n, ok := m.evaluate(task, now)
		if !ok {
			continue
		}
		m.fired[firedKey(n.TaskID, n.Milestone)] = true
		fired = append(fired, n)
	}
	m.mu.Unlock()

	for _, n := range fired {
		select {
		case m.out <- n:
		default:
			atomic.AddUint64(&m.dropped, 1)
		}
	}
	return fired
}

// evaluate finds the first unfired milestone the task currently sits
// on. At most one notification per task per check. Caller holds the
// mutex.
func (m *Monitor) evaluate(task model.Task, now time.Time) (Notification, bool) {
	if task.DueDate == nil || task.Status == model.StatusCompleted {
		return Notification{}, false
	}
	until := task.DueDate.Sub(now)

	if until < 0 {
		overdue := -until
		if overdue < time.Hour && !m.fired[firedKey(task.ID, overdueMilestone.id)] {
			return m.notification(task, overdueMilestone, now), true
		}
		return Notification{}, false
	}

	for _, ms := range milestonesByPriority[task.Priority] {
		if m.fired[firedKey(task.ID, ms.id)] {
			continue
		}
		diff := until - ms.before
		if diff < 0 {
			diff = -diff
		}
		if diff <= ms.tolerance {
			return m.notification(task, ms, now), true
		}
	}
	return Notification{}, false
}

func (m *Monitor) notification(task model.Task, ms milestone, now time.Time) Notification {
	return Notification{
		TaskID:    task.ID,
		TaskTitle: task.Title,
		Milestone: ms.id,
		Severity:  ms.severity,
		Message:   ms.message,
		FiredAt:   now,
	}
}

func (m *Monitor) loop() {
	defer close(m.doneCh)
	defer close(m.out)

	m.CheckNow()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.CheckNow()
		case <-m.stopCh:
			return
		}
	}
}

func firedKey(taskID, milestoneID string) string {
	return taskID + "|" + milestoneID
}

func cloneTasks(tasks []model.Task) []model.Task {
	out := make([]model.Task, len(tasks))
	copy(out, tasks)
	return out
}
