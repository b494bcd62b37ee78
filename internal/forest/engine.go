// Package forest turns completed focus sessions into a growing forest:
// every completed session plants a tree and feeds streak statistics.
package forest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/taskflowhq/taskflow/internal/model"
	"github.com/taskflowhq/taskflow/internal/storage"
)

// SessionDraft carries everything known about a finished (or abandoned)
// focus session. The engine assigns the ID and derived fields.
type SessionDraft struct {
	StartTime   time.Time
	EndTime     time.Time
	Duration    int
	Completed   bool
	WorkspaceID string
	TaskID      string
}

// DayStats summarizes one calendar day of focus work.
type DayStats struct {
	Date     string
	Sessions int
	Minutes  int
	Trees    int
}

// Engine records focus sessions and maintains the forest.
type Engine struct {
	mu   sync.Mutex
	repo storage.Repository
	now  func() time.Time
}

func NewEngine(repo storage.Repository) *Engine {
	return &Engine{repo: repo, now: time.Now}
}

// SaveSession persists the session. Completed sessions additionally
// plant a tree and fold the session into the cumulative stats; abandoned
// sessions are recorded for history only. Stats updates are serialized
// so concurrent session saves never lose increments.
func (e *Engine) SaveSession(ctx context.Context, draft SessionDraft) (model.FocusSession, error) {
	session := model.FocusSession{
		ID:          uuid.NewString(),
		StartTime:   draft.StartTime,
		EndTime:     draft.EndTime,
		Duration:    draft.Duration,
		Completed:   draft.Completed,
		Date:        model.DayKey(draft.StartTime),
		WorkspaceID: draft.WorkspaceID,
		TaskID:      draft.TaskID,
	}
	if err := session.Validate(); err != nil {
		return model.FocusSession{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.repo.CreateFocusSession(ctx, session); err != nil {
		return model.FocusSession{}, fmt.Errorf("save session: %w", err)
	}
	if !session.Completed {
		return session, nil
	}

	tree := model.ForestTree{
		ID:          model.TreeID(session.ID),
		Type:        model.ClassifyTree(session.Duration),
		SessionID:   session.ID,
		PlantedDate: session.Date,
		Duration:    session.Duration,
	}
	if err := e.repo.CreateTree(ctx, tree); err != nil {
		return model.FocusSession{}, fmt.Errorf("plant tree: %w", err)
	}
	if err := e.applySession(ctx, session); err != nil {
		return model.FocusSession{}, err
	}
	return session, nil
}

// applySession folds one completed session into the stats. Caller holds
// the mutex.
func (e *Engine) applySession(ctx context.Context, session model.FocusSession) error {
	stats, err := e.repo.GetForestStats(ctx)
	if err != nil {
		return fmt.Errorf("load stats: %w", err)
	}

	stats.TotalSessions++
	stats.TotalMinutes += session.Duration
	stats.TreesPlanted++
	stats.ForestLevel = model.LevelFor(stats.TreesPlanted)

	firstToday, err := e.isFirstCompletedOfDay(ctx, session.Date)
	if err != nil {
		return err
	}
	if firstToday {
		yesterday, err := e.hadCompletedOn(ctx, previousDay(session.Date))
		if err != nil {
			return err
		}
		if yesterday {
			stats.CurrentStreak++
		} else {
			stats.CurrentStreak = 1
		}
		if stats.CurrentStreak > stats.LongestStreak {
			stats.LongestStreak = stats.CurrentStreak
		}
	}

	if err := e.repo.SaveForestStats(ctx, stats); err != nil {
		return fmt.Errorf("save stats: %w", err)
	}
	return nil
}

// Stats returns the cumulative forest statistics.
func (e *Engine) Stats(ctx context.Context) (model.ForestStats, error) {
	return e.repo.GetForestStats(ctx)
}

// TodayStats summarizes the current calendar day.
func (e *Engine) TodayStats(ctx context.Context) (DayStats, error) {
	return e.StatsForDate(ctx, model.DayKey(e.now()))
}

// StatsForDate summarizes a single calendar day.
func (e *Engine) StatsForDate(ctx context.Context, date string) (DayStats, error) {
	sessions, err := e.repo.ListFocusSessions(ctx, storage.FocusSessionFilter{Date: date, CompletedOnly: true})
	if err != nil {
		return DayStats{}, err
	}
	trees, err := e.repo.ListTrees(ctx, storage.TreeFilter{PlantedDate: date})
	if err != nil {
		return DayStats{}, err
	}
	out := DayStats{Date: date, Sessions: len(sessions), Trees: len(trees)}
	for _, s := range sessions {
		out.Minutes += s.Duration
	}
	return out, nil
}

// Trees returns every planted tree.
func (e *Engine) Trees(ctx context.Context) ([]model.ForestTree, error) {
	return e.repo.ListTrees(ctx, storage.TreeFilter{})
}

// SessionsForDate returns all sessions recorded on a calendar day,
// completed or not.
func (e *Engine) SessionsForDate(ctx context.Context, date string) ([]model.FocusSession, error) {
	return e.repo.ListFocusSessions(ctx, storage.FocusSessionFilter{Date: date})
}

// TreesForDate returns the trees planted on a calendar day.
func (e *Engine) TreesForDate(ctx context.Context, date string) ([]model.ForestTree, error) {
	return e.repo.ListTrees(ctx, storage.TreeFilter{PlantedDate: date})
}

// Visualization groups the planted trees by calendar day. Each day
// keeps its individual trees so callers can show the tier of every
// tree, not just a count.
func (e *Engine) Visualization(ctx context.Context) (map[string][]model.ForestTree, error) {
	trees, err := e.repo.ListTrees(ctx, storage.TreeFilter{})
	if err != nil {
		return nil, err
	}
	grove := make(map[string][]model.ForestTree)
	for _, tree := range trees {
		grove[tree.PlantedDate] = append(grove[tree.PlantedDate], tree)
	}
	for _, day := range grove {
		sort.Slice(day, func(i, j int) bool { return day[i].Duration < day[j].Duration })
	}
	return grove, nil
}

func (e *Engine) isFirstCompletedOfDay(ctx context.Context, date string) (bool, error) {
	sessions, err := e.repo.ListFocusSessions(ctx, storage.FocusSessionFilter{Date: date, CompletedOnly: true})
	if err != nil {
		return false, err
	}
	// The session being applied is already stored.
	return len(sessions) == 1, nil
}

func (e *Engine) hadCompletedOn(ctx context.Context, date string) (bool, error) {
	sessions, err := e.repo.ListFocusSessions(ctx, storage.FocusSessionFilter{Date: date, CompletedOnly: true, Limit: 1})
	if err != nil {
		return false, err
	}
	return len(sessions) > 0, nil
}

func previousDay(date string) string {
	day, err := time.Parse(model.DayFormat, date)
	if err != nil {
		return date
	}
	return day.AddDate(0, 0, -1).Format(model.DayFormat)
}
