package recurrence

import (
	"context"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/taskflowhq/taskflow/internal/model"
	"github.com/taskflowhq/taskflow/internal/storage"
)

func setupService(t *testing.T, now time.Time) (*Service, *storage.SQLiteRepository) {
	t.Helper()
	repo, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "recurrence-test.db"))
	if err != nil {
		t.Fatalf("open repo: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	svc := NewService(repo)
	svc.now = func() time.Time { return now }
	return svc, repo
}

func dailyTemplate(now time.Time) model.Task {
	due := now.Add(24 * time.Hour)
	return model.Task{
		ID:          "tpl-daily",
		Title:       "Morning review",
		Priority:    model.PriorityMedium,
		Status:      model.StatusPending,
		DueDate:     &due,
		WorkspaceID: model.DefaultWorkspaceID,
		CreatedAt:   now,
		UpdatedAt:   now,
		IsRecurring: true,
		Recurrence:  &model.RecurrencePattern{Type: model.RecurrenceDaily, Interval: 1},
	}
}

func TestCreateRecurringTaskGeneratesHorizon(t *testing.T) {
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	svc, repo := setupService(t, now)
	ctx := context.Background()

	created, err := svc.CreateRecurringTask(ctx, dailyTemplate(now))
	if err != nil {
		t.Fatalf("create recurring: %v", err)
	}
	// Due date is now+24h, so occurrences land on day 2 through day 29
	// inside the 30-day horizon.
	if len(created) != 28 {
		t.Fatalf("expected 28 instances, got %d", len(created))
	}
	for _, inst := range created {
		if inst.ParentTaskID != "tpl-daily" {
			t.Fatalf("instance missing parent: %#v", inst)
		}
		if inst.IsRecurring || inst.Recurrence != nil {
			t.Fatalf("instance must not itself recur: %#v", inst)
		}
		if inst.Status != model.StatusPending {
			t.Fatalf("instance must start pending: %#v", inst)
		}
	}

	stored, err := repo.ListTasks(ctx, storage.TaskListFilter{ParentTaskID: "tpl-daily"})
	if err != nil {
		t.Fatalf("list instances: %v", err)
	}
	if len(stored) != len(created) {
		t.Fatalf("stored %d instances, returned %d", len(stored), len(created))
	}
}

func TestCreateRecurringTaskRejectsPlainTask(t *testing.T) {
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	svc, _ := setupService(t, now)

	plain := dailyTemplate(now)
	plain.IsRecurring = false
	plain.Recurrence = nil
	if _, err := svc.CreateRecurringTask(context.Background(), plain); err != ErrNotRecurring {
		t.Fatalf("expected ErrNotRecurring, got %v", err)
	}
}

func TestGenerateIsIdempotentPerDay(t *testing.T) {
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	svc, _ := setupService(t, now)
	ctx := context.Background()

	first, err := svc.CreateRecurringTask(ctx, dailyTemplate(now))
	if err != nil {
		t.Fatalf("create recurring: %v", err)
	}
	again, err := svc.GenerateUpcomingInstances(ctx, "tpl-daily", DefaultHorizonDays)
	if err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	if len(again) != 0 {
		t.Fatalf("expected no duplicates, got %d new instances (first run %d)", len(again), len(first))
	}
}

func TestGenerateHonorsMaxOccurrences(t *testing.T) {
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	svc, _ := setupService(t, now)
	ctx := context.Background()

	template := dailyTemplate(now)
	template.Recurrence.MaxOccurrences = 5
	created, err := svc.CreateRecurringTask(ctx, template)
	if err != nil {
		t.Fatalf("create recurring: %v", err)
	}
	if len(created) != 5 {
		t.Fatalf("expected 5 capped instances, got %d", len(created))
	}
}

func TestGenerateStopsAtEndDate(t *testing.T) {
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	svc, _ := setupService(t, now)
	ctx := context.Background()

	template := dailyTemplate(now)
	end := now.Add(4 * 24 * time.Hour)
	template.Recurrence.EndDate = &end
	created, err := svc.CreateRecurringTask(ctx, template)
	if err != nil {
		t.Fatalf("create recurring: %v", err)
	}
	// Occurrences at +2d, +3d, +4d; +5d is past the end date.
	if len(created) != 3 {
		t.Fatalf("expected 3 instances before end date, got %d", len(created))
	}
}

func TestUpdateRecurringTaskReschedulesOnPatternChange(t *testing.T) {
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	svc, repo := setupService(t, now)
	ctx := context.Background()

	template := dailyTemplate(now)
	if _, err := svc.CreateRecurringTask(ctx, template); err != nil {
		t.Fatalf("create recurring: %v", err)
	}

	// Mark one future instance completed; the reschedule must keep it.
	instances, err := svc.Instances(ctx, template.ID)
	if err != nil {
		t.Fatalf("instances: %v", err)
	}
	keep := instances[0]
	keep.Status = model.StatusCompleted
	if err := repo.UpdateTask(ctx, keep); err != nil {
		t.Fatalf("complete instance: %v", err)
	}

	template.Recurrence = &model.RecurrencePattern{Type: model.RecurrenceWeekly, Interval: 1}
	created, err := svc.UpdateRecurringTask(ctx, template)
	if err != nil {
		t.Fatalf("update recurring: %v", err)
	}
	if len(created) == 0 {
		t.Fatalf("expected regenerated weekly instances")
	}

	after, err := svc.Instances(ctx, template.ID)
	if err != nil {
		t.Fatalf("instances after update: %v", err)
	}
	var completedSurvived bool
	for _, inst := range after {
		if inst.ID == keep.ID {
			completedSurvived = true
		}
	}
	if !completedSurvived {
		t.Fatalf("completed instance was deleted during reschedule")
	}
	// Weekly cadence over 30 days from a due date one day out: at most
	// 4 pending occurrences plus the preserved completed one.
	if len(after) > 5 {
		t.Fatalf("stale daily instances survived reschedule: %d remain", len(after))
	}
}

func TestUpdateRecurringTaskWithoutPatternChangeKeepsInstances(t *testing.T) {
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	svc, _ := setupService(t, now)
	ctx := context.Background()

	template := dailyTemplate(now)
	if _, err := svc.CreateRecurringTask(ctx, template); err != nil {
		t.Fatalf("create recurring: %v", err)
	}
	before, err := svc.Instances(ctx, template.ID)
	if err != nil {
		t.Fatalf("instances: %v", err)
	}

	template.Title = "Morning review (renamed)"
	created, err := svc.UpdateRecurringTask(ctx, template)
	if err != nil {
		t.Fatalf("update recurring: %v", err)
	}
	if len(created) != 0 {
		t.Fatalf("title edit must not regenerate, got %d new", len(created))
	}
	after, err := svc.Instances(ctx, template.ID)
	if err != nil {
		t.Fatalf("instances after update: %v", err)
	}
	if len(after) != len(before) {
		t.Fatalf("instance count changed: %d -> %d", len(before), len(after))
	}
}

func TestDeleteRecurringTask(t *testing.T) {
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	svc, repo := setupService(t, now)
	ctx := context.Background()

	if _, err := svc.CreateRecurringTask(ctx, dailyTemplate(now)); err != nil {
		t.Fatalf("create recurring: %v", err)
	}
	if err := svc.DeleteRecurringTask(ctx, "tpl-daily", true); err != nil {
		t.Fatalf("delete recurring: %v", err)
	}
	if _, err := repo.GetTask(ctx, "tpl-daily"); err != storage.ErrNotFound {
		t.Fatalf("template should be gone, got %v", err)
	}
	left, err := repo.ListTasks(ctx, storage.TaskListFilter{ParentTaskID: "tpl-daily"})
	if err != nil {
		t.Fatalf("list instances: %v", err)
	}
	if len(left) != 0 {
		t.Fatalf("instances should be deleted, %d remain", len(left))
	}
}

func TestDeleteRecurringTaskDetachesInstances(t *testing.T) {
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	svc, repo := setupService(t, now)
	ctx := context.Background()

	created, err := svc.CreateRecurringTask(ctx, dailyTemplate(now))
	if err != nil {
		t.Fatalf("create recurring: %v", err)
	}
	if err := svc.DeleteRecurringTask(ctx, "tpl-daily", false); err != nil {
		t.Fatalf("delete recurring: %v", err)
	}
	got, err := repo.GetTask(ctx, created[0].ID)
	if err != nil {
		t.Fatalf("detached instance should survive: %v", err)
	}
	if got.ParentTaskID != "" {
		t.Fatalf("instance still references deleted template: %#v", got)
	}
}

func TestCompleteInstanceExtendsSchedule(t *testing.T) {
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	svc, repo := setupService(t, now)
	ctx := context.Background()

	template := dailyTemplate(now)
	if _, err := svc.CreateRecurringTask(ctx, template); err != nil {
		t.Fatalf("create recurring: %v", err)
	}
	instances, err := svc.Instances(ctx, template.ID)
	if err != nil {
		t.Fatalf("instances: %v", err)
	}

	extended, err := svc.CompleteInstance(ctx, instances[0].ID)
	if err != nil {
		t.Fatalf("complete instance: %v", err)
	}
	// The 60-day completion horizon reaches past the original 30 days.
	if len(extended) == 0 {
		t.Fatalf("expected schedule extension on completion")
	}
	done, err := repo.GetTask(ctx, instances[0].ID)
	if err != nil {
		t.Fatalf("get completed instance: %v", err)
	}
	if done.Status != model.StatusCompleted {
		t.Fatalf("instance not marked completed: %#v", done)
	}
}

func TestCompleteInstanceStandaloneTask(t *testing.T) {
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	svc, repo := setupService(t, now)
	ctx := context.Background()

	task := dailyTemplate(now)
	task.ID = "plain"
	task.IsRecurring = false
	task.Recurrence = nil
	if err := repo.CreateTask(ctx, task); err != nil {
		t.Fatalf("create task: %v", err)
	}
	extended, err := svc.CompleteInstance(ctx, "plain")
	if err != nil {
		t.Fatalf("complete standalone: %v", err)
	}
	if len(extended) != 0 {
		t.Fatalf("standalone completion must not generate instances")
	}
}

func TestWeeklyTemplateEndToEnd(t *testing.T) {
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	svc, repo := setupService(t, now)
	ctx := context.Background()

	template := dailyTemplate(now)
	template.ID = "tpl-weekly"
	template.Title = "Weekly planning"
	template.Recurrence = &model.RecurrencePattern{Type: model.RecurrenceWeekly, Interval: 1}

	created, err := svc.CreateRecurringTask(ctx, template)
	if err != nil {
		t.Fatalf("create recurring: %v", err)
	}
	// Due date is now+24h; weekly occurrences land 8, 15, 22 and 29
	// days out, all inside the 30-day horizon.
	if len(created) != 4 {
		t.Fatalf("expected 4 weekly instances, got %d", len(created))
	}

	instances, err := repo.ListTasks(ctx, storage.TaskListFilter{ParentTaskID: "tpl-weekly"})
	if err != nil {
		t.Fatalf("list instances: %v", err)
	}
	sort.Slice(instances, func(i, j int) bool {
		return instances[i].DueDate.Before(*instances[j].DueDate)
	})
	prev := *template.DueDate
	for i, inst := range instances {
		if inst.DueDate == nil {
			t.Fatalf("instance %d missing due date", i)
		}
		if gap := inst.DueDate.Sub(prev); gap != 7*24*time.Hour {
			t.Fatalf("instance %d gap = %v, want 168h", i, gap)
		}
		prev = *inst.DueDate
	}

	// Regeneration over the same horizon creates nothing new.
	again, err := svc.GenerateUpcomingInstances(ctx, "tpl-weekly", 0)
	if err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	if len(again) != 0 {
		t.Fatalf("regeneration not idempotent, created %d", len(again))
	}
}
