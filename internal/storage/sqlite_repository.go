package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/taskflowhq/taskflow/internal/model"
)

const sqliteTimeLayout = time.RFC3339Nano

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) (*SQLiteRepository, error) {
	if db == nil {
		return nil, errors.New("storage: nil db")
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	return &SQLiteRepository{db: db}, nil
}

// OpenSQLite opens the database file and brings its schema up to date.
func OpenSQLite(path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := MigrateUp(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	repo, err := NewSQLiteRepository(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

func (r *SQLiteRepository) DB() *sql.DB {
	return r.db
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

const taskColumns = `id, title, description, priority, status, due_at, tags, workspace_id, estimated_minutes,
	created_at, updated_at, is_recurring, recur_type, recur_interval, recur_days_of_week, recur_day_of_month,
	recur_end_at, recur_max_occurrences, parent_task_id`

func (r *SQLiteRepository) CreateTask(ctx context.Context, in model.Task) error {
	tags, err := encodeTags(in.Tags)
	if err != nil {
		return err
	}
	rec := recurrenceColumns(in.Recurrence)
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.ID, in.Title, in.Description, in.Priority, in.Status,
		nullTime(in.DueDate), tags, in.WorkspaceID, in.EstimatedMinutes,
		mustTime(in.CreatedAt), mustTime(in.UpdatedAt), boolInt(in.IsRecurring),
		rec.ruleType, rec.interval, rec.daysOfWeek, rec.dayOfMonth, rec.endAt, rec.maxOccurrences,
		in.ParentTaskID,
	)
	return err
}

func (r *SQLiteRepository) GetTask(ctx context.Context, id string) (model.Task, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Task{}, ErrNotFound
		}
		return model.Task{}, err
	}
	return task, nil
}

func (r *SQLiteRepository) UpdateTask(ctx context.Context, in model.Task) error {
	tags, err := encodeTags(in.Tags)
	if err != nil {
		return err
	}
	rec := recurrenceColumns(in.Recurrence)
	res, err := r.db.ExecContext(ctx, `
		UPDATE tasks
		SET title = ?, description = ?, priority = ?, status = ?, due_at = ?, tags = ?, workspace_id = ?,
			estimated_minutes = ?, updated_at = ?, is_recurring = ?, recur_type = ?, recur_interval = ?,
			recur_days_of_week = ?, recur_day_of_month = ?, recur_end_at = ?, recur_max_occurrences = ?,
			parent_task_id = ?
		WHERE id = ?`,
		in.Title, in.Description, in.Priority, in.Status, nullTime(in.DueDate), tags, in.WorkspaceID,
		in.EstimatedMinutes, mustTime(in.UpdatedAt), boolInt(in.IsRecurring), rec.ruleType, rec.interval,
		rec.daysOfWeek, rec.dayOfMonth, rec.endAt, rec.maxOccurrences,
		in.ParentTaskID, in.ID,
	)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) DeleteTask(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) ListTasks(ctx context.Context, filter TaskListFilter) ([]model.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks`
	clauses := make([]string, 0, 3)
	args := make([]any, 0, 5)
	if filter.WorkspaceID != "" {
		clauses = append(clauses, "workspace_id = ?")
		args = append(args, filter.WorkspaceID)
	}
	if filter.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.ParentTaskID != "" {
		clauses = append(clauses, "parent_task_id = ?")
		args = append(args, filter.ParentTaskID)
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY created_at DESC`
	query += applyPagination(&args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Task, 0)
	for rows.Next() {
		task, scanErr := scanTask(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, task)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CreateWorkspace(ctx context.Context, in model.Workspace) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO workspaces (id, name, icon, color, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		in.ID, in.Name, in.Icon, in.Color, mustTime(in.CreatedAt),
	)
	return err
}

func (r *SQLiteRepository) GetWorkspace(ctx context.Context, id string) (model.Workspace, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, name, icon, color, created_at FROM workspaces WHERE id = ?`, id)
	ws, err := scanWorkspace(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Workspace{}, ErrNotFound
		}
		return model.Workspace{}, err
	}
	return ws, nil
}

func (r *SQLiteRepository) UpdateWorkspace(ctx context.Context, in model.Workspace) error {
	res, err := r.db.ExecContext(ctx, `UPDATE workspaces SET name = ?, icon = ?, color = ? WHERE id = ?`,
		in.Name, in.Icon, in.Color, in.ID,
	)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

// DeleteWorkspace removes a workspace and every task scoped to it. The
// reserved default workspace is never deletable.
func (r *SQLiteRepository) DeleteWorkspace(ctx context.Context, id string) error {
	if id == model.DefaultWorkspaceID {
		return ErrDefaultWorkspace
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE workspace_id = ?`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM workspaces WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if err := checkRowsAffected(res); err != nil {
		return err
	}
	return tx.Commit()
}

// ListWorkspaces enforces the default-workspace invariant at read time: the
// reserved workspace is inserted if it has gone missing.
func (r *SQLiteRepository) ListWorkspaces(ctx context.Context) ([]model.Workspace, error) {
	if _, err := r.GetWorkspace(ctx, model.DefaultWorkspaceID); errors.Is(err, ErrNotFound) {
		if createErr := r.CreateWorkspace(ctx, model.DefaultWorkspace(time.Now().UTC())); createErr != nil {
			return nil, createErr
		}
	} else if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, icon, color, created_at FROM workspaces
		ORDER BY CASE WHEN id = ? THEN 0 ELSE 1 END, created_at ASC`, model.DefaultWorkspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Workspace, 0)
	for rows.Next() {
		ws, scanErr := scanWorkspace(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, ws)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CreateFocusSession(ctx context.Context, in model.FocusSession) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO focus_sessions (id, start_at, end_at, duration_minutes, completed, day, workspace_id, task_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		in.ID, mustTime(in.StartTime), mustTime(in.EndTime), in.Duration, boolInt(in.Completed),
		in.Date, in.WorkspaceID, in.TaskID,
	)
	return err
}

func (r *SQLiteRepository) ListFocusSessions(ctx context.Context, filter FocusSessionFilter) ([]model.FocusSession, error) {
	query := `SELECT id, start_at, end_at, duration_minutes, completed, day, workspace_id, task_id FROM focus_sessions`
	clauses := make([]string, 0, 2)
	args := make([]any, 0, 3)
	if filter.Date != "" {
		clauses = append(clauses, "day = ?")
		args = append(args, filter.Date)
	}
	if filter.CompletedOnly {
		clauses = append(clauses, "completed = 1")
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY start_at ASC`
	query += applyPagination(&args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.FocusSession, 0)
	for rows.Next() {
		item, scanErr := scanFocusSession(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CreateTree(ctx context.Context, in model.ForestTree) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO forest_trees (id, session_id, type, planted_day, duration_minutes)
		VALUES (?, ?, ?, ?, ?)`,
		in.ID, in.SessionID, in.Type, in.PlantedDate, in.Duration,
	)
	return err
}

func (r *SQLiteRepository) ListTrees(ctx context.Context, filter TreeFilter) ([]model.ForestTree, error) {
	query := `SELECT id, session_id, type, planted_day, duration_minutes FROM forest_trees`
	args := make([]any, 0, 3)
	if filter.PlantedDate != "" {
		query += ` WHERE planted_day = ?`
		args = append(args, filter.PlantedDate)
	}
	query += ` ORDER BY planted_day ASC, id ASC`
	query += applyPagination(&args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.ForestTree, 0)
	for rows.Next() {
		var item model.ForestTree
		if scanErr := rows.Scan(&item.ID, &item.SessionID, &item.Type, &item.PlantedDate, &item.Duration); scanErr != nil {
			return nil, scanErr
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// GetForestStats returns the singleton stats row, or fresh level-one stats
// when nothing has been recorded yet.
func (r *SQLiteRepository) GetForestStats(ctx context.Context) (model.ForestStats, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT total_sessions, total_minutes, current_streak, longest_streak, trees_planted, forest_level
		FROM forest_stats WHERE id = 1`)
	var out model.ForestStats
	err := row.Scan(&out.TotalSessions, &out.TotalMinutes, &out.CurrentStreak, &out.LongestStreak, &out.TreesPlanted, &out.ForestLevel)
	if errors.Is(err, sql.ErrNoRows) {
		return model.NewForestStats(), nil
	}
	if err != nil {
		return model.ForestStats{}, err
	}
	return out, nil
}

func (r *SQLiteRepository) SaveForestStats(ctx context.Context, in model.ForestStats) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO forest_stats (id, total_sessions, total_minutes, current_streak, longest_streak, trees_planted, forest_level)
		VALUES (1, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			total_sessions = excluded.total_sessions,
			total_minutes = excluded.total_minutes,
			current_streak = excluded.current_streak,
			longest_streak = excluded.longest_streak,
			trees_planted = excluded.trees_planted,
			forest_level = excluded.forest_level`,
		in.TotalSessions, in.TotalMinutes, in.CurrentStreak, in.LongestStreak, in.TreesPlanted, in.ForestLevel,
	)
	return err
}

func (r *SQLiteRepository) CreateTimeEntry(ctx context.Context, in model.TimeEntry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO time_entries (id, task_id, start_at, end_at, minutes, note)
		VALUES (?, ?, ?, ?, ?, ?)`,
		in.ID, in.TaskID, mustTime(in.StartTime), nullTime(in.EndTime), in.Minutes, in.Note,
	)
	return err
}

func (r *SQLiteRepository) UpdateTimeEntry(ctx context.Context, in model.TimeEntry) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE time_entries SET task_id = ?, start_at = ?, end_at = ?, minutes = ?, note = ? WHERE id = ?`,
		in.TaskID, mustTime(in.StartTime), nullTime(in.EndTime), in.Minutes, in.Note, in.ID,
	)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) ListTimeEntries(ctx context.Context, filter TimeEntryFilter) ([]model.TimeEntry, error) {
	query := `SELECT id, task_id, start_at, end_at, minutes, note FROM time_entries`
	clauses := make([]string, 0, 2)
	args := make([]any, 0, 3)
	if filter.TaskID != "" {
		clauses = append(clauses, "task_id = ?")
		args = append(args, filter.TaskID)
	}
	if filter.OpenOnly {
		clauses = append(clauses, "end_at IS NULL")
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY start_at ASC`
	query += applyPagination(&args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.TimeEntry, 0)
	for rows.Next() {
		item, scanErr := scanTimeEntry(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

type recurrenceRow struct {
	ruleType       any
	interval       any
	daysOfWeek     any
	dayOfMonth     any
	endAt          any
	maxOccurrences any
}

func recurrenceColumns(p *model.RecurrencePattern) recurrenceRow {
	if p == nil {
		return recurrenceRow{}
	}
	days := "[]"
	if len(p.DaysOfWeek) > 0 {
		ints := make([]int, 0, len(p.DaysOfWeek))
		for _, d := range p.DaysOfWeek {
			ints = append(ints, int(d))
		}
		raw, err := json.Marshal(ints)
		if err == nil {
			days = string(raw)
		}
	}
	return recurrenceRow{
		ruleType:       string(p.Type),
		interval:       p.Interval,
		daysOfWeek:     days,
		dayOfMonth:     p.DayOfMonth,
		endAt:          nullTime(p.EndDate),
		maxOccurrences: p.MaxOccurrences,
	}
}

func encodeTags(tags []string) (string, error) {
	if len(tags) == 0 {
		return "[]", nil
	}
	raw, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encode tags: %w", err)
	}
	return string(raw), nil
}

func decodeTags(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" || raw == "[]" {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	return out, nil
}

func decodeWeekdays(raw sql.NullString) ([]time.Weekday, error) {
	if !raw.Valid || strings.TrimSpace(raw.String) == "" || raw.String == "[]" {
		return nil, nil
	}
	var ints []int
	if err := json.Unmarshal([]byte(raw.String), &ints); err != nil {
		return nil, fmt.Errorf("decode weekdays: %w", err)
	}
	out := make([]time.Weekday, 0, len(ints))
	for _, v := range ints {
		out = append(out, time.Weekday(v))
	}
	return out, nil
}

func nullTime(v *time.Time) any {
	if v == nil {
		return nil
	}
	return v.UTC().Format(sqliteTimeLayout)
}

func mustTime(v time.Time) string {
	return v.UTC().Format(sqliteTimeLayout)
}

func parseNullableTime(v sql.NullString) (*time.Time, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	tm, err := time.Parse(sqliteTimeLayout, v.String)
	if err != nil {
		return nil, err
	}
	return &tm, nil
}

func parseRequiredTime(v string) (time.Time, error) {
	return time.Parse(sqliteTimeLayout, v)
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func applyPagination(args *[]any, limit, offset int) string {
	sql := ""
	if limit > 0 {
		sql += " LIMIT ?"
		*args = append(*args, limit)
	}
	if offset > 0 {
		sql += " OFFSET ?"
		*args = append(*args, offset)
	}
	return sql
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner) (model.Task, error) {
	var out model.Task
	var due sql.NullString
	var tags string
	var created, updated string
	var recurring int
	var recType sql.NullString
	var recInterval, recDayOfMonth, recMax sql.NullInt64
	var recDays, recEnd sql.NullString
	var parent sql.NullString
	if err := s.Scan(&out.ID, &out.Title, &out.Description, &out.Priority, &out.Status,
		&due, &tags, &out.WorkspaceID, &out.EstimatedMinutes,
		&created, &updated, &recurring, &recType, &recInterval, &recDays, &recDayOfMonth,
		&recEnd, &recMax, &parent); err != nil {
		return model.Task{}, err
	}

	dueAt, err := parseNullableTime(due)
	if err != nil {
		return model.Task{}, err
	}
	createdAt, err := parseRequiredTime(created)
	if err != nil {
		return model.Task{}, err
	}
	updatedAt, err := parseRequiredTime(updated)
	if err != nil {
		return model.Task{}, err
	}
	decodedTags, err := decodeTags(tags)
	if err != nil {
		return model.Task{}, err
	}

	out.DueDate = dueAt
	out.Tags = decodedTags
	out.CreatedAt = createdAt
	out.UpdatedAt = updatedAt
	out.IsRecurring = recurring == 1
	out.ParentTaskID = parent.String

	if out.IsRecurring && recType.Valid {
		days, daysErr := decodeWeekdays(recDays)
		if daysErr != nil {
			return model.Task{}, daysErr
		}
		endAt, endErr := parseNullableTime(recEnd)
		if endErr != nil {
			return model.Task{}, endErr
		}
		out.Recurrence = &model.RecurrencePattern{
			Type:           model.RecurrenceType(recType.String),
			Interval:       int(recInterval.Int64),
			DaysOfWeek:     days,
			DayOfMonth:     int(recDayOfMonth.Int64),
			EndDate:        endAt,
			MaxOccurrences: int(recMax.Int64),
		}
	}
	return out, nil
}

func scanWorkspace(s scanner) (model.Workspace, error) {
	var out model.Workspace
	var created string
	if err := s.Scan(&out.ID, &out.Name, &out.Icon, &out.Color, &created); err != nil {
		return model.Workspace{}, err
	}
	createdAt, err := parseRequiredTime(created)
	if err != nil {
		return model.Workspace{}, err
	}
	out.CreatedAt = createdAt
	return out, nil
}

func scanFocusSession(s scanner) (model.FocusSession, error) {
	var out model.FocusSession
	var start, end string
	var completed int
	if err := s.Scan(&out.ID, &start, &end, &out.Duration, &completed, &out.Date, &out.WorkspaceID, &out.TaskID); err != nil {
		return model.FocusSession{}, err
	}
	startAt, err := parseRequiredTime(start)
	if err != nil {
		return model.FocusSession{}, err
	}
	endAt, err := parseRequiredTime(end)
	if err != nil {
		return model.FocusSession{}, err
	}
	out.StartTime = startAt
	out.EndTime = endAt
	out.Completed = completed == 1
	return out, nil
}

func scanTimeEntry(s scanner) (model.TimeEntry, error) {
	var out model.TimeEntry
	var start string
	var end sql.NullString
	if err := s.Scan(&out.ID, &out.TaskID, &start, &end, &out.Minutes, &out.Note); err != nil {
		return model.TimeEntry{}, err
	}
	startAt, err := parseRequiredTime(start)
	if err != nil {
		return model.TimeEntry{}, err
	}
	endAt, err := parseNullableTime(end)
	if err != nil {
		return model.TimeEntry{}, err
	}
	out.StartTime = startAt
	out.EndTime = endAt
	return out, nil
}

func checkRowsAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
