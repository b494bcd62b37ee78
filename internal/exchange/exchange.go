// Package exchange moves tasks and workspaces in and out of the app as
// a JSON bundle or a flat CSV.
package exchange

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/taskflowhq/taskflow/internal/model"
)

// BundleVersion is stamped on every export and checked on import.
const BundleVersion = "1.0.0"

var ErrUnsupportedVersion = errors.New("exchange: unsupported bundle version")

// Bundle is the JSON export envelope.
type Bundle struct {
	Tasks      []model.Task
	Workspaces []model.Workspace
	ExportDate time.Time
	Version    string
}

type wireBundle struct {
	Tasks      []wireTask      `json:"tasks"`
	Workspaces []wireWorkspace `json:"workspaces"`
	ExportDate string          `json:"exportDate"`
	Version    string          `json:"version"`
}

type wireTask struct {
	ID               string          `json:"id"`
	Title            string          `json:"title"`
	Description      string          `json:"description,omitempty"`
	Priority         string          `json:"priority"`
	Status           string          `json:"status"`
	DueDate          *string         `json:"dueDate,omitempty"`
	Tags             []string        `json:"tags,omitempty"`
	WorkspaceID      string          `json:"workspaceId"`
	EstimatedMinutes int             `json:"estimatedMinutes,omitempty"`
	CreatedAt        string          `json:"createdAt"`
	UpdatedAt        string          `json:"updatedAt"`
	IsRecurring      bool            `json:"isRecurring,omitempty"`
	Recurrence       *wireRecurrence `json:"recurrencePattern,omitempty"`
	ParentTaskID     string          `json:"parentTaskId,omitempty"`
}

type wireRecurrence struct {
	Type           string  `json:"type"`
	Interval       int     `json:"interval"`
	DaysOfWeek     []int   `json:"daysOfWeek,omitempty"`
	DayOfMonth     int     `json:"dayOfMonth,omitempty"`
	EndDate        *string `json:"endDate,omitempty"`
	MaxOccurrences int     `json:"maxOccurrences,omitempty"`
}

type wireWorkspace struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Icon      string `json:"icon,omitempty"`
	Color     string `json:"color,omitempty"`
	CreatedAt string `json:"createdAt"`
}

// ExportJSON encodes the bundle, stamping the version and export time.
func ExportJSON(tasks []model.Task, workspaces []model.Workspace, exportedAt time.Time) ([]byte, error) {
	out := wireBundle{
		Tasks:      make([]wireTask, 0, len(tasks)),
		Workspaces: make([]wireWorkspace, 0, len(workspaces)),
		ExportDate: exportedAt.UTC().Format(time.RFC3339),
		Version:    BundleVersion,
	}
	for _, task := range tasks {
		out.Tasks = append(out.Tasks, taskToWire(task))
	}
	for _, ws := range workspaces {
		out.Workspaces = append(out.Workspaces, wireWorkspace{
			ID:        ws.ID,
			Name:      ws.Name,
			Icon:      ws.Icon,
			Color:     ws.Color,
			CreatedAt: ws.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return json.MarshalIndent(out, "", "  ")
}

// ImportJSON decodes a bundle and validates every record in it.
func ImportJSON(data []byte) (Bundle, error) {
	var in wireBundle
	if err := json.Unmarshal(data, &in); err != nil {
		return Bundle{}, fmt.Errorf("exchange: decode bundle: %w", err)
	}
	if in.Version != BundleVersion {
		return Bundle{}, fmt.Errorf("%w: %q", ErrUnsupportedVersion, in.Version)
	}

	out := Bundle{Version: in.Version}
	if in.ExportDate != "" {
		exported, err := time.Parse(time.RFC3339, in.ExportDate)
		if err != nil {
			return Bundle{}, fmt.Errorf("exchange: bad export date: %w", err)
		}
		out.ExportDate = exported
	}
	for i, wt := range in.Tasks {
		task, err := taskFromWire(wt)
		if err != nil {
			return Bundle{}, fmt.Errorf("exchange: task %d: %w", i, err)
		}
		if err := task.Validate(); err != nil {
			return Bundle{}, fmt.Errorf("exchange: task %d: %w", i, err)
		}
		out.Tasks = append(out.Tasks, task)
	}
	for i, ww := range in.Workspaces {
		created, err := time.Parse(time.RFC3339, ww.CreatedAt)
		if err != nil {
			return Bundle{}, fmt.Errorf("exchange: workspace %d: bad created date: %w", i, err)
		}
		ws := model.Workspace{ID: ww.ID, Name: ww.Name, Icon: ww.Icon, Color: ww.Color, CreatedAt: created}
		if err := ws.Validate(); err != nil {
			return Bundle{}, fmt.Errorf("exchange: workspace %d: %w", i, err)
		}
		out.Workspaces = append(out.Workspaces, ws)
	}
	return out, nil
}

// csvHeader is the fixed column order of CSV exports.
var csvHeader = []string{
	"Title", "Description", "Priority", "Status", "Due Date",
	"Tags", "Workspace", "Created At", "Estimated Minutes",
}

// ExportCSV writes one row per task. Tags are joined with commas
// inside a single quoted cell.
func ExportCSV(tasks []model.Task) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, task := range tasks {
		due := ""
		if task.DueDate != nil {
			due = task.DueDate.UTC().Format(time.RFC3339)
		}
		row := []string{
			task.Title,
			task.Description,
			string(task.Priority),
			string(task.Status),
			due,
			strings.Join(task.Tags, ","),
			task.WorkspaceID,
			task.CreatedAt.UTC().Format(time.RFC3339),
			strconv.Itoa(task.EstimatedMinutes),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func taskToWire(task model.Task) wireTask {
	out := wireTask{
		ID:               task.ID,
		Title:            task.Title,
		Description:      task.Description,
		Priority:         string(task.Priority),
		Status:           string(task.Status),
		Tags:             task.Tags,
		WorkspaceID:      task.WorkspaceID,
		EstimatedMinutes: task.EstimatedMinutes,
		CreatedAt:        task.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:        task.UpdatedAt.UTC().Format(time.RFC3339),
		IsRecurring:      task.IsRecurring,
		ParentTaskID:     task.ParentTaskID,
	}
	if task.DueDate != nil {
		due := task.DueDate.UTC().Format(time.RFC3339)
		out.DueDate = &due
	}
	if task.Recurrence != nil {
		p := task.Recurrence
		wr := &wireRecurrence{
			Type:           string(p.Type),
			Interval:       p.Interval,
			DayOfMonth:     p.DayOfMonth,
			MaxOccurrences: p.MaxOccurrences,
		}
		for _, d := range p.DaysOfWeek {
			wr.DaysOfWeek = append(wr.DaysOfWeek, int(d))
		}
		if p.EndDate != nil {
			end := p.EndDate.UTC().Format(time.RFC3339)
			wr.EndDate = &end
		}
		out.Recurrence = wr
	}
	return out
}

func taskFromWire(wt wireTask) (model.Task, error) {
	created, err := time.Parse(time.RFC3339, wt.CreatedAt)
	if err != nil {
		return model.Task{}, fmt.Errorf("bad created date: %w", err)
	}
	updated, err := time.Parse(time.RFC3339, wt.UpdatedAt)
	if err != nil {
		return model.Task{}, fmt.Errorf("bad updated date: %w", err)
	}
	out := model.Task{
		ID:               wt.ID,
		Title:            wt.Title,
		Description:      wt.Description,
		Priority:         model.Priority(wt.Priority),
		Status:           model.Status(wt.Status),
		Tags:             wt.Tags,
		WorkspaceID:      wt.WorkspaceID,
		EstimatedMinutes: wt.EstimatedMinutes,
		CreatedAt:        created,
		UpdatedAt:        updated,
		IsRecurring:      wt.IsRecurring,
		ParentTaskID:     wt.ParentTaskID,
	}
	if wt.DueDate != nil {
		due, err := time.Parse(time.RFC3339, *wt.DueDate)
		if err != nil {
			return model.Task{}, fmt.Errorf("bad due date: %w", err)
		}
		out.DueDate = &due
	}
	if wt.Recurrence != nil {
		p := &model.RecurrencePattern{
			Type:           model.RecurrenceType(wt.Recurrence.Type),
			Interval:       wt.Recurrence.Interval,
			DayOfMonth:     wt.Recurrence.DayOfMonth,
			MaxOccurrences: wt.Recurrence.MaxOccurrences,
		}
		for _, d := range wt.Recurrence.DaysOfWeek {
			p.DaysOfWeek = append(p.DaysOfWeek, time.Weekday(d))
		}
		if wt.Recurrence.EndDate != nil {
			end, err := time.Parse(time.RFC3339, *wt.Recurrence.EndDate)
			if err != nil {
				return model.Task{}, fmt.Errorf("bad recurrence end date: %w", err)
			}
			p.EndDate = &end
		}
		out.Recurrence = p
	}
	return out, nil
}
