// Package export implements the import/export boundary: full-document JSON
// exports, flattened CSV projections, schema-validated imports, and the
// last-write-wins merge of an external export into the live store.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"deskflow/internal/codec"
	"deskflow/internal/fs"
	"deskflow/internal/model"
)

// Document is the interchange shape: a stamped snapshot of all four
// collections. Partial exports leave the omitted collections empty and
// Settings nil.
type Document struct {
	ExportDate    time.Time         `json:"export_date"`
	SchemaVersion int               `json:"schema_version"`
	Projects      []model.Project   `json:"projects"`
	Tasks         []model.Task      `json:"tasks"`
	DailyPlans    []model.DailyPlan `json:"daily_plans"`
	Settings      *model.Settings   `json:"settings,omitempty"`
}

const filePerms = 0o600

// NewDocument assembles an export document from collection snapshots.
func NewDocument(projects []model.Project, tasks []model.Task, plans []model.DailyPlan, settings model.Settings, now time.Time) Document {
	return Document{
		ExportDate:    now.UTC(),
		SchemaVersion: codec.SchemaVersion,
		Projects:      projects,
		Tasks:         tasks,
		DailyPlans:    plans,
		Settings:      &settings,
	}
}

// WriteJSON writes the document to path atomically, pretty-printed. Nil
// list fields encode as empty arrays, never null, so every export satisfies
// the import schema.
func WriteJSON(fsys fs.FS, path string, doc Document) error {
	doc = withEmptyLists(doc)

	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)

	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding export: %w", err)
	}

	if err := fsys.WriteFileAtomic(path, buf.Bytes(), filePerms); err != nil {
		return fmt.Errorf("writing export: %w", err)
	}

	return nil
}

// withEmptyLists replaces every nil list field with an empty slice, down to
// nested milestones, checklists, and time blocks. The collection slices are
// copied so the caller's entities stay untouched.
func withEmptyLists(doc Document) Document {
	doc.Projects = append(make([]model.Project, 0, len(doc.Projects)), doc.Projects...)
	doc.Tasks = append(make([]model.Task, 0, len(doc.Tasks)), doc.Tasks...)
	doc.DailyPlans = append(make([]model.DailyPlan, 0, len(doc.DailyPlans)), doc.DailyPlans...)

	for i := range doc.Projects {
		p := &doc.Projects[i]
		p.TechStack = orList(p.TechStack)
		p.TeamMembers = orList(p.TeamMembers)
		p.Milestones = orList(p.Milestones)
		p.Tags = orList(p.Tags)
	}

	for i := range doc.Tasks {
		t := &doc.Tasks[i]
		t.Tags = orList(t.Tags)
		t.Checklist = orList(t.Checklist)
		t.Dependencies = orList(t.Dependencies)
	}

	for i := range doc.DailyPlans {
		p := &doc.DailyPlans[i]
		p.Tasks = orList(p.Tasks)
		p.TimeBlocks = orList(p.TimeBlocks)
	}

	return doc
}

func orList[T any](s []T) []T {
	if s == nil {
		return []T{}
	}

	return s
}

// WriteProjectsCSV writes a flat one-row-per-project projection. List-valued
// fields are comma-joined; milestones are not projected.
func WriteProjectsCSV(fsys fs.FS, path string, projects []model.Project) error {
	header := []string{
		"ID", "Name", "Description", "Status", "Priority", "Color",
		"Created At", "Updated At", "Start Date", "Target Date",
		"Completion Date", "Progress %", "Repository URL",
		"Tech Stack", "Team Members", "Notes", "Tags",
	}

	rows := make([][]string, 0, len(projects))

	for _, p := range projects {
		rows = append(rows, []string{
			p.ID,
			p.Name,
			p.Description,
			string(p.Status),
			string(p.Priority),
			p.Color,
			stamp(p.CreatedAt),
			stamp(p.UpdatedAt),
			orEmpty(p.StartDate),
			orEmpty(p.TargetDate),
			orEmpty(p.CompletionDate),
			strconv.FormatFloat(p.ProgressPercentage, 'f', -1, 64),
			p.RepositoryURL,
			strings.Join(p.TechStack, ", "),
			strings.Join(p.TeamMembers, ", "),
			p.Notes,
			strings.Join(p.Tags, ", "),
		})
	}

	return writeCSV(fsys, path, header, rows)
}

// WriteTasksCSV writes a flat one-row-per-task projection.
func WriteTasksCSV(fsys fs.FS, path string, tasks []model.Task) error {
	header := []string{
		"ID", "Project ID", "Title", "Description", "Status", "Priority",
		"Created At", "Updated At", "Due Date", "Completed At",
		"Estimated Hours", "Actual Hours", "Tags", "Blocked Reason",
	}

	rows := make([][]string, 0, len(tasks))

	for _, t := range tasks {
		rows = append(rows, []string{
			t.ID,
			orEmpty(t.ProjectID),
			t.Title,
			t.Description,
			string(t.Status),
			string(t.Priority),
			stamp(t.CreatedAt),
			stamp(t.UpdatedAt),
			orEmpty(t.DueDate),
			stampPtr(t.CompletedAt),
			floatPtr(t.EstimatedHours),
			floatPtr(t.ActualHours),
			strings.Join(t.Tags, ", "),
			t.BlockedReason,
		})
	}

	return writeCSV(fsys, path, header, rows)
}

// WriteDailyPlansCSV writes a flat one-row-per-plan projection. Time blocks
// collapse to "start-end: activity" entries joined by "; ".
func WriteDailyPlansCSV(fsys fs.FS, path string, plans []model.DailyPlan) error {
	header := []string{
		"ID", "Date", "Focus Goal", "Tasks", "Time Blocks",
		"Notes", "Mood", "Completed",
	}

	rows := make([][]string, 0, len(plans))

	for _, p := range plans {
		blocks := make([]string, 0, len(p.TimeBlocks))
		for _, b := range p.TimeBlocks {
			blocks = append(blocks, fmt.Sprintf("%s-%s: %s", b.StartTime, b.EndTime, b.Activity))
		}

		rows = append(rows, []string{
			p.ID,
			p.Date,
			p.FocusGoal,
			strings.Join(p.Tasks, ", "),
			strings.Join(blocks, "; "),
			p.Notes,
			string(p.Mood),
			strconv.FormatBool(p.Completed),
		})
	}

	return writeCSV(fsys, path, header, rows)
}

func writeCSV(fsys fs.FS, path string, header []string, rows [][]string) error {
	var buf bytes.Buffer

	w := csv.NewWriter(&buf)

	if err := w.Write(header); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}

	w.Flush()

	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}

	if err := fsys.WriteFileAtomic(path, buf.Bytes(), filePerms); err != nil {
		return fmt.Errorf("writing csv: %w", err)
	}

	return nil
}

func stamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func stampPtr(t *time.Time) string {
	if t == nil {
		return ""
	}

	return stamp(*t)
}

func orEmpty(s *string) string {
	if s == nil {
		return ""
	}

	return *s
}

func floatPtr(f *float64) string {
	if f == nil {
		return ""
	}

	return strconv.FormatFloat(*f, 'f', -1, 64)
}
