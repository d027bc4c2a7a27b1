package model

import (
	"fmt"
	"time"
)

// ChecklistItem is a single checkbox within a task.
type ChecklistItem struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// Task represents a development task. ProjectID and Dependencies are soft
// references; the store nulls or prunes them when their targets disappear.
type Task struct {
	ID             string          `json:"id"`
	ProjectID      *string         `json:"project_id"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	Status         TaskStatus      `json:"status"`
	Priority       Priority        `json:"priority"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	DueDate        *string         `json:"due_date"`
	CompletedAt    *time.Time      `json:"completed_at"`
	EstimatedHours *float64        `json:"estimated_hours"`
	ActualHours    *float64        `json:"actual_hours"`
	Tags           []string        `json:"tags"`
	Checklist      []ChecklistItem `json:"checklist"`
	BlockedReason  string          `json:"blocked_reason"`
	Dependencies   []string        `json:"dependencies"`
}

// NewTask creates a task with a fresh id and sane defaults.
// Timestamps are stamped by the store on upsert.
func NewTask(title string) Task {
	return Task{
		ID:       NewID(),
		Title:    title,
		Status:   TaskTodo,
		Priority: PriorityMedium,
	}
}

// ChecklistProgress returns (completed, total) over checklist items.
func (t *Task) ChecklistProgress() (int, int) {
	completed := 0

	for _, item := range t.Checklist {
		if item.Completed {
			completed++
		}
	}

	return completed, len(t.Checklist)
}

// IsOverdue reports whether the task's due date has passed.
// Completed tasks are never overdue.
func (t *Task) IsOverdue(now time.Time) bool {
	if t.DueDate == nil || *t.DueDate == "" || t.Status == TaskCompleted {
		return false
	}

	due, err := time.Parse(DateLayout, *t.DueDate)
	if err != nil {
		return false
	}

	return now.After(due.Add(24 * time.Hour))
}

// Validate checks structural and enum constraints.
func (t *Task) Validate() error {
	if t.Title == "" {
		return fmt.Errorf("task: %w", ErrTitleRequired)
	}

	if !IsValidTaskStatus(t.Status) {
		return fmt.Errorf("task %s: %w: %q", t.ID, ErrInvalidStatus, t.Status)
	}

	if !IsValidPriority(t.Priority) {
		return fmt.Errorf("task %s: %w: %q", t.ID, ErrInvalidPriority, t.Priority)
	}

	if t.Status == TaskBlocked && t.BlockedReason == "" {
		return fmt.Errorf("task %s: %w", t.ID, ErrBlockedReasonMissing)
	}

	if err := validateDate(t.DueDate); err != nil {
		return fmt.Errorf("task %s: %w", t.ID, err)
	}

	return nil
}

// Clone returns a deep copy so callers can mutate freely without
// touching the store's committed snapshot.
func (t Task) Clone() Task {
	clone := t
	clone.ProjectID = cloneStringPtr(t.ProjectID)
	clone.DueDate = cloneStringPtr(t.DueDate)
	clone.CompletedAt = cloneTimePtr(t.CompletedAt)
	clone.EstimatedHours = cloneFloatPtr(t.EstimatedHours)
	clone.ActualHours = cloneFloatPtr(t.ActualHours)
	clone.Tags = cloneStrings(t.Tags)
	clone.Dependencies = cloneStrings(t.Dependencies)

	if t.Checklist != nil {
		clone.Checklist = make([]ChecklistItem, len(t.Checklist))
		copy(clone.Checklist, t.Checklist)
	}

	return clone
}

func cloneFloatPtr(f *float64) *float64 {
	if f == nil {
		return nil
	}

	v := *f

	return &v
}
