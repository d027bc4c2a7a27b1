package model

import (
	"fmt"
	"time"
)

// TimeBlock is a scheduled slice of a planned day.
// TaskID is an optional soft reference to a task.
type TimeBlock struct {
	ID        string  `json:"id"`
	StartTime string  `json:"start_time"`
	EndTime   string  `json:"end_time"`
	Activity  string  `json:"activity"`
	TaskID    *string `json:"task_id"`
	Completed bool    `json:"completed"`
}

// DailyPlan represents the plan for one calendar date.
// Date is a uniqueness key: the store keeps at most one plan per date.
type DailyPlan struct {
	ID         string      `json:"id"`
	Date       string      `json:"date"`
	FocusGoal  string      `json:"focus_goal"`
	Tasks      []string    `json:"tasks"`
	TimeBlocks []TimeBlock `json:"time_blocks"`
	Notes      string      `json:"notes"`
	Mood       Mood        `json:"mood"`
	Completed  bool        `json:"completed"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// NewDailyPlan creates a plan for the given YYYY-MM-DD date.
func NewDailyPlan(date string) DailyPlan {
	return DailyPlan{
		ID:   NewID(),
		Date: date,
	}
}

// TimeBlocksProgress returns (completed, total) over time blocks.
func (d *DailyPlan) TimeBlocksProgress() (int, int) {
	completed := 0

	for _, b := range d.TimeBlocks {
		if b.Completed {
			completed++
		}
	}

	return completed, len(d.TimeBlocks)
}

// HasTask reports whether the plan references the given task id.
func (d *DailyPlan) HasTask(taskID string) bool {
	for _, id := range d.Tasks {
		if id == taskID {
			return true
		}
	}

	return false
}

// Validate checks structural and enum constraints.
func (d *DailyPlan) Validate() error {
	if _, err := time.Parse(DateLayout, d.Date); err != nil {
		return fmt.Errorf("daily plan %s: %w: %q", d.ID, ErrInvalidDate, d.Date)
	}

	if !IsValidMood(d.Mood) {
		return fmt.Errorf("daily plan %s: %w: %q", d.ID, ErrInvalidMood, d.Mood)
	}

	for _, b := range d.TimeBlocks {
		if err := validateTimeOfDay(b.StartTime); err != nil {
			return fmt.Errorf("daily plan %s time block %s: %w", d.ID, b.ID, err)
		}

		if err := validateTimeOfDay(b.EndTime); err != nil {
			return fmt.Errorf("daily plan %s time block %s: %w", d.ID, b.ID, err)
		}
	}

	return nil
}

// Clone returns a deep copy so callers can mutate freely without
// touching the store's committed snapshot.
func (d DailyPlan) Clone() DailyPlan {
	clone := d
	clone.Tasks = cloneStrings(d.Tasks)

	if d.TimeBlocks != nil {
		clone.TimeBlocks = make([]TimeBlock, len(d.TimeBlocks))

		for i, b := range d.TimeBlocks {
			bc := b
			bc.TaskID = cloneStringPtr(b.TaskID)
			clone.TimeBlocks[i] = bc
		}
	}

	return clone
}
