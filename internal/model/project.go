// Package model defines the four persisted entity collections and their
// validation rules. Entities are plain records; relations between them are
// soft references (stored ids), reconciled by the store, never live pointers.
package model

import (
	"fmt"
	"time"
)

// Milestone is a dated goal within a project.
type Milestone struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	TargetDate  *string    `json:"target_date"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at"`
}

// Project represents a software development project.
type Project struct {
	ID                 string        `json:"id"`
	Name               string        `json:"name"`
	Description        string        `json:"description"`
	Status             ProjectStatus `json:"status"`
	Priority           Priority      `json:"priority"`
	Color              string        `json:"color"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
	StartDate          *string       `json:"start_date"`
	TargetDate         *string       `json:"target_date"`
	CompletionDate     *string       `json:"completion_date"`
	ProgressPercentage float64       `json:"progress_percentage"`
	RepositoryURL      string        `json:"repository_url"`
	TechStack          []string      `json:"tech_stack"`
	TeamMembers        []string      `json:"team_members"`
	Milestones         []Milestone   `json:"milestones"`
	Notes              string        `json:"notes"`
	Tags               []string      `json:"tags"`
}

// DefaultProjectColor is applied when a project has no explicit color.
const DefaultProjectColor = "#E07B53"

// NewProject creates a project with a fresh id and sane defaults.
// Timestamps are stamped by the store on upsert.
func NewProject(name string) Project {
	return Project{
		ID:       NewID(),
		Name:     name,
		Status:   ProjectPlanning,
		Priority: PriorityMedium,
		Color:    DefaultProjectColor,
	}
}

// Progress derives the completion percentage from milestone state.
// A project without milestones is at 0%.
func (p *Project) Progress() float64 {
	if len(p.Milestones) == 0 {
		return 0
	}

	completed := 0

	for _, m := range p.Milestones {
		if m.Completed {
			completed++
		}
	}

	return float64(completed) / float64(len(p.Milestones)) * 100
}

// Validate checks structural and enum constraints.
func (p *Project) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("project: %w", ErrNameRequired)
	}

	if !IsValidProjectStatus(p.Status) {
		return fmt.Errorf("project %s: %w: %q", p.ID, ErrInvalidStatus, p.Status)
	}

	if !IsValidPriority(p.Priority) {
		return fmt.Errorf("project %s: %w: %q", p.ID, ErrInvalidPriority, p.Priority)
	}

	for _, field := range []*string{p.StartDate, p.TargetDate, p.CompletionDate} {
		if err := validateDate(field); err != nil {
			return fmt.Errorf("project %s: %w", p.ID, err)
		}
	}

	for _, m := range p.Milestones {
		if err := validateDate(m.TargetDate); err != nil {
			return fmt.Errorf("project %s milestone %s: %w", p.ID, m.ID, err)
		}
	}

	return nil
}

// Clone returns a deep copy so callers can mutate freely without
// touching the store's committed snapshot.
func (p Project) Clone() Project {
	clone := p
	clone.StartDate = cloneStringPtr(p.StartDate)
	clone.TargetDate = cloneStringPtr(p.TargetDate)
	clone.CompletionDate = cloneStringPtr(p.CompletionDate)
	clone.TechStack = cloneStrings(p.TechStack)
	clone.TeamMembers = cloneStrings(p.TeamMembers)
	clone.Tags = cloneStrings(p.Tags)

	if p.Milestones != nil {
		clone.Milestones = make([]Milestone, len(p.Milestones))

		for i, m := range p.Milestones {
			mc := m
			mc.TargetDate = cloneStringPtr(m.TargetDate)
			mc.CompletedAt = cloneTimePtr(m.CompletedAt)
			clone.Milestones[i] = mc
		}
	}

	return clone
}

func validateDate(s *string) error {
	if s == nil || *s == "" {
		return nil
	}

	if _, err := time.Parse(DateLayout, *s); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDate, *s)
	}

	return nil
}

func validateTimeOfDay(s string) error {
	if _, err := time.Parse(TimeOfDayLayout, s); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}

	return nil
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}

	out := make([]string, len(s))
	copy(out, s)

	return out
}

func cloneStringPtr(s *string) *string {
	if s == nil {
		return nil
	}

	v := *s

	return &v
}

func cloneTimePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}

	v := *t

	return &v
}
