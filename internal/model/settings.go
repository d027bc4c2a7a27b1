package model

import (
	"fmt"
	"time"
)

// Settings is the singleton user-preferences record. It always exists;
// the store creates it with defaults on first run.
type Settings struct {
	Theme               string     `json:"theme"`
	DefaultProjectColor string     `json:"default_project_color"`
	WorkHoursStart      string     `json:"work_hours_start"`
	WorkHoursEnd        string     `json:"work_hours_end"`
	NotificationsOn     bool       `json:"notifications_enabled"`
	AutoBackup          bool       `json:"auto_backup"`
	BackupFrequencyDays int        `json:"backup_frequency_days"`
	ShowCompletedTasks  bool       `json:"show_completed_tasks"`
	TaskSortOrder       string     `json:"task_sort_order"`
	FirstLaunch         bool       `json:"first_launch"`
	LastBackup          *time.Time `json:"last_backup"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// DefaultSettings returns the settings written on first run.
func DefaultSettings() Settings {
	return Settings{
		Theme:               "system",
		DefaultProjectColor: DefaultProjectColor,
		WorkHoursStart:      "09:00",
		WorkHoursEnd:        "17:00",
		NotificationsOn:     true,
		AutoBackup:          true,
		BackupFrequencyDays: 1,
		ShowCompletedTasks:  true,
		TaskSortOrder:       "priority",
		FirstLaunch:         true,
	}
}

var validThemes = map[string]bool{"light": true, "dark": true, "system": true}

// Validate checks structural and enum constraints.
func (s *Settings) Validate() error {
	if !validThemes[s.Theme] {
		return fmt.Errorf("settings: invalid theme %q", s.Theme)
	}

	if err := validateTimeOfDay(s.WorkHoursStart); err != nil {
		return fmt.Errorf("settings work_hours_start: %w", err)
	}

	if err := validateTimeOfDay(s.WorkHoursEnd); err != nil {
		return fmt.Errorf("settings work_hours_end: %w", err)
	}

	if s.BackupFrequencyDays < 0 {
		return fmt.Errorf("settings: backup_frequency_days must not be negative, got %d", s.BackupFrequencyDays)
	}

	return nil
}

// Clone returns a deep copy.
func (s Settings) Clone() Settings {
	clone := s
	clone.LastBackup = cloneTimePtr(s.LastBackup)

	return clone
}
