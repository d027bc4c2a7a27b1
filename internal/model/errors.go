package model

import "errors"

// Validation errors shared across entity types.
var (
	ErrNameRequired         = errors.New("name is required")
	ErrTitleRequired        = errors.New("title is required")
	ErrInvalidStatus        = errors.New("invalid status")
	ErrInvalidPriority      = errors.New("invalid priority")
	ErrInvalidMood          = errors.New("invalid mood")
	ErrInvalidDate          = errors.New("invalid date, expected YYYY-MM-DD")
	ErrInvalidTimeOfDay     = errors.New("invalid time, expected HH:MM")
	ErrBlockedReasonMissing = errors.New("blocked_reason is required when status is blocked")
)

// Date and time-of-day layouts used by date-valued string fields.
// Full timestamps (created_at, updated_at, ...) are time.Time and use RFC 3339.
const (
	DateLayout      = "2006-01-02"
	TimeOfDayLayout = "15:04"
)
