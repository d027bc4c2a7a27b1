package store

import "errors"

// Store operation errors.
var (
	// ErrNotFound is returned by get/delete for an unknown id.
	ErrNotFound = errors.New("entity not found")

	// ErrInvariantViolation is returned when an upsert would break a
	// cross-entity invariant, e.g. a dependency cycle or a duplicate
	// daily-plan date. It is always detected before any disk write.
	ErrInvariantViolation = errors.New("invariant violation")
)
