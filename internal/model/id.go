package model

import "github.com/google/uuid"

// NewID returns a fresh globally-unique entity id.
func NewID() string {
	return uuid.NewString()
}
