package store

import (
	"fmt"

	"deskflow/internal/codec"
	"deskflow/internal/model"
)

// GetSettings returns a copy of the current settings. Lock-free.
func (s *Store) GetSettings() model.Settings {
	return s.settings.Load().Clone()
}

// UpdateSettings validates and persists new settings. The stored LastBackup
// stamp is owned by the backup scheduler and survives the update.
func (s *Store) UpdateSettings(next model.Settings) (model.Settings, error) {
	if err := next.Validate(); err != nil {
		return model.Settings{}, fmt.Errorf("%w: %w", ErrInvariantViolation, err)
	}

	s.settingsMu.Lock()
	defer s.settingsMu.Unlock()

	current := s.settings.Load()

	next = next.Clone()
	next.LastBackup = current.Clone().LastBackup
	next.UpdatedAt = s.now().UTC()

	if !next.UpdatedAt.After(current.UpdatedAt) {
		next.UpdatedAt = current.UpdatedAt.Add(1)
	}

	data, err := codec.EncodeSettings(next)
	if err != nil {
		return model.Settings{}, err
	}

	if err := s.persist(codec.Settings, data); err != nil {
		return model.Settings{}, err
	}

	s.settings.Store(&next)

	return next.Clone(), nil
}
