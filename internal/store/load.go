package store

import (
	"fmt"

	"deskflow/internal/codec"
	"deskflow/internal/migrate"
	"deskflow/internal/model"
)

// migrateRaw runs the schema migration chain over raw document bytes.
// Returns the (possibly rewritten) bytes and whether any step ran.
func migrateRaw(name string, data []byte) ([]byte, bool, error) {
	return migrate.Run(name, data)
}

// loadAll loads settings first (backup policy depends on it), then the three
// list collections.
func (s *Store) loadAll() (*LoadReport, error) {
	report := &LoadReport{Outcomes: make(map[string]Outcome, len(codec.CollectionNames))}

	outcome, err := s.loadSettings()
	if err != nil {
		return nil, err
	}

	report.Outcomes[codec.Settings] = outcome

	outcome, err = loadCollection(s, &s.projects, codec.Projects, codec.DecodeProjects, codec.EncodeProjects)
	if err != nil {
		return nil, err
	}

	report.Outcomes[codec.Projects] = outcome

	outcome, err = loadCollection(s, &s.tasks, codec.Tasks, codec.DecodeTasks, codec.EncodeTasks)
	if err != nil {
		return nil, err
	}

	report.Outcomes[codec.Tasks] = outcome

	outcome, err = loadCollection(s, &s.plans, codec.DailyPlans, codec.DecodeDailyPlans, codec.EncodeDailyPlans)
	if err != nil {
		return nil, err
	}

	report.Outcomes[codec.DailyPlans] = outcome

	return report, nil
}

// loadCollection reads, migrates, and decodes one collection's primary file,
// falling back to backups and finally to an empty collection on corruption.
// Recovery never fails the load; only unusable disks do.
func loadCollection[T any](
	s *Store,
	c *collection[T],
	name string,
	decode func([]byte) ([]T, error),
	encode func([]T) ([]byte, error),
) (Outcome, error) {
	path := s.paths.File(name)

	exists, err := s.fs.Exists(path)
	if err != nil {
		return 0, fmt.Errorf("checking %s: %w", path, err)
	}

	if !exists {
		if err := writeInitial(s, name, encode); err != nil {
			return 0, err
		}

		c.commit([]T{})
		s.recordIncident(name, OutcomeCreated, "no data file, created empty collection")

		return OutcomeCreated, nil
	}

	data, err := s.fs.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", path, err)
	}

	migrated, changed, decodeFailure := func() ([]T, bool, error) {
		raw, didMigrate, migErr := migrateRaw(name, data)
		if migErr != nil {
			return nil, false, migErr
		}

		items, decErr := decode(raw)
		if decErr != nil {
			return nil, false, decErr
		}

		return items, didMigrate, nil
	}()

	if decodeFailure == nil {
		c.commit(migrated)

		if changed {
			// Re-save immediately so later loads skip the migration chain.
			if err := rewrite(s, name, migrated, encode); err != nil {
				return 0, err
			}

			s.log.Info("migrated collection to current schema", "collection", name)
		}

		return OutcomeClean, nil
	}

	// Corruption path: set the broken file aside for forensics, then try
	// the newest backup that still decodes.
	s.log.Warn("collection file failed to decode", "collection", name, "err", decodeFailure)

	if err := s.setAsideCorrupt(name, path); err != nil {
		return 0, err
	}

	restored, err := s.backups.LatestValid(name)
	if err != nil {
		s.log.Warn("scanning backups failed", "collection", name, "err", err)
	}

	if restored != nil {
		raw, _, migErr := migrateRaw(name, restored)
		if migErr == nil {
			if items, decErr := decode(raw); decErr == nil {
				if err := rewrite(s, name, items, encode); err != nil {
					return 0, err
				}

				c.commit(items)
				s.recordIncident(name, OutcomeCorruptedRecovered, decodeFailure.Error())

				return OutcomeCorruptedRecovered, nil
			}
		}
	}

	if err := writeInitial(s, name, encode); err != nil {
		return 0, err
	}

	c.commit([]T{})
	s.recordIncident(name, OutcomeCorruptedUnrecoverable, decodeFailure.Error())

	return OutcomeCorruptedUnrecoverable, nil
}

// loadSettings mirrors loadCollection for the singleton document, falling
// back to defaults instead of an empty list.
func (s *Store) loadSettings() (Outcome, error) {
	name := codec.Settings
	path := s.paths.File(name)

	exists, err := s.fs.Exists(path)
	if err != nil {
		return 0, fmt.Errorf("checking %s: %w", path, err)
	}

	if !exists {
		defaults := model.DefaultSettings()
		defaults.UpdatedAt = s.now().UTC()

		if err := s.rewriteSettings(defaults); err != nil {
			return 0, err
		}

		s.settings.Store(&defaults)
		s.recordIncident(name, OutcomeCreated, "no settings file, created defaults")

		return OutcomeCreated, nil
	}

	data, err := s.fs.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", path, err)
	}

	settings, changed, decodeFailure := func() (model.Settings, bool, error) {
		raw, didMigrate, migErr := migrateRaw(name, data)
		if migErr != nil {
			return model.Settings{}, false, migErr
		}

		decoded, decErr := codec.DecodeSettings(raw)
		if decErr != nil {
			return model.Settings{}, false, decErr
		}

		return decoded, didMigrate, nil
	}()

	if decodeFailure == nil {
		s.settings.Store(&settings)

		if changed {
			if err := s.rewriteSettings(settings); err != nil {
				return 0, err
			}

			s.log.Info("migrated settings to current schema", "collection", name)
		}

		return OutcomeClean, nil
	}

	s.log.Warn("settings file failed to decode", "collection", name, "err", decodeFailure)

	if err := s.setAsideCorrupt(name, path); err != nil {
		return 0, err
	}

	restored, err := s.backups.LatestValid(name)
	if err != nil {
		s.log.Warn("scanning backups failed", "collection", name, "err", err)
	}

	if restored != nil {
		if raw, _, migErr := migrateRaw(name, restored); migErr == nil {
			if decoded, decErr := codec.DecodeSettings(raw); decErr == nil {
				if err := s.rewriteSettings(decoded); err != nil {
					return 0, err
				}

				s.settings.Store(&decoded)
				s.recordIncident(name, OutcomeCorruptedRecovered, decodeFailure.Error())

				return OutcomeCorruptedRecovered, nil
			}
		}
	}

	defaults := model.DefaultSettings()
	defaults.UpdatedAt = s.now().UTC()

	if err := s.rewriteSettings(defaults); err != nil {
		return 0, err
	}

	s.settings.Store(&defaults)
	s.recordIncident(name, OutcomeCorruptedUnrecoverable, decodeFailure.Error())

	return OutcomeCorruptedUnrecoverable, nil
}

// setAsideCorrupt renames a corrupted primary file next to itself, stamped,
// so it is preserved for inspection and the path is free for a rewrite.
func (s *Store) setAsideCorrupt(name, path string) error {
	aside := fmt.Sprintf("%s.corrupt-%s", path, s.now().UTC().Format("20060102T150405"))

	if err := s.fs.Rename(path, aside); err != nil {
		return fmt.Errorf("setting aside corrupted %s: %w", name, err)
	}

	s.log.Warn("corrupted file set aside", "collection", name, "path", aside)

	return nil
}

// writeInitial writes an empty, valid collection file.
func writeInitial[T any](s *Store, name string, encode func([]T) ([]byte, error)) error {
	return rewrite(s, name, []T{}, encode)
}

// rewrite encodes items and writes the primary file directly, without the
// backup gating of the normal save path. Used during load, where the
// pre-write content is either absent, corrupt (already set aside), or a
// restored backup.
func rewrite[T any](s *Store, name string, items []T, encode func([]T) ([]byte, error)) error {
	data, err := encode(items)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", name, err)
	}

	if err := s.fs.WriteFileAtomic(s.paths.File(name), data, filePerms); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}

	return nil
}

func (s *Store) rewriteSettings(settings model.Settings) error {
	data, err := codec.EncodeSettings(settings)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}

	if err := s.fs.WriteFileAtomic(s.paths.File(codec.Settings), data, filePerms); err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}

	return nil
}
