package store

import (
	"fmt"
	"os"
	"time"

	"deskflow/internal/codec"
)

// BackupNow snapshots every collection's current on-disk bytes, bypassing
// the interval gate. Collections without a primary file yet are skipped.
func (s *Store) BackupNow() error {
	for _, name := range codec.CollectionNames {
		data, err := s.fs.ReadFile(s.paths.File(name))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}

			return fmt.Errorf("reading %s for backup: %w", name, err)
		}

		if err := s.backups.Snapshot(name, data); err != nil {
			return fmt.Errorf("snapshotting %s: %w", name, err)
		}
	}

	s.noteBackupTaken()

	return nil
}

// PruneBackups removes snapshots older than retention and returns how many
// files were removed.
func (s *Store) PruneBackups(retention time.Duration) (int, error) {
	return s.backups.Prune(retention)
}
