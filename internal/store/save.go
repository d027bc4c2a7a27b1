package store

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"deskflow/internal/codec"
)

// persist writes encoded collection bytes to the primary file and, when a
// pre-write snapshot was taken, records the time in settings.
//
// The caller holds the collection's mutation lock (but NOT the settings
// lock) and commits the in-memory snapshot only after persist returns nil.
func (s *Store) persist(name string, data []byte) error {
	snapshotted, err := s.persistQuiet(name, data)
	if err != nil {
		return err
	}

	if snapshotted && name != codec.Settings {
		// Saving settings already holds the settings lock, and its
		// own snapshot needs no last-backup note.
		s.noteBackupTaken()
	}

	return nil
}

// persistQuiet is persist without the last-backup side effect, for callers
// that already hold the settings lock and do their own bookkeeping.
//
// Sequence: compare against current on-disk bytes and skip identical writes
// (deterministic encoding makes this an equality check); snapshot the
// pre-write bytes if the backup policy says one is due; atomic write.
func (s *Store) persistQuiet(name string, data []byte) (snapshotted bool, err error) {
	path := s.paths.File(name)

	current, err := s.fs.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return false, fmt.Errorf("reading current %s: %w", name, err)
	}

	if current != nil && bytes.Equal(current, data) {
		return false, nil
	}

	if current != nil && s.backupDue(name) {
		if err := s.backups.Snapshot(name, current); err != nil {
			// A failed snapshot must not block the save; the primary
			// write is what the user's data depends on.
			s.log.Warn("backup snapshot failed", "collection", name, "err", err)
		} else {
			snapshotted = true
		}
	}

	if err := s.fs.WriteFileAtomic(path, data, filePerms); err != nil {
		return snapshotted, fmt.Errorf("writing %s: %w", name, err)
	}

	return snapshotted, nil
}

// backupDue reports whether a pre-write snapshot should be taken for name:
// auto-backup is on and at least one backup interval has elapsed since the
// newest snapshot of this collection.
func (s *Store) backupDue(name string) bool {
	settings := s.settings.Load()
	if settings == nil || !settings.AutoBackup {
		return false
	}

	interval := s.backupInterval
	if settings.BackupFrequencyDays > 0 {
		interval = time.Duration(settings.BackupFrequencyDays) * 24 * time.Hour
	}

	last, err := s.backups.LastSnapshotTime(name)
	if err != nil {
		s.log.Warn("reading backup history failed", "collection", name, "err", err)

		return false
	}

	if last.IsZero() {
		return true
	}

	return s.now().UTC().Sub(last) >= interval
}

// noteBackupTaken records the snapshot time in settings. Best-effort: the
// field is informational (shown in the UI), so a failed settings write only
// logs.
func (s *Store) noteBackupTaken() {
	s.settingsMu.Lock()
	defer s.settingsMu.Unlock()

	updated := s.settings.Load().Clone()
	ts := s.now().UTC()
	updated.LastBackup = &ts

	data, err := codec.EncodeSettings(updated)
	if err != nil {
		s.log.Warn("encoding settings after backup", "err", err)

		return
	}

	if err := s.fs.WriteFileAtomic(s.paths.File(codec.Settings), data, filePerms); err != nil {
		s.log.Warn("recording backup time", "err", err)

		return
	}

	s.settings.Store(&updated)
}
