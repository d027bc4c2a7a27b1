// Package backup maintains the rolling snapshot history for each collection
// file.
//
// Snapshots live in a single backups directory, named
// <collection>-<timestamp>.bak with a lexicographically sortable timestamp,
// so newest-first scans are a reverse name sort. Snapshots outside the
// retention window are removed by Prune, which runs once per process start
// and is idempotent.
package backup

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"deskflow/internal/fs"
)

// stampLayout is the snapshot timestamp format. Second precision is enough:
// snapshots are taken at most once per backup interval.
const stampLayout = "20060102T150405"

const (
	suffix    = ".bak"
	filePerms = 0o600
	dirPerms  = 0o755
)

// A Validator reports whether snapshot bytes still decode for the named
// collection. LatestValid uses it to skip snapshots that are themselves
// corrupt.
type Validator func(name string, data []byte) error

// Manager owns the backups directory.
type Manager struct {
	fs       fs.FS
	dir      string
	validate Validator
	now      func() time.Time
}

// NewManager creates a Manager over dir. The directory is created lazily on
// first snapshot.
func NewManager(filesystem fs.FS, dir string, validate Validator) *Manager {
	return &Manager{
		fs:       filesystem,
		dir:      dir,
		validate: validate,
		now:      time.Now,
	}
}

// SetNow overrides the clock, for tests.
func (m *Manager) SetNow(now func() time.Time) { m.now = now }

// Snapshot stores data as a new timestamped snapshot for name.
func (m *Manager) Snapshot(name string, data []byte) error {
	if err := m.fs.MkdirAll(m.dir, dirPerms); err != nil {
		return fmt.Errorf("creating backup directory: %w", err)
	}

	stamp := m.now().UTC().Format(stampLayout)
	path := filepath.Join(m.dir, name+"-"+stamp+suffix)

	if err := m.fs.WriteFileAtomic(path, data, filePerms); err != nil {
		return fmt.Errorf("writing snapshot %s: %w", filepath.Base(path), err)
	}

	return nil
}

// LastSnapshotTime returns the timestamp of the newest snapshot for name,
// or the zero time if none exists.
func (m *Manager) LastSnapshotTime(name string) (time.Time, error) {
	stamps, err := m.list(name)
	if err != nil {
		return time.Time{}, err
	}

	if len(stamps) == 0 {
		return time.Time{}, nil
	}

	return stamps[len(stamps)-1].taken, nil
}

// LatestValid scans snapshots for name newest-first and returns the bytes of
// the first one that still decodes. Returns (nil, nil) when no valid
// snapshot exists.
func (m *Manager) LatestValid(name string) ([]byte, error) {
	stamps, err := m.list(name)
	if err != nil {
		return nil, err
	}

	for i := len(stamps) - 1; i >= 0; i-- {
		data, readErr := m.fs.ReadFile(stamps[i].path)
		if readErr != nil {
			continue
		}

		if m.validate(name, data) == nil {
			return data, nil
		}
	}

	return nil, nil
}

// Prune removes snapshots older than the retention window, across all
// collections. Safe to run repeatedly.
func (m *Manager) Prune(retention time.Duration) (removed int, err error) {
	exists, err := m.fs.Exists(m.dir)
	if err != nil || !exists {
		return 0, err
	}

	entries, err := m.fs.ReadDir(m.dir)
	if err != nil {
		return 0, fmt.Errorf("reading backup directory: %w", err)
	}

	cutoff := m.now().UTC().Add(-retention)

	for _, entry := range entries {
		taken, ok := parseStamp(entry.Name())
		if !ok {
			continue
		}

		if taken.Before(cutoff) {
			if removeErr := m.fs.Remove(filepath.Join(m.dir, entry.Name())); removeErr != nil {
				return removed, fmt.Errorf("pruning %s: %w", entry.Name(), removeErr)
			}

			removed++
		}
	}

	return removed, nil
}

type snapshot struct {
	path  string
	taken time.Time
}

// list returns the snapshots for name sorted oldest-first.
func (m *Manager) list(name string) ([]snapshot, error) {
	exists, err := m.fs.Exists(m.dir)
	if err != nil || !exists {
		return nil, err
	}

	entries, err := m.fs.ReadDir(m.dir)
	if err != nil {
		return nil, fmt.Errorf("reading backup directory: %w", err)
	}

	prefix := name + "-"

	var out []snapshot

	for _, entry := range entries {
		if !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}

		taken, ok := parseStamp(entry.Name())
		if !ok {
			continue
		}

		out = append(out, snapshot{
			path:  filepath.Join(m.dir, entry.Name()),
			taken: taken,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].taken.Before(out[j].taken) })

	return out, nil
}

// parseStamp extracts the timestamp from a snapshot file name.
// Returns ok=false for files that are not snapshots.
func parseStamp(filename string) (time.Time, bool) {
	if !strings.HasSuffix(filename, suffix) {
		return time.Time{}, false
	}

	base := strings.TrimSuffix(filename, suffix)

	idx := strings.LastIndex(base, "-")
	if idx < 0 {
		return time.Time{}, false
	}

	taken, err := time.Parse(stampLayout, base[idx+1:])
	if err != nil {
		return time.Time{}, false
	}

	return taken.UTC(), true
}
