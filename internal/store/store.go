// Package store implements the durable document store: four JSON collections
// (projects, tasks, daily plans, settings) persisted under a local data root
// with atomic writes, rolling backups, corruption recovery, schema migration,
// and cross-collection reference reconciliation.
//
// The Store is the only mutation surface. Mutating operations serialize on a
// per-collection lock; reads are served lock-free from the last committed
// in-memory snapshot. A mutation commits to memory only after its disk write
// succeeded, so a failed write leaves both disk and memory at the prior state.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"deskflow/internal/backup"
	"deskflow/internal/codec"
	"deskflow/internal/fs"
	"deskflow/internal/model"
)

const (
	filePerms = 0o600
	dirPerms  = 0o755
)

// Paths resolves the on-disk layout below the application data root.
type Paths struct {
	Root string
}

// DefaultRoot returns ~/.deskflow, the application data root.
func DefaultRoot() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}

	return filepath.Join(home, ".deskflow"), nil
}

func (p Paths) DataDir() string   { return filepath.Join(p.Root, "data") }
func (p Paths) BackupDir() string { return filepath.Join(p.Root, "backups") }
func (p Paths) LogDir() string    { return filepath.Join(p.Root, "logs") }

// File returns the primary file for a collection name.
func (p Paths) File(name string) string {
	return filepath.Join(p.DataDir(), name+".json")
}

// IncidentLog returns the append-only incident log path.
func (p Paths) IncidentLog() string {
	return filepath.Join(p.LogDir(), "incidents.jsonl")
}

// Options configures a Store. The zero value is usable: real filesystem,
// default logger, 7-day retention, 24-hour backup interval.
type Options struct {
	FS              fs.FS
	Logger          *log.Logger
	BackupRetention time.Duration // snapshots older than this are pruned
	BackupInterval  time.Duration // minimum gap between snapshots of one collection
	Now             func() time.Time
}

const (
	defaultRetention = 7 * 24 * time.Hour
	defaultInterval  = 24 * time.Hour
)

// collection holds one entity collection: a mutation lock and the last
// fully-committed snapshot, published atomically so readers never block.
type collection[T any] struct {
	mu        sync.Mutex
	committed atomic.Pointer[[]T]
}

// snapshot returns the committed items. The slice must be treated as
// immutable; public accessors clone before returning.
func (c *collection[T]) snapshot() []T {
	p := c.committed.Load()
	if p == nil {
		return nil
	}

	return *p
}

// commit publishes a new committed snapshot. Callers hold c.mu and have
// already persisted the matching bytes.
func (c *collection[T]) commit(items []T) {
	c.committed.Store(&items)
}

// Store owns the four collections for the lifetime of the process.
type Store struct {
	fs      fs.FS
	log     *log.Logger
	paths   Paths
	backups *backup.Manager
	now     func() time.Time

	backupInterval time.Duration

	projects collection[model.Project]
	tasks    collection[model.Task]
	plans    collection[model.DailyPlan]

	settingsMu sync.Mutex
	settings   atomic.Pointer[model.Settings]
}

// Open loads (or creates) the store rooted at root. It never fails on
// corrupted data files — those are recovered per collection and reported in
// the returned LoadReport — but does fail on unusable directories or disks.
//
// Backup pruning runs once here, covering the process's lifetime.
func Open(root string, opts Options) (*Store, *LoadReport, error) {
	if opts.FS == nil {
		opts.FS = fs.NewReal()
	}

	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	if opts.BackupRetention == 0 {
		opts.BackupRetention = defaultRetention
	}

	if opts.BackupInterval == 0 {
		opts.BackupInterval = defaultInterval
	}

	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Store{
		fs:             opts.FS,
		log:            opts.Logger,
		paths:          Paths{Root: root},
		now:            opts.Now,
		backupInterval: opts.BackupInterval,
	}

	s.backups = backup.NewManager(opts.FS, s.paths.BackupDir(), validateSnapshot)
	s.backups.SetNow(opts.Now)

	for _, dir := range []string{s.paths.DataDir(), s.paths.BackupDir(), s.paths.LogDir()} {
		if err := s.fs.MkdirAll(dir, dirPerms); err != nil {
			return nil, nil, fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	report, err := s.loadAll()
	if err != nil {
		return nil, nil, err
	}

	if removed, pruneErr := s.backups.Prune(opts.BackupRetention); pruneErr != nil {
		s.log.Warn("backup pruning failed", "err", pruneErr)
	} else if removed > 0 {
		s.log.Debug("pruned old backups", "removed", removed)
	}

	return s, report, nil
}

// validateSnapshot is the backup.Validator: a snapshot is valid if it still
// decodes for its collection, after any pending migration.
func validateSnapshot(name string, data []byte) error {
	_, err := decodeAny(name, data)

	return err
}

// decodeAny migrates and decodes raw document bytes for any collection name,
// discarding the typed result. Used where only validity matters.
func decodeAny(name string, data []byte) ([]byte, error) {
	migrated, _, err := migrateRaw(name, data)
	if err != nil {
		return nil, err
	}

	switch name {
	case codec.Projects:
		_, err = codec.DecodeProjects(migrated)
	case codec.Tasks:
		_, err = codec.DecodeTasks(migrated)
	case codec.DailyPlans:
		_, err = codec.DecodeDailyPlans(migrated)
	case codec.Settings:
		_, err = codec.DecodeSettings(migrated)
	default:
		return nil, fmt.Errorf("unknown collection %q", name)
	}

	if err != nil {
		return nil, err
	}

	return migrated, nil
}
