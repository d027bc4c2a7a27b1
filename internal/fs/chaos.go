package fs

import (
	"io/fs"
	"math/rand"
	"os"
	"sync"
	"sync/atomic"
	"syscall"
)

// ChaosConfig controls fault injection probabilities.
// Each rate is a float64 from 0.0 (never) to 1.0 (always).
type ChaosConfig struct {
	ReadFailRate     float64 // Fail ReadFile entirely
	WriteFailRate    float64 // Fail WriteFileAtomic before anything is written
	PartialWriteRate float64 // Write a partial temp file, then fail before the rename (simulates crash)
	AppendFailRate   float64 // Fail AppendFile
	RenameFailRate   float64 // Fail Rename
	RemoveFailRate   float64 // Fail Remove
	ReadDirFailRate  float64 // Fail ReadDir
	StatFailRate     float64 // Fail Stat/Exists
}

// DefaultChaosConfig returns fault rates suitable for soak-style tests.
func DefaultChaosConfig() ChaosConfig {
	return ChaosConfig{
		ReadFailRate:     0.02,
		WriteFailRate:    0.03,
		PartialWriteRate: 0.03,
		AppendFailRate:   0.02,
		RenameFailRate:   0.02,
		RemoveFailRate:   0.02,
		ReadDirFailRate:  0.02,
		StatFailRate:     0.01,
	}
}

// ChaosMode controls whether Chaos injects faults.
type ChaosMode uint32

const (
	// ChaosModePassthrough behaves exactly like the wrapped filesystem.
	// This is the zero value so a fresh Chaos starts quiet.
	ChaosModePassthrough ChaosMode = iota

	// ChaosModeInject enables fault-rate injection.
	ChaosModeInject
)

// chaosTempSuffix marks the orphaned temp files a simulated crash leaves behind.
const chaosTempSuffix = ".chaos-tmp"

// Chaos wraps an [FS] and injects failures for testing.
//
// The crucial property it exercises: a failed or partial [FS.WriteFileAtomic]
// must leave the target path byte-identical to its pre-write content. A
// partial-write fault writes a truncated temp file next to the target and
// fails before the rename, exactly the state a crash mid-write leaves behind.
type Chaos struct {
	fs     FS
	mode   atomic.Uint32
	config ChaosConfig

	mu  sync.Mutex
	rng *rand.Rand

	// Counters for test verification.
	readFails     atomic.Int64
	writeFails    atomic.Int64
	partialWrites atomic.Int64
	appendFails   atomic.Int64
	renameFails   atomic.Int64
	removeFails   atomic.Int64
	readDirFails  atomic.Int64
	statFails     atomic.Int64
}

// NewChaos creates a new Chaos filesystem wrapping the given [FS].
// The seed controls fault injection for reproducibility.
func NewChaos(wrapped FS, seed int64, config ChaosConfig) *Chaos {
	return &Chaos{
		fs:     wrapped,
		rng:    rand.New(rand.NewSource(seed)),
		config: config,
	}
}

// SetMode switches fault injection on or off.
// Safe to call concurrently with filesystem operations.
func (c *Chaos) SetMode(m ChaosMode) { c.mode.Store(uint32(m)) }

// ChaosStats contains counts of injected faults.
type ChaosStats struct {
	ReadFails     int64
	WriteFails    int64
	PartialWrites int64
	AppendFails   int64
	RenameFails   int64
	RemoveFails   int64
	ReadDirFails  int64
	StatFails     int64
}

// Stats returns the current fault injection counts.
func (c *Chaos) Stats() ChaosStats {
	return ChaosStats{
		ReadFails:     c.readFails.Load(),
		WriteFails:    c.writeFails.Load(),
		PartialWrites: c.partialWrites.Load(),
		AppendFails:   c.appendFails.Load(),
		RenameFails:   c.renameFails.Load(),
		RemoveFails:   c.removeFails.Load(),
		ReadDirFails:  c.readDirFails.Load(),
		StatFails:     c.statFails.Load(),
	}
}

// TotalFaults returns the total number of injected faults.
func (c *Chaos) TotalFaults() int64 {
	s := c.Stats()

	return s.ReadFails + s.WriteFails + s.PartialWrites + s.AppendFails +
		s.RenameFails + s.RemoveFails + s.ReadDirFails + s.StatFails
}

// should returns true with the given probability when chaos is injecting.
func (c *Chaos) should(rate float64) bool {
	if ChaosMode(c.mode.Load()) != ChaosModeInject {
		return false
	}

	c.mu.Lock()
	roll := c.rng.Float64()
	c.mu.Unlock()

	return roll < rate
}

// randIntn returns a random int in [0, n) (thread-safe).
func (c *Chaos) randIntn(n int) int {
	c.mu.Lock()
	result := c.rng.Intn(n)
	c.mu.Unlock()

	return result
}

// pathError creates an *os.PathError so errors.Is works like it does for
// errors the real OS returns.
func pathError(op, path string, errno syscall.Errno) error {
	return &fs.PathError{Op: op, Path: path, Err: errno}
}

func (c *Chaos) ReadFile(path string) ([]byte, error) {
	if c.should(c.config.ReadFailRate) {
		c.readFails.Add(1)

		return nil, pathError("read", path, syscall.EIO)
	}

	return c.fs.ReadFile(path)
}

func (c *Chaos) WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	if c.should(c.config.WriteFailRate) {
		c.writeFails.Add(1)

		return pathError("write", path, syscall.ENOSPC)
	}

	if c.should(c.config.PartialWriteRate) {
		c.partialWrites.Add(1)

		// Crash before the rename: a truncated temp file appears next to
		// the target, the target itself is untouched.
		cut := 0
		if len(data) > 0 {
			cut = c.randIntn(len(data))
		}

		_ = c.fs.WriteFileAtomic(path+chaosTempSuffix, data[:cut], perm)

		return pathError("write", path, syscall.EIO)
	}

	return c.fs.WriteFileAtomic(path, data, perm)
}

func (c *Chaos) AppendFile(path string, data []byte, perm os.FileMode) error {
	if c.should(c.config.AppendFailRate) {
		c.appendFails.Add(1)

		return pathError("append", path, syscall.ENOSPC)
	}

	return c.fs.AppendFile(path, data, perm)
}

func (c *Chaos) ReadDir(path string) ([]os.DirEntry, error) {
	if c.should(c.config.ReadDirFailRate) {
		c.readDirFails.Add(1)

		return nil, pathError("readdir", path, syscall.EIO)
	}

	return c.fs.ReadDir(path)
}

func (c *Chaos) MkdirAll(path string, perm os.FileMode) error {
	return c.fs.MkdirAll(path, perm)
}

func (c *Chaos) Stat(path string) (os.FileInfo, error) {
	if c.should(c.config.StatFailRate) {
		c.statFails.Add(1)

		return nil, pathError("stat", path, syscall.EIO)
	}

	return c.fs.Stat(path)
}

func (c *Chaos) Exists(path string) (bool, error) {
	if c.should(c.config.StatFailRate) {
		c.statFails.Add(1)

		return false, pathError("stat", path, syscall.EIO)
	}

	return c.fs.Exists(path)
}

func (c *Chaos) Remove(path string) error {
	if c.should(c.config.RemoveFailRate) {
		c.removeFails.Add(1)

		return pathError("remove", path, syscall.EACCES)
	}

	return c.fs.Remove(path)
}

func (c *Chaos) Rename(oldpath, newpath string) error {
	if c.should(c.config.RenameFailRate) {
		c.renameFails.Add(1)

		return pathError("rename", oldpath, syscall.EIO)
	}

	return c.fs.Rename(oldpath, newpath)
}

// Compile-time interface check.
var _ FS = (*Chaos)(nil)
