// Package fs provides filesystem abstractions for the document store.
//
// The main types are:
//   - [FS]: interface for the filesystem operations the store performs
//   - [Real]: production implementation using the [os] package
//   - [Chaos]: testing implementation that injects failures, used to verify
//     that a crashed or failing write never corrupts a data file
package fs

import "os"

// FS defines the filesystem operations the document store needs.
//
// Two implementations are provided:
//   - [Real]: production use, wraps the [os] package
//   - [Chaos]: testing use, injects failures
type FS interface {
	// ReadFile reads an entire file into memory. See [os.ReadFile].
	ReadFile(path string) ([]byte, error)

	// WriteFileAtomic writes data to a file atomically.
	// The data is written to a temp file in the same directory, synced,
	// and renamed onto path. A crash before the rename leaves the old
	// content untouched; a crash after leaves the new content fully
	// written. The rename is the only observable state change.
	WriteFileAtomic(path string, data []byte, perm os.FileMode) error

	// AppendFile appends data to a file, creating it if necessary.
	// Used for the append-only incident log.
	AppendFile(path string, data []byte, perm os.FileMode) error

	// ReadDir reads a directory and returns its entries sorted by name.
	// See [os.ReadDir].
	ReadDir(path string) ([]os.DirEntry, error)

	// MkdirAll creates a directory and all parents. See [os.MkdirAll].
	MkdirAll(path string, perm os.FileMode) error

	// Stat returns file info. See [os.Stat].
	Stat(path string) (os.FileInfo, error)

	// Exists reports whether a file or directory exists.
	// Returns (false, nil) if not found, (false, err) on other errors.
	Exists(path string) (bool, error)

	// Remove deletes a file or empty directory. See [os.Remove].
	Remove(path string) error

	// Rename moves/renames a file. See [os.Rename].
	// Atomic on the same filesystem.
	Rename(oldpath, newpath string) error
}
