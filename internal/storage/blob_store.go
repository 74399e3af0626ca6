// Package storage manages the physical blob store under a single local root.
package storage

import (
	"io"
)

// BlobStore performs all physical I/O for the drive engine. Every path is
// relative to one storage root; implementations must refuse paths that escape
// it.
type BlobStore interface {
	// Write saves data to a path, replacing any existing blob.
	Write(path string, data []byte) error

	// WriteStream saves data from a reader and returns the byte count.
	WriteStream(path string, reader io.Reader) (int64, error)

	// Read retrieves blob contents.
	Read(path string) ([]byte, error)

	// Open returns a reader over a blob. The caller closes it.
	Open(path string) (io.ReadCloser, error)

	// Delete removes a single blob. Deleting a missing blob is not an error.
	Delete(path string) error

	// DeleteTree removes a directory and everything under it, deepest first.
	// Individual entry failures are logged and skipped; the first such
	// failure is returned after the walk completes.
	DeleteTree(path string) error

	// Exists checks whether a blob or directory is physically present.
	Exists(path string) (bool, error)

	// EnsureDir creates a directory if it doesn't exist.
	EnsureDir(path string) error

	// Move renames a blob or directory, carrying any subtree with it.
	Move(oldPath, newPath string) error
}
