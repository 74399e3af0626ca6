package storage

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/driveline/driveline/internal/events"
)

// LocalStore implements BlobStore on a local filesystem root.
type LocalStore struct {
	baseDir string
	logger  *events.Logger
}

// NewLocalStore creates a local blob store rooted at baseDir, creating the
// root if needed.
func NewLocalStore(baseDir string, logger *events.Logger) (*LocalStore, error) {
	absPath, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("resolve base directory: %w", err)
	}

	if err := os.MkdirAll(absPath, 0o755); err != nil {
		return nil, fmt.Errorf("create base directory: %w", err)
	}

	return &LocalStore{
		baseDir: absPath,
		logger:  logger.WithField("component", "local_store"),
	}, nil
}

// Write saves data to a path atomically via a temp file.
func (s *LocalStore) Write(path string, data []byte) error {
	safePath, err := s.sanitizePath(path)
	if err != nil {
		return fmt.Errorf("sanitize path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(safePath), 0o755); err != nil {
		return fmt.Errorf("create parent directory: %w", err)
	}

	tempPath := fmt.Sprintf("%s.tmp.%d", safePath, time.Now().UnixNano())
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := os.Rename(tempPath, safePath); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("rename temp file: %w", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"path": path,
		"size": len(data),
	}).Debug("Blob written")

	return nil
}

// WriteStream saves data from a reader, replacing any existing blob.
func (s *LocalStore) WriteStream(path string, reader io.Reader) (int64, error) {
	safePath, err := s.sanitizePath(path)
	if err != nil {
		return 0, fmt.Errorf("sanitize path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(safePath), 0o755); err != nil {
		return 0, fmt.Errorf("create parent directory: %w", err)
	}

	tempPath := fmt.Sprintf("%s.tmp.%d", safePath, time.Now().UnixNano())
	tempFile, err := os.OpenFile(tempPath, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}

	success := false
	defer func() {
		tempFile.Close()
		if !success {
			os.Remove(tempPath)
		}
	}()

	written, err := io.Copy(tempFile, reader)
	if err != nil {
		return 0, fmt.Errorf("write stream: %w", err)
	}

	if err := tempFile.Sync(); err != nil {
		return 0, fmt.Errorf("sync file: %w", err)
	}
	tempFile.Close()

	if err := os.Rename(tempPath, safePath); err != nil {
		return 0, fmt.Errorf("rename temp file: %w", err)
	}
	success = true

	s.logger.WithFields(map[string]interface{}{
		"path": path,
		"size": written,
	}).Debug("Stream written")

	return written, nil
}

// Read retrieves blob contents.
func (s *LocalStore) Read(path string) ([]byte, error) {
	safePath, err := s.sanitizePath(path)
	if err != nil {
		return nil, fmt.Errorf("sanitize path: %w", err)
	}

	data, err := os.ReadFile(safePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("blob not found: %s", path)
		}
		return nil, fmt.Errorf("read blob: %w", err)
	}

	return data, nil
}

// Open returns a reader over a blob.
func (s *LocalStore) Open(path string) (io.ReadCloser, error) {
	safePath, err := s.sanitizePath(path)
	if err != nil {
		return nil, fmt.Errorf("sanitize path: %w", err)
	}

	f, err := os.Open(safePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("blob not found: %s", path)
		}
		return nil, fmt.Errorf("open blob: %w", err)
	}
	return f, nil
}

// Delete removes a single blob.
func (s *LocalStore) Delete(path string) error {
	safePath, err := s.sanitizePath(path)
	if err != nil {
		return fmt.Errorf("sanitize path: %w", err)
	}

	if err := os.Remove(safePath); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("delete blob: %w", err)
	}

	s.logger.WithField("path", path).Debug("Blob deleted")
	return nil
}

// DeleteTree removes a directory and its contents, deepest entries first.
// Entry failures are logged and skipped so one stuck file never blocks the
// rest of the removal.
func (s *LocalStore) DeleteTree(path string) error {
	safePath, err := s.sanitizePath(path)
	if err != nil {
		return fmt.Errorf("sanitize path: %w", err)
	}

	var entries []string
	walkErr := filepath.WalkDir(safePath, func(p string, _ fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		entries = append(entries, p)
		return nil
	})
	if walkErr != nil {
		if os.IsNotExist(walkErr) {
			return nil
		}
		return fmt.Errorf("walk tree: %w", walkErr)
	}

	// Reverse-lexicographic order removes children before their parents.
	sort.Sort(sort.Reverse(sort.StringSlice(entries)))

	var firstErr error
	for _, entry := range entries {
		if err := os.Remove(entry); err != nil {
			s.logger.WithError(err).WithField("path", entry).Error("Failed to remove entry")
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	s.logger.WithFields(map[string]interface{}{
		"path":    path,
		"entries": len(entries),
	}).Debug("Tree removed")

	return firstErr
}

// Exists checks whether a blob or directory is present.
func (s *LocalStore) Exists(path string) (bool, error) {
	safePath, err := s.sanitizePath(path)
	if err != nil {
		return false, fmt.Errorf("sanitize path: %w", err)
	}

	_, err = os.Stat(safePath)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// EnsureDir creates a directory if it doesn't exist.
func (s *LocalStore) EnsureDir(path string) error {
	safePath, err := s.sanitizePath(path)
	if err != nil {
		return fmt.Errorf("sanitize path: %w", err)
	}

	return os.MkdirAll(safePath, 0o755)
}

// Move renames a blob or directory, carrying any subtree with it.
func (s *LocalStore) Move(oldPath, newPath string) error {
	oldSafe, err := s.sanitizePath(oldPath)
	if err != nil {
		return fmt.Errorf("sanitize old path: %w", err)
	}

	newSafe, err := s.sanitizePath(newPath)
	if err != nil {
		return fmt.Errorf("sanitize new path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(newSafe), 0o755); err != nil {
		return fmt.Errorf("create parent directory: %w", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"old": oldPath,
		"new": newPath,
	}).Debug("Moving blob")

	return os.Rename(oldSafe, newSafe)
}

// sanitizePath validates a path and resolves it under the storage root.
func (s *LocalStore) sanitizePath(path string) (string, error) {
	if strings.ContainsRune(path, 0) {
		return "", fmt.Errorf("path contains null bytes")
	}

	cleaned := filepath.Clean(filepath.FromSlash(path))
	if strings.Contains(cleaned, "..") {
		return "", fmt.Errorf("invalid path: contains '..'")
	}
	cleaned = strings.TrimPrefix(cleaned, string(filepath.Separator))

	fullPath := filepath.Join(s.baseDir, cleaned)
	if fullPath != s.baseDir && !strings.HasPrefix(fullPath, s.baseDir+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes base directory")
	}

	return fullPath, nil
}
