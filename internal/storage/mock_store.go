package storage

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
)

// MockStore provides an in-memory BlobStore for testing.
type MockStore struct {
	mu    sync.RWMutex
	files map[string][]byte
	dirs  map[string]bool

	// FailOps forces the named operations ("move", "write", "delete") to
	// fail, for exercising error paths.
	FailOps map[string]bool
}

// NewMockStore creates a mock blob store.
func NewMockStore() *MockStore {
	return &MockStore{
		files:   make(map[string][]byte),
		dirs:    make(map[string]bool),
		FailOps: make(map[string]bool),
	}
}

func norm(path string) string {
	return strings.Trim(strings.ReplaceAll(path, "\\", "/"), "/")
}

// Write saves data to a path.
func (m *MockStore) Write(path string, data []byte) error {
	if m.FailOps["write"] {
		return fmt.Errorf("forced write failure: %s", path)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.files[norm(path)] = append([]byte(nil), data...)
	return nil
}

// WriteStream saves data from a reader.
func (m *MockStore) WriteStream(path string, reader io.Reader) (int64, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return 0, err
	}
	if err := m.Write(path, data); err != nil {
		return 0, err
	}
	return int64(len(data)), nil
}

// Read retrieves blob contents.
func (m *MockStore) Read(path string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if data, ok := m.files[norm(path)]; ok {
		return append([]byte(nil), data...), nil
	}
	return nil, fmt.Errorf("blob not found: %s", path)
}

// Open returns a reader over a blob.
func (m *MockStore) Open(path string) (io.ReadCloser, error) {
	data, err := m.Read(path)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Delete removes a single blob.
func (m *MockStore) Delete(path string) error {
	if m.FailOps["delete"] {
		return fmt.Errorf("forced delete failure: %s", path)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.files, norm(path))
	return nil
}

// DeleteTree removes a directory and everything under it.
func (m *MockStore) DeleteTree(path string) error {
	if m.FailOps["delete"] {
		return fmt.Errorf("forced delete failure: %s", path)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	prefix := norm(path)
	for p := range m.files {
		if p == prefix || strings.HasPrefix(p, prefix+"/") {
			delete(m.files, p)
		}
	}
	for d := range m.dirs {
		if d == prefix || strings.HasPrefix(d, prefix+"/") {
			delete(m.dirs, d)
		}
	}
	return nil
}

// Exists checks whether a blob or directory is present.
func (m *MockStore) Exists(path string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p := norm(path)
	if _, ok := m.files[p]; ok {
		return true, nil
	}
	if m.dirs[p] {
		return true, nil
	}
	// A directory implicitly exists while blobs live under it.
	for f := range m.files {
		if strings.HasPrefix(f, p+"/") {
			return true, nil
		}
	}
	return false, nil
}

// EnsureDir records a directory.
func (m *MockStore) EnsureDir(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p := norm(path)
	for p != "" && p != "." {
		m.dirs[p] = true
		idx := strings.LastIndex(p, "/")
		if idx < 0 {
			break
		}
		p = p[:idx]
	}
	return nil
}

// Move renames a blob or directory, carrying any subtree with it.
func (m *MockStore) Move(oldPath, newPath string) error {
	if m.FailOps["move"] {
		return fmt.Errorf("forced move failure: %s", oldPath)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	oldP, newP := norm(oldPath), norm(newPath)

	if data, ok := m.files[oldP]; ok {
		delete(m.files, oldP)
		m.files[newP] = data
		return nil
	}

	moved := false
	for _, p := range m.filePaths() {
		if strings.HasPrefix(p, oldP+"/") {
			m.files[newP+p[len(oldP):]] = m.files[p]
			delete(m.files, p)
			moved = true
		}
	}
	for _, d := range m.dirPaths() {
		if d == oldP || strings.HasPrefix(d, oldP+"/") {
			m.dirs[newP+d[len(oldP):]] = true
			delete(m.dirs, d)
			moved = true
		}
	}

	if !moved {
		return fmt.Errorf("blob not found: %s", oldPath)
	}
	return nil
}

// Paths returns every stored blob path, sorted, for test assertions.
func (m *MockStore) Paths() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.filePaths()
}

func (m *MockStore) filePaths() []string {
	paths := make([]string, 0, len(m.files))
	for p := range m.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

func (m *MockStore) dirPaths() []string {
	paths := make([]string, 0, len(m.dirs))
	for d := range m.dirs {
		paths = append(paths, d)
	}
	sort.Strings(paths)
	return paths
}
