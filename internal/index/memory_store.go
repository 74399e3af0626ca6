package index

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/driveline/driveline/internal/models"
)

// MemoryStore implements Store on mutex-guarded maps. It mirrors the SQLite
// semantics, including the active-name uniqueness backstop, and is used in
// tests and embeddable callers.
type MemoryStore struct {
	mu     sync.RWMutex
	nodes  map[int64]*models.Node
	users  map[int64]*models.User
	nextID int64
	quota  models.Quota
}

// NewMemoryStore creates an in-memory store provisioned with totalBytes.
func NewMemoryStore(totalBytes int64) *MemoryStore {
	return &MemoryStore{
		nodes:  make(map[int64]*models.Node),
		users:  make(map[int64]*models.User),
		nextID: 1,
		quota:  models.Quota{TotalSpaceBytes: totalBytes},
	}
}

// FindByID returns a node regardless of its deleted flag.
func (m *MemoryStore) FindByID(ctx context.Context, id int64) (*models.Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	node, ok := m.nodes[id]
	if !ok {
		return nil, models.ErrNodeNotFound
	}
	return node.Clone(), nil
}

func sameParent(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// ActiveChildren lists active children ordered by name.
func (m *MemoryStore) ActiveChildren(ctx context.Context, ownerID int64, parentID *int64) ([]*models.Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var children []*models.Node
	for _, node := range m.nodes {
		if node.OwnerID == ownerID && !node.Deleted && sameParent(node.ParentID, parentID) {
			children = append(children, node.Clone())
		}
	}

	sort.Slice(children, func(i, j int) bool {
		return children[i].Name < children[j].Name
	})
	return children, nil
}

// ActiveByName finds an active sibling by name.
func (m *MemoryStore) ActiveByName(ctx context.Context, ownerID int64, parentID *int64, name string) (*models.Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if node := m.activeByNameLocked(ownerID, parentID, name); node != nil {
		return node.Clone(), nil
	}
	return nil, models.ErrNodeNotFound
}

func (m *MemoryStore) activeByNameLocked(ownerID int64, parentID *int64, name string) *models.Node {
	for _, node := range m.nodes {
		if node.OwnerID == ownerID && !node.Deleted && node.Name == name && sameParent(node.ParentID, parentID) {
			return node
		}
	}
	return nil
}

// RecentFiles lists active file nodes, newest first.
func (m *MemoryStore) RecentFiles(ctx context.Context, ownerID int64, limit int) ([]*models.Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var files []*models.Node
	for _, node := range m.nodes {
		if node.OwnerID == ownerID && !node.Deleted && !node.IsFolder() {
			files = append(files, node.Clone())
		}
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].CreatedAt.Equal(files[j].CreatedAt) {
			return files[i].ID > files[j].ID
		}
		return files[i].CreatedAt.After(files[j].CreatedAt)
	})

	if limit > 0 && len(files) > limit {
		files = files[:limit]
	}
	return files, nil
}

// Insert persists a new node and assigns its ID and creation time.
func (m *MemoryStore) Insert(ctx context.Context, node *models.Node) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.activeByNameLocked(node.OwnerID, node.ParentID, node.Name) != nil {
		return models.ErrDuplicateName
	}
	// Blob keys stay reserved while a soft-deleted file row remains; a
	// soft-deleted folder releases its path immediately.
	for _, existing := range m.nodes {
		if existing.Path == node.Path && (!existing.Deleted || !existing.IsFolder()) {
			return models.ErrDuplicateName
		}
	}

	if node.CreatedAt.IsZero() {
		node.CreatedAt = time.Now().UTC()
	}
	node.ID = m.nextID
	m.nextID++

	m.nodes[node.ID] = node.Clone()
	return nil
}

// Update rewrites a node's mutable columns.
func (m *MemoryStore) Update(ctx context.Context, node *models.Node) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.nodes[node.ID]
	if !ok {
		return models.ErrNodeNotFound
	}

	stored.Name = node.Name
	stored.Path = node.Path
	stored.Deleted = node.Deleted
	return nil
}

// Delete hard-deletes a node row.
func (m *MemoryStore) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.nodes, id)
	return nil
}

// Quota returns the ledger snapshot.
func (m *MemoryStore) Quota(ctx context.Context) (models.Quota, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.quota, nil
}

// Reserve adds n bytes under a single lock, so the check and the increment
// are one atomic step.
func (m *MemoryStore) Reserve(ctx context.Context, n int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.quota.UsedSpaceBytes+n > m.quota.TotalSpaceBytes {
		return models.ErrQuotaExceeded
	}
	m.quota.UsedSpaceBytes += n
	return nil
}

// Release subtracts n bytes, clamped at zero.
func (m *MemoryStore) Release(ctx context.Context, n int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.quota.UsedSpaceBytes -= n
	if m.quota.UsedSpaceBytes < 0 {
		m.quota.UsedSpaceBytes = 0
	}
	return nil
}

// CreateUser registers an account.
func (m *MemoryStore) CreateUser(ctx context.Context, username, passwordHash string, role models.Role) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Username == username {
			return nil, models.ErrDuplicateName
		}
	}

	user := &models.User{
		ID:           m.nextID,
		Username:     username,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}
	m.nextID++
	m.users[user.ID] = user

	copy := *user
	return &copy, nil
}

// UserByName returns an account by username.
func (m *MemoryStore) UserByName(ctx context.Context, username string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.Username == username {
			copy := *u
			return &copy, nil
		}
	}
	return nil, models.ErrUserNotFound
}

// UserByID returns an account by id.
func (m *MemoryStore) UserByID(ctx context.Context, id int64) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if u, ok := m.users[id]; ok {
		copy := *u
		return &copy, nil
	}
	return nil, models.ErrUserNotFound
}

// Close releases resources.
func (m *MemoryStore) Close() error {
	return nil
}
