// Package index persists the node hierarchy, user accounts and the quota
// ledger. No operation in this package performs physical blob I/O.
package index

import (
	"context"

	"github.com/driveline/driveline/internal/models"
)

// Store is the metadata persistence consumed by the drive engine.
//
// "Active" queries filter out soft-deleted rows. Children listings are
// ordered by name ascending; RecentFiles orders by creation time descending.
type Store interface {
	// FindByID returns a node regardless of its deleted flag, or
	// models.ErrNodeNotFound.
	FindByID(ctx context.Context, id int64) (*models.Node, error)

	// ActiveChildren lists the active children of a folder, or the active
	// roots when parentID is nil.
	ActiveChildren(ctx context.Context, ownerID int64, parentID *int64) ([]*models.Node, error)

	// ActiveByName finds an active sibling by name, or models.ErrNodeNotFound.
	ActiveByName(ctx context.Context, ownerID int64, parentID *int64, name string) (*models.Node, error)

	// RecentFiles lists active file nodes across all folders, newest first.
	RecentFiles(ctx context.Context, ownerID int64, limit int) ([]*models.Node, error)

	// Insert persists a new node, assigning its ID and creation time. A
	// collision on the active (owner, parent, name) scope or on the
	// recorded path surfaces as models.ErrDuplicateName.
	Insert(ctx context.Context, node *models.Node) error

	// Update rewrites a node's mutable columns (name, path, deleted flag).
	Update(ctx context.Context, node *models.Node) error

	// Delete hard-deletes a node row, releasing its path for reuse.
	Delete(ctx context.Context, id int64) error

	// Quota returns the current ledger snapshot.
	Quota(ctx context.Context) (models.Quota, error)

	// Reserve atomically adds n bytes to the used counter, failing with
	// models.ErrQuotaExceeded when the capacity check does not hold. The
	// check and the increment are a single read-modify-write.
	Reserve(ctx context.Context, n int64) error

	// Release subtracts n bytes from the used counter, clamped at zero.
	Release(ctx context.Context, n int64) error

	// CreateUser registers an account with an already-hashed password.
	CreateUser(ctx context.Context, username, passwordHash string, role models.Role) (*models.User, error)

	// UserByName returns an account, or models.ErrUserNotFound.
	UserByName(ctx context.Context, username string) (*models.User, error)

	// UserByID returns an account, or models.ErrUserNotFound.
	UserByID(ctx context.Context, id int64) (*models.User, error)

	// Close releases resources.
	Close() error
}
