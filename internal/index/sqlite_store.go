package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/driveline/driveline/internal/events"
	"github.com/driveline/driveline/internal/models"
)

// SQLiteStore implements Store on SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *events.Logger
}

// NewSQLiteStore opens (or creates) the index database and provisions the
// quota row with the given capacity.
func NewSQLiteStore(dbPath string, totalBytes int64, logger *events.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal=WAL&_timeout=5000&_fk=1")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	store := &SQLiteStore{
		db:     db,
		logger: logger.WithField("component", "sqlite_index"),
	}

	if err := store.initialize(totalBytes); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize database: %w", err)
	}

	return store, nil
}

// initialize creates tables and indexes and provisions the quota row.
func (s *SQLiteStore) initialize(totalBytes int64) error {
	schema := `
    CREATE TABLE IF NOT EXISTS users (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        username TEXT NOT NULL UNIQUE,
        password_hash TEXT NOT NULL,
        role TEXT NOT NULL DEFAULT 'admin',
        created_at TIMESTAMP NOT NULL
    );

    CREATE TABLE IF NOT EXISTS nodes (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        owner_id INTEGER NOT NULL REFERENCES users(id),
        parent_id INTEGER REFERENCES nodes(id),
        name TEXT NOT NULL,
        path TEXT NOT NULL,
        is_folder INTEGER NOT NULL DEFAULT 0,
        size_bytes INTEGER,
        mime_type TEXT,
        deleted INTEGER NOT NULL DEFAULT 0,
        created_at TIMESTAMP NOT NULL
    );

    CREATE INDEX IF NOT EXISTS idx_nodes_children
        ON nodes(owner_id, parent_id, deleted);

    CREATE UNIQUE INDEX IF NOT EXISTS idx_nodes_active_name
        ON nodes(owner_id, COALESCE(parent_id, 0), name) WHERE deleted = 0;

    -- Blob keys stay reserved while a soft-deleted file row remains; a
    -- soft-deleted folder releases its path immediately.
    CREATE UNIQUE INDEX IF NOT EXISTS idx_nodes_path
        ON nodes(path) WHERE deleted = 0 OR is_folder = 0;

    CREATE TABLE IF NOT EXISTS quota (
        id INTEGER PRIMARY KEY CHECK (id = 1),
        total_space INTEGER NOT NULL,
        used_space INTEGER NOT NULL DEFAULT 0 CHECK (used_space >= 0)
    );
    `

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	_, err := s.db.Exec(`
        INSERT INTO quota (id, total_space, used_space) VALUES (1, ?, 0)
        ON CONFLICT(id) DO UPDATE SET total_space = excluded.total_space
    `, totalBytes)
	if err != nil {
		return fmt.Errorf("provision quota: %w", err)
	}

	return nil
}

const nodeColumns = "id, owner_id, parent_id, name, path, is_folder, size_bytes, mime_type, deleted, created_at"

func scanNode(row interface{ Scan(...interface{}) error }) (*models.Node, error) {
	var (
		n        models.Node
		parentID sql.NullInt64
		isFolder bool
		size     sql.NullInt64
		mime     sql.NullString
	)

	err := row.Scan(&n.ID, &n.OwnerID, &parentID, &n.Name, &n.Path,
		&isFolder, &size, &mime, &n.Deleted, &n.CreatedAt)
	if err != nil {
		return nil, err
	}

	if parentID.Valid {
		id := parentID.Int64
		n.ParentID = &id
	}
	if isFolder {
		n.Kind = models.KindFolder
	} else {
		n.Kind = models.KindFile
		n.File = &models.FileMeta{SizeBytes: size.Int64, MIMEType: mime.String}
	}

	return &n, nil
}

// FindByID returns a node regardless of its deleted flag.
func (s *SQLiteStore) FindByID(ctx context.Context, id int64) (*models.Node, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+nodeColumns+" FROM nodes WHERE id = ?", id)

	node, err := scanNode(row)
	if err == sql.ErrNoRows {
		return nil, models.ErrNodeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query node: %w", err)
	}
	return node, nil
}

// ActiveChildren lists active children ordered by name.
func (s *SQLiteStore) ActiveChildren(ctx context.Context, ownerID int64, parentID *int64) ([]*models.Node, error) {
	query := "SELECT " + nodeColumns + " FROM nodes WHERE owner_id = ? AND deleted = 0 AND "
	args := []interface{}{ownerID}

	if parentID == nil {
		query += "parent_id IS NULL"
	} else {
		query += "parent_id = ?"
		args = append(args, *parentID)
	}
	query += " ORDER BY name ASC"

	return s.queryNodes(ctx, query, args...)
}

// ActiveByName finds an active sibling by name.
func (s *SQLiteStore) ActiveByName(ctx context.Context, ownerID int64, parentID *int64, name string) (*models.Node, error) {
	query := "SELECT " + nodeColumns + " FROM nodes WHERE owner_id = ? AND deleted = 0 AND name = ? AND "
	args := []interface{}{ownerID, name}

	if parentID == nil {
		query += "parent_id IS NULL"
	} else {
		query += "parent_id = ?"
		args = append(args, *parentID)
	}

	node, err := scanNode(s.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, models.ErrNodeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query node by name: %w", err)
	}
	return node, nil
}

// RecentFiles lists active file nodes, newest first.
func (s *SQLiteStore) RecentFiles(ctx context.Context, ownerID int64, limit int) ([]*models.Node, error) {
	return s.queryNodes(ctx,
		"SELECT "+nodeColumns+` FROM nodes
         WHERE owner_id = ? AND deleted = 0 AND is_folder = 0
         ORDER BY created_at DESC, id DESC LIMIT ?`,
		ownerID, limit)
}

func (s *SQLiteStore) queryNodes(ctx context.Context, query string, args ...interface{}) ([]*models.Node, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query nodes: %w", err)
	}
	defer rows.Close()

	var nodes []*models.Node
	for rows.Next() {
		node, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan node row: %w", err)
		}
		nodes = append(nodes, node)
	}

	return nodes, rows.Err()
}

// Insert persists a new node and assigns its ID and creation time.
func (s *SQLiteStore) Insert(ctx context.Context, node *models.Node) error {
	if node.CreatedAt.IsZero() {
		node.CreatedAt = time.Now().UTC()
	}

	var size, mime interface{}
	if node.File != nil {
		size = node.File.SizeBytes
		mime = node.File.MIMEType
	}

	res, err := s.db.ExecContext(ctx, `
        INSERT INTO nodes (owner_id, parent_id, name, path, is_folder, size_bytes, mime_type, deleted, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?)
    `, node.OwnerID, nullableID(node.ParentID), node.Name, node.Path,
		node.IsFolder(), size, mime, node.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return models.ErrDuplicateName
		}
		return fmt.Errorf("insert node: %w", err)
	}

	node.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("node id: %w", err)
	}
	return nil
}

// Update rewrites a node's mutable columns.
func (s *SQLiteStore) Update(ctx context.Context, node *models.Node) error {
	res, err := s.db.ExecContext(ctx, `
        UPDATE nodes SET name = ?, path = ?, deleted = ? WHERE id = ?
    `, node.Name, node.Path, node.Deleted, node.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return models.ErrDuplicateName
		}
		return fmt.Errorf("update node: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update node: %w", err)
	}
	if affected == 0 {
		return models.ErrNodeNotFound
	}
	return nil
}

// Delete hard-deletes a node row.
func (s *SQLiteStore) Delete(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM nodes WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete node: %w", err)
	}
	return nil
}

// Quota returns the ledger snapshot.
func (s *SQLiteStore) Quota(ctx context.Context) (models.Quota, error) {
	var q models.Quota
	err := s.db.QueryRowContext(ctx,
		"SELECT total_space, used_space FROM quota WHERE id = 1").
		Scan(&q.TotalSpaceBytes, &q.UsedSpaceBytes)
	if err != nil {
		return models.Quota{}, fmt.Errorf("query quota: %w", err)
	}
	return q, nil
}

// Reserve adds n bytes to the used counter iff the capacity check holds. The
// guard and the increment are one statement, so concurrent reservations can
// never jointly overshoot the total.
func (s *SQLiteStore) Reserve(ctx context.Context, n int64) error {
	res, err := s.db.ExecContext(ctx, `
        UPDATE quota SET used_space = used_space + ?
        WHERE id = 1 AND used_space + ? <= total_space
    `, n, n)
	if err != nil {
		return fmt.Errorf("reserve quota: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reserve quota: %w", err)
	}
	if affected == 0 {
		return models.ErrQuotaExceeded
	}
	return nil
}

// Release subtracts n bytes from the used counter, clamped at zero to
// tolerate drift from earlier partial failures.
func (s *SQLiteStore) Release(ctx context.Context, n int64) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE quota SET used_space = MAX(0, used_space - ?) WHERE id = 1", n)
	if err != nil {
		return fmt.Errorf("release quota: %w", err)
	}
	return nil
}

// CreateUser registers an account.
func (s *SQLiteStore) CreateUser(ctx context.Context, username, passwordHash string, role models.Role) (*models.User, error) {
	now := time.Now().UTC()

	res, err := s.db.ExecContext(ctx, `
        INSERT INTO users (username, password_hash, role, created_at) VALUES (?, ?, ?, ?)
    `, username, passwordHash, string(role), now)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, models.ErrDuplicateName
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("user id: %w", err)
	}

	return &models.User{
		ID:           id,
		Username:     username,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    now,
	}, nil
}

// UserByName returns an account by username.
func (s *SQLiteStore) UserByName(ctx context.Context, username string) (*models.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
        SELECT id, username, password_hash, role, created_at FROM users WHERE username = ?
    `, username))
}

// UserByID returns an account by id.
func (s *SQLiteStore) UserByID(ctx context.Context, id int64) (*models.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
        SELECT id, username, password_hash, role, created_at FROM users WHERE id = ?
    `, id))
}

func (s *SQLiteStore) scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	var role string
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &role, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, models.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	u.Role = models.Role(role)
	return &u, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func nullableID(id *int64) interface{} {
	if id == nil {
		return nil
	}
	return *id
}

func isUniqueViolation(err error) bool {
	var serr sqlite3.Error
	if errors.As(err, &serr) {
		return serr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			serr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
