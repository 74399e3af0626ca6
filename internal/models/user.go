package models

import "time"

// Role controls which drive operations a caller may perform.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleGuest Role = "guest"
)

// CanWrite reports whether the role may mutate the hierarchy.
func (r Role) CanWrite() bool {
	return r == RoleAdmin
}

// User is a registered account owning a node forest.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Identity is the authenticated caller passed explicitly into every drive
// operation. There is no ambient security context.
type Identity struct {
	UserID   int64
	Username string
	Role     Role
}
