package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for the drive engine. The transport layer maps each to a
// distinct status, so no failure surfaces as a generic 500.
var (
	ErrNodeNotFound  = errors.New("node not found")
	ErrUnauthorized  = errors.New("unauthorized access")
	ErrDuplicateName = errors.New("name already exists")
	ErrQuotaExceeded = errors.New("storage quota exceeded")
	ErrInvalidName   = errors.New("invalid name")
	ErrBrokenChain   = errors.New("broken ancestor chain")
	ErrNotAFile      = errors.New("node is not a file")
	ErrNotAFolder    = errors.New("node is not a folder")
)

// Auth sentinel errors.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("token invalid")
)

// Physical operation names for PhysicalError.
const (
	OpMove   = "move"
	OpWrite  = "write"
	OpDelete = "delete"
	OpMkdir  = "mkdir"
	OpRead   = "read"
)

// PhysicalError reports a blob-store failure. Op is one of the Op constants,
// Path the storage-root-relative location that failed.
type PhysicalError struct {
	Op   string
	Path string
	Err  error
}

func (e *PhysicalError) Error() string {
	return fmt.Sprintf("physical %s failed: %s: %v", e.Op, e.Path, e.Err)
}

func (e *PhysicalError) Unwrap() error {
	return e.Err
}

// NewPhysicalError wraps a blob-store failure.
func NewPhysicalError(op, path string, err error) *PhysicalError {
	return &PhysicalError{Op: op, Path: path, Err: err}
}

// IsPhysical reports whether err carries a PhysicalError, optionally matching op.
func IsPhysical(err error, op string) bool {
	var pe *PhysicalError
	if !errors.As(err, &pe) {
		return false
	}
	return op == "" || pe.Op == op
}
