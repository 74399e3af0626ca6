package models

import (
	"strings"
	"time"
)

// NodeKind discriminates files from folders.
type NodeKind int

const (
	KindFolder NodeKind = iota
	KindFile
)

// String returns the wire name of the kind.
func (k NodeKind) String() string {
	if k == KindFolder {
		return "folder"
	}
	return "file"
}

// MarshalJSON encodes the kind as its wire name.
func (k NodeKind) MarshalJSON() ([]byte, error) {
	return []byte(`"` + k.String() + `"`), nil
}

// UnmarshalJSON decodes a wire name back into a kind.
func (k *NodeKind) UnmarshalJSON(data []byte) error {
	if string(data) == `"file"` {
		*k = KindFile
	} else {
		*k = KindFolder
	}
	return nil
}

// FileMeta holds the attributes that only file nodes carry.
type FileMeta struct {
	SizeBytes int64  `json:"size_bytes"`
	MIMEType  string `json:"mime_type,omitempty"`
}

// Node is a single entry in a user's virtual hierarchy. Folders record their
// location with a trailing separator; files record the directory path plus an
// opaque blob key. File is nil exactly when Kind is KindFolder, so a folder
// with a size is unrepresentable.
type Node struct {
	ID       int64     `json:"id"`
	OwnerID  int64     `json:"owner_id"`
	ParentID *int64    `json:"parent_id,omitempty"`
	Name     string    `json:"name"`
	Path     string    `json:"path"`
	Kind     NodeKind  `json:"kind"`
	File     *FileMeta `json:"file,omitempty"`

	Deleted   bool      `json:"deleted"`
	CreatedAt time.Time `json:"created_at"`

	// Lost is set when the last read found no blob behind Path. It is
	// recomputed on access and never persisted.
	Lost bool `json:"lost,omitempty"`
}

// IsFolder reports whether the node is a folder.
func (n *Node) IsFolder() bool {
	return n.Kind == KindFolder
}

// SizeBytes returns the file size, or zero for folders.
func (n *Node) SizeBytes() int64 {
	if n.File == nil {
		return 0
	}
	return n.File.SizeBytes
}

// PathSuffix returns the trailing separator folders carry in their recorded path.
func (n *Node) PathSuffix() string {
	if n.IsFolder() {
		return "/"
	}
	return ""
}

// Clone returns a deep copy, so annotations on the copy never leak into
// store-held state.
func (n *Node) Clone() *Node {
	c := *n
	if n.ParentID != nil {
		id := *n.ParentID
		c.ParentID = &id
	}
	if n.File != nil {
		meta := *n.File
		c.File = &meta
	}
	return &c
}

// Ext returns the extension of a display name including the dot, or "".
func Ext(name string) string {
	if idx := strings.LastIndex(name, "."); idx > 0 {
		return name[idx:]
	}
	return ""
}
