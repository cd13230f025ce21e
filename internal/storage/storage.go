package storage

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrNotFound is returned when a remote object does not exist.
	ErrNotFound = errors.New("storage: not found")
	// ErrConflict is returned by backends that enforce name uniqueness
	// when a folder with the same name already exists under the parent.
	ErrConflict = errors.New("storage: name already exists")
)

// Folder is one node of the remote folder tree. IDs are opaque and
// backend-specific; ParentID of a top-level folder is the empty string.
type Folder struct {
	ID       string
	Name     string
	ParentID string
}

// File is a non-folder object inside a folder.
type File struct {
	ID   string
	Name string
}

// Remote is the hierarchical document store orders are materialized
// into. All calls are fallible and may fail transiently; callers own
// the retry policy (see WithRetry).
type Remote interface {
	// CreateFolder creates a folder under parentID unconditionally and
	// returns its id. Backends that enforce name uniqueness return
	// ErrConflict when the name is taken; backends that allow duplicate
	// names (Google Drive) never do.
	CreateFolder(ctx context.Context, name, parentID string) (string, error)

	// ListFolders returns the immediate child folders of parentID,
	// ordered by name.
	ListFolders(ctx context.Context, parentID string) ([]Folder, error)

	// FindFile returns the file with exactly the given name under
	// parentID, or ErrNotFound.
	FindFile(ctx context.Context, name, parentID string) (*File, error)

	// ListFiles returns the immediate child files (never folders) of
	// parentID.
	ListFiles(ctx context.Context, parentID string) ([]File, error)

	// CreateFile uploads a new file into parentID and returns its id.
	CreateFile(ctx context.Context, name, mimeType, parentID string, r io.Reader) (string, error)

	// UpdateFile replaces the content of an existing file.
	UpdateFile(ctx context.Context, fileID, mimeType string, r io.Reader) error

	// Download returns the full content of a file.
	Download(ctx context.Context, fileID string) ([]byte, error)
}
