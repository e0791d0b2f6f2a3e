// Package store abstracts the document store that owns all persistent
// project artifacts. Folders and files are addressed by opaque ids; the
// application never assumes ids are paths. The store is the source of truth,
// anything held in memory or in Postgres is a cache over it.
package store

import (
	"context"
	"time"
)

type Entry struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	ParentID   string    `json:"parent_id"`
	IsFolder   bool      `json:"is_folder"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modified_at"`
}

type DocumentStore interface {
	Root(ctx context.Context) (Entry, error)
	List(ctx context.Context, folderID string) ([]Entry, error)

	// FindFolder and FindFile return util.ErrNotFound when absent.
	FindFolder(ctx context.Context, parentID, name string) (Entry, error)
	FindFile(ctx context.Context, parentID, name string) (Entry, error)

	// EnsureFolder is find-or-create. Not atomic: two concurrent callers may
	// both create; acceptable because fan-out folders are keyed by distinct
	// subapartado names.
	EnsureFolder(ctx context.Context, parentID, name string) (Entry, error)

	Upload(ctx context.Context, parentID, name string, data []byte) (Entry, error)
	Download(ctx context.Context, id string) ([]byte, error)
	Delete(ctx context.Context, id string) error
}

// ReplaceFile overwrites by delete-then-upload, matching the store's lack of
// an in-place update operation. Not atomic: a reader between the two calls
// sees the file missing.
func ReplaceFile(ctx context.Context, s DocumentStore, parentID, name string, data []byte) (Entry, error) {
	if prev, err := s.FindFile(ctx, parentID, name); err == nil {
		if err := s.Delete(ctx, prev.ID); err != nil {
			return Entry{}, err
		}
	}
	return s.Upload(ctx, parentID, name, data)
}
