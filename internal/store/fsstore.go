package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"memoflow/internal/util"
)

// FSStore implements DocumentStore on a local directory tree. Entry ids are
// slash-separated paths relative to the root, which keeps them stable across
// restarts and readable in logs.
type FSStore struct {
	root string
}

func NewFSStore(root string) (*FSStore, error) {
	if err := util.EnsureDir(root); err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve store root: %w", err)
	}
	return &FSStore{root: abs}, nil
}

func (f *FSStore) Root(ctx context.Context) (Entry, error) {
	_ = ctx
	return Entry{ID: ".", Name: filepath.Base(f.root), IsFolder: true}, nil
}

func (f *FSStore) abs(id string) string {
	return filepath.Join(f.root, filepath.FromSlash(id))
}

func childID(parentID, name string) string {
	if parentID == "." || parentID == "" {
		return name
	}
	return parentID + "/" + name
}

func (f *FSStore) entryFor(id string, info os.FileInfo) Entry {
	parent := "."
	if i := strings.LastIndex(id, "/"); i >= 0 {
		parent = id[:i]
	}
	return Entry{
		ID:         id,
		Name:       info.Name(),
		ParentID:   parent,
		IsFolder:   info.IsDir(),
		Size:       info.Size(),
		ModifiedAt: info.ModTime(),
	}
}

func (f *FSStore) List(ctx context.Context, folderID string) ([]Entry, error) {
	_ = ctx
	entries, err := os.ReadDir(f.abs(folderID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("list %s: %w", folderID, util.ErrNotFound)
		}
		return nil, fmt.Errorf("list %s: %w", folderID, err)
	}
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, f.entryFor(childID(folderID, e.Name()), info))
	}
	return out, nil
}

func (f *FSStore) find(ctx context.Context, parentID, name string, wantFolder bool) (Entry, error) {
	id := childID(parentID, filepath.Base(name))
	info, err := os.Stat(f.abs(id))
	if err != nil || info.IsDir() != wantFolder {
		return Entry{}, fmt.Errorf("find %s: %w", id, util.ErrNotFound)
	}
	return f.entryFor(id, info), nil
}

func (f *FSStore) FindFolder(ctx context.Context, parentID, name string) (Entry, error) {
	return f.find(ctx, parentID, name, true)
}

func (f *FSStore) FindFile(ctx context.Context, parentID, name string) (Entry, error) {
	return f.find(ctx, parentID, name, false)
}

func (f *FSStore) EnsureFolder(ctx context.Context, parentID, name string) (Entry, error) {
	if e, err := f.FindFolder(ctx, parentID, name); err == nil {
		return e, nil
	}
	id := childID(parentID, filepath.Base(name))
	if err := util.EnsureDir(f.abs(id)); err != nil {
		return Entry{}, err
	}
	info, err := os.Stat(f.abs(id))
	if err != nil {
		return Entry{}, fmt.Errorf("stat new folder %s: %w", id, err)
	}
	return f.entryFor(id, info), nil
}

func (f *FSStore) Upload(ctx context.Context, parentID, name string, data []byte) (Entry, error) {
	_ = ctx
	id := childID(parentID, filepath.Base(name))
	path := f.abs(id)
	if err := util.WriteBytesAtomic(path, data); err != nil {
		return Entry{}, fmt.Errorf("upload %s: %w", id, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return Entry{}, fmt.Errorf("stat upload %s: %w", id, err)
	}
	return f.entryFor(id, info), nil
}

func (f *FSStore) Download(ctx context.Context, id string) ([]byte, error) {
	_ = ctx
	data, err := os.ReadFile(f.abs(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("download %s: %w", id, util.ErrNotFound)
		}
		return nil, fmt.Errorf("download %s: %w", id, err)
	}
	return data, nil
}

func (f *FSStore) Delete(ctx context.Context, id string) error {
	_ = ctx
	if id == "." || id == "" {
		return fmt.Errorf("refusing to delete store root")
	}
	if err := os.RemoveAll(f.abs(id)); err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}
	return nil
}
