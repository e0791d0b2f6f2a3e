package store

import (
	"context"
	"sync"
)

// CachedStore memoizes read operations (List, FindFolder, FindFile) in front
// of a slower store. Any write invalidates the whole cache rather than the
// touched keys; writes are rare relative to reads during prompt assembly, so
// coarse invalidation keeps the bookkeeping trivial.
type CachedStore struct {
	inner DocumentStore

	mu    sync.Mutex
	lists map[string][]Entry
	finds map[string]Entry
}

func NewCachedStore(inner DocumentStore) *CachedStore {
	return &CachedStore{
		inner: inner,
		lists: make(map[string][]Entry),
		finds: make(map[string]Entry),
	}
}

func (c *CachedStore) invalidate() {
	c.mu.Lock()
	c.lists = make(map[string][]Entry)
	c.finds = make(map[string]Entry)
	c.mu.Unlock()
}

func (c *CachedStore) Root(ctx context.Context) (Entry, error) {
	return c.inner.Root(ctx)
}

func (c *CachedStore) List(ctx context.Context, folderID string) ([]Entry, error) {
	c.mu.Lock()
	if cached, ok := c.lists[folderID]; ok {
		c.mu.Unlock()
		return cached, nil
	}
	c.mu.Unlock()
	out, err := c.inner.List(ctx, folderID)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.lists[folderID] = out
	c.mu.Unlock()
	return out, nil
}

func findKey(kind, parentID, name string) string {
	return kind + "\x00" + parentID + "\x00" + name
}

func (c *CachedStore) cachedFind(ctx context.Context, kind, parentID, name string,
	fn func(context.Context, string, string) (Entry, error)) (Entry, error) {
	key := findKey(kind, parentID, name)
	c.mu.Lock()
	if e, ok := c.finds[key]; ok {
		c.mu.Unlock()
		return e, nil
	}
	c.mu.Unlock()
	e, err := fn(ctx, parentID, name)
	if err != nil {
		return Entry{}, err
	}
	c.mu.Lock()
	c.finds[key] = e
	c.mu.Unlock()
	return e, nil
}

func (c *CachedStore) FindFolder(ctx context.Context, parentID, name string) (Entry, error) {
	return c.cachedFind(ctx, "folder", parentID, name, c.inner.FindFolder)
}

func (c *CachedStore) FindFile(ctx context.Context, parentID, name string) (Entry, error) {
	return c.cachedFind(ctx, "file", parentID, name, c.inner.FindFile)
}

func (c *CachedStore) EnsureFolder(ctx context.Context, parentID, name string) (Entry, error) {
	if e, err := c.FindFolder(ctx, parentID, name); err == nil {
		return e, nil
	}
	e, err := c.inner.EnsureFolder(ctx, parentID, name)
	if err != nil {
		return Entry{}, err
	}
	c.invalidate()
	return e, nil
}

func (c *CachedStore) Upload(ctx context.Context, parentID, name string, data []byte) (Entry, error) {
	e, err := c.inner.Upload(ctx, parentID, name, data)
	if err != nil {
		return Entry{}, err
	}
	c.invalidate()
	return e, nil
}

func (c *CachedStore) Download(ctx context.Context, id string) ([]byte, error) {
	return c.inner.Download(ctx, id)
}

func (c *CachedStore) Delete(ctx context.Context, id string) error {
	if err := c.inner.Delete(ctx, id); err != nil {
		return err
	}
	c.invalidate()
	return nil
}
