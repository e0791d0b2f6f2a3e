package store

import (
	"context"
	"testing"
)

type countingStore struct {
	*FSStore
	listCalls int
}

func (c *countingStore) List(ctx context.Context, folderID string) ([]Entry, error) {
	c.listCalls++
	return c.FSStore.List(ctx, folderID)
}

func TestCachedStoreMemoizesList(t *testing.T) {
	ctx := context.Background()
	fs, _ := NewFSStore(t.TempDir())
	root, _ := fs.Root(ctx)
	if _, err := fs.Upload(ctx, root.ID, "a.txt", []byte("x")); err != nil {
		t.Fatalf("upload: %v", err)
	}
	inner := &countingStore{FSStore: fs}
	c := NewCachedStore(inner)

	for i := 0; i < 3; i++ {
		if _, err := c.List(ctx, root.ID); err != nil {
			t.Fatalf("list: %v", err)
		}
	}
	if inner.listCalls != 1 {
		t.Fatalf("expected 1 inner list call, got %d", inner.listCalls)
	}
}

func TestCachedStoreInvalidatesOnWrite(t *testing.T) {
	ctx := context.Background()
	fs, _ := NewFSStore(t.TempDir())
	root, _ := fs.Root(ctx)
	inner := &countingStore{FSStore: fs}
	c := NewCachedStore(inner)

	if _, err := c.List(ctx, root.ID); err != nil {
		t.Fatalf("list: %v", err)
	}
	if _, err := c.Upload(ctx, root.ID, "b.txt", []byte("y")); err != nil {
		t.Fatalf("upload: %v", err)
	}
	entries, err := c.List(ctx, root.ID)
	if err != nil {
		t.Fatalf("list after write: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("stale cache after write: %d entries", len(entries))
	}
	if inner.listCalls != 2 {
		t.Fatalf("expected cache refill after write, got %d calls", inner.listCalls)
	}
}
