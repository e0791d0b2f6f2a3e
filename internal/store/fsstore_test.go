package store

import (
	"context"
	"errors"
	"testing"

	"memoflow/internal/util"
)

func TestFSStoreUploadDownloadRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	root, _ := s.Root(ctx)
	folder, err := s.EnsureFolder(ctx, root.ID, "Proyecto X")
	if err != nil {
		t.Fatalf("ensure folder: %v", err)
	}
	e, err := s.Upload(ctx, folder.ID, "nota.json", []byte(`{"ok":true}`))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	data, err := s.Download(ctx, e.ID)
	if err != nil || string(data) != `{"ok":true}` {
		t.Fatalf("download mismatch: %v %q", err, data)
	}
	if _, err := s.FindFile(ctx, folder.ID, "nota.json"); err != nil {
		t.Fatalf("find file: %v", err)
	}
	entries, err := s.List(ctx, folder.ID)
	if err != nil || len(entries) != 1 {
		t.Fatalf("list: %v %d", err, len(entries))
	}
}

func TestFSStoreFindMissingIsNotFound(t *testing.T) {
	ctx := context.Background()
	s, _ := NewFSStore(t.TempDir())
	root, _ := s.Root(ctx)
	if _, err := s.FindFile(ctx, root.ID, "nada.json"); !errors.Is(err, util.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.FindFolder(ctx, root.ID, "nada"); !errors.Is(err, util.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestReplaceFileOverwrites(t *testing.T) {
	ctx := context.Background()
	s, _ := NewFSStore(t.TempDir())
	root, _ := s.Root(ctx)
	if _, err := ReplaceFile(ctx, s, root.ID, "plan.json", []byte("v1")); err != nil {
		t.Fatalf("first replace: %v", err)
	}
	if _, err := ReplaceFile(ctx, s, root.ID, "plan.json", []byte("v2")); err != nil {
		t.Fatalf("second replace: %v", err)
	}
	e, _ := s.FindFile(ctx, root.ID, "plan.json")
	data, _ := s.Download(ctx, e.ID)
	if string(data) != "v2" {
		t.Fatalf("expected v2, got %q", data)
	}
}

func TestFSStoreDeleteFolder(t *testing.T) {
	ctx := context.Background()
	s, _ := NewFSStore(t.TempDir())
	root, _ := s.Root(ctx)
	folder, _ := s.EnsureFolder(ctx, root.ID, "tmp")
	if _, err := s.Upload(ctx, folder.ID, "a.txt", []byte("x")); err != nil {
		t.Fatalf("upload: %v", err)
	}
	if err := s.Delete(ctx, folder.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.FindFolder(ctx, root.ID, "tmp"); !errors.Is(err, util.ErrNotFound) {
		t.Fatalf("folder should be gone, got %v", err)
	}
}
