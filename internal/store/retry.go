package store

import (
	"context"
	"errors"
	"time"

	"memoflow/internal/util"
)

// RetryingStore retries store operations a fixed number of times with
// incremental backoff (2^attempt seconds). Not-found results are returned
// immediately; only real I/O failures are retried.
type RetryingStore struct {
	inner    DocumentStore
	attempts int
	sleep    func(time.Duration)
}

func NewRetryingStore(inner DocumentStore, attempts int) *RetryingStore {
	if attempts <= 0 {
		attempts = 3
	}
	return &RetryingStore{inner: inner, attempts: attempts, sleep: time.Sleep}
}

func retryable(err error) bool {
	return err != nil && !errors.Is(err, util.ErrNotFound)
}

func withRetry[T any](r *RetryingStore, ctx context.Context, op func() (T, error)) (T, error) {
	var out T
	var err error
	for attempt := 0; attempt < r.attempts; attempt++ {
		if attempt > 0 {
			r.sleep(time.Duration(1<<attempt) * time.Second)
		}
		if ctx.Err() != nil {
			return out, ctx.Err()
		}
		out, err = op()
		if !retryable(err) {
			return out, err
		}
	}
	return out, err
}

func (r *RetryingStore) Root(ctx context.Context) (Entry, error) {
	return withRetry(r, ctx, func() (Entry, error) { return r.inner.Root(ctx) })
}

func (r *RetryingStore) List(ctx context.Context, folderID string) ([]Entry, error) {
	return withRetry(r, ctx, func() ([]Entry, error) { return r.inner.List(ctx, folderID) })
}

func (r *RetryingStore) FindFolder(ctx context.Context, parentID, name string) (Entry, error) {
	return withRetry(r, ctx, func() (Entry, error) { return r.inner.FindFolder(ctx, parentID, name) })
}

func (r *RetryingStore) FindFile(ctx context.Context, parentID, name string) (Entry, error) {
	return withRetry(r, ctx, func() (Entry, error) { return r.inner.FindFile(ctx, parentID, name) })
}

func (r *RetryingStore) EnsureFolder(ctx context.Context, parentID, name string) (Entry, error) {
	return withRetry(r, ctx, func() (Entry, error) { return r.inner.EnsureFolder(ctx, parentID, name) })
}

func (r *RetryingStore) Upload(ctx context.Context, parentID, name string, data []byte) (Entry, error) {
	return withRetry(r, ctx, func() (Entry, error) { return r.inner.Upload(ctx, parentID, name, data) })
}

func (r *RetryingStore) Download(ctx context.Context, id string) ([]byte, error) {
	return withRetry(r, ctx, func() ([]byte, error) { return r.inner.Download(ctx, id) })
}

func (r *RetryingStore) Delete(ctx context.Context, id string) error {
	_, err := withRetry(r, ctx, func() (struct{}, error) { return struct{}{}, r.inner.Delete(ctx, id) })
	return err
}
