package storage

import (
	"context"
	"errors"

	"github.com/cenkalti/backoff/v4"
)

// Retrying wraps a Remote with bounded exponential backoff on the
// idempotent read operations. Writes are never retried here: folder and
// file creation are not idempotent on every backend, and the callers
// surface those failures instead.
type Retrying struct {
	Remote

	// NewBackOff builds the retry policy for a single operation.
	NewBackOff func() backoff.BackOff
}

func WithRetry(remote Remote, maxRetries uint64) *Retrying {
	return &Retrying{
		Remote: remote,
		NewBackOff: func() backoff.BackOff {
			return backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxRetries)
		},
	}
}

func (r *Retrying) ListFolders(ctx context.Context, parentID string) ([]Folder, error) {
	return retryValue(ctx, r.NewBackOff(), func() ([]Folder, error) {
		return r.Remote.ListFolders(ctx, parentID)
	})
}

func (r *Retrying) FindFile(ctx context.Context, name, parentID string) (*File, error) {
	return retryValue(ctx, r.NewBackOff(), func() (*File, error) {
		return r.Remote.FindFile(ctx, name, parentID)
	})
}

func (r *Retrying) ListFiles(ctx context.Context, parentID string) ([]File, error) {
	return retryValue(ctx, r.NewBackOff(), func() ([]File, error) {
		return r.Remote.ListFiles(ctx, parentID)
	})
}

func (r *Retrying) Download(ctx context.Context, fileID string) ([]byte, error) {
	return retryValue(ctx, r.NewBackOff(), func() ([]byte, error) {
		return r.Remote.Download(ctx, fileID)
	})
}

func retryValue[T any](ctx context.Context, policy backoff.BackOff, op func() (T, error)) (T, error) {
	var out T
	err := backoff.Retry(func() error {
		v, err := op()
		if err != nil {
			// A definite answer from the remote, not a transient failure.
			if errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) {
				return backoff.Permanent(err)
			}
			return err
		}
		out = v
		return nil
	}, backoff.WithContext(policy, ctx))
	return out, err
}
