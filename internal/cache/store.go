// Package cache stores build artifacts and compiler caches as compressed
// archives addressed by deterministic keys.
package cache

import (
	"context"
	"errors"
	"log/slog"
)

// ErrNotFound is returned when no entry exists for a key.
var ErrNotFound = errors.New("cache entry not found")

// Store is a key-addressed archive store.
//
// Lookup resolves which stored key will serve a request, trying the exact key
// before falling back to the newest entry matching any restore prefix.
// Restore unpacks an entry's archived paths under dest. Save archives the
// given paths (relative to base) under key; concurrent saves to one key are
// last-write-wins, matching the hosted cache services this mirrors.
type Store interface {
	Lookup(ctx context.Context, key string, restorePrefixes []string) (string, bool, error)
	Restore(ctx context.Context, key, dest string) error
	Save(ctx context.Context, key, base string, paths []string) error
}

// Open selects the configured backend: an S3-compatible bucket when one is
// configured, the local disk store otherwise.
func Open(dir string, s3 S3Config, logger *slog.Logger) (Store, error) {
	if s3.Endpoint != "" && s3.Bucket != "" {
		return NewS3Store(s3, logger)
	}
	return NewDiskStore(dir, logger), nil
}
