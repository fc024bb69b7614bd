package kv

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when the key does not exist or has expired.
var ErrNotFound = errors.New("kv: key not found")

// Store is a prefix-scannable, TTL-aware blob store.
//
// Put is last-writer-wins. TTL is advisory: expired keys must eventually
// disappear and are never returned by Get, but may linger in storage until
// a sweep. List is eventually consistent and cursor-stable within a scan.
type Store interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores value under key. A zero ttl means no expiry.
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// List returns up to limit keys with the given prefix, resuming from
	// cursor (empty for the start of the scan). done reports whether the
	// scan is exhausted.
	List(ctx context.Context, prefix string, limit int, cursor string) (keys []string, next string, done bool, err error)
}

// Sweeper is implemented by backends that need an explicit pass to reclaim
// expired entries.
type Sweeper interface {
	// SweepExpired hard-deletes entries whose TTL elapsed before now.
	// Returns the number of entries removed.
	SweepExpired(ctx context.Context, now time.Time) (int, error)
}
