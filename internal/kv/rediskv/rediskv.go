// Package rediskv backs kv.Store with Redis. TTLs map to native key expiry
// and prefix scans use SCAN, so no sweep pass is needed.
package rediskv

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"Wire/internal/kv"
)

// Store implements kv.Store on a Redis client.
type Store struct {
	client *redis.Client
}

// New wraps an existing Redis client.
func New(client *redis.Client) *Store {
	return &Store{client: client}
}

// Dial connects to addr and pings the server.
func Dial(ctx context.Context, addr string) (*Store, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &Store{client: client}, nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, kv.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return val, nil
}

func (s *Store) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	// go-redis treats expiration 0 as "no expiry".
	return s.client.Set(ctx, key, value, ttl).Err()
}

func (s *Store) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

// List pages through SCAN. The cursor is the numeric SCAN cursor; Redis
// guarantees a full sweep of keys that exist for the scan's duration, which
// satisfies the eventually-consistent contract.
func (s *Store) List(ctx context.Context, prefix string, limit int, cursor string) ([]string, string, bool, error) {
	if limit <= 0 {
		limit = 100
	}
	var scanCursor uint64
	if cursor != "" {
		c, err := strconv.ParseUint(cursor, 10, 64)
		if err != nil {
			return nil, "", false, errors.New("rediskv: malformed cursor")
		}
		scanCursor = c
	}

	keys := make([]string, 0, limit)
	for len(keys) < limit {
		batch, next, err := s.client.Scan(ctx, scanCursor, prefix+"*", int64(limit)).Result()
		if err != nil {
			return nil, "", false, err
		}
		keys = append(keys, batch...)
		scanCursor = next
		if next == 0 {
			return keys, "", true, nil
		}
	}
	return keys, strconv.FormatUint(scanCursor, 10), false, nil
}
