// Package memkv provides an in-memory kv.Store used by tests and
// single-process development mode.
package memkv

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"Wire/internal/kv"
)

type entry struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

// Store is a mutex-guarded map implementing kv.Store.
type Store struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{entries: make(map[string]entry)}
}

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok || expired(e, time.Now()) {
		return nil, kv.ErrNotFound
	}
	// Copy so callers can't mutate stored bytes.
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

func (s *Store) Put(_ context.Context, key string, value []byte, ttl time.Duration) error {
	v := make([]byte, len(value))
	copy(v, value)
	e := entry{value: v}
	if ttl > 0 {
		e.expiresAt = time.Now().Add(ttl)
	}
	s.mu.Lock()
	s.entries[key] = e
	s.mu.Unlock()
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

// List scans keys with the prefix in lexicographic order. The cursor is the
// last key of the previous page; scanning resumes strictly after it.
func (s *Store) List(_ context.Context, prefix string, limit int, cursor string) ([]string, string, bool, error) {
	if limit <= 0 {
		limit = 100
	}
	now := time.Now()

	s.mu.RLock()
	matched := make([]string, 0, limit)
	for k, e := range s.entries {
		if strings.HasPrefix(k, prefix) && !expired(e, now) && k > cursor {
			matched = append(matched, k)
		}
	}
	s.mu.RUnlock()

	sort.Strings(matched)
	done := len(matched) <= limit
	if !done {
		matched = matched[:limit]
	}
	next := ""
	if len(matched) > 0 {
		next = matched[len(matched)-1]
	}
	if done {
		next = ""
	}
	return matched, next, done, nil
}

// SweepExpired removes entries whose TTL elapsed before now.
func (s *Store) SweepExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k, e := range s.entries {
		if expired(e, now) {
			delete(s.entries, k)
			n++
		}
	}
	return n, nil
}

func expired(e entry, now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}
