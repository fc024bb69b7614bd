// Package kvtest holds a conformance suite run against every kv.Store
// backend.
package kvtest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Wire/internal/kv"
)

// RunStoreSuite exercises the kv.Store contract against the given store.
// The store must start empty.
func RunStoreSuite(t *testing.T, store kv.Store) {
	ctx := context.Background()

	t.Run("get missing key", func(t *testing.T) {
		_, err := store.Get(ctx, "missing")
		assert.ErrorIs(t, err, kv.ErrNotFound)
	})

	t.Run("put then get", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "a:1", []byte(`{"v":1}`), 0))
		got, err := store.Get(ctx, "a:1")
		require.NoError(t, err)
		assert.Equal(t, []byte(`{"v":1}`), got)
	})

	t.Run("put is last writer wins", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "a:2", []byte("first"), 0))
		require.NoError(t, store.Put(ctx, "a:2", []byte("second"), 0))
		got, err := store.Get(ctx, "a:2")
		require.NoError(t, err)
		assert.Equal(t, []byte("second"), got)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "a:3", []byte("x"), 0))
		require.NoError(t, store.Delete(ctx, "a:3"))
		_, err := store.Get(ctx, "a:3")
		assert.ErrorIs(t, err, kv.ErrNotFound)

		// Deleting an absent key is not an error.
		assert.NoError(t, store.Delete(ctx, "a:3"))
	})

	t.Run("expired key is gone", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "ttl:1", []byte("x"), time.Millisecond))
		time.Sleep(20 * time.Millisecond)
		_, err := store.Get(ctx, "ttl:1")
		assert.ErrorIs(t, err, kv.ErrNotFound)
	})

	t.Run("prefix list pages through all keys", func(t *testing.T) {
		for i := 0; i < 25; i++ {
			key := fmt.Sprintf("scan:%03d", i)
			require.NoError(t, store.Put(ctx, key, []byte("v"), 0))
		}

		seen := make(map[string]bool)
		cursor := ""
		for {
			keys, next, done, err := store.List(ctx, "scan:", 10, cursor)
			require.NoError(t, err)
			for _, k := range keys {
				seen[k] = true
			}
			if done {
				break
			}
			require.NotEmpty(t, next)
			cursor = next
		}
		assert.Len(t, seen, 25)
	})

	t.Run("list with no matches", func(t *testing.T) {
		keys, _, done, err := store.List(ctx, "nothing:", 10, "")
		require.NoError(t, err)
		assert.Empty(t, keys)
		assert.True(t, done)
	})
}
