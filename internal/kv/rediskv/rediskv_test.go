package rediskv

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Wire/internal/kv"
	"Wire/internal/kv/kvtest"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client), mr
}

func TestStoreConformance(t *testing.T) {
	store, mr := newTestStore(t)
	// miniredis does not advance TTL clocks on its own; fast-forward so the
	// suite's expiry case observes the key disappearing.
	go func() {
		time.Sleep(10 * time.Millisecond)
		mr.FastForward(time.Second)
	}()
	kvtest.RunStoreSuite(t, store)
}

func TestTTLMapsToKeyExpiry(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestStore(t)

	require.NoError(t, store.Put(ctx, "ranked", []byte("[]"), 15*time.Minute))
	mr.FastForward(16 * time.Minute)

	_, err := store.Get(ctx, "ranked")
	assert.ErrorIs(t, err, kv.ErrNotFound)
}

func TestMalformedCursor(t *testing.T) {
	store, _ := newTestStore(t)
	_, _, _, err := store.List(context.Background(), "p:", 10, "not-a-cursor")
	assert.Error(t, err)
}
