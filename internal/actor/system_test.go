package actor

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Wire/internal/kv"
	"Wire/internal/kv/memkv"
)

// counterBehavior is a minimal behavior for exercising the runtime.
type counterState struct {
	Count int `json:"count"`
}

type counterBehavior struct{}

func (counterBehavior) NewState() any { return &counterState{} }

func (counterBehavior) Initialize(_ context.Context, _ string, body []byte) (any, error) {
	st := &counterState{}
	if err := Decode(body, st); err != nil {
		return nil, err
	}
	return st, nil
}

func (counterBehavior) Handle(_ context.Context, _ string, state any, path string, _ []byte) ([]byte, bool, error) {
	st := state.(*counterState)
	switch path {
	case "increment":
		st.Count++
		resp, err := Encode(st.Count)
		return resp, true, err
	case "get":
		resp, err := Encode(st.Count)
		return resp, false, err
	default:
		return nil, false, fmt.Errorf("%w: %s", ErrUnknownPath, path)
	}
}

func TestCallBeforeInitialize(t *testing.T) {
	sys := NewSystem(memkv.New(), 0)
	sys.Register("counter", counterBehavior{})

	_, err := sys.Call(context.Background(), "counter", "c1", "get", nil)
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestInitializeOnce(t *testing.T) {
	ctx := context.Background()
	sys := NewSystem(memkv.New(), 0)
	sys.Register("counter", counterBehavior{})

	_, err := sys.Call(ctx, "counter", "c1", PathInitialize, []byte(`{"count":5}`))
	require.NoError(t, err)

	_, err = sys.Call(ctx, "counter", "c1", PathInitialize, nil)
	assert.ErrorIs(t, err, ErrAlreadyInitialized)

	resp, err := sys.Call(ctx, "counter", "c1", "get", nil)
	require.NoError(t, err)
	assert.Equal(t, "5", string(resp))
}

func TestUnknownNamespace(t *testing.T) {
	sys := NewSystem(memkv.New(), 0)
	_, err := sys.Call(context.Background(), "ghost", "x", "get", nil)
	assert.ErrorIs(t, err, ErrUnknownNamespace)
}

func TestStateSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	store := memkv.New()

	sys := NewSystem(store, 0)
	sys.Register("counter", counterBehavior{})
	_, err := sys.Call(ctx, "counter", "c1", PathInitialize, nil)
	require.NoError(t, err)
	_, err = sys.Call(ctx, "counter", "c1", "increment", nil)
	require.NoError(t, err)

	// A fresh system over the same store addresses the same logical actor.
	sys2 := NewSystem(store, 0)
	sys2.Register("counter", counterBehavior{})
	resp, err := sys2.Call(ctx, "counter", "c1", "get", nil)
	require.NoError(t, err)
	assert.Equal(t, "1", string(resp))
}

func TestOperationsAreSerialised(t *testing.T) {
	ctx := context.Background()
	sys := NewSystem(memkv.New(), 0)
	sys.Register("counter", counterBehavior{})
	_, err := sys.Call(ctx, "counter", "c1", PathInitialize, nil)
	require.NoError(t, err)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := sys.Call(ctx, "counter", "c1", "increment", nil)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	resp, err := sys.Call(ctx, "counter", "c1", "get", nil)
	require.NoError(t, err)
	count, _ := strconv.Atoi(string(resp))
	assert.Equal(t, n, count)
}

func TestEvictedActorReloads(t *testing.T) {
	ctx := context.Background()
	sys := NewSystem(memkv.New(), 1) // at most one idle resident
	sys.Register("counter", counterBehavior{})

	for _, name := range []string{"a", "b"} {
		_, err := sys.Call(ctx, "counter", name, PathInitialize, nil)
		require.NoError(t, err)
	}
	// Alternating calls force a to be evicted and reloaded repeatedly.
	for i := 0; i < 5; i++ {
		_, err := sys.Call(ctx, "counter", "a", "increment", nil)
		require.NoError(t, err)
		_, err = sys.Call(ctx, "counter", "b", "increment", nil)
		require.NoError(t, err)
	}

	resp, err := sys.Call(ctx, "counter", "a", "get", nil)
	require.NoError(t, err)
	assert.Equal(t, "5", string(resp))
}

// flakyStore fails Put on demand to exercise the persist failure path.
type flakyStore struct {
	kv.Store
	failPuts bool
}

func (f *flakyStore) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if f.failPuts {
		return errors.New("disk full")
	}
	return f.Store.Put(ctx, key, value, ttl)
}

func TestFailedPersistIsNotObservable(t *testing.T) {
	ctx := context.Background()
	store := &flakyStore{Store: memkv.New()}
	sys := NewSystem(store, 0)
	sys.Register("counter", counterBehavior{})

	_, err := sys.Call(ctx, "counter", "c1", PathInitialize, nil)
	require.NoError(t, err)
	_, err = sys.Call(ctx, "counter", "c1", "increment", nil)
	require.NoError(t, err)

	store.failPuts = true
	_, err = sys.Call(ctx, "counter", "c1", "increment", nil)
	require.ErrorIs(t, err, ErrTransientPersist)
	assert.True(t, IsTransient(err))
	store.failPuts = false

	resp, err := sys.Call(ctx, "counter", "c1", "get", nil)
	require.NoError(t, err)
	assert.Equal(t, "1", string(resp), "failed mutation must not be visible")
}

func TestMalformedStateBlob(t *testing.T) {
	ctx := context.Background()
	store := memkv.New()
	require.NoError(t, store.Put(ctx, kv.ActorKey("counter", "bad"), []byte("{not json"), 0))

	sys := NewSystem(store, 0)
	sys.Register("counter", counterBehavior{})
	_, err := sys.Call(ctx, "counter", "bad", "get", nil)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotInitialized)
}

func TestDecodeToleratesEmptyBody(t *testing.T) {
	var v struct {
		X int `json:"x"`
	}
	require.NoError(t, Decode(nil, &v))
	require.NoError(t, Decode([]byte(`{"x":3}`), &v))
	assert.Equal(t, 3, v.X)
	assert.Error(t, Decode([]byte("{"), &v))
}
