package users

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Wire/internal/actor"
	"Wire/internal/kv"
	"Wire/internal/kv/memkv"
)

func newTestService(t *testing.T) (*Service, *memkv.Store) {
	t.Helper()
	store := memkv.New()
	sys := actor.NewSystem(store, 0)
	sys.Register(Namespace, NewBehavior())
	return NewService(NewClient(sys), store, time.Hour), store
}

func registerUser(t *testing.T, svc *Service, store *memkv.Store, userID, handle string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, svc.Actors().Initialize(ctx, userID, Profile{Handle: handle, DisplayName: handle}, Settings{}))
	blob, _ := json.Marshal(userID)
	require.NoError(t, store.Put(ctx, kv.HandleKey(handle), blob, 0))
}

func TestFollowIsSymmetric(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	registerUser(t, svc, store, "u1", "alice")
	registerUser(t, svc, store, "u2", "bob")

	require.NoError(t, svc.Follow(ctx, "u1", "u2"))

	following, err := svc.Actors().Following(ctx, "u1")
	require.NoError(t, err)
	assert.Contains(t, following, "u2")

	followers, err := svc.Actors().Followers(ctx, "u2")
	require.NoError(t, err)
	assert.Contains(t, followers, "u1")
}

func TestFollowBlockedByTarget(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	registerUser(t, svc, store, "u1", "alice")
	registerUser(t, svc, store, "u2", "bob")

	// Alice blocks Bob; Bob's follow attempt is rejected.
	require.NoError(t, svc.Block(ctx, "u1", "u2"))
	err := svc.Follow(ctx, "u2", "u1")
	assert.ErrorIs(t, err, ErrBlocked)
}

func TestBlockRemovesFollowBothSides(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	registerUser(t, svc, store, "u1", "alice")
	registerUser(t, svc, store, "u2", "bob")

	require.NoError(t, svc.Follow(ctx, "u1", "u2"))
	require.NoError(t, svc.Follow(ctx, "u2", "u1"))
	require.NoError(t, svc.Block(ctx, "u1", "u2"))

	following, err := svc.Actors().Following(ctx, "u1")
	require.NoError(t, err)
	assert.NotContains(t, following, "u2")

	followers, err := svc.Actors().Followers(ctx, "u1")
	require.NoError(t, err)
	assert.NotContains(t, followers, "u2")

	// The mirrored side no longer follows or is followed either.
	following, err = svc.Actors().Following(ctx, "u2")
	require.NoError(t, err)
	assert.NotContains(t, following, "u1")

	followers, err = svc.Actors().Followers(ctx, "u2")
	require.NoError(t, err)
	assert.NotContains(t, followers, "u1")
}

func TestSelfFollowRejected(t *testing.T) {
	svc, store := newTestService(t)
	registerUser(t, svc, store, "u1", "alice")
	err := svc.Follow(context.Background(), "u1", "u1")
	assert.True(t, IsValidationError(err))
}

func TestProfileByHandleUsesCache(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	registerUser(t, svc, store, "u1", "alice")

	p, err := svc.GetProfileByHandle(ctx, "ALICE")
	require.NoError(t, err)
	assert.Equal(t, "alice", p.Handle)

	// The cache blob now exists and is served without touching the actor.
	_, err = store.Get(ctx, kv.ProfileKey("alice"))
	assert.NoError(t, err)
}

func TestProfileUpdateInvalidatesCache(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	registerUser(t, svc, store, "u1", "alice")

	_, err := svc.GetProfileByHandle(ctx, "alice")
	require.NoError(t, err)

	name := "Alice A."
	_, err = svc.UpdateProfile(ctx, "u1", ProfilePatch{DisplayName: &name})
	require.NoError(t, err)

	_, err = store.Get(ctx, kv.ProfileKey("alice"))
	assert.ErrorIs(t, err, kv.ErrNotFound)
}

func TestBanInvalidatesCache(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	registerUser(t, svc, store, "u1", "alice")

	_, err := svc.GetProfileByHandle(ctx, "alice")
	require.NoError(t, err)

	require.NoError(t, svc.Ban(ctx, "u1", "tos"))
	_, err = store.Get(ctx, kv.ProfileKey("alice"))
	assert.ErrorIs(t, err, kv.ErrNotFound)

	p, err := svc.GetProfileByHandle(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, p.IsBanned)
}

func TestBioTooLongRejected(t *testing.T) {
	svc, store := newTestService(t)
	registerUser(t, svc, store, "u1", "alice")

	long := make([]rune, MaxBioLength+1)
	for i := range long {
		long[i] = 'x'
	}
	bio := string(long)
	_, err := svc.UpdateProfile(context.Background(), "u1", ProfilePatch{Bio: &bio})
	assert.True(t, IsValidationError(err))
}

func TestListFollowersPagination(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	registerUser(t, svc, store, "u1", "alice")
	for _, u := range []struct{ id, handle string }{
		{"u2", "bob"}, {"u3", "carol"}, {"u4", "dave"},
	} {
		registerUser(t, svc, store, u.id, u.handle)
		require.NoError(t, svc.Follow(ctx, u.id, "u1"))
	}

	first, err := svc.ListFollowers(ctx, "u1", 2, 0)
	require.NoError(t, err)
	require.Len(t, first, 2)

	rest, err := svc.ListFollowers(ctx, "u1", 2, 2)
	require.NoError(t, err)
	require.Len(t, rest, 1)

	none, err := svc.ListFollowers(ctx, "u1", 2, 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRequireAdmin(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	registerUser(t, svc, store, "u1", "alice")

	assert.ErrorIs(t, svc.RequireAdmin(ctx, "u1"), ErrNotAdmin)
	require.NoError(t, svc.SetAdmin(ctx, "u1", true))
	assert.NoError(t, svc.RequireAdmin(ctx, "u1"))
}
