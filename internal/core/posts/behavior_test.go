package posts

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Wire/internal/actor"
	"Wire/internal/kv/memkv"
)

func newPostClient(t *testing.T) *Client {
	t.Helper()
	sys := actor.NewSystem(memkv.New(), 0)
	sys.Register(Namespace, NewBehavior())
	return NewClient(sys)
}

func TestLikeIdempotent(t *testing.T) {
	ctx := context.Background()
	c := newPostClient(t)
	require.NoError(t, c.Initialize(ctx, "p1", Post{AuthorID: "a1", Content: "hi"}))

	n, err := c.Like(ctx, "p1", "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = c.Like(ctx, "p1", "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, n, "second like does not change the count")

	has, err := c.HasLiked(ctx, "p1", "u1")
	require.NoError(t, err)
	assert.True(t, has)

	n, err = c.Unlike(ctx, "p1", "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestConcurrentLikesCountOnce(t *testing.T) {
	ctx := context.Background()
	c := newPostClient(t)
	require.NoError(t, c.Initialize(ctx, "p1", Post{AuthorID: "a1", Content: "hi"}))

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := c.Like(ctx, "p1", fmt.Sprintf("u%d", i))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	p, err := c.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 5, p.LikeCount)
}

func TestGetSubstitutesAuthoritativeCounts(t *testing.T) {
	ctx := context.Background()
	c := newPostClient(t)
	// Stale cached counts in the seed must not leak through get.
	require.NoError(t, c.Initialize(ctx, "p1", Post{AuthorID: "a1", Content: "hi", LikeCount: 99, RepostCount: 42}))

	p, err := c.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 0, p.LikeCount)
	assert.Equal(t, 0, p.RepostCount)
}

func TestRepostMembership(t *testing.T) {
	ctx := context.Background()
	c := newPostClient(t)
	require.NoError(t, c.Initialize(ctx, "p1", Post{AuthorID: "a1", Content: "hi"}))

	has, err := c.HasReposted(ctx, "p1", "u1")
	require.NoError(t, err)
	assert.False(t, has)

	n, err := c.Repost(ctx, "p1", "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	has, err = c.HasReposted(ctx, "p1", "u1")
	require.NoError(t, err)
	assert.True(t, has)
}

func TestDeleteZeroesEngagement(t *testing.T) {
	ctx := context.Background()
	c := newPostClient(t)
	require.NoError(t, c.Initialize(ctx, "p1", Post{AuthorID: "a1", Content: "hi"}))
	_, err := c.Like(ctx, "p1", "u1")
	require.NoError(t, err)
	_, err = c.IncrementReplies(ctx, "p1")
	require.NoError(t, err)

	require.NoError(t, c.Delete(ctx, "p1"))
	require.NoError(t, c.Delete(ctx, "p1"), "delete is idempotent")

	p, err := c.Get(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, p.IsDeleted)
	assert.Equal(t, 0, p.LikeCount)
	assert.Equal(t, 0, p.ReplyCount)

	_, err = c.Like(ctx, "p1", "u2")
	assert.ErrorIs(t, err, ErrDeleted)
	_, err = c.Repost(ctx, "p1", "u2")
	assert.ErrorIs(t, err, ErrDeleted)
}

func TestUninitializedPostIsNotFound(t *testing.T) {
	c := newPostClient(t)
	_, err := c.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestKindDerivation(t *testing.T) {
	assert.Equal(t, KindOriginal, (&Post{}).Kind())
	assert.Equal(t, KindReply, (&Post{ReplyToID: "x"}).Kind())
	assert.Equal(t, KindQuote, (&Post{QuoteOfID: "x"}).Kind())
	assert.Equal(t, KindRepost, (&Post{RepostOfID: "x"}).Kind())
}
