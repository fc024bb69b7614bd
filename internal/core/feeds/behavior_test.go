package feeds

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Wire/internal/actor"
	"Wire/internal/core/users"
	"Wire/internal/kv"
	"Wire/internal/kv/memkv"
)

func newTestFeed(t *testing.T) (*Client, *memkv.Store) {
	t.Helper()
	store := memkv.New()
	sys := actor.NewSystem(store, 0)
	sys.Register(Namespace, NewBehavior(store, 0))
	return NewClient(sys), store
}

func putPost(t *testing.T, store *memkv.Store, id, authorID, content string) {
	t.Helper()
	blob, _ := json.Marshal(map[string]any{
		"id": id, "authorId": authorID, "content": content,
	})
	require.NoError(t, store.Put(context.Background(), kv.PostKey(id), blob, 0))
}

func entry(postID, authorID string, age time.Duration) Entry {
	return Entry{
		PostID:    postID,
		AuthorID:  authorID,
		Timestamp: time.Now().Add(-age),
		Source:    SourceFollow,
	}
}

func TestAddEntryDedupesAndPrepends(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestFeed(t)
	require.NoError(t, c.Initialize(ctx, "u1"))

	require.NoError(t, c.AddEntry(ctx, "u1", entry("p1", "a1", time.Hour)))
	require.NoError(t, c.AddEntry(ctx, "u1", entry("p2", "a1", 0)))
	require.NoError(t, c.AddEntry(ctx, "u1", entry("p1", "a1", time.Hour)))

	n, err := c.Count(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	resp, err := c.Feed(ctx, "u1", FeedRequest{Limit: 10})
	require.NoError(t, err)
	require.Len(t, resp.Entries, 2)
	assert.Equal(t, "p2", resp.Entries[0].PostID, "newest entry first")
}

func TestFeedBound(t *testing.T) {
	ctx := context.Background()
	store := memkv.New()
	sys := actor.NewSystem(store, 0)
	sys.Register(Namespace, NewBehavior(store, 5))
	c := NewClient(sys)
	require.NoError(t, c.Initialize(ctx, "u1"))

	for i := 0; i < 8; i++ {
		require.NoError(t, c.AddEntry(ctx, "u1", entry(fmt.Sprintf("p%d", i), "a1", 0)))
	}
	n, err := c.Count(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 5, n, "tail truncated at the cap")

	resp, err := c.Feed(ctx, "u1", FeedRequest{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, "p7", resp.Entries[0].PostID, "newest entries survive truncation")
}

func TestRemoveEntry(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestFeed(t)
	require.NoError(t, c.Initialize(ctx, "u1"))
	require.NoError(t, c.AddEntry(ctx, "u1", entry("p1", "a1", 0)))

	require.NoError(t, c.RemoveEntry(ctx, "u1", "p1"))
	require.NoError(t, c.RemoveEntry(ctx, "u1", "p1"), "idempotent")

	n, err := c.Count(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestAddEntryLazilyCreatesFeed(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestFeed(t)

	require.NoError(t, c.AddEntry(ctx, "ghost", entry("p1", "a1", 0)))
	n, err := c.Count(ctx, "ghost")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRemoveEntryOnAbsentFeedIsNoOp(t *testing.T) {
	c, _ := newTestFeed(t)
	assert.NoError(t, c.RemoveEntry(context.Background(), "ghost", "p1"))
}

func TestBlockedAuthorsFiltered(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestFeed(t)
	require.NoError(t, c.Initialize(ctx, "u1"))
	require.NoError(t, c.AddEntry(ctx, "u1", entry("p1", "bad", 0)))
	require.NoError(t, c.AddEntry(ctx, "u1", entry("p2", "good", 0)))

	resp, err := c.Feed(ctx, "u1", FeedRequest{Limit: 10, Blocked: []string{"bad"}})
	require.NoError(t, err)
	require.Len(t, resp.Entries, 1)
	assert.Equal(t, "p2", resp.Entries[0].PostID)
}

func TestMutedWordFiltering(t *testing.T) {
	ctx := context.Background()
	c, store := newTestFeed(t)
	require.NoError(t, c.Initialize(ctx, "u1"))

	putPost(t, store, "p1", "a1", "totally fine post")
	putPost(t, store, "p2", "a1", "this is SPAM content")
	require.NoError(t, c.AddEntry(ctx, "u1", entry("p1", "a1", time.Hour)))
	require.NoError(t, c.AddEntry(ctx, "u1", entry("p2", "a1", 0)))

	resp, err := c.Feed(ctx, "u1", FeedRequest{
		Limit: 10,
		Muted: []users.MutedWord{{Word: "spam", Scope: users.ScopeAll}},
	})
	require.NoError(t, err)
	require.Len(t, resp.Entries, 1)
	assert.Equal(t, "p1", resp.Entries[0].PostID)
}

func TestNotFollowingScope(t *testing.T) {
	ctx := context.Background()
	c, store := newTestFeed(t)
	require.NoError(t, c.Initialize(ctx, "u1"))

	putPost(t, store, "p1", "followed", "crypto news")
	putPost(t, store, "p2", "stranger", "crypto news")
	require.NoError(t, c.AddEntry(ctx, "u1", entry("p1", "followed", time.Hour)))
	require.NoError(t, c.AddEntry(ctx, "u1", entry("p2", "stranger", 0)))

	resp, err := c.Feed(ctx, "u1", FeedRequest{
		Limit:     10,
		Muted:     []users.MutedWord{{Word: "crypto", Scope: users.ScopeNotFollowing}},
		Following: []string{"followed"},
	})
	require.NoError(t, err)
	require.Len(t, resp.Entries, 1)
	assert.Equal(t, "p1", resp.Entries[0].PostID, "scope only filters non-followed authors")
}

func TestMissingPostDroppedWhenFiltering(t *testing.T) {
	ctx := context.Background()
	c, store := newTestFeed(t)
	require.NoError(t, c.Initialize(ctx, "u1"))

	putPost(t, store, "p1", "a1", "hello")
	require.NoError(t, c.AddEntry(ctx, "u1", entry("p1", "a1", time.Hour)))
	require.NoError(t, c.AddEntry(ctx, "u1", entry("p-gone", "a1", 0)))

	resp, err := c.Feed(ctx, "u1", FeedRequest{
		Limit: 10,
		Muted: []users.MutedWord{{Word: "unrelated", Scope: users.ScopeAll}},
	})
	require.NoError(t, err)
	require.Len(t, resp.Entries, 1, "entries with unreadable posts are dropped")
	_ = store
}

func TestCursorPagination(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestFeed(t)
	require.NoError(t, c.Initialize(ctx, "u1"))
	for i := 0; i < 7; i++ {
		require.NoError(t, c.AddEntry(ctx, "u1", entry(fmt.Sprintf("p%d", i), "a1", time.Duration(7-i)*time.Minute)))
	}

	var got []string
	cursor := ""
	for {
		resp, err := c.Feed(ctx, "u1", FeedRequest{Limit: 3, Cursor: cursor})
		require.NoError(t, err)
		for _, e := range resp.Entries {
			got = append(got, e.PostID)
		}
		if !resp.HasMore {
			break
		}
		require.NotEmpty(t, resp.Cursor)
		cursor = resp.Cursor
	}
	assert.Equal(t, []string{"p6", "p5", "p4", "p3", "p2", "p1", "p0"}, got)
}

func TestMalformedCursorRejected(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestFeed(t)
	require.NoError(t, c.Initialize(ctx, "u1"))

	_, err := c.Feed(ctx, "u1", FeedRequest{Limit: 3, Cursor: "!!!"})
	assert.ErrorContains(t, err, "cursor")
}

func TestFeedWithPostsJoins(t *testing.T) {
	ctx := context.Background()
	c, store := newTestFeed(t)
	require.NoError(t, c.Initialize(ctx, "u1"))

	putPost(t, store, "p1", "a1", "hello world")
	require.NoError(t, c.AddEntry(ctx, "u1", entry("p1", "a1", 0)))

	resp, err := c.FeedWithPosts(ctx, "u1", FeedRequest{Limit: 10})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(resp.Items[0].Post, &rec))
	assert.Equal(t, "hello world", rec["content"])
}

func TestPrune(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestFeed(t)
	require.NoError(t, c.Initialize(ctx, "u1"))

	require.NoError(t, c.AddEntry(ctx, "u1", entry("old", "a1", 10*24*time.Hour)))
	require.NoError(t, c.AddEntry(ctx, "u1", entry("new", "a1", time.Hour)))

	removed, err := c.Prune(ctx, "u1", PruneRequest{Before: time.Now().Add(-7 * 24 * time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	n, err := c.Count(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
