package ranking

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Wire/internal/actor"
	"Wire/internal/core/feeds"
	"Wire/internal/core/posts"
	"Wire/internal/kv"
	"Wire/internal/kv/memkv"
)

func TestScoreOrdering(t *testing.T) {
	p := DefaultParams()

	// Equal counts: the newer post scores higher.
	newer := p.Score(5, 0, 0, time.Hour)
	older := p.Score(5, 0, 0, 10*time.Hour)
	assert.Greater(t, newer, older)

	// Equal age: more engagement scores higher.
	busy := p.Score(10, 2, 1, 2*time.Hour)
	quiet := p.Score(3, 0, 0, 2*time.Hour)
	assert.Greater(t, busy, quiet)

	// Replies carry ten times a like's weight.
	replied := p.Score(0, 1, 0, time.Hour)
	liked := p.Score(1, 0, 0, time.Hour)
	assert.InDelta(t, 10.0, replied/liked, 0.001)
}

func TestScoreNegativeAgeClamped(t *testing.T) {
	p := DefaultParams()
	future := p.Score(1, 0, 0, -time.Hour)
	now := p.Score(1, 0, 0, 0)
	assert.Equal(t, now, future)
}

func TestDiversifyWindowCap(t *testing.T) {
	type item struct{ author string }
	items := make([]item, 0, 12)
	// Ten consecutive posts by one author, two by others.
	for i := 0; i < 10; i++ {
		items = append(items, item{author: "a"})
	}
	items = append(items, item{author: "b"}, item{author: "c"})

	out := Diversify(items, func(i item) string { return i.author }, 5, 2, 0)
	require.Len(t, out, 12)

	// Every 5-window holds at most 2 of the same author until the
	// progress guarantee has nothing else left to admit.
	sawOther := false
	for i := 0; i+5 <= len(out); i++ {
		counts := map[string]int{}
		for _, it := range out[i : i+5] {
			counts[it.author]++
		}
		if counts["b"]+counts["c"] > 0 {
			sawOther = true
		}
		if i < 2 {
			assert.LessOrEqual(t, counts["a"], 4, "others interleaved early")
		}
	}
	assert.True(t, sawOther)
}

func TestDiversifyProgressGuarantee(t *testing.T) {
	type item struct{ author string }
	items := []item{{"a"}, {"a"}, {"a"}, {"a"}}
	out := Diversify(items, func(i item) string { return i.author }, 5, 2, 0)
	assert.Len(t, out, 4, "single-author input still fully admitted")
}

func TestDiversifyBound(t *testing.T) {
	type item struct{ author string }
	items := []item{{"a"}, {"b"}, {"c"}, {"d"}}
	out := Diversify(items, func(i item) string { return i.author }, 5, 2, 2)
	assert.Len(t, out, 2)
	assert.Equal(t, "a", out[0].author, "highest-ranked kept first")
}

func putPost(t *testing.T, store kv.Store, p posts.Post) {
	t.Helper()
	blob, err := json.Marshal(p)
	require.NoError(t, err)
	require.NoError(t, store.Put(context.Background(), kv.PostKey(p.ID), blob, 0))
}

func TestRankerWritesBlobs(t *testing.T) {
	ctx := context.Background()
	store := memkv.New()
	now := time.Now().UTC()

	putPost(t, store, posts.Post{ID: "hot", AuthorID: "a1", Content: "x", CreatedAt: now.Add(-time.Hour), LikeCount: 50, ReplyCount: 5})
	putPost(t, store, posts.Post{ID: "cold", AuthorID: "a2", Content: "y", CreatedAt: now.Add(-48 * time.Hour), LikeCount: 1})
	deleted := now.Add(-2 * time.Hour)
	putPost(t, store, posts.Post{ID: "gone", AuthorID: "a3", Content: "z", CreatedAt: now.Add(-time.Hour), IsDeleted: true, DeletedAt: &deleted})

	r := NewRanker(store, DefaultParams(), 1000, 15*time.Minute)
	require.NoError(t, r.Run(ctx, now))

	blob, err := store.Get(ctx, kv.KeyExploreRanked)
	require.NoError(t, err)
	var explore []ScoredPost
	require.NoError(t, json.Unmarshal(blob, &explore))
	require.Len(t, explore, 2, "deleted posts excluded")
	assert.Equal(t, "hot", explore[0].ID)
	assert.Greater(t, explore[0].Score, explore[1].Score)

	blob, err = store.Get(ctx, kv.KeyFofRanked)
	require.NoError(t, err)
	var fof []RankedPost
	require.NoError(t, json.Unmarshal(blob, &fof))
	require.Len(t, fof, 2)
	assert.Equal(t, "hot", fof[0].PostID)
	assert.Equal(t, "a1", fof[0].AuthorID)
}

func TestRankerCursorCoversAllPostsAcrossRuns(t *testing.T) {
	ctx := context.Background()
	store := memkv.New()
	now := time.Now().UTC()

	// More posts than one run's scan budget.
	total := DefaultScanBatch*DefaultScanBatches + 10
	for i := 0; i < total; i++ {
		putPost(t, store, posts.Post{
			ID:        fmt.Sprintf("p%03d", i),
			AuthorID:  fmt.Sprintf("a%d", i%7),
			Content:   "x",
			CreatedAt: now.Add(-time.Duration(i) * time.Minute),
			LikeCount: i,
		})
	}

	r := NewRanker(store, DefaultParams(), 1000, 15*time.Minute)
	require.NoError(t, r.Run(ctx, now))
	require.NoError(t, r.Run(ctx, now))

	blob, err := store.Get(ctx, kv.KeyExploreRanked)
	require.NoError(t, err)
	var explore []ScoredPost
	require.NoError(t, json.Unmarshal(blob, &explore))
	assert.Equal(t, total, len(explore), "second run picks up the unscanned tail")
}

func TestPruneFeeds(t *testing.T) {
	ctx := context.Background()
	store := memkv.New()
	sys := actor.NewSystem(store, 0)
	sys.Register(feeds.Namespace, feeds.NewBehavior(store, 0))
	fc := feeds.NewClient(sys)

	now := time.Now().UTC()
	require.NoError(t, fc.Initialize(ctx, "u1"))
	require.NoError(t, fc.AddEntry(ctx, "u1", feeds.Entry{PostID: "old", AuthorID: "a", Timestamp: now.Add(-10 * 24 * time.Hour)}))
	require.NoError(t, fc.AddEntry(ctx, "u1", feeds.Entry{PostID: "new", AuthorID: "a", Timestamp: now.Add(-time.Hour)}))

	m := NewMaintainer(store, fc, 7*24*time.Hour, 30*24*time.Hour)
	removed, err := m.PruneFeeds(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	n, err := fc.Count(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCompactPosts(t *testing.T) {
	ctx := context.Background()
	store := memkv.New()
	now := time.Now().UTC()

	oldDelete := now.Add(-40 * 24 * time.Hour)
	recentDelete := now.Add(-24 * time.Hour)
	putPost(t, store, posts.Post{ID: "stale", AuthorID: "a", IsDeleted: true, DeletedAt: &oldDelete})
	putPost(t, store, posts.Post{ID: "fresh", AuthorID: "a", IsDeleted: true, DeletedAt: &recentDelete})
	putPost(t, store, posts.Post{ID: "live", AuthorID: "a", Content: "x", CreatedAt: now})
	require.NoError(t, store.Put(ctx, kv.ActorKey(posts.Namespace, "stale"), []byte("{}"), 0))

	m := NewMaintainer(store, nil, 0, 0)
	removed, err := m.CompactPosts(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = store.Get(ctx, kv.PostKey("stale"))
	assert.ErrorIs(t, err, kv.ErrNotFound)
	_, err = store.Get(ctx, kv.ActorKey(posts.Namespace, "stale"))
	assert.ErrorIs(t, err, kv.ErrNotFound)
	_, err = store.Get(ctx, kv.PostKey("fresh"))
	assert.NoError(t, err)
	_, err = store.Get(ctx, kv.PostKey("live"))
	assert.NoError(t, err)
}
