package ranking

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"Wire/internal/core/posts"
	"Wire/internal/kv"
)

// Scan and output bounds. The scan cursor survives between runs, so a small
// per-run budget still covers the whole post space over successive runs.
const (
	DefaultScanBatch   = 40
	DefaultScanBatches = 2
	TopFofEntries      = 100
)

// RankedPost is the compact fof:ranked entry.
type RankedPost struct {
	PostID   string  `json:"postId"`
	Score    float64 `json:"score"`
	AuthorID string  `json:"authorId"`
}

// ScoredPost is the explore:ranked entry: a full post snapshot with its
// score.
type ScoredPost struct {
	posts.Post
	Score float64 `json:"score"`
}

// Ranker periodically rebuilds the discovery rankings from KV post records.
type Ranker struct {
	store      kv.Store
	params     Params
	scanBatch  int
	batches    int
	maxEntries int
	ttl        time.Duration

	cursor    string
	snapshots map[string]posts.Post
}

// NewRanker creates a ranker. maxEntries caps explore:ranked; ttl is the
// blob lifetime (rankings expire rather than go stale).
func NewRanker(store kv.Store, params Params, maxEntries int, ttl time.Duration) *Ranker {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Ranker{
		store:      store,
		params:     params,
		scanBatch:  DefaultScanBatch,
		batches:    DefaultScanBatches,
		maxEntries: maxEntries,
		ttl:        ttl,
		snapshots:  make(map[string]posts.Post),
	}
}

// Run scans a bounded slice of the post space, refreshes the accumulated
// snapshots, and rewrites both ranking blobs. Not safe for concurrent runs.
func (r *Ranker) Run(ctx context.Context, now time.Time) error {
	if err := r.scan(ctx); err != nil {
		return err
	}

	scored := make([]ScoredPost, 0, len(r.snapshots))
	for _, p := range r.snapshots {
		p := p
		scored = append(scored, ScoredPost{
			Post:  p,
			Score: r.params.Score(p.LikeCount, p.ReplyCount, p.RepostCount, now.Sub(p.CreatedAt)),
		})
	}
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].CreatedAt.After(scored[j].CreatedAt)
	})

	ranked := Diversify(scored, func(p ScoredPost) string { return p.AuthorID }, 5, 2, r.maxEntries)

	if err := r.writeBlob(ctx, kv.KeyExploreRanked, ranked); err != nil {
		return err
	}
	compact := make([]RankedPost, 0, TopFofEntries)
	for _, p := range ranked {
		compact = append(compact, RankedPost{PostID: p.ID, Score: p.Score, AuthorID: p.AuthorID})
		if len(compact) == TopFofEntries {
			break
		}
	}
	if err := r.writeBlob(ctx, kv.KeyFofRanked, compact); err != nil {
		return err
	}
	slog.Info("rankings rebuilt", "candidates", len(scored), "ranked", len(ranked))
	return nil
}

// scan advances the persistent cursor over post: keys, refreshing snapshots
// for the visited records and dropping invisible ones.
func (r *Ranker) scan(ctx context.Context) error {
	for i := 0; i < r.batches; i++ {
		keys, next, done, err := r.store.List(ctx, kv.PrefixPost, r.scanBatch, r.cursor)
		if err != nil {
			return fmt.Errorf("post scan failed: %w", err)
		}
		for _, key := range keys {
			blob, err := r.store.Get(ctx, key)
			if err != nil {
				continue
			}
			var rec posts.Post
			if err := json.Unmarshal(blob, &rec); err != nil {
				slog.Warn("skipping malformed post record", "key", key, "error", err)
				continue
			}
			if !rec.Visible() {
				delete(r.snapshots, rec.ID)
				continue
			}
			rec.OriginalPost = nil
			r.snapshots[rec.ID] = rec
		}
		r.cursor = next
		if done {
			r.cursor = ""
			break
		}
	}
	return nil
}

func (r *Ranker) writeBlob(ctx context.Context, key string, v any) error {
	blob, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := r.store.Put(ctx, key, blob, r.ttl); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}
