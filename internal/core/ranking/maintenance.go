package ranking

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"Wire/internal/core/feeds"
	"Wire/internal/core/posts"
	"Wire/internal/kv"
)

const maintenanceScanBatch = 100

// Maintainer runs the scheduled retention passes: hourly feed pruning and
// daily KV compaction.
type Maintainer struct {
	store         kv.Store
	feeds         *feeds.Client
	feedRetention time.Duration
	postRetention time.Duration
}

// NewMaintainer creates the maintenance runner. Retentions fall back to
// 7 days for feed entries and 30 days for deleted posts.
func NewMaintainer(store kv.Store, feedActors *feeds.Client, feedRetention, postRetention time.Duration) *Maintainer {
	if feedRetention <= 0 {
		feedRetention = 7 * 24 * time.Hour
	}
	if postRetention <= 0 {
		postRetention = 30 * 24 * time.Hour
	}
	return &Maintainer{
		store:         store,
		feeds:         feedActors,
		feedRetention: feedRetention,
		postRetention: postRetention,
	}
}

// PruneFeeds walks every feed actor and drops entries past the feed
// retention. Returns the total number of entries removed.
func (m *Maintainer) PruneFeeds(ctx context.Context, now time.Time) (int, error) {
	prefix := kv.ActorKey(feeds.Namespace, "")
	before := now.Add(-m.feedRetention)
	total := 0
	cursor := ""
	for {
		keys, next, done, err := m.store.List(ctx, prefix, maintenanceScanBatch, cursor)
		if err != nil {
			return total, fmt.Errorf("feed scan failed: %w", err)
		}
		for _, key := range keys {
			userID := strings.TrimPrefix(key, prefix)
			removed, err := m.feeds.Prune(ctx, userID, feeds.PruneRequest{Before: before})
			if err != nil {
				slog.Warn("feed prune failed", "user", userID, "error", err)
				continue
			}
			total += removed
		}
		if done {
			break
		}
		cursor = next
	}
	if total > 0 {
		slog.Info("feed entries pruned", "removed", total)
	}
	return total, nil
}

// CompactPosts hard-deletes post records (and their actor state) that have
// been soft-deleted or taken down for longer than the post retention, then
// sweeps expired KV entries if the backend needs it. Returns the number of
// post records removed.
func (m *Maintainer) CompactPosts(ctx context.Context, now time.Time) (int, error) {
	cutoff := now.Add(-m.postRetention)
	removed := 0
	cursor := ""
	for {
		keys, next, done, err := m.store.List(ctx, kv.PrefixPost, maintenanceScanBatch, cursor)
		if err != nil {
			return removed, fmt.Errorf("post scan failed: %w", err)
		}
		for _, key := range keys {
			blob, err := m.store.Get(ctx, key)
			if err != nil {
				continue
			}
			var rec posts.Post
			if err := json.Unmarshal(blob, &rec); err != nil {
				continue
			}
			if !compactable(&rec, cutoff) {
				continue
			}
			if err := m.store.Delete(ctx, key); err != nil {
				slog.Warn("post compaction delete failed", "key", key, "error", err)
				continue
			}
			if err := m.store.Delete(ctx, kv.ActorKey(posts.Namespace, rec.ID)); err != nil {
				slog.Warn("post actor state delete failed", "post", rec.ID, "error", err)
			}
			removed++
		}
		if done {
			break
		}
		cursor = next
	}

	if sweeper, ok := m.store.(kv.Sweeper); ok {
		swept, err := sweeper.SweepExpired(ctx, now)
		if err != nil {
			slog.Warn("expired entry sweep failed", "error", err)
		} else if swept > 0 {
			slog.Info("expired entries swept", "removed", swept)
		}
	}
	if removed > 0 {
		slog.Info("post records compacted", "removed", removed)
	}
	return removed, nil
}

func compactable(rec *posts.Post, cutoff time.Time) bool {
	if rec.IsDeleted && rec.DeletedAt != nil && rec.DeletedAt.Before(cutoff) {
		return true
	}
	if rec.IsTakenDown && rec.TakenDownAt != nil && rec.TakenDownAt.Before(cutoff) {
		return true
	}
	return false
}
