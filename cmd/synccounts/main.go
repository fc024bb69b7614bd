// Command synccounts rebuilds denormalized counters offline: every
// UserActor recomputes its follower/following counts from set
// cardinalities, and every cached post record is rewritten from its
// PostActor's authoritative counts. Run it after incidents that left
// partial writes behind; every operation is idempotent.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"Wire/internal/actor"
	"Wire/internal/config"
	"Wire/internal/core/feeds"
	"Wire/internal/core/posts"
	"Wire/internal/core/users"
	postgresdb "Wire/internal/db/postgres"
	"Wire/internal/kv"
	"Wire/internal/kv/rediskv"
)

const scanBatch = 200

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	store, closeStore, err := openStore(cfg)
	if err != nil {
		slog.Error("failed to open kv store", "backend", cfg.KVBackend, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	sys := actor.NewSystem(store, 0)
	sys.Register(users.Namespace, users.NewBehavior())
	sys.Register(feeds.Namespace, feeds.NewBehavior(store, cfg.MaxFeedEntries))
	sys.Register(posts.Namespace, posts.NewBehavior())

	ctx := context.Background()
	synced, err := syncUsers(ctx, store, users.NewClient(sys))
	if err != nil {
		slog.Error("user sync failed", "error", err)
		os.Exit(1)
	}
	patched, err := syncPosts(ctx, store, posts.NewClient(sys))
	if err != nil {
		slog.Error("post sync failed", "error", err)
		os.Exit(1)
	}
	fmt.Printf("synced %d users, patched %d post records\n", synced, patched)
}

// syncUsers walks every user actor and recomputes its counters.
func syncUsers(ctx context.Context, store kv.Store, userActors *users.Client) (int, error) {
	prefix := kv.ActorKey(users.Namespace, "")
	synced := 0
	cursor := ""
	for {
		keys, next, done, err := store.List(ctx, prefix, scanBatch, cursor)
		if err != nil {
			return synced, err
		}
		for _, key := range keys {
			userID := strings.TrimPrefix(key, prefix)
			if _, err := userActors.SyncCounts(ctx, userID); err != nil {
				slog.Warn("sync-counts failed", "user", userID, "error", err)
				continue
			}
			synced++
		}
		if done {
			return synced, nil
		}
		cursor = next
	}
}

// syncPosts overwrites every cached post record's counters with the
// PostActor's authoritative values.
func syncPosts(ctx context.Context, store kv.Store, postActors *posts.Client) (int, error) {
	patched := 0
	cursor := ""
	for {
		keys, next, done, err := store.List(ctx, kv.PrefixPost, scanBatch, cursor)
		if err != nil {
			return patched, err
		}
		for _, key := range keys {
			postID := strings.TrimPrefix(key, kv.PrefixPost)
			blob, err := store.Get(ctx, key)
			if err != nil {
				continue
			}
			var rec posts.Post
			if err := json.Unmarshal(blob, &rec); err != nil {
				slog.Warn("malformed post record", "post", postID, "error", err)
				continue
			}
			state, err := postActors.Get(ctx, postID)
			if err != nil {
				// No actor state; the cached counters are all we have.
				continue
			}
			rec.LikeCount = state.LikeCount
			rec.ReplyCount = state.ReplyCount
			rec.RepostCount = state.RepostCount
			rec.QuoteCount = state.QuoteCount
			out, err := json.Marshal(&rec)
			if err != nil {
				continue
			}
			if err := store.Put(ctx, key, out, 0); err != nil {
				slog.Warn("failed to rewrite post record", "post", postID, "error", err)
				continue
			}
			patched++
		}
		if done {
			return patched, nil
		}
		cursor = next
	}
}

func openStore(cfg *config.Config) (kv.Store, func(), error) {
	switch cfg.KVBackend {
	case "postgres":
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Ping(); err != nil {
			return nil, nil, fmt.Errorf("ping: %w", err)
		}
		return postgresdb.NewKVStore(db), func() { _ = db.Close() }, nil
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(context.Background()).Err(); err != nil {
			return nil, nil, fmt.Errorf("ping: %w", err)
		}
		return rediskv.New(client), func() { _ = client.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported kv backend %q", cfg.KVBackend)
	}
}
