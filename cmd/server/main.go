package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"Wire/internal/actor"
	"Wire/internal/api/routes"
	"Wire/internal/config"
	"Wire/internal/core/auth"
	"Wire/internal/core/fanout"
	"Wire/internal/core/feeds"
	"Wire/internal/core/ids"
	"Wire/internal/core/posts"
	"Wire/internal/core/ranking"
	"Wire/internal/core/timeline"
	"Wire/internal/core/users"
	postgresdb "Wire/internal/db/postgres"
	"Wire/internal/kv"
	"Wire/internal/kv/memkv"
	"Wire/internal/kv/rediskv"
	"Wire/internal/queue"
	"Wire/internal/queue/memqueue"
	"Wire/internal/queue/natsqueue"
)

// maxResidentActors bounds the in-memory actor pool; idle actors beyond it
// are evicted and rehydrated from the KV store on next call.
const maxResidentActors = 4096

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

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

	q, err := openQueue(cfg)
	if err != nil {
		slog.Error("failed to open queue", "backend", cfg.QueueBackend, "error", err)
		os.Exit(1)
	}
	defer q.Close()

	gen, err := ids.NewGenerator(cfg.NodeID)
	if err != nil {
		slog.Error("failed to create id generator", "error", err)
		os.Exit(1)
	}

	sys := actor.NewSystem(store, maxResidentActors)
	sys.Register(users.Namespace, users.NewBehavior())
	sys.Register(feeds.Namespace, feeds.NewBehavior(store, cfg.MaxFeedEntries))
	sys.Register(posts.Namespace, posts.NewBehavior())

	params := ranking.Params{
		Exp:        cfg.Scoring.Exp,
		BaseOffset: cfg.Scoring.BaseOffset,
		LikeW:      cfg.Scoring.LikeW,
		ReplyW:     cfg.Scoring.ReplyW,
		RepostW:    cfg.Scoring.RepostW,
	}

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	userSvc := users.NewService(users.NewClient(sys), store, cfg.CacheTTL.Profile)
	feedActors := feeds.NewClient(sys)
	postSvc := posts.NewService(posts.NewClient(sys), userSvc.Actors(), feedActors, store, q, gen,
		nil, nil, cfg.MaxNoteLength, cfg.MaxThreadDepth)
	authSvc := auth.NewService(userSvc, postSvc, feedActors, store, tokens, gen,
		auth.NopMailer{}, cfg.InitialAdminHandle, cfg.SeedUserHandles)
	timelineSvc := timeline.NewService(userSvc.Actors(), feedActors, postSvc, store, params,
		cfg.DefaultFeedPage, cfg.MaxPaginationLimit)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	worker := fanout.NewWorker(q, userSvc.Actors(), feedActors,
		cfg.FanoutBatchSize, cfg.FanoutConcurrency, fanout.DefaultCallRate)
	go func() {
		if err := worker.Run(ctx); err != nil {
			slog.Error("fanout worker stopped", "error", err)
		}
	}()

	jobs := startJobs(store, feedActors, params, cfg)
	defer jobs.Stop()

	handler := routes.New(routes.Deps{
		Config:   cfg,
		Store:    store,
		Tokens:   tokens,
		Auth:     authSvc,
		Users:    userSvc,
		Posts:    postSvc,
		Timeline: timelineSvc,
	})
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("server listening", "port", cfg.Port, "kv", cfg.KVBackend, "queue", cfg.QueueBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown incomplete", "error", err)
	}
}

// startJobs schedules the ranker and the retention sweeps.
func startJobs(store kv.Store, feedActors *feeds.Client, params ranking.Params, cfg *config.Config) *cron.Cron {
	ranker := ranking.NewRanker(store, params, cfg.MaxFeedEntries, cfg.CacheTTL.FofRankings)
	maintainer := ranking.NewMaintainer(store, feedActors, cfg.Retention.FeedEntries, cfg.Retention.DeletedPosts)

	c := cron.New()
	mustSchedule(c, "*/15 * * * *", func() {
		if err := ranker.Run(context.Background(), time.Now().UTC()); err != nil {
			slog.Error("ranking run failed", "error", err)
		}
	})
	mustSchedule(c, "0 * * * *", func() {
		pruned, err := maintainer.PruneFeeds(context.Background(), time.Now().UTC())
		if err != nil {
			slog.Error("feed prune failed", "error", err)
			return
		}
		slog.Info("feed prune complete", "entries", pruned)
	})
	mustSchedule(c, "0 0 * * *", func() {
		compacted, err := maintainer.CompactPosts(context.Background(), time.Now().UTC())
		if err != nil {
			slog.Error("post compaction failed", "error", err)
			return
		}
		slog.Info("post compaction complete", "records", compacted)
	})
	c.Start()
	return c
}

func mustSchedule(c *cron.Cron, spec string, job func()) {
	if _, err := c.AddFunc(spec, job); err != nil {
		panic(fmt.Sprintf("invalid cron spec %q: %v", spec, err))
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
		if err := goose.SetDialect("postgres"); err != nil {
			return nil, nil, err
		}
		if err := goose.Up(db, "internal/db/migrations"); err != nil {
			return nil, nil, fmt.Errorf("migrations: %w", err)
		}
		return postgresdb.NewKVStore(db), func() { _ = db.Close() }, nil
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(context.Background()).Err(); err != nil {
			return nil, nil, fmt.Errorf("ping: %w", err)
		}
		return rediskv.New(client), func() { _ = client.Close() }, nil
	case "memory":
		return memkv.New(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown kv backend %q", cfg.KVBackend)
	}
}

func openQueue(cfg *config.Config) (queue.Queue, error) {
	switch cfg.QueueBackend {
	case "nats":
		return natsqueue.Connect(natsqueue.Config{
			URL:     cfg.NatsURL,
			Stream:  "WIRE_FANOUT",
			Subject: "wire.fanout",
			Durable: "fanout-worker",
		})
	case "memory":
		return memqueue.New(1024), nil
	default:
		return nil, fmt.Errorf("unknown queue backend %q", cfg.QueueBackend)
	}
}
