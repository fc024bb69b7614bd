// Package fanout delivers new and deleted posts to follower timelines. It
// consumes the post event queue and writes to FeedActors; because add-entry
// and remove-entry are idempotent, at-least-once delivery is safe.
package fanout

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"Wire/internal/core/feeds"
	"Wire/internal/core/posts"
	"Wire/internal/core/users"
	"Wire/internal/queue"
)

// DefaultCallRate caps actor calls per second across all messages.
const DefaultCallRate = 2000

// Worker consumes fan-out events and routes them to follower feeds.
type Worker struct {
	queue       queue.Queue
	users       *users.Client
	feeds       *feeds.Client
	batchSize   int
	concurrency int
	limiter     *rate.Limiter
}

// NewWorker creates a fan-out worker. batchSize and concurrency fall back to
// 32; callRate (actor calls per second) falls back to DefaultCallRate.
func NewWorker(q queue.Queue, userActors *users.Client, feedActors *feeds.Client, batchSize, concurrency int, callRate float64) *Worker {
	if batchSize <= 0 {
		batchSize = 32
	}
	if concurrency <= 0 {
		concurrency = 32
	}
	if callRate <= 0 {
		callRate = DefaultCallRate
	}
	return &Worker{
		queue:       q,
		users:       userActors,
		feeds:       feedActors,
		batchSize:   batchSize,
		concurrency: concurrency,
		limiter:     rate.NewLimiter(rate.Limit(callRate), int(callRate)),
	}
}

// Run consumes the queue until the context is cancelled or the queue closes.
func (w *Worker) Run(ctx context.Context) error {
	for {
		batch, err := w.queue.Fetch(ctx, w.batchSize)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, queue.ErrClosed) {
				return nil
			}
			slog.Error("fan-out fetch failed", "error", err)
			continue
		}
		for _, d := range batch {
			w.process(ctx, d)
		}
	}
}

// process handles one delivery. Transient failures retry the whole message;
// the idempotent feed writes make redelivery harmless.
func (w *Worker) process(ctx context.Context, d *queue.Delivery) {
	ev, err := posts.DecodeEvent(d.Data)
	if err != nil {
		// Malformed messages never succeed; drop instead of poisoning
		// the queue.
		slog.Error("dropping malformed fan-out event", "error", err)
		w.ack(d)
		return
	}

	followers, err := w.users.Followers(ctx, ev.AuthorID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			w.ack(d)
			return
		}
		slog.Warn("follower lookup failed, retrying", "author", ev.AuthorID, "error", err)
		w.retry(d)
		return
	}

	var failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)
	for _, followerID := range followers {
		followerID := followerID
		g.Go(func() error {
			if err := w.limiter.Wait(gctx); err != nil {
				failed.Add(1)
				return nil
			}
			if err := w.deliver(gctx, ev, followerID); err != nil {
				failed.Add(1)
				slog.Warn("feed delivery failed", "follower", followerID, "post", ev.PostID, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()

	if failed.Load() > 0 {
		w.retry(d)
		return
	}
	w.ack(d)
}

func (w *Worker) deliver(ctx context.Context, ev posts.Event, followerID string) error {
	switch ev.Type {
	case posts.EventNewPost:
		return w.feeds.AddEntry(ctx, followerID, feeds.Entry{
			PostID:    ev.PostID,
			AuthorID:  ev.AuthorID,
			Timestamp: ev.Timestamp,
			Source:    feeds.SourceFollow,
		})
	case posts.EventDeletePost:
		return w.feeds.RemoveEntry(ctx, followerID, ev.PostID)
	default:
		slog.Error("unknown fan-out event type", "type", ev.Type)
		return nil
	}
}

func (w *Worker) ack(d *queue.Delivery) {
	if err := d.Ack(); err != nil {
		slog.Warn("fan-out ack failed", "error", err)
	}
}

func (w *Worker) retry(d *queue.Delivery) {
	if err := d.Retry(); err != nil {
		slog.Warn("fan-out retry failed", "error", err)
	}
}
