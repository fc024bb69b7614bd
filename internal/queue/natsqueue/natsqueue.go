// Package natsqueue backs queue.Queue with a NATS JetStream work stream.
// JetStream acking gives at-least-once delivery; unacked or Nak'd messages
// are redelivered.
package natsqueue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"Wire/internal/queue"
)

// Config controls the stream and consumer layout.
type Config struct {
	URL           string
	Stream        string // e.g. "WIRE_FANOUT"
	Subject       string // e.g. "wire.fanout"
	Durable       string // durable consumer name
	MaxReconnects int
	ReconnectWait time.Duration
	FetchWait     time.Duration
}

// Queue is a JetStream-backed queue.Queue.
type Queue struct {
	conn      *nats.Conn
	js        nats.JetStreamContext
	sub       *nats.Subscription
	subject   string
	fetchWait time.Duration
}

// Connect dials NATS, ensures the stream exists, and binds a durable pull
// consumer.
func Connect(cfg Config) (*Queue, error) {
	if cfg.Stream == "" {
		cfg.Stream = "WIRE_FANOUT"
	}
	if cfg.Subject == "" {
		cfg.Subject = "wire.fanout"
	}
	if cfg.Durable == "" {
		cfg.Durable = "fanout-worker"
	}
	if cfg.MaxReconnects == 0 {
		cfg.MaxReconnects = 10
	}
	if cfg.ReconnectWait == 0 {
		cfg.ReconnectWait = 2 * time.Second
	}
	if cfg.FetchWait == 0 {
		cfg.FetchWait = 5 * time.Second
	}

	conn, err := nats.Connect(cfg.URL,
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open JetStream context: %w", err)
	}

	// Idempotent: AddStream returns the existing stream if already created.
	_, err = js.AddStream(&nats.StreamConfig{
		Name:      cfg.Stream,
		Subjects:  []string{cfg.Subject},
		Retention: nats.WorkQueuePolicy,
	})
	if err != nil && !errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
		conn.Close()
		return nil, fmt.Errorf("failed to ensure stream %s: %w", cfg.Stream, err)
	}

	sub, err := js.PullSubscribe(cfg.Subject, cfg.Durable, nats.AckExplicit())
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create pull consumer: %w", err)
	}

	return &Queue{
		conn:      conn,
		js:        js,
		sub:       sub,
		subject:   cfg.Subject,
		fetchWait: cfg.FetchWait,
	}, nil
}

func (q *Queue) Send(ctx context.Context, data []byte) error {
	_, err := q.js.Publish(q.subject, data, nats.Context(ctx))
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", q.subject, err)
	}
	return nil
}

func (q *Queue) Fetch(ctx context.Context, maxBatch int) ([]*queue.Delivery, error) {
	if maxBatch <= 0 {
		maxBatch = 1
	}
	msgs, err := q.sub.Fetch(maxBatch, nats.MaxWait(q.fetchWait))
	if errors.Is(err, nats.ErrTimeout) {
		// No messages within the window; let the caller loop.
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}

	out := make([]*queue.Delivery, 0, len(msgs))
	for _, m := range msgs {
		msg := m
		out = append(out, queue.NewDelivery(msg.Data,
			func() error { return msg.Ack() },
			func() error { return msg.Nak() },
		))
	}
	return out, nil
}

func (q *Queue) Close() error {
	if q.sub != nil {
		_ = q.sub.Drain()
	}
	q.conn.Close()
	return nil
}
