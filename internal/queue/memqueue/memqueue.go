// Package memqueue is an in-process queue.Queue for tests and single-node
// development. Retry pushes the message back, so delivery is at-least-once
// like the production backend.
package memqueue

import (
	"context"
	"sync"

	"Wire/internal/queue"
)

// Queue buffers messages on a channel.
type Queue struct {
	ch     chan []byte
	once   sync.Once
	closed chan struct{}
}

// New creates a queue with the given buffer capacity.
func New(capacity int) *Queue {
	if capacity <= 0 {
		capacity = 1024
	}
	return &Queue{
		ch:     make(chan []byte, capacity),
		closed: make(chan struct{}),
	}
}

func (q *Queue) Send(ctx context.Context, data []byte) error {
	msg := make([]byte, len(data))
	copy(msg, data)
	select {
	case <-q.closed:
		return queue.ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	case q.ch <- msg:
		return nil
	}
}

func (q *Queue) Fetch(ctx context.Context, maxBatch int) ([]*queue.Delivery, error) {
	if maxBatch <= 0 {
		maxBatch = 1
	}

	// Block for the first message, then drain whatever else is ready.
	var first []byte
	select {
	case <-q.closed:
		return nil, queue.ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	case first = <-q.ch:
	}

	batch := []*queue.Delivery{q.delivery(first)}
	for len(batch) < maxBatch {
		select {
		case msg := <-q.ch:
			batch = append(batch, q.delivery(msg))
		default:
			return batch, nil
		}
	}
	return batch, nil
}

func (q *Queue) delivery(data []byte) *queue.Delivery {
	return queue.NewDelivery(data, nil, func() error {
		select {
		case <-q.closed:
			return queue.ErrClosed
		case q.ch <- data:
			return nil
		}
	})
}

// Len reports the number of buffered messages. Test helper.
func (q *Queue) Len() int { return len(q.ch) }

func (q *Queue) Close() error {
	q.once.Do(func() { close(q.closed) })
	return nil
}
