// Package queue defines the at-least-once FIFO message channel used by the
// fan-out pipeline. Consumers must be idempotent: a message may be delivered
// more than once, and ordering across producers is best-effort.
package queue

import (
	"context"
	"errors"
)

// ErrClosed is returned once a queue has been shut down.
var ErrClosed = errors.New("queue: closed")

// Delivery is a single received message. Exactly one of Ack or Retry must be
// called; Retry requeues the message for redelivery.
type Delivery struct {
	Data []byte

	ackFn   func() error
	retryFn func() error
}

// Ack marks the message as processed.
func (d *Delivery) Ack() error {
	if d.ackFn == nil {
		return nil
	}
	return d.ackFn()
}

// Retry returns the message to the queue for redelivery.
func (d *Delivery) Retry() error {
	if d.retryFn == nil {
		return nil
	}
	return d.retryFn()
}

// NewDelivery builds a Delivery with backend-specific ack and retry hooks.
// Either hook may be nil.
func NewDelivery(data []byte, ack, retry func() error) *Delivery {
	return &Delivery{Data: data, ackFn: ack, retryFn: retry}
}

// Queue is an at-least-once message channel.
type Queue interface {
	// Send enqueues one message.
	Send(ctx context.Context, data []byte) error

	// Fetch blocks until at least one message is available or the context
	// is done, returning up to maxBatch deliveries.
	Fetch(ctx context.Context, maxBatch int) ([]*Delivery, error)

	// Close releases the queue's resources.
	Close() error
}
