package dispatch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrClosed is returned by Send once either side of the queue is closed.
var ErrClosed = errors.New("queue closed")

// Queue is a bounded single-producer, multi-consumer channel of work items.
// The send side belongs to one producer; any number of consumers may call
// Receive concurrently and each item is handed to exactly one of them.
type Queue[T any] struct {
	items chan T

	sendClosed atomic.Bool
	closeSend  sync.Once

	gone    chan struct{}
	abandon sync.Once
}

// NewQueue creates a queue holding at most capacity buffered items.
// A capacity below 1 is raised to 1, which makes every Send a hand-off to
// the next ready consumer.
func NewQueue[T any](capacity int) *Queue[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue[T]{
		items: make(chan T, capacity),
		gone:  make(chan struct{}),
	}
}

// Send blocks until the item is buffered. It fails with ErrClosed when the
// send side was already closed or the consumers abandoned the queue, and
// with ctx.Err() when ctx ends first. Send must only be called by the
// producer that owns the queue.
func (q *Queue[T]) Send(ctx context.Context, item T) error {
	if q.sendClosed.Load() {
		return ErrClosed
	}
	select {
	case <-q.gone:
		return ErrClosed
	default:
	}
	select {
	case q.items <- item:
		return nil
	case <-q.gone:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Receive returns the next item. ok is false once the send side is closed
// and the buffer is drained, or when ctx ends.
func (q *Queue[T]) Receive(ctx context.Context) (item T, ok bool) {
	select {
	case item, ok = <-q.items:
		return item, ok
	case <-ctx.Done():
		var zero T
		return zero, false
	}
}

// CloseSend marks the end of the stream. Items already buffered are still
// delivered. Safe to call more than once.
func (q *Queue[T]) CloseSend() {
	q.closeSend.Do(func() {
		q.sendClosed.Store(true)
		close(q.items)
	})
}

// Abandon closes the queue from the consumer side so a blocked producer
// returns ErrClosed instead of waiting for a receiver that will never come.
func (q *Queue[T]) Abandon() {
	q.abandon.Do(func() { close(q.gone) })
}

// Len reports the number of buffered items.
func (q *Queue[T]) Len() int { return len(q.items) }

// Cap reports the buffer capacity.
func (q *Queue[T]) Cap() int { return cap(q.items) }
