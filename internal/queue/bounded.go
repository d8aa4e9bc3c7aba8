// Package queue provides a fixed-capacity in-memory queue drained by a
// single consumer. Producers never block: when the queue is full the oldest
// item is discarded to make room.
package queue

import (
	"context"
	"sync/atomic"
)

type Bounded[T any] struct {
	ch      chan T
	dropped atomic.Int64
}

func NewBounded[T any](size int) *Bounded[T] {
	if size < 1 {
		size = 1
	}
	return &Bounded[T]{ch: make(chan T, size)}
}

// Push enqueues item and reports whether an older item was evicted.
func (q *Bounded[T]) Push(item T) bool {
	evicted := false
	for {
		select {
		case q.ch <- item:
			return evicted
		default:
		}
		select {
		case <-q.ch:
			q.dropped.Add(1)
			evicted = true
		default:
		}
	}
}

func (q *Bounded[T]) Len() int { return len(q.ch) }

func (q *Bounded[T]) Cap() int { return cap(q.ch) }

// Dropped returns how many items were evicted since creation.
func (q *Bounded[T]) Dropped() int64 { return q.dropped.Load() }

// Run hands items to handle until ctx is cancelled, then drains whatever is
// still buffered and returns. Run must have exactly one caller.
func (q *Bounded[T]) Run(ctx context.Context, handle func(T)) {
	for {
		select {
		case <-ctx.Done():
			for {
				select {
				case item := <-q.ch:
					handle(item)
				default:
					return
				}
			}
		case item := <-q.ch:
			handle(item)
		}
	}
}
