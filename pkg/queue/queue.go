// Package queue holds requests deferred until an external signal allows a retry.
package queue

import "sync"

// Queue is a mutex-guarded FIFO. Entries are never mutated in place: Drain swaps the
// backing slice for an empty one, so appends made while a snapshot is being replayed
// land in the next generation.
type Queue[T any] struct {
	mu    sync.Mutex
	items []T
}

// New creates an empty Queue.
func New[T any]() *Queue[T] {
	return &Queue[T]{}
}

// Append adds item to the tail.
func (q *Queue[T]) Append(item T) {
	q.mu.Lock()
	q.items = append(q.items, item)
	q.mu.Unlock()
}

// Drain empties the queue and returns its former contents in insertion order.
func (q *Queue[T]) Drain() []T {
	q.mu.Lock()
	items := q.items
	q.items = nil
	q.mu.Unlock()
	return items
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Snapshot returns a copy of the queued items without removing them.
func (q *Queue[T]) Snapshot() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]T, len(q.items))
	copy(out, q.items)
	return out
}
