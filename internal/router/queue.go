package router

import (
	"sync"
)

// Queue is an unbounded FIFO with a blocking Pop.
type Queue[T any] struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []T
	closed bool

	pushed    int64
	popped    int64
	highWater int
}

// QueueStats contains queue statistics.
type QueueStats struct {
	Len       int
	HighWater int
	Pushed    int64
	Popped    int64
}

// NewQueue creates an empty queue with room for sizeHint items.
func NewQueue[T any](sizeHint int) *Queue[T] {
	if sizeHint < 1 {
		sizeHint = 1
	}
	q := &Queue[T]{items: make([]T, 0, sizeHint)}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push appends item. Returns false once the queue is closed.
func (q *Queue[T]) Push(item T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.items = append(q.items, item)
	q.pushed++
	if len(q.items) > q.highWater {
		q.highWater = len(q.items)
	}
	q.cond.Signal()
	return true
}

// Pop blocks until an item is available or the queue is closed and empty.
func (q *Queue[T]) Pop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	return q.popLocked()
}

// TryPop returns the head item without blocking.
func (q *Queue[T]) TryPop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.popLocked()
}

func (q *Queue[T]) popLocked() (T, bool) {
	var zero T
	if len(q.items) == 0 {
		return zero, false
	}
	item := q.items[0]
	q.items[0] = zero
	q.items = q.items[1:]
	q.popped++
	return item, true
}

// Close stops accepting items and wakes blocked receivers.
// Items already queued can still be popped.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.cond.Broadcast()
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Stats returns queue statistics.
func (q *Queue[T]) Stats() QueueStats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return QueueStats{
		Len:       len(q.items),
		HighWater: q.highWater,
		Pushed:    q.pushed,
		Popped:    q.popped,
	}
}
