package observer

import (
	"sync"
)

// Registry fans out values of type T to subscribers.
type Registry[T any] struct {
	mu     sync.Mutex
	nextID uint64
	subs   []subscription[T]

	published int64
}

type subscription[T any] struct {
	id uint64
	fn func(T)
}

// NewRegistry creates an empty registry.
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{}
}

// Subscribe registers fn and returns a function that removes it.
// The returned function is safe to call more than once.
func (r *Registry[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	r.mu.Lock()
	r.nextID++
	id := r.nextID
	r.subs = append(r.subs, subscription[T]{id: id, fn: fn})
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { r.remove(id) })
	}
}

func (r *Registry[T]) remove(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, s := range r.subs {
		if s.id == id {
			// Copy so snapshots taken by in-flight Publish calls stay intact.
			next := make([]subscription[T], 0, len(r.subs)-1)
			next = append(next, r.subs[:i]...)
			next = append(next, r.subs[i+1:]...)
			r.subs = next
			return
		}
	}
}

// Publish delivers v to every current subscriber in subscription order.
func (r *Registry[T]) Publish(v T) {
	r.mu.Lock()
	subs := r.subs
	r.published++
	r.mu.Unlock()

	for _, s := range subs {
		s.fn(v)
	}
}

// Len returns the number of subscribers.
func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs)
}

// Published returns how many values have been published.
func (r *Registry[T]) Published() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.published
}

// Behavior is a Registry that replays the latest value to new subscribers.
type Behavior[T any] struct {
	reg *Registry[T]

	mu      sync.RWMutex
	current T
}

// NewBehavior creates a Behavior holding initial.
func NewBehavior[T any](initial T) *Behavior[T] {
	return &Behavior[T]{reg: NewRegistry[T](), current: initial}
}

// Subscribe registers fn, immediately invokes it with the current value and
// returns an unsubscribe function.
func (b *Behavior[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	unsub := b.reg.Subscribe(fn)
	fn(b.Value())
	return unsub
}

// Publish stores v as the current value and delivers it to subscribers.
func (b *Behavior[T]) Publish(v T) {
	b.mu.Lock()
	b.current = v
	b.mu.Unlock()
	b.reg.Publish(v)
}

// Value returns the latest published value.
func (b *Behavior[T]) Value() T {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.current
}

// Len returns the number of subscribers.
func (b *Behavior[T]) Len() int { return b.reg.Len() }

// Published returns how many values have been published since creation.
func (b *Behavior[T]) Published() int64 { return b.reg.Published() }
