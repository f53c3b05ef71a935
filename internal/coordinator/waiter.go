package coordinator

import (
	"github.com/faceofmind/admin-sync/internal/model"
	"github.com/faceofmind/admin-sync/internal/router"
)

type liveResult struct {
	snap model.AnalyticsSnapshot
	err  error
}

// waiter is one outstanding live request.
type waiter struct {
	id     string
	period model.Period
	seq    uint64
	done   chan liveResult
}

func (w *waiter) resolve(snap model.AnalyticsSnapshot, err error) {
	select {
	case w.done <- liveResult{snap: snap, err: err}:
	default:
	}
}

func (c *Coordinator) register(period model.Period) *waiter {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq++
	w := &waiter{
		id:     c.newID(),
		period: period,
		seq:    c.seq,
		done:   make(chan liveResult, 1),
	}
	c.pending[w.id] = w
	return w
}

func (c *Coordinator) unregister(id string) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// matchLocked finds the waiter u answers and removes it from pending. late
// is true when u names a request that is no longer pending.
func (c *Coordinator) matchLocked(u router.AnalyticsUpdate) (w *waiter, late bool) {
	if u.RequestID != "" {
		w, ok := c.pending[u.RequestID]
		if !ok {
			return nil, true
		}
		delete(c.pending, u.RequestID)
		return w, false
	}

	for _, p := range c.pending {
		if p.period != u.Period {
			continue
		}
		if w == nil || p.seq < w.seq {
			w = p
		}
	}
	if w != nil {
		delete(c.pending, w.id)
	}
	return w, false
}

func (c *Coordinator) failPending(err error) {
	c.mu.Lock()
	waiters := make([]*waiter, 0, len(c.pending))
	for id, w := range c.pending {
		waiters = append(waiters, w)
		delete(c.pending, id)
	}
	c.mu.Unlock()

	for _, w := range waiters {
		w.resolve(model.AnalyticsSnapshot{}, err)
	}
}
