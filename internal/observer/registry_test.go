package observer

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_PublishOrder(t *testing.T) {
	r := NewRegistry[int]()

	var got []string
	r.Subscribe(func(v int) { got = append(got, "a") })
	r.Subscribe(func(v int) { got = append(got, "b") })
	r.Subscribe(func(v int) { got = append(got, "c") })

	r.Publish(1)
	assert.Equal(t, []string{"a", "b", "c"}, got)
	assert.Equal(t, int64(1), r.Published())
}

func TestRegistry_Unsubscribe(t *testing.T) {
	r := NewRegistry[string]()

	var calls int
	unsub := r.Subscribe(func(string) { calls++ })
	require.Equal(t, 1, r.Len())

	r.Publish("x")
	unsub()
	unsub() // idempotent
	r.Publish("y")

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_UnsubscribeDuringPublish(t *testing.T) {
	r := NewRegistry[int]()

	var second int
	var unsubFirst func()
	unsubFirst = r.Subscribe(func(int) { unsubFirst() })
	r.Subscribe(func(int) { second++ })

	r.Publish(1)
	r.Publish(2)

	assert.Equal(t, 2, second, "later subscriber still receives every value")
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_ConcurrentPublish(t *testing.T) {
	r := NewRegistry[int]()

	var mu sync.Mutex
	total := 0
	r.Subscribe(func(v int) {
		mu.Lock()
		total += v
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Publish(1)
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, total)
}

func TestBehavior_ReplaysCurrent(t *testing.T) {
	b := NewBehavior(false)

	var seen []bool
	b.Subscribe(func(v bool) { seen = append(seen, v) })
	assert.Equal(t, []bool{false}, seen)

	b.Publish(true)
	assert.Equal(t, []bool{false, true}, seen)
	assert.True(t, b.Value())

	var late []bool
	b.Subscribe(func(v bool) { late = append(late, v) })
	assert.Equal(t, []bool{true}, late)
	assert.Equal(t, int64(1), b.Published())
}
