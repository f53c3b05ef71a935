package router

import (
	"sync"
	"testing"
	"time"
)

func TestQueue_FIFO(t *testing.T) {
	q := NewQueue[int](2)

	for i := 0; i < 100; i++ {
		if !q.Push(i) {
			t.Fatalf("Push(%d) returned false", i)
		}
	}

	if q.Len() != 100 {
		t.Errorf("Len() = %d, want 100", q.Len())
	}

	for i := 0; i < 100; i++ {
		val, ok := q.TryPop()
		if !ok {
			t.Fatalf("TryPop() returned false for item %d", i)
		}
		if val != i {
			t.Errorf("popped %d, want %d", val, i)
		}
	}

	if _, ok := q.TryPop(); ok {
		t.Error("TryPop() on empty queue returned true")
	}
}

func TestQueue_BlockingPop(t *testing.T) {
	q := NewQueue[int](1)

	received := make(chan int, 1)
	go func() {
		if val, ok := q.Pop(); ok {
			received <- val
		}
	}()

	time.Sleep(10 * time.Millisecond)
	q.Push(42)

	select {
	case val := <-received:
		if val != 42 {
			t.Errorf("received %d, want 42", val)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for blocked Pop")
	}
}

func TestQueue_CloseDrainsRemaining(t *testing.T) {
	q := NewQueue[int](4)
	q.Push(1)
	q.Push(2)
	q.Close()

	if q.Push(3) {
		t.Error("Push should return false after Close")
	}

	for _, want := range []int{1, 2} {
		val, ok := q.Pop()
		if !ok || val != want {
			t.Errorf("Pop() = %d, %v; want %d, true", val, ok, want)
		}
	}

	if _, ok := q.Pop(); ok {
		t.Error("Pop should return false when closed and empty")
	}
}

func TestQueue_CloseUnblocksPop(t *testing.T) {
	q := NewQueue[int](1)

	done := make(chan bool, 1)
	go func() {
		_, ok := q.Pop()
		done <- ok
	}()

	time.Sleep(10 * time.Millisecond)
	q.Close()

	select {
	case ok := <-done:
		if ok {
			t.Error("Pop should return false when closed and empty")
		}
	case <-time.After(time.Second):
		t.Fatal("Close did not unblock Pop")
	}
}

func TestQueue_ConcurrentPushPop(t *testing.T) {
	q := NewQueue[int](8)
	const producers, perProducer = 4, 250

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Push(i)
			}
		}()
	}

	got := make(chan int, 1)
	go func() {
		n := 0
		for {
			if _, ok := q.Pop(); !ok {
				got <- n
				return
			}
			n++
		}
	}()

	wg.Wait()
	q.Close()

	select {
	case n := <-got:
		if n != producers*perProducer {
			t.Errorf("popped %d items, want %d", n, producers*perProducer)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not finish")
	}
}

func TestQueue_Stats(t *testing.T) {
	q := NewQueue[string](1)
	q.Push("a")
	q.Push("b")
	q.Push("c")
	q.TryPop()

	stats := q.Stats()
	if stats.Len != 2 {
		t.Errorf("Len = %d, want 2", stats.Len)
	}
	if stats.HighWater != 3 {
		t.Errorf("HighWater = %d, want 3", stats.HighWater)
	}
	if stats.Pushed != 3 || stats.Popped != 1 {
		t.Errorf("Pushed/Popped = %d/%d, want 3/1", stats.Pushed, stats.Popped)
	}
}
