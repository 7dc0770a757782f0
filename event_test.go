package shade

import (
	"sync"
	"testing"
)

// TestQueueFIFO verifies drained items come out in arrival order.
func TestQueueFIFO(t *testing.T) {
	var q queue[Event]
	q.Push(ResizedEvent{Width: 1, Height: 1})
	q.Push(PointerEnteredEvent{X: 2, Y: 2})
	q.Push(PointerMovedEvent{X: 3, Y: 3})
	q.Push(ExitEvent{})

	got := q.Drain()
	if len(got) != 4 {
		t.Fatalf("Drain returned %d items, want 4", len(got))
	}
	if _, ok := got[0].(ResizedEvent); !ok {
		t.Errorf("item 0 is %T, want ResizedEvent", got[0])
	}
	if _, ok := got[1].(PointerEnteredEvent); !ok {
		t.Errorf("item 1 is %T, want PointerEnteredEvent", got[1])
	}
	if _, ok := got[2].(PointerMovedEvent); !ok {
		t.Errorf("item 2 is %T, want PointerMovedEvent", got[2])
	}
	if _, ok := got[3].(ExitEvent); !ok {
		t.Errorf("item 3 is %T, want ExitEvent", got[3])
	}
}

// TestQueueDrainEmpties verifies a drain leaves the queue empty and a
// second drain returns nothing.
func TestQueueDrainEmpties(t *testing.T) {
	var q queue[int]
	for i := 0; i < 10; i++ {
		q.Push(i)
	}

	if got := len(q.Drain()); got != 10 {
		t.Fatalf("first Drain returned %d items, want 10", got)
	}
	if q.Len() != 0 {
		t.Errorf("Len after Drain = %d, want 0", q.Len())
	}
	if got := q.Drain(); len(got) != 0 {
		t.Errorf("second Drain returned %d items, want 0", len(got))
	}
}

// TestQueuePushDuringDrain verifies items pushed while a drained batch is
// being consumed land in the next batch, untouched by the iteration.
func TestQueuePushDuringDrain(t *testing.T) {
	var q queue[int]
	q.Push(1)
	q.Push(2)

	batch := q.Drain()
	q.Push(3) // arrives mid-consumption
	q.Push(4)

	if len(batch) != 2 || batch[0] != 1 || batch[1] != 2 {
		t.Fatalf("first batch = %v, want [1 2]", batch)
	}

	next := q.Drain()
	if len(next) != 2 || next[0] != 3 || next[1] != 4 {
		t.Errorf("second batch = %v, want [3 4]", next)
	}
}

// TestQueueConcurrentProducers verifies no items are lost when several
// goroutines push while another drains.
func TestQueueConcurrentProducers(t *testing.T) {
	const (
		producers = 8
		perProd   = 1000
	)

	var q queue[int]
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProd; i++ {
				q.Push(p*perProd + i)
			}
		}(p)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	seen := make(map[int]bool)
	collect := func() {
		for _, v := range q.Drain() {
			if seen[v] {
				t.Errorf("item %d drained twice", v)
			}
			seen[v] = true
		}
	}

	for {
		collect()
		select {
		case <-done:
			collect()
			if len(seen) != producers*perProd {
				t.Fatalf("drained %d items, want %d", len(seen), producers*perProd)
			}
			return
		default:
		}
	}
}

// TestEventInterface verifies every notification type satisfies Event, so
// mixed batches drain through one queue.
func TestEventInterface(t *testing.T) {
	events := []Event{
		ResizedEvent{},
		PointerButtonPressedEvent{},
		PointerButtonReleasedEvent{},
		PointerMovedEvent{},
		PointerEnteredEvent{},
		PointerLeftEvent{},
		KeyboardKeyPressedEvent{},
		KeyboardKeyReleasedEvent{},
		KeyboardEnteredEvent{},
		KeyboardLeftEvent{},
		ExitEvent{},
	}

	var q queue[Event]
	for _, ev := range events {
		q.Push(ev)
	}
	if got := len(q.Drain()); got != len(events) {
		t.Errorf("drained %d events, want %d", got, len(events))
	}
}
