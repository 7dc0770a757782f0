package shade

import "sync"

// Event is an application-level notification drained from the session's
// queue once per scheduler tick, in arrival order.
//
// Events are produced by protocol callbacks (input devices, configure and
// close notifications) and consumed by Session.handleEvent. The set of
// implementations is closed.
type Event interface {
	event()
}

// Modifiers is the keyboard modifier state attached to input events at
// dispatch time.
type Modifiers struct {
	Control bool
	Shift   bool
	Alt     bool
	Meta    bool
}

// ResizedEvent reports that the compositor changed the surface dimensions.
type ResizedEvent struct {
	Width  uint32
	Height uint32
}

// PointerButtonPressedEvent reports a pointer button press on the surface.
type PointerButtonPressedEvent struct {
	Button    uint32
	Modifiers Modifiers
}

// PointerButtonReleasedEvent reports a pointer button release on the surface.
type PointerButtonReleasedEvent struct {
	Button    uint32
	Modifiers Modifiers
}

// PointerMovedEvent reports pointer motion in surface-local coordinates.
type PointerMovedEvent struct {
	X float64
	Y float64
}

// PointerEnteredEvent reports the pointer entering the surface.
type PointerEnteredEvent struct {
	X float64
	Y float64
}

// PointerLeftEvent reports the pointer leaving the surface.
type PointerLeftEvent struct{}

// KeyboardKeyPressedEvent reports a key press while the surface has
// keyboard focus.
type KeyboardKeyPressedEvent struct {
	Key       uint32
	Modifiers Modifiers
}

// KeyboardKeyReleasedEvent reports a key release while the surface has
// keyboard focus.
type KeyboardKeyReleasedEvent struct {
	Key       uint32
	Modifiers Modifiers
}

// KeyboardEnteredEvent reports the surface gaining keyboard focus.
type KeyboardEnteredEvent struct{}

// KeyboardLeftEvent reports the surface losing keyboard focus.
type KeyboardLeftEvent struct{}

// ExitEvent asks the session to terminate. Enqueued by Session.Exit and by
// compositor-initiated close.
type ExitEvent struct{}

func (ResizedEvent) event()               {}
func (PointerButtonPressedEvent) event()  {}
func (PointerButtonReleasedEvent) event() {}
func (PointerMovedEvent) event()          {}
func (PointerEnteredEvent) event()        {}
func (PointerLeftEvent) event()           {}
func (KeyboardKeyPressedEvent) event()    {}
func (KeyboardKeyReleasedEvent) event()   {}
func (KeyboardEnteredEvent) event()       {}
func (KeyboardLeftEvent) event()          {}
func (ExitEvent) event()                  {}

// queue is an order-preserving buffer that may be appended to from any
// goroutine. Drain swaps the live slice for an empty one before the caller
// iterates, so producers can keep appending during a drain without
// corrupting iteration.
type queue[T any] struct {
	mu    sync.Mutex
	items []T
}

// Push appends one item in arrival order.
func (q *queue[T]) Push(item T) {
	q.mu.Lock()
	q.items = append(q.items, item)
	q.mu.Unlock()
}

// Drain removes and returns all buffered items. The returned slice is owned
// by the caller.
func (q *queue[T]) Drain() []T {
	q.mu.Lock()
	items := q.items
	q.items = nil
	q.mu.Unlock()
	return items
}

// Len reports the number of buffered items.
func (q *queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
