package shade

import (
	"errors"
	"strings"
	"testing"
)

// TestPoolAcquireSubmit verifies the strict acquire, draw, submit sequence
// and that a second acquire cannot overlap an outstanding buffer.
func TestPoolAcquireSubmit(t *testing.T) {
	fake := newFakeShell()
	p := NewPool(fake)
	t.Cleanup(p.Destroy)

	fb, err := p.Acquire(10, 10)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if got := len(fb.Data()); got != 10*10*4 {
		t.Errorf("Data() length = %d, want %d", got, 10*10*4)
	}
	if fb.Width() != 10 || fb.Height() != 10 {
		t.Errorf("buffer %dx%d, want 10x10", fb.Width(), fb.Height())
	}

	// The slice is writable shared memory.
	fb.Data()[0] = 0xAB
	if fb.Data()[0] != 0xAB {
		t.Error("buffer data not writable")
	}

	if _, err := p.Acquire(10, 10); err == nil {
		t.Error("second Acquire before Submit succeeded")
	}

	if err := p.Submit(fb); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if fake.submitCount() != 1 {
		t.Fatalf("submits = %d, want 1", fake.submitCount())
	}
	if s := fake.submits[0]; s.width != 10 || s.height != 10 {
		t.Errorf("submitted %dx%d, want 10x10", s.width, s.height)
	}
}

// TestPoolSubmitValidation verifies submits of foreign or absent buffers
// are rejected.
func TestPoolSubmitValidation(t *testing.T) {
	fake := newFakeShell()
	p := NewPool(fake)
	t.Cleanup(p.Destroy)

	if err := p.Submit(nil); err == nil {
		t.Error("Submit(nil) succeeded")
	}

	fb, err := p.Acquire(4, 4)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if err := p.Submit(&FrameBuffer{}); err == nil {
		t.Error("Submit of a foreign buffer succeeded")
	}
	if err := p.Submit(fb); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := p.Submit(fb); err == nil {
		t.Error("double Submit succeeded")
	}
}

// TestPoolDoubleBuffering verifies a second buffer is allocated while the
// compositor holds the first, and that a released buffer is reused.
func TestPoolDoubleBuffering(t *testing.T) {
	fake := newFakeShell()
	p := NewPool(fake)
	t.Cleanup(p.Destroy)

	first, err := p.Acquire(8, 8)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if err := p.Submit(first); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	// First is still displayed, so a fresh buffer must back this frame.
	second, err := p.Acquire(8, 8)
	if err != nil {
		t.Fatalf("second Acquire: %v", err)
	}
	if second == first {
		t.Fatal("busy buffer handed out again")
	}
	if fake.bufferCount() != 2 {
		t.Errorf("allocated %d buffers, want 2", fake.bufferCount())
	}
	if err := p.Submit(second); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	// Compositor returns the first; the next frame reuses it.
	fake.buffers[0].released()
	third, err := p.Acquire(8, 8)
	if err != nil {
		t.Fatalf("third Acquire: %v", err)
	}
	if third != first {
		t.Error("released buffer not reused")
	}
	if fake.bufferCount() != 2 {
		t.Errorf("allocated %d buffers, want 2 after reuse", fake.bufferCount())
	}
	if err := p.Submit(third); err != nil {
		t.Fatalf("Submit: %v", err)
	}
}

// TestPoolResizeReaps verifies idle buffers of a stale size are destroyed
// and busy ones survive until released.
func TestPoolResizeReaps(t *testing.T) {
	fake := newFakeShell()
	p := NewPool(fake)
	t.Cleanup(p.Destroy)

	fb, err := p.Acquire(10, 10)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if err := p.Submit(fb); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	// Still displayed: the stale-size buffer must survive the resize.
	big, err := p.Acquire(20, 20)
	if err != nil {
		t.Fatalf("resize Acquire: %v", err)
	}
	if fake.buffers[0].destroyed {
		t.Error("busy stale buffer destroyed")
	}
	if big.Width() != 20 || big.Height() != 20 {
		t.Errorf("buffer %dx%d, want 20x20", big.Width(), big.Height())
	}
	if err := p.Submit(big); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	// Once released, the stale size is reaped on the next acquire.
	fake.buffers[0].released()
	fake.buffers[1].released()
	again, err := p.Acquire(20, 20)
	if err != nil {
		t.Fatalf("Acquire after release: %v", err)
	}
	if !fake.buffers[0].destroyed {
		t.Error("released stale buffer not reaped")
	}
	if again != big {
		t.Error("matching-size buffer not reused after resize")
	}
}

// TestPoolAcquireErrors verifies invalid sizes and allocator failures are
// reported.
func TestPoolAcquireErrors(t *testing.T) {
	fake := newFakeShell()
	p := NewPool(fake)
	t.Cleanup(p.Destroy)

	if _, err := p.Acquire(0, 10); err == nil {
		t.Error("Acquire(0, 10) succeeded")
	}
	if _, err := p.Acquire(10, 0); err == nil {
		t.Error("Acquire(10, 0) succeeded")
	}

	fake.createBufferErr = errors.New("shm refused")
	_, err := p.Acquire(10, 10)
	if err == nil || !strings.Contains(err.Error(), "shm refused") {
		t.Errorf("Acquire error = %v, want the allocator failure", err)
	}
}

// TestPoolDestroy verifies teardown releases every protocol handle.
func TestPoolDestroy(t *testing.T) {
	fake := newFakeShell()
	p := NewPool(fake)

	fb, err := p.Acquire(6, 6)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if err := p.Submit(fb); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := p.Acquire(6, 6); err != nil {
		t.Fatalf("second Acquire: %v", err)
	}

	p.Destroy()
	for i, b := range fake.buffers {
		if !b.destroyed {
			t.Errorf("buffer %d not destroyed", i)
		}
	}
	if len(p.buffers) != 0 {
		t.Errorf("pool still tracks %d buffers", len(p.buffers))
	}
}
