package wlshell

import (
	"errors"
	"fmt"

	"github.com/neurlang/wayland/wl"
	"github.com/neurlang/wayland/wlclient"
)

// shmBuffer wraps a wl_buffer created from caller-owned shared memory.
type shmBuffer struct {
	buffer *wl.Buffer
}

// Destroy releases the protocol object. The shared memory behind it
// stays with the caller.
func (b *shmBuffer) Destroy() {
	if b.buffer != nil {
		_ = b.buffer.Destroy()
		b.buffer = nil
	}
}

// bufferListener relays the compositor's release notification.
type bufferListener struct {
	released func()
}

func (l *bufferListener) HandleBufferRelease(wl.BufferReleaseEvent) {
	if l.released != nil {
		l.released()
	}
}

// CreateBuffer wraps an fd of mapped shared memory into an ARGB8888
// wl_buffer. released fires when the compositor stops reading the
// buffer, possibly on the dispatch goroutine.
func (c *Client) CreateBuffer(fd int, size int, width, height, stride int32, released func()) (BufferHandle, error) {
	if c.shm == nil {
		return nil, errors.New("wlshell: no shm global")
	}
	pool, err := c.shm.CreatePool(uintptr(fd), int32(size))
	if err != nil {
		return nil, fmt.Errorf("wlshell: create shm pool: %w", err)
	}
	buf, err := pool.CreateBuffer(0, width, height, stride, wl.ShmFormatArgb8888)
	if err != nil {
		_ = pool.Destroy()
		return nil, fmt.Errorf("wlshell: create shm buffer: %w", err)
	}
	// The buffer keeps the pool storage alive on the compositor side, so
	// the pool object itself can go at once.
	if err := pool.Destroy(); err != nil {
		c.log.Debug("destroy shm pool", "error", err)
	}
	wlclient.BufferAddListener(buf, &bufferListener{released: released})
	return &shmBuffer{buffer: buf}, nil
}
