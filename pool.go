package shade

import (
	"fmt"
	"sync/atomic"

	"golang.org/x/sys/unix"

	"github.com/gogpu/shade/internal/wlshell"
)

// FrameBuffer is one shared-memory pixel region visible to both the session
// and the compositor. The pool owns it while idle; after Submit the
// compositor holds it until its release notification, and it must not be
// written in between.
type FrameBuffer struct {
	width  uint32
	height uint32
	fd     int
	size   int
	data   []byte
	handle wlshell.BufferHandle

	// busy is set on submit and cleared by the compositor's release
	// notification, which may arrive on the dispatch goroutine.
	busy atomic.Bool
}

// Data returns the writable pixel region, width*height*4 bytes of
// premultiplied BGRA.
func (fb *FrameBuffer) Data() []byte { return fb.data }

// Width returns the buffer width in pixels.
func (fb *FrameBuffer) Width() uint32 { return fb.width }

// Height returns the buffer height in pixels.
func (fb *FrameBuffer) Height() uint32 { return fb.height }

func (fb *FrameBuffer) destroy() {
	if fb.handle != nil {
		fb.handle.Destroy()
		fb.handle = nil
	}
	if fb.data != nil {
		_ = unix.Munmap(fb.data)
		fb.data = nil
	}
	if fb.fd >= 0 {
		_ = unix.Close(fb.fd)
		fb.fd = -1
	}
}

// Pool allocates and recycles the session's frame buffers. Buffers are
// reused when their dimensions still match the surface; stale sizes are
// reaped once the compositor releases them. At most one buffer may be
// outstanding between Acquire and Submit.
//
// A Pool is confined to the session loop goroutine.
type Pool struct {
	shell       Shell
	buffers     []*FrameBuffer
	outstanding *FrameBuffer
}

// NewPool creates a pool allocating through shell.
func NewPool(shell Shell) *Pool {
	return &Pool{shell: shell}
}

// Acquire returns an idle buffer of the requested size, allocating one if
// no released buffer matches. It fails if the previous acquire was never
// submitted, or if the backing allocator fails (both fatal to the session).
func (p *Pool) Acquire(width, height uint32) (*FrameBuffer, error) {
	if p.outstanding != nil {
		return nil, fmt.Errorf("shade: buffer from the previous acquire not yet submitted")
	}
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("shade: acquire of empty %dx%d buffer", width, height)
	}

	var found *FrameBuffer
	keep := p.buffers[:0]
	for _, fb := range p.buffers {
		switch {
		case fb.width == width && fb.height == height:
			keep = append(keep, fb)
			if found == nil && !fb.busy.Load() {
				found = fb
			}
		case fb.busy.Load():
			// Stale size still displayed; reap after release.
			keep = append(keep, fb)
		default:
			Logger().Debug("reaping stale frame buffer", "width", fb.width, "height", fb.height)
			fb.destroy()
		}
	}
	p.buffers = keep

	if found == nil {
		fb, err := p.allocate(width, height)
		if err != nil {
			return nil, err
		}
		p.buffers = append(p.buffers, fb)
		found = fb
	}

	p.outstanding = found
	return found, nil
}

// Submit hands the outstanding buffer to the compositor: full-surface
// damage, attach, commit. The buffer is unavailable for mutation until its
// release notification.
func (p *Pool) Submit(fb *FrameBuffer) error {
	if fb == nil || fb != p.outstanding {
		return fmt.Errorf("shade: submit of a buffer that was not acquired")
	}
	p.outstanding = nil
	fb.busy.Store(true)
	if err := p.shell.Submit(fb.handle, int32(fb.width), int32(fb.height)); err != nil {
		return fmt.Errorf("shade: submit buffer: %w", err)
	}
	return nil
}

// Destroy releases every buffer and its backing memory.
func (p *Pool) Destroy() {
	for _, fb := range p.buffers {
		fb.destroy()
	}
	p.buffers = nil
	p.outstanding = nil
}

func (p *Pool) allocate(width, height uint32) (*FrameBuffer, error) {
	stride := int32(width) * 4
	size := int(width) * int(height) * 4

	fd, err := unix.MemfdCreate("shade-buffer", unix.MFD_CLOEXEC|unix.MFD_ALLOW_SEALING)
	if err != nil {
		return nil, fmt.Errorf("shade: create shm file: %w", err)
	}
	if err := unix.Ftruncate(fd, int64(size)); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("shade: size shm file: %w", err)
	}
	// The compositor maps this file too; sealing the size lets it trust
	// the bounds.
	if _, err := unix.FcntlInt(uintptr(fd), unix.F_ADD_SEALS, unix.F_SEAL_SHRINK); err != nil {
		Logger().Debug("sealing shm file failed", "error", err)
	}

	data, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("shade: map shm file: %w", err)
	}

	fb := &FrameBuffer{width: width, height: height, fd: fd, size: size, data: data}
	handle, err := p.shell.CreateBuffer(fd, size, int32(width), int32(height), stride, func() {
		fb.busy.Store(false)
	})
	if err != nil {
		_ = unix.Munmap(data)
		_ = unix.Close(fd)
		return nil, fmt.Errorf("shade: create compositor buffer: %w", err)
	}
	fb.handle = handle

	Logger().Debug("allocated frame buffer", "width", width, "height", height, "bytes", size)
	return fb, nil
}
