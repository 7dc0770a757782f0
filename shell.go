package shade

import (
	"github.com/gogpu/shade/internal/wlshell"
)

// Shell is the protocol capability a session consumes: negotiate the layer
// surface, acknowledge configures, wrap shared memory as buffers, pace
// frames, and deliver notifications. The production implementation is
// internal/wlshell's client; tests substitute a fake through WithShell.
//
// Request methods are called from the session loop goroutine only. Events
// and Notify may be used concurrently with them.
type Shell interface {
	// CreateLayerSurface negotiates a surface per spec. Missing compositor
	// capabilities or protocol failures are fatal, not retried.
	CreateLayerSurface(spec wlshell.SurfaceSpec) error

	// AckConfigure acknowledges a configure notification by serial.
	AckConfigure(serial uint32) error

	// CreateBuffer wraps size bytes of the shared-memory file fd as a
	// compositor buffer. released is invoked, possibly from the dispatch
	// goroutine, when the compositor returns the buffer.
	CreateBuffer(fd int, size int, width, height, stride int32, released func()) (wlshell.BufferHandle, error)

	// RequestFrame asks for the next frame-completion notification. One
	// notification is delivered per request; the cadence stops unless each
	// cycle requests again.
	RequestFrame() error

	// Submit attaches buf, damages the full width x height region, and
	// commits the surface.
	Submit(buf wlshell.BufferHandle, width, height int32) error

	// BindPointer and BindKeyboard create the seat's input objects.
	// ReleasePointer and ReleaseKeyboard destroy them. The session calls
	// each exactly once per capability transition.
	BindPointer() error
	ReleasePointer()
	BindKeyboard() error
	ReleaseKeyboard()

	// Events drains all pending protocol notifications in arrival order.
	Events() []wlshell.Event

	// Notify returns a channel signaled when new notifications arrive.
	Notify() <-chan struct{}

	// Roundtrip blocks until the compositor has processed all prior
	// requests, surfacing any protocol error raised by them.
	Roundtrip() error

	// Disconnect tears the connection down. No methods may be called after.
	Disconnect()
}

// defaultNamespace identifies the surface role when the script leaves
// namespace unset.
const defaultNamespace = "shade"

// surfaceSpec lowers a validated SurfaceConfig to the protocol-level
// description the shell layer negotiates.
func surfaceSpec(cfg SurfaceConfig) wlshell.SurfaceSpec {
	ns := cfg.Namespace
	if ns == "" {
		ns = defaultNamespace
	}
	return wlshell.SurfaceSpec{
		Width:                 cfg.Width,
		Height:                cfg.Height,
		Layer:                 uint32(cfg.Layer),
		Anchor:                uint32(cfg.Anchor),
		ExclusiveZone:         cfg.ExclusiveZone,
		MarginTop:             cfg.Margin.Top,
		MarginRight:           cfg.Margin.Right,
		MarginBottom:          cfg.Margin.Bottom,
		MarginLeft:            cfg.Margin.Left,
		KeyboardInteractivity: wlshell.KeyboardInteractivityOnDemand,
		Namespace:             ns,
	}
}
