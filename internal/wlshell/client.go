// Package wlshell speaks the Wayland wire protocol for one layer-shell
// surface: registry negotiation, surface configuration, shm buffer
// submission and seat input. Protocol events are decoded into plain
// values and handed to the owner through a drained queue, so nothing
// above this package touches wire objects.
package wlshell

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/neurlang/wayland/wl"
	"github.com/neurlang/wayland/wlclient"
)

// Client is a connection to the compositor carrying a single layer
// surface. Connect, CreateLayerSurface and the first Roundtrip run on
// the caller's goroutine; after that roundtrip a dispatch goroutine owns
// all reads from the socket and requests may still be issued from the
// owning goroutine.
type Client struct {
	log *slog.Logger

	display  *wl.Display
	registry *wl.Registry

	compositor *wl.Compositor
	shm        *wl.Shm
	seat       *wl.Seat
	layerShell *LayerShell

	layerShellVersion uint32
	seatVersion       uint32
	hasArgb           bool

	surface      *wl.Surface
	layerSurface *LayerSurface

	pointer  *wl.Pointer
	keyboard *wl.Keyboard

	// Focus flags are owned by the dispatch goroutine: input events for
	// foreign surfaces flip them off so the events between an enter and
	// the next leave can be attributed without re-checking the surface.
	pointerFocus  bool
	keyboardFocus bool

	mu      sync.Mutex
	pending []Event
	notify  chan struct{}

	dispatching sync.Once
	closed      atomic.Bool
}

// Connect dials the default Wayland display and binds the globals a
// layer surface needs. It fails when the compositor does not offer the
// layer shell protocol. A nil log discards.
func Connect(log *slog.Logger) (*Client, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	display, err := wlclient.DisplayConnect(nil)
	if err != nil {
		return nil, fmt.Errorf("wlshell: connect to wayland display: %w", err)
	}

	c := &Client{
		log:     log,
		display: display,
		notify:  make(chan struct{}, 1),
	}

	registry, err := display.GetRegistry()
	if err != nil {
		wlclient.DisplayDisconnect(display)
		return nil, fmt.Errorf("wlshell: get registry: %w", err)
	}
	c.registry = registry
	wlclient.RegistryAddListener(registry, c)

	// One roundtrip collects the globals, a second settles the replies
	// the binds triggered (shm formats, seat capabilities).
	for range 2 {
		if err := wlclient.DisplayRoundtrip(display); err != nil {
			wlclient.DisplayDisconnect(display)
			return nil, fmt.Errorf("wlshell: registry roundtrip: %w", err)
		}
	}

	switch {
	case c.compositor == nil:
		err = errors.New("wlshell: compositor does not advertise wl_compositor")
	case c.shm == nil:
		err = errors.New("wlshell: compositor does not advertise wl_shm")
	case c.layerShell == nil:
		err = errors.New("wlshell: compositor does not support " + LayerShellInterfaceName)
	}
	if err != nil {
		wlclient.DisplayDisconnect(display)
		return nil, err
	}
	if c.seat == nil {
		log.Info("no seat advertised, input disabled")
	}
	if !c.hasArgb {
		log.Debug("argb8888 not listed among shm formats, proceeding anyway")
	}
	return c, nil
}

// HandleRegistryGlobal binds the globals the surface depends on as the
// compositor announces them.
func (c *Client) HandleRegistryGlobal(ev wl.RegistryGlobalEvent) {
	switch ev.Interface {
	case "wl_compositor":
		c.compositor = wlclient.RegistryBindCompositorInterface(c.registry, ev.Name, min(ev.Version, 4))
	case "wl_shm":
		c.shm = wlclient.RegistryBindShmInterface(c.registry, ev.Name, 1)
		wlclient.ShmAddListener(c.shm, c)
	case "wl_seat":
		if c.seat != nil {
			return
		}
		c.seatVersion = min(ev.Version, 4)
		c.seat = wlclient.RegistryBindSeatInterface(c.registry, ev.Name, c.seatVersion)
		wlclient.SeatAddListener(c.seat, c)
	case LayerShellInterfaceName:
		c.layerShellVersion = min(ev.Version, layerShellMaxVersion)
		shell := NewLayerShell(c.display.Context())
		if err := c.registry.Bind(ev.Name, ev.Interface, c.layerShellVersion, shell); err != nil {
			c.log.Warn("bind layer shell failed", "error", err)
			return
		}
		c.layerShell = shell
	}
}

// HandleRegistryGlobalRemove notes globals withdrawn by the compositor.
// The session learns about seat loss through capability events instead.
func (c *Client) HandleRegistryGlobalRemove(ev wl.RegistryGlobalRemoveEvent) {
	c.log.Debug("global removed", "name", ev.Name)
}

// HandleShmFormat records whether the premultiplied ARGB format the
// renderer emits was advertised.
func (c *Client) HandleShmFormat(ev wl.ShmFormatEvent) {
	if ev.Format == wl.ShmFormatArgb8888 {
		c.hasArgb = true
	}
}

// HandleSeatCapabilities forwards the seat's device set to the owner,
// which decides whether to bind pointer or keyboard.
func (c *Client) HandleSeatCapabilities(ev wl.SeatCapabilitiesEvent) {
	c.push(SeatCapabilities{
		Pointer:  ev.Capabilities&wl.SeatCapabilityPointer != 0,
		Keyboard: ev.Capabilities&wl.SeatCapabilityKeyboard != 0,
	})
}

// HandleSeatName ignores the seat's human-readable name.
func (c *Client) HandleSeatName(ev wl.SeatNameEvent) {}

// CreateLayerSurface creates the wl_surface, assigns it the layer role
// and commits the empty surface so the compositor answers with the
// first configure event.
func (c *Client) CreateLayerSurface(spec SurfaceSpec) error {
	if c.layerSurface != nil {
		return errors.New("wlshell: layer surface already created")
	}

	surface, err := c.compositor.CreateSurface()
	if err != nil {
		return fmt.Errorf("wlshell: create surface: %w", err)
	}
	c.surface = surface

	ls, err := c.layerShell.GetLayerSurface(surface, spec.Layer, spec.Namespace)
	if err != nil {
		return fmt.Errorf("wlshell: create layer surface: %w", err)
	}
	c.layerSurface = ls
	ls.AddConfigureHandler(c)
	ls.AddClosedHandler(c)

	if err := errors.Join(
		ls.SetSize(spec.Width, spec.Height),
		ls.SetAnchor(spec.Anchor),
		ls.SetExclusiveZone(spec.ExclusiveZone),
		ls.SetMargin(spec.MarginTop, spec.MarginRight, spec.MarginBottom, spec.MarginLeft),
		ls.SetKeyboardInteractivity(clampInteractivity(c.layerShellVersion, spec.KeyboardInteractivity)),
	); err != nil {
		return fmt.Errorf("wlshell: configure layer surface: %w", err)
	}

	if err := surface.Commit(); err != nil {
		return fmt.Errorf("wlshell: commit surface: %w", err)
	}
	c.log.Debug("layer surface created",
		"namespace", spec.Namespace, "layer", spec.Layer, "protocol_version", c.layerShellVersion)
	return nil
}

// HandleLayerSurfaceConfigure queues the compositor's size proposal.
func (c *Client) HandleLayerSurfaceConfigure(ev LayerSurfaceConfigureEvent) {
	c.push(Configure{Serial: ev.Serial, Width: ev.Width, Height: ev.Height})
}

// HandleLayerSurfaceClosed queues the compositor's teardown notice.
func (c *Client) HandleLayerSurfaceClosed(LayerSurfaceClosedEvent) {
	c.push(Closed{})
}

// AckConfigure acknowledges a configure event by serial.
func (c *Client) AckConfigure(serial uint32) error {
	if c.layerSurface == nil {
		return errors.New("wlshell: no layer surface")
	}
	if err := c.layerSurface.AckConfigure(serial); err != nil {
		return fmt.Errorf("wlshell: ack configure: %w", err)
	}
	return nil
}

// frameListener destroys its callback and reports frame completion. One
// is allocated per requested frame.
type frameListener struct {
	client   *Client
	callback *wl.Callback
}

func (l *frameListener) HandleCallbackDone(wl.CallbackDoneEvent) {
	wlclient.CallbackDestroy(l.callback)
	l.client.push(FrameDone{})
}

// RequestFrame asks the compositor to signal when the surface should be
// painted again. The answer arrives as a FrameDone event after the next
// commit is consumed.
func (c *Client) RequestFrame() error {
	if c.surface == nil {
		return errors.New("wlshell: no surface")
	}
	cb, err := c.surface.Frame()
	if err != nil {
		return fmt.Errorf("wlshell: request frame callback: %w", err)
	}
	wlclient.CallbackAddListener(cb, &frameListener{client: c, callback: cb})
	return nil
}

// Submit attaches buf, damages the full surface and commits.
func (c *Client) Submit(buf BufferHandle, width, height int32) error {
	b, ok := buf.(*shmBuffer)
	if !ok {
		return fmt.Errorf("wlshell: submit of unknown buffer type %T", buf)
	}
	if c.surface == nil {
		return errors.New("wlshell: no surface")
	}
	if err := c.surface.Attach(b.buffer, 0, 0); err != nil {
		return fmt.Errorf("wlshell: attach buffer: %w", err)
	}
	if err := c.surface.Damage(0, 0, width, height); err != nil {
		return fmt.Errorf("wlshell: damage surface: %w", err)
	}
	if err := c.surface.Commit(); err != nil {
		return fmt.Errorf("wlshell: commit surface: %w", err)
	}
	return nil
}

// push queues an event for the owner and wakes it. Safe from any
// goroutine.
func (c *Client) push(ev Event) {
	c.mu.Lock()
	c.pending = append(c.pending, ev)
	c.mu.Unlock()
	select {
	case c.notify <- struct{}{}:
	default:
	}
}

// Events drains and returns the queued protocol events in arrival order.
func (c *Client) Events() []Event {
	c.mu.Lock()
	evs := c.pending
	c.pending = nil
	c.mu.Unlock()
	return evs
}

// Notify returns the channel signalled whenever events are queued.
func (c *Client) Notify() <-chan struct{} {
	return c.notify
}

// Roundtrip flushes pending requests and processes everything the
// compositor answers with. The first call also starts the dispatch
// goroutine, so the setup sequence must be complete by then.
func (c *Client) Roundtrip() error {
	if err := wlclient.DisplayRoundtrip(c.display); err != nil {
		return fmt.Errorf("wlshell: roundtrip: %w", err)
	}
	c.dispatching.Do(func() {
		go c.dispatchLoop()
	})
	return nil
}

func (c *Client) dispatchLoop() {
	for {
		if err := wlclient.DisplayDispatch(c.display); err != nil {
			if !c.closed.Load() {
				c.log.Warn("wayland dispatch failed", "error", err)
				c.push(Closed{})
			}
			return
		}
	}
}

// Disconnect destroys the surface objects and closes the connection.
// The dispatch goroutine exits on the resulting read error.
func (c *Client) Disconnect() {
	if !c.closed.CompareAndSwap(false, true) {
		return
	}
	c.ReleasePointer()
	c.ReleaseKeyboard()
	if c.layerSurface != nil {
		if err := c.layerSurface.Destroy(); err != nil {
			c.log.Debug("destroy layer surface", "error", err)
		}
		c.layerSurface = nil
	}
	if c.surface != nil {
		if err := c.surface.Destroy(); err != nil {
			c.log.Debug("destroy surface", "error", err)
		}
		c.surface = nil
	}
	wlclient.DisplayDisconnect(c.display)
}
