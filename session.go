package shade

import (
	"fmt"
	"time"

	"github.com/gogpu/shade/internal/wlshell"
)

// pollInterval bounds the wait for protocol I/O on each loop tick, so
// termination requests are observed even when the connection is idle.
const pollInterval = 16 * time.Millisecond

// fallbackDimension replaces a zero width or height in a configure
// notification, which means the compositor lets the client choose.
const fallbackDimension = 256

// defaultBackground is the frame clear color before the script draws.
const defaultBackground = 0xFF707070

type sessionState uint8

const (
	stateConnecting sessionState = iota
	stateNegotiating
	stateConfiguring
	stateRunning
	stateClosing
	stateTerminated
)

func (s sessionState) String() string {
	switch s {
	case stateConnecting:
		return "connecting"
	case stateNegotiating:
		return "negotiating"
	case stateConfiguring:
		return "configuring"
	case stateRunning:
		return "running"
	case stateClosing:
		return "closing"
	case stateTerminated:
		return "terminated"
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

// Drawer paints one frame into the canvas. *Host implements it; the
// session never sees more of the script environment than this.
type Drawer interface {
	Draw(*Canvas) error
}

// Option adjusts session construction.
type Option func(*Session)

// WithShell substitutes the protocol implementation. Used by tests; the
// default connects to the Wayland display from the environment.
func WithShell(sh Shell) Option {
	return func(s *Session) { s.shell = sh }
}

// WithBackground sets the ARGB color each frame is cleared to before the
// script draws.
func WithBackground(argb uint32) Option {
	return func(s *Session) { s.background = argb }
}

// WithFPSOverlay toggles the frame-rate diagnostic in the corner of every
// frame. Enabled by default.
func WithFPSOverlay(enabled bool) Option {
	return func(s *Session) { s.fpsOverlay = enabled }
}

// WithEventHandler installs an application-level handler invoked for every
// drained Event, in arrival order, on the loop goroutine. Without one,
// events are logged at debug level and dropped.
func WithEventHandler(fn func(Event)) Option {
	return func(s *Session) { s.onEvent = fn }
}

// Session owns the compositor connection, the surface lifecycle, the
// buffer pool and the frame scheduler. All mutable state is confined to
// the goroutine running Run; only Exit may be called from elsewhere.
type Session struct {
	shell Shell
	pool  *Pool
	host  Drawer

	cfg    SurfaceConfig
	state  sessionState
	events queue[Event]

	width      uint32
	height     uint32
	configured bool
	lastFrame  time.Time
	canvas     *Canvas

	background uint32
	fpsOverlay bool
	onEvent    func(Event)

	pointerBound  bool
	keyboardBound bool
	modifiers     Modifiers
}

// NewSession validates cfg, connects, and negotiates the layer surface.
// Missing compositor capabilities and protocol failures during negotiation
// are fatal; nothing is retried. The first configure notification is
// handled inside Run, which also performs the initial draw.
func NewSession(cfg SurfaceConfig, host Drawer, opts ...Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if host == nil {
		return nil, fmt.Errorf("shade: session needs a draw host")
	}
	if _, err := overlayFace(); err != nil {
		return nil, err
	}

	s := &Session{
		host:       host,
		cfg:        cfg,
		state:      stateConnecting,
		width:      cfg.Width,
		height:     cfg.Height,
		background: defaultBackground,
		fpsOverlay: true,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.shell == nil {
		sh, err := wlshell.Connect(Logger())
		if err != nil {
			return nil, err
		}
		s.shell = sh
	}
	s.state = stateNegotiating

	if err := s.shell.CreateLayerSurface(surfaceSpec(cfg)); err != nil {
		s.shell.Disconnect()
		return nil, err
	}
	s.pool = NewPool(s.shell)

	if err := s.shell.Roundtrip(); err != nil {
		s.shell.Disconnect()
		return nil, err
	}
	s.state = stateConfiguring

	Logger().Info("surface negotiated",
		"layer", s.cfg.Layer, "anchor", s.cfg.Anchor,
		"width", s.cfg.Width, "height", s.cfg.Height)
	return s, nil
}

// Run blocks, driving the session until an Exit event or a
// compositor-initiated close. Each tick waits up to pollInterval for
// protocol I/O, drains protocol notifications into the router, then drains
// application Events into the handler. Protocol and script failures
// terminate the loop with an error.
func (s *Session) Run() error {
	if s.state != stateConfiguring && s.state != stateRunning {
		return fmt.Errorf("shade: run entered in %v state", s.state)
	}

	for {
		select {
		case <-s.shell.Notify():
		case <-time.After(pollInterval):
		}

		for _, ev := range s.shell.Events() {
			if err := s.route(ev); err != nil {
				s.state = stateTerminated
				return err
			}
		}

		for _, ev := range s.events.Drain() {
			s.handleEvent(ev)
			if s.state == stateClosing {
				s.state = stateTerminated
				return nil
			}
		}
		if s.state == stateClosing {
			s.state = stateTerminated
			return nil
		}
	}
}

// Exit asks the loop to terminate on its next drain. Idempotent; safe from
// any goroutine.
func (s *Session) Exit() {
	s.events.Push(ExitEvent{})
}

// Close releases the frame buffers and disconnects from the compositor.
// Call it once Run has returned.
func (s *Session) Close() {
	s.state = stateTerminated
	if s.pool != nil {
		s.pool.Destroy()
	}
	if s.shell != nil {
		s.shell.Disconnect()
	}
}

// route dispatches one protocol notification to its handler. Input
// notifications become application Events with the modifier state attached
// at dispatch time.
func (s *Session) route(ev wlshell.Event) error {
	switch e := ev.(type) {
	case wlshell.Configure:
		return s.handleConfigure(e)
	case wlshell.Closed:
		return s.handleClosed()
	case wlshell.FrameDone:
		return s.handleFrameDone()
	case wlshell.SeatCapabilities:
		return s.handleSeatCapabilities(e)
	case wlshell.PointerEnter:
		s.events.Push(PointerEnteredEvent{X: e.X, Y: e.Y})
	case wlshell.PointerLeave:
		s.events.Push(PointerLeftEvent{})
	case wlshell.PointerMotion:
		s.events.Push(PointerMovedEvent{X: e.X, Y: e.Y})
	case wlshell.PointerButton:
		if e.Pressed {
			s.events.Push(PointerButtonPressedEvent{Button: e.Button, Modifiers: s.modifiers})
		} else {
			s.events.Push(PointerButtonReleasedEvent{Button: e.Button, Modifiers: s.modifiers})
		}
	case wlshell.KeyboardEnter:
		s.events.Push(KeyboardEnteredEvent{})
	case wlshell.KeyboardLeave:
		s.events.Push(KeyboardLeftEvent{})
	case wlshell.KeyboardKey:
		if e.Pressed {
			s.events.Push(KeyboardKeyPressedEvent{Key: e.Key, Modifiers: s.modifiers})
		} else {
			s.events.Push(KeyboardKeyReleasedEvent{Key: e.Key, Modifiers: s.modifiers})
		}
	case wlshell.KeyboardModifiers:
		s.modifiers = Modifiers{Control: e.Control, Shift: e.Shift, Alt: e.Alt, Meta: e.Meta}
	}
	return nil
}

func (s *Session) handleConfigure(e wlshell.Configure) error {
	if s.state >= stateClosing {
		return nil
	}

	w, h := e.Width, e.Height
	if w == 0 {
		w = fallbackDimension
	}
	if h == 0 {
		h = fallbackDimension
	}
	changed := w != s.width || h != s.height
	s.width, s.height = w, h

	if err := s.shell.AckConfigure(e.Serial); err != nil {
		return err
	}

	if !s.configured {
		// The one configure-initiated draw; afterwards only frame
		// notifications schedule drawing.
		s.configured = true
		s.state = stateRunning
		Logger().Info("surface configured", "width", w, "height", h)
		return s.draw()
	}
	if changed {
		Logger().Debug("surface resized", "width", w, "height", h)
		s.events.Push(ResizedEvent{Width: w, Height: h})
	}
	return nil
}

func (s *Session) handleClosed() error {
	Logger().Info("surface closed by compositor")
	s.state = stateClosing
	s.events.Push(ExitEvent{})
	return nil
}

func (s *Session) handleFrameDone() error {
	if s.state != stateRunning {
		return nil
	}
	return s.draw()
}

func (s *Session) handleSeatCapabilities(e wlshell.SeatCapabilities) error {
	switch {
	case e.Pointer && !s.pointerBound:
		if err := s.shell.BindPointer(); err != nil {
			return err
		}
		s.pointerBound = true
		Logger().Info("pointer available")
	case !e.Pointer && s.pointerBound:
		s.shell.ReleasePointer()
		s.pointerBound = false
		Logger().Info("pointer removed")
	}

	switch {
	case e.Keyboard && !s.keyboardBound:
		if err := s.shell.BindKeyboard(); err != nil {
			return err
		}
		s.keyboardBound = true
		Logger().Info("keyboard available")
	case !e.Keyboard && s.keyboardBound:
		s.shell.ReleaseKeyboard()
		s.keyboardBound = false
		Logger().Info("keyboard removed")
	}
	return nil
}

// handleEvent consumes one application Event. Exit moves the session to
// closing; everything else goes to the installed handler.
func (s *Session) handleEvent(ev Event) {
	if _, ok := ev.(ExitEvent); ok && s.state < stateClosing {
		s.state = stateClosing
	}
	if s.onEvent != nil {
		s.onEvent(ev)
		return
	}
	Logger().Debug("event dropped", "type", fmt.Sprintf("%T", ev))
}

// draw runs one frame cycle: derive the instantaneous frame rate, acquire
// a buffer, paint background, diagnostics and the script frame, then
// request the next frame notification and submit.
func (s *Session) draw() error {
	now := time.Now()
	fps := 0
	if !s.lastFrame.IsZero() {
		if dt := now.Sub(s.lastFrame).Seconds(); dt > 0 {
			fps = int(1/dt + 0.5)
		}
	}
	s.lastFrame = now

	fb, err := s.pool.Acquire(s.width, s.height)
	if err != nil {
		return err
	}

	if s.canvas == nil || s.canvas.Width() != int(s.width) || s.canvas.Height() != int(s.height) {
		s.canvas, err = NewCanvas(int(s.width), int(s.height), fb.Data())
		if err != nil {
			return err
		}
	} else if err := s.canvas.Rebind(fb.Data()); err != nil {
		return err
	}

	s.canvas.Clear(s.background)
	if s.fpsOverlay && fps > 0 {
		s.canvas.drawFPS(fps)
	}
	if err := s.host.Draw(s.canvas); err != nil {
		return err
	}
	s.canvas.Flush()

	if err := s.shell.RequestFrame(); err != nil {
		return err
	}
	return s.pool.Submit(fb)
}
