package wlshell

import (
	"github.com/neurlang/wayland/wl"
)

// LayerShellInterfaceName is the global advertised by compositors that
// implement the wlr layer shell protocol.
const LayerShellInterfaceName = "zwlr_layer_shell_v1"

// layerShellMaxVersion is the newest protocol revision these bindings
// understand. Version 4 added the on-demand keyboard interactivity mode.
const layerShellMaxVersion = 4

// Keyboard interactivity modes, wire values of
// zwlr_layer_surface_v1.set_keyboard_interactivity.
const (
	KeyboardInteractivityNone      = 0
	KeyboardInteractivityExclusive = 1
	KeyboardInteractivityOnDemand  = 2
)

// clampInteractivity lowers a keyboard interactivity mode the bound
// protocol version cannot express. Before version 4 the field is a
// bool in all but name, so on-demand falls back to exclusive.
func clampInteractivity(version, mode uint32) uint32 {
	if version < 4 && mode > KeyboardInteractivityExclusive {
		return KeyboardInteractivityExclusive
	}
	return mode
}

// LayerShell is a client proxy for the zwlr_layer_shell_v1 global.
type LayerShell struct {
	wl.BaseProxy
}

// NewLayerShell allocates a LayerShell proxy and registers it with the
// wire context. Bind it with Registry.Bind before issuing requests.
func NewLayerShell(ctx *wl.Context) *LayerShell {
	ret := new(LayerShell)
	ctx.Register(ret)
	return ret
}

// GetLayerSurface turns surface into a layer surface on the given layer.
// The compositor picks the output; namespace identifies the surface role
// to the compositor's policy.
func (p *LayerShell) GetLayerSurface(surface *wl.Surface, layer uint32, namespace string) (*LayerSurface, error) {
	const opcode = 0
	ret := NewLayerSurface(p.Context())
	// The null output lets the compositor choose where the surface lands.
	return ret, p.Context().SendRequest(p, opcode, ret, surface, uint32(0), layer, namespace)
}

// Dispatch implements wl.Dispatcher. The global has no events.
func (p *LayerShell) Dispatch(event *wl.Event) {}

// LayerSurfaceConfigureEvent is sent when the compositor assigns the
// surface its size. It must be acknowledged before the next commit.
type LayerSurfaceConfigureEvent struct {
	Serial uint32
	Width  uint32
	Height uint32
}

// LayerSurfaceClosedEvent is sent when the compositor discards the
// surface, for example because its output disappeared.
type LayerSurfaceClosedEvent struct{}

// LayerSurfaceConfigureHandler receives configure events.
type LayerSurfaceConfigureHandler interface {
	HandleLayerSurfaceConfigure(LayerSurfaceConfigureEvent)
}

// LayerSurfaceClosedHandler receives closed events.
type LayerSurfaceClosedHandler interface {
	HandleLayerSurfaceClosed(LayerSurfaceClosedEvent)
}

// LayerSurface is a client proxy for zwlr_layer_surface_v1.
type LayerSurface struct {
	wl.BaseProxy
	configureHandlers []LayerSurfaceConfigureHandler
	closedHandlers    []LayerSurfaceClosedHandler
}

// NewLayerSurface allocates a LayerSurface proxy and registers it with
// the wire context.
func NewLayerSurface(ctx *wl.Context) *LayerSurface {
	ret := new(LayerSurface)
	ctx.Register(ret)
	return ret
}

// AddConfigureHandler registers h for configure events. Handlers must be
// in place before the surface is committed.
func (p *LayerSurface) AddConfigureHandler(h LayerSurfaceConfigureHandler) {
	if h != nil {
		p.configureHandlers = append(p.configureHandlers, h)
	}
}

// AddClosedHandler registers h for closed events.
func (p *LayerSurface) AddClosedHandler(h LayerSurfaceClosedHandler) {
	if h != nil {
		p.closedHandlers = append(p.closedHandlers, h)
	}
}

// SetSize requests a surface size in pixels. Zero in either dimension
// asks the compositor to choose, which only works when the surface is
// anchored to both opposite edges of that axis.
func (p *LayerSurface) SetSize(width, height uint32) error {
	const opcode = 0
	return p.Context().SendRequest(p, opcode, width, height)
}

// SetAnchor pins the surface to the given edge bitmask.
func (p *LayerSurface) SetAnchor(anchor uint32) error {
	const opcode = 1
	return p.Context().SendRequest(p, opcode, anchor)
}

// SetExclusiveZone reserves space along the anchored edge. Zero reserves
// nothing, negative values let the surface overlap other exclusive zones.
func (p *LayerSurface) SetExclusiveZone(zone int32) error {
	const opcode = 2
	return p.Context().SendRequest(p, opcode, zone)
}

// SetMargin offsets the surface from its anchored edges.
func (p *LayerSurface) SetMargin(top, right, bottom, left int32) error {
	const opcode = 3
	return p.Context().SendRequest(p, opcode, top, right, bottom, left)
}

// SetKeyboardInteractivity declares how the surface takes keyboard focus.
func (p *LayerSurface) SetKeyboardInteractivity(mode uint32) error {
	const opcode = 4
	return p.Context().SendRequest(p, opcode, mode)
}

// AckConfigure acknowledges a configure event by its serial.
func (p *LayerSurface) AckConfigure(serial uint32) error {
	const opcode = 6
	return p.Context().SendRequest(p, opcode, serial)
}

// Destroy destroys the layer surface.
func (p *LayerSurface) Destroy() error {
	const opcode = 7
	return p.Context().SendRequest(p, opcode)
}

// Dispatch implements wl.Dispatcher, decoding layer surface events and
// fanning them out to the registered handlers.
func (p *LayerSurface) Dispatch(event *wl.Event) {
	switch event.Opcode {
	case 0:
		ev := LayerSurfaceConfigureEvent{}
		ev.Serial = event.Uint32()
		ev.Width = event.Uint32()
		ev.Height = event.Uint32()
		for _, h := range p.configureHandlers {
			h.HandleLayerSurfaceConfigure(ev)
		}
	case 1:
		ev := LayerSurfaceClosedEvent{}
		for _, h := range p.closedHandlers {
			h.HandleLayerSurfaceClosed(ev)
		}
	}
}
