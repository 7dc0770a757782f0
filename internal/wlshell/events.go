package wlshell

// Event is a protocol notification forwarded from the dispatch goroutine
// to the session loop. Values are plain data; no protocol objects leak
// through them.
type Event interface {
	shellEvent()
}

// Configure reports a surface size proposal from the compositor. It must
// be acknowledged with the same serial before the next commit.
type Configure struct {
	Serial uint32
	Width  uint32
	Height uint32
}

// Closed reports that the compositor is done with the surface. No further
// drawing is valid.
type Closed struct{}

// FrameDone reports that the previously requested frame callback fired:
// the compositor consumed the last buffer and a new frame may be drawn.
type FrameDone struct{}

// SeatCapabilities reports the current input device set of the seat.
type SeatCapabilities struct {
	Pointer  bool
	Keyboard bool
}

// PointerEnter reports the pointer entering this surface at the given
// surface-local position.
type PointerEnter struct {
	X float64
	Y float64
}

// PointerLeave reports the pointer leaving this surface.
type PointerLeave struct{}

// PointerMotion reports pointer motion in surface-local coordinates.
type PointerMotion struct {
	X float64
	Y float64
}

// PointerButton reports a pointer button state change.
type PointerButton struct {
	Button  uint32
	Pressed bool
}

// KeyboardEnter reports this surface gaining keyboard focus.
type KeyboardEnter struct{}

// KeyboardLeave reports this surface losing keyboard focus.
type KeyboardLeave struct{}

// KeyboardKey reports a key state change while focused.
type KeyboardKey struct {
	Key     uint32
	Pressed bool
}

// KeyboardModifiers reports the currently depressed modifier set, already
// decoded from the seat's modifier bitmask.
type KeyboardModifiers struct {
	Control bool
	Shift   bool
	Alt     bool
	Meta    bool
}

func (Configure) shellEvent()         {}
func (Closed) shellEvent()            {}
func (FrameDone) shellEvent()         {}
func (SeatCapabilities) shellEvent()  {}
func (PointerEnter) shellEvent()      {}
func (PointerLeave) shellEvent()      {}
func (PointerMotion) shellEvent()     {}
func (PointerButton) shellEvent()     {}
func (KeyboardEnter) shellEvent()     {}
func (KeyboardLeave) shellEvent()     {}
func (KeyboardKey) shellEvent()       {}
func (KeyboardModifiers) shellEvent() {}

// SurfaceSpec is the protocol-level description of the layer surface to
// negotiate. Values use the wire enums of zwlr_layer_shell_v1 directly.
type SurfaceSpec struct {
	Width         uint32
	Height        uint32
	Layer         uint32
	Anchor        uint32
	ExclusiveZone int32

	MarginTop    int32
	MarginRight  int32
	MarginBottom int32
	MarginLeft   int32

	// KeyboardInteractivity is the zwlr_layer_surface_v1 enum value.
	// Requested values above what the bound protocol version supports are
	// clamped to exclusive.
	KeyboardInteractivity uint32

	Namespace string
}

// BufferHandle identifies one compositor-visible pixel buffer. Destroy
// releases the protocol object; the backing memory is the caller's.
type BufferHandle interface {
	Destroy()
}
