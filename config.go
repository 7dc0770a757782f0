package shade

import (
	"fmt"
	"strings"
)

// Layer is the stacking class a surface is composited into. Values match
// the zwlr_layer_shell_v1 layer enum.
type Layer uint32

const (
	LayerBackground Layer = 0
	LayerBottom     Layer = 1
	LayerTop        Layer = 2
	LayerOverlay    Layer = 3
)

// ParseLayer converts a configuration string into a Layer.
func ParseLayer(s string) (Layer, error) {
	switch strings.ToLower(s) {
	case "background":
		return LayerBackground, nil
	case "bottom":
		return LayerBottom, nil
	case "top":
		return LayerTop, nil
	case "overlay":
		return LayerOverlay, nil
	}
	return 0, fmt.Errorf("shade: unknown layer %q (want background, bottom, top or overlay)", s)
}

// String returns the configuration spelling of the layer.
func (l Layer) String() string {
	switch l {
	case LayerBackground:
		return "background"
	case LayerBottom:
		return "bottom"
	case LayerTop:
		return "top"
	case LayerOverlay:
		return "overlay"
	}
	return fmt.Sprintf("Layer(%d)", uint32(l))
}

// Anchor is a bitmask of surface edges attached to the output edges.
// Values match the zwlr_layer_surface_v1 anchor enum and the integer
// bitmask scripts pass in their configuration (1=top, 2=bottom, 4=left,
// 8=right, combinable). Zero means unanchored (centered).
type Anchor uint32

const (
	AnchorTop    Anchor = 1 << 0
	AnchorBottom Anchor = 1 << 1
	AnchorLeft   Anchor = 1 << 2
	AnchorRight  Anchor = 1 << 3

	anchorAll = AnchorTop | AnchorBottom | AnchorLeft | AnchorRight
)

// Has reports whether every edge in mask is set.
func (a Anchor) Has(mask Anchor) bool { return a&mask == mask }

func (a Anchor) String() string {
	if a == 0 {
		return "none"
	}
	var parts []string
	if a.Has(AnchorTop) {
		parts = append(parts, "top")
	}
	if a.Has(AnchorBottom) {
		parts = append(parts, "bottom")
	}
	if a.Has(AnchorLeft) {
		parts = append(parts, "left")
	}
	if a.Has(AnchorRight) {
		parts = append(parts, "right")
	}
	return strings.Join(parts, "|")
}

// Margin is the distance in pixels between each anchored surface edge and
// its output edge. Sides that are not anchored ignore their margin.
type Margin struct {
	Top    int32
	Right  int32
	Bottom int32
	Left   int32
}

// SurfaceConfig describes the surface a session negotiates with the
// compositor. It is immutable once the surface is created, except for
// Width and Height, which the compositor may override through configure
// notifications.
type SurfaceConfig struct {
	// Width and Height are the requested surface dimensions in pixels.
	// Both must be nonzero after the first configure.
	Width  uint32
	Height uint32

	// ExclusiveZone requests that the compositor reserve this many pixels
	// along the anchored edge. -1 asks the compositor to leave the surface
	// alone (the usual choice for overlays).
	ExclusiveZone int32

	// Layer selects the stacking class.
	Layer Layer

	// Anchor attaches surface edges to output edges. Zero leaves the
	// surface centered.
	Anchor Anchor

	// Margin offsets the surface from its anchored edges.
	Margin Margin

	// Namespace identifies the surface role to the compositor.
	Namespace string
}

// DefaultConfig returns the configuration used when a script omits
// optional fields: a 100x256 panel on the bottom layer, anchored to the
// top edge, with no exclusive zone.
func DefaultConfig() SurfaceConfig {
	return SurfaceConfig{
		Width:         100,
		Height:        256,
		ExclusiveZone: -1,
		Layer:         LayerBottom,
		Anchor:        AnchorTop,
	}
}

// Validate reports whether the configuration can be negotiated.
func (c SurfaceConfig) Validate() error {
	if c.Width == 0 {
		return fmt.Errorf("shade: a window must have a set width")
	}
	if c.Height == 0 {
		return fmt.Errorf("shade: a window must have a set height")
	}
	if c.Layer > LayerOverlay {
		return fmt.Errorf("shade: unknown layer %d", uint32(c.Layer))
	}
	if c.Anchor&^anchorAll != 0 {
		return fmt.Errorf("shade: anchor bits %#x outside top|bottom|left|right", uint32(c.Anchor))
	}
	return nil
}
