package shade

import (
	"fmt"

	"github.com/gogpu/gg"
)

// PaintStyle selects how shapes and completed paths are painted.
type PaintStyle uint8

const (
	// PaintFill fills the interior of shapes and paths.
	PaintFill PaintStyle = iota
	// PaintStroke outlines shapes and paths with the current stroke width.
	PaintStroke
)

// ParsePaintStyle converts the script-facing style string into a PaintStyle.
// Anything other than "fill" or "stroke" is an error.
func ParsePaintStyle(s string) (PaintStyle, error) {
	switch s {
	case "fill":
		return PaintFill, nil
	case "stroke":
		return PaintStroke, nil
	}
	return 0, fmt.Errorf("shade: unknown paint style %q (want \"fill\" or \"stroke\")", s)
}

type segmentOp uint8

const (
	segMove segmentOp = iota
	segLine
	segQuad
	segCubic
	segClose
)

// pathSegment records one script path operation in surface coordinates.
// Segments replay against the raster context when the path is stroked or
// filled, so the transform in effect at paint time applies to the whole
// path.
type pathSegment struct {
	op                 segmentOp
	c1x, c1y, c2x, c2y float64
	x, y               float64
}

// Canvas is a transient drawing surface over one frame buffer. It wraps a
// caller-owned destination byte slice (premultiplied BGRA, the negotiated
// compositor format) and rasterizes through a straight-alpha pixmap that
// Flush converts into the destination.
//
// A Canvas belongs to the single draw invocation using it. The zero value
// is not usable; construct with NewCanvas.
type Canvas struct {
	width  int
	height int
	target []byte

	pixmap *gg.Pixmap
	ctx    *gg.Context

	style       PaintStyle
	color       gg.RGBA
	strokeWidth float64
	path        []pathSegment
}

// NewCanvas wraps target, which must hold at least width*height*4 bytes, as
// a drawable raster surface. Drawing state starts as opaque black fill with
// stroke width 1 and anti-aliasing on.
func NewCanvas(width, height int, target []byte) (*Canvas, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("shade: canvas dimensions %dx%d must be positive", width, height)
	}
	if len(target) < width*height*4 {
		return nil, fmt.Errorf("shade: canvas target holds %d bytes, need %d", len(target), width*height*4)
	}

	pm := gg.NewPixmap(width, height)
	ctx := gg.NewContext(width, height, gg.WithPixmap(pm))
	if face, err := overlayFace(); err == nil {
		ctx.SetFont(face)
	}

	c := &Canvas{
		width:  width,
		height: height,
		target: target,
		pixmap: pm,
		ctx:    ctx,
	}
	c.resetState()
	return c, nil
}

// Rebind points the canvas at a new destination buffer of the same
// dimensions and resets the drawing state for a fresh frame. It lets the
// session reuse the raster backing across frames of unchanged size.
func (c *Canvas) Rebind(target []byte) error {
	if len(target) < c.width*c.height*4 {
		return fmt.Errorf("shade: canvas target holds %d bytes, need %d", len(target), c.width*c.height*4)
	}
	c.target = target
	c.resetState()
	return nil
}

func (c *Canvas) resetState() {
	c.style = PaintFill
	c.color = gg.RGBA{A: 1}
	c.strokeWidth = 1
	c.path = c.path[:0]
	c.ctx.Identity()
	c.ctx.ClearPath()
}

// Width returns the canvas width in pixels.
func (c *Canvas) Width() int { return c.width }

// Height returns the canvas height in pixels.
func (c *Canvas) Height() int { return c.height }

// Clear fills the whole canvas with the given 32-bit ARGB color, ignoring
// the current transform and paint state.
func (c *Canvas) Clear(argb uint32) {
	c.ctx.ClearWithColor(argbColor(argb))
}

// SetPaintColour sets the paint color from a 32-bit ARGB value.
func (c *Canvas) SetPaintColour(argb uint32) {
	c.color = argbColor(argb)
}

// SetPaintStyle switches between filling and stroking.
func (c *Canvas) SetPaintStyle(style PaintStyle) {
	c.style = style
}

// SetStrokeWidth sets the stroke width in pixels.
func (c *Canvas) SetStrokeWidth(w float64) {
	c.strokeWidth = w
}

// Translate moves the origin of subsequent drawing operations.
func (c *Canvas) Translate(dx, dy float64) {
	c.ctx.Translate(dx, dy)
}

// Scale scales subsequent drawing operations.
func (c *Canvas) Scale(sx, sy float64) {
	c.ctx.Scale(sx, sy)
}

// DrawRect paints an axis-aligned rectangle with the current paint.
func (c *Canvas) DrawRect(x, y, w, h float64) {
	c.applyPaint()
	c.ctx.DrawRectangle(x, y, w, h)
	c.paintCurrent()
}

// DrawCircle paints a circle centered on (x, y) with the current paint.
func (c *Canvas) DrawCircle(x, y, r float64) {
	c.applyPaint()
	c.ctx.DrawCircle(x, y, r)
	c.paintCurrent()
}

// DrawLine strokes a line segment with the current stroke width regardless
// of paint style.
func (c *Canvas) DrawLine(x0, y0, x1, y1 float64) {
	c.applyPaint()
	c.ctx.DrawLine(x0, y0, x1, y1)
	_ = c.ctx.Stroke()
}

// DrawText draws s with its baseline origin at (x, y) in the overlay
// monospace face, using the current paint color. The current translation
// applies to the origin.
func (c *Canvas) DrawText(x, y float64, s string) {
	c.applyPaint()
	tx, ty := c.ctx.TransformPoint(x, y)
	c.ctx.DrawString(s, tx, ty)
}

// DrawImage loads the encoded image at path and draws it scaled into the
// w x h rectangle at (x, y). Decode and read failures are returned to the
// caller; the canvas is left unchanged.
func (c *Canvas) DrawImage(x, y, w, h float64, path string) error {
	img, err := gg.LoadImage(path)
	if err != nil {
		return fmt.Errorf("shade: load image %s: %w", path, err)
	}
	c.ctx.DrawImageEx(img, gg.DrawImageOptions{
		X:         x,
		Y:         y,
		DstWidth:  w,
		DstHeight: h,
	})
	return nil
}

// PathBeginFrom discards any recorded path and starts a new one at (x, y).
func (c *Canvas) PathBeginFrom(x, y float64) {
	c.path = c.path[:0]
	c.path = append(c.path, pathSegment{op: segMove, x: x, y: y})
}

// PathLineTo extends the recorded path with a straight segment.
func (c *Canvas) PathLineTo(x, y float64) {
	c.path = append(c.path, pathSegment{op: segLine, x: x, y: y})
}

// PathQuadTo extends the recorded path with a quadratic Bezier segment.
func (c *Canvas) PathQuadTo(cx, cy, x, y float64) {
	c.path = append(c.path, pathSegment{op: segQuad, c1x: cx, c1y: cy, x: x, y: y})
}

// PathBezierCurveTo extends the recorded path with a cubic Bezier segment.
func (c *Canvas) PathBezierCurveTo(c1x, c1y, c2x, c2y, x, y float64) {
	c.path = append(c.path, pathSegment{op: segCubic, c1x: c1x, c1y: c1y, c2x: c2x, c2y: c2y, x: x, y: y})
}

// PathClose closes the current subpath.
func (c *Canvas) PathClose() {
	c.path = append(c.path, pathSegment{op: segClose})
}

// DrawPathStroke switches the paint style to stroke and outlines the
// recorded path. The path stays recorded and can be painted again.
func (c *Canvas) DrawPathStroke() {
	c.style = PaintStroke
	c.applyPaint()
	c.replayPath()
	_ = c.ctx.Stroke()
}

// DrawPathFill switches the paint style to fill and fills the recorded
// path. The path stays recorded and can be painted again.
func (c *Canvas) DrawPathFill() {
	c.style = PaintFill
	c.applyPaint()
	c.replayPath()
	_ = c.ctx.Fill()
}

// Pixel returns the canvas pixel at (x, y) as 32-bit ARGB. Out-of-bounds
// coordinates return zero.
func (c *Canvas) Pixel(x, y int) uint32 {
	return colorARGB(c.pixmap.GetPixel(x, y))
}

// Flush converts the straight-alpha raster contents into the destination
// buffer's premultiplied BGRA byte order. Call once per frame, after all
// drawing for the frame is done.
func (c *Canvas) Flush() {
	src := c.pixmap.Data()
	n := c.width * c.height * 4
	dst := c.target[:n]
	for i := 0; i < n; i += 4 {
		r, g, b, a := src[i], src[i+1], src[i+2], src[i+3]
		switch a {
		case 0xFF:
			dst[i], dst[i+1], dst[i+2], dst[i+3] = b, g, r, 0xFF
		case 0:
			dst[i], dst[i+1], dst[i+2], dst[i+3] = 0, 0, 0, 0
		default:
			aw := uint32(a)
			dst[i+0] = uint8((uint32(b)*aw + 127) / 255)
			dst[i+1] = uint8((uint32(g)*aw + 127) / 255)
			dst[i+2] = uint8((uint32(r)*aw + 127) / 255)
			dst[i+3] = a
		}
	}
}

// drawFPS paints the frame-rate diagnostic in the top-left corner: a
// yellow plate with a black outline and the rate as "Nfps" text.
func (c *Canvas) drawFPS(fps int) {
	s := fmt.Sprintf("%dfps", fps)

	const (
		padding      = 4.0
		outlineWidth = 2.0
	)
	offset := padding + outlineWidth/2

	w, h := c.ctx.MeasureString(s)
	if w == 0 {
		return
	}

	c.SetPaintColour(0xFFFFFF00)
	c.DrawRect(offset-padding, offset-padding, w+padding*2, h+padding*2)

	c.SetPaintColour(0xFF000000)
	c.SetStrokeWidth(outlineWidth)
	c.style = PaintStroke
	c.DrawRect(offset-padding, offset-padding, w+padding*2, h+padding*2)

	c.strokeWidth = 1
	c.style = PaintFill

	c.DrawText(offset, offset+h*0.8, s)
}

// applyPaint pushes the canvas paint state into the raster context.
func (c *Canvas) applyPaint() {
	c.ctx.SetRGBA(c.color.R, c.color.G, c.color.B, c.color.A)
	c.ctx.SetLineWidth(c.strokeWidth)
}

// paintCurrent fills or strokes the context's pending shape per the
// current paint style.
func (c *Canvas) paintCurrent() {
	if c.style == PaintStroke {
		_ = c.ctx.Stroke()
		return
	}
	_ = c.ctx.Fill()
}

// replayPath rebuilds the recorded path in the raster context so the
// transform in effect now applies to every segment.
func (c *Canvas) replayPath() {
	c.ctx.ClearPath()
	for _, seg := range c.path {
		switch seg.op {
		case segMove:
			c.ctx.MoveTo(seg.x, seg.y)
		case segLine:
			c.ctx.LineTo(seg.x, seg.y)
		case segQuad:
			c.ctx.QuadraticTo(seg.c1x, seg.c1y, seg.x, seg.y)
		case segCubic:
			c.ctx.CubicTo(seg.c1x, seg.c1y, seg.c2x, seg.c2y, seg.x, seg.y)
		case segClose:
			c.ctx.ClosePath()
		}
	}
}

// argbColor converts a packed 32-bit ARGB value into a gg color.
func argbColor(argb uint32) gg.RGBA {
	return gg.RGBA{
		A: float64(argb>>24&0xFF) / 255,
		R: float64(argb>>16&0xFF) / 255,
		G: float64(argb>>8&0xFF) / 255,
		B: float64(argb&0xFF) / 255,
	}
}

// colorARGB packs a gg color into 32-bit ARGB.
func colorARGB(c gg.RGBA) uint32 {
	clamp := func(v float64) uint32 {
		if v <= 0 {
			return 0
		}
		if v >= 1 {
			return 255
		}
		return uint32(v*255 + 0.5)
	}
	return clamp(c.A)<<24 | clamp(c.R)<<16 | clamp(c.G)<<8 | clamp(c.B)
}
