package shade

import (
	"fmt"
	"math"
	"os"

	"github.com/dop251/goja"
)

// Host owns the embedded JavaScript environment for one session. The
// program is executed once at load time and must leave two callables in
// its global namespace: config, a zero-argument function returning the
// surface configuration record, and draw, a one-argument function invoked
// once per displayed frame with a canvas handle.
//
// A Host is confined to the goroutine running the session loop. Nothing
// else in the script environment is inspected beyond the two entry points.
type Host struct {
	vm     *goja.Runtime
	config goja.Callable
	draw   goja.Callable
	name   string
}

// LoadScript reads and executes the script file, then resolves both entry
// points. Any execution error or missing entry point is fatal for startup.
func LoadScript(path string) (*Host, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("shade: read script: %w", err)
	}
	return LoadScriptSource(path, string(src))
}

// LoadScriptSource executes script source held in memory. The name labels
// the program in stack traces.
func LoadScriptSource(name, src string) (*Host, error) {
	vm := goja.New()
	h := &Host{vm: vm, name: name}
	h.setupGlobals()

	if _, err := vm.RunScript(name, src); err != nil {
		return nil, fmt.Errorf("shade: run script %s: %w", name, err)
	}

	var err error
	if h.config, err = callable(vm, "config"); err != nil {
		return nil, fmt.Errorf("shade: script %s: %w", name, err)
	}
	if h.draw, err = callable(vm, "draw"); err != nil {
		return nil, fmt.Errorf("shade: script %s: %w", name, err)
	}
	return h, nil
}

// setupGlobals installs the console bridge. Script console output is routed
// through the package logger, so it is silent unless SetLogger was called.
func (h *Host) setupGlobals() {
	console := h.vm.NewObject()
	_ = console.Set("log", h.makeConsoleFunc(func(msg string) { Logger().Info(msg, "source", h.name) }))
	_ = console.Set("info", h.makeConsoleFunc(func(msg string) { Logger().Info(msg, "source", h.name) }))
	_ = console.Set("warn", h.makeConsoleFunc(func(msg string) { Logger().Warn(msg, "source", h.name) }))
	_ = console.Set("error", h.makeConsoleFunc(func(msg string) { Logger().Error(msg, "source", h.name) }))
	_ = h.vm.Set("console", console)
	_ = h.vm.Set("print", h.makeConsoleFunc(func(msg string) { Logger().Info(msg, "source", h.name) }))
}

func (h *Host) makeConsoleFunc(emit func(string)) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		var msg string
		for i, arg := range call.Arguments {
			if i > 0 {
				msg += " "
			}
			msg += arg.String()
		}
		emit(msg)
		return goja.Undefined()
	}
}

// callable resolves a named global entry point as a function.
func callable(vm *goja.Runtime, name string) (goja.Callable, error) {
	v := vm.Get(name)
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil, fmt.Errorf("global %q is not defined", name)
	}
	fn, ok := goja.AssertFunction(v)
	if !ok {
		return nil, fmt.Errorf("global %q is not callable", name)
	}
	return fn, nil
}

// Config invokes the script's config entry point and converts the returned
// record into a SurfaceConfig. Required keys are width, height and layer;
// each absence is its own error. Optional keys take the defaults from
// DefaultConfig, and unknown keys are ignored.
func (h *Host) Config() (SurfaceConfig, error) {
	v, err := h.config(goja.Undefined())
	if err != nil {
		return SurfaceConfig{}, fmt.Errorf("shade: config callback: %w", err)
	}
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return SurfaceConfig{}, fmt.Errorf("shade: config must return an object")
	}
	obj := v.ToObject(h.vm)

	cfg := DefaultConfig()

	wv, ok := field(obj, "width")
	if !ok {
		return SurfaceConfig{}, fmt.Errorf("shade: a window must have a set width")
	}
	if cfg.Width, err = dimension(wv, "width"); err != nil {
		return SurfaceConfig{}, err
	}

	hv, ok := field(obj, "height")
	if !ok {
		return SurfaceConfig{}, fmt.Errorf("shade: a window must have a set height")
	}
	if cfg.Height, err = dimension(hv, "height"); err != nil {
		return SurfaceConfig{}, err
	}

	lv, ok := field(obj, "layer")
	if !ok {
		return SurfaceConfig{}, fmt.Errorf("shade: a window must have a set layer")
	}
	if cfg.Layer, err = ParseLayer(lv.String()); err != nil {
		return SurfaceConfig{}, err
	}

	if av, ok := field(obj, "anchor"); ok {
		cfg.Anchor = Anchor(av.ToInteger())
	}
	if zv, ok := field(obj, "exclusive_zone"); ok {
		cfg.ExclusiveZone = int32(zv.ToInteger())
	}
	if nv, ok := field(obj, "namespace"); ok {
		cfg.Namespace = nv.String()
	}
	if mv, ok := field(obj, "margin"); ok {
		margin := mv.ToObject(h.vm)
		if tv, ok := field(margin, "top"); ok {
			cfg.Margin.Top = int32(tv.ToInteger())
		}
		if rv, ok := field(margin, "right"); ok {
			cfg.Margin.Right = int32(rv.ToInteger())
		}
		if bv, ok := field(margin, "bottom"); ok {
			cfg.Margin.Bottom = int32(bv.ToInteger())
		}
		if lv, ok := field(margin, "left"); ok {
			cfg.Margin.Left = int32(lv.ToInteger())
		}
	}

	if err := cfg.Validate(); err != nil {
		return SurfaceConfig{}, err
	}
	return cfg, nil
}

// Draw invokes the script's draw entry point with a scoped handle over c.
// The handle is invalidated when Draw returns; a script that retained it
// gets an error on any later use.
func (h *Host) Draw(c *Canvas) error {
	handle := &canvasHandle{vm: h.vm, canvas: c}
	defer func() { handle.canvas = nil }()

	if _, err := h.draw(goja.Undefined(), handle.object()); err != nil {
		return fmt.Errorf("shade: draw callback: %w", err)
	}
	return nil
}

// field returns the named property, reporting absence for missing,
// undefined and null values alike.
func field(obj *goja.Object, key string) (goja.Value, bool) {
	v := obj.Get(key)
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil, false
	}
	return v, true
}

func dimension(v goja.Value, key string) (uint32, error) {
	n := v.ToInteger()
	if n < 0 || n > math.MaxUint32 {
		return 0, fmt.Errorf("shade: %s %d out of range", key, n)
	}
	return uint32(n), nil
}

// canvasHandle is the per-call script view of a Canvas. Its methods close
// over the canvas pointer, which Draw nils on return; use after that point
// throws in the script.
type canvasHandle struct {
	vm     *goja.Runtime
	canvas *Canvas
}

func (h *canvasHandle) use() *Canvas {
	if h.canvas == nil {
		panic(h.vm.NewTypeError("shade: canvas handle used outside its draw call"))
	}
	return h.canvas
}

func (h *canvasHandle) num(call goja.FunctionCall, i int) float64 {
	return call.Argument(i).ToFloat()
}

// object builds the script-facing method table for this call.
func (h *canvasHandle) object() *goja.Object {
	obj := h.vm.NewObject()

	set := func(name string, fn func(goja.FunctionCall) goja.Value) {
		_ = obj.Set(name, fn)
	}

	set("clear", func(call goja.FunctionCall) goja.Value {
		h.use().Clear(uint32(call.Argument(0).ToInteger()))
		return goja.Undefined()
	})
	set("draw_rect", func(call goja.FunctionCall) goja.Value {
		h.use().DrawRect(h.num(call, 0), h.num(call, 1), h.num(call, 2), h.num(call, 3))
		return goja.Undefined()
	})
	set("draw_circle", func(call goja.FunctionCall) goja.Value {
		h.use().DrawCircle(h.num(call, 0), h.num(call, 1), h.num(call, 2))
		return goja.Undefined()
	})
	set("draw_line", func(call goja.FunctionCall) goja.Value {
		h.use().DrawLine(h.num(call, 0), h.num(call, 1), h.num(call, 2), h.num(call, 3))
		return goja.Undefined()
	})
	set("draw_text", func(call goja.FunctionCall) goja.Value {
		h.use().DrawText(h.num(call, 0), h.num(call, 1), call.Argument(2).String())
		return goja.Undefined()
	})
	set("draw_image", func(call goja.FunctionCall) goja.Value {
		c := h.use()
		path := call.Argument(4).String()
		if err := c.DrawImage(h.num(call, 0), h.num(call, 1), h.num(call, 2), h.num(call, 3), path); err != nil {
			Logger().Warn("image draw skipped", "path", path, "error", err)
		}
		return goja.Undefined()
	})
	set("path_begin_from", func(call goja.FunctionCall) goja.Value {
		h.use().PathBeginFrom(h.num(call, 0), h.num(call, 1))
		return goja.Undefined()
	})
	set("path_line_to", func(call goja.FunctionCall) goja.Value {
		h.use().PathLineTo(h.num(call, 0), h.num(call, 1))
		return goja.Undefined()
	})
	set("path_quad_to", func(call goja.FunctionCall) goja.Value {
		h.use().PathQuadTo(h.num(call, 0), h.num(call, 1), h.num(call, 2), h.num(call, 3))
		return goja.Undefined()
	})
	set("path_bezier_curve_to", func(call goja.FunctionCall) goja.Value {
		h.use().PathBezierCurveTo(h.num(call, 0), h.num(call, 1), h.num(call, 2), h.num(call, 3), h.num(call, 4), h.num(call, 5))
		return goja.Undefined()
	})
	set("path_close", func(call goja.FunctionCall) goja.Value {
		h.use().PathClose()
		return goja.Undefined()
	})
	set("draw_path_stroke", func(call goja.FunctionCall) goja.Value {
		h.use().DrawPathStroke()
		return goja.Undefined()
	})
	set("draw_path_fill", func(call goja.FunctionCall) goja.Value {
		h.use().DrawPathFill()
		return goja.Undefined()
	})
	set("set_paint_colour", func(call goja.FunctionCall) goja.Value {
		h.use().SetPaintColour(uint32(call.Argument(0).ToInteger()))
		return goja.Undefined()
	})
	set("set_paint_style", func(call goja.FunctionCall) goja.Value {
		c := h.use()
		style, err := ParsePaintStyle(call.Argument(0).String())
		if err != nil {
			panic(h.vm.NewTypeError(err.Error()))
		}
		c.SetPaintStyle(style)
		return goja.Undefined()
	})
	set("set_stroke_width", func(call goja.FunctionCall) goja.Value {
		h.use().SetStrokeWidth(h.num(call, 0))
		return goja.Undefined()
	})
	set("translate", func(call goja.FunctionCall) goja.Value {
		h.use().Translate(h.num(call, 0), h.num(call, 1))
		return goja.Undefined()
	})
	set("scale", func(call goja.FunctionCall) goja.Value {
		h.use().Scale(h.num(call, 0), h.num(call, 1))
		return goja.Undefined()
	})
	set("width", func(call goja.FunctionCall) goja.Value {
		return h.vm.ToValue(h.use().Width())
	})
	set("height", func(call goja.FunctionCall) goja.Value {
		return h.vm.ToValue(h.use().Height())
	})

	return obj
}
