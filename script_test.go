package shade

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const minimalScript = `
function config() {
	return { width: 100, height: 100, layer: "bottom" };
}
function draw(c) {}
`

func loadTestScript(t *testing.T, src string) *Host {
	t.Helper()
	h, err := LoadScriptSource("test.js", src)
	if err != nil {
		t.Fatalf("LoadScriptSource: %v", err)
	}
	return h
}

// TestLoadScript verifies file loading and entry-point resolution.
func TestLoadScript(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overlay.js")
	if err := os.WriteFile(path, []byte(minimalScript), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}

	h, err := LoadScript(path)
	if err != nil {
		t.Fatalf("LoadScript: %v", err)
	}
	if _, err := h.Config(); err != nil {
		t.Errorf("Config: %v", err)
	}

	if _, err := LoadScript(filepath.Join(t.TempDir(), "absent.js")); err == nil {
		t.Error("LoadScript with missing file: expected error")
	}
}

// TestLoadScriptEntryPoints verifies both entry points must exist and be
// callable.
func TestLoadScriptEntryPoints(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr string
	}{
		{"both present", minimalScript, ""},
		{"missing config", `function draw(c) {}`, `"config" is not defined`},
		{"missing draw", `function config() { return {}; }`, `"draw" is not defined`},
		{"config not callable", `var config = 5; function draw(c) {}`, `"config" is not callable`},
		{"draw not callable", `function config() { return {}; } var draw = "nope";`, `"draw" is not callable`},
		{"syntax error", `function config( {`, "run script"},
		{"throw at load", `throw new Error("broken");`, "broken"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScriptSource("test.js", tt.src)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("LoadScriptSource: %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("LoadScriptSource: nil error, want %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("LoadScriptSource error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

// TestHostConfig verifies full record extraction.
func TestHostConfig(t *testing.T) {
	h := loadTestScript(t, `
function config() {
	return {
		width: 320,
		height: 48,
		layer: "overlay",
		anchor: 1 | 4 | 8,
		exclusive_zone: 48,
		namespace: "statusbar",
		margin: { top: 4, right: 8, bottom: 0, left: 8 },
		surprise: "ignored",
	};
}
function draw(c) {}
`)

	got, err := h.Config()
	if err != nil {
		t.Fatalf("Config: %v", err)
	}
	want := SurfaceConfig{
		Width:         320,
		Height:        48,
		ExclusiveZone: 48,
		Layer:         LayerOverlay,
		Anchor:        AnchorTop | AnchorLeft | AnchorRight,
		Margin:        Margin{Top: 4, Right: 8, Bottom: 0, Left: 8},
		Namespace:     "statusbar",
	}
	if got != want {
		t.Errorf("Config() = %+v, want %+v", got, want)
	}
}

// TestHostConfigDefaults verifies optional keys fall back to the package
// defaults when the record omits them.
func TestHostConfigDefaults(t *testing.T) {
	h := loadTestScript(t, minimalScript)

	got, err := h.Config()
	if err != nil {
		t.Fatalf("Config: %v", err)
	}

	def := DefaultConfig()
	if got.ExclusiveZone != def.ExclusiveZone {
		t.Errorf("ExclusiveZone = %d, want %d", got.ExclusiveZone, def.ExclusiveZone)
	}
	if got.Anchor != def.Anchor {
		t.Errorf("Anchor = %v, want %v", got.Anchor, def.Anchor)
	}
	if got.Margin != (Margin{}) {
		t.Errorf("Margin = %+v, want zero", got.Margin)
	}
	if got.Namespace != "" {
		t.Errorf("Namespace = %q, want empty", got.Namespace)
	}
}

// TestHostConfigErrors verifies each missing required key is its own error.
func TestHostConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		ret     string
		wantErr string
	}{
		{"missing width", `{ height: 10, layer: "top" }`, "a window must have a set width"},
		{"missing height", `{ width: 10, layer: "top" }`, "a window must have a set height"},
		{"missing layer", `{ width: 10, height: 10 }`, "a window must have a set layer"},
		{"null width", `{ width: null, height: 10, layer: "top" }`, "a window must have a set width"},
		{"zero width", `{ width: 0, height: 10, layer: "top" }`, "a window must have a set width"},
		{"negative width", `{ width: -4, height: 10, layer: "top" }`, "out of range"},
		{"bad layer", `{ width: 10, height: 10, layer: "penthouse" }`, "unknown layer"},
		{"bad anchor", `{ width: 10, height: 10, layer: "top", anchor: 512 }`, "anchor bits"},
		{"null record", `null`, "must return an object"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := loadTestScript(t, `
function config() { return `+tt.ret+`; }
function draw(c) {}
`)
			_, err := h.Config()
			if err == nil {
				t.Fatalf("Config: nil error, want %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Config error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

// TestHostConfigThrow verifies a throwing config callback surfaces as an
// error.
func TestHostConfigThrow(t *testing.T) {
	h := loadTestScript(t, `
function config() { throw new Error("no config today"); }
function draw(c) {}
`)
	if _, err := h.Config(); err == nil || !strings.Contains(err.Error(), "no config today") {
		t.Errorf("Config error = %v, want the thrown message", err)
	}
}

// TestHostConfigIdempotent verifies extracting the same record twice yields
// identical configurations.
func TestHostConfigIdempotent(t *testing.T) {
	h := loadTestScript(t, `
var record = { width: 64, height: 32, layer: "top", anchor: 3 };
function config() { return record; }
function draw(c) {}
`)

	first, err := h.Config()
	if err != nil {
		t.Fatalf("first Config: %v", err)
	}
	second, err := h.Config()
	if err != nil {
		t.Fatalf("second Config: %v", err)
	}
	if first != second {
		t.Errorf("extraction not idempotent: %+v then %+v", first, second)
	}
	if first.Anchor != AnchorTop|AnchorBottom {
		t.Errorf("Anchor = %v, want top|bottom", first.Anchor)
	}
}

// TestHostDraw verifies the draw callback paints through the canvas handle.
func TestHostDraw(t *testing.T) {
	h := loadTestScript(t, `
function config() { return { width: 100, height: 100, layer: "bottom" }; }
function draw(c) {
	c.clear(0xFF000000);
	c.set_paint_colour(0xFFFFFFFF);
	c.draw_circle(50, 50, 10);
}
`)

	c := newTestCanvas(t, 100, 100)
	if err := h.Draw(c); err != nil {
		t.Fatalf("Draw: %v", err)
	}

	if got := c.Pixel(50, 50); got == 0xFF000000 {
		t.Errorf("pixel (50, 50) = %#08x, want different from background", got)
	}
	assertPixel(t, c, 0, 0, 0xFF000000, 0)
}

// TestHostDrawPath verifies path construction and painting through the
// handle.
func TestHostDrawPath(t *testing.T) {
	h := loadTestScript(t, `
function config() { return { width: 100, height: 100, layer: "bottom" }; }
function draw(c) {
	c.clear(0xFF707070);
	c.set_paint_colour(0xFF00FF00);
	c.path_begin_from(50, 10);
	c.path_line_to(90, 90);
	c.path_line_to(10, 90);
	c.path_close();
	c.draw_path_fill();
	c.translate(0, 0);
	c.scale(1, 1);
}
`)

	c := newTestCanvas(t, 100, 100)
	if err := h.Draw(c); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	assertPixel(t, c, 50, 60, 0xFF00FF00, 0)
	assertPixel(t, c, 5, 5, 0xFF707070, 0)
}

// TestHostDrawThrow verifies a throwing draw callback surfaces as an error.
func TestHostDrawThrow(t *testing.T) {
	h := loadTestScript(t, `
function config() { return { width: 10, height: 10, layer: "bottom" }; }
function draw(c) { throw new Error("flat tire"); }
`)
	err := h.Draw(newTestCanvas(t, 10, 10))
	if err == nil || !strings.Contains(err.Error(), "flat tire") {
		t.Errorf("Draw error = %v, want the thrown message", err)
	}
}

// TestHostDrawBadPaintStyle verifies unknown style strings fail the draw
// call.
func TestHostDrawBadPaintStyle(t *testing.T) {
	h := loadTestScript(t, `
function config() { return { width: 10, height: 10, layer: "bottom" }; }
function draw(c) { c.set_paint_style("zigzag"); }
`)
	err := h.Draw(newTestCanvas(t, 10, 10))
	if err == nil || !strings.Contains(err.Error(), "unknown paint style") {
		t.Errorf("Draw error = %v, want unknown paint style", err)
	}
}

// TestHostDrawRetainedHandle verifies a handle saved across draw calls is
// dead on the next call.
func TestHostDrawRetainedHandle(t *testing.T) {
	h := loadTestScript(t, `
var saved = null;
function config() { return { width: 10, height: 10, layer: "bottom" }; }
function draw(c) {
	if (saved !== null) {
		saved.draw_rect(0, 0, 5, 5);
		return;
	}
	saved = c;
}
`)

	if err := h.Draw(newTestCanvas(t, 10, 10)); err != nil {
		t.Fatalf("first Draw: %v", err)
	}
	err := h.Draw(newTestCanvas(t, 10, 10))
	if err == nil || !strings.Contains(err.Error(), "outside its draw call") {
		t.Errorf("second Draw error = %v, want stale-handle failure", err)
	}
}

// TestHostDrawImageSkip verifies an unreadable image logs a warning and the
// draw call still succeeds.
func TestHostDrawImageSkip(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))

	h := loadTestScript(t, `
function config() { return { width: 20, height: 20, layer: "bottom" }; }
function draw(c) {
	c.clear(0xFF707070);
	c.draw_image(0, 0, 8, 8, "/nonexistent/swatch.png");
	c.set_paint_colour(0xFFFF0000);
	c.draw_rect(0, 0, 4, 4);
}
`)

	c := newTestCanvas(t, 20, 20)
	if err := h.Draw(c); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if !strings.Contains(buf.String(), "image draw skipped") {
		t.Errorf("log output %q missing the skip warning", buf.String())
	}
	// Drawing after the skipped operation still lands.
	assertPixel(t, c, 2, 2, 0xFFFF0000, 0)
}

// TestHostConsole verifies script console output routes through the package
// logger.
func TestHostConsole(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))

	loadTestScript(t, `
console.log("hello from", "the overlay");
print("printed too");
function config() { return { width: 10, height: 10, layer: "bottom" }; }
function draw(c) {}
`)

	out := buf.String()
	if !strings.Contains(out, "hello from the overlay") {
		t.Errorf("log output %q missing console.log message", out)
	}
	if !strings.Contains(out, "printed too") {
		t.Errorf("log output %q missing print message", out)
	}
}
