// Package shade runs script-driven overlay surfaces on Wayland desktops.
//
// # Overview
//
// shade keeps a persistent layer-shell surface on screen and redraws it
// every frame under the control of an embedded JavaScript program. The
// script decides where the surface sits (layer, anchors, margins,
// exclusive zone) and what each frame looks like, through a small
// immediate-mode canvas API backed by gogpu/gg.
//
// # Quick Start
//
//	import "github.com/gogpu/shade"
//
//	host, err := shade.LoadScript("overlay.js")
//	if err != nil {
//		log.Fatal(err)
//	}
//	cfg, err := host.Config()
//	if err != nil {
//		log.Fatal(err)
//	}
//	session, err := shade.NewSession(cfg, host)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer session.Close()
//	if err := session.Run(); err != nil {
//		log.Fatal(err)
//	}
//
// The script provides two global functions. config returns the surface
// placement record, and draw paints one frame through a canvas handle:
//
//	function config() {
//		return { width: 256, height: 256, layer: "top" };
//	}
//	function draw(c) {
//		c.clear(0xff1d2021);
//		c.set_paint_colour(0xff458588);
//		c.draw_circle(128, 128, 64);
//	}
//
// # Architecture
//
// The package is organized into:
//   - Session: the per-surface event loop tying everything together
//   - Canvas: frame-scoped drawing over a shared-memory buffer
//   - Pool: double-buffered shm frame buffers
//   - Host: the embedded script runtime and its canvas bridge
//   - internal/wlshell: the Wayland connection and layer-shell binding
//
// Run drives a strict frame cycle: acquire a free buffer, draw into it,
// submit it, and wait for the compositor's frame callback before drawing
// again. Scripts never see a buffer the compositor is still reading.
//
// # Coordinate System
//
// Uses standard computer graphics coordinates:
//   - Origin (0,0) at top-left
//   - X increases right
//   - Y increases down
//
// Colors are packed 32-bit ARGB; the canvas converts to the compositor's
// premultiplied format on flush.
//
// # Threading
//
// A Session and its Host are confined to the goroutine that calls Run.
// Protocol events arrive on an internal dispatch goroutine and are
// queued; Run drains them in arrival order.
package shade
