package wlshell

import (
	"errors"
	"fmt"

	"github.com/neurlang/wayland/wl"
	"github.com/neurlang/wayland/wlclient"
	"golang.org/x/sys/unix"
)

// Core xkb modifier indices. The compositor's modifier bitmasks are
// keymap-dependent in principle, but every mainstream keymap keeps the
// core modifiers at these positions, so the client reads them directly
// instead of carrying an xkb state machine.
const (
	modShift   = 1 << 0
	modControl = 1 << 2
	modAlt     = 1 << 3
	modMeta    = 1 << 6
)

// decodeModifiers maps the seat's active modifier bitmask to the flags
// input events carry.
func decodeModifiers(active uint32) KeyboardModifiers {
	return KeyboardModifiers{
		Control: active&modControl != 0,
		Shift:   active&modShift != 0,
		Alt:     active&modAlt != 0,
		Meta:    active&modMeta != 0,
	}
}

// BindPointer creates the seat's pointer object and subscribes to its
// events. Binding an already-bound pointer is a no-op.
func (c *Client) BindPointer() error {
	if c.pointer != nil {
		return nil
	}
	if c.seat == nil {
		return errors.New("wlshell: no seat to take a pointer from")
	}
	pointer, err := c.seat.GetPointer()
	if err != nil {
		return fmt.Errorf("wlshell: get pointer: %w", err)
	}
	c.pointer = pointer
	wlclient.PointerAddListener(pointer, c)
	return nil
}

// ReleasePointer destroys the pointer object. Releasing an unbound
// pointer is a no-op.
func (c *Client) ReleasePointer() {
	if c.pointer == nil {
		return
	}
	wlclient.PointerDestroy(c.pointer)
	c.pointer = nil
}

// BindKeyboard creates the seat's keyboard object and subscribes to its
// events. Binding an already-bound keyboard is a no-op.
func (c *Client) BindKeyboard() error {
	if c.keyboard != nil {
		return nil
	}
	if c.seat == nil {
		return errors.New("wlshell: no seat to take a keyboard from")
	}
	keyboard, err := c.seat.GetKeyboard()
	if err != nil {
		return fmt.Errorf("wlshell: get keyboard: %w", err)
	}
	c.keyboard = keyboard
	wlclient.KeyboardAddListener(keyboard, c)
	return nil
}

// ReleaseKeyboard destroys the keyboard object. Releasing an unbound
// keyboard is a no-op.
func (c *Client) ReleaseKeyboard() {
	if c.keyboard == nil {
		return
	}
	wlclient.KeyboardDestroy(c.keyboard)
	c.keyboard = nil
}

// HandlePointerEnter tracks pointer focus and forwards the entry
// position. Entries into foreign surfaces clear the focus so the
// motion and button events that follow them are discarded too.
func (c *Client) HandlePointerEnter(ev wl.PointerEnterEvent) {
	c.pointerFocus = ev.Surface == c.surface && c.surface != nil
	if !c.pointerFocus {
		return
	}
	c.push(PointerEnter{X: float64(ev.SurfaceX), Y: float64(ev.SurfaceY)})
}

// HandlePointerLeave forwards the pointer leaving this surface.
func (c *Client) HandlePointerLeave(ev wl.PointerLeaveEvent) {
	if !c.pointerFocus {
		return
	}
	c.pointerFocus = false
	c.push(PointerLeave{})
}

// HandlePointerMotion forwards surface-local pointer motion.
func (c *Client) HandlePointerMotion(ev wl.PointerMotionEvent) {
	if !c.pointerFocus {
		return
	}
	c.push(PointerMotion{X: float64(ev.SurfaceX), Y: float64(ev.SurfaceY)})
}

// HandlePointerButton forwards button state changes while this surface
// holds pointer focus.
func (c *Client) HandlePointerButton(ev wl.PointerButtonEvent) {
	if !c.pointerFocus {
		return
	}
	c.push(PointerButton{Button: ev.Button, Pressed: ev.State == wl.PointerButtonStatePressed})
}

// HandlePointerAxis drops scroll input, which has no consumer.
func (c *Client) HandlePointerAxis(ev wl.PointerAxisEvent) {}

// HandlePointerFrame ignores the event-grouping marker; events are
// forwarded individually as they decode.
func (c *Client) HandlePointerFrame(ev wl.PointerFrameEvent) {}

// HandlePointerAxisSource ignores axis metadata.
func (c *Client) HandlePointerAxisSource(ev wl.PointerAxisSourceEvent) {}

// HandlePointerAxisStop ignores axis metadata.
func (c *Client) HandlePointerAxisStop(ev wl.PointerAxisStopEvent) {}

// HandlePointerAxisDiscrete ignores axis metadata.
func (c *Client) HandlePointerAxisDiscrete(ev wl.PointerAxisDiscreteEvent) {}

// HandleKeyboardKeymap closes the keymap file. Keys are forwarded as
// raw scancodes and modifiers by their core indices, so the xkb keymap
// itself is never parsed.
func (c *Client) HandleKeyboardKeymap(ev wl.KeyboardKeymapEvent) {
	_ = unix.Close(int(ev.Fd))
}

// HandleKeyboardEnter tracks keyboard focus and forwards focus gain.
func (c *Client) HandleKeyboardEnter(ev wl.KeyboardEnterEvent) {
	c.keyboardFocus = ev.Surface == c.surface && c.surface != nil
	if !c.keyboardFocus {
		return
	}
	c.push(KeyboardEnter{})
}

// HandleKeyboardLeave forwards keyboard focus loss.
func (c *Client) HandleKeyboardLeave(ev wl.KeyboardLeaveEvent) {
	if !c.keyboardFocus {
		return
	}
	c.keyboardFocus = false
	c.push(KeyboardLeave{})
}

// HandleKeyboardKey forwards key state changes while this surface holds
// keyboard focus.
func (c *Client) HandleKeyboardKey(ev wl.KeyboardKeyEvent) {
	if !c.keyboardFocus {
		return
	}
	c.push(KeyboardKey{Key: ev.Key, Pressed: ev.State == wl.KeyboardKeyStatePressed})
}

// HandleKeyboardModifiers forwards the decoded modifier state. Latched
// modifiers count as held; locked ones (caps lock) do not.
func (c *Client) HandleKeyboardModifiers(ev wl.KeyboardModifiersEvent) {
	c.push(decodeModifiers(ev.ModsDepressed | ev.ModsLatched))
}

// HandleKeyboardRepeatInfo ignores repeat configuration; key repeat is
// the compositor's business.
func (c *Client) HandleKeyboardRepeatInfo(ev wl.KeyboardRepeatInfoEvent) {}
