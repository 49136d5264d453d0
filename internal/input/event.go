// Package input defines captured input events, the injection contract every
// platform implements, and the dispatcher that replays decoded packets.
package input

import "time"

// Kind identifies what an InputEvent carries.
type Kind int

const (
	KeyDown Kind = iota + 1
	KeyUp
	MouseMove
	MouseButtonDown
	MouseButtonUp
)

func (k Kind) String() string {
	switch k {
	case KeyDown:
		return "key_down"
	case KeyUp:
		return "key_up"
	case MouseMove:
		return "mouse_move"
	case MouseButtonDown:
		return "mouse_btn_down"
	case MouseButtonUp:
		return "mouse_btn_up"
	default:
		return "unknown"
	}
}

// Mouse buttons use the libuiohook numbering.
const (
	ButtonLeft   uint8 = 1
	ButtonRight  uint8 = 2
	ButtonMiddle uint8 = 3
	ButtonX1     uint8 = 4
	ButtonX2     uint8 = 5
)

// InputEvent is one captured keyboard or mouse event. It lives for a single
// pass through the sender and is never stored.
type InputEvent struct {
	Kind    Kind
	Keycode uint32 // libuiohook virtual keycode (key events)
	Button  uint8  // mouse button id (button events)
	X       int    // host-local absolute position (mouse events)
	Y       int
	Time    time.Time
}

// IsMouse reports whether the event carries a position.
func (e InputEvent) IsMouse() bool {
	return e.Kind == MouseMove || e.Kind == MouseButtonDown || e.Kind == MouseButtonUp
}
