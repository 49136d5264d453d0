package input

// Injector replays input into the local OS as if it came from a physical
// device. Every platform implements all five operations.
//
// Coordinates are the receiver's own absolute screen coordinates. Keycodes
// are libuiohook virtual keycodes; each implementation translates them to
// its native code space.
type Injector interface {
	InjectKeyPress(keycode uint32) error
	InjectKeyRelease(keycode uint32) error
	InjectMouseMove(x, y int32) error
	InjectMouseButtonPress(button uint8, x, y int32) error
	InjectMouseButtonRelease(button uint8, x, y int32) error

	// Name identifies the implementation in logs
	Name() string

	// Close releases any OS resources held by the injector
	Close() error
}
