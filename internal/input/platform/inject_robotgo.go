//go:build cgo

package platform

import (
	"fmt"

	"github.com/go-vgo/robotgo"

	"edgekvm/internal/input"
)

// robotgoInjector is the portable fallback. It cannot tell left from right
// modifiers on every platform and moves the cursor before each click.
type robotgoInjector struct{}

var _ input.Injector = (*robotgoInjector)(nil)

func newRobotgoInjector() (input.Injector, error) {
	return &robotgoInjector{}, nil
}

func (r *robotgoInjector) Name() string { return "robotgo" }

func (r *robotgoInjector) Close() error { return nil }

func (r *robotgoInjector) InjectKeyPress(keycode uint32) error {
	return r.key(keycode, "down")
}

func (r *robotgoInjector) InjectKeyRelease(keycode uint32) error {
	return r.key(keycode, "up")
}

func (r *robotgoInjector) key(keycode uint32, dir string) error {
	name, ok := input.KeyName(keycode)
	if !ok {
		return fmt.Errorf("%w: 0x%04X", input.ErrUnknownKeycode, keycode)
	}
	if err := robotgo.KeyToggle(name, dir); err != nil {
		return input.PlatformError("KeyToggle "+name, err)
	}
	return nil
}

func (r *robotgoInjector) InjectMouseMove(x, y int32) error {
	robotgo.Move(int(x), int(y))
	return nil
}

func (r *robotgoInjector) InjectMouseButtonPress(button uint8, x, y int32) error {
	return r.button(button, "down", x, y)
}

func (r *robotgoInjector) InjectMouseButtonRelease(button uint8, x, y int32) error {
	return r.button(button, "up", x, y)
}

func (r *robotgoInjector) button(button uint8, dir string, x, y int32) error {
	var name string
	switch button {
	case input.ButtonLeft:
		name = "left"
	case input.ButtonRight:
		name = "right"
	case input.ButtonMiddle:
		name = "center"
	default:
		return fmt.Errorf("%w: %d", input.ErrUnknownButton, button)
	}
	robotgo.Move(int(x), int(y))
	if err := robotgo.Toggle(name, dir); err != nil {
		return input.PlatformError("Toggle "+name, err)
	}
	return nil
}
