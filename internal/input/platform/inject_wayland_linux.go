//go:build linux

package platform

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/bnema/wayland-virtual-input-go/virtual_keyboard"
	"github.com/bnema/wayland-virtual-input-go/virtual_pointer"
	"github.com/rs/zerolog/log"

	"edgekvm/internal/input"
)

// waylandInjector drives zwlr_virtual_pointer_v1 and zwp_virtual_keyboard_v1
// on wlroots compositors. Neither uinput nor root is required.
type waylandInjector struct {
	mu              sync.Mutex
	pointerManager  *virtual_pointer.VirtualPointerManager
	pointer         pointerDevice
	keyboardManager *virtual_keyboard.VirtualKeyboardManager
	keyboard        *virtual_keyboard.VirtualKeyboard
	closed          bool

	width  uint32
	height uint32
}

var _ input.Injector = (*waylandInjector)(nil)

// pointerDevice is the part of the virtual pointer the injector drives.
type pointerDevice interface {
	motion(x, y, width, height uint32) error
	button(btn uint32, pressed bool) error
	frame() error
	Close() error
}

type wlPointer struct {
	*virtual_pointer.VirtualPointer
}

func (p wlPointer) motion(x, y, width, height uint32) error {
	return p.MotionAbsolute(time.Now(), x, y, width, height)
}

func (p wlPointer) button(btn uint32, pressed bool) error {
	if pressed {
		return p.Button(time.Now(), btn, virtual_pointer.BUTTON_STATE_PRESSED)
	}
	return p.Button(time.Now(), btn, virtual_pointer.BUTTON_STATE_RELEASED)
}

func (p wlPointer) frame() error {
	return p.Frame()
}

func waylandSession() bool {
	return os.Getenv("WAYLAND_DISPLAY") != ""
}

func newWaylandInjector(ctx context.Context, width, height int) (*waylandInjector, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: wayland injector needs the screen size", input.ErrUnsupportedPlatform)
	}

	pointerManager, err := virtual_pointer.NewVirtualPointerManager(ctx)
	if err != nil {
		return nil, fmt.Errorf("create virtual pointer manager: %w", err)
	}
	pointer, err := pointerManager.CreatePointer()
	if err != nil {
		pointerManager.Close()
		return nil, fmt.Errorf("create virtual pointer: %w", err)
	}
	keyboardManager, err := virtual_keyboard.NewVirtualKeyboardManager(ctx)
	if err != nil {
		pointer.Close()
		pointerManager.Close()
		return nil, fmt.Errorf("create virtual keyboard manager: %w", err)
	}
	keyboard, err := keyboardManager.CreateKeyboard()
	if err != nil {
		keyboardManager.Close()
		pointer.Close()
		pointerManager.Close()
		return nil, fmt.Errorf("create virtual keyboard: %w", err)
	}

	log.Debug().Int("width", width).Int("height", height).Msg("Injector: wayland virtual devices created")
	return &waylandInjector{
		pointerManager:  pointerManager,
		pointer:         wlPointer{pointer},
		keyboardManager: keyboardManager,
		keyboard:        keyboard,
		width:           uint32(width),
		height:          uint32(height),
	}, nil
}

func (w *waylandInjector) Name() string { return "wayland" }

func (w *waylandInjector) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true

	return errors.Join(
		w.keyboard.Close(),
		w.keyboardManager.Close(),
		w.pointer.Close(),
		w.pointerManager.Close(),
	)
}

func (w *waylandInjector) InjectKeyPress(keycode uint32) error {
	return w.key(keycode, true)
}

func (w *waylandInjector) InjectKeyRelease(keycode uint32) error {
	return w.key(keycode, false)
}

func (w *waylandInjector) key(keycode uint32, pressed bool) error {
	code, ok := input.EvdevCode(keycode)
	if !ok {
		return fmt.Errorf("%w: 0x%04X", input.ErrUnknownKeycode, keycode)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return input.PlatformError("virtual keyboard closed", nil)
	}
	state := virtual_keyboard.KeyStateReleased
	if pressed {
		state = virtual_keyboard.KeyStatePressed
	}
	if err := w.keyboard.Key(time.Now(), code, state); err != nil {
		return input.PlatformError("virtual keyboard key", err)
	}
	return nil
}

func (w *waylandInjector) InjectMouseMove(x, y int32) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.moveLocked(x, y)
}

func (w *waylandInjector) moveLocked(x, y int32) error {
	if w.closed {
		return input.PlatformError("virtual pointer closed", nil)
	}
	ax := uint32(max(0, min(x, int32(w.width)-1)))
	ay := uint32(max(0, min(y, int32(w.height)-1)))
	if err := w.pointer.motion(ax, ay, w.width, w.height); err != nil {
		return input.PlatformError("virtual pointer motion", err)
	}
	if err := w.pointer.frame(); err != nil {
		return input.PlatformError("virtual pointer frame", err)
	}
	return nil
}

func (w *waylandInjector) InjectMouseButtonPress(button uint8, x, y int32) error {
	return w.button(button, true, x, y)
}

func (w *waylandInjector) InjectMouseButtonRelease(button uint8, x, y int32) error {
	return w.button(button, false, x, y)
}

func (w *waylandInjector) button(button uint8, pressed bool, x, y int32) error {
	var btn uint32
	switch button {
	case input.ButtonLeft:
		btn = virtual_pointer.BTN_LEFT
	case input.ButtonRight:
		btn = virtual_pointer.BTN_RIGHT
	case input.ButtonMiddle:
		btn = virtual_pointer.BTN_MIDDLE
	default:
		return fmt.Errorf("%w: %d", input.ErrUnknownButton, button)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	// the press lands where the packet says, not where the cursor drifted
	if err := w.moveLocked(x, y); err != nil {
		return err
	}
	if err := w.pointer.button(btn, pressed); err != nil {
		return input.PlatformError("virtual pointer button", err)
	}
	if err := w.pointer.frame(); err != nil {
		return input.PlatformError("virtual pointer frame", err)
	}
	return nil
}
