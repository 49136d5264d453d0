//go:build darwin && cgo

package platform

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework CoreGraphics -framework CoreFoundation -framework ApplicationServices

#include <CoreGraphics/CoreGraphics.h>
#include <CoreFoundation/CoreFoundation.h>
#include <ApplicationServices/ApplicationServices.h>

static bool hasAccessibilityPermissions() {
    return AXIsProcessTrusted();
}

static int postMouse(CGEventType type, CGMouseButton button, double x, double y, int64_t clicks) {
    CGEventRef event = CGEventCreateMouseEvent(NULL, type, CGPointMake(x, y), button);
    if (event == NULL) {
        return -1;
    }
    if (clicks > 0) {
        CGEventSetIntegerValueField(event, kCGMouseEventClickState, clicks);
    }
    if (button > kCGMouseButtonCenter) {
        CGEventSetIntegerValueField(event, kCGMouseEventButtonNumber, button);
    }
    CGEventPost(kCGHIDEventTap, event);
    CFRelease(event);
    return 0;
}

static int postKey(CGKeyCode keyCode, bool pressed) {
    CGEventRef event = CGEventCreateKeyboardEvent(NULL, keyCode, pressed);
    if (event == NULL) {
        return -1;
    }
    CGEventPost(kCGHIDEventTap, event);
    CFRelease(event);
    return 0;
}
*/
import "C"

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"edgekvm/internal/input"
)

// darwinInjector posts CoreGraphics events at the HID tap so they look like
// hardware input to every application.
type darwinInjector struct {
	mu      sync.Mutex
	pressed map[uint8]bool
}

var _ input.Injector = (*darwinInjector)(nil)

func newDarwinInjector() *darwinInjector {
	if !bool(C.hasAccessibilityPermissions()) {
		log.Warn().Msg("Injector: accessibility permission not granted, events may be ignored")
	}
	return &darwinInjector{pressed: make(map[uint8]bool)}
}

func (d *darwinInjector) Name() string { return "coregraphics" }

func (d *darwinInjector) Close() error { return nil }

func (d *darwinInjector) InjectKeyPress(keycode uint32) error {
	return d.key(keycode, true)
}

func (d *darwinInjector) InjectKeyRelease(keycode uint32) error {
	return d.key(keycode, false)
}

func (d *darwinInjector) key(keycode uint32, pressed bool) error {
	mac, ok := input.MacKeyCode(keycode)
	if !ok {
		return fmt.Errorf("%w: 0x%04X", input.ErrUnknownKeycode, keycode)
	}
	if C.postKey(C.CGKeyCode(mac), C.bool(pressed)) != 0 {
		return input.PlatformError("CGEventCreateKeyboardEvent", nil)
	}
	return nil
}

// InjectMouseMove moves the cursor. While a button is held the move is
// posted as a drag so applications see selection and drag gestures.
func (d *darwinInjector) InjectMouseMove(x, y int32) error {
	d.mu.Lock()
	evType, button := C.CGEventType(C.kCGEventMouseMoved), C.CGMouseButton(C.kCGMouseButtonLeft)
	switch {
	case d.pressed[input.ButtonLeft]:
		evType = C.kCGEventLeftMouseDragged
	case d.pressed[input.ButtonRight]:
		evType, button = C.kCGEventRightMouseDragged, C.kCGMouseButtonRight
	case d.pressed[input.ButtonMiddle]:
		evType, button = C.kCGEventOtherMouseDragged, C.kCGMouseButtonCenter
	}
	d.mu.Unlock()

	if C.postMouse(evType, button, C.double(x), C.double(y), 0) != 0 {
		return input.PlatformError("CGEventCreateMouseEvent", nil)
	}
	return nil
}

func (d *darwinInjector) InjectMouseButtonPress(button uint8, x, y int32) error {
	return d.button(button, true, x, y)
}

func (d *darwinInjector) InjectMouseButtonRelease(button uint8, x, y int32) error {
	return d.button(button, false, x, y)
}

func (d *darwinInjector) button(button uint8, pressed bool, x, y int32) error {
	var (
		cgButton C.CGMouseButton
		evType   C.CGEventType
	)
	switch button {
	case input.ButtonLeft:
		cgButton = C.kCGMouseButtonLeft
		evType = C.kCGEventLeftMouseUp
		if pressed {
			evType = C.kCGEventLeftMouseDown
		}
	case input.ButtonRight:
		cgButton = C.kCGMouseButtonRight
		evType = C.kCGEventRightMouseUp
		if pressed {
			evType = C.kCGEventRightMouseDown
		}
	case input.ButtonMiddle, input.ButtonX1, input.ButtonX2:
		// CoreGraphics numbers other buttons from 2 (center)
		cgButton = C.CGMouseButton(button - 1)
		evType = C.kCGEventOtherMouseUp
		if pressed {
			evType = C.kCGEventOtherMouseDown
		}
	default:
		return fmt.Errorf("%w: %d", input.ErrUnknownButton, button)
	}

	d.mu.Lock()
	d.pressed[button] = pressed
	d.mu.Unlock()

	if C.postMouse(evType, cgButton, C.double(x), C.double(y), 1) != 0 {
		return input.PlatformError("CGEventCreateMouseEvent", nil)
	}
	return nil
}
