//go:build windows

package platform

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"

	"edgekvm/internal/input"
)

var (
	user32               = windows.NewLazySystemDLL("user32.dll")
	procSendInput        = user32.NewProc("SendInput")
	procGetSystemMetrics = user32.NewProc("GetSystemMetrics")
)

const (
	INPUT_MOUSE    = 0
	INPUT_KEYBOARD = 1

	MOUSEEVENTF_MOVE        = 0x0001
	MOUSEEVENTF_LEFTDOWN    = 0x0002
	MOUSEEVENTF_LEFTUP      = 0x0004
	MOUSEEVENTF_RIGHTDOWN   = 0x0008
	MOUSEEVENTF_RIGHTUP     = 0x0010
	MOUSEEVENTF_MIDDLEDOWN  = 0x0020
	MOUSEEVENTF_MIDDLEUP    = 0x0040
	MOUSEEVENTF_XDOWN       = 0x0080
	MOUSEEVENTF_XUP         = 0x0100
	MOUSEEVENTF_VIRTUALDESK = 0x4000
	MOUSEEVENTF_ABSOLUTE    = 0x8000

	XBUTTON1 = 0x0001
	XBUTTON2 = 0x0002

	KEYEVENTF_EXTENDEDKEY = 0x0001
	KEYEVENTF_KEYUP       = 0x0002
	KEYEVENTF_SCANCODE    = 0x0008

	SM_XVIRTUALSCREEN  = 76
	SM_YVIRTUALSCREEN  = 77
	SM_CXVIRTUALSCREEN = 78
	SM_CYVIRTUALSCREEN = 79
)

type MOUSEINPUT struct {
	Dx          int32
	Dy          int32
	MouseData   uint32
	DwFlags     uint32
	Time        uint32
	DwExtraInfo uintptr
}

type KEYBDINPUT struct {
	WVk         uint16
	WScan       uint16
	DwFlags     uint32
	Time        uint32
	DwExtraInfo uintptr
	_           [8]byte // pad to the size of the MOUSEINPUT union member
}

type mouseInput struct {
	Type uint32
	Mi   MOUSEINPUT
}

type keyboardInput struct {
	Type uint32
	Ki   KEYBDINPUT
}

// windowsInjector submits events through SendInput. Keys go out as scan
// codes so the receiving layout decides the character; mouse positions are
// absolute over the whole virtual desktop.
type windowsInjector struct{}

var _ input.Injector = (*windowsInjector)(nil)

func newNativeInjector() (input.Injector, error) {
	if err := procSendInput.Find(); err != nil {
		return nil, fmt.Errorf("%w: %v", input.ErrUnsupportedPlatform, err)
	}
	return &windowsInjector{}, nil
}

func (w *windowsInjector) Name() string { return "sendinput" }

func (w *windowsInjector) Close() error { return nil }

func (w *windowsInjector) InjectKeyPress(keycode uint32) error {
	return w.key(keycode, 0)
}

func (w *windowsInjector) InjectKeyRelease(keycode uint32) error {
	return w.key(keycode, KEYEVENTF_KEYUP)
}

func (w *windowsInjector) key(keycode uint32, flags uint32) error {
	scan, extended := input.ScanCode(keycode)
	if scan == 0 {
		return fmt.Errorf("%w: 0x%04X", input.ErrUnknownKeycode, keycode)
	}
	flags |= KEYEVENTF_SCANCODE
	if extended {
		flags |= KEYEVENTF_EXTENDEDKEY
	}
	in := keyboardInput{Type: INPUT_KEYBOARD, Ki: KEYBDINPUT{WScan: scan, DwFlags: flags}}
	return sendInput(unsafe.Pointer(&in), unsafe.Sizeof(in))
}

func (w *windowsInjector) InjectMouseMove(x, y int32) error {
	return w.mouse(x, y, MOUSEEVENTF_MOVE, 0)
}

func (w *windowsInjector) InjectMouseButtonPress(button uint8, x, y int32) error {
	flags, data, err := buttonFlags(button, true)
	if err != nil {
		return err
	}
	return w.mouse(x, y, flags, data)
}

func (w *windowsInjector) InjectMouseButtonRelease(button uint8, x, y int32) error {
	flags, data, err := buttonFlags(button, false)
	if err != nil {
		return err
	}
	return w.mouse(x, y, flags, data)
}

func (w *windowsInjector) mouse(x, y int32, flags, data uint32) error {
	nx, ny := normalize(x, y)
	in := mouseInput{Type: INPUT_MOUSE, Mi: MOUSEINPUT{
		Dx:        nx,
		Dy:        ny,
		MouseData: data,
		DwFlags:   flags | MOUSEEVENTF_MOVE | MOUSEEVENTF_ABSOLUTE | MOUSEEVENTF_VIRTUALDESK,
	}}
	return sendInput(unsafe.Pointer(&in), unsafe.Sizeof(in))
}

func buttonFlags(button uint8, pressed bool) (flags, data uint32, err error) {
	pick := func(down, up uint32) uint32 {
		if pressed {
			return down
		}
		return up
	}
	switch button {
	case input.ButtonLeft:
		return pick(MOUSEEVENTF_LEFTDOWN, MOUSEEVENTF_LEFTUP), 0, nil
	case input.ButtonRight:
		return pick(MOUSEEVENTF_RIGHTDOWN, MOUSEEVENTF_RIGHTUP), 0, nil
	case input.ButtonMiddle:
		return pick(MOUSEEVENTF_MIDDLEDOWN, MOUSEEVENTF_MIDDLEUP), 0, nil
	case input.ButtonX1:
		return pick(MOUSEEVENTF_XDOWN, MOUSEEVENTF_XUP), XBUTTON1, nil
	case input.ButtonX2:
		return pick(MOUSEEVENTF_XDOWN, MOUSEEVENTF_XUP), XBUTTON2, nil
	}
	return 0, 0, fmt.Errorf("%w: %d", input.ErrUnknownButton, button)
}

// normalize maps a pixel position to the 0..65535 range SendInput uses for
// absolute moves over the virtual desktop.
func normalize(x, y int32) (int32, int32) {
	left := systemMetric(SM_XVIRTUALSCREEN)
	top := systemMetric(SM_YVIRTUALSCREEN)
	width := systemMetric(SM_CXVIRTUALSCREEN)
	height := systemMetric(SM_CYVIRTUALSCREEN)
	if width <= 1 || height <= 1 {
		return x, y
	}
	nx := (int64(x) - int64(left)) * 65535 / int64(width-1)
	ny := (int64(y) - int64(top)) * 65535 / int64(height-1)
	return int32(clamp(nx, 0, 65535)), int32(clamp(ny, 0, 65535))
}

func clamp(v, lo, hi int64) int64 {
	return max(lo, min(v, hi))
}

func systemMetric(index int) int32 {
	ret, _, _ := procGetSystemMetrics.Call(uintptr(index))
	return int32(ret)
}

func sendInput(in unsafe.Pointer, size uintptr) error {
	n, _, err := procSendInput.Call(1, uintptr(in), size)
	if n != 1 {
		// SendInput returns 0 when UIPI blocks the event
		return input.PlatformError("SendInput", err)
	}
	return nil
}
