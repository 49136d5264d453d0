package input

import (
	"sync"

	"github.com/vcaesar/keycode"
)

// Keycodes on the wire are libuiohook virtual keycodes. For the base block
// they equal the PC/AT set-1 scan code; extended keys carry a 0x0E or 0xE0
// prefix in the high byte.
const (
	VCEscape    uint32 = 0x0001
	VCBackspace uint32 = 0x000E
	VCTab       uint32 = 0x000F
	VCEnter     uint32 = 0x001C
	VCControlL  uint32 = 0x001D
	VCA         uint32 = 0x001E
	VCShiftL    uint32 = 0x002A
	VCShiftR    uint32 = 0x0036
	VCAltL      uint32 = 0x0038
	VCSpace     uint32 = 0x0039
	VCF1        uint32 = 0x003B
	VCF12       uint32 = 0x0058

	VCKeypadEnter  uint32 = 0x0E1C
	VCControlR     uint32 = 0x0E1D
	VCKeypadDivide uint32 = 0x0E35
	VCAltR         uint32 = 0x0E38
	VCHome         uint32 = 0x0E47
	VCPageUp       uint32 = 0x0E49
	VCEnd          uint32 = 0x0E4F
	VCPageDown     uint32 = 0x0E51
	VCInsert       uint32 = 0x0E52
	VCDelete       uint32 = 0x0E53
	VCMetaL        uint32 = 0x0E5B
	VCMetaR        uint32 = 0x0E5C
	VCContextMenu  uint32 = 0x0E5D

	VCUp    uint32 = 0xE048
	VCLeft  uint32 = 0xE04B
	VCRight uint32 = 0xE04D
	VCDown  uint32 = 0xE050
)

// MaxKeycode bounds the keycodes a sender will forward.
const MaxKeycode uint32 = 0xFFFF

// ValidKeycode reports whether code can name a physical key.
func ValidKeycode(code uint32) bool {
	return code != 0 && code <= MaxKeycode
}

// ValidButton reports whether b is a mouse button id.
func ValidButton(b uint8) bool {
	return b >= ButtonLeft && b <= ButtonX2
}

// IsControl reports whether code is either Control key.
func IsControl(code uint32) bool { return code == VCControlL || code == VCControlR }

// IsAlt reports whether code is either Alt/Option key.
func IsAlt(code uint32) bool { return code == VCAltL || code == VCAltR }

// ScanCode splits a keycode into the set-1 scan code and the extended flag
// SendInput expects.
func ScanCode(code uint32) (scan uint16, extended bool) {
	prefix := (code >> 8) & 0xFF
	return uint16(code & 0xFF), prefix == 0x0E || prefix == 0xE0
}

// vcToMac maps keycodes to macOS CGKeyCode values (kVK_*).
var vcToMac = map[uint32]uint16{
	0x0001: 0x35, // escape
	0x0002: 0x12, // 1
	0x0003: 0x13, // 2
	0x0004: 0x14, // 3
	0x0005: 0x15, // 4
	0x0006: 0x17, // 5
	0x0007: 0x16, // 6
	0x0008: 0x1A, // 7
	0x0009: 0x1C, // 8
	0x000A: 0x19, // 9
	0x000B: 0x1D, // 0
	0x000C: 0x1B, // -
	0x000D: 0x18, // =
	0x000E: 0x33, // backspace
	0x000F: 0x30, // tab
	0x0010: 0x0C, // Q
	0x0011: 0x0D, // W
	0x0012: 0x0E, // E
	0x0013: 0x0F, // R
	0x0014: 0x11, // T
	0x0015: 0x10, // Y
	0x0016: 0x20, // U
	0x0017: 0x22, // I
	0x0018: 0x1F, // O
	0x0019: 0x23, // P
	0x001A: 0x21, // [
	0x001B: 0x1E, // ]
	0x001C: 0x24, // enter
	0x001D: 0x3B, // control
	0x001E: 0x00, // A
	0x001F: 0x01, // S
	0x0020: 0x02, // D
	0x0021: 0x03, // F
	0x0022: 0x05, // G
	0x0023: 0x04, // H
	0x0024: 0x26, // J
	0x0025: 0x28, // K
	0x0026: 0x25, // L
	0x0027: 0x29, // ;
	0x0028: 0x27, // '
	0x0029: 0x32, // `
	0x002A: 0x38, // shift
	0x002B: 0x2A, // backslash
	0x002C: 0x06, // Z
	0x002D: 0x07, // X
	0x002E: 0x08, // C
	0x002F: 0x09, // V
	0x0030: 0x0B, // B
	0x0031: 0x2D, // N
	0x0032: 0x2E, // M
	0x0033: 0x2B, // ,
	0x0034: 0x2F, // .
	0x0035: 0x2C, // /
	0x0036: 0x3C, // right shift
	0x0037: 0x43, // keypad *
	0x0038: 0x3A, // option
	0x0039: 0x31, // space
	0x003A: 0x39, // caps lock
	0x003B: 0x7A, // F1
	0x003C: 0x78, // F2
	0x003D: 0x63, // F3
	0x003E: 0x76, // F4
	0x003F: 0x60, // F5
	0x0040: 0x61, // F6
	0x0041: 0x62, // F7
	0x0042: 0x64, // F8
	0x0043: 0x65, // F9
	0x0044: 0x6D, // F10
	0x0045: 0x47, // num lock -> keypad clear
	0x0047: 0x59, // keypad 7
	0x0048: 0x5B, // keypad 8
	0x0049: 0x5C, // keypad 9
	0x004A: 0x4E, // keypad -
	0x004B: 0x56, // keypad 4
	0x004C: 0x57, // keypad 5
	0x004D: 0x58, // keypad 6
	0x004E: 0x45, // keypad +
	0x004F: 0x53, // keypad 1
	0x0050: 0x54, // keypad 2
	0x0051: 0x55, // keypad 3
	0x0052: 0x52, // keypad 0
	0x0053: 0x41, // keypad .
	0x0057: 0x67, // F11
	0x0058: 0x6F, // F12

	0x0E1C: 0x4C, // keypad enter
	0x0E1D: 0x3E, // right control
	0x0E35: 0x4B, // keypad /
	0x0E38: 0x3D, // right option
	0x0E47: 0x73, // home
	0x0E49: 0x74, // page up
	0x0E4F: 0x77, // end
	0x0E51: 0x79, // page down
	0x0E52: 0x72, // insert -> help
	0x0E53: 0x75, // delete -> forward delete
	0x0E5B: 0x37, // meta -> command
	0x0E5C: 0x36, // right command
	0xE048: 0x7E, // up
	0xE04B: 0x7B, // left
	0xE04D: 0x7C, // right
	0xE050: 0x7D, // down
}

// MacKeyCode translates a keycode to a macOS virtual key code.
func MacKeyCode(code uint32) (uint16, bool) {
	mac, ok := vcToMac[code]
	return mac, ok
}

// vcToEvdevExtended covers keys whose evdev code differs from their scan code.
var vcToEvdevExtended = map[uint32]uint32{
	VCKeypadEnter:  96,  // KEY_KPENTER
	VCControlR:     97,  // KEY_RIGHTCTRL
	VCKeypadDivide: 98,  // KEY_KPSLASH
	VCAltR:         100, // KEY_RIGHTALT
	VCHome:         102, // KEY_HOME
	VCUp:           103, // KEY_UP
	VCPageUp:       104, // KEY_PAGEUP
	VCLeft:         105, // KEY_LEFT
	VCRight:        106, // KEY_RIGHT
	VCEnd:          107, // KEY_END
	VCDown:         108, // KEY_DOWN
	VCPageDown:     109, // KEY_PAGEDOWN
	VCInsert:       110, // KEY_INSERT
	VCDelete:       111, // KEY_DELETE
	VCMetaL:        125, // KEY_LEFTMETA
	VCMetaR:        126, // KEY_RIGHTMETA
	VCContextMenu:  127, // KEY_COMPOSE
}

// EvdevCode translates a keycode to a Linux evdev key code. The base block
// (1..0x58) maps one to one.
func EvdevCode(code uint32) (uint32, bool) {
	if code >= VCEscape && code <= VCF12 {
		return code, true
	}
	ev, ok := vcToEvdevExtended[code]
	return ev, ok
}

var (
	namesOnce sync.Once
	vcNames   map[uint32]string
)

// KeyName returns the key name robotgo understands for code.
func KeyName(code uint32) (string, bool) {
	namesOnce.Do(func() {
		vcNames = make(map[uint32]string, len(keycode.Keycode))
		for name, vc := range keycode.Keycode {
			// several aliases share a code; keep the shortest for stable output
			if cur, ok := vcNames[uint32(vc)]; !ok || len(name) < len(cur) || (len(name) == len(cur) && name < cur) {
				vcNames[uint32(vc)] = name
			}
		}
	})
	name, ok := vcNames[code]
	return name, ok
}
