package input

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vcaesar/keycode"
)

func TestScanCode(t *testing.T) {
	scan, ext := ScanCode(VCA)
	assert.Equal(t, uint16(0x1E), scan)
	assert.False(t, ext)

	scan, ext = ScanCode(VCLeft)
	assert.Equal(t, uint16(0x4B), scan)
	assert.True(t, ext)

	scan, ext = ScanCode(VCControlR)
	assert.Equal(t, uint16(0x1D), scan)
	assert.True(t, ext)
}

func TestMacKeyCode(t *testing.T) {
	for vc, want := range map[uint32]uint16{
		VCA:      0x00,
		VCEscape: 0x35,
		VCMetaL:  0x37,
		VCUp:     0x7E,
		VCF12:    0x6F,
	} {
		got, ok := MacKeyCode(vc)
		assert.True(t, ok, "0x%04X", vc)
		assert.Equal(t, want, got, "0x%04X", vc)
	}
	_, ok := MacKeyCode(0x7777)
	assert.False(t, ok)
}

func TestEvdevCode(t *testing.T) {
	for vc, want := range map[uint32]uint32{
		VCEscape:   1,  // KEY_ESC
		VCA:        30, // KEY_A
		VCF12:      88, // KEY_F12
		VCLeft:     105,
		VCControlR: 97,
		VCMetaL:    125,
	} {
		got, ok := EvdevCode(vc)
		assert.True(t, ok, "0x%04X", vc)
		assert.Equal(t, want, got, "0x%04X", vc)
	}
	_, ok := EvdevCode(0)
	assert.False(t, ok)
}

func TestKeyName(t *testing.T) {
	name, ok := KeyName(VCA)
	assert.True(t, ok)
	assert.Equal(t, "a", name)

	name, ok = KeyName(VCEscape)
	assert.True(t, ok)
	assert.EqualValues(t, VCEscape, keycode.Keycode[name])

	_, ok = KeyName(0x7777)
	assert.False(t, ok)
}

func TestValidity(t *testing.T) {
	assert.False(t, ValidKeycode(0))
	assert.True(t, ValidKeycode(VCUp))
	assert.False(t, ValidKeycode(0x10000))

	assert.False(t, ValidButton(0))
	assert.True(t, ValidButton(ButtonLeft))
	assert.True(t, ValidButton(ButtonX2))
	assert.False(t, ValidButton(6))
}
