package forward

import "edgekvm/internal/input"

// DefaultReleaseChord is Ctrl+Alt+Esc.
var DefaultReleaseChord = []uint32{input.VCControlL, input.VCAltL, input.VCEscape}

// chord matches a set of keys held together. Left and right modifiers are
// interchangeable.
type chord []uint32

func sameKey(a, b uint32) bool {
	if a == b {
		return true
	}
	switch {
	case input.IsControl(a):
		return input.IsControl(b)
	case input.IsAlt(a):
		return input.IsAlt(b)
	case a == input.VCShiftL || a == input.VCShiftR:
		return b == input.VCShiftL || b == input.VCShiftR
	case a == input.VCMetaL || a == input.VCMetaR:
		return b == input.VCMetaL || b == input.VCMetaR
	}
	return false
}

// completedBy reports whether pressing code, with held already down,
// completes the chord.
func (c chord) completedBy(code uint32, held map[uint32]bool) bool {
	if len(c) == 0 {
		return false
	}
	hit := false
	for _, want := range c {
		if sameKey(want, code) {
			hit = true
			continue
		}
		found := false
		for k := range held {
			if sameKey(want, k) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return hit
}
