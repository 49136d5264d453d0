package inputtest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edgekvm/internal/input"
)

// RunInjectorContract exercises every operation of inj with values any
// platform must accept. Mouse events target (x, y), which should be inside
// the local screen. Buttons are pressed and released in pairs so the desktop
// is left as it was found.
func RunInjectorContract(t *testing.T, inj input.Injector, x, y int32) {
	t.Helper()

	require.NotEmpty(t, inj.Name())

	t.Run("MouseMove", func(t *testing.T) {
		assert.NoError(t, inj.InjectMouseMove(x, y))
		assert.NoError(t, inj.InjectMouseMove(x+1, y+1))
	})

	t.Run("MouseButtons", func(t *testing.T) {
		for _, b := range []uint8{input.ButtonLeft, input.ButtonRight, input.ButtonMiddle} {
			assert.NoError(t, inj.InjectMouseButtonPress(b, x, y), "press %d", b)
			assert.NoError(t, inj.InjectMouseButtonRelease(b, x, y), "release %d", b)
		}
	})

	t.Run("Keys", func(t *testing.T) {
		for _, k := range []uint32{input.VCShiftL, input.VCA, input.VCLeft} {
			assert.NoError(t, inj.InjectKeyPress(k), "press 0x%04X", k)
			assert.NoError(t, inj.InjectKeyRelease(k), "release 0x%04X", k)
		}
	})
}
