package switcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToClient(t *testing.T) {
	geo := testGeometry()

	x, y := geo.ToClient(2000, 300)
	assert.Equal(t, int32(80), x)
	assert.Equal(t, int32(300), y)

	x, _ = geo.ToClient(1921, 500)
	assert.Equal(t, int32(1), x)

	x, _ = geo.ToClient(1905, 0)
	assert.Equal(t, int32(-15), x)
}

func TestFromWireIsIdentity(t *testing.T) {
	x, y := FromWire(80, 500)
	assert.Equal(t, 80, x)
	assert.Equal(t, 500, y)
}

func TestPlausible(t *testing.T) {
	geo := testGeometry()

	assert.True(t, geo.Plausible(0, 0))
	assert.True(t, geo.Plausible(-1920, 1080))
	assert.True(t, geo.Plausible(1925, -5))
	assert.False(t, geo.Plausible(-1921, 0))
	assert.False(t, geo.Plausible(1926, 0))
	assert.False(t, geo.Plausible(0, 1086))
	assert.False(t, geo.Plausible(0, -6))

	geo.ClientWidth, geo.ClientHeight = 2560, 1440
	assert.True(t, geo.Plausible(2500, 1400))
}

func TestValidate(t *testing.T) {
	assert.NoError(t, testGeometry().Validate())
	assert.NoError(t, DefaultGeometry().Validate())

	bad := []Geometry{
		{HostWidth: 0, HostHeight: 1080, EdgeThreshold: 20},
		{HostWidth: 1920, HostHeight: 1080, ClientWidth: -1, EdgeThreshold: 20},
		{HostWidth: 1920, HostHeight: 1080, EdgeThreshold: 960},
		{HostWidth: 1920, HostHeight: 1080, EdgeThreshold: -1},
		{HostWidth: 1920, HostHeight: 1080, EdgeThreshold: 20, Hysteresis: -1},
	}
	for _, g := range bad {
		assert.ErrorIs(t, g.Validate(), ErrInvalidGeometry, "%+v", g)
	}
}
