package switcher

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGeometry() Geometry {
	return Geometry{HostWidth: 1920, HostHeight: 1080, EdgeThreshold: 20, Hysteresis: 5}
}

func TestSwitchStartsHost(t *testing.T) {
	sw := New(testGeometry())
	assert.Equal(t, StateHost, sw.State())
	assert.False(t, sw.IsClientControlled())
}

func TestSwitchEdgeSequence(t *testing.T) {
	sw := New(testGeometry())

	assert.Equal(t, StateClient, sw.Update(1950, 0), "near right edge, past the midpoint")
	assert.True(t, sw.IsClientControlled())

	assert.Equal(t, StateHost, sw.Update(10, 0), "near left edge, before the midpoint")

	sw.Update(1950, 0)
	require.True(t, sw.IsClientControlled())
	assert.Equal(t, StateClient, sw.Update(960, 0), "far from both edges leaves state alone")
}

func TestSwitchIgnoresMiddleSamples(t *testing.T) {
	sw := New(testGeometry())
	for _, x := range []int{21, 500, 960, 1400, 1899} {
		assert.Equal(t, StateHost, sw.Update(x, 300), "x=%d", x)
	}

	sw.Update(1900, 300)
	require.Equal(t, StateClient, sw.State())
	for _, x := range []int{1899, 1000, 21} {
		assert.Equal(t, StateClient, sw.Update(x, 300), "x=%d", x)
	}
}

func TestSwitchBandBoundaries(t *testing.T) {
	geo := testGeometry()

	tests := []struct {
		x     int
		right bool
		left  bool
	}{
		{x: -6},
		{x: -5, left: true},
		{x: 0, left: true},
		{x: 20, left: true},
		{x: 21},
		{x: 1899},
		{x: 1900, right: true},
		{x: 1920, right: true},
		{x: 3845, right: true},
		{x: 3846},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.right, geo.NearRightEdge(tt.x), "right x=%d", tt.x)
		assert.Equal(t, tt.left, geo.NearLeftEdge(tt.x), "left x=%d", tt.x)
	}
}

func TestSwitchLiveThreshold(t *testing.T) {
	sw := New(testGeometry())
	assert.Equal(t, StateHost, sw.Update(1850, 0))

	sw.SetEdgeThreshold(100)
	assert.Equal(t, StateClient, sw.Update(1850, 0))

	sw.SetHysteresis(0)
	assert.Equal(t, StateClient, sw.Update(-3, 0), "outside the left band without hysteresis")
	sw.SetHysteresis(5)
	assert.Equal(t, StateHost, sw.Update(-3, 0))
}

func TestSwitchOnChange(t *testing.T) {
	sw := New(testGeometry())

	var transitions [][2]State
	sw.SetOnChange(func(from, to State) {
		transitions = append(transitions, [2]State{from, to})
	})

	sw.Update(1950, 0)
	sw.Update(1960, 0)
	sw.Update(0, 0)
	sw.Update(1950, 0)
	sw.ForceHost()
	sw.ForceHost()

	assert.Equal(t, [][2]State{
		{StateHost, StateClient},
		{StateClient, StateHost},
		{StateHost, StateClient},
		{StateClient, StateHost},
	}, transitions)
}

func TestSwitchConcurrentUse(t *testing.T) {
	sw := New(testGeometry())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				if (i+j)%2 == 0 {
					sw.Update(1950, j)
				} else {
					sw.Update(5, j)
				}
				_ = sw.IsClientControlled()
			}
		}(i)
	}
	wg.Wait()
}
