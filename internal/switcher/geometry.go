package switcher

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidGeometry is returned by Validate for a layout the edge
	// switch and the coordinate mapping cannot honour
	ErrInvalidGeometry = errors.New("invalid screen geometry")
)

// Geometry describes the two-screen layout: the client screen sits
// immediately to the right of the host screen and has its own origin at
// that boundary.
type Geometry struct {
	// HostWidth and HostHeight are the host screen size in pixels
	HostWidth  int `json:"width" envconfig:"width"`
	HostHeight int `json:"height" envconfig:"height"`

	// ClientWidth and ClientHeight are the peer screen size in pixels.
	// Zero means "same as the host".
	ClientWidth  int `json:"client_width,omitempty" envconfig:"client_width"`
	ClientHeight int `json:"client_height,omitempty" envconfig:"client_height"`

	// EdgeThreshold is how close to an edge (px) a sample must be before the
	// state is re-evaluated
	EdgeThreshold int `json:"edge_threshold" envconfig:"edge_threshold"`

	// Hysteresis is the overshoot margin (px) accepted beyond the outer
	// edges of the combined layout
	Hysteresis int `json:"hysteresis" envconfig:"hysteresis"`
}

// DefaultGeometry returns a 1920x1080 layout with a 20px edge band.
func DefaultGeometry() Geometry {
	return Geometry{
		HostWidth:     1920,
		HostHeight:    1080,
		EdgeThreshold: 20,
		Hysteresis:    5,
	}
}

// WithDefaults fills the client size from the host size when unset.
func (g Geometry) WithDefaults() Geometry {
	if g.ClientWidth == 0 {
		g.ClientWidth = g.HostWidth
	}
	if g.ClientHeight == 0 {
		g.ClientHeight = g.HostHeight
	}
	return g
}

// Validate checks the invariants the mapping relies on. The receiver uses
// client-relative coordinates as its own absolute coordinates, which is
// only correct if the client really starts at x = HostWidth.
func (g Geometry) Validate() error {
	g = g.WithDefaults()
	switch {
	case g.HostWidth <= 0 || g.HostHeight <= 0:
		return fmt.Errorf("%w: host size %dx%d", ErrInvalidGeometry, g.HostWidth, g.HostHeight)
	case g.ClientWidth <= 0 || g.ClientHeight <= 0:
		return fmt.Errorf("%w: client size %dx%d", ErrInvalidGeometry, g.ClientWidth, g.ClientHeight)
	case g.EdgeThreshold < 0 || g.EdgeThreshold >= g.HostWidth/2:
		return fmt.Errorf("%w: edge threshold %d must be in [0, %d)", ErrInvalidGeometry, g.EdgeThreshold, g.HostWidth/2)
	case g.Hysteresis < 0:
		return fmt.Errorf("%w: hysteresis %d must not be negative", ErrInvalidGeometry, g.Hysteresis)
	}
	return nil
}

// NearRightEdge reports whether x is within the band around the host/client
// boundary. The band reaches from the threshold inside the host screen to
// the far side of the client screen plus the hysteresis margin.
func (g Geometry) NearRightEdge(x int) bool {
	g = g.WithDefaults()
	return x >= g.HostWidth-g.EdgeThreshold && x <= g.HostWidth+g.ClientWidth+g.Hysteresis
}

// NearLeftEdge reports whether x is within the band at the host's left edge.
func (g Geometry) NearLeftEdge(x int) bool {
	return x >= -g.Hysteresis && x <= g.EdgeThreshold
}

// ToClient maps a host-local position to client-relative coordinates.
func (g Geometry) ToClient(x, y int) (int32, int32) {
	return int32(x - g.HostWidth), int32(y)
}

// FromWire turns decoded coordinates into the receiver's local absolute
// coordinates. The sender already subtracted its own width; the receiver's
// origin is independent so nothing is added back.
func FromWire(x, y int32) (int, int) {
	return int(x), int(y)
}

// Plausible reports whether client-relative coordinates fall inside the
// combined two-screen range.
func (g Geometry) Plausible(cx, cy int32) bool {
	g = g.WithDefaults()
	maxY := g.HostHeight
	if g.ClientHeight > maxY {
		maxY = g.ClientHeight
	}
	x, y := int(cx), int(cy)
	return x >= -g.HostWidth && x <= g.ClientWidth+g.Hysteresis &&
		y >= -g.Hysteresis && y <= maxY+g.Hysteresis
}
