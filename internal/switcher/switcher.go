// Package switcher decides, sample by sample, whether input belongs to the
// host or is forwarded to the client, and maps host positions into the
// client's coordinate space.
package switcher

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// State is the routing decision for captured input.
type State int

const (
	// StateHost leaves input to the local machine
	StateHost State = iota
	// StateClient forwards input to the peer
	StateClient
)

func (s State) String() string {
	if s == StateClient {
		return "CLIENT"
	}
	return "HOST"
}

// Switch is the edge-detection state machine. It starts in StateHost and
// only re-evaluates when a sample lands in one of the edge bands, so noisy
// samples in the middle of the screen never flip the state.
type Switch struct {
	mu    sync.Mutex
	geo   Geometry
	state State

	onChange func(from, to State)
}

// New creates a Switch for the given layout.
func New(geo Geometry) *Switch {
	return &Switch{geo: geo}
}

// SetOnChange sets the callback for state transitions. It runs on the
// caller of Update, outside the lock.
func (s *Switch) SetOnChange(callback func(from, to State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = callback
}

// Update feeds one host-local cursor sample and returns the resulting state.
func (s *Switch) Update(x, y int) State {
	s.mu.Lock()
	from := s.state
	if s.geo.NearRightEdge(x) || s.geo.NearLeftEdge(x) {
		if x > s.geo.HostWidth/2 {
			s.state = StateClient
		} else {
			s.state = StateHost
		}
	}
	to := s.state
	callback := s.onChange
	s.mu.Unlock()

	if from != to {
		log.Debug().Int("x", x).Int("y", y).Msgf("Switch: %s -> %s", from, to)
		if callback != nil {
			callback(from, to)
		}
	}
	return to
}

// ForceHost returns control to the host regardless of cursor position.
func (s *Switch) ForceHost() {
	s.mu.Lock()
	from := s.state
	s.state = StateHost
	callback := s.onChange
	s.mu.Unlock()

	if from != StateHost {
		log.Info().Msg("Switch: control forced back to HOST")
		if callback != nil {
			callback(from, StateHost)
		}
	}
}

// State returns the current state.
func (s *Switch) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IsClientControlled reports whether input is currently forwarded.
func (s *Switch) IsClientControlled() bool {
	return s.State() == StateClient
}

// Geometry returns the layout the next sample will be evaluated against.
func (s *Switch) Geometry() Geometry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.geo
}

// SetGeometry replaces the layout; it applies from the next sample.
func (s *Switch) SetGeometry(geo Geometry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.geo = geo
}

// SetEdgeThreshold changes the edge band width; it applies from the next
// sample.
func (s *Switch) SetEdgeThreshold(px int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.geo.EdgeThreshold = px
}

// SetHysteresis changes the overshoot margin; it applies from the next
// sample.
func (s *Switch) SetHysteresis(px int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.geo.Hysteresis = px
}
