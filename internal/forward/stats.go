package forward

import (
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Stats is a snapshot of pipeline counters.
type Stats struct {
	// sender side
	Forwarded    uint64 // packets queued for the wire
	Written      uint64 // packets the stream accepted
	Coalesced    uint64 // moves replaced by a newer move before sending
	DroppedLocal uint64 // events left to the host while it had control
	Invalid      uint64 // events that failed validation

	// receiver side
	Received        uint64 // frames decoded successfully
	Injected        uint64
	ProtocolErrors  uint64
	InjectionErrors uint64
}

// MarshalZerologObject lets a snapshot be logged with Object.
func (s Stats) MarshalZerologObject(e *zerolog.Event) {
	e.Uint64("forwarded", s.Forwarded).
		Uint64("written", s.Written).
		Uint64("coalesced", s.Coalesced).
		Uint64("dropped_local", s.DroppedLocal).
		Uint64("invalid", s.Invalid).
		Uint64("received", s.Received).
		Uint64("injected", s.Injected).
		Uint64("protocol_errors", s.ProtocolErrors).
		Uint64("injection_errors", s.InjectionErrors)
}

type counters struct {
	forwarded       atomic.Uint64
	written         atomic.Uint64
	droppedLocal    atomic.Uint64
	invalid         atomic.Uint64
	received        atomic.Uint64
	injected        atomic.Uint64
	protocolErrors  atomic.Uint64
	injectionErrors atomic.Uint64
}

func (c *counters) snapshot() Stats {
	return Stats{
		Forwarded:       c.forwarded.Load(),
		Written:         c.written.Load(),
		DroppedLocal:    c.droppedLocal.Load(),
		Invalid:         c.invalid.Load(),
		Received:        c.received.Load(),
		Injected:        c.injected.Load(),
		ProtocolErrors:  c.protocolErrors.Load(),
		InjectionErrors: c.injectionErrors.Load(),
	}
}
