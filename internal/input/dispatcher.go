package input

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"edgekvm/internal/protocol"
)

// Dispatcher turns decoded packets into calls on an Injector. It holds the
// synthetic-input guard for the duration of every call so local capture
// ignores the events it produces.
type Dispatcher struct {
	injector Injector
	guard    *Guard
}

// NewDispatcher creates a dispatcher over injector using the process-wide
// guard.
func NewDispatcher(injector Injector) *Dispatcher {
	return &Dispatcher{injector: injector, guard: Synthetic}
}

// Injector returns the backend this dispatcher drives.
func (d *Dispatcher) Injector() Injector {
	return d.injector
}

// Dispatch replays one packet. Packets arrive already validated by the
// codec; the payload is still checked against the fields its type needs.
// A failure is returned as *InjectionError and does not affect later calls.
func (d *Dispatcher) Dispatch(pkt protocol.EventPacket) error {
	err := d.guard.Do(func() error { return d.inject(pkt) })
	if err == nil {
		return nil
	}
	log.Debug().Err(err).Stringer("type", pkt.Type).Msg("Dispatch: event dropped")
	return &InjectionError{Type: pkt.Type, Injector: d.injector.Name(), Err: err}
}

func (d *Dispatcher) inject(pkt protocol.EventPacket) error {
	switch pkt.Type {
	case protocol.KeyPress, protocol.KeyRelease:
		code, err := protocol.ParseKey(pkt.Payload)
		if err != nil {
			return err
		}
		if pkt.Type == protocol.KeyPress {
			return d.injector.InjectKeyPress(code)
		}
		return d.injector.InjectKeyRelease(code)

	case protocol.MouseMove:
		x, y, err := protocol.ParseMove(pkt.Payload)
		if err != nil {
			return err
		}
		return d.injector.InjectMouseMove(x, y)

	case protocol.MouseButtonPress, protocol.MouseButtonRelease:
		button, x, y, err := protocol.ParseButton(pkt.Payload)
		if err != nil {
			return err
		}
		if pkt.Type == protocol.MouseButtonPress {
			return d.injector.InjectMouseButtonPress(button, x, y)
		}
		return d.injector.InjectMouseButtonRelease(button, x, y)
	}
	return fmt.Errorf("%w: %d", protocol.ErrUnknownEventType, uint8(pkt.Type))
}
