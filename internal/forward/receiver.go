package forward

import (
	"context"
	"errors"
	"io"
	"slices"

	"github.com/rs/zerolog/log"

	"edgekvm/internal/input"
	"edgekvm/internal/protocol"
)

const readBufferSize = 4096

// Receiver is the client half of the pipeline.
type Receiver struct {
	dispatcher *input.Dispatcher
	maxPayload int
	stats      counters

	// presses injected without a matching release
	keysDown map[uint32]bool
	btnsDown map[uint8]bool
	lastX    int32
	lastY    int32
}

// NewReceiver creates a receiver that replays packets through d.
func NewReceiver(d *input.Dispatcher) *Receiver {
	return &Receiver{
		dispatcher: d,
		maxPayload: DefaultMaxPayload,
		keysDown:   make(map[uint32]bool),
		btnsDown:   make(map[uint8]bool),
	}
}

// Stats returns the receiver's counters.
func (r *Receiver) Stats() Stats {
	return r.stats.snapshot()
}

// Run reads the stream until it ends, ctx is cancelled or framing is lost.
// Malformed packets and failed injections are logged, counted and skipped.
// If rd is an io.Closer it is closed when ctx is cancelled to unblock Read.
func (r *Receiver) Run(ctx context.Context, rd io.Reader) error {
	if c, ok := rd.(io.Closer); ok {
		stop := context.AfterFunc(ctx, func() { c.Close() })
		defer stop()
	}

	ra := NewReassembler(r.maxPayload)
	chunk := make([]byte, readBufferSize)
	for {
		n, rerr := rd.Read(chunk)
		if n > 0 {
			ra.Write(chunk[:n])
			if err := r.drain(ra); err != nil {
				log.Error().Err(err).Msg("Receiver: lost framing, closing")
				return err
			}
		}
		if rerr == nil {
			continue
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(rerr, io.EOF) {
			if ra.Buffered() > 0 {
				log.Warn().Int("bytes", ra.Buffered()).Msg("Receiver: stream ended inside a packet")
			}
			return &TransportError{Op: "read", Err: ErrConnectionClosed}
		}
		return &TransportError{Op: "read", Err: ErrConnectionClosed, Cause: rerr}
	}
}

func (r *Receiver) drain(ra *Reassembler) error {
	for {
		frame, ok, err := ra.Next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		r.handle(frame)
	}
}

func (r *Receiver) handle(frame []byte) {
	pkt, err := protocol.Decode(frame)
	if err != nil {
		r.stats.protocolErrors.Add(1)
		log.Warn().Err(err).Msg("Receiver: dropping malformed packet")
		return
	}
	r.stats.received.Add(1)

	if err := r.dispatcher.Dispatch(pkt); err != nil {
		r.stats.injectionErrors.Add(1)
		log.Warn().Err(err).Msg("Receiver: injection failed")
		return
	}
	r.stats.injected.Add(1)
	r.track(pkt)
}

// track records what the injected packet left pressed. Payloads were already
// parsed successfully by the dispatcher.
func (r *Receiver) track(pkt protocol.EventPacket) {
	switch pkt.Type {
	case protocol.KeyPress, protocol.KeyRelease:
		code, _ := protocol.ParseKey(pkt.Payload)
		if pkt.Type == protocol.KeyPress {
			r.keysDown[code] = true
		} else {
			delete(r.keysDown, code)
		}
	case protocol.MouseMove:
		r.lastX, r.lastY, _ = protocol.ParseMove(pkt.Payload)
	case protocol.MouseButtonPress, protocol.MouseButtonRelease:
		btn, x, y, _ := protocol.ParseButton(pkt.Payload)
		r.lastX, r.lastY = x, y
		if pkt.Type == protocol.MouseButtonPress {
			r.btnsDown[btn] = true
		} else {
			delete(r.btnsDown, btn)
		}
	}
}

// ReleaseHeld injects releases for every key and button the stream pressed
// but never released, so a dropped connection leaves nothing stuck on this
// machine. Call it after Run returns. It returns how many releases were
// injected.
func (r *Receiver) ReleaseHeld() int {
	n := 0
	keys := make([]uint32, 0, len(r.keysDown))
	for code := range r.keysDown {
		keys = append(keys, code)
	}
	slices.Sort(keys)
	for _, code := range keys {
		if r.release(protocol.NewPacket(protocol.KeyRelease, 0, protocol.KeyPayload(code))) {
			n++
		}
	}

	btns := make([]uint8, 0, len(r.btnsDown))
	for btn := range r.btnsDown {
		btns = append(btns, btn)
	}
	slices.Sort(btns)
	for _, btn := range btns {
		if r.release(protocol.NewPacket(protocol.MouseButtonRelease, 0, protocol.ButtonPayload(btn, r.lastX, r.lastY))) {
			n++
		}
	}

	clear(r.keysDown)
	clear(r.btnsDown)
	if n > 0 {
		log.Info().Int("released", n).Msg("Receiver: released input held at disconnect")
	}
	return n
}

func (r *Receiver) release(pkt protocol.EventPacket) bool {
	if err := r.dispatcher.Dispatch(pkt); err != nil {
		r.stats.injectionErrors.Add(1)
		log.Warn().Err(err).Msg("Receiver: release failed")
		return false
	}
	return true
}
