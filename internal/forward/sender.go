// Package forward moves input between machines: the sender turns captured
// events into packets for the stream, the receiver turns the stream back
// into injected input.
package forward

import (
	"context"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"edgekvm/internal/input"
	"edgekvm/internal/protocol"
	"edgekvm/internal/switcher"
)

const (
	DefaultWriteTimeout = 2 * time.Second
	DefaultMaxBacklog   = 1024
)

// SenderOptions tunes a Sender. Zero values select the defaults.
type SenderOptions struct {
	// ReleaseChord forces control back to the host when held together
	ReleaseChord []uint32

	// WriteTimeout bounds each write on streams with write deadlines
	WriteTimeout time.Duration

	// MaxBacklog is how many key and button packets may wait unsent
	MaxBacklog int
}

func (o SenderOptions) withDefaults() SenderOptions {
	if len(o.ReleaseChord) == 0 {
		o.ReleaseChord = DefaultReleaseChord
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = DefaultWriteTimeout
	}
	if o.MaxBacklog <= 0 {
		o.MaxBacklog = DefaultMaxBacklog
	}
	return o
}

type writeDeadliner interface {
	SetWriteDeadline(t time.Time) error
}

// Sender is the host half of the pipeline. Handle is called from the capture
// callback and never blocks on the network; Run owns the stream.
type Sender struct {
	sw    *switcher.Switch
	opts  SenderOptions
	out   *outbox
	stats counters
	now   func() time.Time

	mu        sync.Mutex
	lastState switcher.State
	held      map[uint32]bool // keys physically down on the host
	keysDown  map[uint32]bool // presses forwarded without a release
	btnsDown  map[uint8]bool
	lastCX    int32 // last position sent to the client
	lastCY    int32
}

// NewSender creates a sender driven by sw.
func NewSender(sw *switcher.Switch, opts SenderOptions) *Sender {
	opts = opts.withDefaults()
	return &Sender{
		sw:        sw,
		opts:      opts,
		out:       newOutbox(opts.MaxBacklog),
		now:       time.Now,
		lastState: sw.State(),
		held:      make(map[uint32]bool),
		keysDown:  make(map[uint32]bool),
		btnsDown:  make(map[uint8]bool),
	}
}

// Handle routes one captured event. It returns a *ValidationError for an
// event that was dropped as malformed and the terminal *TransportError once
// the stream has failed. Events the host keeps are not errors.
func (s *Sender) Handle(ev input.InputEvent) error {
	if err := s.out.failed(); err != nil {
		return err
	}
	if ev.Time.IsZero() {
		ev.Time = s.now()
	}
	ts := uint64(ev.Time.UnixMicro())

	s.mu.Lock()
	defer s.mu.Unlock()

	var state switcher.State
	if ev.Kind == input.MouseMove {
		state = s.sw.Update(ev.X, ev.Y)
	} else {
		state = s.sw.State()
	}
	if err := s.syncStateLocked(state, ts); err != nil {
		return err
	}

	switch ev.Kind {
	case input.KeyDown:
		return s.keyDownLocked(ev, state, ts)
	case input.KeyUp:
		return s.keyUpLocked(ev, state, ts)
	case input.MouseMove:
		if state != switcher.StateClient {
			s.stats.droppedLocal.Add(1)
			return nil
		}
		cx, cy, err := s.mapLocked(ev)
		if err != nil {
			return err
		}
		s.lastCX, s.lastCY = cx, cy
		return s.enqueue(protocol.NewPacket(protocol.MouseMove, ts, protocol.MovePayload(cx, cy)))
	case input.MouseButtonDown, input.MouseButtonUp:
		return s.buttonLocked(ev, state, ts)
	}
	return s.invalid(ev, fmt.Errorf("unknown event kind %d", ev.Kind), "")
}

// ReturnToHost gives control back to the host and releases anything the
// client still holds.
func (s *Sender) ReturnToHost() error {
	s.sw.ForceHost()

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.syncStateLocked(switcher.StateHost, uint64(s.now().UnixMicro()))
}

// Stats returns the sender's counters.
func (s *Sender) Stats() Stats {
	st := s.stats.snapshot()
	st.Coalesced = s.out.coalescedCount()
	return st
}

// Run writes queued packets to w until ctx is done, a write fails or the
// queue stalls. Each wake-up drains the whole queue into a single write.
func (s *Sender) Run(ctx context.Context, w io.Writer) error {
	deadliner, _ := w.(writeDeadliner)

	var (
		batch []protocol.EventPacket
		buf   []byte
	)
	for {
		if err := s.out.failed(); err != nil {
			return err
		}
		batch = s.out.take(batch[:0])
		if len(batch) == 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-s.out.notify:
				continue
			}
		}

		buf = buf[:0]
		for _, p := range batch {
			buf = protocol.AppendEncode(buf, p)
		}

		if deadliner != nil {
			if err := deadliner.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout)); err != nil {
				return s.writeFailed(err)
			}
		}
		if _, err := w.Write(buf); err != nil {
			return s.writeFailed(err)
		}
		s.stats.written.Add(uint64(len(batch)))
	}
}

func (s *Sender) writeFailed(cause error) error {
	err := &TransportError{Op: "write", Err: ErrWriteFailed, Cause: cause}
	s.out.fail(err)
	log.Error().Err(cause).Msg("Sender: write failed, stopping")
	return err
}

// syncStateLocked notices a return to the host, whether through the edge or
// ForceHost, and releases whatever the client still holds.
func (s *Sender) syncStateLocked(state switcher.State, ts uint64) error {
	prev := s.lastState
	s.lastState = state
	if prev != switcher.StateClient || state != switcher.StateHost {
		return nil
	}

	keys := make([]uint32, 0, len(s.keysDown))
	for k := range s.keysDown {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if err := s.enqueue(protocol.NewPacket(protocol.KeyRelease, ts, protocol.KeyPayload(k))); err != nil {
			return err
		}
	}
	btns := make([]uint8, 0, len(s.btnsDown))
	for b := range s.btnsDown {
		btns = append(btns, b)
	}
	slices.Sort(btns)
	for _, b := range btns {
		p := protocol.NewPacket(protocol.MouseButtonRelease, ts, protocol.ButtonPayload(b, s.lastCX, s.lastCY))
		if err := s.enqueue(p); err != nil {
			return err
		}
	}
	if n := len(keys) + len(btns); n > 0 {
		log.Debug().Int("count", n).Msg("Sender: released input still held on client")
	}
	clear(s.keysDown)
	clear(s.btnsDown)
	return nil
}

func (s *Sender) keyDownLocked(ev input.InputEvent, state switcher.State, ts uint64) error {
	if !input.ValidKeycode(ev.Keycode) {
		return s.invalid(ev, ErrInvalidKeycode, fmt.Sprintf("keycode 0x%X", ev.Keycode))
	}
	held := s.held[ev.Keycode]
	s.held[ev.Keycode] = true

	if state != switcher.StateClient {
		s.stats.droppedLocal.Add(1)
		return nil
	}
	if !held && chord(s.opts.ReleaseChord).completedBy(ev.Keycode, s.held) {
		log.Info().Msg("Sender: release chord pressed, returning control to host")
		s.sw.ForceHost()
		return s.syncStateLocked(switcher.StateHost, ts)
	}

	s.keysDown[ev.Keycode] = true
	return s.enqueue(protocol.NewPacket(protocol.KeyPress, ts, protocol.KeyPayload(ev.Keycode)))
}

func (s *Sender) keyUpLocked(ev input.InputEvent, state switcher.State, ts uint64) error {
	if !input.ValidKeycode(ev.Keycode) {
		return s.invalid(ev, ErrInvalidKeycode, fmt.Sprintf("keycode 0x%X", ev.Keycode))
	}
	delete(s.held, ev.Keycode)

	// a key pressed before control moved was never forwarded
	if state != switcher.StateClient || !s.keysDown[ev.Keycode] {
		s.stats.droppedLocal.Add(1)
		return nil
	}
	delete(s.keysDown, ev.Keycode)
	return s.enqueue(protocol.NewPacket(protocol.KeyRelease, ts, protocol.KeyPayload(ev.Keycode)))
}

func (s *Sender) buttonLocked(ev input.InputEvent, state switcher.State, ts uint64) error {
	if state != switcher.StateClient {
		s.stats.droppedLocal.Add(1)
		return nil
	}
	if !input.ValidButton(ev.Button) {
		return s.invalid(ev, ErrInvalidButton, fmt.Sprintf("button %d", ev.Button))
	}
	cx, cy, err := s.mapLocked(ev)
	if err != nil {
		return err
	}

	typ := protocol.MouseButtonPress
	if ev.Kind == input.MouseButtonUp {
		typ = protocol.MouseButtonRelease
		delete(s.btnsDown, ev.Button)
	} else {
		s.btnsDown[ev.Button] = true
	}
	s.lastCX, s.lastCY = cx, cy
	return s.enqueue(protocol.NewPacket(typ, ts, protocol.ButtonPayload(ev.Button, cx, cy)))
}

func (s *Sender) mapLocked(ev input.InputEvent) (int32, int32, error) {
	geo := s.sw.Geometry()
	cx, cy := geo.ToClient(ev.X, ev.Y)
	if !geo.Plausible(cx, cy) {
		return 0, 0, s.invalid(ev, ErrInvalidCoordinate, fmt.Sprintf("host (%d,%d) -> client (%d,%d)", ev.X, ev.Y, cx, cy))
	}
	return cx, cy, nil
}

func (s *Sender) invalid(ev input.InputEvent, err error, msg string) error {
	s.stats.invalid.Add(1)
	verr := &ValidationError{Kind: ev.Kind, Err: err, Msg: msg}
	log.Warn().Err(verr).Msg("Sender: dropping event")
	return verr
}

func (s *Sender) enqueue(p protocol.EventPacket) error {
	if err := s.out.push(p); err != nil {
		return err
	}
	s.stats.forwarded.Add(1)
	return nil
}
