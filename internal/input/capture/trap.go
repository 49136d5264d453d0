// Package capture hooks the local keyboard and mouse through libuiohook.
package capture

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	hook "github.com/robotn/gohook"
	"github.com/rs/zerolog/log"

	"edgekvm/internal/input"
)

// ErrAlreadyRunning is returned when a second Trap is started; libuiohook
// supports one hook per process.
var ErrAlreadyRunning = errors.New("input trap already running")

var active atomic.Bool

// Trap delivers captured events to a handler. Events seen while the
// synthetic-input guard is active are suppressed.
type Trap struct {
	guard      *input.Guard
	suppressed atomic.Uint64
	delivered  atomic.Uint64
}

// NewTrap creates a trap that consults the process-wide guard.
func NewTrap() *Trap {
	return &Trap{guard: input.Synthetic}
}

// Run installs the hook and calls handle for every accepted event until ctx
// is cancelled. handle runs on the hook goroutine and must not block.
func (t *Trap) Run(ctx context.Context, handle func(input.InputEvent)) error {
	if !active.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer active.Store(false)

	events := hook.Start()
	defer hook.End()
	log.Info().Msg("Trap: capturing keyboard and mouse")

	for {
		select {
		case <-ctx.Done():
			log.Info().
				Uint64("delivered", t.delivered.Load()).
				Uint64("suppressed", t.suppressed.Load()).
				Msg("Trap: stopped")
			return nil
		case ev, ok := <-events:
			if !ok {
				return errors.New("input hook closed")
			}
			t.accept(ev, handle)
		}
	}
}

// Suppressed returns how many events were dropped as synthetic.
func (t *Trap) Suppressed() uint64 { return t.suppressed.Load() }

func (t *Trap) accept(ev hook.Event, handle func(input.InputEvent)) {
	in, ok := convert(ev)
	if !ok {
		return
	}
	if t.guard.Active() {
		t.suppressed.Add(1)
		return
	}
	t.delivered.Add(1)
	handle(in)
}

// convert maps a libuiohook event to an InputEvent. gohook names the uiohook
// kinds loosely: MouseHold is a press and MouseDown is a release. Typed,
// clicked and wheel events have no wire form and are skipped.
func convert(ev hook.Event) (input.InputEvent, bool) {
	out := input.InputEvent{Time: ev.When}
	if out.Time.IsZero() {
		out.Time = time.Now()
	}

	switch ev.Kind {
	case hook.KeyHold:
		out.Kind = input.KeyDown
		out.Keycode = uint32(ev.Keycode)
	case hook.KeyUp:
		out.Kind = input.KeyUp
		out.Keycode = uint32(ev.Keycode)
	case hook.MouseMove, hook.MouseDrag:
		out.Kind = input.MouseMove
	case hook.MouseHold:
		out.Kind = input.MouseButtonDown
		out.Button = uint8(ev.Button)
	case hook.MouseDown:
		out.Kind = input.MouseButtonUp
		out.Button = uint8(ev.Button)
	default:
		return input.InputEvent{}, false
	}

	if out.IsMouse() {
		out.X, out.Y = int(ev.X), int(ev.Y)
	}
	return out, true
}
