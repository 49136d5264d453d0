package forward

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edgekvm/internal/input"
	"edgekvm/internal/input/inputtest"
	"edgekvm/internal/protocol"
	"edgekvm/internal/switcher"
)

func newTestSender(t *testing.T, opts SenderOptions) (*Sender, *switcher.Switch) {
	t.Helper()
	sw := switcher.New(switcher.DefaultGeometry())
	return NewSender(sw, opts), sw
}

func move(x, y int) input.InputEvent {
	return input.InputEvent{Kind: input.MouseMove, X: x, Y: y}
}

func key(kind input.Kind, code uint32) input.InputEvent {
	return input.InputEvent{Kind: kind, Keycode: code}
}

func button(kind input.Kind, b uint8, x, y int) input.InputEvent {
	return input.InputEvent{Kind: kind, Button: b, X: x, Y: y}
}

// queued drains the outbox without a stream and decodes nothing; packets are
// returned as built.
func queued(s *Sender) []protocol.EventPacket {
	return s.out.take(nil)
}

type summary struct {
	Type    protocol.EventType
	Keycode uint32
	Button  uint8
	X, Y    int32
}

func summarize(t *testing.T, pkts []protocol.EventPacket) []summary {
	t.Helper()
	out := make([]summary, 0, len(pkts))
	for _, p := range pkts {
		s := summary{Type: p.Type}
		var err error
		switch p.Type {
		case protocol.KeyPress, protocol.KeyRelease:
			s.Keycode, err = protocol.ParseKey(p.Payload)
		case protocol.MouseMove:
			s.X, s.Y, err = protocol.ParseMove(p.Payload)
		default:
			s.Button, s.X, s.Y, err = protocol.ParseButton(p.Payload)
		}
		require.NoError(t, err)
		out = append(out, s)
	}
	return out
}

func TestEndToEndMoveAcrossRightEdge(t *testing.T) {
	s, sw := newTestSender(t, SenderOptions{})
	rec := inputtest.NewRecorder()
	r := NewReceiver(input.NewDispatcher(rec))

	hostConn, clientConn := net.Pipe()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); _ = s.Run(ctx, hostConn) }()
	go func() { defer wg.Done(); _ = r.Run(ctx, clientConn) }()

	require.NoError(t, s.Handle(move(1921, 500)))
	assert.True(t, sw.IsClientControlled())

	require.Eventually(t, func() bool { return rec.Len() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, inputtest.Call{Op: "mouse_move", X: 1, Y: 500}, rec.Calls()[0])

	cancel()
	hostConn.Close()
	wg.Wait()

	assert.Equal(t, uint64(1), s.Stats().Written)
	assert.Equal(t, uint64(1), r.Stats().Injected)
}

func TestHostKeepsInputWhileInControl(t *testing.T) {
	s, _ := newTestSender(t, SenderOptions{})

	require.NoError(t, s.Handle(move(500, 500)))
	require.NoError(t, s.Handle(key(input.KeyDown, input.VCA)))
	require.NoError(t, s.Handle(key(input.KeyUp, input.VCA)))
	require.NoError(t, s.Handle(button(input.MouseButtonDown, input.ButtonLeft, 500, 500)))

	assert.Empty(t, queued(s))
	assert.Equal(t, uint64(4), s.Stats().DroppedLocal)
}

func TestForwardsWhileClientControlled(t *testing.T) {
	s, _ := newTestSender(t, SenderOptions{})

	require.NoError(t, s.Handle(move(1950, 300)))
	require.NoError(t, s.Handle(key(input.KeyDown, input.VCA)))
	require.NoError(t, s.Handle(key(input.KeyUp, input.VCA)))
	require.NoError(t, s.Handle(button(input.MouseButtonDown, input.ButtonRight, 2000, 310)))
	require.NoError(t, s.Handle(button(input.MouseButtonUp, input.ButtonRight, 2001, 311)))

	assert.Equal(t, []summary{
		{Type: protocol.MouseMove, X: 30, Y: 300},
		{Type: protocol.KeyPress, Keycode: input.VCA},
		{Type: protocol.KeyRelease, Keycode: input.VCA},
		{Type: protocol.MouseButtonPress, Button: input.ButtonRight, X: 80, Y: 310},
		{Type: protocol.MouseButtonRelease, Button: input.ButtonRight, X: 81, Y: 311},
	}, summarize(t, queued(s)))
}

func TestValidation(t *testing.T) {
	s, _ := newTestSender(t, SenderOptions{})
	require.NoError(t, s.Handle(move(1950, 300)))
	queued(s)

	cases := []struct {
		name string
		ev   input.InputEvent
		want error
	}{
		{"zero keycode", key(input.KeyDown, 0), ErrInvalidKeycode},
		{"zero button", button(input.MouseButtonDown, 0, 2000, 10), ErrInvalidButton},
		{"below client", move(1950, 5000), ErrInvalidCoordinate},
		{"button off screen", button(input.MouseButtonDown, input.ButtonLeft, 1950, -400), ErrInvalidCoordinate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := s.Handle(tc.ev)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.ErrorIs(t, err, tc.want)
			assert.Equal(t, tc.ev.Kind, verr.Kind)
		})
	}
	assert.Empty(t, queued(s))
	assert.Equal(t, uint64(len(cases)), s.Stats().Invalid)
}

func TestMovesCoalesce(t *testing.T) {
	s, _ := newTestSender(t, SenderOptions{})

	require.NoError(t, s.Handle(move(1950, 100)))
	require.NoError(t, s.Handle(move(1960, 110)))
	require.NoError(t, s.Handle(move(1970, 120)))
	require.NoError(t, s.Handle(key(input.KeyDown, input.VCA)))
	require.NoError(t, s.Handle(move(1980, 130)))
	require.NoError(t, s.Handle(move(1990, 140)))

	assert.Equal(t, []summary{
		{Type: protocol.MouseMove, X: 50, Y: 120},
		{Type: protocol.KeyPress, Keycode: input.VCA},
		{Type: protocol.MouseMove, X: 70, Y: 140},
	}, summarize(t, queued(s)))
	assert.Equal(t, uint64(3), s.Stats().Coalesced)
}

func TestBacklogStallIsTerminal(t *testing.T) {
	s, _ := newTestSender(t, SenderOptions{MaxBacklog: 3})
	require.NoError(t, s.Handle(move(1950, 100)))

	for _, k := range []uint32{0x10, 0x11, 0x12} {
		require.NoError(t, s.Handle(key(input.KeyDown, k)))
	}
	err := s.Handle(key(input.KeyDown, 0x13))
	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	assert.ErrorIs(t, err, ErrWriteStalled)

	assert.ErrorIs(t, s.Handle(move(1960, 100)), ErrWriteStalled)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.ErrorIs(t, s.Run(ctx, io.Discard), ErrWriteStalled, "the writer stops too")
}

type failingWriter struct{ err error }

func (w failingWriter) Write([]byte) (int, error) { return 0, w.err }

func TestWriteFailureIsTerminal(t *testing.T) {
	s, _ := newTestSender(t, SenderOptions{})
	require.NoError(t, s.Handle(move(1950, 100)))

	broken := errors.New("broken pipe")
	err := s.Run(context.Background(), failingWriter{err: broken})

	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	assert.ErrorIs(t, err, ErrWriteFailed)
	assert.ErrorIs(t, err, broken)

	later := s.Handle(key(input.KeyDown, input.VCA))
	assert.ErrorIs(t, later, ErrWriteFailed)
}

type deadlineWriter struct {
	mu        sync.Mutex
	deadlines []time.Time
	writes    [][]byte
}

func (w *deadlineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.writes = append(w.writes, append([]byte(nil), p...))
	return len(p), nil
}

func (w *deadlineWriter) SetWriteDeadline(t time.Time) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.deadlines = append(w.deadlines, t)
	return nil
}

func (w *deadlineWriter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.writes)
}

func TestRunBatchesAndSetsDeadline(t *testing.T) {
	s, _ := newTestSender(t, SenderOptions{WriteTimeout: 50 * time.Millisecond})
	require.NoError(t, s.Handle(move(1950, 100)))
	require.NoError(t, s.Handle(key(input.KeyDown, input.VCA)))
	require.NoError(t, s.Handle(key(input.KeyUp, input.VCA)))

	w := &deadlineWriter{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	start := time.Now()
	go func() { done <- s.Run(ctx, w) }()

	require.Eventually(t, func() bool { return w.count() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	require.Len(t, w.deadlines, 1)
	assert.WithinDuration(t, start.Add(50*time.Millisecond), w.deadlines[0], time.Second)

	// three packets in one write
	assert.Len(t, w.writes[0], protocol.HeaderSize*3+protocol.MovePayloadSize+2*protocol.KeyPayloadSize)
	assert.Equal(t, uint64(3), s.Stats().Written)
}

func TestTimestampStamping(t *testing.T) {
	s, _ := newTestSender(t, SenderOptions{})
	fixed := time.Unix(1700000000, 123456000)
	s.now = func() time.Time { return fixed }

	require.NoError(t, s.Handle(move(1950, 100)))
	explicit := time.Unix(1700000001, 0)
	require.NoError(t, s.Handle(input.InputEvent{Kind: input.KeyDown, Keycode: input.VCA, Time: explicit}))

	pkts := queued(s)
	require.Len(t, pkts, 2)
	assert.Equal(t, uint64(fixed.UnixMicro()), pkts[0].Timestamp)
	assert.Equal(t, uint64(explicit.UnixMicro()), pkts[1].Timestamp)
}

func TestReleaseChordReturnsControl(t *testing.T) {
	s, sw := newTestSender(t, SenderOptions{})
	require.NoError(t, s.Handle(move(1950, 100)))

	require.NoError(t, s.Handle(key(input.KeyDown, input.VCControlR)))
	require.NoError(t, s.Handle(key(input.KeyDown, input.VCAltL)))
	require.NoError(t, s.Handle(key(input.KeyDown, input.VCEscape)))

	assert.Equal(t, switcher.StateHost, sw.State())
	assert.Equal(t, []summary{
		{Type: protocol.MouseMove, X: 30, Y: 100},
		{Type: protocol.KeyPress, Keycode: input.VCControlR},
		{Type: protocol.KeyPress, Keycode: input.VCAltL},
		{Type: protocol.KeyRelease, Keycode: input.VCAltL},
		{Type: protocol.KeyRelease, Keycode: input.VCControlR},
	}, summarize(t, queued(s)))

	// the chord's own releases stay local
	require.NoError(t, s.Handle(key(input.KeyUp, input.VCEscape)))
	require.NoError(t, s.Handle(key(input.KeyUp, input.VCAltL)))
	assert.Empty(t, queued(s))
}

func TestKeyPressedOnHostReleasesLocally(t *testing.T) {
	s, sw := newTestSender(t, SenderOptions{})
	require.NoError(t, s.Handle(key(input.KeyDown, input.VCA)))
	require.NoError(t, s.Handle(move(1950, 100)))
	require.True(t, sw.IsClientControlled())

	require.NoError(t, s.Handle(key(input.KeyUp, input.VCA)))

	assert.Equal(t, []summary{
		{Type: protocol.MouseMove, X: 30, Y: 100},
	}, summarize(t, queued(s)))
	assert.Equal(t, uint64(2), s.Stats().DroppedLocal)
}

func TestCustomReleaseChord(t *testing.T) {
	s, sw := newTestSender(t, SenderOptions{ReleaseChord: []uint32{input.VCControlL, input.VCF12}})
	require.NoError(t, s.Handle(move(1950, 100)))

	require.NoError(t, s.Handle(key(input.KeyDown, input.VCEscape)))
	require.NoError(t, s.Handle(key(input.KeyDown, input.VCControlL)))
	assert.True(t, sw.IsClientControlled())
	require.NoError(t, s.Handle(key(input.KeyDown, input.VCF12)))
	assert.False(t, sw.IsClientControlled())
}

func TestReturnAcrossEdgeReleasesHeldInput(t *testing.T) {
	s, sw := newTestSender(t, SenderOptions{})
	require.NoError(t, s.Handle(move(1950, 100)))
	require.NoError(t, s.Handle(key(input.KeyDown, input.VCShiftL)))
	require.NoError(t, s.Handle(button(input.MouseButtonDown, input.ButtonLeft, 2100, 200)))
	require.NoError(t, s.Handle(move(2050, 210)))
	queued(s)

	// left band: control returns to the host
	require.NoError(t, s.Handle(move(10, 210)))
	assert.Equal(t, switcher.StateHost, sw.State())

	assert.Equal(t, []summary{
		{Type: protocol.KeyRelease, Keycode: input.VCShiftL},
		{Type: protocol.MouseButtonRelease, Button: input.ButtonLeft, X: 130, Y: 210},
	}, summarize(t, queued(s)))

	// nothing left to release on a second return
	require.NoError(t, s.ReturnToHost())
	assert.Empty(t, queued(s))
}

func TestReturnToHost(t *testing.T) {
	s, sw := newTestSender(t, SenderOptions{})
	require.NoError(t, s.Handle(move(1950, 100)))
	require.NoError(t, s.Handle(key(input.KeyDown, input.VCA)))
	queued(s)

	require.NoError(t, s.ReturnToHost())
	assert.False(t, sw.IsClientControlled())
	assert.Equal(t, []summary{{Type: protocol.KeyRelease, Keycode: input.VCA}}, summarize(t, queued(s)))

	// a switch forced elsewhere is noticed on the next event
	require.NoError(t, s.Handle(move(1950, 100)))
	require.NoError(t, s.Handle(key(input.KeyDown, input.VCA)))
	queued(s)
	sw.ForceHost()
	require.NoError(t, s.Handle(move(500, 100)))
	assert.Equal(t, []summary{{Type: protocol.KeyRelease, Keycode: input.VCA}}, summarize(t, queued(s)))
}
