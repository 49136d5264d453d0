package input_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edgekvm/internal/input"
	"edgekvm/internal/input/inputtest"
	"edgekvm/internal/protocol"
)

func TestRecorderSatisfiesContract(t *testing.T) {
	rec := inputtest.NewRecorder()
	inputtest.RunInjectorContract(t, rec, 100, 200)
	assert.Equal(t, 2+6+6, rec.Len())
}

func TestDispatchRoutesEveryType(t *testing.T) {
	rec := inputtest.NewRecorder()
	d := input.NewDispatcher(rec)

	pkts := []protocol.EventPacket{
		protocol.NewPacket(protocol.KeyPress, 1, protocol.KeyPayload(input.VCA)),
		protocol.NewPacket(protocol.KeyRelease, 2, protocol.KeyPayload(input.VCA)),
		protocol.NewPacket(protocol.MouseMove, 3, protocol.MovePayload(1, 500)),
		protocol.NewPacket(protocol.MouseButtonPress, 4, protocol.ButtonPayload(input.ButtonRight, 10, -20)),
		protocol.NewPacket(protocol.MouseButtonRelease, 5, protocol.ButtonPayload(input.ButtonRight, 11, 21)),
	}
	for _, p := range pkts {
		require.NoError(t, d.Dispatch(p))
	}

	assert.Equal(t, []inputtest.Call{
		{Op: "key_press", Keycode: input.VCA},
		{Op: "key_release", Keycode: input.VCA},
		{Op: "mouse_move", X: 1, Y: 500},
		{Op: "button_press", Button: input.ButtonRight, X: 10, Y: -20},
		{Op: "button_release", Button: input.ButtonRight, X: 11, Y: 21},
	}, rec.Calls())
}

func TestDispatchShortPayload(t *testing.T) {
	rec := inputtest.NewRecorder()
	d := input.NewDispatcher(rec)

	cases := []protocol.EventPacket{
		{Type: protocol.KeyPress, Payload: []byte{0, 0}},
		{Type: protocol.MouseMove, Payload: []byte{0, 0, 0, 1}},
		{Type: protocol.MouseButtonRelease, Payload: []byte{1, 0, 0, 0, 1, 0, 0, 0}},
	}
	for _, p := range cases {
		err := d.Dispatch(p)
		require.Error(t, err)

		var ie *input.InjectionError
		require.ErrorAs(t, err, &ie)
		assert.Equal(t, p.Type, ie.Type)
		assert.Equal(t, "recorder", ie.Injector)
		assert.ErrorIs(t, err, input.ErrPayloadTooSmall)
	}
	assert.Zero(t, rec.Len())
}

func TestDispatchPlatformFailureIsPerEvent(t *testing.T) {
	rec := inputtest.NewRecorder()
	rec.Err = input.PlatformError("SendInput", errors.New("access denied"))
	d := input.NewDispatcher(rec)

	err := d.Dispatch(protocol.NewPacket(protocol.MouseMove, 1, protocol.MovePayload(5, 5)))
	assert.ErrorIs(t, err, input.ErrPlatformAPI)
	assert.Contains(t, err.Error(), "access denied")

	rec.Err = nil
	assert.NoError(t, d.Dispatch(protocol.NewPacket(protocol.MouseMove, 2, protocol.MovePayload(6, 6))))
	assert.Equal(t, 2, rec.Len())
}

func TestDispatchUnknownType(t *testing.T) {
	d := input.NewDispatcher(inputtest.NewRecorder())
	err := d.Dispatch(protocol.EventPacket{Type: protocol.EventType(9)})
	assert.ErrorIs(t, err, protocol.ErrUnknownEventType)
}

func TestDispatchHoldsGuard(t *testing.T) {
	rec := inputtest.NewRecorder()
	var during []bool
	rec.OnInject = func(inputtest.Call) { during = append(during, input.Synthetic.Active()) }
	d := input.NewDispatcher(rec)

	require.False(t, input.Synthetic.Active())
	require.NoError(t, d.Dispatch(protocol.NewPacket(protocol.KeyPress, 1, protocol.KeyPayload(input.VCA))))
	require.NoError(t, d.Dispatch(protocol.NewPacket(protocol.MouseMove, 2, protocol.MovePayload(1, 1))))

	assert.Equal(t, []bool{true, true}, during)
	assert.False(t, input.Synthetic.Active())
}
