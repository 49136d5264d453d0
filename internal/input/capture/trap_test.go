package capture

import (
	"testing"
	"time"

	hook "github.com/robotn/gohook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edgekvm/internal/input"
)

func TestConvert(t *testing.T) {
	when := time.Unix(1700000000, 0)

	cases := []struct {
		name string
		in   hook.Event
		want input.InputEvent
	}{
		{"key press", hook.Event{Kind: hook.KeyHold, Keycode: 30, When: when},
			input.InputEvent{Kind: input.KeyDown, Keycode: 30, Time: when}},
		{"key release", hook.Event{Kind: hook.KeyUp, Keycode: 0xE04B, When: when},
			input.InputEvent{Kind: input.KeyUp, Keycode: 0xE04B, Time: when}},
		{"move", hook.Event{Kind: hook.MouseMove, X: 1921, Y: 500, When: when},
			input.InputEvent{Kind: input.MouseMove, X: 1921, Y: 500, Time: when}},
		{"drag", hook.Event{Kind: hook.MouseDrag, X: -3, Y: 7, When: when},
			input.InputEvent{Kind: input.MouseMove, X: -3, Y: 7, Time: when}},
		{"button press", hook.Event{Kind: hook.MouseHold, Button: 1, X: 10, Y: 20, When: when},
			input.InputEvent{Kind: input.MouseButtonDown, Button: 1, X: 10, Y: 20, Time: when}},
		{"button release", hook.Event{Kind: hook.MouseDown, Button: 2, X: 11, Y: 21, When: when},
			input.InputEvent{Kind: input.MouseButtonUp, Button: 2, X: 11, Y: 21, Time: when}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := convert(tc.in)
			require.True(t, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestConvertSkipsUnforwardable(t *testing.T) {
	for _, kind := range []uint8{hook.KeyDown, hook.MouseUp, hook.MouseWheel, hook.HookEnabled} {
		_, ok := convert(hook.Event{Kind: kind})
		assert.False(t, ok, "kind %d", kind)
	}
}

func TestConvertFillsMissingTime(t *testing.T) {
	got, ok := convert(hook.Event{Kind: hook.MouseMove})
	require.True(t, ok)
	assert.False(t, got.Time.IsZero())
}

func TestAcceptSuppressesSynthetic(t *testing.T) {
	tr := NewTrap()
	var got []input.InputEvent
	handle := func(e input.InputEvent) { got = append(got, e) }

	tr.accept(hook.Event{Kind: hook.KeyHold, Keycode: 30}, handle)

	input.Synthetic.Enter()
	tr.accept(hook.Event{Kind: hook.KeyHold, Keycode: 31}, handle)
	tr.accept(hook.Event{Kind: hook.MouseMove, X: 5, Y: 5}, handle)
	input.Synthetic.Leave()

	tr.accept(hook.Event{Kind: hook.KeyUp, Keycode: 30}, handle)

	require.Len(t, got, 2)
	assert.Equal(t, uint32(30), got[0].Keycode)
	assert.Equal(t, input.KeyUp, got[1].Kind)
	assert.Equal(t, uint64(2), tr.Suppressed())
}
