package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePayloads(t *testing.T) {
	code, err := ParseKey(KeyPayload(0xE04B))
	require.NoError(t, err)
	assert.Equal(t, uint32(0xE04B), code)

	x, y, err := ParseMove(MovePayload(-1, 500))
	require.NoError(t, err)
	assert.Equal(t, int32(-1), x)
	assert.Equal(t, int32(500), y)

	btn, x, y, err := ParseButton(ButtonPayload(5, 80, -3))
	require.NoError(t, err)
	assert.Equal(t, uint8(5), btn)
	assert.Equal(t, int32(80), x)
	assert.Equal(t, int32(-3), y)
}

func TestParsePayloadsTooSmall(t *testing.T) {
	_, err := ParseKey([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrPayloadTooSmall)

	_, _, err = ParseMove(make([]byte, 7))
	assert.ErrorIs(t, err, ErrPayloadTooSmall)

	_, _, _, err = ParseButton(nil)
	assert.ErrorIs(t, err, ErrPayloadTooSmall)

	assert.False(t, IsProtocolError(err))
}
