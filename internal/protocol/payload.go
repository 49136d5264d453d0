package protocol

import (
	"encoding/binary"
	"fmt"
)

// KeyPayload encodes a keycode for KeyPress / KeyRelease.
func KeyPayload(code uint32) []byte {
	return binary.BigEndian.AppendUint32(make([]byte, 0, KeyPayloadSize), code)
}

// MovePayload encodes absolute client-relative coordinates for MouseMove.
func MovePayload(x, y int32) []byte {
	buf := make([]byte, 0, MovePayloadSize)
	buf = binary.BigEndian.AppendUint32(buf, uint32(x))
	return binary.BigEndian.AppendUint32(buf, uint32(y))
}

// ButtonPayload encodes a button id and position for the button events.
func ButtonPayload(button uint8, x, y int32) []byte {
	buf := make([]byte, 0, ButtonPayloadSize)
	buf = append(buf, button)
	buf = binary.BigEndian.AppendUint32(buf, uint32(x))
	return binary.BigEndian.AppendUint32(buf, uint32(y))
}

// ParseKey reads the keycode of a key payload.
func ParseKey(payload []byte) (uint32, error) {
	if len(payload) < KeyPayloadSize {
		return 0, fmt.Errorf("%w: key payload needs %d bytes, have %d", ErrPayloadTooSmall, KeyPayloadSize, len(payload))
	}
	return binary.BigEndian.Uint32(payload[0:4]), nil
}

// ParseMove reads the coordinates of a move payload.
func ParseMove(payload []byte) (x, y int32, err error) {
	if len(payload) < MovePayloadSize {
		return 0, 0, fmt.Errorf("%w: move payload needs %d bytes, have %d", ErrPayloadTooSmall, MovePayloadSize, len(payload))
	}
	x = int32(binary.BigEndian.Uint32(payload[0:4]))
	y = int32(binary.BigEndian.Uint32(payload[4:8]))
	return x, y, nil
}

// ParseButton reads the button id and coordinates of a button payload.
func ParseButton(payload []byte) (button uint8, x, y int32, err error) {
	if len(payload) < ButtonPayloadSize {
		return 0, 0, 0, fmt.Errorf("%w: button payload needs %d bytes, have %d", ErrPayloadTooSmall, ButtonPayloadSize, len(payload))
	}
	button = payload[0]
	x = int32(binary.BigEndian.Uint32(payload[1:5]))
	y = int32(binary.BigEndian.Uint32(payload[5:9]))
	return button, x, y, nil
}
