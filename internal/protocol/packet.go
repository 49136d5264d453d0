// Package protocol implements the binary wire format for forwarded input
// events.
package protocol

import (
	"encoding/binary"
	"fmt"
)

// EventType is the one-byte tag that leads every packet.
type EventType uint8

// Event types
const (
	KeyPress           EventType = 1
	KeyRelease         EventType = 2
	MouseMove          EventType = 3
	MouseButtonPress   EventType = 4
	MouseButtonRelease EventType = 5
)

// HeaderSize is [type(1)] [timestamp(8)] [payload length(4)].
const HeaderSize = 13

// Fixed payload sizes per event type.
const (
	KeyPayloadSize    = 4 // keycode(uint32)
	MovePayloadSize   = 8 // x(int32) + y(int32)
	ButtonPayloadSize = 9 // button(uint8) + x(int32) + y(int32)
)

// EventPacket is one input event on the wire.
//
// Wire format (big-endian):
//
//	[type(1)] [timestamp(8)] [payload length(4)] [payload]
//
//	KeyPress / KeyRelease      (1, 2): keycode(uint32)                 = 17 bytes
//	MouseMove                  (3):    x(int32) + y(int32)             = 21 bytes
//	MouseButtonPress / Release (4, 5): button(uint8) + x(int32) + y(int32) = 22 bytes
//
// Timestamp is microseconds on the sender's clock. Clocks are not
// synchronised between peers, so timestamps only order events from the
// same sender.
type EventPacket struct {
	Type       EventType
	Timestamp  uint64
	PayloadLen uint32
	Payload    []byte
}

// Header is the fixed-size prefix of a packet.
type Header struct {
	Type       EventType
	Timestamp  uint64
	PayloadLen uint32
}

// Known reports whether t is one of the five defined event types.
func (t EventType) Known() bool {
	return t >= KeyPress && t <= MouseButtonRelease
}

// PayloadSize returns the fixed payload size for t, or -1 for unknown types.
func (t EventType) PayloadSize() int {
	switch t {
	case KeyPress, KeyRelease:
		return KeyPayloadSize
	case MouseMove:
		return MovePayloadSize
	case MouseButtonPress, MouseButtonRelease:
		return ButtonPayloadSize
	default:
		return -1
	}
}

func (t EventType) String() string {
	switch t {
	case KeyPress:
		return "KeyPress"
	case KeyRelease:
		return "KeyRelease"
	case MouseMove:
		return "MouseMove"
	case MouseButtonPress:
		return "MouseButtonPress"
	case MouseButtonRelease:
		return "MouseButtonRelease"
	default:
		return fmt.Sprintf("EventType(%d)", uint8(t))
	}
}

// NewPacket builds a packet with PayloadLen set from the payload.
func NewPacket(t EventType, timestamp uint64, payload []byte) EventPacket {
	return EventPacket{
		Type:       t,
		Timestamp:  timestamp,
		PayloadLen: uint32(len(payload)),
		Payload:    payload,
	}
}

// Size returns the encoded length of p.
func (p EventPacket) Size() int {
	return HeaderSize + len(p.Payload)
}

// Encode serializes p to wire format. The length field is taken from the
// payload itself so an encoded packet is always self-consistent.
func Encode(p EventPacket) []byte {
	return AppendEncode(make([]byte, 0, p.Size()), p)
}

// AppendEncode appends the wire form of p to dst.
func AppendEncode(dst []byte, p EventPacket) []byte {
	dst = append(dst, byte(p.Type))
	dst = binary.BigEndian.AppendUint64(dst, p.Timestamp)
	dst = binary.BigEndian.AppendUint32(dst, uint32(len(p.Payload)))
	return append(dst, p.Payload...)
}

// PeekHeader reads the header at the start of buf without looking at the
// payload.
func PeekHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, fmt.Errorf("%w: header needs %d bytes, have %d", ErrTruncatedPacket, HeaderSize, len(buf))
	}
	return Header{
		Type:       EventType(buf[0]),
		Timestamp:  binary.BigEndian.Uint64(buf[1:9]),
		PayloadLen: binary.BigEndian.Uint32(buf[9:13]),
	}, nil
}

// Decode parses exactly one packet from buf.
//
// Every length is checked before the buffer is indexed or sliced: a short
// header or a payload shorter than declared is ErrTruncatedPacket, trailing
// bytes or a payload that does not match the type's layout is
// ErrPayloadSizeMismatch, an undefined type byte is ErrUnknownEventType.
// The returned payload does not alias buf.
func Decode(buf []byte) (EventPacket, error) {
	h, err := PeekHeader(buf)
	if err != nil {
		return EventPacket{}, err
	}

	rest := uint64(len(buf) - HeaderSize)
	declared := uint64(h.PayloadLen)
	if rest < declared {
		return EventPacket{}, fmt.Errorf("%w: declared payload %d bytes, have %d", ErrTruncatedPacket, declared, rest)
	}
	if rest > declared {
		return EventPacket{}, fmt.Errorf("%w: declared payload %d bytes, buffer carries %d", ErrPayloadSizeMismatch, declared, rest)
	}

	if !h.Type.Known() {
		return EventPacket{}, fmt.Errorf("%w: 0x%02x", ErrUnknownEventType, uint8(h.Type))
	}
	if want := h.Type.PayloadSize(); uint64(want) != declared {
		return EventPacket{}, fmt.Errorf("%w: %s needs %d bytes, declared %d", ErrPayloadSizeMismatch, h.Type, want, declared)
	}

	payload := make([]byte, declared)
	copy(payload, buf[HeaderSize:])

	return EventPacket{
		Type:       h.Type,
		Timestamp:  h.Timestamp,
		PayloadLen: h.PayloadLen,
		Payload:    payload,
	}, nil
}
