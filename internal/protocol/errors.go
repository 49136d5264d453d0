package protocol

import "errors"

var (
	// ErrTruncatedPacket is returned when a buffer ends before the header or
	// the declared payload is complete
	ErrTruncatedPacket = errors.New("truncated packet")

	// ErrUnknownEventType is returned when the type byte is not one of the
	// known event types
	ErrUnknownEventType = errors.New("unknown event type")

	// ErrPayloadSizeMismatch is returned when the payload length disagrees
	// with the buffer or with the fixed layout of the event type
	ErrPayloadSizeMismatch = errors.New("payload size mismatch")

	// ErrPayloadTooSmall is returned by the payload parsers when a payload is
	// shorter than the fields they read
	ErrPayloadTooSmall = errors.New("payload too small")
)

// IsProtocolError reports whether err is one of the recoverable wire-format
// errors. A receiver drops the offending packet and keeps the connection.
func IsProtocolError(err error) bool {
	return errors.Is(err, ErrTruncatedPacket) ||
		errors.Is(err, ErrUnknownEventType) ||
		errors.Is(err, ErrPayloadSizeMismatch)
}
