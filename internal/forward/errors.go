package forward

import (
	"errors"
	"fmt"

	"edgekvm/internal/input"
)

var (
	// ErrInvalidKeycode is returned for a key event with no usable keycode
	ErrInvalidKeycode = errors.New("invalid keycode")

	// ErrInvalidButton is returned for a button event with no usable button id
	ErrInvalidButton = errors.New("invalid mouse button")

	// ErrInvalidCoordinate is returned when a mapped position cannot be on
	// the client screen
	ErrInvalidCoordinate = errors.New("coordinate outside client range")

	// ErrWriteFailed is returned when the stream rejects a write
	ErrWriteFailed = errors.New("transport write failed")

	// ErrWriteStalled is returned when key and button packets pile up faster
	// than the stream drains them
	ErrWriteStalled = errors.New("transport write stalled")

	// ErrConnectionClosed is returned when the peer closes the stream
	ErrConnectionClosed = errors.New("connection closed")

	// ErrResyncImpossible is returned when a header declares a payload too
	// large to be a packet, so frame boundaries can no longer be found
	ErrResyncImpossible = errors.New("stream cannot be resynchronised")
)

// ValidationError reports an event dropped before it reached the wire.
type ValidationError struct {
	Kind input.Kind
	Err  error
	Msg  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v: %s", e.Kind, e.Err, e.Msg)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// TransportError reports a stream failure. It is terminal for the pipeline
// that returned it.
type TransportError struct {
	Op    string
	Err   error
	Cause error
}

func (e *TransportError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Err, e.Cause)
}

func (e *TransportError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}
