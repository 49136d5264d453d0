package input

import (
	"errors"
	"fmt"

	"edgekvm/internal/protocol"
)

var (
	// ErrPayloadTooSmall is returned when a packet's payload cannot hold the
	// fields of its type
	ErrPayloadTooSmall = protocol.ErrPayloadTooSmall

	// ErrPlatformAPI is returned when the OS refuses to build or accept a
	// synthetic event
	ErrPlatformAPI = errors.New("platform input API failure")

	// ErrUnsupportedPlatform is returned when no injector can run here
	ErrUnsupportedPlatform = errors.New("input injection not supported on this platform")

	// ErrUnknownKeycode is returned when a keycode has no native equivalent
	ErrUnknownKeycode = errors.New("no native mapping for keycode")

	// ErrUnknownButton is returned for a button id the platform cannot press
	ErrUnknownButton = errors.New("unsupported mouse button")
)

// InjectionError reports a failure to replay one event. It never ends the
// dispatch loop; the event is dropped and the next one proceeds.
type InjectionError struct {
	Type     protocol.EventType
	Injector string
	Err      error
}

func (e *InjectionError) Error() string {
	return fmt.Sprintf("inject %s via %s: %v", e.Type, e.Injector, e.Err)
}

func (e *InjectionError) Unwrap() error {
	return e.Err
}

// PlatformError wraps an OS-level failure so callers can match ErrPlatformAPI.
func PlatformError(op string, err error) error {
	if err == nil {
		return fmt.Errorf("%w: %s", ErrPlatformAPI, op)
	}
	return fmt.Errorf("%w: %s: %v", ErrPlatformAPI, op, err)
}
