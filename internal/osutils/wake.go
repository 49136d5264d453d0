package osutils

import (
	"errors"

	"edgekvm/internal/input"
)

// ErrWakeUnsupported is returned where no wake method exists.
var ErrWakeUnsupported = errors.New("display wake not supported on this platform")

// WakeUp nudges the pointer by one pixel and back so a sleeping display or
// screensaver on this machine comes back before forwarded input arrives.
// The nudge runs under the synthetic-input guard.
func WakeUp() error {
	return input.Synthetic.Do(wakeUp)
}
