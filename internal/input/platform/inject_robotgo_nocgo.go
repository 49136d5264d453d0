//go:build !cgo

package platform

import (
	"fmt"

	"edgekvm/internal/input"
)

func newRobotgoInjector() (input.Injector, error) {
	return nil, fmt.Errorf("%w: robotgo needs cgo", input.ErrUnsupportedPlatform)
}
