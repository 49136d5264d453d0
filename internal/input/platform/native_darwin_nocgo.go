//go:build darwin && !cgo

package platform

import (
	"fmt"

	"edgekvm/internal/input"
)

func newNativeInjector() (input.Injector, error) {
	return nil, fmt.Errorf("%w: CoreGraphics injection needs cgo", input.ErrUnsupportedPlatform)
}
