//go:build darwin && cgo

package platform

import "edgekvm/internal/input"

func newNativeInjector() (input.Injector, error) {
	return newDarwinInjector(), nil
}
