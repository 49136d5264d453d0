//go:build windows

package platform

import (
	"fmt"

	"edgekvm/internal/input"
)

func newPlatformInjector(opts Options) (input.Injector, error) {
	switch opts.Backend {
	case BackendAuto, BackendNative:
		return newNativeInjector()
	case BackendRobotgo:
		return newRobotgoInjector()
	}
	return nil, fmt.Errorf("%w: backend %q", input.ErrUnsupportedPlatform, opts.Backend)
}
