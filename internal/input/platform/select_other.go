//go:build !darwin && !windows && !linux

package platform

import (
	"fmt"

	"edgekvm/internal/input"
)

func newPlatformInjector(opts Options) (input.Injector, error) {
	switch opts.Backend {
	case BackendAuto, BackendNative, BackendRobotgo:
		return newRobotgoInjector()
	}
	return nil, fmt.Errorf("%w: backend %q", input.ErrUnsupportedPlatform, opts.Backend)
}
