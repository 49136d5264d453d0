//go:build linux

package platform

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"edgekvm/internal/input"
)

// newPlatformInjector prefers the Wayland virtual devices inside a Wayland
// session and falls back to robotgo (X11) otherwise.
func newPlatformInjector(opts Options) (input.Injector, error) {
	switch opts.Backend {
	case BackendWayland:
		return newWaylandInjector(context.Background(), opts.ScreenWidth, opts.ScreenHeight)
	case BackendRobotgo:
		return newRobotgoInjector()
	case BackendAuto, BackendNative:
		if waylandSession() {
			inj, err := newWaylandInjector(context.Background(), opts.ScreenWidth, opts.ScreenHeight)
			if err == nil {
				return inj, nil
			}
			log.Warn().Err(err).Msg("Injector: wayland virtual input unavailable, trying robotgo")
		}
		return newRobotgoInjector()
	}
	return nil, fmt.Errorf("%w: backend %q", input.ErrUnsupportedPlatform, opts.Backend)
}
