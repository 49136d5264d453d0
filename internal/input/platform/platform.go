// Package platform selects and implements the OS-specific input injectors.
package platform

import (
	"github.com/rs/zerolog/log"

	"edgekvm/internal/input"
)

// Backend names accepted by Options.Backend.
const (
	BackendAuto    = "auto"
	BackendNative  = "native"
	BackendWayland = "wayland"
	BackendRobotgo = "robotgo"
)

// Options configures injector selection.
type Options struct {
	// Backend forces a specific implementation; empty or "auto" probes
	Backend string

	// Screen size of this machine, used by backends that need an extent
	ScreenWidth  int
	ScreenHeight int
}

// NewInjector returns the best injector available on this machine.
func NewInjector(opts Options) (input.Injector, error) {
	if opts.Backend == "" {
		opts.Backend = BackendAuto
	}
	inj, err := newPlatformInjector(opts)
	if err != nil {
		return nil, err
	}
	log.Info().Str("backend", inj.Name()).Msg("Injector: ready")
	return inj, nil
}
