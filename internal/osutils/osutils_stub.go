//go:build !windows

package osutils

import "github.com/rs/zerolog/log"

// IsAdmin reports false on platforms without an elevation model we check.
func IsAdmin() bool {
	return false
}

// EnsureFirewallRule only manages rules on Windows.
func EnsureFirewallRule(port int) error {
	log.Debug().Int("port", port).Msg("Firewall: rule management is only supported on Windows")
	return nil
}
