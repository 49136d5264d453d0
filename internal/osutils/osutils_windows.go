//go:build windows

package osutils

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/sys/windows"
)

// IsAdmin checks if the current process has administrative privileges.
// Without them the low-level hook cannot see input aimed at elevated
// windows.
func IsAdmin() bool {
	var token windows.Token
	h, _ := windows.GetCurrentProcess()
	if err := windows.OpenProcessToken(h, windows.TOKEN_QUERY, &token); err != nil {
		return false
	}
	defer token.Close()

	var sid *windows.SID
	err := windows.AllocateAndInitializeSid(
		&windows.SECURITY_NT_AUTHORITY,
		2,
		windows.SECURITY_BUILTIN_DOMAIN_RID,
		windows.DOMAIN_ALIAS_RID_ADMINS,
		0, 0, 0, 0, 0, 0,
		&sid,
	)
	if err != nil {
		return false
	}
	defer windows.FreeSid(sid)

	member, err := token.IsMember(sid)
	return err == nil && member
}

// EnsureFirewallRule makes sure the host's listen port accepts inbound TCP,
// asking for elevation through UAC when needed.
func EnsureFirewallRule(port int) error {
	out, err := exec.Command("netsh", "advfirewall", "firewall", "show", "rule", "name="+FirewallRuleName).CombinedOutput()
	if err == nil && strings.Contains(string(out), strconv.Itoa(port)) && strings.Contains(string(out), "Allow") {
		log.Debug().Int("port", port).Msg("Firewall: rule present")
		return nil
	}

	script := firewallScript(port)
	if IsAdmin() {
		if out, err := exec.Command("powershell", "-NoProfile", "-Command", script).CombinedOutput(); err != nil {
			return fmt.Errorf("create firewall rule: %w (%s)", err, strings.TrimSpace(string(out)))
		}
		log.Info().Int("port", port).Msg("Firewall: rule created")
		return nil
	}

	verb, _ := windows.UTF16PtrFromString("runas")
	exe, _ := windows.UTF16PtrFromString("powershell.exe")
	args, _ := windows.UTF16PtrFromString(fmt.Sprintf("-NoProfile -WindowStyle Hidden -Command \"%s\"", script))
	if err := windows.ShellExecute(0, verb, exe, args, nil, windows.SW_HIDE); err != nil {
		return fmt.Errorf("elevate firewall update: %w", err)
	}
	log.Info().Int("port", port).Msg("Firewall: elevation requested, accept the UAC prompt")
	return nil
}
