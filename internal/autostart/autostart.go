// Package autostart registers edgekvm to start at login in a given role.
package autostart

import (
	"fmt"
	"os"
	"strings"
	"text/template"
)

const label = "com.edgekvm"

const macLaunchAgentPlist = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
    <key>Label</key>
    <string>{{.Label}}</string>
    <key>ProgramArguments</key>
    <array>
{{- range .Args}}
        <string>{{.}}</string>
{{- end}}
    </array>
    <key>RunAtLoad</key>
    <true/>
    <key>KeepAlive</key>
    <false/>
</dict>
</plist>
`

const xdgDesktopEntry = `[Desktop Entry]
Type=Application
Name=EdgeKVM ({{.Role}})
Exec={{.Exec}}
X-GNOME-Autostart-enabled=true
NoDisplay=true
`

var (
	plistTmpl   = template.Must(template.New("plist").Parse(macLaunchAgentPlist))
	desktopTmpl = template.Must(template.New("desktop").Parse(xdgDesktopEntry))
)

type entry struct {
	Label string
	Role  string
	Args  []string
	Exec  string
}

func newEntry(role string) (entry, error) {
	if role != "host" && role != "client" {
		return entry{}, fmt.Errorf("autostart: unknown role %q", role)
	}
	exe, err := os.Executable()
	if err != nil {
		return entry{}, fmt.Errorf("failed to get executable path: %w", err)
	}
	args := []string{exe, role}
	return entry{
		Label: label + "." + role,
		Role:  role,
		Args:  args,
		Exec:  quoteArgs(args),
	}, nil
}

// quoteArgs joins args for a desktop entry Exec line or a Run registry value.
func quoteArgs(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		if strings.ContainsAny(a, " \t\"") {
			a = `"` + strings.ReplaceAll(a, `"`, `\"`) + `"`
		}
		quoted[i] = a
	}
	return strings.Join(quoted, " ")
}

// Enable registers the current executable to start at login as role.
func Enable(role string) error {
	e, err := newEntry(role)
	if err != nil {
		return err
	}
	return enable(e)
}

// Disable removes the login entry for role.
func Disable(role string) error {
	e, err := newEntry(role)
	if err != nil {
		return err
	}
	return disable(e)
}

// IsEnabled reports whether a login entry exists for role.
func IsEnabled(role string) bool {
	e, err := newEntry(role)
	if err != nil {
		return false
	}
	return isEnabled(e)
}
