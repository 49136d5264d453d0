//go:build !windows

package autostart

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"text/template"
)

func entryPath(e entry) (string, *template.Template, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", nil, err
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "LaunchAgents", e.Label+".plist"), plistTmpl, nil
	case "linux", "freebsd", "openbsd", "netbsd":
		dir := os.Getenv("XDG_CONFIG_HOME")
		if dir == "" {
			dir = filepath.Join(home, ".config")
		}
		return filepath.Join(dir, "autostart", e.Label+".desktop"), desktopTmpl, nil
	}
	return "", nil, fmt.Errorf("unsupported platform: %s", runtime.GOOS)
}

func enable(e entry) error {
	path, tmpl, err := entryPath(e)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := tmpl.Execute(f, e); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func disable(e entry) error {
	path, _, err := entryPath(e)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func isEnabled(e entry) bool {
	path, _, err := entryPath(e)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}
