// Package config provides configuration management for edgekvm.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"

	"edgekvm/internal/switcher"
)

// EnvPrefix prefixes every environment override (EDGEKVM_SCREEN_WIDTH, ...).
const EnvPrefix = "edgekvm"

const (
	RoleHost   = "host"
	RoleClient = "client"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config represents the application configuration
type Config struct {
	// Screen describes the two-screen layout
	Screen switcher.Geometry `json:"screen" envconfig:"screen"`

	// General contains connection and runtime settings
	General GeneralConfig `json:"general" envconfig:"general"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	// Role determines if this machine is the "host" or the "client"
	Role string `json:"role" envconfig:"role"`

	// ListenAddr is where the host accepts its client (e.g. ":24800")
	ListenAddr string `json:"listen_addr" envconfig:"listen_addr"`

	// PeerAddr is the host's address as seen from the client
	PeerAddr string `json:"peer_addr,omitempty" envconfig:"peer_addr"`

	// Token authenticates the client to the host
	Token string `json:"token,omitempty" envconfig:"token"`

	// TLSCert and TLSKey are the host certificate; empty means self-signed
	TLSCert string `json:"tls_cert,omitempty" envconfig:"tls_cert"`
	TLSKey  string `json:"tls_key,omitempty" envconfig:"tls_key"`

	// TLSCA is an extra CA the client trusts for the host certificate
	TLSCA string `json:"tls_ca,omitempty" envconfig:"tls_ca"`

	// TLSInsecureSkipVerify disables certificate checks on the client
	TLSInsecureSkipVerify bool `json:"tls_insecure_skip_verify" envconfig:"tls_insecure_skip_verify"`

	// ShowTray shows the state indicator in the system tray
	ShowTray bool `json:"show_tray" envconfig:"show_tray"`

	// ReleaseHotkey is the chord that returns control to the host
	// (e.g. "Ctrl+Alt+Esc")
	ReleaseHotkey string `json:"release_hotkey" envconfig:"release_hotkey"`

	// WriteTimeoutMS bounds each write to the client
	WriteTimeoutMS int `json:"write_timeout_ms" envconfig:"write_timeout_ms"`

	// MaxBacklog is how many key/button packets may wait before the link
	// counts as stalled
	MaxBacklog int `json:"max_backlog" envconfig:"max_backlog"`

	// InjectBackend forces an injector on the client ("auto", "native",
	// "wayland", "robotgo")
	InjectBackend string `json:"inject_backend,omitempty" envconfig:"inject_backend"`
}

// DefaultConfig returns a new Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Screen: switcher.DefaultGeometry(),
		General: GeneralConfig{
			Role:           RoleHost,
			ListenAddr:     ":24800",
			ShowTray:       true,
			ReleaseHotkey:  "Ctrl+Alt+Esc",
			WriteTimeoutMS: 2000,
			MaxBacklog:     1024,
			InjectBackend:  "auto",
		},
	}
}

// Validate checks the configuration for the given role.
func (c *Config) Validate() error {
	if err := c.Screen.Validate(); err != nil {
		return err
	}
	g := c.General
	switch g.Role {
	case RoleHost:
		if g.ListenAddr == "" {
			return fmt.Errorf("%w: host needs listen_addr", ErrInvalidConfig)
		}
	case RoleClient:
		if g.PeerAddr == "" {
			return fmt.Errorf("%w: client needs peer_addr", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: role %q must be %q or %q", ErrInvalidConfig, g.Role, RoleHost, RoleClient)
	}
	if g.WriteTimeoutMS < 0 || g.MaxBacklog < 0 {
		return fmt.Errorf("%w: write_timeout_ms and max_backlog must not be negative", ErrInvalidConfig)
	}
	if _, err := ParseHotkey(g.ReleaseHotkey); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Manager handles loading and saving configuration
type Manager struct {
	mu         sync.Mutex
	configPath string
	config     *Config
	onChanged  []func(*Config)
}

// NewManager creates a manager for the config file in the per-user config
// directory.
func NewManager() (*Manager, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}
	return NewManagerAt(configPath), nil
}

// NewManagerAt creates a manager for an explicit config file.
func NewManagerAt(path string) *Manager {
	return &Manager{
		configPath: path,
		config:     DefaultConfig(),
	}
}

// Path returns the config file location.
func (m *Manager) Path() string { return m.configPath }

// getConfigPath returns the path to the configuration file
func getConfigPath() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "edgekvm")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		configDir = filepath.Join(appData, "edgekvm")
	default:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, ".config", "edgekvm")
	}

	return filepath.Join(configDir, "config.json"), nil
}

// Load reads the configuration from disk and applies environment
// overrides. A missing file leaves the defaults in place.
func (m *Manager) Load() error {
	m.mu.Lock()
	cfg := *m.config

	data, err := os.ReadFile(m.configPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		log.Debug().Str("path", m.configPath).Msg("Config: no file, using defaults")
	case err != nil:
		m.mu.Unlock()
		return err
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			m.mu.Unlock()
			return fmt.Errorf("parse %s: %w", m.configPath, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		m.mu.Unlock()
		return fmt.Errorf("environment overrides: %w", err)
	}

	m.config = &cfg
	callbacks := m.onChanged
	m.mu.Unlock()

	for _, fn := range callbacks {
		fn(&cfg)
	}
	return nil
}

// Save writes the configuration to disk
func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := json.MarshalIndent(m.config, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(m.configPath), 0755); err != nil {
		return err
	}

	log.Info().Msgf("Config: Saving configuration to %s (%d bytes)", m.configPath, len(data))
	// the file holds the peer token
	return os.WriteFile(m.configPath, data, 0600)
}

// Get returns a copy of the current configuration
func (m *Manager) Get() Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.config
}

// Set replaces the configuration and notifies change callbacks
func (m *Manager) Set(config Config) {
	m.mu.Lock()
	m.config = &config
	callbacks := m.onChanged
	m.mu.Unlock()

	for _, fn := range callbacks {
		fn(&config)
	}
}

// Update applies fn to a copy of the configuration and stores the result
// if it validates.
func (m *Manager) Update(fn func(*Config)) error {
	cfg := m.Get()
	fn(&cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	m.Set(cfg)
	return nil
}

// RegisterChangeCallback registers a function to be called when config changes
func (m *Manager) RegisterChangeCallback(fn func(*Config)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChanged = append(m.onChanged, fn)
}

var modifierCodes = map[string]uint32{
	"ctrl":    0x001D,
	"control": 0x001D,
	"alt":     0x0038,
	"option":  0x0038,
	"shift":   0x002A,
	"meta":    0x0E5B,
	"cmd":     0x0E5B,
	"win":     0x0E5B,
	"esc":     0x0001,
	"escape":  0x0001,
	"tab":     0x000F,
	"space":   0x0039,
	"enter":   0x001C,
	"f1":      0x003B,
	"f2":      0x003C,
	"f3":      0x003D,
	"f4":      0x003E,
	"f5":      0x003F,
	"f6":      0x0040,
	"f7":      0x0041,
	"f8":      0x0042,
	"f9":      0x0043,
	"f10":     0x0044,
	"f11":     0x0057,
	"f12":     0x0058,
}

// ParseHotkey turns "Ctrl+Alt+Esc" into keycodes. A part may also be a raw
// keycode such as "0x0E5B".
func ParseHotkey(s string) ([]uint32, error) {
	if strings.TrimSpace(s) == "" {
		return nil, fmt.Errorf("empty hotkey")
	}
	var codes []uint32
	for _, part := range strings.Split(s, "+") {
		name := strings.ToLower(strings.TrimSpace(part))
		if code, ok := modifierCodes[name]; ok {
			codes = append(codes, code)
			continue
		}
		if n, err := strconv.ParseUint(name, 0, 16); err == nil && n != 0 {
			codes = append(codes, uint32(n))
			continue
		}
		return nil, fmt.Errorf("unknown key %q in hotkey %q", part, s)
	}
	return codes, nil
}
