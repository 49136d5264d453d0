package main

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edgekvm/internal/config"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "edgekvm version "+version)
}

func TestBadLogLevel(t *testing.T) {
	_, err := execute(t, "--log-level", "loud", "version")
	assert.Error(t, err)
}

func TestConfigInitAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	t.Setenv("EDGEKVM_GENERAL_TOKEN", "hunter2")

	out, err := execute(t, "--config", path, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, path)

	out, err = execute(t, "--config", path, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, `"edge_threshold": 20`)
	assert.NotContains(t, out, "hunter2")
}

func TestClientRequiresPeer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	_, err := execute(t, "--config", path, "client", "--no-tray")
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestAutostartRejectsUnknownRole(t *testing.T) {
	_, err := execute(t, "autostart", "enable", "agent")
	assert.Error(t, err)
}

func TestSenderOptionsFromConfig(t *testing.T) {
	cfg := *config.DefaultConfig()
	cfg.General.WriteTimeoutMS = 250
	cfg.General.ReleaseHotkey = "Ctrl+Shift+F12"

	opts, err := senderOptions(cfg)
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, opts.WriteTimeout)
	assert.Equal(t, []uint32{0x1D, 0x2A, 0x58}, opts.ReleaseChord)
	assert.Equal(t, 1024, opts.MaxBacklog)
}

func TestListenPort(t *testing.T) {
	port, err := listenPort(":24800")
	require.NoError(t, err)
	assert.Equal(t, 24800, port)

	_, err = listenPort("localhost")
	assert.Error(t, err)
	_, err = listenPort(":http")
	assert.Error(t, err)
}
