package autostart

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnknownRole(t *testing.T) {
	assert.Error(t, Enable("agent"))
	assert.Error(t, Disable(""))
	assert.False(t, IsEnabled("agent"))
}

func TestQuoteArgs(t *testing.T) {
	assert.Equal(t, "/usr/bin/edgekvm host", quoteArgs([]string{"/usr/bin/edgekvm", "host"}))
	assert.Equal(t, `"C:\Program Files\edgekvm.exe" client`,
		quoteArgs([]string{`C:\Program Files\edgekvm.exe`, "client"}))
}

func TestLinuxDesktopEntry(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG autostart only")
	}
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	require.False(t, IsEnabled("client"))
	require.NoError(t, Enable("client"))
	assert.True(t, IsEnabled("client"))
	assert.False(t, IsEnabled("host"))

	data, err := os.ReadFile(filepath.Join(dir, "autostart", "com.edgekvm.client.desktop"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Name=EdgeKVM (client)")
	assert.Contains(t, string(data), " client\n")

	require.NoError(t, Disable("client"))
	assert.False(t, IsEnabled("client"))
	require.NoError(t, Disable("client"), "disabling twice is fine")
}
