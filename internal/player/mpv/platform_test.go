package mpv

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutablePerPlatform(t *testing.T) {
	assert.Equal(t, "mpv.exe", Executable(PlatformWindows))
	assert.Equal(t, "mpv", Executable(PlatformLinux))
	assert.Equal(t, "mpv", Executable(PlatformMac))
	assert.Equal(t, "mpv", Executable(PlatformWSL))
}

func TestNewIPCConfigUnix(t *testing.T) {
	cfg, err := NewIPCConfig(PlatformLinux)
	require.NoError(t, err)
	assert.True(t, cfg.IsSocket)
	assert.Equal(t, IPCUnixSocket, cfg.Type)
	assert.Contains(t, cfg.Address, "anistream-mpv-")
	assert.True(t, strings.HasSuffix(cfg.Address, ".sock"))
	assert.Equal(t, "--input-ipc-server="+cfg.Address, cfg.IPCArgument())
}

func TestNewIPCConfigWindows(t *testing.T) {
	cfg, err := NewIPCConfig(PlatformWindows)
	require.NoError(t, err)
	assert.False(t, cfg.IsSocket)
	assert.Equal(t, IPCNamedPipe, cfg.Type)
	assert.True(t, strings.HasPrefix(cfg.Address, `\\.\pipe\anistream-mpv-`))
}

func TestIPCConfigsAreUnique(t *testing.T) {
	a, err := NewIPCConfig(PlatformLinux)
	require.NoError(t, err)
	b, err := NewIPCConfig(PlatformLinux)
	require.NoError(t, err)
	assert.NotEqual(t, a.Address, b.Address)
}
