package mpv

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// Platform represents the operating system platform
type Platform int

const (
	PlatformLinux Platform = iota
	PlatformWindows
	PlatformWSL
	PlatformMac
)

// IPCType represents the IPC connection type
type IPCType int

const (
	IPCUnixSocket IPCType = iota
	IPCNamedPipe
)

// IPCConfig holds the per-session IPC endpoint
type IPCConfig struct {
	Type     IPCType
	Address  string
	IsSocket bool
}

// DetectPlatform detects the current platform
func DetectPlatform() Platform {
	switch runtime.GOOS {
	case "windows":
		return PlatformWindows
	case "darwin":
		return PlatformMac
	case "linux":
		if isWSL() {
			return PlatformWSL
		}
		return PlatformLinux
	default:
		return PlatformLinux
	}
}

// isWSL checks if running under Windows Subsystem for Linux
func isWSL() bool {
	data, err := os.ReadFile("/proc/version")
	if err != nil {
		return false
	}
	version := strings.ToLower(string(data))
	return strings.Contains(version, "microsoft") || strings.Contains(version, "wsl")
}

// Executable returns the mpv executable name for the platform. Under WSL
// the Linux mpv is preferred: gopv cannot reach Windows named pipes from
// inside WSL.
func Executable(platform Platform) string {
	if platform == PlatformWindows {
		return "mpv.exe"
	}
	return "mpv"
}

// FindExecutable locates mpv in PATH.
func FindExecutable(platform Platform) (string, error) {
	executable := Executable(platform)
	path, err := exec.LookPath(executable)
	if err == nil {
		return path, nil
	}
	return "", fmt.Errorf("%s not found in PATH, please install mpv", executable)
}

// NewIPCConfig generates a fresh IPC endpoint for the platform: a Unix
// socket everywhere except native Windows, which uses a named pipe.
func NewIPCConfig(platform Platform) (*IPCConfig, error) {
	suffix, err := randomSuffix()
	if err != nil {
		return nil, err
	}

	if platform == PlatformWindows {
		return &IPCConfig{
			Type:    IPCNamedPipe,
			Address: `\\.\pipe\anistream-mpv-` + suffix,
		}, nil
	}
	return &IPCConfig{
		Type:     IPCUnixSocket,
		Address:  filepath.Join(os.TempDir(), "anistream-mpv-"+suffix+".sock"),
		IsSocket: true,
	}, nil
}

func randomSuffix() (string, error) {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// IPCArgument returns the mpv command-line argument for the endpoint
func (c *IPCConfig) IPCArgument() string {
	return "--input-ipc-server=" + c.Address
}

// ConnectionString returns the gopv connection string for the endpoint
func (c *IPCConfig) ConnectionString() string {
	return c.Address
}
