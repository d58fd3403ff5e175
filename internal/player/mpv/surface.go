// Package mpv implements the media surface on top of an mpv process
// driven over its JSON IPC protocol.
package mpv

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/diniamo/gopv"
)

// Options configure the surface.
type Options struct {
	// Debug keeps mpv's message output verbose.
	Debug bool
	// LoadUserConfig lets mpv read the user's own mpv.conf.
	LoadUserConfig bool
	// ForceEngine makes CanPlayNative report false, routing manifest
	// streams through the adaptive engine instead of mpv's own demuxer.
	ForceEngine bool
	// ExtraArgs are appended to the mpv command line.
	ExtraArgs []string

	Logger *slog.Logger
}

// Surface drives one mpv instance. Events are emitted from a single
// monitor goroutine polling the IPC connection, so callbacks never run
// concurrently with each other.
type Surface struct {
	mu sync.RWMutex

	platform Platform
	opts     Options
	logger   *slog.Logger

	client       *gopv.Client
	cmd          *exec.Cmd
	ipcConfig    *IPCConfig
	clientClosed bool

	ctx    context.Context
	cancel context.CancelFunc

	currentURL   string
	metadataSent bool
	endedSent    bool
	lastPaused   bool
	lastPos      float64

	onMetadata func(float64)
	onTime     func(float64, float64)
	onPause    func()
	onEnded    func()
}

// NewSurface verifies mpv is available and prepares a surface. The mpv
// process itself is spawned lazily on the first Load.
func NewSurface(opts Options) (*Surface, error) {
	platform := DetectPlatform()
	if _, err := FindExecutable(platform); err != nil {
		return nil, fmt.Errorf("mpv not found: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Surface{platform: platform, opts: opts, logger: logger}, nil
}

// OnMetadataLoaded registers the metadata-loaded handler.
func (s *Surface) OnMetadataLoaded(fn func(durationSeconds float64)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onMetadata = fn
}

// OnTimeUpdate registers the time-progress handler.
func (s *Surface) OnTimeUpdate(fn func(positionSeconds, durationSeconds float64)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onTime = fn
}

// OnPause registers the pause handler.
func (s *Surface) OnPause(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onPause = fn
}

// OnEnded registers the end-of-stream handler.
func (s *Surface) OnEnded(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onEnded = fn
}

// CanPlayNative reports whether mpv should demux the stream itself. mpv
// handles HLS and direct media natively, so this is true unless the
// engine path was forced.
func (s *Surface) CanPlayNative(string) bool {
	return !s.opts.ForceEngine
}

// Load assigns a stream URL, spawning mpv on first use and replacing the
// current source afterwards. Per-source event state is reset so the next
// metadata-loaded and ended events fire again.
func (s *Surface) Load(url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client == nil {
		if err := s.startLocked(); err != nil {
			return err
		}
	}

	pos := s.lastPos
	restore := s.currentURL != "" && s.metadataSent && pos > 0

	if _, err := s.client.Request("loadfile", url, "replace"); err != nil {
		return fmt.Errorf("failed to load %s: %w", url, err)
	}
	s.currentURL = url
	s.metadataSent = false
	s.endedSent = false
	s.lastPos = 0

	// Switching quality levels replaces the source; carry the position
	// over so the viewer does not restart from zero.
	if restore {
		go func() {
			time.Sleep(300 * time.Millisecond)
			_ = s.Seek(context.Background(), pos)
		}()
	}
	return nil
}

// startLocked spawns the mpv process and connects the IPC client. Caller
// must hold s.mu.
func (s *Surface) startLocked() error {
	mpvExec, err := FindExecutable(s.platform)
	if err != nil {
		return err
	}

	ipcConfig, err := NewIPCConfig(s.platform)
	if err != nil {
		return fmt.Errorf("failed to generate IPC config: %w", err)
	}
	s.ipcConfig = ipcConfig

	args := []string{
		ipcConfig.IPCArgument(),
		"--idle=yes",
		"--no-ytdl",
		"--force-window=yes",
	}
	if !s.opts.LoadUserConfig {
		args = append(args, "--no-config")
	}
	if !s.opts.Debug {
		args = append(args, "--msg-level=all=warn")
	}
	args = append(args, s.opts.ExtraArgs...)

	cmd := exec.Command(mpvExec, args...)
	// Detach stdio so mpv cannot interfere with the terminal UI.
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	setupProcessAttributes(cmd)

	if err := cmd.Start(); err != nil {
		s.cleanupIPCLocked()
		return fmt.Errorf("failed to start %s: %w", mpvExec, err)
	}
	s.cmd = cmd

	waitCtx, cancelWait := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelWait()
	if err := s.waitForIPC(waitCtx); err != nil {
		_ = cmd.Process.Kill()
		s.cleanupIPCLocked()
		s.cmd = nil
		return fmt.Errorf("timeout waiting for mpv IPC at %s: %w", ipcConfig.Address, err)
	}

	client, err := gopv.Connect(ipcConfig.ConnectionString(), func(err error) {
		s.logger.Warn("mpv IPC error", "error", err)
	})
	if err != nil {
		_ = cmd.Process.Kill()
		s.cleanupIPCLocked()
		s.cmd = nil
		return fmt.Errorf("failed to connect to mpv IPC at %s: %w", ipcConfig.Address, err)
	}

	s.client = client
	s.clientClosed = false
	s.ctx, s.cancel = context.WithCancel(context.Background())

	go s.monitor(s.ctx)
	go s.monitorProcess(cmd)
	return nil
}

// waitForIPC polls until the IPC endpoint accepts connections.
func (s *Surface) waitForIPC(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	// Give mpv a moment to create the endpoint before polling.
	time.Sleep(300 * time.Millisecond)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if s.ipcConfig.IsSocket {
				if _, err := os.Stat(s.ipcConfig.Address); err == nil {
					time.Sleep(200 * time.Millisecond)
					return nil
				}
			} else if isPipeReady(s.ipcConfig.Address) {
				time.Sleep(200 * time.Millisecond)
				return nil
			}
		}
	}
}

// monitor polls playback properties and turns transitions into events.
func (s *Surface) monitor(ctx context.Context) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.poll()
		}
	}
}

func (s *Surface) poll() {
	s.mu.Lock()
	client := s.client
	if client == nil || s.currentURL == "" {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	pos := s.getFloat(client, "time-pos")
	dur := s.getFloat(client, "duration")
	paused := s.getBool(client, "pause")
	eof := s.getBool(client, "eof-reached")

	var fireMetadata func(float64)
	var fireTime func(float64, float64)
	var firePause func()
	var fireEnded func()

	s.mu.Lock()
	if s.client == nil {
		s.mu.Unlock()
		return
	}
	if dur > 0 && !s.metadataSent {
		s.metadataSent = true
		fireMetadata = s.onMetadata
	}
	if !paused && pos != s.lastPos {
		s.lastPos = pos
		fireTime = s.onTime
	}
	if paused && !s.lastPaused {
		firePause = s.onPause
	}
	s.lastPaused = paused
	if eof && !s.endedSent {
		s.endedSent = true
		fireEnded = s.onEnded
	}
	s.mu.Unlock()

	if fireMetadata != nil {
		fireMetadata(dur)
	}
	if fireTime != nil {
		fireTime(pos, dur)
	}
	if firePause != nil {
		firePause()
	}
	if fireEnded != nil {
		fireEnded()
	}
}

func (s *Surface) getFloat(client *gopv.Client, property string) float64 {
	result, err := client.Request("get_property", property)
	if err != nil {
		return 0
	}
	v, _ := result.(float64)
	return v
}

func (s *Surface) getBool(client *gopv.Client, property string) bool {
	result, err := client.Request("get_property", property)
	if err != nil {
		return false
	}
	v, _ := result.(bool)
	return v
}

// monitorProcess reaps the mpv process and tears the surface down when it
// exits out from under us.
func (s *Surface) monitorProcess(cmd *exec.Cmd) {
	err := cmd.Wait()

	s.mu.RLock()
	closed := s.clientClosed
	s.mu.RUnlock()
	if err != nil && !closed {
		s.logger.Warn("mpv exited unexpectedly", "error", err)
	}
	_ = s.Close()
}

func (s *Surface) request(args ...any) error {
	s.mu.RLock()
	client := s.client
	s.mu.RUnlock()
	if client == nil {
		return fmt.Errorf("surface not initialized")
	}
	_, err := client.Request(args...)
	return err
}

// Play resumes playback.
func (s *Surface) Play(ctx context.Context) error {
	return s.request("set_property", "pause", false)
}

// Pause pauses playback.
func (s *Surface) Pause(ctx context.Context) error {
	return s.request("set_property", "pause", true)
}

// TogglePause flips the pause state.
func (s *Surface) TogglePause(ctx context.Context) error {
	return s.request("cycle", "pause")
}

// Seek moves playback to the given offset in seconds.
func (s *Surface) Seek(ctx context.Context, seconds float64) error {
	if err := s.request("set_property", "time-pos", seconds); err != nil {
		return fmt.Errorf("failed to seek: %w", err)
	}
	return nil
}

// SetMuted mutes or unmutes the audio track.
func (s *Surface) SetMuted(muted bool) error {
	return s.request("set_property", "mute", muted)
}

// Fullscreen requests fullscreen, falling back to the cycle command when
// the property set is rejected.
func (s *Surface) Fullscreen() error {
	if err := s.request("set_property", "fullscreen", true); err != nil {
		return s.request("cycle", "fullscreen")
	}
	return nil
}

// Close quits mpv and releases the IPC resources. Safe to call more than
// once.
func (s *Surface) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.clientClosed {
		return nil
	}
	s.clientClosed = true

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}

	// Ask mpv to quit but don't wait on a dead pipe; the process kill
	// below cleans up regardless. gopv closes its own reader on EOF, so
	// Close is never called on the client directly.
	if s.client != nil {
		client := s.client
		s.client = nil
		go func() {
			done := make(chan struct{})
			go func() {
				_, _ = client.Request("quit")
				close(done)
			}()
			select {
			case <-done:
			case <-time.After(500 * time.Millisecond):
			}
		}()
	}

	if s.cmd != nil && s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
	s.cmd = nil
	s.currentURL = ""
	s.cleanupIPCLocked()
	return nil
}

// cleanupIPCLocked removes the Unix socket file. Caller must hold s.mu.
func (s *Surface) cleanupIPCLocked() {
	if s.ipcConfig != nil && s.ipcConfig.IsSocket {
		_ = os.Remove(s.ipcConfig.Address)
	}
	s.ipcConfig = nil
}
