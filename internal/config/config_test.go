package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, v, err := Load("")
	require.NoError(t, err)
	require.NotNil(t, v)

	assert.True(t, cfg.Catalog.Watch)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.True(t, cfg.Playback.AutoNext)
	assert.False(t, cfg.Playback.AutoPlay)
	assert.Equal(t, "127.0.0.1:8080", cfg.Web.Listen)
	assert.Empty(t, cfg.Remote.URL)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
catalog:
  path: /srv/media/videos.json
  watch: false
logging:
  level: debug
  format: json
playback:
  autoplay: true
  countdown_seconds: 8
remote:
  url: https://example.supabase.co
  api_key: secret
  timeout_seconds: 3
web:
  listen: ":9090"
`), 0644))

	cfg, _, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/media/videos.json", cfg.Catalog.Path)
	assert.False(t, cfg.Catalog.Watch)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.True(t, cfg.Playback.AutoPlay)
	assert.True(t, cfg.Playback.AutoNext) // default survives partial file
	assert.Equal(t, 8, cfg.Playback.CountdownSeconds)
	assert.Equal(t, "https://example.supabase.co", cfg.Remote.URL)
	assert.Equal(t, ":9090", cfg.Web.Listen)
}

func TestDurationHelpers(t *testing.T) {
	var p PlaybackConfig
	assert.Equal(t, "2s", p.SaveEvery().String())
	assert.Equal(t, "5s", p.Countdown().String())

	p.SaveEverySeconds = 4
	p.CountdownSeconds = 10
	assert.Equal(t, "4s", p.SaveEvery().String())
	assert.Equal(t, "10s", p.Countdown().String())

	var r RemoteConfig
	assert.Equal(t, "10s", r.Timeout().String())
	r.TimeoutSeconds = 3
	assert.Equal(t, "3s", r.Timeout().String())
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLogLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLogLevel("WARNING"))
	assert.Equal(t, slog.LevelError, parseLogLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLogLevel(""))
	assert.Equal(t, slog.LevelInfo, parseLogLevel("bogus"))
}

func TestInitLoggerWritesFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "logs", "app.log")

	logger, err := InitLogger(&LoggingConfig{Level: "debug", File: file, MaxSize: 1})
	require.NoError(t, err)

	logger.Info("hello")
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
}
