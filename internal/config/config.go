// Package config loads and watches the application configuration and
// sets up structured logging.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

const appName = "anistream"

// Config is the full application configuration.
type Config struct {
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Remote   RemoteConfig   `mapstructure:"remote"`
	Playback PlaybackConfig `mapstructure:"playback"`
	Web      WebConfig      `mapstructure:"web"`
	Advanced AdvancedConfig `mapstructure:"advanced"`
}

// CatalogConfig locates the video catalog.
type CatalogConfig struct {
	// Path to the catalog JSON file.
	Path string `mapstructure:"path"`
	// Watch reloads the catalog when the file changes on disk.
	Watch bool `mapstructure:"watch"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"` // "text" or "json"
	File       string `mapstructure:"file"`
	Color      bool   `mapstructure:"color"`
	MaxSize    int    `mapstructure:"max_size"` // megabytes
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"` // days
	Compress   bool   `mapstructure:"compress"`
}

// StorageConfig locates and tunes the local database.
type StorageConfig struct {
	DatabasePath   string `mapstructure:"database_path"`
	WALMode        bool   `mapstructure:"wal_mode"`
	MaxConnections int    `mapstructure:"max_connections"`
}

// RemoteConfig configures the optional remote watch-history sink. An
// empty URL disables it.
type RemoteConfig struct {
	URL            string `mapstructure:"url"`
	APIKey         string `mapstructure:"api_key"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// Timeout returns the remote request timeout as a duration.
func (c RemoteConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// PlaybackConfig carries session defaults and player knobs.
type PlaybackConfig struct {
	AutoPlay bool `mapstructure:"autoplay"`
	AutoNext bool `mapstructure:"autonext"`
	// Engine forces a playback path: "native", "hls" or "" for
	// auto-detection.
	Engine string `mapstructure:"engine"`
	// SaveEverySeconds is the progress-save throttle window.
	SaveEverySeconds int `mapstructure:"save_every_seconds"`
	// CountdownSeconds is the auto-advance countdown length.
	CountdownSeconds int      `mapstructure:"countdown_seconds"`
	MPVArgs          []string `mapstructure:"mpv_args"`
	LoadUserConfig   bool     `mapstructure:"mpv_load_user_config"`
}

// SaveEvery returns the throttle window as a duration.
func (c PlaybackConfig) SaveEvery() time.Duration {
	if c.SaveEverySeconds <= 0 {
		return 2 * time.Second
	}
	return time.Duration(c.SaveEverySeconds) * time.Second
}

// Countdown returns the auto-advance countdown as a duration.
func (c PlaybackConfig) Countdown() time.Duration {
	if c.CountdownSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.CountdownSeconds) * time.Second
}

// WebConfig configures the built-in web front end.
type WebConfig struct {
	Listen string `mapstructure:"listen"`
}

// AdvancedConfig holds debugging switches.
type AdvancedConfig struct {
	Debug bool `mapstructure:"debug"`
}

// Load reads the configuration from cfgFile, or from the default
// locations when cfgFile is empty. The returned viper instance can be
// used for hot reload.
func Load(cfgFile string) (*Config, *viper.Viper, error) {
	v := viper.New()

	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		// Any format viper understands; config.yaml and config.toml both
		// resolve.
		v.SetConfigName("config")
		v.AddConfigPath(filepath.Join(getConfigDir(), appName))
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("ANISTREAM")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; defaults and env apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, v, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("catalog.path", filepath.Join(getDataDir(), appName, "videos.json"))
	v.SetDefault("catalog.watch", true)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.color", true)
	v.SetDefault("logging.max_size", 10)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age", 28)
	v.SetDefault("logging.compress", true)

	v.SetDefault("storage.database_path", filepath.Join(getDataDir(), appName, "local.db"))
	v.SetDefault("storage.wal_mode", true)
	v.SetDefault("storage.max_connections", 1)

	v.SetDefault("remote.url", "")
	v.SetDefault("remote.api_key", "")
	v.SetDefault("remote.timeout_seconds", 10)

	v.SetDefault("playback.autoplay", false)
	v.SetDefault("playback.autonext", true)
	v.SetDefault("playback.engine", "")
	v.SetDefault("playback.save_every_seconds", 2)
	v.SetDefault("playback.countdown_seconds", 5)
	v.SetDefault("playback.mpv_load_user_config", false)

	v.SetDefault("web.listen", "127.0.0.1:8080")

	v.SetDefault("advanced.debug", false)
}

// InitializeDirs creates the config, data and state directories.
func InitializeDirs() error {
	for _, dir := range []string{
		filepath.Join(getConfigDir(), appName),
		filepath.Join(getDataDir(), appName),
		filepath.Join(getStateDir(), appName),
	} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

func getConfigDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir
	}
	return "."
}

func getDataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return dir
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share")
	}
	return "."
}

func getStateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return dir
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "state")
	}
	return "."
}
