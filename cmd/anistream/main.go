package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/wibustream/anistream/internal/catalog"
	"github.com/wibustream/anistream/internal/config"
	"github.com/wibustream/anistream/internal/localdata"
	"github.com/wibustream/anistream/internal/player"
	"github.com/wibustream/anistream/internal/player/hls"
	"github.com/wibustream/anistream/internal/player/mpv"
	"github.com/wibustream/anistream/internal/progress"
	"github.com/wibustream/anistream/internal/session"
	"github.com/wibustream/anistream/internal/tui"
	"github.com/wibustream/anistream/internal/web"
)

var (
	// Version information (set via ldflags during build)
	version = "dev"
	commit  = "none"
	date    = "unknown"

	// Global flags
	cfgFile   string
	logLevel  string
	debugMode bool

	// Shared state wired in PersistentPreRunE
	cfg    *config.Config
	logger *slog.Logger
	cat    *catalog.Catalog
	local  *localdata.Store
	prog   *progress.Store
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "anistream",
	Short: "Browse and stream a local video catalog",
	Long: `anistream serves a static video catalog three ways: a terminal
browser with mpv playback, a one-shot play command, and a built-in web
front end. Watch progress is remembered per device, locally and
optionally mirrored to a remote history store.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.InitializeDirs(); err != nil {
			return fmt.Errorf("failed to initialize directories: %w", err)
		}

		loaded, vv, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded

		if debugMode {
			cfg.Advanced.Debug = true
			if logLevel == "" {
				cfg.Logging.Level = "debug"
			}
		}
		if logLevel != "" {
			cfg.Logging.Level = logLevel
		}

		logger, err = config.InitLogger(&cfg.Logging)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		local, err = localdata.Open(cfg.Storage.DatabasePath, localdata.Options{
			WALMode:        cfg.Storage.WALMode,
			MaxConnections: cfg.Storage.MaxConnections,
		})
		if err != nil {
			return fmt.Errorf("failed to open local store: %w", err)
		}

		remote := progress.NewRemote(progress.RemoteConfig{
			URL:     cfg.Remote.URL,
			APIKey:  cfg.Remote.APIKey,
			Timeout: cfg.Remote.Timeout(),
		})
		prog = progress.NewStore(local, remote, logger)

		cat, err = catalog.Load(cfg.Catalog.Path, logger)
		if err != nil {
			return fmt.Errorf("failed to load catalog: %w", err)
		}
		if cfg.Catalog.Watch {
			if err := cat.Watch(); err != nil {
				logger.Warn("catalog hot reload unavailable", "error", err)
			}
		}

		// Config hot reload follows the same pattern as the catalog.
		vv.WatchConfig()
		vv.OnConfigChange(func(e fsnotify.Event) {
			logger.Info("config file changed", "name", e.Name)
			if err := vv.Unmarshal(cfg); err != nil {
				logger.Error("failed to reload config", "error", err)
			}
		})

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if cat != nil {
			if err := cat.Close(); err != nil {
				logger.Debug("failed to close catalog watcher", "error", err)
			}
		}
		if local != nil {
			if err := local.Close(); err != nil {
				logger.Error("failed to close local store", "error", err)
			}
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		logger.Info("anistream starting", "version", version, "episodes", cat.Len())
		app := tui.New(tui.Deps{
			Catalog:    cat,
			Progress:   prog,
			Playback:   cfg.Playback,
			Logger:     logger,
			NewSurface: newSurface,
			Engines:    engineFactory(),
		})
		return app.Run()
	},
}

// newSurface builds the mpv surface from the playback config.
func newSurface() (player.Surface, error) {
	return mpv.NewSurface(mpv.Options{
		Debug:          cfg.Advanced.Debug,
		LoadUserConfig: cfg.Playback.LoadUserConfig,
		ForceEngine:    cfg.Playback.Engine == "hls",
		ExtraArgs:      cfg.Playback.MPVArgs,
		Logger:         logger,
	})
}

// engineFactory resolves the adaptive engine, honoring a forced native
// path.
func engineFactory() player.EngineFactory {
	if cfg.Playback.Engine == "native" {
		return func(string) player.Engine { return nil }
	}
	return hls.Factory(logger)
}

var playCmd = &cobra.Command{
	Use:   "play <show-slug> <episode>",
	Short: "Play one episode and exit",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		num, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid episode number %q", args[1])
		}
		ep, err := cat.Get(args[0], num)
		if err != nil {
			return fmt.Errorf("episode not found: %s episode %d", args[0], num)
		}

		if cmd.Flags().Changed("autoplay") {
			cfg.Playback.AutoPlay, _ = cmd.Flags().GetBool("autoplay")
		}
		if cmd.Flags().Changed("autonext") {
			cfg.Playback.AutoNext, _ = cmd.Flags().GetBool("autonext")
		}
		if engine, _ := cmd.Flags().GetString("engine"); engine != "" {
			cfg.Playback.Engine = engine
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return playEpisode(ctx, ep)
	},
}

// playEpisode runs headless playback sessions, following auto-advance
// until the user interrupts or the catalog runs out.
func playEpisode(ctx context.Context, ep catalog.Episode) error {
	for {
		surface, err := newSurface()
		if err != nil {
			return err
		}

		nextKey := make(chan string, 1)
		ended := make(chan struct{}, 1)
		nav := session.NavigatorFunc(func(ref string) {
			select {
			case nextKey <- ref:
			default:
			}
		})

		var prevRef, nextRef, nextTitle string
		prev, next := cat.Neighbors(ep.ShowSlug, ep.Number)
		if prev != nil {
			prevRef = prev.SessionKey()
		}
		if next != nil {
			nextRef = next.SessionKey()
			nextTitle = next.DisplayTitle()
		}

		ctl := session.NewController(ep, surface, engineFactory(), prog, nav, session.Options{
			AutoPlay:  true,
			AutoNext:  cfg.Playback.AutoNext,
			NextRef:   nextRef,
			NextTitle: nextTitle,
			PrevRef:   prevRef,
			SaveEvery: cfg.Playback.SaveEvery(),
			Countdown: cfg.Playback.Countdown(),
			OnCountdown: func(remaining int, visible bool) {
				if visible && remaining > 0 {
					fmt.Printf("\rup next: %s in %ds (ctrl+c to stop) ", nextTitle, remaining)
				}
			},
			OnEnded: func() {
				select {
				case ended <- struct{}{}:
				default:
				}
			},
		}, logger)
		if err := ctl.Start(ctx); err != nil {
			ctl.Stop()
			_ = surface.Close()
			return err
		}

		fmt.Printf("playing %s — %s\n", ep.Show, ep.DisplayTitle())

		// Wait for navigation, a terminal end of stream, or interrupt.
		// When a countdown is pending after ended, keep waiting for it.
		var navigated string
	wait:
		select {
		case <-ctx.Done():
		case ref := <-nextKey:
			navigated = ref
		case <-ended:
			if state, _ := ctl.Advance(); state == session.AdvanceCounting {
				goto wait
			}
		}

		ctl.Stop()
		if err := surface.Close(); err != nil {
			logger.Debug("failed to close player", "error", err)
		}

		if navigated == "" {
			return nil
		}
		slug, num, err := catalog.ParseSessionKey(navigated)
		if err != nil {
			return err
		}
		ep, err = cat.Get(slug, num)
		if err != nil {
			return err
		}
		fmt.Println()
	}
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the web front end",
	RunE: func(cmd *cobra.Command, args []string) error {
		if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
			cfg.Web.Listen = listen
		}

		server := web.NewServer(cat, local, prog, web.Options{
			Listen:           cfg.Web.Listen,
			AutoPlayDefault:  cfg.Playback.AutoPlay,
			AutoNextDefault:  cfg.Playback.AutoNext,
			CountdownSeconds: cfg.Playback.CountdownSeconds,
		}, logger)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if open, _ := cmd.Flags().GetBool("open"); open {
			url := "http://" + cfg.Web.Listen
			if err := browser.OpenURL(url); err != nil {
				logger.Warn("failed to open browser", "url", url, "error", err)
			}
		}

		return server.Start(ctx)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "enable debug mode")

	playCmd.Flags().Bool("autoplay", true, "start playback immediately")
	playCmd.Flags().Bool("autonext", true, "advance to the next episode after the countdown")
	playCmd.Flags().String("engine", "", "force a playback path (native, hls)")

	serveCmd.Flags().String("listen", "", "listen address (host:port)")
	serveCmd.Flags().Bool("open", false, "open the browser after startup")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(serveCmd)
}
