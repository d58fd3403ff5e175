// Package session owns a single playback session: one episode bound to
// one media surface, with resume restoration, throttled progress saves,
// quality negotiation, hotkeys and end-of-stream auto-advance.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/wibustream/anistream/internal/catalog"
	"github.com/wibustream/anistream/internal/player"
	"github.com/wibustream/anistream/internal/progress"
)

// Navigator receives navigation requests; the session never navigates
// itself.
type Navigator interface {
	NavigateTo(ref string)
}

// NavigatorFunc adapts a function to the Navigator interface.
type NavigatorFunc func(ref string)

func (f NavigatorFunc) NavigateTo(ref string) { f(ref) }

// ProgressStore is the slice of the progress store the session needs.
type ProgressStore interface {
	Load(sessionKey string) *progress.Record
	Save(sessionKey string, positionSeconds, durationSeconds int) error
}

// Options configure one session.
type Options struct {
	// AutoPlay mutes the surface and requests playback on start; a
	// rejected play attempt is swallowed.
	AutoPlay bool
	// AutoNext enables the end-of-stream countdown towards NextRef.
	AutoNext bool

	// Navigation references, derived externally.
	NextRef    string
	NextTitle  string
	PrevRef    string
	LibraryRef string

	// SaveEvery is the progress-save throttle window. Default 2s.
	SaveEvery time.Duration
	// Countdown and TickEvery tune the auto-advance timers. Defaults 5s
	// and 1s.
	Countdown time.Duration
	TickEvery time.Duration

	// OnLevels is notified when the quality-level list changes.
	OnLevels func(levels []player.Level)
	// OnCountdown is notified of overlay visibility and remaining ticks.
	OnCountdown func(remaining int, visible bool)
	// OnEnded is notified on end of stream, after any countdown has been
	// started.
	OnEnded func()
}

// Controller coordinates one episode's playback session. Create with
// NewController, then Start; Stop must be called before the surface is
// handed to another session.
type Controller struct {
	mu sync.Mutex

	episode   catalog.Episode
	opts      Options
	surface   player.Surface
	engines   player.EngineFactory
	store     ProgressStore
	navigator Navigator
	logger    *slog.Logger

	engine        player.Engine
	levels        []player.Level
	selectedLevel int

	advancer    *Advancer
	pendingSeek bool
	resumeAt    int

	lastSaveAt time.Time
	lastPos    float64
	lastDur    float64

	started bool
	stopped bool

	// now is swappable for throttle tests.
	now func() time.Time
}

// NewController wires a session; nothing happens until Start.
func NewController(ep catalog.Episode, surface player.Surface, engines player.EngineFactory, store ProgressStore, nav Navigator, opts Options, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.SaveEvery <= 0 {
		opts.SaveEvery = 2 * time.Second
	}
	if opts.Countdown <= 0 {
		opts.Countdown = 5 * time.Second
	}
	if opts.TickEvery <= 0 {
		opts.TickEvery = time.Second
	}
	return &Controller{
		episode:       ep,
		opts:          opts,
		surface:       surface,
		engines:       engines,
		store:         store,
		navigator:     nav,
		logger:        logger,
		selectedLevel: player.LevelAuto,
		now:           time.Now,
	}
}

// Start initializes the session: resume restoration is arranged first,
// event handlers are subscribed before any asynchronous load is
// triggered, then the playback strategy is selected and autoplay applied.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return fmt.Errorf("session already started")
	}
	c.started = true

	// 1. Resume point. The seek itself is deferred until the surface
	// reports loaded metadata; seeking earlier is undefined.
	if c.store != nil {
		if rec := c.store.Load(c.episode.SessionKey()); rec != nil && rec.Position > 0 {
			c.resumeAt = rec.Position
			c.pendingSeek = true
		}
	}
	c.mu.Unlock()

	// 2. Subscribe before load so no event can be missed.
	c.surface.OnMetadataLoaded(func(dur float64) { c.handleMetadataLoaded(ctx, dur) })
	c.surface.OnTimeUpdate(c.handleTimeUpdate)
	c.surface.OnPause(c.handlePause)
	c.surface.OnEnded(c.handleEnded)

	// 3. Playback strategy.
	streamURL := c.episode.StreamURL
	switch {
	case c.surface.CanPlayNative(streamURL):
		if err := c.surface.Load(streamURL); err != nil {
			return fmt.Errorf("failed to load stream: %w", err)
		}
	default:
		var engine player.Engine
		if c.engines != nil {
			engine = c.engines(streamURL)
		}
		if engine == nil {
			c.logger.Warn("no playback path for stream", "url", streamURL)
			return nil
		}
		engine.OnManifestParsed(c.handleManifestParsed)
		c.mu.Lock()
		c.engine = engine
		c.selectedLevel = player.LevelAuto
		c.mu.Unlock()
		if err := engine.Attach(ctx, c.surface); err != nil {
			return fmt.Errorf("failed to attach engine: %w", err)
		}
	}

	// 4. Autoplay. Muting first satisfies autoplay policies; a rejected
	// play attempt is expected and not surfaced.
	if c.opts.AutoPlay {
		if err := c.surface.SetMuted(true); err != nil {
			c.logger.Debug("mute before autoplay failed", "error", err)
		}
		if err := c.surface.Play(ctx); err != nil {
			c.logger.Debug("autoplay rejected", "error", err)
		}
	}
	return nil
}

func (c *Controller) handleMetadataLoaded(ctx context.Context, durationSeconds float64) {
	c.mu.Lock()
	seek := c.pendingSeek
	target := c.resumeAt - 1
	c.pendingSeek = false
	if durationSeconds > 0 {
		c.lastDur = durationSeconds
	}
	c.mu.Unlock()

	if seek {
		if target < 0 {
			target = 0
		}
		if err := c.surface.Seek(ctx, float64(target)); err != nil {
			c.logger.Debug("resume seek failed", "error", err)
		}
	}
}

func (c *Controller) handleTimeUpdate(positionSeconds, durationSeconds float64) {
	c.mu.Lock()
	c.lastPos = positionSeconds
	if durationSeconds > 0 {
		c.lastDur = durationSeconds
	}
	now := c.now()
	due := now.Sub(c.lastSaveAt) > c.opts.SaveEvery
	if due {
		c.lastSaveAt = now
	}
	c.mu.Unlock()

	if due {
		c.save()
	}
}

func (c *Controller) handlePause() {
	// Pause saves bypass the throttle.
	c.save()
}

func (c *Controller) handleEnded() {
	if c.opts.OnEnded != nil {
		defer c.opts.OnEnded()
	}

	c.mu.Lock()
	if c.stopped || !c.opts.AutoNext || c.opts.NextRef == "" {
		c.mu.Unlock()
		return
	}
	if c.advancer != nil {
		c.advancer.Stop()
	}
	adv := NewAdvancer(AdvancerConfig{
		Countdown: c.opts.Countdown,
		TickEvery: c.opts.TickEvery,
		OnTick: func(remaining int) {
			if c.opts.OnCountdown != nil {
				c.opts.OnCountdown(remaining, true)
			}
		},
		OnNavigate: func(target string) {
			if c.opts.OnCountdown != nil {
				c.opts.OnCountdown(0, false)
			}
			if c.navigator != nil {
				c.navigator.NavigateTo(target)
			}
		},
	})
	c.advancer = adv
	next := c.opts.NextRef
	c.mu.Unlock()

	adv.Begin(next)
}

func (c *Controller) handleManifestParsed(levels []player.Level) {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.levels = levels
	c.selectedLevel = player.LevelAuto
	onLevels := c.opts.OnLevels
	c.mu.Unlock()

	if onLevels != nil {
		onLevels(levels)
	}
}

// save persists the latest observed position, locally first and remotely
// best-effort.
func (c *Controller) save() {
	c.mu.Lock()
	pos := int(c.lastPos)
	dur := int(c.lastDur)
	store := c.store
	c.mu.Unlock()

	if store == nil {
		return
	}
	if err := store.Save(c.episode.SessionKey(), pos, dur); err != nil {
		c.logger.Debug("progress save failed", "error", err)
	}
}

// SelectLevel forwards a quality selection (LevelAuto included) to the
// engine. The native path has no selection capability.
func (c *Controller) SelectLevel(ctx context.Context, index int) error {
	c.mu.Lock()
	engine := c.engine
	c.mu.Unlock()

	if engine == nil {
		return fmt.Errorf("quality selection unavailable on the native path")
	}
	if err := engine.SetLevel(ctx, index); err != nil {
		return err
	}
	c.mu.Lock()
	c.selectedLevel = index
	c.mu.Unlock()
	return nil
}

// Levels returns the known quality levels, empty on the native path.
func (c *Controller) Levels() []player.Level {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]player.Level, len(c.levels))
	copy(out, c.levels)
	return out
}

// SelectedLevel returns the current selection index (LevelAuto when
// automatic).
func (c *Controller) SelectedLevel() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selectedLevel
}

// HandleKey processes a session hotkey: "f" fullscreen, "k" or space
// play/pause toggle. Returns true when the key was consumed so callers
// suppress its default behavior.
func (c *Controller) HandleKey(ctx context.Context, key string) bool {
	switch key {
	case "f", "F":
		if err := c.surface.Fullscreen(); err != nil {
			c.logger.Debug("fullscreen request failed", "error", err)
		}
		return true
	case "k", "K", " ":
		if err := c.surface.TogglePause(ctx); err != nil {
			c.logger.Debug("play/pause toggle failed", "error", err)
		}
		return true
	default:
		return false
	}
}

// SurfaceClicked requests fullscreen, mirroring click-to-fullscreen on
// the rendering surface.
func (c *Controller) SurfaceClicked() {
	if err := c.surface.Fullscreen(); err != nil {
		c.logger.Debug("fullscreen request failed", "error", err)
	}
}

// CancelAutoNext dismisses a pending countdown, if any.
func (c *Controller) CancelAutoNext() {
	c.mu.Lock()
	adv := c.advancer
	onCountdown := c.opts.OnCountdown
	c.mu.Unlock()
	if adv != nil && adv.Cancel() && onCountdown != nil {
		onCountdown(0, false)
	}
}

// WatchNext navigates to the queued next item immediately, canceling the
// countdown when one is pending.
func (c *Controller) WatchNext() {
	c.mu.Lock()
	adv := c.advancer
	next := c.opts.NextRef
	c.mu.Unlock()

	if adv != nil && adv.WatchNow() {
		return
	}
	if next != "" && c.navigator != nil {
		c.navigator.NavigateTo(next)
	}
}

// Advance returns the auto-advance state for display, idle when no
// countdown was ever started.
func (c *Controller) Advance() (AdvanceState, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.advancer == nil {
		return AdvanceIdle, 0
	}
	return c.advancer.State(), c.advancer.Remaining()
}

// Progress returns the latest observed position and duration in seconds.
func (c *Controller) Progress() (positionSeconds, durationSeconds float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastPos, c.lastDur
}

// Refs returns the previous, library and next navigation references.
func (c *Controller) Refs() (prev, library, next string) {
	return c.opts.PrevRef, c.opts.LibraryRef, c.opts.NextRef
}

// Episode returns the episode bound to this session.
func (c *Controller) Episode() catalog.Episode {
	return c.episode
}

// Stop tears the session down: a final unthrottled save, all auto-advance
// timers canceled, and the engine destroyed. After Stop no timer owned by
// this session can fire. Idempotent.
func (c *Controller) Stop() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	adv := c.advancer
	engine := c.engine
	c.engine = nil
	started := c.started
	c.mu.Unlock()

	if started {
		c.save()
	}
	if adv != nil {
		adv.Stop()
	}
	if engine != nil {
		engine.Destroy()
	}
}
