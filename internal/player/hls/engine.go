// Package hls implements the adaptive-streaming engine over HTTP Live
// Streaming master playlists: it resolves a manifest into discrete
// quality levels and routes level selection to the attached surface.
package hls

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/wibustream/anistream/internal/player"
)

var (
	bandwidthRe  = regexp.MustCompile(`BANDWIDTH=(\d+)`)
	resolutionRe = regexp.MustCompile(`RESOLUTION=(\d+)x(\d+)`)
)

// variant is one EXT-X-STREAM-INF entry of a master playlist.
type variant struct {
	URL       string
	Bandwidth int
	Height    int
}

// Engine implements player.Engine for HLS manifests.
type Engine struct {
	mu sync.Mutex

	manifestURL string
	client      *resty.Client
	logger      *slog.Logger

	surface  player.Surface
	variants []variant
	levels   []player.Level
	onParsed func([]player.Level)

	cancel    context.CancelFunc
	destroyed bool
}

// Factory returns an EngineFactory that builds an HLS engine for manifest
// URLs and nil for anything else (the capability check).
func Factory(logger *slog.Logger) player.EngineFactory {
	client := resty.New().
		SetTimeout(30*time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500*time.Millisecond).
		SetHeader("User-Agent", "anistream/1.0")
	return func(streamURL string) player.Engine {
		if !IsManifestURL(streamURL) {
			return nil
		}
		return New(streamURL, client, logger)
	}
}

// IsManifestURL reports whether the URL looks like an HLS playlist.
func IsManifestURL(streamURL string) bool {
	u, err := url.Parse(streamURL)
	if err != nil {
		return false
	}
	return strings.HasSuffix(strings.ToLower(u.Path), ".m3u8")
}

// New builds an engine for one manifest URL.
func New(manifestURL string, client *resty.Client, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if client == nil {
		client = resty.New().SetTimeout(30 * time.Second)
	}
	return &Engine{manifestURL: manifestURL, client: client, logger: logger}
}

// OnManifestParsed registers the manifest-parsed handler. Must be called
// before Attach.
func (e *Engine) OnManifestParsed(fn func(levels []player.Level)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onParsed = fn
}

// Attach binds the engine to the surface and starts the asynchronous
// manifest load. The surface receives the master URL once the manifest is
// parsed, so playback starts in automatic selection.
func (e *Engine) Attach(ctx context.Context, s player.Surface) error {
	e.mu.Lock()
	if e.destroyed {
		e.mu.Unlock()
		return fmt.Errorf("engine already destroyed")
	}
	if e.surface != nil {
		e.mu.Unlock()
		return fmt.Errorf("engine already attached")
	}
	e.surface = s
	loadCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.mu.Unlock()

	go e.loadManifest(loadCtx)
	return nil
}

func (e *Engine) loadManifest(ctx context.Context) {
	variants, err := e.fetchVariants(ctx)
	if err != nil {
		e.logger.Warn("manifest load failed", "url", e.manifestURL, "error", err)
		return
	}

	levels := make([]player.Level, len(variants))
	for i, v := range variants {
		levels[i] = player.Level{Index: i, Height: v.Height, Bitrate: v.Bandwidth}
	}

	e.mu.Lock()
	if e.destroyed {
		e.mu.Unlock()
		return
	}
	e.variants = variants
	e.levels = levels
	surface := e.surface
	onParsed := e.onParsed
	e.mu.Unlock()

	if surface != nil {
		if err := surface.Load(e.manifestURL); err != nil {
			e.logger.Warn("surface load failed", "url", e.manifestURL, "error", err)
			return
		}
	}

	e.mu.Lock()
	stale := e.destroyed
	e.mu.Unlock()
	if !stale && onParsed != nil {
		onParsed(levels)
	}
}

// fetchVariants downloads the playlist and extracts its stream variants.
// A media playlist (no EXT-X-STREAM-INF) yields a single implicit variant
// for the playlist itself.
func (e *Engine) fetchVariants(ctx context.Context) ([]variant, error) {
	resp, err := e.client.R().SetContext(ctx).Get(e.manifestURL)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("HTTP %s", resp.Status())
	}

	var lines []string
	scanner := bufio.NewScanner(strings.NewReader(string(resp.Body())))
	for scanner.Scan() {
		lines = append(lines, strings.TrimSpace(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(lines) == 0 || lines[0] != "#EXTM3U" {
		return nil, fmt.Errorf("not an M3U8 playlist")
	}

	variants := parseMaster(lines, e.manifestURL)
	if len(variants) == 0 {
		// Media playlist: one implicit level, no quality hints.
		variants = []variant{{URL: e.manifestURL}}
	}
	return variants, nil
}

// parseMaster extracts EXT-X-STREAM-INF variants in manifest order.
func parseMaster(lines []string, baseURL string) []variant {
	var variants []variant
	for i, line := range lines {
		if !strings.HasPrefix(line, "#EXT-X-STREAM-INF:") {
			continue
		}

		v := variant{}
		if m := bandwidthRe.FindStringSubmatch(line); len(m) > 1 {
			v.Bandwidth, _ = strconv.Atoi(m[1])
		}
		if m := resolutionRe.FindStringSubmatch(line); len(m) > 2 {
			v.Height, _ = strconv.Atoi(m[2])
		}

		// The next non-tag line is the variant URI.
		for j := i + 1; j < len(lines); j++ {
			uri := lines[j]
			if uri == "" || strings.HasPrefix(uri, "#") {
				continue
			}
			v.URL = resolveURL(baseURL, uri)
			break
		}
		if v.URL != "" {
			variants = append(variants, v)
		}
	}
	return variants
}

// resolveURL makes a possibly relative playlist URI absolute.
func resolveURL(baseURL, ref string) string {
	base, err := url.Parse(baseURL)
	if err != nil {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}

// Levels returns the parsed quality levels in manifest order.
func (e *Engine) Levels() []player.Level {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]player.Level, len(e.levels))
	copy(out, e.levels)
	return out
}

// SetLevel routes a quality selection to the surface: LevelAuto reloads
// the master playlist, a concrete index loads that variant directly.
func (e *Engine) SetLevel(ctx context.Context, index int) error {
	e.mu.Lock()
	if e.destroyed {
		e.mu.Unlock()
		return fmt.Errorf("engine already destroyed")
	}
	surface := e.surface
	target := e.manifestURL
	if index != player.LevelAuto {
		if index < 0 || index >= len(e.variants) {
			e.mu.Unlock()
			return fmt.Errorf("level index %d out of range", index)
		}
		target = e.variants[index].URL
	}
	e.mu.Unlock()

	if surface == nil {
		return fmt.Errorf("engine not attached")
	}
	return surface.Load(target)
}

// Destroy releases the engine. Idempotent; the pending manifest load, if
// any, is canceled and no callback fires afterwards.
func (e *Engine) Destroy() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed {
		return
	}
	e.destroyed = true
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.surface = nil
	e.onParsed = nil
}
