// Package player defines the media surface and adaptive engine contracts
// the playback session controller drives, plus the quality-level model.
package player

import "context"

// Surface is a media-rendering surface: one video output that emits
// playback lifecycle events. Implementations must be safe for concurrent
// use; event callbacks are invoked from the surface's own control
// goroutine, never concurrently with each other.
type Surface interface {
	// Load assigns a stream URL to the surface. Calling Load again
	// replaces the current source.
	Load(url string) error

	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	TogglePause(ctx context.Context) error

	// Seek moves playback to the given offset in seconds. Seeking before
	// OnMetadataLoaded has fired is undefined; callers must defer.
	Seek(ctx context.Context, seconds float64) error

	SetMuted(muted bool) error

	// Fullscreen requests fullscreen on the surface, falling back to a
	// secondary mechanism when the primary request fails.
	Fullscreen() error

	// CanPlayNative reports whether the surface understands the stream
	// format itself, without an adaptive engine in front of it.
	CanPlayNative(url string) bool

	// OnMetadataLoaded fires once per loaded source when enough metadata
	// is available to seek; duration is in seconds (0 if unknown).
	OnMetadataLoaded(func(durationSeconds float64))
	// OnTimeUpdate fires periodically during playback.
	OnTimeUpdate(func(positionSeconds, durationSeconds float64))
	OnPause(func())
	// OnEnded fires when the stream reaches end of stream.
	OnEnded(func())

	Close() error
}

// Engine is an adaptive-streaming capability attached in front of a
// surface: it resolves a manifest into discrete quality levels and routes
// level selection. At most one engine may be live per session.
type Engine interface {
	// Attach binds the engine to a surface and triggers the asynchronous
	// manifest load. The manifest-parsed callback must be registered
	// before Attach so no event can be missed.
	Attach(ctx context.Context, s Surface) error

	// Levels returns the parsed quality levels in manifest order. Empty
	// until the manifest has been parsed.
	Levels() []Level

	// SetLevel selects a quality level by index; LevelAuto selects
	// automatic (surface-driven) adaptation.
	SetLevel(ctx context.Context, index int) error

	// OnManifestParsed registers the manifest-parsed handler.
	OnManifestParsed(func(levels []Level))

	// Destroy releases the engine. Idempotent; after Destroy no callback
	// fires.
	Destroy()
}

// EngineFactory constructs an engine for a stream URL, or returns nil
// when the adaptive capability does not apply to it.
type EngineFactory func(url string) Engine
