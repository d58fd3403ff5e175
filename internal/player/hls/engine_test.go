package hls

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wibustream/anistream/internal/player"
)

const masterPlaylist = `#EXTM3U
#EXT-X-STREAM-INF:BANDWIDTH=800000,RESOLUTION=640x360
360/index.m3u8
#EXT-X-STREAM-INF:BANDWIDTH=2500000,RESOLUTION=1280x720
720/index.m3u8
#EXT-X-STREAM-INF:BANDWIDTH=5000000,RESOLUTION=1920x1080
https://cdn.example/abs/1080/index.m3u8
`

const mediaPlaylist = `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-TARGETDURATION:6
#EXTINF:6.0,
seg0.ts
#EXT-X-ENDLIST
`

// stubSurface records Load calls; the other surface methods are unused by
// the engine.
type stubSurface struct {
	mu    sync.Mutex
	loads []string
}

func (s *stubSurface) Load(url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads = append(s.loads, url)
	return nil
}

func (s *stubSurface) loaded() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.loads))
	copy(out, s.loads)
	return out
}

func (s *stubSurface) Play(context.Context) error          { return nil }
func (s *stubSurface) Pause(context.Context) error         { return nil }
func (s *stubSurface) TogglePause(context.Context) error   { return nil }
func (s *stubSurface) Seek(context.Context, float64) error { return nil }
func (s *stubSurface) SetMuted(bool) error                 { return nil }
func (s *stubSurface) Fullscreen() error                   { return nil }
func (s *stubSurface) CanPlayNative(string) bool           { return false }
func (s *stubSurface) OnMetadataLoaded(func(float64))      {}
func (s *stubSurface) OnTimeUpdate(func(float64, float64)) {}
func (s *stubSurface) OnPause(func())                      {}
func (s *stubSurface) OnEnded(func())                      {}
func (s *stubSurface) Close() error                        { return nil }

func serveManifest(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestIsManifestURL(t *testing.T) {
	assert.True(t, IsManifestURL("https://cdn.example/show/master.m3u8"))
	assert.True(t, IsManifestURL("https://cdn.example/show/Master.M3U8?token=x"))
	assert.False(t, IsManifestURL("https://cdn.example/movie.mp4"))
	assert.False(t, IsManifestURL("://bad"))
}

func TestFactoryCapabilityCheck(t *testing.T) {
	factory := Factory(nil)
	assert.NotNil(t, factory("https://cdn.example/master.m3u8"))
	assert.Nil(t, factory("https://cdn.example/movie.mp4"))
}

func TestAttachParsesMasterManifest(t *testing.T) {
	srv := serveManifest(t, masterPlaylist)
	manifestURL := srv.URL + "/show/master.m3u8"

	eng := New(manifestURL, nil, nil)
	surface := &stubSurface{}

	parsed := make(chan []player.Level, 1)
	eng.OnManifestParsed(func(levels []player.Level) { parsed <- levels })
	require.NoError(t, eng.Attach(context.Background(), surface))

	var levels []player.Level
	select {
	case levels = <-parsed:
	case <-time.After(2 * time.Second):
		t.Fatal("manifest-parsed event never fired")
	}

	require.Len(t, levels, 3)
	assert.Equal(t, player.Level{Index: 0, Height: 360, Bitrate: 800000}, levels[0])
	assert.Equal(t, player.Level{Index: 1, Height: 720, Bitrate: 2500000}, levels[1])
	assert.Equal(t, player.Level{Index: 2, Height: 1080, Bitrate: 5000000}, levels[2])
	assert.Equal(t, levels, eng.Levels())

	// Playback starts from the master URL (automatic selection).
	assert.Equal(t, []string{manifestURL}, surface.loaded())
}

func TestMediaPlaylistYieldsImplicitLevel(t *testing.T) {
	srv := serveManifest(t, mediaPlaylist)
	manifestURL := srv.URL + "/show/index.m3u8"

	eng := New(manifestURL, nil, nil)
	parsed := make(chan []player.Level, 1)
	eng.OnManifestParsed(func(levels []player.Level) { parsed <- levels })
	require.NoError(t, eng.Attach(context.Background(), &stubSurface{}))

	select {
	case levels := <-parsed:
		require.Len(t, levels, 1)
		assert.Equal(t, "Level 0", levels[0].Label())
	case <-time.After(2 * time.Second):
		t.Fatal("manifest-parsed event never fired")
	}
}

func TestSetLevel(t *testing.T) {
	srv := serveManifest(t, masterPlaylist)
	manifestURL := srv.URL + "/show/master.m3u8"

	eng := New(manifestURL, nil, nil)
	surface := &stubSurface{}
	parsed := make(chan struct{}, 1)
	eng.OnManifestParsed(func([]player.Level) { parsed <- struct{}{} })
	require.NoError(t, eng.Attach(context.Background(), surface))
	select {
	case <-parsed:
	case <-time.After(2 * time.Second):
		t.Fatal("manifest never parsed")
	}

	require.NoError(t, eng.SetLevel(context.Background(), 1))
	loads := surface.loaded()
	assert.Equal(t, srv.URL+"/show/720/index.m3u8", loads[len(loads)-1], "relative URI must resolve against the manifest URL")

	require.NoError(t, eng.SetLevel(context.Background(), 2))
	loads = surface.loaded()
	assert.Equal(t, "https://cdn.example/abs/1080/index.m3u8", loads[len(loads)-1])

	require.NoError(t, eng.SetLevel(context.Background(), player.LevelAuto))
	loads = surface.loaded()
	assert.Equal(t, manifestURL, loads[len(loads)-1])

	assert.Error(t, eng.SetLevel(context.Background(), 7))
}

func TestDestroySuppressesCallbackAndAttach(t *testing.T) {
	srv := serveManifest(t, masterPlaylist)
	eng := New(srv.URL+"/master.m3u8", nil, nil)

	fired := make(chan struct{}, 1)
	eng.OnManifestParsed(func([]player.Level) { fired <- struct{}{} })
	eng.Destroy()
	eng.Destroy() // idempotent

	assert.Error(t, eng.Attach(context.Background(), &stubSurface{}))
	select {
	case <-fired:
		t.Fatal("callback fired after destroy")
	case <-time.After(100 * time.Millisecond):
	}

	assert.Error(t, eng.SetLevel(context.Background(), 0))
}
