package localdata

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "anistream.db"), Options{WALMode: true, MaxConnections: 2})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSetGet(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set("theme", "dark"))
	v, err := s.Get("theme")
	require.NoError(t, err)
	assert.Equal(t, "dark", v)

	// Overwrite in place.
	require.NoError(t, s.Set("theme", "light"))
	v, err = s.Get("theme")
	require.NoError(t, err)
	assert.Equal(t, "light", v)
}

func TestDelete(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Set("k", "v"))
	require.NoError(t, s.Delete("k"))
	_, err := s.Get("k")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, s.Delete("never-existed"))
}

func TestJSONRoundTrip(t *testing.T) {
	s := openTestStore(t)
	type record struct {
		T int `json:"t"`
		D int `json:"d"`
	}
	require.NoError(t, s.SetJSON("wp:show:1", record{T: 120, D: 1440}))

	var got record
	require.NoError(t, s.GetJSON("wp:show:1", &got))
	assert.Equal(t, record{T: 120, D: 1440}, got)
}

func TestGetJSONMalformed(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Set("wp:broken", "{not json"))
	var out map[string]any
	assert.Error(t, s.GetJSON("wp:broken", &out))
}

func TestDeviceIDStableAcrossCalls(t *testing.T) {
	s := openTestStore(t)
	first := DeviceID(s)
	require.NotEmpty(t, first)
	require.NotEqual(t, AnonymousDeviceID, first)
	assert.Equal(t, first, DeviceID(s), "device id must be generated once and reused")
}

func TestDeviceIDFallsBackWithoutStore(t *testing.T) {
	assert.Equal(t, AnonymousDeviceID, DeviceID(nil))
}

func TestTheme(t *testing.T) {
	s := openTestStore(t)
	assert.Equal(t, "dark", Theme(s), "default when unset")

	require.NoError(t, SetTheme(s, "light"))
	assert.Equal(t, "light", Theme(s))

	assert.Error(t, SetTheme(s, "solarized"))

	// Corrupted value is treated as absent.
	require.NoError(t, s.Set(KeyTheme, "blue"))
	assert.Equal(t, "dark", Theme(s))
}
