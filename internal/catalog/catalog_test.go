package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCatalog(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "datavideo.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

const sampleCatalog = `{
  "videos": [
    {"show": "Attack on Titan!", "title": "To You, in 2000 Years", "episode": 1,
     "stream": "https://cdn.example/aot/1/master.m3u8", "genres": ["Action", "Drama"]},
    {"show": "Attack on Titan!", "title": "That Day", "episode": 2,
     "stream": "https://cdn.example/aot/2/master.m3u8", "genres": ["Action"]},
    {"show": "Attack on Titan!", "title": "A Dim Light", "episode": 3,
     "stream": "https://cdn.example/aot/3/master.m3u8", "genres": ["Action"]},
    {"show": "Pokémon", "title": "The Movie", "episode": 0,
     "stream": "https://cdn.example/pokemon/movie.mp4", "genres": ["Adventure"],
     "synopsis": "A standalone feature."}
  ]
}`

func TestLoadDerivesSlugs(t *testing.T) {
	c, err := Load(writeCatalog(t, sampleCatalog), nil)
	require.NoError(t, err)

	assert.Equal(t, 4, c.Len())
	ep, err := c.Get("attack-on-titan", 1)
	require.NoError(t, err)
	assert.Equal(t, "attack-on-titan", ep.ShowSlug)
	assert.Equal(t, "attack-on-titan:1", ep.SessionKey())

	movie, err := c.Get("pokemon", 0)
	require.NoError(t, err)
	assert.True(t, movie.IsFeature())
}

func TestLoadRejectsDuplicateKeys(t *testing.T) {
	_, err := Load(writeCatalog(t, `{"videos": [
		{"show": "X", "episode": 1, "stream": "a"},
		{"show": "X", "episode": 1, "stream": "b"}
	]}`), nil)
	assert.ErrorContains(t, err, "duplicate episode")
}

func TestGetNotFound(t *testing.T) {
	c, err := Load(writeCatalog(t, sampleCatalog), nil)
	require.NoError(t, err)

	_, err = c.Get("attack-on-titan", 99)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = c.Get("no-such-show", 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNeighbors(t *testing.T) {
	c, err := Load(writeCatalog(t, sampleCatalog), nil)
	require.NoError(t, err)

	tests := []struct {
		name    string
		episode int
		prev    int // 0 = nil expected
		next    int
	}{
		{"first episode has no prev", 1, 0, 2},
		{"middle episode has both", 2, 1, 3},
		{"last episode has no next", 3, 2, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev, next := c.Neighbors("attack-on-titan", tt.episode)
			if tt.prev == 0 {
				assert.Nil(t, prev)
			} else {
				require.NotNil(t, prev)
				assert.Equal(t, tt.prev, prev.Number)
			}
			if tt.next == 0 {
				assert.Nil(t, next)
			} else {
				require.NotNil(t, next)
				assert.Equal(t, tt.next, next.Number)
			}
		})
	}

	prev, next := c.Neighbors("attack-on-titan", 42)
	assert.Nil(t, prev)
	assert.Nil(t, next)
}

func TestGenres(t *testing.T) {
	c, err := Load(writeCatalog(t, sampleCatalog), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Action", "Adventure", "Drama"}, c.Genres())
}

func TestFilter(t *testing.T) {
	c, err := Load(writeCatalog(t, sampleCatalog), nil)
	require.NoError(t, err)

	t.Run("no constraints returns everything", func(t *testing.T) {
		assert.Len(t, c.Filter("", ""), 4)
	})

	t.Run("genre filter", func(t *testing.T) {
		got := c.Filter("", "Drama")
		require.Len(t, got, 1)
		assert.Equal(t, 1, got[0].Number)
	})

	t.Run("substring match on synopsis", func(t *testing.T) {
		got := c.Filter("standalone", "")
		require.Len(t, got, 1)
		assert.Equal(t, "pokemon", got[0].ShowSlug)
	})

	t.Run("fuzzy match on show name", func(t *testing.T) {
		got := c.Filter("atck titan", "")
		require.NotEmpty(t, got)
		assert.Equal(t, "attack-on-titan", got[0].ShowSlug)
	})

	t.Run("query and genre combine", func(t *testing.T) {
		assert.Empty(t, c.Filter("titan", "Adventure"))
	})
}

func TestReloadKeepsOldIndexOnFailure(t *testing.T) {
	path := writeCatalog(t, sampleCatalog)
	c, err := Load(path, nil)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))
	assert.Error(t, c.Reload())
	assert.Equal(t, 4, c.Len(), "failed reload must not clobber the index")
}
