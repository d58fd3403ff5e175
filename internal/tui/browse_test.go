package tui

import (
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wibustream/anistream/internal/catalog"
	"github.com/wibustream/anistream/internal/progress"
)

func newBrowseFixture(t *testing.T) browseModel {
	t.Helper()
	path := filepath.Join(t.TempDir(), "videos.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
  "videos": [
    {"show": "Frieren", "title": "The Journey's End", "episode": 1, "stream": "https://cdn.example.com/f/1.m3u8", "genres": ["fantasy"]},
    {"show": "Frieren", "title": "It Didn't Have to Be Magic", "episode": 2, "stream": "https://cdn.example.com/f/2.m3u8", "genres": ["fantasy"]},
    {"show": "Cowboy Bebop", "title": "Asteroid Blues", "episode": 1, "stream": "https://cdn.example.com/b/1.mp4", "genres": ["sci-fi"]}
  ]
}`), 0644))
	cat, err := catalog.Load(path, nil)
	require.NoError(t, err)
	return newBrowseModel(cat, progress.NewStore(nil, nil, nil))
}

func key(s string) tea.KeyMsg {
	if s == "enter" {
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestBrowseListsAllEpisodes(t *testing.T) {
	m := newBrowseFixture(t)
	assert.Len(t, m.items, 3)

	ep, ok := m.selected()
	require.True(t, ok)
	assert.Equal(t, "frieren", ep.ShowSlug)
	assert.Equal(t, 1, ep.Number)
}

func TestBrowseCursorMoves(t *testing.T) {
	m := newBrowseFixture(t)

	m, _ = m.Update(key("j"))
	m, _ = m.Update(key("j"))
	ep, ok := m.selected()
	require.True(t, ok)
	assert.Equal(t, "cowboy-bebop", ep.ShowSlug)

	// No wrap past the end.
	m, _ = m.Update(key("j"))
	ep2, _ := m.selected()
	assert.Equal(t, ep, ep2)

	m, _ = m.Update(key("k"))
	ep3, _ := m.selected()
	assert.Equal(t, 2, ep3.Number)
}

func TestBrowseGenreCycling(t *testing.T) {
	m := newBrowseFixture(t)
	require.Equal(t, []string{"fantasy", "sci-fi"}, m.genres)

	m, _ = m.Update(key("g"))
	assert.Equal(t, "fantasy", m.genre())
	assert.Len(t, m.items, 2)

	m, _ = m.Update(key("g"))
	assert.Equal(t, "sci-fi", m.genre())
	assert.Len(t, m.items, 1)

	m, _ = m.Update(key("g"))
	assert.Empty(t, m.genre())
	assert.Len(t, m.items, 3)
}

func TestBrowseRowPrintsShowOnce(t *testing.T) {
	m := newBrowseFixture(t)
	m.setSize(80, 24)

	view := m.View()
	assert.Contains(t, view, "Frieren — The Journey's End")
	assert.NotContains(t, view, "Frieren — Frieren")
}

func TestBrowseSearchFilters(t *testing.T) {
	m := newBrowseFixture(t)

	m, _ = m.Update(key("/"))
	assert.True(t, m.searching())

	for _, r := range "bebop" {
		m, _ = m.Update(key(string(r)))
	}
	assert.Len(t, m.items, 1)
	assert.Equal(t, "cowboy-bebop", m.items[0].ShowSlug)

	m, _ = m.Update(key("enter"))
	assert.False(t, m.searching())
}
