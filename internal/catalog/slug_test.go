package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"lowercases", "Naruto", "naruto"},
		{"collapses punctuation runs", "Attack on Titan!", "attack-on-titan"},
		{"strips diacritics", "Pokémon", "pokemon"},
		{"collapses inner runs", "Re: Zero -- Starting Life", "re-zero-starting-life"},
		{"trims leading and trailing", "---Bleach---", "bleach"},
		{"keeps digits", "Mob Psycho 100", "mob-psycho-100"},
		{"handles empty string", "", ""},
		{"handles only punctuation", "!!!", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Slugify(tt.input))
		})
	}
}

func TestSlugifyIdempotent(t *testing.T) {
	inputs := []string{"Attack on Titan!", "Pokémon", "Re: Zero", "already-a-slug"}
	for _, in := range inputs {
		once := Slugify(in)
		assert.Equal(t, once, Slugify(once), "slugify must be idempotent for %q", in)
	}
}

func TestSessionKey(t *testing.T) {
	assert.Equal(t, "attack-on-titan:3", SessionKey("attack-on-titan", 3))
	assert.Equal(t, "movie:0", SessionKey("movie", 0))
}
