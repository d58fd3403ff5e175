package player

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelLabel(t *testing.T) {
	tests := []struct {
		name     string
		level    Level
		expected string
	}{
		{"height wins", Level{Index: 0, Height: 720, Bitrate: 2500000}, "720p"},
		{"height only", Level{Index: 1, Height: 1080}, "1080p"},
		{"bitrate fallback", Level{Index: 2, Bitrate: 1500000}, "1500kbps"},
		{"bitrate rounds", Level{Index: 2, Bitrate: 1499600}, "1500kbps"},
		{"positional fallback", Level{Index: 3}, "Level 3"},
		{"index zero fallback", Level{}, "Level 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.level.Label())
		})
	}
}
