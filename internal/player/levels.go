package player

import "fmt"

// LevelAuto is the reserved selection index for automatic quality
// adaptation. It never appears in an engine's level list.
const LevelAuto = -1

// Level is one discrete quality tier of a stream. Index is the position
// within the engine's level list; Height and Bitrate are optional hints
// from the manifest.
type Level struct {
	Index   int
	Height  int
	Bitrate int
}

// Label derives the human label for a level: height first, then bitrate,
// then a positional fallback.
func (l Level) Label() string {
	if l.Height > 0 {
		return fmt.Sprintf("%dp", l.Height)
	}
	if l.Bitrate > 0 {
		return fmt.Sprintf("%dkbps", (l.Bitrate+500)/1000)
	}
	return fmt.Sprintf("Level %d", l.Index)
}
