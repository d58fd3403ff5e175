package catalog

// Subtitle is one subtitle track attached to an episode. Order in the
// catalog file is display order; the first entry is the default track.
type Subtitle struct {
	Label string `json:"label"`
	Lang  string `json:"lang"`
	URL   string `json:"url"`
}

// Episode is a single playable catalog entry. Episode 0 conventionally
// denotes a standalone feature rather than a numbered episode.
type Episode struct {
	Show        string     `json:"show"`
	Title       string     `json:"title,omitempty"`
	Number      int        `json:"episode"`
	StreamURL   string     `json:"stream"`
	PosterURL   string     `json:"poster,omitempty"`
	Subtitles   []Subtitle `json:"subtitles,omitempty"`
	Synopsis    string     `json:"synopsis,omitempty"`
	Description string     `json:"description,omitempty"`
	Genres      []string   `json:"genres,omitempty"`

	// ShowSlug is derived from Show at load time, never read from the file.
	ShowSlug string `json:"-"`
}

// SessionKey identifies the episode for watch-progress persistence.
func (e Episode) SessionKey() string {
	return SessionKey(e.ShowSlug, e.Number)
}

// IsFeature reports whether the entry is a standalone feature (episode 0).
func (e Episode) IsFeature() bool {
	return e.Number == 0
}

// DisplayTitle combines show and episode title for overlays and lists.
func (e Episode) DisplayTitle() string {
	if e.Title == "" {
		return e.Show
	}
	return e.Show + " — " + e.Title
}
