package web

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"

	"github.com/wibustream/anistream/internal/catalog"
	"github.com/wibustream/anistream/internal/localdata"
)

type browseItem struct {
	Episode  catalog.Episode
	WatchURL string
	// Resume fields; Percent is 0 when no resume point exists.
	ResumePos int
	Percent   int
	Ago       string
}

type browseData struct {
	Theme  string
	Query  string
	Genre  string
	Genres []string
	Items  []browseItem
	Total  int
}

func (s *Server) handleBrowse(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	genre := strings.TrimSpace(r.URL.Query().Get("genre"))

	episodes := s.catalog.Filter(query, genre)
	items := make([]browseItem, 0, len(episodes))
	for _, ep := range episodes {
		item := browseItem{
			Episode:  ep,
			WatchURL: "/watch/" + ep.ShowSlug + "/" + strconv.Itoa(ep.Number),
		}
		if rec := s.progress.Load(ep.SessionKey()); rec != nil && rec.Position > 0 {
			item.ResumePos = rec.Position
			if rec.Duration > 0 {
				item.Percent = rec.Position * 100 / rec.Duration
			}
			if rec.CapturedAt > 0 {
				item.Ago = humanize.Time(time.UnixMilli(rec.CapturedAt))
			}
		}
		items = append(items, item)
	}

	s.render(w, http.StatusOK, browseTemplate, browseData{
		Theme:  localdata.Theme(s.local),
		Query:  query,
		Genre:  genre,
		Genres: s.catalog.Genres(),
		Items:  items,
		Total:  s.catalog.Len(),
	})
}

type watchData struct {
	Theme    string
	Episode  catalog.Episode
	ResumeAt int
	AutoPlay bool
	AutoNext bool
	// Countdown is the auto-advance length in seconds.
	Countdown int

	PrevURL   string
	NextURL   string
	NextTitle string

	ProgressURL string
}

func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	ep, num, ok := s.episodeFromRequest(w, r)
	if !ok {
		return
	}

	// autoplay is on only for the literal "1"; autonext is off only for
	// the literal "0". Anything else keeps the defaults.
	q := r.URL.Query()
	autoPlay := s.opts.AutoPlayDefault
	if q.Has("autoplay") {
		autoPlay = q.Get("autoplay") == "1"
	}
	autoNext := s.opts.AutoNextDefault
	if q.Has("autonext") {
		autoNext = q.Get("autonext") != "0"
	}

	data := watchData{
		Theme:       localdata.Theme(s.local),
		Episode:     ep,
		AutoPlay:    autoPlay,
		AutoNext:    autoNext,
		Countdown:   s.opts.CountdownSeconds,
		ProgressURL: "/api/progress/" + ep.ShowSlug + "/" + strconv.Itoa(num),
	}

	if rec := s.progress.Load(ep.SessionKey()); rec != nil && rec.Position > 0 {
		data.ResumeAt = rec.Position
	}

	// Explicit flags follow the viewer across episodes.
	carry := url.Values{}
	if v := q.Get("autoplay"); v != "" {
		carry.Set("autoplay", v)
	}
	if v := q.Get("autonext"); v != "" {
		carry.Set("autonext", v)
	}
	watchURL := func(target *catalog.Episode) string {
		u := "/watch/" + target.ShowSlug + "/" + strconv.Itoa(target.Number)
		if len(carry) > 0 {
			u += "?" + carry.Encode()
		}
		return u
	}

	prev, next := s.catalog.Neighbors(ep.ShowSlug, num)
	if prev != nil {
		data.PrevURL = watchURL(prev)
	}
	if next != nil {
		data.NextURL = watchURL(next)
		data.NextTitle = next.DisplayTitle()
	}

	s.render(w, http.StatusOK, watchTemplate, data)
}

func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	ep, _, ok := s.episodeFromRequest(w, r)
	if !ok {
		return
	}
	rec := s.progress.Load(ep.SessionKey())
	if rec == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(rec); err != nil {
		s.logger.Debug("failed to encode progress", "error", err)
	}
}

func (s *Server) handleSaveProgress(w http.ResponseWriter, r *http.Request) {
	ep, _, ok := s.episodeFromRequest(w, r)
	if !ok {
		return
	}

	var body struct {
		Position int `json:"t"`
		Duration int `json:"d"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if body.Position < 0 || body.Duration < 0 {
		http.Error(w, "negative values", http.StatusBadRequest)
		return
	}

	if err := s.progress.Save(ep.SessionKey(), body.Position, body.Duration); err != nil {
		s.logger.Error("failed to save progress", "key", ep.SessionKey(), "error", err)
		http.Error(w, "save failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetTheme(w http.ResponseWriter, r *http.Request) {
	theme := r.FormValue("theme")
	if err := localdata.SetTheme(s.local, theme); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	target := r.Referer()
	if target == "" {
		target = "/"
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusNotFound, notFoundTemplate, struct{ Theme string }{
		Theme: localdata.Theme(s.local),
	})
}

// episodeFromRequest resolves the {show}/{episode} route params against
// the catalog, writing the 404 page on failure.
func (s *Server) episodeFromRequest(w http.ResponseWriter, r *http.Request) (catalog.Episode, int, bool) {
	show := chi.URLParam(r, "show")
	num, err := strconv.Atoi(chi.URLParam(r, "episode"))
	if err != nil {
		s.handleNotFound(w, r)
		return catalog.Episode{}, 0, false
	}
	ep, err := s.catalog.Get(show, num)
	if err != nil {
		s.handleNotFound(w, r)
		return catalog.Episode{}, 0, false
	}
	return ep, num, true
}

func (s *Server) render(w http.ResponseWriter, status int, tmpl renderable, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.Execute(w, data); err != nil {
		s.logger.Error("failed to render page", "error", err)
	}
}
