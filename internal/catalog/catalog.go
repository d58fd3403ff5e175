// Package catalog loads and indexes the static episode catalog. The
// catalog file is read-only at runtime; edits on disk are picked up via
// a filesystem watch and swapped in atomically.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/sahilm/fuzzy"
)

// ErrNotFound is returned when no episode matches a (showSlug, episode)
// pair. It marks a bad reference, not a transient failure.
var ErrNotFound = errors.New("episode not found")

// fileShape is the on-disk layout: all records under a single collection
// field.
type fileShape struct {
	Videos []Episode `json:"videos"`
}

// Catalog is an in-memory index over the catalog file. All accessors are
// safe for concurrent use; Reload swaps the index under the write lock.
type Catalog struct {
	mu       sync.RWMutex
	path     string
	episodes []Episode
	byKey    map[string]int

	watcher *fsnotify.Watcher
	logger  *slog.Logger
}

// Load reads and indexes the catalog file at path.
func Load(path string, logger *slog.Logger) (*Catalog, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Catalog{path: path, logger: logger}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload re-reads the catalog file and replaces the index. On failure the
// previous index stays in place.
func (c *Catalog) Reload() error {
	raw, err := os.ReadFile(c.path)
	if err != nil {
		return fmt.Errorf("failed to read catalog: %w", err)
	}

	var shape fileShape
	if err := json.Unmarshal(raw, &shape); err != nil {
		return fmt.Errorf("failed to parse catalog: %w", err)
	}

	episodes := make([]Episode, len(shape.Videos))
	byKey := make(map[string]int, len(shape.Videos))
	for i, ep := range shape.Videos {
		ep.ShowSlug = Slugify(ep.Show)
		key := ep.SessionKey()
		if prev, dup := byKey[key]; dup {
			return fmt.Errorf("duplicate episode %q (entries %d and %d)", key, prev, i)
		}
		byKey[key] = i
		episodes[i] = ep
	}

	c.mu.Lock()
	c.episodes = episodes
	c.byKey = byKey
	c.mu.Unlock()

	c.logger.Debug("catalog loaded", "path", c.path, "episodes", len(episodes))
	return nil
}

// All returns the episodes in catalog order.
func (c *Catalog) All() []Episode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Episode, len(c.episodes))
	copy(out, c.episodes)
	return out
}

// Len returns the number of catalog entries.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.episodes)
}

// Get looks up an episode by (showSlug, episode number).
func (c *Catalog) Get(showSlug string, episode int) (Episode, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.byKey[SessionKey(showSlug, episode)]
	if !ok {
		return Episode{}, fmt.Errorf("%w: %s:%d", ErrNotFound, showSlug, episode)
	}
	return c.episodes[i], nil
}

// Neighbors returns the previous and next episodes of the same show,
// ordered by episode number. Either may be nil at the boundaries, or both
// when the episode itself is unknown.
func (c *Catalog) Neighbors(showSlug string, episode int) (prev, next *Episode) {
	same := c.Show(showSlug)
	idx := -1
	for i := range same {
		if same[i].Number == episode {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, nil
	}
	if idx > 0 {
		p := same[idx-1]
		prev = &p
	}
	if idx < len(same)-1 {
		n := same[idx+1]
		next = &n
	}
	return prev, next
}

// Show returns all episodes of one show sorted by episode number.
func (c *Catalog) Show(showSlug string) []Episode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var same []Episode
	for _, ep := range c.episodes {
		if ep.ShowSlug == showSlug {
			same = append(same, ep)
		}
	}
	sort.Slice(same, func(i, j int) bool { return same[i].Number < same[j].Number })
	return same
}

// Genres returns the sorted set of genres across the catalog.
func (c *Catalog) Genres() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	seen := make(map[string]struct{})
	for _, ep := range c.episodes {
		for _, g := range ep.Genres {
			seen[g] = struct{}{}
		}
	}
	genres := make([]string, 0, len(seen))
	for g := range seen {
		genres = append(genres, g)
	}
	sort.Strings(genres)
	return genres
}

// Filter narrows the catalog by free-text query and exact genre. An empty
// query or genre means "no constraint". Results keep catalog order for
// substring hits; fuzzy hits are appended in match-score order.
func (c *Catalog) Filter(query, genre string) []Episode {
	episodes := c.All()

	if genre != "" {
		kept := episodes[:0]
		for _, ep := range episodes {
			for _, g := range ep.Genres {
				if g == genre {
					kept = append(kept, ep)
					break
				}
			}
		}
		episodes = kept
	}

	query = strings.TrimSpace(strings.ToLower(query))
	if query == "" {
		return episodes
	}

	var out []Episode
	matched := make(map[int]struct{})
	for i, ep := range episodes {
		for _, field := range []string{ep.Show, ep.Title, ep.Synopsis, ep.Description} {
			if field != "" && strings.Contains(strings.ToLower(field), query) {
				out = append(out, ep)
				matched[i] = struct{}{}
				break
			}
		}
	}

	// Fuzzy pass over show+title catches typos the substring pass misses.
	haystack := make([]string, len(episodes))
	for i, ep := range episodes {
		haystack[i] = ep.Show + " " + ep.Title
	}
	for _, m := range fuzzy.Find(query, haystack) {
		if _, dup := matched[m.Index]; !dup {
			out = append(out, episodes[m.Index])
			matched[m.Index] = struct{}{}
		}
	}
	return out
}

// Watch starts a filesystem watch on the catalog file and reloads it on
// change. Call Close to stop the watch.
func (c *Catalog) Watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create catalog watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(c.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch catalog directory: %w", err)
	}
	c.watcher = watcher

	go func() {
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != filepath.Clean(c.path) {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
					continue
				}
				if err := c.Reload(); err != nil {
					c.logger.Warn("catalog reload failed", "error", err)
				} else {
					c.logger.Info("catalog reloaded", "path", c.path)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				c.logger.Warn("catalog watcher error", "error", err)
			}
		}
	}()
	return nil
}

// Close stops the filesystem watch, if any.
func (c *Catalog) Close() error {
	if c.watcher == nil {
		return nil
	}
	return c.watcher.Close()
}
