package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/wibustream/anistream/internal/catalog"
	"github.com/wibustream/anistream/internal/progress"
	"github.com/wibustream/anistream/internal/tui/styles"
)

// browseModel is the catalog browser: a filterable episode list with
// genre cycling and resume hints.
type browseModel struct {
	catalog  *catalog.Catalog
	progress *progress.Store

	input    textinput.Model
	active   bool // input focused
	genres   []string
	genreIdx int // 0 = all, otherwise genres[genreIdx-1]

	items  []catalog.Episode
	cursor int

	width  int
	height int
}

func newBrowseModel(cat *catalog.Catalog, prog *progress.Store) browseModel {
	input := textinput.New()
	input.Placeholder = "search titles"
	input.CharLimit = 80
	input.Width = 40

	m := browseModel{
		catalog:  cat,
		progress: prog,
		input:    input,
		genres:   cat.Genres(),
	}
	m.refresh()
	return m
}

func (m *browseModel) refresh() {
	m.genres = m.catalog.Genres()
	m.items = m.catalog.Filter(m.input.Value(), m.genre())
	if m.cursor >= len(m.items) {
		m.cursor = 0
	}
}

func (m browseModel) genre() string {
	if m.genreIdx == 0 || m.genreIdx > len(m.genres) {
		return ""
	}
	return m.genres[m.genreIdx-1]
}

func (m browseModel) selected() (catalog.Episode, bool) {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return catalog.Episode{}, false
	}
	return m.items[m.cursor], true
}

func (m browseModel) searching() bool { return m.active }

func (m *browseModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

func (m browseModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m browseModel) Update(msg tea.Msg) (browseModel, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	if m.active {
		switch key.String() {
		case "enter", "esc":
			m.active = false
			m.input.Blur()
			return m, nil
		default:
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			m.refresh()
			return m, cmd
		}
	}

	switch key.String() {
	case "/":
		m.active = true
		return m, m.input.Focus()
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case "g":
		m.genreIdx = (m.genreIdx + 1) % (len(m.genres) + 1)
		m.refresh()
	case "G":
		m.genreIdx = 0
		m.refresh()
	case "esc":
		if m.input.Value() != "" {
			m.input.SetValue("")
			m.refresh()
		}
	}
	return m, nil
}

func (m browseModel) View() string {
	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render("anistream"))
	b.WriteString("  ")
	if m.active || m.input.Value() != "" {
		b.WriteString(m.input.View())
	} else {
		b.WriteString(styles.DimStyle.Render("press / to search"))
	}
	if g := m.genre(); g != "" {
		b.WriteString("  " + styles.SubtitleStyle.Render("["+g+"]"))
	}
	b.WriteString("\n\n")

	if len(m.items) == 0 {
		b.WriteString(styles.DimStyle.Render("  nothing matched"))
		b.WriteString("\n")
	}

	visible := m.height - 8
	if visible < 5 {
		visible = 5
	}
	start := 0
	if m.cursor >= visible {
		start = m.cursor - visible + 1
	}
	end := start + visible
	if end > len(m.items) {
		end = len(m.items)
	}

	for i := start; i < end; i++ {
		ep := m.items[i]
		line := ep.DisplayTitle()
		if hint := m.resumeHint(ep); hint != "" {
			line += "  " + styles.ResumeStyle.Render(hint)
		}
		if i == m.cursor {
			b.WriteString(styles.SelectedItemStyle.Render("> " + line))
		} else {
			b.WriteString(styles.NormalItemStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(styles.HelpStyle.Render("enter play · / search · g genre · j/k move · q quit"))
	return b.String()
}

func (m browseModel) resumeHint(ep catalog.Episode) string {
	rec := m.progress.Load(ep.SessionKey())
	if rec == nil || rec.Position <= 0 {
		return ""
	}
	if rec.Duration > 0 {
		pct := rec.Position * 100 / rec.Duration
		return fmt.Sprintf("%d%% · %s", pct, humanize.Time(time.UnixMilli(rec.CapturedAt)))
	}
	return humanize.Time(time.UnixMilli(rec.CapturedAt))
}
