package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/wibustream/anistream/internal/catalog"
	"github.com/wibustream/anistream/internal/player"
	"github.com/wibustream/anistream/internal/session"
	"github.com/wibustream/anistream/internal/tui/styles"
)

// watchModel renders the active playback session: position bar, quality
// selector and the auto-advance overlay.
type watchModel struct {
	ctl     *session.Controller
	surface player.Surface
	episode catalog.Episode

	bar    progress.Model
	levels []player.Level

	countdownVisible bool
	countdownLeft    int
	countdown        time.Duration

	width  int
	height int
}

func newWatchModel(ctl *session.Controller, surface player.Surface, ep catalog.Episode, countdown time.Duration) watchModel {
	bar := progress.New(progress.WithGradient("#6366f1", "#818cf8"))
	bar.ShowPercentage = false
	return watchModel{
		ctl:       ctl,
		surface:   surface,
		episode:   ep,
		bar:       bar,
		countdown: countdown,
	}
}

func (m *watchModel) setSize(w, h int) {
	m.width = w
	m.height = h
	if w > 10 {
		m.bar.Width = w - 10
	}
}

func watchTick() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

func (m watchModel) Init() tea.Cmd {
	return watchTick()
}

// Update handles watch-view messages. done reports that the user left the
// session.
func (m watchModel) Update(ctx context.Context, msg tea.Msg) (watchModel, tea.Cmd, bool) {
	switch msg := msg.(type) {
	case tickMsg:
		return m, watchTick(), false

	case tea.KeyMsg:
		if m.ctl == nil {
			return m, nil, true
		}
		switch msg.String() {
		case "q", "esc":
			return m, nil, true
		case "c":
			m.ctl.CancelAutoNext()
			m.countdownVisible = false
			return m, nil, false
		case "n":
			m.ctl.WatchNext()
			return m, nil, false
		case "up":
			return m.cycleLevel(ctx, 1), nil, false
		case "down":
			return m.cycleLevel(ctx, -1), nil, false
		default:
			m.ctl.HandleKey(ctx, msg.String())
			return m, nil, false
		}
	}
	return m, nil, false
}

// cycleLevel steps the quality selection through auto plus each level.
func (m watchModel) cycleLevel(ctx context.Context, dir int) watchModel {
	if m.ctl == nil || len(m.levels) == 0 {
		return m
	}
	cur := m.ctl.SelectedLevel()
	next := cur + dir
	if next >= len(m.levels) {
		next = player.LevelAuto
	}
	if next < player.LevelAuto {
		next = len(m.levels) - 1
	}
	_ = m.ctl.SelectLevel(ctx, next)
	return m
}

func (m watchModel) View() string {
	if m.ctl == nil {
		return ""
	}
	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render(m.episode.Show))
	b.WriteString(" ")
	b.WriteString(styles.SubtitleStyle.Render(m.episode.DisplayTitle()))
	b.WriteString("\n\n")

	pos, dur := m.ctl.Progress()
	if dur > 0 {
		b.WriteString(m.bar.ViewAs(pos / dur))
		b.WriteString("\n")
	}
	b.WriteString(styles.DimStyle.Render(fmt.Sprintf("%s / %s", clock(pos), clock(dur))))
	b.WriteString("\n\n")

	if len(m.levels) > 0 {
		b.WriteString(styles.DimStyle.Render("quality: "))
		sel := m.ctl.SelectedLevel()
		if sel == player.LevelAuto {
			b.WriteString(styles.SelectedItemStyle.Render("Auto"))
		} else {
			b.WriteString(styles.DimStyle.Render("Auto"))
		}
		for _, lvl := range m.levels {
			b.WriteString(" · ")
			if lvl.Index == sel {
				b.WriteString(styles.SelectedItemStyle.Render(lvl.Label()))
			} else {
				b.WriteString(styles.DimStyle.Render(lvl.Label()))
			}
		}
		b.WriteString("\n\n")
	}

	if m.countdownVisible {
		overlay := fmt.Sprintf("up next in %ds\n%s", m.countdownLeft,
			styles.HelpStyle.Render("n watch now · c cancel"))
		b.WriteString(styles.OverlayStyle.Render(overlay))
		b.WriteString("\n\n")
	}

	b.WriteString(styles.HelpStyle.Render("space/k pause · f fullscreen · ↑/↓ quality · q back"))
	return b.String()
}

func clock(seconds float64) string {
	if seconds <= 0 {
		return "0:00"
	}
	total := int(seconds)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
