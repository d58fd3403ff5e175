// Package tui is the terminal front end: a catalog browser and a watch
// view driving playback sessions through the external player.
package tui

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wibustream/anistream/internal/catalog"
	"github.com/wibustream/anistream/internal/config"
	"github.com/wibustream/anistream/internal/player"
	"github.com/wibustream/anistream/internal/progress"
	"github.com/wibustream/anistream/internal/session"
	"github.com/wibustream/anistream/internal/tui/styles"
)

type sessionState int

const (
	browseView sessionState = iota
	launchingView
	watchView
	errorView
)

// Deps are the collaborators the TUI needs.
type Deps struct {
	Catalog  *catalog.Catalog
	Progress *progress.Store
	Playback config.PlaybackConfig
	Logger   *slog.Logger

	// NewSurface builds a fresh media surface per session.
	NewSurface func() (player.Surface, error)
	// Engines resolves the adaptive engine for a stream URL.
	Engines player.EngineFactory
}

// Messages from background goroutines and session callbacks.
type (
	sessionReadyMsg struct {
		ctl     *session.Controller
		surface player.Surface
		episode catalog.Episode
	}
	sessionFailedMsg struct{ err error }
	levelsMsg        struct{ levels []player.Level }
	countdownMsg     struct {
		remaining int
		visible   bool
	}
	navigateMsg struct{ key string }
	tickMsg     struct{}
)

// App is the top-level bubbletea model.
type App struct {
	state  sessionState
	deps   Deps
	logger *slog.Logger

	width  int
	height int

	browse  browseModel
	watch   watchModel
	spinner spinner.Model
	err     error

	// msgChan carries messages from session callbacks into the UI loop.
	msgChan chan tea.Msg

	ctx    context.Context
	cancel context.CancelFunc
}

// New builds the TUI app.
func New(deps Deps) *App {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(styles.Accent)

	ctx, cancel := context.WithCancel(context.Background())
	return &App{
		state:   browseView,
		deps:    deps,
		logger:  logger,
		browse:  newBrowseModel(deps.Catalog, deps.Progress),
		spinner: sp,
		msgChan: make(chan tea.Msg, 16),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Run starts the program and blocks until it exits.
func (a *App) Run() error {
	defer a.cancel()
	p := tea.NewProgram(a, tea.WithAltScreen())
	_, err := p.Run()
	a.teardownSession()
	return err
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.browse.Init(),
		a.spinner.Tick,
		a.listenForMessages(),
	)
}

// listenForMessages pipes one background message into the UI loop; it is
// re-queued after every delivery.
func (a *App) listenForMessages() tea.Cmd {
	return func() tea.Msg {
		return <-a.msgChan
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.browse.setSize(msg.Width, msg.Height)
		a.watch.setSize(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			a.teardownSession()
			return a, tea.Quit
		}

	case sessionReadyMsg:
		a.watch = newWatchModel(msg.ctl, msg.surface, msg.episode, a.deps.Playback.Countdown())
		a.watch.setSize(a.width, a.height)
		a.state = watchView
		return a, tea.Batch(a.watch.Init(), a.listenForMessages())

	case sessionFailedMsg:
		a.err = msg.err
		a.state = errorView
		return a, a.listenForMessages()

	case levelsMsg:
		a.watch.levels = msg.levels
		return a, a.listenForMessages()

	case countdownMsg:
		a.watch.countdownVisible = msg.visible
		a.watch.countdownLeft = msg.remaining
		return a, a.listenForMessages()

	case navigateMsg:
		a.teardownSession()
		ep, err := a.episodeForKey(msg.key)
		if err != nil {
			a.err = err
			a.state = errorView
			return a, a.listenForMessages()
		}
		a.state = launchingView
		return a, tea.Batch(a.startSession(ep), a.listenForMessages())
	}

	switch a.state {
	case browseView:
		wasSearching := a.browse.searching()
		var cmd tea.Cmd
		a.browse, cmd = a.browse.Update(msg)
		cmds = append(cmds, cmd)
		if key, ok := msg.(tea.KeyMsg); ok && !wasSearching {
			switch key.String() {
			case "enter":
				if ep, ok := a.browse.selected(); ok {
					a.state = launchingView
					cmds = append(cmds, a.startSession(ep))
				}
			case "q":
				return a, tea.Quit
			}
		}

	case launchingView:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case watchView:
		var cmd tea.Cmd
		var done bool
		a.watch, cmd, done = a.watch.Update(a.ctx, msg)
		cmds = append(cmds, cmd)
		if done {
			a.teardownSession()
			a.browse.refresh()
			a.state = browseView
		}

	case errorView:
		if _, ok := msg.(tea.KeyMsg); ok {
			a.err = nil
			a.state = browseView
		}
	}

	return a, tea.Batch(cmds...)
}

func (a *App) View() string {
	var body string
	switch a.state {
	case browseView:
		body = a.browse.View()
	case launchingView:
		body = fmt.Sprintf("\n %s starting playback…\n", a.spinner.View())
	case watchView:
		body = a.watch.View()
	case errorView:
		body = styles.ErrorStyle.Render("error: "+a.err.Error()) + "\n\n" +
			styles.HelpStyle.Render("press any key to go back")
	}
	return styles.AppStyle.Render(body)
}

// startSession spins up the player and controller off the UI goroutine.
func (a *App) startSession(ep catalog.Episode) tea.Cmd {
	return func() tea.Msg {
		surface, err := a.deps.NewSurface()
		if err != nil {
			return sessionFailedMsg{err: err}
		}

		prevKey, nextKey, nextTitle := a.neighborKeys(ep)
		opts := session.Options{
			AutoPlay:  true,
			AutoNext:  a.deps.Playback.AutoNext,
			NextRef:   nextKey,
			NextTitle: nextTitle,
			PrevRef:   prevKey,
			SaveEvery: a.deps.Playback.SaveEvery(),
			Countdown: a.deps.Playback.Countdown(),
			OnLevels: func(levels []player.Level) {
				a.msgChan <- levelsMsg{levels: levels}
			},
			OnCountdown: func(remaining int, visible bool) {
				a.msgChan <- countdownMsg{remaining: remaining, visible: visible}
			},
		}
		nav := session.NavigatorFunc(func(ref string) {
			a.msgChan <- navigateMsg{key: ref}
		})

		ctl := session.NewController(ep, surface, a.deps.Engines, a.deps.Progress, nav, opts, a.logger)
		if err := ctl.Start(a.ctx); err != nil {
			ctl.Stop()
			_ = surface.Close()
			return sessionFailedMsg{err: err}
		}
		return sessionReadyMsg{ctl: ctl, surface: surface, episode: ep}
	}
}

func (a *App) teardownSession() {
	if a.watch.ctl != nil {
		a.watch.ctl.Stop()
		a.watch.ctl = nil
	}
	if a.watch.surface != nil {
		if err := a.watch.surface.Close(); err != nil {
			a.logger.Debug("failed to close surface", "error", err)
		}
		a.watch.surface = nil
	}
}

// neighborKeys derives session-key navigation refs for the episode.
func (a *App) neighborKeys(ep catalog.Episode) (prevKey, nextKey, nextTitle string) {
	prev, next := a.deps.Catalog.Neighbors(ep.ShowSlug, ep.Number)
	if prev != nil {
		prevKey = prev.SessionKey()
	}
	if next != nil {
		nextKey = next.SessionKey()
		nextTitle = next.DisplayTitle()
	}
	return prevKey, nextKey, nextTitle
}

func (a *App) episodeForKey(key string) (catalog.Episode, error) {
	slug, num, err := catalog.ParseSessionKey(key)
	if err != nil {
		return catalog.Episode{}, err
	}
	return a.deps.Catalog.Get(slug, num)
}
