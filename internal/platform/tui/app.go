package tui

import (
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/vovakirdan/merge5/internal/core"
	"github.com/vovakirdan/merge5/internal/registry"
	"github.com/vovakirdan/merge5/internal/storage"
)

type appScreen int

const (
	screenMenu appScreen = iota
	screenGame
	screenScores
)

// App is the top-level model: menu, then a game or the scoreboard, then
// back to the menu. Local `menu` and every SSH session run one.
type App struct {
	store    *storage.Store
	config   core.RuntimeConfig
	opts     Options
	current  appScreen
	menu     MenuModel
	game     *Model
	scores   ScoreboardModel
	lastGame string
	quitting bool
}

// NewApp creates the menu-driven app.
func NewApp(store *storage.Store, cfg core.RuntimeConfig, opts Options) App {
	opts.Embedded = true
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	return App{
		store:  store,
		config: cfg,
		opts:   opts,
		menu:   NewMenuModel(store, cfg.ScreenW, cfg.ScreenH),
	}
}

// Init initializes the app.
func (a App) Init() tea.Cmd {
	return a.menu.Init()
}

// Update routes messages to the active screen.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if wsm, ok := msg.(tea.WindowSizeMsg); ok {
		a.config.ScreenW = wsm.Width
		a.config.ScreenH = wsm.Height
	}

	switch a.current {
	case screenGame:
		return a.updateGame(msg)
	case screenScores:
		return a.updateScores(msg)
	default:
		return a.updateMenu(msg)
	}
}

func (a App) updateMenu(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := a.menu.Update(msg)
	if mm, ok := next.(MenuModel); ok {
		a.menu = mm
	}

	switch {
	case a.menu.IsQuitting():
		a.quitting = true
		return a, tea.Quit

	case a.menu.WantsScoreboard():
		a.scores = NewScoreboardModel(a.store, a.lastGame, a.config.ScreenW, a.config.ScreenH)
		a.scores.embedded = true
		a.current = screenScores
		return a, a.scores.Init()

	case a.menu.Selected() != nil:
		id := a.menu.Selected().GameID
		game, err := registry.Create(id)
		if err != nil {
			a.opts.Logger.Error("could not create game", "game", id, "error", err)
			a.menu = NewMenuModel(a.store, a.config.ScreenW, a.config.ScreenH)
			return a, nil
		}
		a.config.Seed = time.Now().UnixNano()
		gm := NewModel(game, a.store, a.config, a.opts)
		a.game = &gm
		a.lastGame = id
		a.current = screenGame
		a.opts.Logger.Debug("game started", "game", id, "player", a.config.Player)
		return a, a.game.Init()
	}
	return a, cmd
}

func (a App) updateGame(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := a.game.Update(msg)
	if gm, ok := next.(Model); ok {
		a.game = &gm
	}

	if a.game.IsQuitting() {
		a.quitting = true
		return a, tea.Quit
	}
	if a.game.BackToMenu() {
		a.toMenu()
		return a, nil
	}
	return a, cmd
}

func (a App) updateScores(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := a.scores.Update(msg)
	if sm, ok := next.(ScoreboardModel); ok {
		a.scores = sm
	}

	if a.scores.IsQuitting() {
		a.quitting = true
		return a, tea.Quit
	}
	if a.scores.IsGoingBack() {
		a.toMenu()
		return a, nil
	}
	return a, cmd
}

// toMenu rebuilds the menu so high scores are fresh.
func (a *App) toMenu() {
	a.game = nil
	a.current = screenMenu
	a.menu = NewMenuModel(a.store, a.config.ScreenW, a.config.ScreenH)
}

// View renders the active screen.
func (a App) View() string {
	if a.quitting {
		return ""
	}
	switch a.current {
	case screenGame:
		return a.game.View()
	case screenScores:
		return a.scores.View()
	default:
		return a.menu.View()
	}
}

// RunApp starts the menu-driven app in the local terminal.
func RunApp(store *storage.Store, cfg core.RuntimeConfig, opts Options) error {
	p := tea.NewProgram(NewApp(store, cfg, opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
