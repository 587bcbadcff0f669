package tui

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/vovakirdan/merge5/internal/core"
	"github.com/vovakirdan/merge5/internal/registry"
	"github.com/vovakirdan/merge5/internal/storage"
)

// statusTicks is how long a status line stays on screen.
const statusTicks = 120

// Options configures a game model.
type Options struct {
	Player string
	Logger *log.Logger
	// Renderer styles the screen; nil uses the local terminal.
	Renderer *ScreenRenderer
	// ScreenshotDir receives ctrl+s dumps. Empty means ~/.merge5/screenshots.
	ScreenshotDir string
	// Embedded models return to a menu on back instead of ignoring it.
	Embedded bool
}

// Model is the Bubble Tea model for one running game.
type Model struct {
	game       registry.Game
	screen     *core.Screen
	store      *storage.Store
	config     core.RuntimeConfig
	opts       Options
	keys       *KeyMapper
	tickID     int64
	inputFrame core.InputFrame
	gameState  core.GameState
	highScore  int
	status     string
	statusLeft int
	quitting   bool
	backToMenu bool
	scoreSaved bool
}

// NewModel creates a model for the given game.
func NewModel(game registry.Game, store *storage.Store, cfg core.RuntimeConfig, opts Options) Model {
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	if cfg.TickRate <= 0 {
		cfg.TickRate = core.DefaultConfig().TickRate
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Renderer == nil {
		opts.Renderer = defaultRenderer()
	}
	if cfg.Player == "" {
		cfg.Player = opts.Player
	}

	m := Model{
		game:       game,
		screen:     core.NewScreen(cfg.ScreenW, cfg.ScreenH),
		store:      store,
		config:     cfg,
		opts:       opts,
		keys:       NewKeyMapper(),
		tickID:     nextTickID(),
		inputFrame: core.NewInputFrame(),
	}
	m.game.Reset(m.config)
	m.gameState = m.game.State()
	m.highScore = m.loadHighScore()
	return m
}

// Init starts the tick loop.
func (m Model) Init() tea.Cmd {
	return tickCmd(m.config.TickRate, m.tickID)
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		return m.handleResize(msg)
	case TickMsg:
		if msg.ID != m.tickID {
			return m, nil
		}
		return m.handleTick()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Keys().Screenshot) {
		m.saveScreenshot()
		return m, nil
	}

	switch action := m.keys.MapKey(msg); action {
	case core.ActionNone:
	case core.ActionQuit:
		m.saveScore()
		m.quitting = true
		return m, tea.Quit
	case core.ActionBack:
		if m.opts.Embedded {
			m.saveScore()
			m.backToMenu = true
		}
	case core.ActionRestart:
		m.restart()
	default:
		m.inputFrame.Set(action)
	}
	return m, nil
}

// restart saves the current result and starts a fresh board.
func (m *Model) restart() {
	m.saveScore()
	m.config.Seed = time.Now().UnixNano()
	m.game.Reset(m.config)
	m.gameState = m.game.State()
	m.scoreSaved = false
	m.inputFrame.Clear()
}

// handleResize keeps the board when the game supports resizing.
func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.config.ScreenW = msg.Width
	m.config.ScreenH = msg.Height
	m.screen.Resize(msg.Width, msg.Height)

	if r, ok := m.game.(registry.Resizer); ok {
		r.Resize(msg.Width, msg.Height)
	} else {
		m.game.Reset(m.config)
	}
	return m, nil
}

func (m Model) handleTick() (tea.Model, tea.Cmd) {
	if m.backToMenu || m.quitting {
		return m, nil
	}

	result := m.game.Step(m.inputFrame)
	m.gameState = result.State
	m.inputFrame.Clear()

	// A locked board can never change again.
	if m.gameState.Locked {
		m.saveScore()
	}
	if m.statusLeft > 0 {
		m.statusLeft--
	}

	return m, tickCmd(m.config.TickRate, m.tickID)
}

// saveScore records the current result once per game. Failures are logged.
func (m *Model) saveScore() {
	if m.scoreSaved || m.gameState.Score <= 0 {
		return
	}
	m.scoreSaved = true
	if m.store == nil {
		return
	}

	rec := storage.ScoreRecord{
		GameID:  m.game.ID(),
		Player:  m.config.Player,
		Score:   m.gameState.Score,
		MaxTile: m.gameState.MaxTile,
		Moves:   m.gameState.Moves,
	}
	if _, err := m.store.SaveScore(rec); err != nil {
		m.opts.Logger.Warn("could not save score", "game", rec.GameID, "error", err)
		return
	}
	m.opts.Logger.Info("score saved", "game", rec.GameID, "score", rec.Score, "max_tile", rec.MaxTile)
	m.highScore = max(m.highScore, rec.Score)
}

func (m Model) loadHighScore() int {
	if m.store == nil {
		return 0
	}
	high, err := m.store.HighScore(m.game.ID())
	if err != nil {
		m.opts.Logger.Warn("could not load high score", "error", err)
		return 0
	}
	return high
}

// saveScreenshot writes the current screen as plain text.
func (m *Model) saveScreenshot() {
	m.game.Render(m.screen)

	dir := m.opts.ScreenshotDir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			m.setStatus("Screenshot failed: no home directory")
			return
		}
		dir = filepath.Join(home, ".merge5", "screenshots")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		m.setStatus("Screenshot failed")
		m.opts.Logger.Warn("could not create screenshot dir", "error", err)
		return
	}

	name := fmt.Sprintf("%s_%s.txt", m.game.ID(), time.Now().Format("20060102_150405"))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(m.screen.String()+"\n"), 0o600); err != nil {
		m.setStatus("Screenshot failed")
		m.opts.Logger.Warn("could not write screenshot", "error", err)
		return
	}
	m.setStatus("Saved " + path)
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.statusLeft = statusTicks
}

// View renders the game plus the high score and status lines.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	m.game.Render(m.screen)
	if m.highScore > 0 {
		text := fmt.Sprintf("High: %d", max(m.highScore, m.gameState.Score))
		m.screen.DrawTextColored(m.screen.Width()-len(text)-1, 0, text, core.ColorYellow)
	}
	if m.statusLeft > 0 && m.status != "" {
		m.screen.DrawTextColored(1, m.screen.Height()-1, m.status, core.ColorGreen)
	} else if !m.gameState.Paused {
		hint := m.keys.Keys().Hint(m.screen.Width() - 2)
		m.screen.DrawTextCentered(m.screen.Height()-1, hint, core.ColorGray)
	}
	return m.opts.Renderer.Render(m.screen)
}

// State returns the last stepped game state.
func (m Model) State() core.GameState {
	return m.gameState
}

// IsQuitting returns true if the user asked to quit entirely.
func (m Model) IsQuitting() bool {
	return m.quitting
}

// BackToMenu returns true if the user asked to go back to the menu.
func (m Model) BackToMenu() bool {
	return m.backToMenu
}

// Run starts a standalone Bubble Tea program for one game.
func Run(game registry.Game, store *storage.Store, cfg core.RuntimeConfig, opts Options) error {
	p := tea.NewProgram(
		NewModel(game, store, cfg, opts),
		tea.WithAltScreen(),
	)
	_, err := p.Run()
	return err
}
