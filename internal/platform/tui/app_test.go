package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func updateApp(t *testing.T, a App, msg tea.Msg) (App, tea.Cmd) {
	t.Helper()
	next, cmd := a.Update(msg)
	aa, ok := next.(App)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return aa, cmd
}

func newTestApp(t *testing.T) App {
	t.Helper()
	return NewApp(openStore(t), testConfig(), Options{Renderer: plainRenderer()})
}

func TestAppMenuToGameAndBack(t *testing.T) {
	a := newTestApp(t)
	if !strings.Contains(a.View(), "Merge 5x5") {
		t.Fatalf("menu missing variants:\n%s", a.View())
	}

	a, cmd := updateApp(t, a, tea.KeyMsg{Type: tea.KeyEnter})
	if a.current != screenGame || a.game == nil {
		t.Fatal("enter should start a game")
	}
	if cmd == nil {
		t.Error("starting a game should schedule a tick")
	}
	if a.lastGame != "merge5" {
		t.Errorf("started %q, want the first variant", a.lastGame)
	}

	a, _ = updateApp(t, a, tea.KeyMsg{Type: tea.KeyEsc})
	if a.current != screenMenu || a.game != nil {
		t.Error("esc should return to the menu")
	}
}

func TestAppScoreboard(t *testing.T) {
	a := newTestApp(t)

	a, _ = updateApp(t, a, tea.KeyMsg{Type: tea.KeyTab})
	if a.current != screenScores {
		t.Fatal("tab should open the scoreboard")
	}
	if !strings.Contains(a.View(), "HIGH SCORES") {
		t.Errorf("scoreboard view:\n%s", a.View())
	}

	a, cmd := updateApp(t, a, tea.KeyMsg{Type: tea.KeyEsc})
	if a.current != screenMenu {
		t.Error("esc should return to the menu")
	}
	if cmd != nil {
		t.Error("back from an embedded scoreboard must not quit")
	}
}

func TestAppQuit(t *testing.T) {
	a := newTestApp(t)
	a, cmd := updateApp(t, a, runeKey('q'))
	if cmd == nil || !a.quitting {
		t.Error("q should quit from the menu")
	}
	if a.View() != "" {
		t.Error("quitting app should render nothing")
	}
}

func TestAppTracksResize(t *testing.T) {
	a := newTestApp(t)
	a, _ = updateApp(t, a, tea.WindowSizeMsg{Width: 120, Height: 40})
	a, _ = updateApp(t, a, tea.KeyMsg{Type: tea.KeyDown})
	a, _ = updateApp(t, a, tea.KeyMsg{Type: tea.KeyEnter})

	if a.lastGame != "merge5_instant" {
		t.Errorf("started %q, want merge5_instant", a.lastGame)
	}
	if a.game.screen.Width() != 120 || a.game.screen.Height() != 40 {
		t.Errorf("game screen = %dx%d, want 120x40", a.game.screen.Width(), a.game.screen.Height())
	}
}
