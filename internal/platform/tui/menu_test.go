package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/merge5/internal/storage"
)

func TestMenuShowsTotals(t *testing.T) {
	store := openStore(t)
	if _, err := store.SaveScore(storage.ScoreRecord{GameID: "merge5", Score: 500, MaxTile: 64, Moves: 90}); err != nil {
		t.Fatalf("SaveScore() failed: %v", err)
	}

	m := NewMenuModel(store, 100, 30)
	view := m.View()
	if !strings.Contains(view, "best 500 · tile 64 · 1 played") {
		t.Errorf("missing totals:\n%s", view)
	}
	if !strings.Contains(view, "new") {
		t.Errorf("unplayed variant should be marked new:\n%s", view)
	}
}

func TestMenuNavigation(t *testing.T) {
	m := NewMenuModel(nil, 80, 24)

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m = next.(MenuModel)
	if m.cursor != 0 {
		t.Errorf("cursor moved above the top: %d", m.cursor)
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = next.(MenuModel)
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(MenuModel)
	if sel := m.Selected(); sel == nil || sel.GameID != "merge5_instant" {
		t.Errorf("selected = %+v", sel)
	}

	next, cmd := m.Update(runeKey('q'))
	m = next.(MenuModel)
	if !m.IsQuitting() || cmd == nil {
		t.Error("q should quit")
	}
	if m.View() != "" {
		t.Error("quitting menu should render nothing")
	}
}
