// Package tui provides the Bubble Tea integration: the game model, the
// menu-driven app, the scoreboard and the Wish SSH server.
package tui

import (
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// TickMsg is sent to trigger a game simulation tick. ID ties it to the
// model that scheduled it, so a stale tick cannot start a second loop.
type TickMsg struct {
	ID   int64
	Time time.Time
}

var lastTickID atomic.Int64

func nextTickID() int64 {
	return lastTickID.Add(1)
}

// tickCmd returns a command that sends one tick after 1/tickRate seconds.
func tickCmd(tickRate int, id int64) tea.Cmd {
	interval := time.Second / time.Duration(tickRate)
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg{ID: id, Time: t}
	})
}
