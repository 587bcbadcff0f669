package mcp

import (
	"fmt"
	"strings"

	"github.com/vovakirdan/merge5/internal/games/merge5"
	"github.com/vovakirdan/merge5/internal/session"
)

// FormatState renders a snapshot as plain text for agents.
func FormatState(snap merge5.Snapshot) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Score: %d  Moves: %d  Max tile: %d\n", snap.Score, snap.Moves, snap.MaxTile)
	if snap.Phase == merge5.PhaseAwaitingSpawn {
		sb.WriteString("A new tile is about to appear.\n")
	}
	sb.WriteByte('\n')
	for _, row := range snap.Grid {
		for c, v := range row {
			if c > 0 {
				sb.WriteByte(' ')
			}
			if v == 0 {
				fmt.Fprintf(&sb, "%5s", ".")
			} else {
				fmt.Fprintf(&sb, "%5d", v)
			}
		}
		sb.WriteByte('\n')
	}
	if snap.Locked {
		sb.WriteString("\nNo moves left.\n")
	}
	return sb.String()
}

// FormatMove describes the outcome of a move.
func FormatMove(dir merge5.Direction, res session.MoveResult) string {
	var head string
	switch {
	case !res.Changed:
		head = fmt.Sprintf("Moved %s: nothing changed.", dir)
	case res.Gained > 0:
		head = fmt.Sprintf("Moved %s: +%d points.", dir, res.Gained)
	default:
		head = fmt.Sprintf("Moved %s.", dir)
	}
	return head + "\n\n" + FormatState(res.Snapshot)
}
