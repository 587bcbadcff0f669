package merge5

import (
	"fmt"
	"math"
	"strconv"

	"github.com/vovakirdan/merge5/internal/core"
)

const (
	cellWidth  = 7 // Six columns of tile text plus the left border
	cellHeight = 2 // One row of tile text plus the top border
	hudHeight  = 3
)

// TileColor returns the display color of a tile value.
func TileColor(v int) core.Color {
	switch {
	case v <= 0:
		return core.ColorGray
	case v == 2:
		return core.ColorWhite
	case v == 4:
		return core.ColorBrightWhite
	case v == 8:
		return core.ColorYellow
	case v == 16:
		return core.ColorOrange
	case v == 32:
		return core.ColorRed
	case v == 64:
		return core.ColorBrightRed
	case v == 128:
		return core.ColorBrightYellow
	case v == 256:
		return core.ColorGreen
	case v == 512:
		return core.ColorCyan
	case v == 1024:
		return core.ColorBlue
	case v == 2048:
		return core.ColorMagenta
	default:
		return core.ColorBrightMagenta
	}
}

// Render draws the game into dst.
func (g *Game) Render(dst *core.Screen) {
	dst.Clear()

	if g.tooSmall {
		y := g.screenH / 2
		dst.DrawTextCentered(y, "Window too small", core.ColorDefault)
		dst.DrawTextCentered(y+1, fmt.Sprintf("Need at least %dx%d", minScreenW, minScreenH), core.ColorGray)
		return
	}
	if g.engine == nil {
		return
	}

	n := g.rules.Size
	boardW := n*cellWidth + 1
	boardH := n*cellHeight + 1
	board := core.NewRect((g.screenW-boardW)/2, hudHeight+1, boardW, boardH)

	g.renderHUD(dst, board)
	drawGridLines(dst, board, n)
	g.renderTiles(dst, board)
	g.renderOverlay(dst, board)
}

func (g *Game) renderHUD(dst *core.Screen, board core.Rect) {
	dst.DrawTextCentered(0, g.variant.Title, core.ColorBrightWhite)

	dst.DrawText(board.X, 1, fmt.Sprintf("Score: %d", g.engine.Score()))

	info := fmt.Sprintf("Best tile: %d", g.engine.grid.MaxTile())
	dst.DrawText(max(board.Right()-len(info), board.X), 1, info)

	dst.DrawTextCentered(2, fmt.Sprintf("Moves: %d", g.engine.Moves()), core.ColorGray)
}

// drawGridLines draws an n x n table of box-drawing lines filling r.
func drawGridLines(dst *core.Screen, r core.Rect, n int) {
	for row := 0; row <= n; row++ {
		for col := 0; col <= n; col++ {
			x := r.X + col*cellWidth
			y := r.Y + row*cellHeight
			dst.SetColored(x, y, junction(row, col, n), core.ColorGray)

			if col < n {
				for i := 1; i < cellWidth; i++ {
					dst.SetColored(x+i, y, '─', core.ColorGray)
				}
			}
			if row < n {
				for i := 1; i < cellHeight; i++ {
					dst.SetColored(x, y+i, '│', core.ColorGray)
				}
			}
		}
	}
}

func junction(row, col, n int) rune {
	top, bottom := row == 0, row == n
	left, right := col == 0, col == n
	switch {
	case top && left:
		return '┌'
	case top && right:
		return '┐'
	case bottom && left:
		return '└'
	case bottom && right:
		return '┘'
	case top:
		return '┬'
	case bottom:
		return '┴'
	case left:
		return '├'
	case right:
		return '┤'
	default:
		return '┼'
	}
}

func (g *Game) renderTiles(dst *core.Screen, board core.Rect) {
	if g.anim.phase == animSlide {
		t := g.anim.progress()
		for _, m := range g.anim.slides {
			row, col := m.position(t)
			drawTile(dst, board, int(math.Round(row)), int(math.Round(col)), m.Value, TileColor(m.Value))
		}
		return
	}

	for r, line := range g.engine.grid {
		for c, v := range line {
			if v == 0 {
				continue
			}
			color := TileColor(v)
			if g.anim.phase == animPop && g.anim.pop.Cell == (Cell{Row: r, Col: c}) {
				color = core.ColorBrightCyan
			}
			drawTile(dst, board, r, c, v, color)
		}
	}
}

// drawTile centers a value inside its cell. Cells outside the board,
// which a rounded slide position can produce, are skipped.
func drawTile(dst *core.Screen, board core.Rect, row, col, v int, color core.Color) {
	x := board.X + col*cellWidth + 1
	y := board.Y + row*cellHeight + 1
	if !board.Inset(1).Contains(x, y) {
		return
	}
	text := strconv.Itoa(v)
	pad := max((cellWidth-1-len(text))/2, 0)
	dst.DrawTextColored(x+pad, y, text, color)
}

func (g *Game) renderOverlay(dst *core.Screen, board core.Rect) {
	var msg string
	switch {
	case g.paused:
		msg = " PAUSED - P to resume "
	case g.engine.Locked():
		msg = " No moves left - R to restart "
	default:
		return
	}

	box := board.Inset(1).CenterIn(len(msg)+2, 3)
	dst.FillRect(box, ' ', core.ColorDefault)
	dst.DrawBox(box, core.ColorBrightWhite)
	dst.DrawTextColored(box.X+1, box.Y+1, msg, core.ColorBrightWhite)
}
