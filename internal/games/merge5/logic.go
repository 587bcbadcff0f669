package merge5

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidGrid is returned by Grid.Validate.
var ErrInvalidGrid = errors.New("merge5: invalid grid")

// Direction is a move direction.
type Direction int

const (
	DirLeft Direction = iota
	DirRight
	DirUp
	DirDown
)

// Directions lists the four moves in a fixed order.
var Directions = [...]Direction{DirLeft, DirRight, DirUp, DirDown}

// String returns the lowercase direction name.
func (d Direction) String() string {
	switch d {
	case DirLeft:
		return "left"
	case DirRight:
		return "right"
	case DirUp:
		return "up"
	case DirDown:
		return "down"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

// Valid reports whether d is one of the four directions.
func (d Direction) Valid() bool {
	return d >= DirLeft && d <= DirDown
}

// ParseDirection accepts "left", "right", "up", "down" and their first letters.
func ParseDirection(s string) (Direction, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left", "l":
		return DirLeft, true
	case "right", "r":
		return DirRight, true
	case "up", "u":
		return DirUp, true
	case "down", "d":
		return DirDown, true
	}
	return 0, false
}

// Cell is a board coordinate.
type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Grid is a square board, indexed grid[row][col]. Zero is an empty cell.
type Grid [][]int

// NewGrid returns an empty n x n grid.
func NewGrid(n int) Grid {
	g := make(Grid, n)
	for i := range g {
		g[i] = make([]int, n)
	}
	return g
}

// Size returns the board dimension.
func (g Grid) Size() int { return len(g) }

// Clone returns a deep copy.
func (g Grid) Clone() Grid {
	c := make(Grid, len(g))
	for i, row := range g {
		c[i] = append([]int(nil), row...)
	}
	return c
}

// Equal reports whether both grids hold the same values.
func (g Grid) Equal(o Grid) bool {
	if len(g) != len(o) {
		return false
	}
	for i := range g {
		if len(g[i]) != len(o[i]) {
			return false
		}
		for j := range g[i] {
			if g[i][j] != o[i][j] {
				return false
			}
		}
	}
	return true
}

// Sum returns the total of all tile values.
func (g Grid) Sum() int {
	total := 0
	for _, row := range g {
		for _, v := range row {
			total += v
		}
	}
	return total
}

// MaxTile returns the highest tile value.
func (g Grid) MaxTile() int {
	best := 0
	for _, row := range g {
		for _, v := range row {
			best = max(best, v)
		}
	}
	return best
}

// EmptyCells returns the empty cells in reading order.
func (g Grid) EmptyCells() []Cell {
	var cells []Cell
	for r, row := range g {
		for c, v := range row {
			if v == 0 {
				cells = append(cells, Cell{Row: r, Col: c})
			}
		}
	}
	return cells
}

// Validate checks that the grid is square and every tile is 0 or a power of two >= 2.
func (g Grid) Validate() error {
	for r, row := range g {
		if len(row) != len(g) {
			return fmt.Errorf("%w: row %d has %d cells, want %d", ErrInvalidGrid, r, len(row), len(g))
		}
		for c, v := range row {
			if v == 0 {
				continue
			}
			if v < 2 || v&(v-1) != 0 {
				return fmt.Errorf("%w: tile %d at (%d,%d) is not a power of two", ErrInvalidGrid, v, r, c)
			}
		}
	}
	return nil
}

// String renders the grid as right-aligned columns, one row per line.
func (g Grid) String() string {
	var sb strings.Builder
	for _, row := range g {
		for c, v := range row {
			if c > 0 {
				sb.WriteByte(' ')
			}
			fmt.Fprintf(&sb, "%5d", v)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// TileMove records where one tile travelled during a move.
type TileMove struct {
	From   Cell `json:"from"`
	To     Cell `json:"to"`
	Value  int  `json:"value"`  // Value before the move
	Merged bool `json:"merged"` // Tile was one half of a merge
}

// Outcome is the full result of sliding a grid.
type Outcome struct {
	Grid    Grid
	Gained  int
	Changed bool
	Moves   []TileMove
}

// lineCells returns the coordinates of line k in scan order for dir.
// Right and down scan from the far edge, so writing the collapsed values back
// through the same coordinates restores the natural order.
func lineCells(n, k int, dir Direction) []Cell {
	cells := make([]Cell, n)
	for i := range n {
		switch dir {
		case DirLeft:
			cells[i] = Cell{Row: k, Col: i}
		case DirRight:
			cells[i] = Cell{Row: k, Col: n - 1 - i}
		case DirUp:
			cells[i] = Cell{Row: i, Col: k}
		case DirDown:
			cells[i] = Cell{Row: n - 1 - i, Col: k}
		}
	}
	return cells
}

type lineTile struct {
	value int
	from  int
}

type lineMove struct {
	from, to int
	value    int
	merged   bool
}

// collapseLine compacts, merges and pads one line toward index 0.
// Each pair is considered once in scan order and a merged tile is never
// compared again, so [2,2,2] becomes [4,2,0] and [4,4,4,4] becomes [8,8,0,0].
func collapseLine(line []int) (out []int, gained int, moves []lineMove) {
	tiles := make([]lineTile, 0, len(line))
	for i, v := range line {
		if v != 0 {
			tiles = append(tiles, lineTile{value: v, from: i})
		}
	}

	out = make([]int, len(line))
	w := 0
	for i := 0; i < len(tiles); i++ {
		t := tiles[i]
		if i+1 < len(tiles) && tiles[i+1].value == t.value {
			next := tiles[i+1]
			out[w] = t.value * 2
			gained += out[w]
			moves = append(moves,
				lineMove{from: t.from, to: w, value: t.value, merged: true},
				lineMove{from: next.from, to: w, value: next.value, merged: true},
			)
			i++
		} else {
			out[w] = t.value
			moves = append(moves, lineMove{from: t.from, to: w, value: t.value})
		}
		w++
	}
	return out, gained, moves
}

// Slide applies a move and reports every tile's travel.
// The input grid is not modified. An invalid direction returns a copy of
// the grid and Changed == false.
func Slide(g Grid, dir Direction) Outcome {
	next := g.Clone()
	if !dir.Valid() {
		return Outcome{Grid: next}
	}

	n := g.Size()
	var res Outcome
	line := make([]int, n)
	for k := range n {
		cells := lineCells(n, k, dir)
		for i, c := range cells {
			line[i] = g[c.Row][c.Col]
		}

		out, gained, moves := collapseLine(line)
		res.Gained += gained

		for i, c := range cells {
			if next[c.Row][c.Col] != out[i] {
				res.Changed = true
			}
			next[c.Row][c.Col] = out[i]
		}
		for _, m := range moves {
			res.Moves = append(res.Moves, TileMove{
				From:   cells[m.from],
				To:     cells[m.to],
				Value:  m.value,
				Merged: m.merged,
			})
		}
	}

	res.Grid = next
	return res
}

// Move applies a move and returns the new grid, the score gained and
// whether any cell changed.
func Move(g Grid, dir Direction) (Grid, int, bool) {
	res := Slide(g, dir)
	return res.Grid, res.Gained, res.Changed
}

// CanMove reports whether any direction would change the grid.
func CanMove(g Grid) bool {
	n := g.Size()
	for r := range n {
		for c := range n {
			v := g[r][c]
			if v == 0 {
				return true
			}
			if c+1 < n && g[r][c+1] == v {
				return true
			}
			if r+1 < n && g[r+1][c] == v {
				return true
			}
		}
	}
	return false
}

// Source is the randomness a spawn draws from. *math/rand.Rand satisfies it.
type Source interface {
	Intn(n int) int
	Float64() float64
}

// DefaultFourProbability is the chance a spawned tile is a 4.
const DefaultFourProbability = 0.1

// Tile is a spawned tile.
type Tile struct {
	Cell  Cell `json:"cell"`
	Value int  `json:"value"`
}

// Spawn places a 2 (or a 4 with probability fourProb) in a uniformly chosen
// empty cell of a copy of g. It returns false, leaving the copy unchanged,
// when the grid is full.
func Spawn(g Grid, src Source, fourProb float64) (Grid, Tile, bool) {
	next := g.Clone()
	empty := g.EmptyCells()
	if len(empty) == 0 {
		return next, Tile{}, false
	}

	cell := empty[src.Intn(len(empty))]
	value := 2
	if src.Float64() < fourProb {
		value = 4
	}
	next[cell.Row][cell.Col] = value
	return next, Tile{Cell: cell, Value: value}, true
}
