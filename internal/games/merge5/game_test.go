package merge5

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/merge5/internal/core"
)

func newTestGame(t *testing.T, id string) *Game {
	t.Helper()
	v, ok := VariantByID(id)
	require.True(t, ok, "variant %q not found", id)
	g := New(v)
	g.Reset(core.RuntimeConfig{ScreenW: 80, ScreenH: 24, TickRate: 60, Seed: 7})
	return g
}

var directionActions = map[Direction]core.Action{
	DirLeft:  core.ActionLeft,
	DirRight: core.ActionRight,
	DirUp:    core.ActionUp,
	DirDown:  core.ActionDown,
}

// movingInput returns an input frame whose direction changes the board.
func movingInput(t *testing.T, g *Game) core.InputFrame {
	t.Helper()
	grid := g.Engine().Grid()
	for _, d := range Directions {
		if Slide(grid, d).Changed {
			return core.NewInputFrame(directionActions[d])
		}
	}
	require.FailNow(t, "no direction changes the board")
	return 0
}

func TestDurationToTicks(t *testing.T) {
	tests := []struct {
		d    time.Duration
		rate int
		want int
	}{
		{150 * time.Millisecond, 60, 9},
		{150 * time.Millisecond, 30, 5},
		{100 * time.Millisecond, 60, 6},
		{time.Millisecond, 60, 1},
		{0, 60, 0},
		{-time.Second, 60, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, durationToTicks(tt.d, tt.rate), "durationToTicks(%v, %d)", tt.d, tt.rate)
	}
}

func TestGameDeferredSpawnCountsDownTicks(t *testing.T) {
	g := newTestGame(t, "merge5")
	require.Equal(t, 9, g.delayTicks)

	res := g.Step(movingInput(t, g))
	require.True(t, res.Changed, "move should change the game")
	require.Equal(t, PhaseAwaitingSpawn, g.Engine().Phase())
	assert.Equal(t, animSlide, g.anim.phase, "animated variant should start the slide")
	tiles := countTiles(g.Engine().Grid())

	for i := 1; i < 9; i++ {
		g.Step(0)
		require.Equal(t, PhaseAwaitingSpawn, g.Engine().Phase(), "spawned after %d ticks, want 9", i)
	}

	res = g.Step(0)
	assert.True(t, res.Changed, "spawn tick should report a change")
	require.Equal(t, PhaseIdle, g.Engine().Phase())
	assert.Equal(t, tiles+1, countTiles(g.Engine().Grid()))
	assert.Equal(t, animPop, g.anim.phase, "spawned tile should pop")
}

func TestGameInstantVariantSpawnsSameTick(t *testing.T) {
	g := newTestGame(t, "merge5_instant")
	require.Zero(t, g.delayTicks)

	in := movingInput(t, g)
	dir, _ := directionFromInput(in)
	settled := countTiles(Slide(g.Engine().Grid(), dir).Grid)

	g.Step(in)
	require.Equal(t, PhaseIdle, g.Engine().Phase())
	assert.Equal(t, settled+1, countTiles(g.Engine().Grid()))
	assert.Equal(t, animNone, g.anim.phase, "instant variant should not animate")
}

func TestGameMoveFlushesPendingSpawn(t *testing.T) {
	g := newTestGame(t, "merge5")
	g.Step(movingInput(t, g))
	require.Equal(t, PhaseAwaitingSpawn, g.Engine().Phase(), "expected a pending spawn")
	settled := countTiles(g.Engine().Grid())

	g.Step(core.NewInputFrame(core.ActionUp))

	switch g.Engine().Phase() {
	case PhaseAwaitingSpawn:
		// The flushed tile was placed and the up move was accepted.
		assert.Equal(t, 2, g.Engine().Moves())
		assert.Equal(t, g.delayTicks, g.spawnIn)
	case PhaseIdle:
		// Up changed nothing: only the owed tile landed.
		assert.Equal(t, settled+1, countTiles(g.Engine().Grid()))
		assert.Equal(t, animNone, g.anim.phase, "flushed spawn should not pop")
	}
}

func TestGamePauseBlocksMoves(t *testing.T) {
	g := newTestGame(t, "merge5_instant")
	before := g.Engine().Grid()

	g.Step(core.NewInputFrame(core.ActionPause))
	require.True(t, g.State().Paused)

	for _, a := range []core.Action{core.ActionLeft, core.ActionRight, core.ActionUp, core.ActionDown} {
		g.Step(core.NewInputFrame(a))
	}
	assert.True(t, g.Engine().Grid().Equal(before), "board changed while paused")

	g.Step(core.NewInputFrame(core.ActionPause))
	assert.False(t, g.State().Paused, "second pause should resume")
}

func TestGameTooSmallIgnoresInput(t *testing.T) {
	g := newTestGame(t, "merge5_instant")
	g.Resize(20, 10)
	before := g.Engine().Grid()

	g.Step(movingInput(t, g))
	assert.True(t, g.Engine().Grid().Equal(before), "board changed on a too-small screen")
	assert.True(t, g.State().Paused, "too-small screen should report paused")

	screen := core.NewScreen(20, 10)
	g.Render(screen)
	assert.Contains(t, screen.String(), "too small")

	g.Resize(80, 24)
	g.Step(movingInput(t, g))
	assert.False(t, g.Engine().Grid().Equal(before), "board should move after growing the screen")
}

func TestGameSnapshot(t *testing.T) {
	g := newTestGame(t, "merge5")
	g.Step(0)
	g.Step(0)

	s := g.Snapshot()
	assert.Equal(t, "merge5", s.Variant)
	assert.Equal(t, uint64(2), s.Tick)
	assert.Equal(t, 5, s.Size)
	assert.Equal(t, s.Grid.MaxTile(), s.MaxTile)
	assert.Equal(t, PhaseIdle, s.Phase)
}

func TestGameDeterministicWithSeed(t *testing.T) {
	run := func() Snapshot {
		g := newTestGame(t, "merge5")
		for i := range 400 {
			var in core.InputFrame
			if i%5 == 0 {
				in = core.NewInputFrame(directionActions[Directions[(i/5)%4]])
			}
			g.Step(in)
		}
		return g.Snapshot()
	}

	a, b := run(), run()
	assert.Equal(t, a.Score, b.Score)
	assert.Equal(t, a.Moves, b.Moves)
	assert.True(t, a.Grid.Equal(b.Grid), "same seed diverged:\n%s\n%s", a.Grid, b.Grid)
}

func TestGameRender(t *testing.T) {
	g := newTestGame(t, "merge5")
	screen := core.NewScreen(80, 24)
	g.Render(screen)
	out := screen.String()

	for _, want := range []string{"Merge 5x5", "Score: 0", "Moves: 0", "┌", "┘"} {
		assert.Contains(t, out, want)
	}

	g.Step(core.NewInputFrame(core.ActionPause))
	g.Render(screen)
	assert.Contains(t, screen.String(), "PAUSED")
}

func TestDrawTileSkipsCellsOffBoard(t *testing.T) {
	board := core.NewRect(2, 1, 5*cellWidth+1, 5*cellHeight+1)
	screen := core.NewScreen(60, 16)

	drawTile(screen, board, 0, -1, 64, core.ColorRed)
	drawTile(screen, board, 5, 0, 64, core.ColorRed)
	drawTile(screen, board, 0, 5, 64, core.ColorRed)
	assert.NotContains(t, screen.String(), "64")

	drawTile(screen, board, 4, 4, 128, core.ColorRed)
	row := board.Y + 4*cellHeight + 1
	assert.Contains(t, screen.Row(row), "128")
}

func TestGameRenderLockedOverlay(t *testing.T) {
	g := newTestGame(t, "merge5_instant")
	locked := NewGrid(5)
	for r := range locked {
		for c := range locked[r] {
			locked[r][c] = 2 << ((r + c) % 2)
		}
	}
	require.NoError(t, g.Engine().Load(locked, 100))
	require.True(t, g.State().Locked, "checkerboard should be locked")

	screen := core.NewScreen(80, 24)
	g.Render(screen)
	assert.Contains(t, screen.String(), "No moves left")
}

func TestTileColor(t *testing.T) {
	assert.Equal(t, core.ColorGray, TileColor(0), "empty cells are gray")
	assert.NotEqual(t, TileColor(2), TileColor(4))
	assert.Equal(t, core.ColorBrightMagenta, TileColor(1<<14), "large tiles fall back to bright magenta")
}
