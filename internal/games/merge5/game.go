package merge5

import (
	"math/rand"
	"time"

	"github.com/vovakirdan/merge5/internal/core"
)

// Minimum screen size: board plus HUD and footer.
const (
	minScreenW = 40
	minScreenH = 17
)

// Game adapts an Engine to the tick-driven platform. Moves are read from
// the input frame; a deferred spawn is counted down in ticks.
type Game struct {
	variant Variant
	rules   Rules
	engine  *Engine
	rng     *rand.Rand
	tick    uint64

	tickRate   int
	delayTicks int // Ticks between an accepted move and its spawn
	spawnIn    int // Countdown while the engine awaits a spawn

	anim animation

	screenW  int
	screenH  int
	paused   bool
	tooSmall bool
}

// New creates a game for the given variant. Reset must be called before Step.
func New(v Variant) *Game {
	return &Game{variant: v}
}

// ID returns the variant identifier.
func (g *Game) ID() string { return g.variant.ID }

// Title returns the display name.
func (g *Game) Title() string { return g.variant.Title }

// Reset starts a new game.
func (g *Game) Reset(cfg core.RuntimeConfig) {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	g.rng = rand.New(rand.NewSource(seed))
	g.rules = g.variant.RulesFor(BaseRules())
	g.engine = NewEngine(g.rules, g.rng)

	g.tick = 0
	g.tickRate = cfg.TickRate
	if g.tickRate <= 0 {
		g.tickRate = core.DefaultConfig().TickRate
	}
	g.delayTicks = durationToTicks(g.rules.SpawnDelay, g.tickRate)
	g.spawnIn = 0
	g.anim = animation{}
	g.paused = false

	g.Resize(cfg.ScreenW, cfg.ScreenH)
}

// Resize updates the screen size without touching the board.
func (g *Game) Resize(w, h int) {
	g.screenW = w
	g.screenH = h
	g.tooSmall = w < minScreenW || h < minScreenH
}

// durationToTicks rounds d up to whole ticks. A positive delay is at least one tick.
func durationToTicks(d time.Duration, tickRate int) int {
	if d <= 0 {
		return 0
	}
	n := (int64(d)*int64(tickRate) + int64(time.Second) - 1) / int64(time.Second)
	return max(int(n), 1)
}

// Engine exposes the underlying engine.
func (g *Game) Engine() *Engine { return g.engine }

// Step advances the game by one tick.
func (g *Game) Step(in core.InputFrame) core.StepResult {
	g.tick++

	if g.tooSmall {
		return core.StepResult{State: g.State()}
	}

	if in.Has(core.ActionPause) {
		g.paused = !g.paused
	}
	if g.paused {
		return core.StepResult{State: g.State()}
	}

	changed := false

	if g.engine.Phase() == PhaseAwaitingSpawn {
		g.spawnIn--
		if g.spawnIn <= 0 {
			if t, ok := g.engine.CompleteSpawn(); ok {
				g.startPop(t)
				changed = true
			}
		}
	}

	if dir, ok := directionFromInput(in); ok {
		if g.applyMove(dir) {
			changed = true
		}
	}

	g.anim.advance()

	return core.StepResult{State: g.State(), Changed: changed}
}

// directionFromInput picks one direction per tick: up, down, left, right.
func directionFromInput(in core.InputFrame) (Direction, bool) {
	switch {
	case in.Has(core.ActionUp):
		return DirUp, true
	case in.Has(core.ActionDown):
		return DirDown, true
	case in.Has(core.ActionLeft):
		return DirLeft, true
	case in.Has(core.ActionRight):
		return DirRight, true
	}
	return 0, false
}

// applyMove hands the move to the engine and starts the animations.
func (g *Game) applyMove(dir Direction) bool {
	flushed := g.engine.Phase() == PhaseAwaitingSpawn

	res := g.engine.Move(dir)
	if flushed {
		// The owed tile was placed before the move; it shows without a pop.
		g.spawnIn = 0
		g.anim = animation{}
	}
	if !res.Changed {
		return flushed
	}

	if g.engine.Phase() == PhaseAwaitingSpawn {
		g.spawnIn = g.delayTicks
		if g.variant.Animated {
			g.anim.startSlide(res.Moves, g.delayTicks)
		}
		return true
	}

	if t, ok := g.engine.LastSpawn(); ok {
		g.startPop(t)
	}
	return true
}

func (g *Game) startPop(t Tile) {
	if !g.variant.Animated {
		g.anim = animation{}
		return
	}
	g.anim.startPop(t)
}

// State returns the platform-facing state.
func (g *Game) State() core.GameState {
	if g.engine == nil {
		return core.GameState{}
	}
	return core.GameState{
		Score:   g.engine.Score(),
		MaxTile: g.engine.Grid().MaxTile(),
		Moves:   g.engine.Moves(),
		Paused:  g.paused || g.tooSmall,
		Locked:  g.engine.Locked(),
	}
}
