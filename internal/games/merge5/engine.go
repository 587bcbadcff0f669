package merge5

import (
	"fmt"
	"time"
)

// Phase is the engine's spawn state.
type Phase int

const (
	// PhaseIdle accepts moves; no tile is owed.
	PhaseIdle Phase = iota
	// PhaseAwaitingSpawn follows an accepted move until its tile is placed.
	PhaseAwaitingSpawn
)

// String returns the phase name used in snapshots.
func (p Phase) String() string {
	if p == PhaseAwaitingSpawn {
		return "awaiting_spawn"
	}
	return "idle"
}

// MarshalText lets snapshots encode the phase by name.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText parses a phase name.
func (p *Phase) UnmarshalText(b []byte) error {
	switch string(b) {
	case "idle":
		*p = PhaseIdle
	case "awaiting_spawn":
		*p = PhaseAwaitingSpawn
	default:
		return fmt.Errorf("merge5: unknown phase %q", b)
	}
	return nil
}

// Rules configures a game.
type Rules struct {
	Size            int
	FourProbability float64
	StartTiles      int
	// SpawnDelay defers the new tile after a move. Zero spawns synchronously.
	SpawnDelay time.Duration
}

// DefaultRules returns the 5x5 rules with a 150ms deferred spawn.
func DefaultRules() Rules {
	return Rules{
		Size:            5,
		FourProbability: DefaultFourProbability,
		StartTiles:      2,
		SpawnDelay:      150 * time.Millisecond,
	}
}

// withDefaults fills unset fields from DefaultRules.
func (r Rules) withDefaults() Rules {
	d := DefaultRules()
	if r.Size < 2 {
		r.Size = d.Size
	}
	if r.FourProbability < 0 || r.FourProbability > 1 {
		r.FourProbability = d.FourProbability
	}
	if r.StartTiles <= 0 {
		r.StartTiles = d.StartTiles
	}
	r.StartTiles = min(r.StartTiles, r.Size*r.Size)
	if r.SpawnDelay < 0 {
		r.SpawnDelay = 0
	}
	return r
}

// Observer receives the state after every settled move and every spawn.
type Observer interface {
	Observe(Snapshot)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Snapshot)

// Observe calls f.
func (f ObserverFunc) Observe(s Snapshot) { f(s) }

// Engine owns one game's grid and score.
// It is not safe for concurrent use.
type Engine struct {
	rules    Rules
	src      Source
	grid     Grid
	score    int
	moves    int
	phase    Phase
	last     *Tile
	observer Observer
}

// NewEngine creates an engine and spawns the starting tiles.
func NewEngine(rules Rules, src Source) *Engine {
	e := &Engine{
		rules: rules.withDefaults(),
		src:   src,
	}
	e.Restart()
	return e
}

// Restart clears the board and score and spawns the starting tiles.
func (e *Engine) Restart() {
	e.grid = NewGrid(e.rules.Size)
	e.score = 0
	e.moves = 0
	e.phase = PhaseIdle
	e.last = nil
	for range e.rules.StartTiles {
		e.spawn()
	}
	e.notify()
}

// Load replaces the board and score and restarts the move count. The grid
// must be valid and match the configured size.
func (e *Engine) Load(g Grid, score int) error {
	if err := g.Validate(); err != nil {
		return err
	}
	if g.Size() != e.rules.Size {
		return fmt.Errorf("%w: size %d, want %d", ErrInvalidGrid, g.Size(), e.rules.Size)
	}
	if score < 0 {
		return fmt.Errorf("merge5: negative score %d", score)
	}
	e.grid = g.Clone()
	e.score = score
	e.moves = 0
	e.phase = PhaseIdle
	e.last = nil
	return nil
}

// SetObserver installs the state callback. Nil removes it.
func (e *Engine) SetObserver(o Observer) {
	e.observer = o
}

// Move applies a move. A spawn still owed by the previous move is placed
// first. A move that changes nothing leaves the engine untouched and does
// not spawn.
func (e *Engine) Move(dir Direction) Outcome {
	if e.phase == PhaseAwaitingSpawn {
		e.CompleteSpawn()
	}

	res := Slide(e.grid, dir)
	if !res.Changed {
		return res
	}

	e.grid = res.Grid.Clone()
	e.score += res.Gained
	e.moves++

	if e.rules.SpawnDelay > 0 {
		e.phase = PhaseAwaitingSpawn
		e.notify()
		return res
	}

	e.notify()
	e.spawn()
	e.notify()
	return res
}

// CompleteSpawn places the tile owed by the last accepted move.
// It returns false when no spawn was pending.
func (e *Engine) CompleteSpawn() (Tile, bool) {
	if e.phase != PhaseAwaitingSpawn {
		return Tile{}, false
	}
	e.phase = PhaseIdle
	t, ok := e.spawn()
	e.notify()
	return t, ok
}

func (e *Engine) spawn() (Tile, bool) {
	g, t, ok := Spawn(e.grid, e.src, e.rules.FourProbability)
	if !ok {
		return Tile{}, false
	}
	e.grid = g
	e.last = &t
	return t, true
}

func (e *Engine) notify() {
	if e.observer != nil {
		e.observer.Observe(e.Snapshot())
	}
}

// Rules returns the effective rules.
func (e *Engine) Rules() Rules { return e.rules }

// Grid returns a copy of the board.
func (e *Engine) Grid() Grid { return e.grid.Clone() }

// Score returns the current score.
func (e *Engine) Score() int { return e.score }

// Moves returns the number of accepted moves.
func (e *Engine) Moves() int { return e.moves }

// Phase returns the spawn phase.
func (e *Engine) Phase() Phase { return e.phase }

// LastSpawn returns the most recently placed tile.
func (e *Engine) LastSpawn() (Tile, bool) {
	if e.last == nil {
		return Tile{}, false
	}
	return *e.last, true
}

// Locked reports that no direction would change the board.
func (e *Engine) Locked() bool {
	return e.phase == PhaseIdle && !CanMove(e.grid)
}

// Snapshot returns a copy of the engine state.
func (e *Engine) Snapshot() Snapshot {
	return Snapshot{
		Size:    e.rules.Size,
		Grid:    e.grid.Clone(),
		Score:   e.score,
		Moves:   e.moves,
		MaxTile: e.grid.MaxTile(),
		Phase:   e.phase,
		Locked:  e.Locked(),
	}
}
