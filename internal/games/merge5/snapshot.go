package merge5

// Snapshot is an immutable copy of a game's state, used by renderers,
// determinism tests and the remote frontends.
type Snapshot struct {
	Variant string `json:"variant,omitempty"`
	Tick    uint64 `json:"tick,omitempty"`
	Size    int    `json:"size"`
	Grid    Grid   `json:"grid"`
	Score   int    `json:"score"`
	Moves   int    `json:"moves"`
	MaxTile int    `json:"max_tile"`
	Phase   Phase  `json:"phase"`
	Locked  bool   `json:"locked"`
	Paused  bool   `json:"paused,omitempty"`
}

// Snapshot returns the game state including the tick counter.
func (g *Game) Snapshot() Snapshot {
	if g.engine == nil {
		return Snapshot{Variant: g.variant.ID, Tick: g.tick}
	}
	s := g.engine.Snapshot()
	s.Variant = g.variant.ID
	s.Tick = g.tick
	s.Paused = g.paused
	return s
}
