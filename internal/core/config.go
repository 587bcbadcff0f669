package core

// RuntimeConfig is handed to a game on Reset.
type RuntimeConfig struct {
	ScreenW  int    // Screen width in characters
	ScreenH  int    // Screen height in characters
	TickRate int    // Simulation ticks per second
	Seed     int64  // RNG seed; 0 lets the platform pick one from the clock
	Player   string // Name recorded with saved scores
}

// DefaultConfig returns an 80x24, 60 tick configuration.
func DefaultConfig() RuntimeConfig {
	return RuntimeConfig{
		ScreenW:  80,
		ScreenH:  24,
		TickRate: 60,
	}
}

// GameState is what the platform needs to know about a running game.
type GameState struct {
	Score   int
	MaxTile int // Highest tile on the board, for score records
	Moves   int // Accepted moves so far
	Paused  bool
	// Locked reports that no direction would change the board.
	// It is a hint for the UI; games keep accepting input.
	Locked bool
}

// StepResult is returned by Game.Step after each tick.
type StepResult struct {
	State   GameState
	Changed bool // Board changed during this tick
}
