package merge5

// popAnimationTicks is how long a freshly spawned tile stays highlighted.
const popAnimationTicks = 6

type animPhase int

const (
	animNone animPhase = iota
	animSlide
	animPop
)

// animation tracks the visual state between an accepted move and its spawn.
type animation struct {
	phase    animPhase
	ticks    int
	duration int
	slides   []TileMove
	pop      Tile
}

func (a *animation) startSlide(moves []TileMove, duration int) {
	*a = animation{
		phase:    animSlide,
		duration: max(duration, 1),
		slides:   moves,
	}
}

func (a *animation) startPop(t Tile) {
	*a = animation{
		phase:    animPop,
		duration: popAnimationTicks,
		pop:      t,
	}
}

// advance moves the animation one tick forward and ends it when done.
func (a *animation) advance() {
	if a.phase == animNone {
		return
	}
	a.ticks++
	if a.ticks >= a.duration {
		// A slide with no spawn yet just holds its final frame; the spawn
		// replaces it with a pop.
		if a.phase == animSlide {
			a.ticks = a.duration
			return
		}
		*a = animation{}
	}
}

// progress returns 0..1 through the current phase, eased out.
func (a *animation) progress() float64 {
	if a.duration <= 0 {
		return 1
	}
	t := float64(a.ticks) / float64(a.duration)
	t = min(max(t, 0), 1)
	return t * (2 - t)
}

// position interpolates a sliding tile between its cells.
func (m TileMove) position(t float64) (row, col float64) {
	row = float64(m.From.Row) + float64(m.To.Row-m.From.Row)*t
	col = float64(m.From.Col) + float64(m.To.Col-m.From.Col)*t
	return row, col
}
