package main

import (
	"fmt"
	"io"
	"math/rand"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/merge5/internal/games/merge5"
)

var (
	flagSimGames    int
	flagSimMaxMoves int
	flagSimStrategy string
)

var simCmd = &cobra.Command{
	Use:   "sim [variant]",
	Short: "Play headless games and print statistics",
	Long: `Play many games without a terminal using a simple strategy and report
scores and the best tiles reached. Spawns are synchronous.

Strategies:
  random  - any direction that changes the board
  greedy  - the direction with the most points, then the most free cells
  corner  - prefer left, then down, then right, then up

Examples:
  merge5 sim
  merge5 sim --games 1000 --strategy greedy --seed 1`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSim,
}

func init() {
	simCmd.Flags().IntVar(&flagSimGames, "games", 100, "Number of games")
	simCmd.Flags().IntVar(&flagSimMaxMoves, "max-moves", 10000, "Move limit per game")
	simCmd.Flags().StringVar(&flagSimStrategy, "strategy", "greedy", "random, greedy or corner")
}

type simOptions struct {
	Games    int
	MaxMoves int
	Strategy string
	Seed     int64
}

type simReport struct {
	Games      int
	TotalScore int
	BestScore  int
	TotalMoves int
	// BestTiles counts games by the largest tile they reached.
	BestTiles map[int]int
}

func (r simReport) AvgScore() float64 {
	if r.Games == 0 {
		return 0
	}
	return float64(r.TotalScore) / float64(r.Games)
}

func (r simReport) AvgMoves() float64 {
	if r.Games == 0 {
		return 0
	}
	return float64(r.TotalMoves) / float64(r.Games)
}

// strategy picks the next direction. ok is false when nothing moves.
type strategy func(g merge5.Grid, rng *rand.Rand) (dir merge5.Direction, ok bool)

var strategies = map[string]strategy{
	"random": randomStrategy,
	"greedy": greedyStrategy,
	"corner": cornerStrategy,
}

func randomStrategy(g merge5.Grid, rng *rand.Rand) (merge5.Direction, bool) {
	for _, i := range rng.Perm(len(merge5.Directions)) {
		if d := merge5.Directions[i]; merge5.Slide(g, d).Changed {
			return d, true
		}
	}
	return 0, false
}

func greedyStrategy(g merge5.Grid, _ *rand.Rand) (merge5.Direction, bool) {
	best, bestGain, bestFree, found := merge5.Direction(0), -1, -1, false
	for _, d := range merge5.Directions {
		out := merge5.Slide(g, d)
		if !out.Changed {
			continue
		}
		free := len(out.Grid.EmptyCells())
		if out.Gained > bestGain || (out.Gained == bestGain && free > bestFree) {
			best, bestGain, bestFree, found = d, out.Gained, free, true
		}
	}
	return best, found
}

func cornerStrategy(g merge5.Grid, _ *rand.Rand) (merge5.Direction, bool) {
	for _, d := range []merge5.Direction{merge5.DirLeft, merge5.DirDown, merge5.DirRight, merge5.DirUp} {
		if merge5.Slide(g, d).Changed {
			return d, true
		}
	}
	return 0, false
}

// simulate plays opts.Games games. Game i is seeded with opts.Seed+i, so a
// report is reproducible.
func simulate(rules merge5.Rules, opts simOptions) (simReport, error) {
	pick, ok := strategies[opts.Strategy]
	if !ok {
		return simReport{}, fmt.Errorf("unknown strategy %q", opts.Strategy)
	}
	if opts.Games <= 0 {
		return simReport{}, fmt.Errorf("games must be positive, got %d", opts.Games)
	}
	rules.SpawnDelay = 0

	report := simReport{BestTiles: make(map[int]int)}
	for i := range opts.Games {
		rng := rand.New(rand.NewSource(opts.Seed + int64(i)))
		e := merge5.NewEngine(rules, rng)
		for e.Moves() < opts.MaxMoves {
			dir, ok := pick(e.Grid(), rng)
			if !ok {
				break
			}
			e.Move(dir)
		}

		report.Games++
		report.TotalScore += e.Score()
		report.TotalMoves += e.Moves()
		report.BestScore = max(report.BestScore, e.Score())
		report.BestTiles[e.Grid().MaxTile()]++
	}
	return report, nil
}

func printReport(w io.Writer, variant, strategyName string, r simReport) {
	fmt.Fprintf(w, "Simulated %d games of %s (%s)\n\n", r.Games, variant, strategyName)
	fmt.Fprintf(w, "  Average score: %.1f\n", r.AvgScore())
	fmt.Fprintf(w, "  Best score:    %d\n", r.BestScore)
	fmt.Fprintf(w, "  Average moves: %.1f\n", r.AvgMoves())
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %-9s  %-6s  %s\n", "Best tile", "Games", "Share")

	tiles := make([]int, 0, len(r.BestTiles))
	for t := range r.BestTiles {
		tiles = append(tiles, t)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(tiles)))
	for _, t := range tiles {
		n := r.BestTiles[t]
		fmt.Fprintf(w, "  %-9d  %-6d  %5.1f%%\n", t, n, 100*float64(n)/float64(r.Games))
	}
}

func runSim(_ *cobra.Command, args []string) error {
	variant := variantArg(args)
	v, ok := merge5.VariantByID(variant)
	if !ok {
		return checkVariant(variant)
	}

	seed := flagSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	report, err := simulate(v.RulesFor(merge5.BaseRules()), simOptions{
		Games:    flagSimGames,
		MaxMoves: flagSimMaxMoves,
		Strategy: flagSimStrategy,
		Seed:     seed,
	})
	if err != nil {
		return err
	}
	printReport(os.Stdout, variant, flagSimStrategy, report)
	return nil
}
