package main

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/merge5/internal/platform/tui"
	"github.com/vovakirdan/merge5/internal/storage"
)

var (
	flagScoresLimit       int
	flagScoresInteractive bool
	flagScoresClear       bool
	flagScoresAll         bool
)

var scoresCmd = &cobra.Command{
	Use:   "scores [variant]",
	Short: "Show high scores",
	Long: `Display the best results of a variant (default: merge5).

Examples:
  merge5 scores
  merge5 scores merge5_instant --limit 20
  merge5 scores --interactive
  merge5 scores --all
  merge5 scores merge5 --clear`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScores,
}

func init() {
	scoresCmd.Flags().IntVarP(&flagScoresLimit, "limit", "n", 10, "Number of scores to show")
	scoresCmd.Flags().BoolVarP(&flagScoresInteractive, "interactive", "i", false, "Browse the scoreboard in a table")
	scoresCmd.Flags().BoolVar(&flagScoresClear, "clear", false, "Delete all scores of the variant")
	scoresCmd.Flags().BoolVar(&flagScoresAll, "all", false, "Show a summary of every variant")
}

func runScores(_ *cobra.Command, args []string) error {
	gameID := variantArg(args)
	if err := checkVariant(gameID); err != nil {
		return err
	}

	store, err := storage.Open(appConfig.Storage.DBPath)
	if err != nil {
		return fmt.Errorf("opening scores database: %w", err)
	}
	defer store.Close()

	switch {
	case flagScoresClear:
		n, err := store.ClearScores(gameID)
		if err != nil {
			return err
		}
		fmt.Printf("Deleted %d scores of %s.\n", n, gameID)
		return nil
	case flagScoresAll:
		return printAllStats(os.Stdout, store)
	case flagScoresInteractive:
		w, h := terminalSize()
		_, err := tui.RunScoreboard(store, gameID, w, h)
		return err
	}
	return printScores(os.Stdout, store, gameID, flagScoresLimit)
}

func printScores(w io.Writer, store *storage.Store, gameID string, limit int) error {
	scores, err := store.TopScores(gameID, limit)
	if err != nil {
		return fmt.Errorf("retrieving scores: %w", err)
	}

	fmt.Fprintf(w, "High Scores - %s\n\n", gameID)
	if len(scores) == 0 {
		fmt.Fprintln(w, "No scores recorded yet.")
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Play 'merge5 play %s' to set the first high score!\n", gameID)
		return nil
	}

	fmt.Fprintf(w, "  %-4s  %-8s  %-6s  %-6s  %-12s  %s\n", "Rank", "Score", "Tile", "Moves", "Player", "Date")
	fmt.Fprintf(w, "  %-4s  %-8s  %-6s  %-6s  %-12s  %s\n", "----", "-----", "----", "-----", "------", "----")
	for i, e := range scores {
		player := e.Player
		if player == "" {
			player = "-"
		}
		fmt.Fprintf(w, "  %-4d  %-8d  %-6d  %-6d  %-12s  %s\n",
			i+1, e.Score, e.MaxTile, e.Moves, player, e.CreatedAt.Format("2006-01-02 15:04"))
	}

	if stats, err := store.GameStats(gameID); err == nil && stats.GamesCount > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Games: %d  Best: %d  Best tile: %d  Average: %.0f\n",
			stats.GamesCount, stats.HighScore, stats.BestTile, stats.AvgScore)
	}
	return nil
}

func printAllStats(w io.Writer, store *storage.Store) error {
	all, err := store.AllGamesStats()
	if err != nil {
		return fmt.Errorf("retrieving stats: %w", err)
	}
	if len(all) == 0 {
		fmt.Fprintln(w, "No scores recorded yet.")
		return nil
	}

	ids := make([]string, 0, len(all))
	for id := range all {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	fmt.Fprintf(w, "  %-16s  %-6s  %-8s  %-6s  %-8s  %s\n", "Variant", "Games", "Best", "Tile", "Average", "Last played")
	fmt.Fprintf(w, "  %-16s  %-6s  %-8s  %-6s  %-8s  %s\n", "-------", "-----", "----", "----", "-------", "-----------")
	for _, id := range ids {
		s := all[id]
		fmt.Fprintf(w, "  %-16s  %-6d  %-8d  %-6d  %-8.0f  %s\n",
			id, s.GamesCount, s.HighScore, s.BestTile, s.AvgScore, s.LastPlayed.Format("2006-01-02 15:04"))
	}
	return nil
}
