package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/merge5/internal/platform/tui"
)

var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Start with a variant picker menu",
	Long: `Start merge5 in interactive menu mode.

Use arrow keys or j/k to navigate, Enter to play, Tab for the scoreboard.
Leaving a game with B/Esc returns to the menu.

Examples:
  merge5 menu
  merge5 menu --fps 30
  merge5 menu --db ./scores.db`,
	Args: cobra.NoArgs,
	RunE: runMenu,
}

func runMenu(_ *cobra.Command, _ []string) error {
	logger, err := newLogger("merge5", io.Discard)
	if err != nil {
		return err
	}
	defer logger.Close()

	store := openStore(logger)
	if store != nil {
		defer store.Close()
	}

	cfg := runtimeConfig()
	if err := tui.RunApp(store, cfg, tui.Options{
		Player: cfg.Player,
		Logger: logger.Logger,
	}); err != nil {
		return fmt.Errorf("running menu: %w", err)
	}
	return nil
}
