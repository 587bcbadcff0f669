package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/merge5/internal/platform/tui"
	"github.com/vovakirdan/merge5/internal/registry"
)

var playCmd = &cobra.Command{
	Use:   "play [variant]",
	Short: "Play a variant",
	Long: `Start playing the given variant (default: merge5).

Controls:
  Arrows/WASD/hjkl - Slide tiles
  P                - Pause
  R                - Restart
  Ctrl+S           - Save a screenshot
  Q/Ctrl+C         - Quit

Examples:
  merge5 play
  merge5 play merge5_instant
  merge5 play --seed 42 --fps 30`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPlay,
}

func runPlay(cmd *cobra.Command, args []string) error {
	gameID := variantArg(args)
	if err := checkVariant(gameID); err != nil {
		return err
	}

	// The game owns the terminal, so logs only go to a file.
	logger, err := newLogger("merge5", io.Discard)
	if err != nil {
		return err
	}
	defer logger.Close()

	game, err := registry.Create(gameID)
	if err != nil {
		return fmt.Errorf("creating game: %w", err)
	}

	store := openStore(logger)
	if store != nil {
		defer store.Close()
	}

	cfg := runtimeConfig()
	logger.Info("starting game", "variant", gameID, "seed", cfg.Seed, "fps", cfg.TickRate)
	if err := tui.Run(game, store, cfg, tui.Options{
		Player: cfg.Player,
		Logger: logger.Logger,
	}); err != nil {
		return fmt.Errorf("running game: %w", err)
	}
	return nil
}
