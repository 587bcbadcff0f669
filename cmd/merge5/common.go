package main

import (
	"fmt"
	"io"
	"os"
	"os/user"

	"golang.org/x/term"

	"github.com/vovakirdan/merge5/internal/core"
	"github.com/vovakirdan/merge5/internal/logging"
	"github.com/vovakirdan/merge5/internal/registry"
	"github.com/vovakirdan/merge5/internal/storage"
)

// terminalSize returns the size of stdout, or 80x24 when it is not a terminal.
func terminalSize() (int, int) {
	width, height := 80, 24
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		width, height = w, h
	}
	return width, height
}

func runtimeConfig() core.RuntimeConfig {
	w, h := terminalSize()
	return core.RuntimeConfig{
		ScreenW:  w,
		ScreenH:  h,
		TickRate: appConfig.Timing.TickRate,
		Seed:     flagSeed,
		Player:   localPlayer(),
	}
}

func localPlayer() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return os.Getenv("USER")
}

// newLogger logs to the configured file, else to fallback.
func newLogger(prefix string, fallback io.Writer) (*logging.Logger, error) {
	return logging.New(appConfig.Log, prefix, fallback)
}

// openStore opens the score database. The game still works without one,
// so failures only warn.
func openStore(logger *logging.Logger) *storage.Store {
	store, err := storage.Open(appConfig.Storage.DBPath)
	if err != nil {
		logger.Warn("could not open scores database", "error", err)
		fmt.Fprintf(os.Stderr, "Warning: could not open scores database: %v\n", err)
		return nil
	}
	return store
}

func checkVariant(id string) error {
	if !registry.Exists(id) {
		return fmt.Errorf("unknown variant %q (run 'merge5 list' to see variants)", id)
	}
	return nil
}

// variantArg returns the first argument or the default variant.
func variantArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "merge5"
}
