package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/merge5/internal/platform/mcp"
	"github.com/vovakirdan/merge5/internal/session"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve MCP tools on stdio",
	Long: `Run a Model Context Protocol server on stdin/stdout so an agent can play.

Tools: new_game, move, game_state, reset_game, list_sessions, high_scores.
Logs go to stderr or --log-file, never to stdout.

Example client config:
  {"command": "merge5", "args": ["mcp"]}`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func runMCP(_ *cobra.Command, _ []string) error {
	logger, err := newLogger("merge5-mcp", os.Stderr)
	if err != nil {
		return err
	}
	defer logger.Close()

	store := openStore(logger)
	if store != nil {
		defer store.Close()
	}

	manager := newManager(store, logger.Logger)
	defer manager.Close()

	var scores mcp.ScoreLister
	if store != nil {
		scores = store
	}
	server := mcp.NewServer(manager, scores, logger.Logger, version)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if ttl := appConfig.Web.SessionTTL; ttl > 0 {
		go pruneSessions(ctx, manager, ttl, logger.Logger)
	}
	return server.Serve(ctx, os.Stdin, os.Stdout)
}

func pruneSessions(ctx context.Context, manager *session.Manager, ttl time.Duration, logger *log.Logger) {
	ticker := time.NewTicker(max(ttl/4, time.Second))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := manager.Prune(ttl); n > 0 {
				logger.Info("pruned idle sessions", "count", n)
			}
		}
	}
}
