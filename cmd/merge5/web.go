package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/merge5/internal/games/merge5"
	"github.com/vovakirdan/merge5/internal/platform/web"
	"github.com/vovakirdan/merge5/internal/session"
	"github.com/vovakirdan/merge5/internal/storage"
)

var flagWebAddr string

var webCmd = &cobra.Command{
	Use:   "web",
	Short: "Start the HTTP API and WebSocket server",
	Long: `Serve merge5 sessions over HTTP.

Endpoints:
  GET    /healthz
  GET    /api/variants
  POST   /api/sessions               {"variant","player","seed"}
  GET    /api/sessions
  GET    /api/sessions/{id}
  DELETE /api/sessions/{id}
  POST   /api/sessions/{id}/move     {"direction":"left"}
  POST   /api/sessions/{id}/reset
  GET    /api/scores/{variant}?limit=10
  GET    /ws?session={id}            state stream, accepts move/reset/state commands

Examples:
  merge5 web
  merge5 web --addr 127.0.0.1:9000`,
	Args: cobra.NoArgs,
	RunE: runWeb,
}

func init() {
	webCmd.Flags().StringVar(&flagWebAddr, "addr", "", "Listen address (default from config)")
}

// newManager builds the session manager shared by the remote frontends.
// Finished sessions are saved when store is non-nil.
func newManager(store *storage.Store, logger *log.Logger) *session.Manager {
	opts := []session.Option{
		session.WithRules(merge5.BaseRules()),
		session.WithLogger(logger),
	}
	if store != nil {
		opts = append(opts, session.WithScoreSaver(store))
	}
	return session.NewManager(opts...)
}

func runWeb(cmd *cobra.Command, _ []string) error {
	addr := appConfig.Web.Address
	if cmd.Flags().Changed("addr") {
		addr = flagWebAddr
	}

	logger, err := newLogger("merge5-web", os.Stderr)
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

	opts := web.Options{
		Address:     addr,
		IdleTimeout: appConfig.Web.SessionTTL,
		Logger:      logger.Logger,
	}
	if store != nil {
		opts.Scores = store
	}
	server := web.NewServer(manager, opts)

	fmt.Printf("Starting merge5 web server on %s\n", addr)
	fmt.Println("Press Ctrl+C to stop")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return server.ListenAndServe(ctx)
}
