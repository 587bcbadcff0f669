// merge5 is a 5x5 sliding-tile merge puzzle for the terminal, with SSH,
// web and MCP frontends.
//
// Usage:
//
//	merge5 list                - List variants
//	merge5 play [variant]      - Play in this terminal
//	merge5 menu                - Variant picker with scoreboard
//	merge5 scores [variant]    - Show high scores
//	merge5 serve               - SSH server for remote play
//	merge5 web                 - HTTP API and WebSocket state feed
//	merge5 mcp                 - MCP tool server on stdio
//	merge5 sim                 - Headless games for statistics
//
// Global flags:
//
//	--config <path>     - Config file (default: ~/.merge5/config.yaml, ./configs/merge5.yaml)
//	--fps <rate>        - Tick rate
//	--seed <value>      - RNG seed for reproducible games
//	--db <path>         - Scores database (default: ~/.merge5/scores.db)
//	--log-level <lvl>   - debug, info, warn, error
//	--log-file <path>   - Rotating log file
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/merge5/internal/config"
	"github.com/vovakirdan/merge5/internal/games/merge5"
)

// version is set with -ldflags "-X main.version=...".
var version = "dev"

var (
	// Global flags
	flagConfig   string
	flagFPS      int
	flagSeed     int64
	flagDBPath   string
	flagLogLevel string
	flagLogFile  string
)

// appConfig is loaded before any command runs.
var appConfig config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "merge5",
	Short:   "merge5 - slide and merge tiles on a 5x5 board",
	Version: version,
	Long: `merge5 is a sliding-tile puzzle: every move slides all tiles one way,
equal neighbours merge into their sum and a new tile appears.

Available commands:
  list     - Show the variants
  play     - Play a variant directly
  menu     - Interactive variant picker
  scores   - View high scores
  serve    - Start SSH server for remote play
  web      - Start the HTTP/WebSocket server
  mcp      - Serve MCP tools on stdio
  sim      - Play headless games and print statistics

Examples:
  merge5 play
  merge5 play merge5_instant --seed 42
  merge5 menu
  merge5 serve --ssh :2222
  merge5 web --addr :9000`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "Path to config YAML")
	pf.IntVar(&flagFPS, "fps", 0, "Tick rate (frames per second, default from config)")
	pf.Int64Var(&flagSeed, "seed", 0, "RNG seed (0 = random based on time)")
	pf.StringVar(&flagDBPath, "db", "", "Path to scores database (default from config)")
	pf.StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&flagLogFile, "log-file", "", "Write logs to a rotating file")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(menuCmd)
	rootCmd.AddCommand(scoresCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(webCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(simCmd)
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	applyFlags(cmd, &cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	appConfig = cfg
	merge5.Configure(cfg.Rules())
	return nil
}

// applyFlags lets explicitly set global flags override the config file.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("fps") {
		cfg.Timing.TickRate = flagFPS
	}
	if flags.Changed("db") {
		cfg.Storage.DBPath = flagDBPath
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = flagLogLevel
	}
	if flags.Changed("log-file") {
		cfg.Log.File = flagLogFile
	}
}
