// Package config loads the YAML configuration for the merge5 binaries:
// board rules, timing, storage, the SSH and web listeners, and logging.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/vovakirdan/merge5/internal/games/merge5"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("config: invalid")

// Config is the full application configuration.
type Config struct {
	Board   BoardConfig   `yaml:"board"`
	Timing  TimingConfig  `yaml:"timing"`
	Storage StorageConfig `yaml:"storage"`
	SSH     SSHConfig     `yaml:"ssh"`
	Web     WebConfig     `yaml:"web"`
	Log     LogConfig     `yaml:"log"`

	// Source is the file the config was read from, or "embedded".
	Source string `yaml:"-"`
}

// BoardConfig defines the board rules.
type BoardConfig struct {
	Size            int     `yaml:"size"`
	FourProbability float64 `yaml:"four_probability"`
	StartTiles      int     `yaml:"start_tiles"`
}

// TimingConfig defines the frame rate and the deferred spawn.
type TimingConfig struct {
	TickRate   int           `yaml:"tick_rate"`
	SpawnDelay time.Duration `yaml:"spawn_delay"`
}

// StorageConfig locates the score database.
type StorageConfig struct {
	DBPath string `yaml:"db_path"` // Empty means ~/.merge5/scores.db
}

// SSHConfig configures the wish server.
type SSHConfig struct {
	Address     string        `yaml:"address"`
	HostKey     string        `yaml:"host_key"`
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}

// WebConfig configures the HTTP/WebSocket frontend.
type WebConfig struct {
	Address string `yaml:"address"`
	// SessionTTL prunes web and MCP sessions without moves. Zero keeps them.
	SessionTTL time.Duration `yaml:"session_ttl"`
}

// LogConfig configures the logger and its rotating file.
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Validate checks value ranges. Errors wrap ErrInvalid.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
		}
	}

	b := c.Board
	check(b.Size >= 2 && b.Size <= 8, "board.size %d not in [2, 8]", b.Size)
	check(b.FourProbability >= 0 && b.FourProbability <= 1,
		"board.four_probability %g not in [0, 1]", b.FourProbability)
	check(b.StartTiles >= 1 && b.StartTiles <= b.Size*b.Size,
		"board.start_tiles %d not in [1, %d]", b.StartTiles, b.Size*b.Size)
	check(c.Timing.TickRate > 0, "timing.tick_rate %d must be positive", c.Timing.TickRate)
	check(c.Timing.SpawnDelay >= 0, "timing.spawn_delay %v must not be negative", c.Timing.SpawnDelay)
	check(c.SSH.IdleTimeout >= 0, "ssh.idle_timeout %v must not be negative", c.SSH.IdleTimeout)
	check(c.Web.SessionTTL >= 0, "web.session_ttl %v must not be negative", c.Web.SessionTTL)
	check(c.Log.MaxSizeMB >= 0 && c.Log.MaxBackups >= 0 && c.Log.MaxAgeDays >= 0,
		"log rotation limits must not be negative")

	return errors.Join(errs...)
}

// Rules converts the board and timing sections to engine rules.
func (c Config) Rules() merge5.Rules {
	return merge5.Rules{
		Size:            c.Board.Size,
		FourProbability: c.Board.FourProbability,
		StartTiles:      c.Board.StartTiles,
		SpawnDelay:      c.Timing.SpawnDelay,
	}
}
