package config

import (
	_ "embed"
	"time"
)

//go:embed defaults/merge5.yaml
var defaultYAML []byte

// Default returns the built-in configuration. It matches defaults/merge5.yaml.
func Default() Config {
	return Config{
		Board: BoardConfig{
			Size:            5,
			FourProbability: 0.1,
			StartTiles:      2,
		},
		Timing: TimingConfig{
			TickRate:   60,
			SpawnDelay: 150 * time.Millisecond,
		},
		SSH: SSHConfig{
			Address:     ":23234",
			HostKey:     ".ssh/merge5_ed25519",
			IdleTimeout: 30 * time.Minute,
		},
		Web: WebConfig{
			Address:    ":8080",
			SessionTTL: time.Hour,
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Source: "builtin",
	}
}

// DefaultYAML returns the embedded default config file.
func DefaultYAML() []byte {
	return defaultYAML
}
