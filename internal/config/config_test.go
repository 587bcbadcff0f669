package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMatchesDefault(t *testing.T) {
	cfg, err := Parse(DefaultYAML())
	require.NoError(t, err)

	want := Default()
	cfg.Source, want.Source = "", ""
	assert.Equal(t, want, cfg)
	assert.NoError(t, cfg.Validate())
}

func TestParsePartialKeepsDefaults(t *testing.T) {
	cfg, err := Parse([]byte("board:\n  size: 4\ntiming:\n  spawn_delay: 0s\n"))
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Board.Size)
	assert.Equal(t, 0.1, cfg.Board.FourProbability)
	assert.Equal(t, 2, cfg.Board.StartTiles)
	assert.Equal(t, time.Duration(0), cfg.Timing.SpawnDelay)
	assert.Equal(t, 60, cfg.Timing.TickRate)
	assert.Equal(t, ":8080", cfg.Web.Address)
	assert.Equal(t, time.Hour, cfg.Web.SessionTTL)
}

func TestParseRejectsBadYAML(t *testing.T) {
	_, err := Parse([]byte("board: [unclosed"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"size too small", func(c *Config) { c.Board.Size = 1 }},
		{"size too large", func(c *Config) { c.Board.Size = 9 }},
		{"negative probability", func(c *Config) { c.Board.FourProbability = -0.1 }},
		{"probability above one", func(c *Config) { c.Board.FourProbability = 1.5 }},
		{"no start tiles", func(c *Config) { c.Board.StartTiles = 0 }},
		{"too many start tiles", func(c *Config) { c.Board.StartTiles = 26 }},
		{"zero tick rate", func(c *Config) { c.Timing.TickRate = 0 }},
		{"negative delay", func(c *Config) { c.Timing.SpawnDelay = -time.Millisecond }},
		{"negative idle timeout", func(c *Config) { c.SSH.IdleTimeout = -time.Second }},
		{"negative session ttl", func(c *Config) { c.Web.SessionTTL = -time.Minute }},
		{"negative backups", func(c *Config) { c.Log.MaxBackups = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
}

func TestValidateBoundaries(t *testing.T) {
	cfg := Default()
	cfg.Board.Size = 8
	cfg.Board.StartTiles = 64
	cfg.Board.FourProbability = 1
	cfg.Timing.SpawnDelay = 0
	assert.NoError(t, cfg.Validate())

	cfg.Board.Size = 2
	cfg.Board.StartTiles = 4
	cfg.Board.FourProbability = 0
	assert.NoError(t, cfg.Validate())
}

func TestLoadCustomPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "merge5.yaml")
	require.NoError(t, os.WriteFile(path, []byte("board:\n  four_probability: 0.5\nweb:\n  address: \"127.0.0.1:9000\"\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.5, cfg.Board.FourProbability)
	assert.Equal(t, "127.0.0.1:9000", cfg.Web.Address)
	assert.Equal(t, path, cfg.Source)
}

func TestLoadCustomPathErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("board:\n  size: 12\n"), 0o644))
	_, err = Load(path)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestLoadFallsBackToEmbedded(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "embedded", cfg.Source)
	assert.Equal(t, 5, cfg.Board.Size)
}

func TestLoadPrefersUserFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(t.TempDir())

	require.NoError(t, os.MkdirAll(filepath.Join(home, ".merge5"), 0o755))
	require.NoError(t, os.MkdirAll("configs", 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(home, ".merge5", "config.yaml"), []byte("board:\n  size: 6\n"), 0o644))
	require.NoError(t, os.WriteFile(LocalPath, []byte("board:\n  size: 4\n"), 0o644))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.Board.Size)
}

func TestRules(t *testing.T) {
	r := Default().Rules()
	assert.Equal(t, 5, r.Size)
	assert.Equal(t, 0.1, r.FourProbability)
	assert.Equal(t, 2, r.StartTiles)
	assert.Equal(t, 150*time.Millisecond, r.SpawnDelay)
}
