package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LocalPath is the project-local config file.
const LocalPath = "configs/merge5.yaml"

// Load reads and validates the configuration.
// Search order: customPath -> ~/.merge5/config.yaml -> ./configs/merge5.yaml -> embedded default.
// A custom path must exist and parse; the other files are skipped when
// missing or unreadable.
func Load(customPath string) (Config, error) {
	if customPath != "" {
		cfg, err := loadFile(customPath)
		if err != nil {
			return cfg, err
		}
		return cfg, cfg.Validate()
	}

	for _, path := range []string{UserPath(), LocalPath} {
		if path == "" {
			continue
		}
		cfg, err := loadFile(path)
		if err == nil {
			return cfg, cfg.Validate()
		}
	}

	cfg, err := Parse(defaultYAML)
	if err != nil {
		return Default(), nil
	}
	cfg.Source = "embedded"
	return cfg, nil
}

// Parse decodes YAML over the built-in defaults, so a partial file only
// overrides the keys it sets.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse: %w", err)
	}
	return cfg, nil
}

func loadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Default(), fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return cfg, fmt.Errorf("config: %s: %w", path, errors.Unwrap(err))
	}
	cfg.Source = path
	return cfg, nil
}

// UserPath returns ~/.merge5/config.yaml, or empty if home is unavailable.
func UserPath() string {
	dir := HomeDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// HomeDir returns ~/.merge5, or empty if home is unavailable.
func HomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".merge5")
}
