package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Load builds the effective configuration: defaults, overridden by the
// config file (explicit -config path, else the first found location),
// overridden by CLI flags.
func Load() (*Config, error) {
	cfg := Default()

	configPath := ConfigPath()
	if configPath == "" {
		configPath = findConfigFile()
	}
	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
		}
	}

	applyFlags(cfg)
	return cfg, nil
}

// findConfigFile checks the working directory first, then the user
// config directory (the location Save writes to).
func findConfigFile() string {
	if _, err := os.Stat(configFileName); err == nil {
		return configFileName
	}
	path := filepath.Join(ConfigDir(), configFileName)
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}

// ConfigDir returns the per-user settings directory for meshstudio.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "MeshStudio")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "MeshStudio")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "meshstudio")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "meshstudio")
	}
}

// loadFromFile merges the YAML file at path into cfg.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}
