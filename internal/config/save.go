package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// configFileName is the file name Load and Save use inside ConfigDir.
const configFileName = "config.yaml"

// Save writes the config to config.yaml in the user's config directory,
// where the next Load picks it up.
func (c *Config) Save() error {
	return c.SaveTo(filepath.Join(ConfigDir(), configFileName))
}

// SaveTo writes the config as YAML to path, creating parent directories
// as needed.
func (c *Config) SaveTo(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
