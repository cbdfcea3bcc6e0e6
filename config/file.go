package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// isTOML reports whether path should be read as TOML rather than YAML.
func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// LoadConfigFile loads configuration from a YAML or TOML file, chosen by
// extension. Fields absent from the file keep their defaults; unknown keys
// are rejected.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if isTOML(path) {
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		return cfg, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// ConfigSearchPaths returns the locations FindConfigFile checks, in order.
func ConfigSearchPaths() []string {
	home, _ := os.UserHomeDir()
	paths := []string{
		"./slideshow.yaml",
		"./slideshow.yml",
		"./slideshow.toml",
	}
	if home != "" {
		paths = append(paths,
			filepath.Join(home, ".slideshow", "config.yaml"),
			filepath.Join(home, ".slideshow", "config.toml"),
		)
	}
	return append(paths,
		"/etc/slideshow/config.yaml",
		"/etc/slideshow/config.toml",
	)
}

// FindConfigFile searches for config file in standard locations
// Returns empty string if not found (non-fatal)
func FindConfigFile() string {
	for _, path := range ConfigSearchPaths() {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// Marshal encodes cfg as YAML, or TOML when toTOML is set.
func Marshal(cfg *Config, toTOML bool) ([]byte, error) {
	if toTOML {
		return toml.Marshal(cfg)
	}
	return yaml.Marshal(cfg)
}

// SaveConfigFile saves configuration to a YAML or TOML file, chosen by
// extension.
func SaveConfigFile(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := Marshal(cfg, isTOML(path))
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
