package config

import (
	"fmt"

	"github.com/spf13/pflag"

	"slideshow/models"
)

// Load builds the effective configuration with priority:
// CLI flags > config file > defaults.
//
// configPath selects the file; when empty the standard locations are
// searched and a missing file is not an error. The path actually used is
// returned, empty if none. fs may be nil.
func Load(configPath string, fs *pflag.FlagSet) (*Config, string, error) {
	cfg := DefaultConfig()

	if configPath == "" {
		configPath = FindConfigFile()
	}

	if configPath != "" {
		fileCfg, err := LoadConfigFile(configPath)
		if err != nil {
			return nil, "", fmt.Errorf("%w: failed to load config file %s: %w", models.ErrConfig, configPath, err)
		}
		cfg = fileCfg
	}

	if fs != nil {
		if err := cfg.MergeFromFlags(fs); err != nil {
			return nil, "", err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}

	return cfg, configPath, nil
}
