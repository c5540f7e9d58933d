// Package config loads the posecheck configuration from layered sources.
// Priority: environment variables > local config > global config > defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Configuration represents the posecheck CLI tool configuration.
type Configuration struct {
	Strict       bool     `koanf:"strict"`                                            // Treat advisories as errors
	MaxErrors    int      `koanf:"max_errors" validate:"min=0"`                       // Error budget; 0 = unlimited
	Splits       []string `koanf:"splits" validate:"omitempty,dive,oneof=Train Test"` // Subset of splits to validate
	Workers      int      `koanf:"workers" validate:"min=1,max=64"`                   // Concurrent session validations
	LogLevel     string   `koanf:"log_level" validate:"oneof=debug info warn error"`
	LogFormat    string   `koanf:"log_format" validate:"oneof=text json"`
	StateDir     string   `koanf:"state_dir" validate:"required"`  // Run history location
	ShowProgress bool     `koanf:"show_progress"`                  // Spinner during scans (TTY only)
	NoColor      bool     `koanf:"no_color"`                       // Disable colored output
	HistoryLimit int      `koanf:"history_limit" validate:"min=0"` // Max retained history entries
}

// Load loads configuration from global, local, and environment sources.
func Load(localConfigPath string) (*Configuration, error) {
	k := koanf.New(".")

	// Apply defaults first
	for key, value := range GetDefaults() {
		k.Set(key, value)
	}

	// Load global config if it exists
	if homeDir, err := os.UserHomeDir(); err == nil {
		globalPath := filepath.Join(homeDir, ".posecheck", "config.json")
		if _, err := os.Stat(globalPath); err == nil {
			if err := k.Load(file.Provider(globalPath), json.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load global config: %w", err)
			}
		}
	}

	// Load local config if it exists
	if localConfigPath != "" {
		if _, err := os.Stat(localConfigPath); err == nil {
			if err := k.Load(file.Provider(localConfigPath), json.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load local config: %w", err)
			}
		}
	}

	// Override with environment variables (highest priority)
	k.Load(env.Provider("POSECHECK_", ".", envTransform), nil)

	var cfg Configuration
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	cfg.StateDir = expandHomePath(cfg.StateDir)

	// NO_COLOR is honored alongside the config knob
	if os.Getenv("NO_COLOR") != "" {
		cfg.NoColor = true
	}

	return &cfg, nil
}

// envTransform converts environment variable names to config keys.
// Example: POSECHECK_MAX_ERRORS -> max_errors
func envTransform(s string) string {
	return strings.ToLower(strings.TrimPrefix(s, "POSECHECK_"))
}

// expandHomePath expands a leading ~ to the user's home directory.
func expandHomePath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if homeDir, err := os.UserHomeDir(); err == nil {
			return filepath.Join(homeDir, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
