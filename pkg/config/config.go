package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Veraticus/highlite/pkg/logging"
	"github.com/Veraticus/highlite/pkg/preset"
	"github.com/Veraticus/highlite/pkg/source"
)

// ErrConfig marks configuration and usage errors.
var ErrConfig = errors.New("invalid configuration")

// Color modes.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Config holds all configuration for highlite
type Config struct {
	// Rule selection
	ConfigPath string `env:"HIGHLITE_CONFIG"`
	Preset     string `env:"HIGHLITE_PRESET"`
	IgnoreCase bool   `env:"HIGHLITE_IGNORE_CASE"`

	// Output
	Color    string `env:"HIGHLITE_COLOR"`
	LogLevel string `env:"HIGHLITE_LOG_LEVEL"`

	// Source selection
	File          string
	FollowFile    string
	FollowJournal bool
	Command       []string

	// Follow behavior
	Lines          int
	PollInterval   time.Duration
	JournalCommand string `env:"HIGHLITE_JOURNALCTL"`
	JournalArgs    []string
	Units          []string
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Color:          ColorAuto,
		LogLevel:       logging.DefaultLevel,
		Lines:          source.DefaultLines,
		PollInterval:   source.DefaultPollInterval,
		JournalCommand: source.DefaultJournalCommand,
	}
}

// Load returns the defaults overridden by environment variables. Command
// line flags are applied on top by the caller, which then calls Validate.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	if err := loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	return cfg, nil
}

// loadFromEnv loads configuration from environment variables
func loadFromEnv(cfg *Config) error {
	if path := os.Getenv("HIGHLITE_CONFIG"); path != "" {
		cfg.ConfigPath = path
	}

	if name := os.Getenv("HIGHLITE_PRESET"); name != "" {
		cfg.Preset = name
	}

	if ignore := os.Getenv("HIGHLITE_IGNORE_CASE"); ignore != "" {
		switch strings.ToLower(ignore) {
		case "true", "1", "yes":
			cfg.IgnoreCase = true
		case "false", "0", "no":
			cfg.IgnoreCase = false
		default:
			return fmt.Errorf("%w: invalid HIGHLITE_IGNORE_CASE value: %q (use true/false)", ErrConfig, ignore)
		}
	}

	if mode := os.Getenv("HIGHLITE_COLOR"); mode != "" {
		cfg.Color = strings.ToLower(mode)
	}

	if level := os.Getenv("HIGHLITE_LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}

	if bin := os.Getenv("HIGHLITE_JOURNALCTL"); bin != "" {
		cfg.JournalCommand = bin
	}

	return nil
}

// Validate checks the configuration. Errors wrap ErrConfig.
func (c *Config) Validate() error {
	switch c.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("%w: color must be auto, always or never, got %q", ErrConfig, c.Color)
	}

	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %w", ErrConfig, err)
	}

	if c.Preset != "" {
		if _, err := preset.Get(c.Preset); err != nil {
			return fmt.Errorf("%w: %w", ErrConfig, err)
		}
	}

	if c.Lines < 0 {
		return fmt.Errorf("%w: lines must be non-negative", ErrConfig)
	}

	if c.PollInterval <= 0 {
		return fmt.Errorf("%w: poll interval must be positive", ErrConfig)
	}

	if c.FollowJournal && c.JournalCommand == "" {
		return fmt.Errorf("%w: journal command must not be empty", ErrConfig)
	}

	return nil
}

// DefaultRulesPath returns the rule file used when neither a file nor a
// preset is configured. The file is optional.
func DefaultRulesPath() string {
	// Check XDG config directory
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "highlite", "config.yaml")
	}

	// Fall back to home directory
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "highlite", "config.yaml")
	}

	return ""
}
