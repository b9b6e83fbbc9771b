package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/oarkflow/mustache"
)

// Config holds the settings a mustache.toml file may provide. Command-line
// flags take precedence over it.
type Config struct {
	LogLevel    string   `toml:"log_level"`
	Delimiters  []string `toml:"delimiters"`
	Escape      string   `toml:"escape"`
	PartialsDir string   `toml:"partials_dir"`
	PartialExt  string   `toml:"partial_ext"`
	Output      string   `toml:"output"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:   "warn",
		Escape:     "html",
		PartialExt: ".mustache",
	}
}

// LoadConfig reads the TOML configuration at path over the defaults. A
// missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if len(c.Delimiters) != 0 && len(c.Delimiters) != 2 {
		return fmt.Errorf("delimiters: want 2 values, got %d", len(c.Delimiters))
	}
	if _, err := c.Escaper(); err != nil {
		return err
	}
	return nil
}

// Escaper returns the escaping function named by c.Escape.
func (c *Config) Escaper() (func(string) string, error) {
	switch strings.ToLower(c.Escape) {
	case "", "html":
		return mustache.EscapeHTML, nil
	case "none":
		return mustache.NoEscape, nil
	case "strict":
		return mustache.SanitizeHTML, nil
	}
	return nil, fmt.Errorf("escape: unknown policy %q", c.Escape)
}

// Level returns the slog level named by c.LogLevel, defaulting to info.
func (c *Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
