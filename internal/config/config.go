// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for
// medinsight.
//
// Configuration is stored as TOML with sensible defaults and environment
// variable overrides.
//
// Configuration file locations (in order of precedence):
//   - $MEDINSIGHT_CONFIG (explicit path)
//   - ~/.medinsight/config.toml
//   - Built-in defaults
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/medinsight-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete medinsight configuration.
type Config struct {
	// Version of the config schema
	Version string `toml:"version"`

	// Server connection settings
	Server ServerConfig `toml:"server"`

	// UI defaults (the persisted preference store overrides these at
	// runtime; the config holds the first-run values)
	UI UIConfig `toml:"ui"`

	// Log settings
	Log LogConfig `toml:"log"`
}

// ServerConfig contains Medical Insight API connection settings.
type ServerConfig struct {
	// URL is the base URL of the backend
	URL string `toml:"url"`
	// TimeoutSecs is the timeout for non-streaming requests, in seconds
	TimeoutSecs int `toml:"timeout_secs"`
	// MaxRetries is the retry count for non-streaming requests
	MaxRetries int `toml:"max_retries"`
}

// UIConfig contains UI defaults.
type UIConfig struct {
	// Theme is "light", "dark" or "system"
	Theme string `toml:"theme"`
	// Language is the UI language tag (e.g. "en", "ru")
	Language string `toml:"language"`
	// SidebarVisible shows the chat sidebar on startup
	SidebarVisible bool `toml:"sidebar_visible"`
	// SidebarWidth is the sidebar width in columns
	SidebarWidth int `toml:"sidebar_width"`
	// ShowSteps renders the agent's reasoning trace under each answer
	ShowSteps bool `toml:"show_steps"`
}

// LogConfig contains debug logging settings.
type LogConfig struct {
	// Enabled turns on debug logging to a file. The TUI owns stdout, so
	// logs never go there.
	Enabled bool `toml:"enabled"`
	// Path is the log file path (empty = ~/.medinsight/debug.log)
	Path string `toml:"path"`
}

// CurrentVersion is the config schema version written by this build.
const CurrentVersion = "1"

// Default returns the built-in default configuration.
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		Server: ServerConfig{
			URL:         "http://localhost:8000",
			TimeoutSecs: 30,
			MaxRetries:  3,
		},
		UI: UIConfig{
			Theme:          "system",
			Language:       "en",
			SidebarVisible: true,
			SidebarWidth:   32,
			ShowSteps:      true,
		},
		Log: LogConfig{},
	}
}

// =============================================================================
// PATHS
// =============================================================================

// ConfigDir returns the medinsight configuration directory (~/.medinsight).
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".medinsight"), nil
}

// ConfigPath returns the active config file path, honoring the
// MEDINSIGHT_CONFIG override.
func ConfigPath() (string, error) {
	if path := os.Getenv("MEDINSIGHT_CONFIG"); path != "" {
		return path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureConfigDir creates the configuration directory if missing.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// =============================================================================
// LOAD / SAVE
// =============================================================================

// Load reads the configuration, applies environment overrides and
// validates the result. A missing file yields the defaults.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath reads the configuration from an explicit path.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg.fillDefaults()
	cfg.ApplyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadForEdit reads the configuration without applying environment
// overrides, so a read-modify-save cycle persists only file-backed
// values and never bakes the current environment into the file.
func LoadForEdit() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to the active config path atomically.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the configuration to an explicit path atomically.
func SaveTo(cfg *Config, path string) error {
	var sb strings.Builder
	sb.WriteString("# medinsight configuration\n\n")
	if err := toml.NewEncoder(&sb).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return util.AtomicWriteFile(path, []byte(sb.String()), 0600)
}

// fillDefaults backfills zero values left by partial config files.
func (c *Config) fillDefaults() {
	def := Default()
	if c.Version == "" {
		c.Version = def.Version
	}
	if c.Server.URL == "" {
		c.Server.URL = def.Server.URL
	}
	if c.Server.TimeoutSecs <= 0 {
		c.Server.TimeoutSecs = def.Server.TimeoutSecs
	}
	if c.Server.MaxRetries < 0 {
		c.Server.MaxRetries = def.Server.MaxRetries
	}
	if c.UI.Theme == "" {
		c.UI.Theme = def.UI.Theme
	}
	if c.UI.Language == "" {
		c.UI.Language = def.UI.Language
	}
	if c.UI.SidebarWidth <= 0 {
		c.UI.SidebarWidth = def.UI.SidebarWidth
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies MEDINSIGHT_* environment variables on top of
// the loaded configuration.
//
// Supported variables:
//   - MEDINSIGHT_SERVER_URL
//   - MEDINSIGHT_TIMEOUT_SECS
//   - MEDINSIGHT_THEME
//   - MEDINSIGHT_LANGUAGE
//   - MEDINSIGHT_DEBUG (enables debug logging)
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("MEDINSIGHT_SERVER_URL"); v != "" {
		c.Server.URL = v
	}
	if v := os.Getenv("MEDINSIGHT_TIMEOUT_SECS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			c.Server.TimeoutSecs = secs
		}
	}
	if v := os.Getenv("MEDINSIGHT_THEME"); v != "" {
		c.UI.Theme = v
	}
	if v := os.Getenv("MEDINSIGHT_LANGUAGE"); v != "" {
		c.UI.Language = v
	}
	if v := os.Getenv("MEDINSIGHT_DEBUG"); v == "1" || strings.EqualFold(v, "true") {
		c.Log.Enabled = true
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError describes one invalid config field.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// validThemes is the closed set of theme names.
var validThemes = map[string]bool{
	"light":  true,
	"dark":   true,
	"system": true,
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	parsed, err := url.Parse(c.Server.URL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return ValidationError{Field: "server.url", Message: fmt.Sprintf("invalid URL %q", c.Server.URL)}
	}
	if c.Server.TimeoutSecs <= 0 {
		return ValidationError{Field: "server.timeout_secs", Message: "must be positive"}
	}
	if !validThemes[c.UI.Theme] {
		return ValidationError{Field: "ui.theme", Message: fmt.Sprintf("unknown theme %q", c.UI.Theme)}
	}
	if c.UI.SidebarWidth < 16 || c.UI.SidebarWidth > 80 {
		return ValidationError{Field: "ui.sidebar_width", Message: "must be between 16 and 80"}
	}
	return nil
}

// LogPath resolves the debug log file path.
func (c *Config) LogPath() (string, error) {
	if c.Log.Path != "" {
		return c.Log.Path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "debug.log"), nil
}
