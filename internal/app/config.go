package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/stormhost/internal/plugin"
)

// Frontend names accepted in configuration.
const (
	FrontendNull    = "null"
	FrontendConsole = "console"
	FrontendTerm    = "term"
)

// Config is the host configuration, read from stormhost.toml.
type Config struct {
	Paths    PathsConfig    `toml:"paths"`
	Settings SettingsConfig `toml:"settings"`
	Loop     LoopConfig     `toml:"loop"`
	Logging  LoggingConfig  `toml:"logging"`
	UI       UIConfig       `toml:"ui"`
}

// PathsConfig locates settings, plugins and packages on disk.
type PathsConfig struct {
	// DefaultSettings holds the read-only settings layer.
	DefaultSettings string `toml:"default_settings"`
	// UserSettings holds the writable settings layer.
	UserSettings string `toml:"user_settings"`
	// Plugins are the directories searched for plugins, first hit wins.
	Plugins []string `toml:"plugins"`
	// Packages are the directories searched for resources.
	Packages []string `toml:"packages"`
}

// SettingsConfig controls the settings registry.
type SettingsConfig struct {
	// Watch reloads named settings when their files change on disk.
	Watch bool `toml:"watch"`
}

// LoopConfig sizes the dispatch loop.
type LoopConfig struct {
	AsyncWorkers int `toml:"async_workers"`
}

// LoggingConfig controls the application logger.
type LoggingConfig struct {
	// Level is debug, info, warn or error.
	Level string `toml:"level"`
	// Commands logs every executed command.
	Commands bool `toml:"commands"`
}

// UIConfig selects the user-facing surface.
type UIConfig struct {
	// Frontend is null, console or term.
	Frontend string `toml:"frontend"`
	// SystemClipboard routes clipboard calls to the OS clipboard.
	SystemClipboard bool `toml:"system_clipboard"`
}

// configBase returns the per-user configuration directory.
func configBase() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".stormhost"
	}
	return filepath.Join(home, ".config", "stormhost")
}

// DefaultConfigPath returns where LoadConfig looks without an explicit
// path.
func DefaultConfigPath() string {
	return filepath.Join(configBase(), "stormhost.toml")
}

// DefaultConfig returns the stock configuration.
func DefaultConfig() *Config {
	base := configBase()
	return &Config{
		Paths: PathsConfig{
			DefaultSettings: filepath.Join(base, "defaults"),
			UserSettings:    filepath.Join(base, "settings"),
			Plugins:         plugin.DefaultPluginPaths(),
			Packages:        []string{filepath.Join(base, "packages")},
		},
		Settings: SettingsConfig{Watch: true},
		Loop:     LoopConfig{AsyncWorkers: 4},
		Logging:  LoggingConfig{Level: "info"},
		UI:       UIConfig{Frontend: FrontendConsole},
	}
}

// LoadConfig reads the file at path over the defaults and applies
// STORMHOST_* environment overrides. An empty path means the default
// location, where a missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	optional := false
	if path == "" {
		path = DefaultConfigPath()
		optional = true
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err) && optional:
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg.applyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays STORMHOST_* variables. The lookup is a parameter so
// tests can run hermetically.
func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup("STORMHOST_DEFAULT_SETTINGS"); ok {
		c.Paths.DefaultSettings = v
	}
	if v, ok := lookup("STORMHOST_USER_SETTINGS"); ok {
		c.Paths.UserSettings = v
	}
	if v, ok := lookup("STORMHOST_PLUGIN_PATH"); ok {
		c.Paths.Plugins = filepath.SplitList(v)
	}
	if v, ok := lookup("STORMHOST_PACKAGES_PATH"); ok {
		c.Paths.Packages = filepath.SplitList(v)
	}
	if v, ok := lookup("STORMHOST_WATCH_SETTINGS"); ok {
		c.Settings.Watch = parseBool(v, c.Settings.Watch)
	}
	if v, ok := lookup("STORMHOST_ASYNC_WORKERS"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			c.Loop.AsyncWorkers = n
		}
	}
	if v, ok := lookup("STORMHOST_LOG_LEVEL"); ok {
		c.Logging.Level = v
	}
	if v, ok := lookup("STORMHOST_LOG_COMMANDS"); ok {
		c.Logging.Commands = parseBool(v, c.Logging.Commands)
	}
	if v, ok := lookup("STORMHOST_FRONTEND"); ok {
		c.UI.Frontend = v
	}
	if v, ok := lookup("STORMHOST_CLIPBOARD"); ok {
		c.UI.SystemClipboard = parseBool(v, c.UI.SystemClipboard)
	}
}

// parseBool follows the loose convention of settings files: true, yes,
// on and 1 are true; false, no, off and 0 are false.
func parseBool(s string, fallback bool) bool {
	switch strings.ToLower(s) {
	case "true", "yes", "on", "1":
		return true
	case "false", "no", "off", "0":
		return false
	}
	return fallback
}

// Validate checks the fields a typo would most likely corrupt.
func (c *Config) Validate() error {
	switch c.UI.Frontend {
	case FrontendNull, FrontendConsole, FrontendTerm:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFrontend, c.UI.Frontend)
	}
	if c.Loop.AsyncWorkers < 1 {
		return fmt.Errorf("%w: %d", ErrBadWorkerCount, c.Loop.AsyncWorkers)
	}
	return nil
}
