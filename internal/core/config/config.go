// Package config handles configuration loading and validation for adbdeck.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Supported themes.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// Config holds the application configuration.
type Config struct {
	ADBPath       string         `yaml:"adb_path"`
	FastbootPath  string         `yaml:"fastboot_path"`
	Dispatch      DispatchConfig `yaml:"dispatch"`
	Log           LogConfig      `yaml:"log"`
	ScreenshotDir string         `yaml:"screenshot_dir"`
	Theme         string         `yaml:"theme"`
	MetricsAddr   string         `yaml:"metrics_addr"`
	UserCommands  []UserCommand  `yaml:"commands"`
	DataDir       string         `yaml:"-"` // set by caller, not from config file
}

// DispatchConfig bounds how external commands are run.
type DispatchConfig struct {
	MaxWorkers   int           `yaml:"max_workers"`
	Timeout      time.Duration `yaml:"timeout"`       // 0 disables the per-command timeout
	StreamBuffer int           `yaml:"stream_buffer"` // line channel capacity for logcat
}

// LogConfig configures the in-app output log.
type LogConfig struct {
	MaxLines int `yaml:"max_lines"` // 0 keeps every line
}

// UserCommand is an extra button in the action grid. Line is parsed like
// the custom command input: a leading "fastboot" selects fastboot.
type UserCommand struct {
	Name string `yaml:"name"`
	Line string `yaml:"line"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		ADBPath:      "adb",
		FastbootPath: "fastboot",
		Dispatch: DispatchConfig{
			MaxWorkers:   4,
			StreamBuffer: 256,
		},
		ScreenshotDir: ".",
		Theme:         ThemeLight,
	}
}

// Load reads configuration from the given path and sets the data directory.
// If configPath is empty or doesn't exist, returns defaults with the provided dataDir.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.DataDir = dataDir

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}

			// Re-set dataDir since Unmarshal may have cleared it
			cfg.DataDir = dataDir
		}
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.ADBPath == "" {
		c.ADBPath = defaults.ADBPath
	}
	if c.FastbootPath == "" {
		c.FastbootPath = defaults.FastbootPath
	}
	if c.Dispatch.MaxWorkers == 0 {
		c.Dispatch.MaxWorkers = defaults.Dispatch.MaxWorkers
	}
	if c.Dispatch.StreamBuffer == 0 {
		c.Dispatch.StreamBuffer = defaults.Dispatch.StreamBuffer
	}
	if c.ScreenshotDir == "" {
		c.ScreenshotDir = defaults.ScreenshotDir
	}
	if c.Theme == "" {
		c.Theme = defaults.Theme
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.ADBPath == "" {
		return fmt.Errorf("adb_path cannot be empty")
	}

	if c.FastbootPath == "" {
		return fmt.Errorf("fastboot_path cannot be empty")
	}

	if c.Dispatch.MaxWorkers < 1 {
		return fmt.Errorf("dispatch.max_workers must be at least 1")
	}

	if c.Dispatch.Timeout < 0 {
		return fmt.Errorf("dispatch.timeout cannot be negative")
	}

	if c.Dispatch.StreamBuffer < 1 {
		return fmt.Errorf("dispatch.stream_buffer must be at least 1")
	}

	if c.Log.MaxLines < 0 {
		return fmt.Errorf("log.max_lines cannot be negative")
	}

	if !IsValidTheme(c.Theme) {
		return fmt.Errorf("theme must be %q or %q, got %q", ThemeLight, ThemeDark, c.Theme)
	}

	seen := make(map[string]bool, len(c.UserCommands))
	for i, uc := range c.UserCommands {
		if uc.Name == "" {
			return fmt.Errorf("commands[%d]: name is required", i)
		}
		if seen[uc.Name] {
			return fmt.Errorf("commands[%d]: duplicate name %q", i, uc.Name)
		}
		seen[uc.Name] = true
	}

	return nil
}

// IsValidTheme reports whether name is a supported theme.
func IsValidTheme(name string) bool {
	return name == ThemeLight || name == ThemeDark
}
