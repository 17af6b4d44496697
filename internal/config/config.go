// Package config provides configuration loading and structs for rofi-zotero.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment variables that override file settings.
const (
	EnvLibraryRoot = "ROFI_ZOTERO_LIBRARY"
	EnvDebug       = "ROFI_ZOTERO_DEBUG"
	EnvOpenCommand = "ROFI_ZOTERO_OPEN_COMMAND"
)

// Config holds all configuration for the application.
type Config struct {
	Debug    bool           `yaml:"debug"`
	LogFile  string         `yaml:"log_file"`
	Library  LibraryConfig  `yaml:"library"`
	History  HistoryConfig  `yaml:"history"`
	Open     OpenConfig     `yaml:"open"`
	Matching MatchingConfig `yaml:"matching"`
	Watch    WatchConfig    `yaml:"watch"`
}

// LibraryConfig locates and reads the Zotero library.
type LibraryConfig struct {
	Root           string `yaml:"root"`
	BusyTimeoutMS  int    `yaml:"busy_timeout_ms"`
	ExcludeTrashed bool   `yaml:"exclude_trashed"`
}

// HistoryConfig holds the selection history store settings.
type HistoryConfig struct {
	Backend    string `yaml:"backend"`
	Path       string `yaml:"path"`
	MaxEntries int    `yaml:"max_entries"`
}

// OpenConfig holds the command used to open attachments.
type OpenConfig struct {
	Command string `yaml:"command"`
}

// MatchingConfig holds token matching settings for search and list filters.
type MatchingConfig struct {
	Method        string `yaml:"method"`
	CaseSensitive bool   `yaml:"case_sensitive"`
	NegateChar    string `yaml:"negate_char"`
	MaxTypos      int    `yaml:"max_typos"`
}

// WatchConfig holds the watch command settings.
type WatchConfig struct {
	OutputPath string `yaml:"output_path"`
}

// NegateRune returns the first rune of NegateChar, or 0 when unset.
func (m *MatchingConfig) NegateRune() rune {
	for _, r := range m.NegateChar {
		return r
	}
	return 0
}

// DefaultPath returns $XDG_CONFIG_HOME/rofi-zotero/config.yaml, falling back to ~/.config.
func DefaultPath() (string, error) {
	cfgHome := os.Getenv("XDG_CONFIG_HOME")
	if cfgHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		cfgHome = filepath.Join(home, ".config")
	}
	return filepath.Join(cfgHome, "rofi-zotero", "config.yaml"), nil
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)
	cfg.expandPaths(filepath.Dir(path))
	return &cfg, nil
}

// LoadOrDefault behaves like Load but returns the defaults when path does not exist.
// The second return value reports whether the file was found.
func LoadOrDefault(path string) (*Config, bool, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := &Config{}
		ApplyDefaults(cfg)
		cfg.expandPaths(filepath.Dir(path))
		return cfg, false, nil
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, true, err
	}
	return cfg, true, nil
}

// ApplyEnv overrides settings from the environment. Call after Load.
func (c *Config) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvLibraryRoot)); v != "" {
		c.Library.Root = expandPath(v, "")
	}
	if v := strings.TrimSpace(os.Getenv(EnvDebug)); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Debug = b
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvOpenCommand)); v != "" {
		c.Open.Command = v
	}
}

// Save writes the config to path, creating the parent directory.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) expandPaths(configDir string) {
	c.Library.Root = expandPath(c.Library.Root, configDir)
	c.LogFile = expandPath(c.LogFile, configDir)
	c.History.Path = expandPath(c.History.Path, configDir)
	c.Watch.OutputPath = expandPath(c.Watch.OutputPath, configDir)
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// "~/" and other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if configDir != "" && (strings.HasPrefix(path, "./") || path == ".") {
		return filepath.Join(configDir, path)
	}
	path = strings.TrimPrefix(path, "~/")
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
