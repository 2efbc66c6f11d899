package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config is the static client configuration read at startup. Mutable
// preferences (theme choice, last thread, toggles) live in the prefs
// package instead.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Theme   ThemeConfig   `mapstructure:"theme"`
	Audio   AudioConfig   `mapstructure:"audio"`
	History HistoryConfig `mapstructure:"history"`
	Debug   DebugConfig   `mapstructure:"debug"`
}

// ServerConfig points at the assistant server.
type ServerConfig struct {
	URL string `mapstructure:"url"`
}

// ThemeConfig allows customization of UI colors.
// Colors can be ANSI color numbers (0-255) or hex codes (#RRGGBB).
type ThemeConfig struct {
	Primary   string `mapstructure:"primary"`   // main accent
	Secondary string `mapstructure:"secondary"` // headers, borders
	Success   string `mapstructure:"success"`
	Error     string `mapstructure:"error"`
	Muted     string `mapstructure:"muted"`
	Text      string `mapstructure:"text"`
	Spinner   string `mapstructure:"spinner"`
}

// AudioConfig configures local playback and capture.
type AudioConfig struct {
	Player string `mapstructure:"player"` // playback command, default autodetect
}

// HistoryConfig configures the local transcript archive.
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"` // override, supports :memory:
}

// DebugConfig configures the debug log file.
type DebugConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// GetConfigDir returns the XDG config directory for chatterm.
func GetConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "chatterm"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "chatterm"), nil
}

// GetDataDir returns the XDG data directory for chatterm.
func GetDataDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "chatterm"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "chatterm"), nil
}

// Load reads configuration from the config dir, the working directory
// and CHATTERM_* environment variables. A missing file is fine.
func Load() (*Config, error) {
	configPath, err := GetConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.SetEnvPrefix("chatterm")
	v.AutomaticEnv()

	v.SetDefault("server.url", "http://localhost:8000")
	v.SetDefault("history.enabled", true)
	v.SetDefault("debug.enabled", false)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}
