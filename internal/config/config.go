// Package config loads and saves tokenwatch configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds all tokenwatch configuration.
type Config struct {
	General      GeneralConfig      `toml:"general"`
	Plan         PlanConfig         `toml:"plan"`
	Display      DisplayConfig      `toml:"display"`
	Distribution DistributionConfig `toml:"distribution"`
}

// GeneralConfig holds runtime preferences.
type GeneralConfig struct {
	PollIntervalSec int    `toml:"poll_interval_sec"`
	Debug           bool   `toml:"debug"`
	StateFile       string `toml:"state_file,omitempty"`
	HistoryDB       string `toml:"history_db,omitempty"`
}

// PlanConfig selects the quota plan.
type PlanConfig struct {
	Name string `toml:"name"`
	// CustomLimit overrides the plan table when set.
	CustomLimit *int64 `toml:"custom_limit,omitempty"`
}

// DisplayConfig holds presentation settings. The timezone affects only how
// times are shown, never the window math.
type DisplayConfig struct {
	Timezone string `toml:"timezone"`
}

// DistributionConfig optionally overrides the hourly activity weights used
// to interpolate usage inside a window. The defaults are an unverified
// empirical table, so they are kept as data rather than code.
type DistributionConfig struct {
	HourWeights    []float64 `toml:"hour_weights,omitempty"`
	LateHourWeight *float64  `toml:"late_hour_weight,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			PollIntervalSec: 3,
		},
		Plan: PlanConfig{
			Name: PlanPro,
		},
		Display: DisplayConfig{
			Timezone: "Local",
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "tokenwatch")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "tokenwatch")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(ConfigPath(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}

// Location resolves the configured display timezone, falling back to local
// time on unknown names.
func (c Config) Location() *time.Location {
	switch c.Display.Timezone {
	case "", "Local":
		return time.Local
	}
	loc, err := time.LoadLocation(c.Display.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
