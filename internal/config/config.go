// Package config loads and saves the tutstat TOML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/theirongolddev/tutstat/internal/model"
)

// Config holds all tutstat configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Rankings   RankingsConfig   `toml:"rankings"`
	Histograms HistogramsConfig `toml:"histograms"`
	Daemon     DaemonConfig     `toml:"daemon"`
	Logging    LoggingConfig    `toml:"logging"`
}

// GeneralConfig holds source and load settings.
type GeneralConfig struct {
	Source                  string `toml:"source,omitempty"`
	RejectNegativeDurations bool   `toml:"reject_negative_durations"`
}

// RankingsConfig holds top-N ranking settings.
type RankingsConfig struct {
	TopN int `toml:"top_n"`
}

// HistogramsConfig holds the bucket domains of the two per-user histograms.
type HistogramsConfig struct {
	Durations model.HistogramSpec `toml:"durations"`
	Views     model.HistogramSpec `toml:"views"`
}

// DaemonConfig holds query server settings.
type DaemonConfig struct {
	Addr string `toml:"addr"`
}

// LoggingConfig holds log settings. Format is "console" or "json".
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			RejectNegativeDurations: true,
		},
		Rankings: RankingsConfig{
			TopN: 10,
		},
		Histograms: HistogramsConfig{
			Durations: model.HistogramSpec{Start: 0, End: 60, Size: 1},
			Views:     model.HistogramSpec{Start: 0, End: 50, Size: 1},
		},
		Daemon: DaemonConfig{
			Addr: "127.0.0.1:8787",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Dir returns the XDG-compliant config directory.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "tutstat")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "tutstat")
}

// Path returns the full path to the config file.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	return LoadFile(Path())
}

// LoadFile reads the config at path over the defaults.
func LoadFile(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
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
	return SaveFile(Path(), cfg)
}

// SaveFile writes the config to path, creating its directory.
func SaveFile(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// GetSource returns the dataset source from env var or config, in that order.
func GetSource(cfg Config) string {
	if src := os.Getenv("TUTSTAT_SOURCE"); src != "" {
		return src
	}
	return cfg.General.Source
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(Path())
	return err == nil
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs []error
	if c.Rankings.TopN <= 0 {
		errs = append(errs, fmt.Errorf("rankings.top_n must be positive, got %d", c.Rankings.TopN))
	}
	for name, spec := range map[string]model.HistogramSpec{
		"durations": c.Histograms.Durations,
		"views":     c.Histograms.Views,
	} {
		if !spec.Valid() {
			errs = append(errs, fmt.Errorf("histograms.%s: need finite start < end and 0 < size with at most %d buckets, got %+v",
				name, model.MaxHistogramBuckets, spec))
		}
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format))
	}
	return errors.Join(errs...)
}
