package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/tutstat/internal/model"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.General.RejectNegativeDurations)
	assert.Equal(t, 10, cfg.Rankings.TopN)
	assert.Equal(t, model.HistogramSpec{Start: 0, End: 60, Size: 1}, cfg.Histograms.Durations)
	assert.Equal(t, model.HistogramSpec{Start: 0, End: 50, Size: 1}, cfg.Histograms.Views)
}

func TestLoadFile_Missing(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "none.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadFile_PartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[general]
source = "/data/tutorials.zip"
reject_negative_durations = false

[rankings]
top_n = 5

[histograms.views]
start = 0
end = 40
size = 1
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/tutorials.zip", cfg.General.Source)
	assert.False(t, cfg.General.RejectNegativeDurations)
	assert.Equal(t, 5, cfg.Rankings.TopN)
	assert.Equal(t, 40.0, cfg.Histograms.Views.End)
	assert.Equal(t, 60.0, cfg.Histograms.Durations.End, "unset sections keep defaults")
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFile_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[rankings\ntop_n = "), 0o600))
	_, err := LoadFile(path)
	assert.ErrorContains(t, err, "parsing config")
}

func TestSaveFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := DefaultConfig()
	cfg.General.Source = "/srv/data"
	cfg.Daemon.Addr = ":9000"
	cfg.Histograms.Durations = model.HistogramSpec{Start: 0, End: 120, Size: 5}

	require.NoError(t, SaveFile(path, cfg))
	got, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestGetSource(t *testing.T) {
	cfg := DefaultConfig()
	cfg.General.Source = "/from/config"

	t.Setenv("TUTSTAT_SOURCE", "")
	assert.Equal(t, "/from/config", GetSource(cfg))

	t.Setenv("TUTSTAT_SOURCE", "/from/env")
	assert.Equal(t, "/from/env", GetSource(cfg))
}

func TestPath_XDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	assert.Equal(t, "/tmp/xdg/tutstat/config.toml", Path())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"zero top_n", func(c *Config) { c.Rankings.TopN = 0 }, "top_n"},
		{"zero width", func(c *Config) { c.Histograms.Views.Size = 0 }, "histograms.views"},
		{"inverted domain", func(c *Config) { c.Histograms.Durations.End = -1 }, "histograms.durations"},
		{"nan size", func(c *Config) { c.Histograms.Views.Size = math.NaN() }, "histograms.views"},
		{"too many buckets", func(c *Config) { c.Histograms.Durations.Size = 1e-9 }, "histograms.durations"},
		{"infinite end", func(c *Config) { c.Histograms.Views.End = math.Inf(1) }, "histograms.views"},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.errMsg)
		})
	}
}
