package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBandContains(t *testing.T) {
	t.Parallel()

	b := Band{Min: 0.45, Max: 0.60}

	// Closed interval: endpoints included.
	assert.True(t, b.Contains(0.45))
	assert.True(t, b.Contains(0.60))
	assert.True(t, b.Contains(0.5))
	assert.False(t, b.Contains(0.4499))
	assert.False(t, b.Contains(0.6001))
}

func TestDefaultValidates(t *testing.T) {
	t.Parallel()

	assert.NoError(t, Default().Validate())
}

func TestValidateRejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero capital", func(c *Config) { c.Account.StartingCapital = 0 }},
		{"missing underlying", func(c *Config) { c.Market.Underlying = "" }},
		{"bad option type", func(c *Config) { c.Market.OptionType = "CALL" }},
		{"zero lot size", func(c *Config) { c.Market.LotSize = 0 }},
		{"inverted delta band", func(c *Config) { c.Entry.Delta = Band{Min: 0.7, Max: 0.5} }},
		{"negative min dte", func(c *Config) { c.Entry.MinDTE = -1 }},
		{"zero monthly cap", func(c *Config) { c.Entry.MaxTradesPerMonth = 0 }},
		{"zero loss pause", func(c *Config) { c.Entry.LossPauseCount = 0 }},
		{"zero max open", func(c *Config) { c.Entry.MaxOpenPositions = 0 }},
		{"trend without period", func(c *Config) { c.Entry.Trend.Enabled = true; c.Entry.Trend.Period = 0 }},
		{"zero stop distance", func(c *Config) { c.Stops.InitialStopPoints = 0 }},
		{"tiers out of order", func(c *Config) { c.Stops.Tier2Multiple = 2.5 }},
		{"tier1 below one", func(c *Config) { c.Stops.Tier1Multiple = 0.9; c.Stops.Tier2Multiple = 0.95; c.Stops.TargetMultiple = 0.99 }},
		{"unknown loss policy", func(c *Config) { c.Stops.LossPolicy = "maybe" }},
		{"bad interval", func(c *Config) { c.Scan.Interval = "five minutes" }},
		{"missing store path", func(c *Config) { c.Store.Path = "" }},
		{"bad journal type", func(c *Config) { c.Journal.Type = "parquet" }},
		{"csv without files", func(c *Config) { c.Journal.TradesFile = "" }},
		{"sqlite without path", func(c *Config) { c.Journal.Type = "sqlite"; c.Journal.DBPath = "" }},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := Default()
	cfg.Entry.Delta = Band{Min: 0.40, Max: 0.55}
	cfg.Stops.LossPolicy = LossMark
	require.NoError(t, cfg.SaveToFile(path))

	got, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
