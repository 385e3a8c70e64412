package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Band is a closed-interval acceptance test [Min, Max].
type Band struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// Contains reports whether v lies inside the band, endpoints included.
func (b Band) Contains(v float64) bool {
	return v >= b.Min && v <= b.Max
}

// Config is the complete engine configuration.
type Config struct {
	Account AccountConfig `json:"account" yaml:"account"`
	Market  MarketConfig  `json:"market" yaml:"market"`
	Entry   EntryConfig   `json:"entry" yaml:"entry"`
	Stops   StopConfig    `json:"stops" yaml:"stops"`
	Scan    ScanConfig    `json:"scan" yaml:"scan"`
	Store   StoreConfig   `json:"store" yaml:"store"`
	Journal JournalConfig `json:"journal" yaml:"journal"`
	Web     WebConfig     `json:"web" yaml:"web"`
}

// AccountConfig seeds the simulated account.
type AccountConfig struct {
	StartingCapital float64 `json:"starting_capital" yaml:"starting_capital"`
}

// MarketConfig names the underlying and the contract geometry.
type MarketConfig struct {
	Underlying   string  `json:"underlying" yaml:"underlying"`
	OptionType   string  `json:"option_type" yaml:"option_type"` // CE or PE
	LotSize      int     `json:"lot_size" yaml:"lot_size"`
	Lots         int     `json:"lots" yaml:"lots"`
	StrikeStep   float64 `json:"strike_step" yaml:"strike_step"`
	StrikeOffset float64 `json:"strike_offset" yaml:"strike_offset"` // points added to ATM
	RiskFreeRate float64 `json:"risk_free_rate" yaml:"risk_free_rate"`
	DividendYield float64 `json:"dividend_yield" yaml:"dividend_yield"`
}

// Quantity is the units per position: lots × lot size.
func (m MarketConfig) Quantity() float64 {
	return float64(m.Lots * m.LotSize)
}

// EntryConfig holds the acceptance-gate thresholds. Each greek band,
// the IV and premium bands, and the DTE floor are independent knobs.
type EntryConfig struct {
	Delta    Band    `json:"delta" yaml:"delta"`
	Gamma    Band    `json:"gamma" yaml:"gamma"`
	ThetaDay Band    `json:"theta_day" yaml:"theta_day"`
	Vega     Band    `json:"vega" yaml:"vega"`
	IV       Band    `json:"iv" yaml:"iv"`
	Premium  Band    `json:"premium" yaml:"premium"`
	MinDTE   float64 `json:"min_dte" yaml:"min_dte"`

	MaxTradesPerMonth int `json:"max_trades_per_month" yaml:"max_trades_per_month"`
	LossPauseCount    int `json:"loss_pause_count" yaml:"loss_pause_count"`
	BlackoutDays      int `json:"blackout_days" yaml:"blackout_days"`
	MaxOpenPositions  int `json:"max_open_positions" yaml:"max_open_positions"`

	Trend TrendConfig `json:"trend" yaml:"trend"`
}

// TrendConfig gates entries on an EMA of historical bars when enabled.
type TrendConfig struct {
	Enabled    bool   `json:"enabled" yaml:"enabled"`
	Period     int    `json:"period" yaml:"period"`
	Resolution string `json:"resolution" yaml:"resolution"` // e.g. "D", "60"
}

// LossPolicy selects how a stop close books realized P&L.
type LossPolicy string

const (
	// LossFixed books the configured stop distance × quantity as the
	// loss on every stop close, regardless of the ratcheted level.
	LossFixed LossPolicy = "fixed"
	// LossMark books the literal exit − entry difference.
	LossMark LossPolicy = "mark"
)

// StopConfig holds the ratchet tiers and the initial stop distance.
type StopConfig struct {
	InitialStopPoints float64    `json:"initial_stop_points" yaml:"initial_stop_points"`
	BreakevenBuffer   float64    `json:"breakeven_buffer" yaml:"breakeven_buffer"`
	Tier1Multiple     float64    `json:"tier1_multiple" yaml:"tier1_multiple"`
	Tier2Multiple     float64    `json:"tier2_multiple" yaml:"tier2_multiple"`
	TargetMultiple    float64    `json:"target_multiple" yaml:"target_multiple"`
	LooseTrailPoints  float64    `json:"loose_trail_points" yaml:"loose_trail_points"`
	TightTrailPoints  float64    `json:"tight_trail_points" yaml:"tight_trail_points"`
	LossPolicy        LossPolicy `json:"loss_policy" yaml:"loss_policy"`
}

// ScanConfig drives the orchestrator cadence.
type ScanConfig struct {
	Interval string `json:"interval" yaml:"interval"` // e.g. "5m"
	Stream   bool   `json:"stream" yaml:"stream"`     // also react to push ticks
}

// ParseInterval converts the interval string to a duration.
func (s ScanConfig) ParseInterval() (time.Duration, error) {
	if s.Interval == "" {
		return 5 * time.Minute, nil
	}
	return time.ParseDuration(s.Interval)
}

// StoreConfig locates the snapshot file.
type StoreConfig struct {
	Path string `json:"path" yaml:"path"`
}

// JournalConfig selects the trade-log backend.
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "csv" or "sqlite"
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// WebConfig configures the health endpoint.
type WebConfig struct {
	Addr string `json:"addr" yaml:"addr"`
}

// LoadFromFile loads configuration from a file (YAML first, JSON fallback).
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveToFile writes the configuration (YAML by extension, else JSON).
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	if c.Account.StartingCapital <= 0 {
		return fmt.Errorf("account.starting_capital must be positive")
	}
	if c.Market.Underlying == "" {
		return fmt.Errorf("market.underlying is required")
	}
	if c.Market.OptionType != "CE" && c.Market.OptionType != "PE" {
		return fmt.Errorf("market.option_type must be CE or PE")
	}
	if c.Market.LotSize <= 0 || c.Market.Lots <= 0 {
		return fmt.Errorf("market.lot_size and market.lots must be positive")
	}
	if c.Market.StrikeStep <= 0 {
		return fmt.Errorf("market.strike_step must be positive")
	}
	for _, b := range []struct {
		name string
		band Band
	}{
		{"entry.delta", c.Entry.Delta},
		{"entry.gamma", c.Entry.Gamma},
		{"entry.theta_day", c.Entry.ThetaDay},
		{"entry.vega", c.Entry.Vega},
		{"entry.iv", c.Entry.IV},
		{"entry.premium", c.Entry.Premium},
	} {
		if b.band.Min > b.band.Max {
			return fmt.Errorf("%s: min %v exceeds max %v", b.name, b.band.Min, b.band.Max)
		}
	}
	if c.Entry.MinDTE < 0 {
		return fmt.Errorf("entry.min_dte must not be negative")
	}
	if c.Entry.MaxTradesPerMonth <= 0 {
		return fmt.Errorf("entry.max_trades_per_month must be positive")
	}
	if c.Entry.LossPauseCount <= 0 {
		return fmt.Errorf("entry.loss_pause_count must be positive")
	}
	if c.Entry.BlackoutDays < 0 {
		return fmt.Errorf("entry.blackout_days must not be negative")
	}
	if c.Entry.MaxOpenPositions <= 0 {
		return fmt.Errorf("entry.max_open_positions must be positive")
	}
	if c.Entry.Trend.Enabled && c.Entry.Trend.Period <= 0 {
		return fmt.Errorf("entry.trend.period must be positive when trend gate enabled")
	}
	if c.Stops.InitialStopPoints <= 0 {
		return fmt.Errorf("stops.initial_stop_points must be positive")
	}
	if !(c.Stops.Tier1Multiple < c.Stops.Tier2Multiple && c.Stops.Tier2Multiple < c.Stops.TargetMultiple) {
		return fmt.Errorf("stops tiers must be strictly increasing: tier1 < tier2 < target")
	}
	if c.Stops.Tier1Multiple <= 1 {
		return fmt.Errorf("stops.tier1_multiple must exceed 1")
	}
	if c.Stops.LossPolicy != LossFixed && c.Stops.LossPolicy != LossMark {
		return fmt.Errorf("stops.loss_policy must be %q or %q", LossFixed, LossMark)
	}
	if _, err := c.Scan.ParseInterval(); err != nil {
		return fmt.Errorf("scan.interval: %w", err)
	}
	if c.Store.Path == "" {
		return fmt.Errorf("store.path is required")
	}
	if c.Journal.Type != "csv" && c.Journal.Type != "sqlite" {
		return fmt.Errorf("journal.type must be 'csv' or 'sqlite'")
	}
	if c.Journal.Type == "csv" && (c.Journal.TradesFile == "" || c.Journal.EquityFile == "") {
		return fmt.Errorf("journal trades_file and equity_file required for CSV type")
	}
	if c.Journal.Type == "sqlite" && c.Journal.DBPath == "" {
		return fmt.Errorf("journal db_path required for SQLite type")
	}
	return nil
}

// Default returns a configuration with sensible defaults for a NIFTY
// monthly call-buying forward test.
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			StartingCapital: 100000,
		},
		Market: MarketConfig{
			Underlying:    "NSE:NIFTY50-INDEX",
			OptionType:    "CE",
			LotSize:       75,
			Lots:          1,
			StrikeStep:    50,
			StrikeOffset:  0,
			RiskFreeRate:  0.07,
			DividendYield: 0,
		},
		Entry: EntryConfig{
			Delta:    Band{Min: 0.45, Max: 0.60},
			Gamma:    Band{Min: 0.0001, Max: 0.01},
			ThetaDay: Band{Min: -15, Max: -2},
			Vega:     Band{Min: 10, Max: 40},
			IV:       Band{Min: 10, Max: 20},
			Premium:  Band{Min: 80, Max: 250},
			MinDTE:   10,

			MaxTradesPerMonth: 4,
			LossPauseCount:    3,
			BlackoutDays:      7,
			MaxOpenPositions:  1,

			Trend: TrendConfig{
				Enabled:    false,
				Period:     20,
				Resolution: "D",
			},
		},
		Stops: StopConfig{
			InitialStopPoints: 60,
			BreakevenBuffer:   8,
			Tier1Multiple:     1.5,
			Tier2Multiple:     1.7,
			TargetMultiple:    2.0,
			LooseTrailPoints:  35,
			TightTrailPoints:  20,
			LossPolicy:        LossFixed,
		},
		Scan: ScanConfig{
			Interval: "5m",
			Stream:   false,
		},
		Store: StoreConfig{
			Path: "./state.json",
		},
		Journal: JournalConfig{
			Type:       "csv",
			TradesFile: "./trades.csv",
			EquityFile: "./equity.csv",
		},
		Web: WebConfig{
			Addr: ":8080",
		},
	}
}
