package infra

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// SeedInstrument is one instrument listed on startup.
type SeedInstrument struct {
	Symbol string          `yaml:"symbol"`
	Name   string          `yaml:"name"`
	Price  decimal.Decimal `yaml:"price"`
}

// Config holds the full application configuration. Loaded from YAML, then
// selectively overridden by environment variables.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Market struct {
		Symbols        []SeedInstrument `yaml:"symbols"`
		TickIntervalMS int              `yaml:"tick_interval_ms"`
	} `yaml:"market"`

	Trading struct {
		StartingCash        decimal.Decimal `yaml:"starting_cash"`
		SnapshotIntervalSec int             `yaml:"snapshot_interval_sec"`
	} `yaml:"trading"`

	Data struct {
		Dir string `yaml:"dir"` // transaction log, holdings file, catalog DB
	} `yaml:"data"`

	Stream struct {
		Enabled    bool   `yaml:"enabled"`
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"stream"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// DefaultConfig mirrors the classic simulation setup: five seeded symbols,
// a 3s tick, a 30s snapshot cycle, and 10000.00 starting cash.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.App.Name = "stock_go"
	cfg.App.Version = "dev"
	cfg.Market.Symbols = []SeedInstrument{
		{Symbol: "AAPL", Name: "Apple Inc.", Price: decimal.NewFromFloat(170.0)},
		{Symbol: "GOOGL", Name: "Alphabet Inc.", Price: decimal.NewFromFloat(135.0)},
		{Symbol: "MSFT", Name: "Microsoft Corp.", Price: decimal.NewFromFloat(310.0)},
		{Symbol: "TSLA", Name: "Tesla Inc.", Price: decimal.NewFromFloat(250.0)},
		{Symbol: "INFY", Name: "Infosys Ltd.", Price: decimal.NewFromFloat(22.0)},
	}
	cfg.Market.TickIntervalMS = 3000
	cfg.Trading.StartingCash = decimal.NewFromFloat(10000.0)
	cfg.Trading.SnapshotIntervalSec = 30
	cfg.Data.Dir = "data"
	cfg.Stream.Enabled = false
	cfg.Stream.ListenAddr = "localhost:8701"
	cfg.Logging.Level = "info"
	return cfg
}

// LoadConfig reads and parses the config file. A missing file is not an
// error; the defaults apply.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	overrideWithEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	if len(c.Market.Symbols) == 0 {
		return fmt.Errorf("at least one market symbol is required")
	}
	for _, s := range c.Market.Symbols {
		if s.Symbol == "" {
			return fmt.Errorf("market symbol must not be empty")
		}
		if !s.Price.IsPositive() {
			return fmt.Errorf("seed price for %s must be positive", s.Symbol)
		}
	}
	if c.Market.TickIntervalMS <= 0 {
		return fmt.Errorf("tick interval must be positive")
	}
	if c.Trading.SnapshotIntervalSec <= 0 {
		return fmt.Errorf("snapshot interval must be positive")
	}
	if c.Trading.StartingCash.IsNegative() {
		return fmt.Errorf("starting cash must not be negative")
	}
	if c.Data.Dir == "" {
		return fmt.Errorf("data dir must not be empty")
	}
	return nil
}

// overrideWithEnv applies environment variable overrides when present.
func overrideWithEnv(cfg *Config) {
	if dir := os.Getenv("STOCK_DATA_DIR"); dir != "" {
		cfg.Data.Dir = dir
	}
	if addr := os.Getenv("STOCK_STREAM_ADDR"); addr != "" {
		cfg.Stream.ListenAddr = addr
	}
	if level := os.Getenv("STOCK_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
}
