package infra

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if len(cfg.Market.Symbols) != 5 {
		t.Errorf("Expected 5 default symbols, got %d", len(cfg.Market.Symbols))
	}
	if !cfg.Trading.StartingCash.Equal(decimal.NewFromInt(10000)) {
		t.Errorf("Expected default starting cash 10000, got %v", cfg.Trading.StartingCash)
	}
	if cfg.Market.TickIntervalMS != 3000 {
		t.Errorf("Expected default tick interval 3000ms, got %d", cfg.Market.TickIntervalMS)
	}
}

func TestLoadConfig_ParsesFile(t *testing.T) {
	yaml := `
market:
  symbols:
    - symbol: AAPL
      name: Apple Inc.
      price: 170.0
  tick_interval_ms: 500
trading:
  starting_cash: 2500.50
  snapshot_interval_sec: 5
data:
  dir: testdata_dir
logging:
  level: debug
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if len(cfg.Market.Symbols) != 1 || cfg.Market.Symbols[0].Symbol != "AAPL" {
		t.Errorf("Unexpected symbols: %+v", cfg.Market.Symbols)
	}
	if !cfg.Trading.StartingCash.Equal(decimal.NewFromFloat(2500.50)) {
		t.Errorf("Expected starting cash 2500.50, got %v", cfg.Trading.StartingCash)
	}
	if cfg.Market.TickIntervalMS != 500 {
		t.Errorf("Expected tick interval 500, got %d", cfg.Market.TickIntervalMS)
	}
	if cfg.Data.Dir != "testdata_dir" {
		t.Errorf("Expected data dir testdata_dir, got %s", cfg.Data.Dir)
	}
}

func TestLoadConfig_RejectsInvalid(t *testing.T) {
	yaml := `
market:
  symbols:
    - symbol: AAPL
      price: -1.0
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadConfig(path); err == nil {
		t.Error("Expected validation error for negative seed price")
	}
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("STOCK_DATA_DIR", "/tmp/override")

	yaml := "data:\n  dir: from_file\n"
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Data.Dir != "/tmp/override" {
		t.Errorf("Expected env override, got %s", cfg.Data.Dir)
	}
}
