package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
)

func writeTestConfig(t *testing.T, dir string) string {
	t.Helper()
	yaml := `
market:
  symbols:
    - symbol: AAPL
      name: Apple Inc.
      price: 170.0
    - symbol: MSFT
      name: Microsoft Corp.
      price: 310.0
  tick_interval_ms: 1000
trading:
  starting_cash: 10000.0
  snapshot_interval_sec: 30
data:
  dir: ` + dir + `
`
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBootstrap_SeedsMarket(t *testing.T) {
	dir := t.TempDir()
	b := NewBootstrap()
	if err := b.Initialize(writeTestConfig(t, dir)); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	if len(b.Market.List()) != 2 {
		t.Fatalf("Expected 2 instruments, got %d", len(b.Market.List()))
	}
	inst, ok := b.Market.Lookup("AAPL")
	if !ok {
		t.Fatal("AAPL should be listed")
	}
	if !inst.Price().Equal(decimal.NewFromInt(170)) {
		t.Errorf("Expected seed price 170, got %v", inst.Price())
	}
}

func TestBootstrap_ReplaysHoldingsWithoutCash(t *testing.T) {
	dir := t.TempDir()
	dump := "alice,AAPL,10,150\nbob,MSFT,2,300.5\n"
	if err := os.WriteFile(filepath.Join(dir, "portfolios.csv"), []byte(dump), 0644); err != nil {
		t.Fatal(err)
	}

	b := NewBootstrap()
	if err := b.Initialize(writeTestConfig(t, dir)); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	alice, ok := b.Exchange.Account("alice")
	if !ok {
		t.Fatal("alice should be recreated from the dump")
	}
	h := alice.Portfolio().Holdings()["AAPL"]
	if h.Quantity != 10 || !h.AvgPrice.Equal(decimal.NewFromInt(150)) {
		t.Errorf("Unexpected replayed holding: %+v", h)
	}

	// Cash is not restored by design; reloaded users get starting cash.
	if !alice.Cash().Equal(decimal.NewFromInt(10000)) {
		t.Errorf("Expected starting cash 10000, got %v", alice.Cash())
	}
}

func TestBootstrap_PricesSurviveRestart(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeTestConfig(t, dir)

	b1 := NewBootstrap()
	if err := b1.Initialize(cfgPath); err != nil {
		t.Fatal(err)
	}
	inst, _ := b1.Market.Lookup("AAPL")
	for n := 0; n < 5; n++ {
		inst.Tick()
	}
	moved := inst.Price()
	if err := b1.SaveState(); err != nil {
		t.Fatalf("SaveState failed: %v", err)
	}

	b2 := NewBootstrap()
	if err := b2.Initialize(cfgPath); err != nil {
		t.Fatal(err)
	}
	inst2, _ := b2.Market.Lookup("AAPL")
	if !inst2.Price().Equal(moved) {
		t.Errorf("Expected restored price %v, got %v", moved, inst2.Price())
	}
}

func TestBootstrap_SaveStateDumpsHoldings(t *testing.T) {
	dir := t.TempDir()
	b := NewBootstrap()
	if err := b.Initialize(writeTestConfig(t, dir)); err != nil {
		t.Fatal(err)
	}

	b.Exchange.Login("alice")
	if _, err := b.Exchange.Buy("alice", "AAPL", 3); err != nil {
		t.Fatal(err)
	}
	if err := b.SaveState(); err != nil {
		t.Fatalf("SaveState failed: %v", err)
	}

	records, err := b.Holdings.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].UserID != "alice" || records[0].Quantity != 3 {
		t.Errorf("Unexpected dump: %+v", records)
	}
}
