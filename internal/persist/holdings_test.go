package persist

import (
	"os"
	"path/filepath"
	"testing"

	"stock_go/internal/domain"

	"github.com/shopspring/decimal"
)

func TestHoldingsFile_SaveLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portfolios.csv")
	hf := NewHoldingsFile(path)

	alice := domain.NewAccount("alice", decimal.NewFromInt(10000))
	alice.Portfolio().Buy("AAPL", 10, decimal.NewFromInt(170))
	alice.Portfolio().Buy("MSFT", 2, decimal.NewFromFloat(310.50))
	bob := domain.NewAccount("bob", decimal.NewFromInt(10000))
	bob.Portfolio().Buy("TSLA", 4, decimal.NewFromInt(250))

	if err := hf.Save([]*domain.Account{alice, bob}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	records, err := hf.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(records))
	}

	// Sorted by user id then symbol.
	if records[0].UserID != "alice" || records[0].Symbol != "AAPL" {
		t.Errorf("Unexpected first record: %+v", records[0])
	}
	if records[1].Symbol != "MSFT" || !records[1].AvgPrice.Equal(decimal.NewFromFloat(310.50)) {
		t.Errorf("Unexpected second record: %+v", records[1])
	}
	if records[2].UserID != "bob" || records[2].Quantity != 4 {
		t.Errorf("Unexpected third record: %+v", records[2])
	}
}

func TestHoldingsFile_SaveIsFullRewrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portfolios.csv")
	hf := NewHoldingsFile(path)

	alice := domain.NewAccount("alice", decimal.NewFromInt(10000))
	alice.Portfolio().Buy("AAPL", 10, decimal.NewFromInt(170))
	if err := hf.Save([]*domain.Account{alice}); err != nil {
		t.Fatal(err)
	}

	// Position closed; the next dump must not retain the stale row.
	if err := alice.Portfolio().Sell("AAPL", 10); err != nil {
		t.Fatal(err)
	}
	if err := hf.Save([]*domain.Account{alice}); err != nil {
		t.Fatal(err)
	}

	records, err := hf.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 0 {
		t.Errorf("Expected empty dump, got %+v", records)
	}
}

func TestHoldingsFile_LoadMissingFile(t *testing.T) {
	hf := NewHoldingsFile(filepath.Join(t.TempDir(), "absent.csv"))
	records, err := hf.Load()
	if err != nil {
		t.Fatalf("Missing file should not error: %v", err)
	}
	if records != nil {
		t.Errorf("Expected no records, got %+v", records)
	}
}

func TestHoldingsFile_LoadSkipsMalformedRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portfolios.csv")
	content := "alice,AAPL,10,170\n" +
		"garbage line\n" +
		"bob,TSLA,notanumber,250\n" +
		"carol,MSFT,-3,310\n" +
		"dave,INFY,5,22.5\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	records, err := NewHoldingsFile(path).Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 valid records, got %d: %+v", len(records), records)
	}
	if records[0].UserID != "alice" || records[1].UserID != "dave" {
		t.Errorf("Unexpected records: %+v", records)
	}
}
