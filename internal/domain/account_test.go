package domain

import (
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
)

func TestAccount_ExecuteBuyDebitsExactCost(t *testing.T) {
	a := NewAccount("alice", decimal.NewFromInt(10000))

	if err := a.ExecuteBuy("AAPL", 10, decimal.NewFromInt(170)); err != nil {
		t.Fatalf("ExecuteBuy failed: %v", err)
	}

	if !a.Cash().Equal(decimal.NewFromInt(8300)) {
		t.Errorf("Expected cash 8300, got %v", a.Cash())
	}
	h := a.Portfolio().Holdings()["AAPL"]
	if h.Quantity != 10 || !h.AvgPrice.Equal(decimal.NewFromInt(170)) {
		t.Errorf("Unexpected holding: %+v", h)
	}
}

func TestAccount_ExecuteBuyInsufficientFunds(t *testing.T) {
	a := NewAccount("alice", decimal.NewFromInt(100))

	err := a.ExecuteBuy("AAPL", 1, decimal.NewFromFloat(100.01))
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("Expected ErrInsufficientFunds, got %v", err)
	}
	if !a.Cash().Equal(decimal.NewFromInt(100)) {
		t.Errorf("Cash mutated on failed buy: %v", a.Cash())
	}
	if len(a.Portfolio().Holdings()) != 0 {
		t.Error("Holdings mutated on failed buy")
	}
}

func TestAccount_ExecuteBuyExactBalance(t *testing.T) {
	a := NewAccount("alice", decimal.NewFromInt(100))
	if err := a.ExecuteBuy("AAPL", 1, decimal.NewFromInt(100)); err != nil {
		t.Fatalf("Buy at exact balance should succeed: %v", err)
	}
	if !a.Cash().IsZero() {
		t.Errorf("Expected zero cash, got %v", a.Cash())
	}
}

func TestAccount_ExecuteSellCreditsProceeds(t *testing.T) {
	a := NewAccount("alice", decimal.NewFromInt(10000))
	if err := a.ExecuteBuy("AAPL", 10, decimal.NewFromInt(170)); err != nil {
		t.Fatal(err)
	}

	if err := a.ExecuteSell("AAPL", 5, decimal.NewFromInt(180)); err != nil {
		t.Fatalf("ExecuteSell failed: %v", err)
	}
	// 10000 - 1700 + 900 = 9200
	if !a.Cash().Equal(decimal.NewFromInt(9200)) {
		t.Errorf("Expected cash 9200, got %v", a.Cash())
	}
}

func TestAccount_ExecuteSellShortHoldingFails(t *testing.T) {
	a := NewAccount("alice", decimal.NewFromInt(10000))
	if err := a.ExecuteBuy("AAPL", 10, decimal.NewFromInt(170)); err != nil {
		t.Fatal(err)
	}

	err := a.ExecuteSell("AAPL", 15, decimal.NewFromInt(180))
	if !errors.Is(err, ErrInsufficientHoldings) {
		t.Fatalf("Expected ErrInsufficientHoldings, got %v", err)
	}
	if !a.Cash().Equal(decimal.NewFromInt(8300)) {
		t.Errorf("Cash mutated on failed sell: %v", a.Cash())
	}
	if h := a.Portfolio().Holdings()["AAPL"]; h.Quantity != 10 {
		t.Errorf("Holdings mutated on failed sell: %+v", h)
	}
}

// Two buys racing against one balance must never jointly overdraw it: the
// affordability check and the debit happen under one lock.
func TestAccount_ConcurrentBuysNeverOverdraw(t *testing.T) {
	a := NewAccount("alice", decimal.NewFromInt(1000))
	price := decimal.NewFromInt(100)

	var wg sync.WaitGroup
	succeeded := make(chan struct{}, 64)
	for n := 0; n < 64; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := a.ExecuteBuy("AAPL", 1, price); err == nil {
				succeeded <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(succeeded)

	wins := 0
	for range succeeded {
		wins++
	}
	if wins != 10 {
		t.Errorf("Expected exactly 10 successful buys, got %d", wins)
	}
	if a.Cash().IsNegative() {
		t.Errorf("Account overdrawn: %v", a.Cash())
	}
	if !a.Cash().IsZero() {
		t.Errorf("Expected zero cash after 10 buys, got %v", a.Cash())
	}
}
