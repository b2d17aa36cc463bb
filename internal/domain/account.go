package domain

import (
	"sync"

	"github.com/shopspring/decimal"
)

// Account owns one user's cash balance and exactly one portfolio.
//
// Debit and Credit are primitive mutations with no invariant of their own;
// the no-overdraft guarantee comes from ExecuteBuy, which holds the account
// lock across the affordability check and the debit so two concurrent buys
// can never both pass the check against a stale balance.
type Account struct {
	userID string

	mu        sync.Mutex
	cash      decimal.Decimal
	portfolio *Portfolio
}

func NewAccount(userID string, startingCash decimal.Decimal) *Account {
	return &Account{
		userID:    userID,
		cash:      startingCash,
		portfolio: NewPortfolio(userID),
	}
}

func (a *Account) UserID() string        { return a.userID }
func (a *Account) Portfolio() *Portfolio { return a.portfolio }

// Cash returns the current balance.
func (a *Account) Cash() decimal.Decimal {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cash
}

// CanAfford reports whether the balance covers amount. Decimal arithmetic is
// exact, so no rounding epsilon is needed here.
func (a *Account) CanAfford(amount decimal.Decimal) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cash.GreaterThanOrEqual(amount)
}

// Debit subtracts amount from the balance.
func (a *Account) Debit(amount decimal.Decimal) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cash = a.cash.Sub(amount)
}

// Credit adds amount to the balance.
func (a *Account) Credit(amount decimal.Decimal) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cash = a.cash.Add(amount)
}

// ExecuteBuy atomically checks affordability, debits price*qty, and applies
// the buy to the portfolio. On ErrInsufficientFunds nothing is mutated.
func (a *Account) ExecuteBuy(symbol string, qty int64, price decimal.Decimal) error {
	cost := price.Mul(decimal.NewFromInt(qty))

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cash.LessThan(cost) {
		return ErrInsufficientFunds
	}
	a.cash = a.cash.Sub(cost)
	a.portfolio.Buy(symbol, qty, price)
	return nil
}

// ExecuteSell atomically removes qty from the portfolio and credits the
// proceeds. On failure the balance and holdings are untouched.
func (a *Account) ExecuteSell(symbol string, qty int64, price decimal.Decimal) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.portfolio.Sell(symbol, qty); err != nil {
		return err
	}
	a.cash = a.cash.Add(price.Mul(decimal.NewFromInt(qty)))
	return nil
}
