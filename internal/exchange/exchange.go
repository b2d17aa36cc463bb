// Package exchange orchestrates trades: it reads market prices, applies the
// debit/credit and portfolio update as one atomic unit per account, and
// emits records to the durable transaction log.
package exchange

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"stock_go/internal/domain"
	"stock_go/internal/infra"
	"stock_go/internal/market"
	"stock_go/internal/persist"

	"github.com/shopspring/decimal"
	tomb "gopkg.in/tomb.v2"
)

// TradeListener observes every executed trade. Must not block.
type TradeListener func(rec *domain.TransactionRecord)

type Exchange struct {
	market *market.Market
	txlog  *persist.TxLog

	mu       sync.RWMutex
	accounts map[string]*domain.Account

	startingCash decimal.Decimal
	listeners    []TradeListener

	snapMu sync.Mutex
	snap   *tomb.Tomb
}

func New(m *market.Market, txlog *persist.TxLog, startingCash decimal.Decimal) *Exchange {
	return &Exchange{
		market:       m,
		txlog:        txlog,
		accounts:     make(map[string]*domain.Account),
		startingCash: startingCash,
	}
}

// Login returns the user's account, creating it with the starting cash
// balance on first reference.
func (e *Exchange) Login(userID string) *domain.Account {
	e.mu.Lock()
	defer e.mu.Unlock()

	acct, ok := e.accounts[userID]
	if !ok {
		acct = domain.NewAccount(userID, e.startingCash)
		e.accounts[userID] = acct
		slog.Info("account created", slog.String("user", userID), slog.String("cash", e.startingCash.String()))
	}
	return acct
}

// Account resolves an existing user without creating one.
func (e *Exchange) Account(userID string) (*domain.Account, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	acct, ok := e.accounts[userID]
	return acct, ok
}

// Accounts returns all accounts sorted by user id.
func (e *Exchange) Accounts() []*domain.Account {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]*domain.Account, 0, len(e.accounts))
	for _, acct := range e.accounts {
		out = append(out, acct)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID() < out[j].UserID() })
	return out
}

// Subscribe adds a trade listener.
func (e *Exchange) Subscribe(l TradeListener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, l)
}

// Buy executes a market buy of qty shares at the currently observed price.
// The instrument price is read first; the affordability check, debit, and
// portfolio update then run inside the account's critical section, so no
// instrument lock is ever held while waiting on an account.
func (e *Exchange) Buy(userID, symbol string, qty int64) (*domain.TransactionRecord, error) {
	acct, inst, err := e.resolve(userID, symbol, qty)
	if err != nil {
		return nil, err
	}

	price := inst.Price()
	if err := acct.ExecuteBuy(inst.Symbol(), qty, price); err != nil {
		return nil, fmt.Errorf("buy %d %s: %w", qty, inst.Symbol(), err)
	}

	rec := domain.NewTransaction(userID, inst.Symbol(), qty, price)
	e.finishTrade(rec)
	return rec, nil
}

// Sell executes a market sell. On success the proceeds at the observed price
// are credited and a negative-quantity record is logged; on failure nothing
// is mutated.
func (e *Exchange) Sell(userID, symbol string, qty int64) (*domain.TransactionRecord, error) {
	acct, inst, err := e.resolve(userID, symbol, qty)
	if err != nil {
		return nil, err
	}

	price := inst.Price()
	if err := acct.ExecuteSell(inst.Symbol(), qty, price); err != nil {
		return nil, fmt.Errorf("sell %d %s: %w", qty, inst.Symbol(), err)
	}

	rec := domain.NewTransaction(userID, inst.Symbol(), -qty, price)
	e.finishTrade(rec)
	return rec, nil
}

func (e *Exchange) resolve(userID, symbol string, qty int64) (*domain.Account, *domain.Instrument, error) {
	if qty <= 0 {
		return nil, nil, fmt.Errorf("quantity %d: %w", qty, domain.ErrInvalidQuantity)
	}
	acct, ok := e.Account(userID)
	if !ok {
		return nil, nil, fmt.Errorf("%q: %w", userID, domain.ErrUserNotFound)
	}
	inst, ok := e.market.Lookup(symbol)
	if !ok {
		return nil, nil, fmt.Errorf("%q: %w", symbol, domain.ErrSymbolNotFound)
	}
	return acct, inst, nil
}

// finishTrade logs and publishes a trade that already happened in memory.
// A log write failure is reported but does not reverse the trade; the trade
// is economically final, only its durability record is missing.
func (e *Exchange) finishTrade(rec *domain.TransactionRecord) {
	infra.GlobalMetrics.RecordTrade()

	if err := e.txlog.Append(rec); err != nil {
		infra.GlobalMetrics.RecordError()
		slog.Error("transaction log write failed, trade stands",
			slog.String("id", rec.ID),
			slog.String("user", rec.UserID),
			slog.Any("error", err))
	}

	e.mu.RLock()
	listeners := e.listeners
	e.mu.RUnlock()
	for _, l := range listeners {
		l(rec)
	}

	slog.Info("trade executed",
		slog.String("id", rec.ID),
		slog.String("user", rec.UserID),
		slog.String("symbol", rec.Symbol),
		slog.Int64("qty", rec.Quantity),
		slog.String("price", rec.Price.String()))
}

// HoldingsValue computes the market value of a user's positions at current
// prices. Instruments missing from the market are treated as delisted and
// contribute zero.
func (e *Exchange) HoldingsValue(userID string) (decimal.Decimal, error) {
	acct, ok := e.Account(userID)
	if !ok {
		return decimal.Zero, fmt.Errorf("%q: %w", userID, domain.ErrUserNotFound)
	}
	return e.holdingsValue(acct), nil
}

func (e *Exchange) holdingsValue(acct *domain.Account) decimal.Decimal {
	total := decimal.Zero
	for _, h := range acct.Portfolio().Holdings() {
		inst, ok := e.market.Lookup(h.Symbol)
		if !ok {
			continue
		}
		total = total.Add(inst.Price().Mul(decimal.NewFromInt(h.Quantity)))
	}
	return total
}
