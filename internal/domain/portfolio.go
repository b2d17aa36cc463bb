package domain

import (
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Holding is a position in one instrument. AvgPrice is the volume-weighted
// average buy price; sells reduce quantity but leave the cost basis alone.
type Holding struct {
	Symbol   string          `json:"symbol"`
	Quantity int64           `json:"quantity"`
	AvgPrice decimal.Decimal `json:"avg_price"`
}

// ValuationPoint is one timestamped total-portfolio-value sample.
type ValuationPoint struct {
	Time  time.Time       `json:"time"`
	Value decimal.Decimal `json:"value"`
}

// Portfolio holds one user's positions plus a bounded history of valuation
// snapshots. A holding exists only while its quantity is positive; selling a
// position down to zero removes it. All operations on one portfolio are
// mutually exclusive; portfolios of different users never share a lock.
type Portfolio struct {
	userID string

	mu         sync.Mutex
	holdings   map[string]*Holding
	valuations *ring[ValuationPoint]
}

func NewPortfolio(userID string) *Portfolio {
	return &Portfolio{
		userID:     userID,
		holdings:   make(map[string]*Holding),
		valuations: newRing[ValuationPoint](historyCap),
	}
}

func (p *Portfolio) UserID() string { return p.userID }

// Buy adds qty at price, recomputing the weighted-average cost basis:
// ((oldAvg*oldQty) + (price*qty)) / (oldQty+qty).
func (p *Portfolio) Buy(symbol string, qty int64, price decimal.Decimal) {
	symbol = strings.ToUpper(symbol)

	p.mu.Lock()
	defer p.mu.Unlock()

	h, ok := p.holdings[symbol]
	if !ok {
		p.holdings[symbol] = &Holding{Symbol: symbol, Quantity: qty, AvgPrice: price}
		return
	}

	oldQty := decimal.NewFromInt(h.Quantity)
	newQty := decimal.NewFromInt(h.Quantity + qty)
	h.AvgPrice = h.AvgPrice.Mul(oldQty).Add(price.Mul(decimal.NewFromInt(qty))).Div(newQty)
	h.Quantity += qty
}

// Sell removes qty from the holding. It fails without mutating anything if
// the holding is absent or too small, and deletes the holding when the
// quantity reaches zero.
func (p *Portfolio) Sell(symbol string, qty int64) error {
	symbol = strings.ToUpper(symbol)

	p.mu.Lock()
	defer p.mu.Unlock()

	h, ok := p.holdings[symbol]
	if !ok || h.Quantity < qty {
		return ErrInsufficientHoldings
	}
	h.Quantity -= qty
	if h.Quantity == 0 {
		delete(p.holdings, symbol)
	}
	return nil
}

// Holdings returns a copy of the current positions keyed by symbol.
func (p *Portfolio) Holdings() map[string]Holding {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make(map[string]Holding, len(p.holdings))
	for sym, h := range p.holdings {
		out[sym] = *h
	}
	return out
}

// RecordValuation appends a timestamped total-value snapshot.
func (p *Portfolio) RecordValuation(total decimal.Decimal) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.valuations.push(ValuationPoint{Time: time.Now(), Value: total})
}

// Valuations returns a copy of the snapshot history, oldest first.
func (p *Portfolio) Valuations() []ValuationPoint {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.valuations.snapshot()
}
