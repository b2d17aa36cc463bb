package domain

import (
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// priceFloor is the lowest price a tick can produce. Instruments never
// go to zero, no matter how unlucky the random walk gets.
var priceFloor = decimal.New(1, -2) // 0.01

// PricePoint is one observed (time, price) sample in an instrument's history.
type PricePoint struct {
	Time  time.Time       `json:"time"`
	Price decimal.Decimal `json:"price"`
}

// Instrument is a tradable symbol with a single authoritative price and a
// bounded in-memory history. The tick loop is the only writer; buy/sell and
// valuation paths only read. The mutex is per-instrument, so ticking one
// symbol never blocks reads on another.
type Instrument struct {
	symbol string
	name   string

	mu      sync.RWMutex
	price   decimal.Decimal
	history *ring[PricePoint]
}

// NewInstrument creates an instrument with an uppercase-normalized symbol
// and records the initial price as the first history point.
func NewInstrument(symbol, name string, initial decimal.Decimal) *Instrument {
	i := &Instrument{
		symbol:  strings.ToUpper(symbol),
		name:    name,
		price:   initial,
		history: newRing[PricePoint](historyCap),
	}
	i.history.push(PricePoint{Time: time.Now(), Price: initial})
	return i
}

func (i *Instrument) Symbol() string { return i.symbol }
func (i *Instrument) Name() string   { return i.name }

// Price returns the current price.
func (i *Instrument) Price() decimal.Decimal {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.price
}

// Tick applies one randomized step: a percentage move drawn uniformly from
// [-2%, +2%], floored at 0.01.
func (i *Instrument) Tick() {
	pct := rand.Float64()*4.0 - 2.0
	i.applyTick(pct)
}

func (i *Instrument) applyTick(pct float64) {
	i.mu.Lock()
	defer i.mu.Unlock()

	next := i.price.Mul(decimal.NewFromFloat(1 + pct/100.0))
	if next.LessThan(priceFloor) {
		next = priceFloor
	}
	i.price = next
	i.history.push(PricePoint{Time: time.Now(), Price: next})
}

// History returns a copy of the price history, oldest first.
func (i *Instrument) History() []PricePoint {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.history.snapshot()
}
