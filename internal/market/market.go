// Package market owns the set of listed instruments and the periodic
// price-tick scheduler.
package market

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"stock_go/internal/domain"
	"stock_go/internal/infra"

	"github.com/tidwall/btree"
	tomb "gopkg.in/tomb.v2"
)

// TickListener observes every applied price tick. Used by the stream hub to
// broadcast updates; must not block.
type TickListener func(ev TickEvent)

// TickEvent is one published price update.
type TickEvent struct {
	Symbol string            `json:"symbol"`
	Point  domain.PricePoint `json:"point"`
}

// Market is the registry of tradable instruments plus the auto-tick loop.
// The btree keeps listings sorted by symbol; each instrument carries its own
// lock, so the registry lock only guards membership.
type Market struct {
	mu          sync.RWMutex
	instruments btree.Map[string, *domain.Instrument]
	listeners   []TickListener

	tickMu sync.Mutex
	ticker *tomb.Tomb
}

func New() *Market {
	return &Market{}
}

// Register lists an instrument under its uppercase symbol, replacing any
// previous listing.
func (m *Market) Register(inst *domain.Instrument) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.instruments.Set(inst.Symbol(), inst)
}

// Lookup resolves a symbol case-insensitively.
func (m *Market) Lookup(symbol string) (*domain.Instrument, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.instruments.Get(strings.ToUpper(symbol))
}

// List returns all instruments sorted by symbol.
func (m *Market) List() []*domain.Instrument {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*domain.Instrument, 0, m.instruments.Len())
	m.instruments.Scan(func(_ string, inst *domain.Instrument) bool {
		out = append(out, inst)
		return true
	})
	return out
}

// Subscribe adds a tick listener. Must be called before StartAutoTick.
func (m *Market) Subscribe(l TickListener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, l)
}

// StartAutoTick begins the recurring background task that ticks every
// registered instrument once per interval. The loop runs in a single
// goroutine and time.Ticker drops missed beats, so a slow cycle skips the
// next one instead of queueing it. Calling it while running is a no-op.
func (m *Market) StartAutoTick(interval time.Duration) {
	m.tickMu.Lock()
	defer m.tickMu.Unlock()

	if m.ticker != nil && m.ticker.Alive() {
		return
	}

	t := &tomb.Tomb{}
	m.ticker = t
	t.Go(func() error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		slog.Info("auto-tick started", slog.Duration("interval", interval))
		for {
			select {
			case <-t.Dying():
				slog.Info("auto-tick stopped")
				return nil
			case <-ticker.C:
				m.tickAll()
			}
		}
	})
}

// Stop cancels the auto-tick task. An in-flight tick cycle is allowed to
// finish; no new cycle starts. Safe to call at any time, including twice.
func (m *Market) Stop() {
	m.tickMu.Lock()
	t := m.ticker
	m.tickMu.Unlock()

	if t == nil {
		return
	}
	t.Kill(nil)
	_ = t.Wait()
}

func (m *Market) tickAll() {
	// Snapshot the listings first so a long cycle never holds the
	// registry lock while individual instruments are ticking.
	insts := m.List()

	m.mu.RLock()
	listeners := m.listeners
	m.mu.RUnlock()

	for _, inst := range insts {
		inst.Tick()
		infra.GlobalMetrics.RecordTick()

		if len(listeners) > 0 {
			hist := inst.History()
			ev := TickEvent{Symbol: inst.Symbol(), Point: hist[len(hist)-1]}
			for _, l := range listeners {
				l(ev)
			}
		}
	}
}
