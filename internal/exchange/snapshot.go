package exchange

import (
	"log/slog"
	"time"

	"stock_go/internal/infra"

	tomb "gopkg.in/tomb.v2"
)

// StartSnapshots begins the recurring valuation task: once per interval,
// every account's total value (holdings at current prices plus cash) is
// recorded into its portfolio history. Calling it while running is a no-op.
func (e *Exchange) StartSnapshots(interval time.Duration) {
	e.snapMu.Lock()
	defer e.snapMu.Unlock()

	if e.snap != nil && e.snap.Alive() {
		return
	}

	t := &tomb.Tomb{}
	e.snap = t
	t.Go(func() error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		slog.Info("snapshot scheduler started", slog.Duration("interval", interval))
		for {
			select {
			case <-t.Dying():
				slog.Info("snapshot scheduler stopped")
				return nil
			case <-ticker.C:
				e.snapshotAll()
			}
		}
	})
}

// StopSnapshots cancels the valuation task. An in-flight cycle finishes;
// no new cycle starts. Safe to call at any time.
func (e *Exchange) StopSnapshots() {
	e.snapMu.Lock()
	t := e.snap
	e.snapMu.Unlock()

	if t == nil {
		return
	}
	t.Kill(nil)
	_ = t.Wait()
}

func (e *Exchange) snapshotAll() {
	for _, acct := range e.Accounts() {
		total := e.holdingsValue(acct).Add(acct.Cash())
		acct.Portfolio().RecordValuation(total)
		infra.GlobalMetrics.RecordSnapshot()
	}
}
