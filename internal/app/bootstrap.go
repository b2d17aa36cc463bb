package app

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"stock_go/internal/domain"
	"stock_go/internal/exchange"
	"stock_go/internal/infra"
	"stock_go/internal/infra/storage"
	"stock_go/internal/market"
	"stock_go/internal/persist"
	"stock_go/internal/stream"

	"github.com/shopspring/decimal"
)

// Bootstrap orchestrates the application startup sequence: config, logging,
// catalog DB, market seeding, portfolio replay, and the stream hub.
type Bootstrap struct {
	Config   *infra.Config
	Storage  *storage.Storage
	Market   *market.Market
	Exchange *exchange.Exchange
	TxLog    *persist.TxLog
	Holdings *persist.HoldingsFile
	Hub      *stream.Hub
}

// NewBootstrap creates a new Bootstrap instance.
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize performs core system initialization.
func (b *Bootstrap) Initialize(configPath string) error {
	cfg, err := infra.LoadConfig(configPath)
	if err != nil {
		return err
	}
	b.Config = cfg

	if err := os.MkdirAll(cfg.Data.Dir, 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	slog.SetDefault(infra.NewLogger(cfg))
	slog.Info("bootstrapping", slog.String("app", cfg.App.Name), slog.String("version", cfg.App.Version))

	store, err := storage.NewStorage(filepath.Join(cfg.Data.Dir, "catalog.db"))
	if err != nil {
		return err
	}
	b.Storage = store

	b.TxLog = persist.NewTxLog(filepath.Join(cfg.Data.Dir, "transactions.csv"))
	b.Holdings = persist.NewHoldingsFile(filepath.Join(cfg.Data.Dir, "portfolios.csv"))

	b.Market = market.New()
	if err := b.seedMarket(); err != nil {
		return err
	}

	b.Exchange = exchange.New(b.Market, b.TxLog, cfg.Trading.StartingCash)
	if err := b.replayHoldings(); err != nil {
		return err
	}

	if cfg.Stream.Enabled {
		b.Hub = stream.NewHub()
		if err := b.Hub.Start(cfg.Stream.ListenAddr); err != nil {
			return fmt.Errorf("start stream hub: %w", err)
		}
		b.Market.Subscribe(func(ev market.TickEvent) {
			b.Hub.Broadcast("tick", ev)
		})
		b.Exchange.Subscribe(func(rec *domain.TransactionRecord) {
			b.Hub.Broadcast("trade", rec)
		})
	}

	return nil
}

// seedMarket lists the configured instruments. The catalog's last persisted
// price wins over the config seed so prices survive a restart.
func (b *Bootstrap) seedMarket() error {
	for _, seed := range b.Config.Market.Symbols {
		price := seed.Price
		info, err := b.Storage.GetInstrument(seed.Symbol)
		if err != nil {
			return err
		}
		if info != nil && info.LastPrice != "" {
			if last, err := decimal.NewFromString(info.LastPrice); err == nil && last.IsPositive() {
				price = last
			}
		}

		b.Market.Register(domain.NewInstrument(seed.Symbol, seed.Name, price))

		if err := b.Storage.UpsertInstrument(&domain.InstrumentInfo{
			Symbol:    seed.Symbol,
			Name:      seed.Name,
			LastPrice: price.String(),
			IsActive:  true,
			UpdatedAt: time.Now(),
		}); err != nil {
			return err
		}
	}
	slog.Info("market seeded", slog.Int("instruments", len(b.Config.Market.Symbols)))
	return nil
}

// replayHoldings rebuilds portfolios from the last dump. Unknown user ids
// are created with the starting cash balance; cash itself is not restored,
// only positions.
func (b *Bootstrap) replayHoldings() error {
	records, err := b.Holdings.Load()
	if err != nil {
		return err
	}
	for _, rec := range records {
		b.Exchange.Login(rec.UserID).Portfolio().Buy(rec.Symbol, rec.Quantity, rec.AvgPrice)
	}
	if len(records) > 0 {
		slog.Info("portfolios reloaded", slog.Int("rows", len(records)))
	}
	return nil
}

// StartSchedulers launches the price ticker and the snapshot task.
func (b *Bootstrap) StartSchedulers() {
	b.Market.StartAutoTick(time.Duration(b.Config.Market.TickIntervalMS) * time.Millisecond)
	b.Exchange.StartSnapshots(time.Duration(b.Config.Trading.SnapshotIntervalSec) * time.Second)
}

// SaveState dumps all holdings and the current catalog prices.
func (b *Bootstrap) SaveState() error {
	if err := b.Holdings.Save(b.Exchange.Accounts()); err != nil {
		return err
	}
	for _, inst := range b.Market.List() {
		if err := b.Storage.UpsertInstrument(&domain.InstrumentInfo{
			Symbol:    inst.Symbol(),
			Name:      inst.Name(),
			LastPrice: inst.Price().String(),
			IsActive:  true,
			UpdatedAt: time.Now(),
		}); err != nil {
			return err
		}
	}
	return nil
}

// Shutdown stops both schedulers, performs the final dump, and closes the
// stream hub. Safe to call once at process exit.
func (b *Bootstrap) Shutdown() {
	b.Market.Stop()
	b.Exchange.StopSnapshots()

	if err := b.SaveState(); err != nil {
		slog.Error("final state dump failed", slog.Any("error", err))
	}
	if err := b.Storage.SaveConfig("last_shutdown", time.Now().Format(time.RFC3339)); err != nil {
		slog.Warn("failed to record shutdown time", slog.Any("error", err))
	}
	if b.Hub != nil {
		b.Hub.Close()
	}
	slog.Info("shutdown complete")
}
