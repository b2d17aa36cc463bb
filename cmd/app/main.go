package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"stock_go/internal/app"
	"stock_go/internal/cli"

	_ "net/http/pprof" // For pprof profiling
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	// Pprof server (for performance profiling). Localhost only.
	go func() {
		if err := http.ListenAndServe("localhost:6060", nil); err != nil {
			slog.Error("pprof server failed", slog.Any("error", err))
		}
	}()

	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(*configPath); err != nil {
		slog.Error("bootstrapping failed", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bootstrap.StartSchedulers()

	runner := cli.New(os.Stdin, os.Stdout,
		bootstrap.Exchange,
		bootstrap.Market,
		bootstrap.TxLog,
		bootstrap.Config.Data.Dir,
		bootstrap.SaveState,
	)

	// The command loop owns the foreground; a signal ends the process even
	// while the prompt is blocked on stdin.
	done := make(chan struct{})
	go func() {
		defer close(done)
		runner.Run()
	}()

	select {
	case <-done:
	case <-ctx.Done():
	}

	bootstrap.Shutdown()
}
