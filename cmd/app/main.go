package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"triarb/internal/app"
	"triarb/internal/engine"
	"triarb/internal/infra/binance"
	"triarb/internal/strategy"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to configuration file")
	flag.Parse()

	// 1. System Bootstrapping
	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(*configPath); err != nil {
		slog.Error("❌ Bootstrapping failed", slog.Any("error", err))
		os.Exit(1)
	}

	// 2. Graceful Shutdown Context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := bootstrap.Config
	catalog := bootstrap.Catalog

	// 3. Feed activity: Binance bookTicker worker writing the quote book
	worker := binance.NewWorker(cfg.Feed.WSURL, catalog.Symbols(), bootstrap.Book)
	if err := worker.Connect(ctx); err != nil {
		slog.Error("Failed to start feed worker", slog.Any("error", err))
		os.Exit(1)
	}
	defer worker.Disconnect()
	slog.InfoContext(ctx, "✅ Feed worker started", slog.Int("symbols", len(catalog.Symbols())))

	// 4. Evaluation activity: evaluate -> detect -> dispatch on a fixed interval
	evaluator := strategy.NewEvaluator(catalog, cfg.Engine.TakerFee.InexactFloat64())
	detector := strategy.NewDetector(strategy.Policy(cfg.Engine.Policy), cfg.Engine.Threshold.InexactFloat64())
	dispatcher := engine.NewDispatcher(bootstrap.Sink, bootstrap.Notifier, engine.DispatcherConfig{
		Notional:           cfg.Engine.NotionalUSDT.InexactFloat64(),
		Threshold:          cfg.Engine.Threshold.InexactFloat64(),
		TakerFee:           cfg.Engine.TakerFee.InexactFloat64(),
		Cooldown:           time.Duration(cfg.Engine.Cooldown.Seconds) * time.Second,
		Scope:              engine.CooldownScope(cfg.Engine.Cooldown.Scope),
		SingleNotification: cfg.Engine.SingleNotification,
		NotifyTimeout:      10 * time.Second,
		Symbols:            catalog.Symbols(),
	})
	monitor := engine.NewMonitor(
		bootstrap.Book,
		evaluator,
		detector,
		dispatcher,
		catalog.Symbols(),
		time.Duration(cfg.Engine.PollIntervalMS)*time.Millisecond,
		time.Duration(cfg.Engine.StatusIntervalMS)*time.Millisecond,
	)

	go monitor.Run(ctx)
	slog.InfoContext(ctx, "✨ triarb fully operational. Press Ctrl+C to exit.")

	// Wait for shutdown signal
	<-ctx.Done()

	slog.Info("👋 Shutting down gracefully...")
	if err := bootstrap.Sink.Close(); err != nil {
		slog.Warn("Sink close failed", slog.Any("error", err))
	}
}
