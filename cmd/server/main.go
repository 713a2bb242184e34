// ====================================
// File: cmd/server/main.go
// ====================================
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"launchpad/internal/config"
	"launchpad/internal/engine"
	"launchpad/internal/events"
	"launchpad/internal/logger"
	"launchpad/internal/server"
	"launchpad/internal/storage"
	"launchpad/internal/storage/memory"
	"launchpad/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "launchpad: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logCfg := logger.DefaultConfig()
	logCfg.LogFile = cfg.LogFile
	logCfg.Development = cfg.DebugLogging
	log, err := logger.New(logCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting launchpad server",
		zap.String("listen_addr", cfg.ListenAddr),
		zap.Bool("memory_store", cfg.MemoryStore))

	var store storage.Store
	if cfg.MemoryStore {
		store = memory.NewStore()
	} else {
		store, err = postgres.NewStore(cfg.PostgresURL, log.WithComponent("storage"))
		if err != nil {
			return fmt.Errorf("failed to connect to storage: %w", err)
		}
	}
	defer func() { _ = store.Close() }()

	if err := store.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	bus := events.NewBus(log.Logger, cfg.EventBuffer)

	eng := engine.New(store, bus, log.Logger, engine.WithTradeRetries(cfg.TradeRetries))
	srv := server.New(cfg.ListenAddr, eng, bus, log.Logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("HTTP shutdown incomplete", zap.Error(err))
		}
		if err := bus.Shutdown(shutdownCtx); err != nil {
			log.Warn("Event bus shutdown incomplete", zap.Error(err))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	log.Info("Server stopped")
	return nil
}
