package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"financeflow/internal/amqp"
	"financeflow/internal/categories"
	"financeflow/internal/config"
	"financeflow/internal/core"
	"financeflow/internal/log"
	"financeflow/internal/mcp"
	"financeflow/internal/services"
	"financeflow/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()
	logger := log.New(log.Config{Level: logLevel(cfg.LogLevel), Component: log.ComponentApp})
	log.SetDefault(logger)

	logger.Info("starting financeflow")

	if err := cfg.Validate(); err != nil {
		logger.Error("configuration validation failed", "error", err)
		os.Exit(1)
	}

	store, err := storage.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err, "path", cfg.DBPath)
		os.Exit(1)
	}
	defer store.Close()

	var catalog *categories.Catalog
	if cfg.CategoriesPath != "" {
		catalog, err = categories.Load(cfg.CategoriesPath)
		if err != nil {
			logger.Error("failed to load categories", "error", err, "path", cfg.CategoriesPath)
			os.Exit(1)
		}
		logger.Info("categories loaded", "path", cfg.CategoriesPath, "count", len(catalog.Names()))
	} else {
		logger.Warn("no categories file configured, category validation disabled")
	}

	var events *amqp.Client
	if cfg.AMQPURL != "" {
		events, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("failed to initialize AMQP client, continuing without event publishing", "error", err)
			events = nil
		} else {
			defer events.Close()
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	ledger := services.NewLedgerService(store, catalog, events, logger)
	accounts := services.NewAccountService(store, ledger, logger)
	budgets := services.NewBudgetService(store, catalog, logger)
	recurring := services.NewRecurringService(store, ledger, logger)
	analysis := services.NewAnalysisService(store, logger)

	server := mcp.NewServer(accounts, ledger, budgets, recurring, analysis, catalog, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// Serve tools over stdio.
	g.Go(func() error {
		return server.Run(ctx)
	})

	// Materialize due recurring occurrences in the background so rules fire
	// even when no client asks.
	g.Go(func() error {
		ticker := time.NewTicker(cfg.RecurringInterval)
		defer ticker.Stop()
		for {
			if n, err := recurring.ProcessDue(ctx, core.Today()); err != nil {
				logger.Error("recurring processing failed", "error", err)
			} else if n > 0 {
				logger.Info("recurring occurrences posted", "count", n)
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
		}
	})

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
	logger.Info("financeflow shutdown complete")
}

func logLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
