// The recurring-worker runs the recurring rule processor on a fixed
// interval, for deployments where the MCP server and the automation loop
// live in separate processes.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"financeflow/internal/amqp"
	"financeflow/internal/categories"
	"financeflow/internal/config"
	"financeflow/internal/core"
	"financeflow/internal/log"
	"financeflow/internal/services"
	"financeflow/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()
	logger := log.New(log.Config{Component: log.ComponentWorker})
	log.SetDefault(logger)

	logger.Info("starting recurring-worker")

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
	}

	var events *amqp.Client
	if cfg.AMQPURL != "" {
		events, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("failed to initialize AMQP client, continuing without event publishing", "error", err)
			events = nil
		} else {
			defer events.Close()
		}
	}

	ledger := services.NewLedgerService(store, catalog, events, logger)
	recurring := services.NewRecurringService(store, ledger, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("recurring processor configured", "interval", cfg.RecurringInterval, "db", cfg.DBPath)

	ticker := time.NewTicker(cfg.RecurringInterval)
	defer ticker.Stop()

	for {
		if n, err := recurring.ProcessDue(ctx, core.Today()); err != nil {
			logger.Error("recurring processing failed", "error", err)
		} else {
			logger.Info("recurring processing complete", "postings", n)
		}
		select {
		case <-ctx.Done():
			logger.Info("recurring-worker shutdown complete")
			return
		case <-ticker.C:
		}
	}
}
