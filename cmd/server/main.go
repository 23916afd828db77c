package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tocos/ledger-service/internal/config"
	"github.com/tocos/ledger-service/internal/db"
	"github.com/tocos/ledger-service/internal/domain"
	"github.com/tocos/ledger-service/internal/events"
	"github.com/tocos/ledger-service/internal/metrics"
	"github.com/tocos/ledger-service/internal/server"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := config.Load()
	ctx := context.Background()

	// Initialize database connection pool and schema
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Setup(ctx, cfg.ResetSchema); err != nil {
		logger.Error("failed to set up schema", "error", err)
		os.Exit(1)
	}
	logger.Info("database connection pool initialized", "reset_schema", cfg.ResetSchema)

	// Optional transfer-event publisher
	var publisher domain.EventPublisher
	if cfg.RabbitMQ.URL != "" {
		rabbitPublisher, err := events.NewRabbitMQPublisher(
			cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, cfg.RabbitMQ.RoutingKey)
		if err != nil {
			logger.Error("failed to create event publisher", "error", err)
			os.Exit(1)
		}
		defer rabbitPublisher.Close()
		publisher = rabbitPublisher
		logger.Info("event publisher initialized",
			"exchange", cfg.RabbitMQ.Exchange, "routing_key", cfg.RabbitMQ.RoutingKey)
	}

	// Create repositories and domain services
	accountRepo := db.NewAccountRepository(pool)
	ledgerRepo := db.NewLedgerRepository(pool)
	txManager := db.NewTransactionManager(pool)

	accountService := domain.NewAccountService(accountRepo)
	transferService := domain.NewTransferService(accountRepo, ledgerRepo, txManager, publisher, logger)

	collector := metrics.NewCollector()
	srv := server.New(accountService, transferService, collector, logger)

	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: srv.Router(),
	}

	go func() {
		logger.Info("ledger service starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}
	logger.Info("HTTP server stopped")
}
