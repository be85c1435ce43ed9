// Package main is the entry point for the estoque reconciliation API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"estoque/internal/config"
	v1 "estoque/internal/infrastructure/http/v1"
	"estoque/internal/infrastructure/storage/memory"
	"estoque/internal/infrastructure/storage/postgres"
	"estoque/internal/infrastructure/storage/postgres/adjustment_repo"
	"estoque/internal/infrastructure/storage/postgres/period_repo"
	"estoque/internal/infrastructure/storage/postgres/product_repo"
	"estoque/internal/infrastructure/storage/postgres/records_repo"
	"estoque/pkg/logger"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		fmt.Printf("failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.Development(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)
	defer func() { _ = log.Sync() }()

	ctx := context.Background()
	log.Infow("starting estoque server",
		"env", cfg.Env,
		"page_size", cfg.PageSize,
		"overdraw_policy", cfg.OverdrawPolicy,
	)

	routerCfg := v1.RouterConfig{
		Logger:         log,
		PageSize:       cfg.PageSize,
		OverdrawPolicy: cfg.OverdrawPolicy,
		Debug:          cfg.Development(),
	}

	var pool *postgres.Pool
	if cfg.InMemory() {
		store := memory.New()
		periodID := memory.NewFixture(store).Demo()
		log.Warnw("DATABASE_URL not set, serving the in-memory demo store", "period_id", periodID)

		routerCfg.Storage = "memory"
		routerCfg.Periods = store
		routerCfg.Records = store
		routerCfg.Products = store
		routerCfg.Transfers = store
		routerCfg.AuditSink = store
		routerCfg.TxManager = store
	} else {
		pool, err = postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.DatabaseURL, cfg.DBMaxConns))
		if err != nil {
			log.Fatalw("failed to connect to database", "error", err)
		}
		defer pool.Close()
		log.Info("database connection established")

		txManager := postgres.NewTxManager(pool, postgres.Timeouts{
			Write:    cfg.StatementTimeout,
			Snapshot: cfg.SnapshotTimeout,
		})
		auditSink, err := postgres.NewAuditSink(txManager, cfg.AuditCompressThreshold)
		if err != nil {
			log.Fatalw("failed to create audit sink", "error", err)
		}

		routerCfg.Storage = "postgres"
		routerCfg.Readiness = pool
		routerCfg.Periods = period_repo.NewRepo(txManager)
		routerCfg.Records = records_repo.NewRepo(txManager)
		routerCfg.Products = product_repo.NewRepo(txManager)
		routerCfg.Transfers = adjustment_repo.NewRepo(txManager)
		routerCfg.AuditSink = auditSink
		routerCfg.TxManager = txManager
	}

	router := v1.NewRouter(routerCfg)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", cfg.Port, "storage", routerCfg.Storage)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}
	if pool != nil {
		postgres.LogPoolStats(shutdownCtx, pool)
	}

	log.Info("server stopped")
}
