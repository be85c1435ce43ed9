// Package main provides a CLI that loads a JSON bundle of extracted records
// into PostgreSQL.
//
// Usage:
//
//	importer -file bundle.json
//	importer -file - < bundle.json
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"estoque/internal/config"
	"estoque/internal/domain/period"
	"estoque/internal/infrastructure/importer"
	"estoque/internal/infrastructure/storage/postgres"
	"estoque/internal/infrastructure/storage/postgres/period_repo"
	"estoque/internal/infrastructure/storage/postgres/product_repo"
	"estoque/internal/infrastructure/storage/postgres/records_repo"
	"estoque/pkg/logger"
)

func main() {
	file := flag.String("file", "", "path to the JSON bundle, - for stdin")
	envFile := flag.String("env", ".env", "optional dotenv file")
	flag.Parse()

	if *file == "" {
		fmt.Fprintln(os.Stderr, "usage: importer -file bundle.json")
		os.Exit(2)
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Printf("failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)
	defer func() { _ = log.Sync() }()

	if cfg.InMemory() {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	bundle, err := readBundle(*file)
	if err != nil {
		log.Fatalw("failed to read bundle", "file", *file, "error", err)
	}

	ctx := context.Background()

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.DatabaseURL, cfg.DBMaxConns))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	txManager := postgres.NewTxManager(pool, postgres.Timeouts{
		Write:    cfg.StatementTimeout,
		Snapshot: cfg.SnapshotTimeout,
	})
	loader := importer.NewLoader(
		period.NewService(period_repo.NewRepo(txManager), txManager),
		records_repo.NewRepo(txManager),
		product_repo.NewRepo(txManager),
		txManager,
	)

	sum, err := loader.Load(ctx, bundle)
	if err != nil {
		log.Fatalw("import failed", "error", err)
	}

	log.Infow("import completed",
		"batches", sum.Batches,
		"periods_added", sum.PeriodsAdded,
		"documents", sum.Documents,
		"products", sum.Products,
		"skipped", sum.Skipped,
	)
}

func readBundle(path string) (*importer.Bundle, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	return importer.Decode(r)
}
