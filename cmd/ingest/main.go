// Command ingest loads one crawler export (CSV or XLSX) into the store and
// prints the reconciliation summary.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lougail/Web-scraping-project/internal/config"
	"github.com/lougail/Web-scraping-project/internal/db"
	"github.com/lougail/Web-scraping-project/internal/normalize"
	"github.com/lougail/Web-scraping-project/internal/reconcile"
	"github.com/lougail/Web-scraping-project/internal/repository"
	"github.com/lougail/Web-scraping-project/pkg/logger"
)

func main() {
	configPath := flag.String("config", ".", "directory holding config.yaml")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: ingest [-config dir] <file.csv|file.xlsx>")
		os.Exit(2)
	}
	fileName := flag.Arg(0)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Env: cfg.Env, Level: cfg.LogLevel})

	payload, err := os.ReadFile(fileName)
	if err != nil {
		log.Fatal().Err(err).Str("file", fileName).Msg("failed to read file")
	}

	records, err := reconcile.ParseFile(filepath.Base(fileName), payload)
	if err != nil {
		log.Fatal().Err(err).Str("file", fileName).Msg("failed to parse file")
	}

	ctx := context.Background()
	conn, err := db.NewConnection(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer conn.Close()

	if err := db.RunMigrations(cfg.Database); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	normalizer := normalize.New(cfg.SourceBaseURL, log)
	service := reconcile.NewService(repository.NewTxRunner(conn), normalizer, log)

	summary := service.ReconcileAll(ctx, records)
	fmt.Printf("run %s: %d records, %d created, %d updated, %d unchanged, %d failed\n",
		summary.RunID, summary.Total, summary.Created, summary.Updated, summary.Unchanged, summary.Failed)
}
