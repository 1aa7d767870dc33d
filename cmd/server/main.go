package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"

	"github.com/lougail/Web-scraping-project/internal/books"
	"github.com/lougail/Web-scraping-project/internal/config"
	"github.com/lougail/Web-scraping-project/internal/db"
	"github.com/lougail/Web-scraping-project/internal/middleware"
	"github.com/lougail/Web-scraping-project/internal/normalize"
	"github.com/lougail/Web-scraping-project/internal/reconcile"
	"github.com/lougail/Web-scraping-project/internal/repository"
	"github.com/lougail/Web-scraping-project/pkg/logger"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(".")
	if err != nil {
		panic(err)
	}

	log := logger.New(logger.Config{Env: cfg.Env, Level: cfg.LogLevel})

	conn, err := db.NewConnection(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer conn.Close()

	if err := db.RunMigrations(cfg.Database); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	// Repositories
	bookRepo := repository.NewBookRepository(conn.Pool)
	historyRepo := repository.NewHistoryRepository(conn.Pool)
	analyticsRepo := repository.NewAnalyticsRepository(conn.Pool)
	txRunner := repository.NewTxRunner(conn)

	// Services
	normalizer := normalize.New(cfg.SourceBaseURL, log)
	reconciler := reconcile.NewService(txRunner, normalizer, log)
	queries := books.NewService(bookRepo, historyRepo, analyticsRepo, log, cfg.PageSize, cfg.PageSizeMax)

	// HTTP surface
	mux := http.NewServeMux()
	books.NewHTTPHandler(queries, log).Register(mux)
	mux.Handle("POST /ingest", reconcile.NewHTTPHandler(reconciler))

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
	})

	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      corsHandler.Handler(middleware.Logging(log)(mux)),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.ServerAddr).Msg("starting http server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited")
}
