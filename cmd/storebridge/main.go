package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/riandyrn/otelchi"

	"github.com/neomorfeo/storebridge/internal/adapter/fsm"
	handler "github.com/neomorfeo/storebridge/internal/adapter/http"
	"github.com/neomorfeo/storebridge/internal/adapter/marketplace"
	otelAdapter "github.com/neomorfeo/storebridge/internal/adapter/otel"
	"github.com/neomorfeo/storebridge/internal/adapter/probe"
	riverAdapter "github.com/neomorfeo/storebridge/internal/adapter/river"
	"github.com/neomorfeo/storebridge/internal/adapter/spreadsheet"
	"github.com/neomorfeo/storebridge/internal/adapter/sqlite"
	"github.com/neomorfeo/storebridge/internal/app"
	"github.com/neomorfeo/storebridge/internal/config"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("storebridge: %v", err)
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	setupLogger(cfg.LogLevel)

	otelCfg, err := otelAdapter.ConfigFromEnv()
	if err != nil {
		return fmt.Errorf("otel config: %w", err)
	}
	providers, err := otelAdapter.Setup(ctx, otelCfg)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}

	for _, dir := range []string{cfg.DataDir, cfg.UploadDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	// --- Adapters (out) ---
	masterDB, err := otelAdapter.OpenDB(filepath.Join(cfg.DataDir, "storebridge.db"))
	if err != nil {
		return fmt.Errorf("master database: %w", err)
	}
	defer masterDB.Close()

	masterDirectory, err := sqlite.NewDirectoryFromDB(masterDB)
	if err != nil {
		return fmt.Errorf("directory: %w", err)
	}
	directory := otelAdapter.NewTracingDirectory(masterDirectory)

	// Tenant databases are opened through the same instrumented opener as
	// the master database.
	registry := sqlite.NewRegistry(directory, cfg.DataDir, otelAdapter.OpenDB)

	market := otelAdapter.NewTracingMarketplace(marketplace.New(marketplace.Config{
		BaseURL:  cfg.MarketplaceURL,
		Login:    cfg.MarketplaceLogin,
		Password: cfg.MarketplacePassword,
		Timeout:  cfg.MarketplaceTimeout,
	}, nil))

	validator := fsm.New()
	prober := probe.New(0)
	queue := riverAdapter.NewQueue()

	// --- Application ---
	openReader := func(path string) (app.RowReader, error) {
		return spreadsheet.Open(path)
	}
	importer := app.NewImporter(registry, queue, market, prober, openReader, cfg.UploadDir)
	tokens := app.NewTokenService(directory, registry, market, queue, validator, nil)
	stores := app.NewStoreService(registry, market, validator)
	catalog := app.NewCatalogService(market)
	directorySvc := app.NewDirectoryService(directory)

	riverClient, err := riverAdapter.Setup(ctx, masterDB, importer, tokens)
	if err != nil {
		return fmt.Errorf("river: %w", err)
	}
	queue.Bind(riverClient)

	if err := riverClient.Start(ctx); err != nil {
		return fmt.Errorf("river start: %w", err)
	}

	// --- Adapters (in) ---
	router := chi.NewMux()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)
	router.Use(otelchi.Middleware("storebridge", otelchi.WithChiRoutes(router)))

	api := humachi.New(router, huma.DefaultConfig("storebridge", "0.1.0"))
	handler.Register(api, handler.Services{
		Directory: directorySvc,
		Stores:    stores,
		Imports:   importer,
		Catalog:   catalog,
	})

	// --- Server ---
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("storebridge listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server: %w", err)
	case <-done:
	}
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown", "error", err)
	}
	if err := riverClient.Stop(shutdownCtx); err != nil {
		slog.Error("river shutdown", "error", err)
	}
	if err := registry.Shutdown(); err != nil {
		slog.Error("registry shutdown", "error", err)
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		slog.Error("otel shutdown", "error", err)
	}

	slog.Info("stopped")
	return nil
}

func setupLogger(level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})))
}
