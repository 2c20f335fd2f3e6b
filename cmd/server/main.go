package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/breadcrumbsapp/breadcrumbs/internal/backend"
	"github.com/breadcrumbsapp/breadcrumbs/internal/config"
	"github.com/breadcrumbsapp/breadcrumbs/internal/database"
	"github.com/breadcrumbsapp/breadcrumbs/internal/draft"
	"github.com/breadcrumbsapp/breadcrumbs/internal/geocode"
	"github.com/breadcrumbsapp/breadcrumbs/internal/migrations"
	"github.com/breadcrumbsapp/breadcrumbs/internal/server"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// --- SQLite (draft store) ---
	db, err := database.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("connecting to sqlite: %w", err)
	}
	defer db.Close()

	if err := migrations.Run(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("connected to sqlite", "path", cfg.DBPath)

	// --- Remote backend and geocoder ---
	be := backend.New(cfg.BackendURL, cfg.AuthURL, cfg.BackendKey, logger)
	if err := be.Ping(ctx); err != nil {
		logger.Warn("backend unreachable at startup", "error", err)
	}
	geocoder := geocode.New(cfg.GeocoderURL, logger)

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, server.Deps{
		Logger:   logger,
		DB:       db,
		Backend:  be,
		Geocoder: geocoder,
		Drafts:   draft.NewStore(db),
		SPADir:   cfg.SPADir,
	})

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}
