// Command server exposes BSP item extraction over HTTP.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/bspitems/internal/catalog"
	"github.com/JonMunkholm/bspitems/internal/config"
	"github.com/JonMunkholm/bspitems/internal/core"
	"github.com/JonMunkholm/bspitems/internal/extract"
	"github.com/JonMunkholm/bspitems/internal/logging"
	"github.com/JonMunkholm/bspitems/internal/report"
	"github.com/JonMunkholm/bspitems/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"addr", cfg.Server.Addr(),
		"game_version", cfg.Report.GameVersion,
		"max_upload_size", cfg.Server.MaxUploadSize,
		"max_concurrent", cfg.Server.MaxConcurrent,
		"rate_limit", cfg.Server.RateLimit,
	)

	// The catalog is the only startup dependency; without it nothing resolves.
	version := cfg.GameVersion()
	cat, err := catalog.Load(cfg.Paths.CatalogPath)
	if err != nil {
		slog.Error("failed to load item catalog", "error", err, "hint", core.FormatUserError(err))
		os.Exit(1)
	}
	if !cat.HasVersion(string(version)) {
		slog.Error("item catalog has no section for game version",
			"path", cfg.Paths.CatalogPath,
			"version", version,
			"available", cat.Versions(),
		)
		os.Exit(1)
	}
	slog.Info("item catalog loaded", "path", cfg.Paths.CatalogPath, "entries", cat.Len(string(version)))

	// Reports are rendered in memory; the output dir is never written by the server.
	service := core.NewService(
		extract.New(cat, version),
		filepath.Clean(cfg.Paths.OutputDir),
		report.Options{
			SimpleNames:    cfg.Report.SimpleNames,
			IncludeMapName: cfg.Report.IncludeMapName,
		},
	)

	server := web.NewServer(service, cat, version, cfg.Server)

	// Graceful shutdown. Start returns as soon as the listener closes, so main
	// waits on stopped for in-flight extractions to finish.
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	<-stopped
	slog.Info("server stopped")
}
