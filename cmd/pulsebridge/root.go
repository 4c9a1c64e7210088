package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/contentpulse/pulsebridge/internal/api"
	"github.com/contentpulse/pulsebridge/internal/config"
	"github.com/contentpulse/pulsebridge/internal/engine"
	"github.com/contentpulse/pulsebridge/internal/history"
	"github.com/contentpulse/pulsebridge/internal/media"
	"github.com/contentpulse/pulsebridge/internal/store"
)

// Version is set at build time via ldflags: -ldflags "-X main.Version=1.0.0"
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "pulsebridge",
	Short: "PulseBridge - ContentPulse sync service",
	RunE:  run,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(publishCmd)
}

func run(cmd *cobra.Command, args []string) error {
	// 1. Signal handling
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	// 2. Load configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("configuration loaded")

	// 3. Initialize logger
	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)
	slog.Info("logger initialized", "level", cfg.Log.Level)

	// 4. Initialize store (migrations, WAL mode)
	db, err := store.NewSQLiteStore(cfg.Database.Path, store.Options{
		BaseURL:      cfg.Site.BaseURL,
		MediaDir:     cfg.Media.LibraryPath,
		FetchTimeout: time.Duration(cfg.Media.FetchTimeout),
		MaxRedirects: cfg.Media.MaxRedirects,
	})
	if err != nil {
		return err
	}
	slog.Info("store initialized", "path", cfg.Database.Path)

	// 5. Initialize sync collaborators
	hist := history.New(db)
	resolver := media.NewResolver(db, logger, media.Options{
		FallbackImport: cfg.Media.FallbackImport,
		FetchTimeout:   time.Duration(cfg.Media.FetchTimeout),
		MaxRedirects:   cfg.Media.MaxRedirects,
	})
	reconciler := engine.New(db, hist, logger, engine.Options{
		ResolveAuthors: cfg.Sync.ResolveAuthors,
		SEOIntegration: cfg.Sync.SEOIntegration,
		DefaultStatus:  cfg.Sync.DefaultStatus,
	})
	slog.Info("reconciler initialized", "seo_integration", cfg.Sync.SEOIntegration)

	// 6. Initialize HTTP router
	handler := api.NewHandler(api.HandlerOptions{
		Store:          db,
		Library:        db,
		Engine:         reconciler,
		Resolver:       resolver,
		History:        hist,
		APIKey:         cfg.Auth.APIKey,
		Version:        Version,
		SideloadImages: cfg.Media.SideloadImages,
	})
	router := api.NewRouter(handler)
	slog.Info("router initialized")

	// 7. Configure HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout),
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout),
	}

	// 8. Start HTTP server in goroutine
	go func() {
		slog.Info("server starting", "address", addr)
		// ErrServerClosed is the expected error when Shutdown() is called
		// gracefully. Anything else is a real failure.
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			cancel()
		}
	}()

	// 9. Block until signal received
	<-ctx.Done()
	slog.Info("shutdown initiated")

	// 10. Graceful shutdown sequence
	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout))
	defer shutdownCancel()

	// 10a. Stop HTTP server (drains in-flight requests)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	// 10b. Close store
	if err := db.Close(); err != nil {
		slog.Error("store close error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Level)}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func parseLogLevel(level string) slog.Level {
	switch level {
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
