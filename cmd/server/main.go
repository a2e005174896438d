package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/tracklayer/docxrevise/internal/config"
	"github.com/tracklayer/docxrevise/internal/handler"
	"github.com/tracklayer/docxrevise/internal/service"
	"github.com/tracklayer/docxrevise/internal/session"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg := config.Load()

	pkgSvc := service.NewPackagingService()
	cache := session.NewDocumentCache(cfg.Session.CacheCapacity, logger)
	revSvc := service.NewRevisionService(cache, logger)

	maxBody := cfg.MaxUploadSizeMB << 20 // convert MB to bytes
	router := handler.NewRouter(logger, pkgSvc, revSvc, maxBody)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", slog.Int("port", cfg.Port))
		errCh <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("shutting down", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", slog.String("error", err.Error()))
		os.Exit(1)
	}

	saveDirtyDocuments(logger, cache)

	logger.Info("server stopped")
}

// saveDirtyDocuments makes a best effort to persist every unsaved edit
// before the process exits; a failure here is logged, not fatal, since the
// process is exiting regardless.
func saveDirtyDocuments(logger *slog.Logger, cache *session.DocumentCache) {
	for _, cd := range cache.All() {
		if !cd.Dirty {
			continue
		}
		if err := cd.Save(); err != nil {
			logger.Error("shutdown save failed", slog.String("path", cd.Path), slog.String("error", err.Error()))
			continue
		}
		logger.Info("shutdown save succeeded", slog.String("path", cd.Path))
	}
}
