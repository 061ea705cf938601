// Package main is the entry point for the ABFI rating and bankability service.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/abfi/platform/internal/config"
	"github.com/abfi/platform/internal/di"
	"github.com/abfi/platform/internal/server"
	"github.com/abfi/platform/pkg/logger"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:   cfg.LogLevel,
		Pretty:  cfg.DevMode,
		Service: "abfi",
	})
	logger.SetGlobalLogger(log)

	log.Info().Str("version", version).Str("data_dir", cfg.DataDir).Msg("Starting ABFI platform")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	container, _, err := di.Wire(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}
	defer func() {
		if err := container.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close database")
		}
	}()

	srv := server.New(server.Config{
		Log:       log,
		DB:        container.DB,
		Metrics:   container.Metrics,
		Scheduler: container.Scheduler,
		Modules: []server.RouteRegistrar{
			container.FeedstockHandler,
			container.BankabilityHandler,
		},
		Port:    cfg.Port,
		DevMode: cfg.DevMode,
		Version: version,
	})

	container.Scheduler.Start()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Waits for an in-flight rescore to finish
	container.Scheduler.Stop()

	log.Info().Msg("Server stopped")
}
