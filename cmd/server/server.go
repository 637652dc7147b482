package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"jan-server/services/assistant-api/internal/config"
	"jan-server/services/assistant-api/internal/infrastructure/auth"
	"jan-server/services/assistant-api/internal/infrastructure/crontab"
	"jan-server/services/assistant-api/internal/infrastructure/logger"
	"jan-server/services/assistant-api/internal/interfaces/httpserver"
	"jan-server/services/assistant-api/pkg/observability"
)

type Application struct {
	httpServer *httpserver.HTTPServer
	crontab    *crontab.Crontab
	validator  *auth.Validator
	telemetry  *observability.Provider
	cfg        *config.Config
	log        zerolog.Logger
}

// Start runs the HTTP server and the cleanup crontab until ctx is cancelled
// or one of them fails.
func (a *Application) Start(ctx context.Context) error {
	defer a.shutdown()

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return a.crontab.Run(ctx)
	})
	eg.Go(func() error {
		return a.httpServer.Run(ctx)
	})
	return eg.Wait()
}

func (a *Application) shutdown() {
	a.validator.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.telemetry.Shutdown(shutdownCtx); err != nil {
		a.log.Error().Err(err).Msg("shutdown telemetry")
	}
}

func main() {
	loadEnvFiles()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	started := time.Now()
	application, err := CreateApplication()
	if err != nil {
		log := logger.GetLogger()
		log.Fatal().Err(err).Msg("create application")
	}
	application.log.Info().
		Str("version", application.cfg.ServiceVersion).
		Dur("startup", time.Since(started)).
		Msg("assistant-api starting")

	if err := application.Start(ctx); err != nil {
		application.log.Fatal().Err(err).Msg("application stopped with error")
	}

	application.log.Info().Msg("application exited cleanly")
}

// loadEnvFiles reads .env files without overriding variables already set.
func loadEnvFiles() {
	paths := []string{".env", "../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
