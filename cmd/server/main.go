// Command server runs the identity HTTP API.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/99minutos/identity-service/internal/app"
	"github.com/99minutos/identity-service/internal/pkg/config"
	"github.com/99minutos/identity-service/pkg/logger"
)

// @title						Identity Service API
// @version					1.0
// @description				User directory, JWT sign-in and API key authentication.
// @BasePath					/
// @securityDefinitions.apikey	BearerAuth
// @in							header
// @name						Authorization
// @securityDefinitions.apikey	APIKeyAuth
// @in							header
// @name						X-API-Key
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		bootLog := logger.Init(logger.Options{})
		bootLog.Fatal().Err(err).Msg("load config")
	}
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.LogPretty,
		Service: "identity-service",
	})

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("start")
	}

	runErr := a.Run(ctx)
	if err := a.Close(context.Background()); err != nil {
		log.Error().Err(err).Msg("close")
	}
	if runErr != nil {
		log.Error().Err(runErr).Msg("server stopped")
		os.Exit(1)
	}
	log.Info().Msg("server stopped")
}
