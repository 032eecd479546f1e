// Command seed creates the default administrator account. Running it again
// is a no-op.
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

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		bootLog := logger.Init(logger.Options{})
		bootLog.Fatal().Err(err).Msg("load config")
	}
	logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.LogPretty, Service: "identity-service"})
	log := logger.Component("seed")

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("start")
	}

	err = a.SeedAdmin(ctx)
	if cerr := a.Close(context.Background()); cerr != nil {
		log.Error().Err(cerr).Msg("close")
	}
	if err != nil {
		log.Error().Err(err).Msg("seed failed")
		os.Exit(1)
	}
}
