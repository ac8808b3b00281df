// Command expire-transfers runs one expiration sweep over overdue ownership
// transfers. It is meant to be scheduled by cron; concurrent runs are
// serialized by a Redis lock when REDIS_URL is set.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"orgchart-backend/internal/app"
	"orgchart-backend/internal/application/transfers"
	"orgchart-backend/internal/config"
	"orgchart-backend/internal/platform/logger"

	"github.com/rs/zerolog/log"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("config load")
		return 1
	}
	logger.Setup(cfg.LogLevel, cfg.IsProduction())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := app.Build(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Msg("startup")
		return 1
	}
	defer c.Close(30 * time.Second)

	n, err := c.Sweeper.RunOnce(ctx)
	switch {
	case errors.Is(err, transfers.ErrSweepInProgress):
		log.Info().Msg("another expiration sweep holds the lock; nothing to do")
		return 0
	case err != nil:
		log.Error().Err(err).Int("expired", n).Msg("expiration sweep failed")
		return 1
	}
	log.Info().Int("expired", n).Msg("expiration sweep finished")
	return 0
}
