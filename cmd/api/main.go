package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"orgchart-backend/internal/config"
	"orgchart-backend/internal/interfaces/router"
	"orgchart-backend/internal/platform/logger"

	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("config load: " + err.Error())
	}
	logger.Setup(cfg.LogLevel, cfg.IsProduction())

	app, container, err := router.CreateApp(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("app create")
	}
	defer container.Close(10 * time.Second)

	log.Info().
		Str("env", cfg.Env).
		Bool("redis", container.Redis != nil).
		Msgf("Server running at http://localhost:%s", cfg.Port)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Info().Msg("shutting down")
		_ = app.ShutdownWithTimeout(10 * time.Second)
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Error().Err(err).Msg("server stopped")
	}
}
