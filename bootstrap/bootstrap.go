package bootstrap

import (
	"orgchart-backend/internal/config"
	"orgchart-backend/internal/interfaces/router"
	"orgchart-backend/internal/platform/logger"

	"github.com/gofiber/fiber/v2"
)

// New creates the Fiber app for Vercel serverless (api handler imports this package, not internal).
func New() (*fiber.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger.Setup(cfg.LogLevel, true)
	app, _, err := router.CreateApp(cfg)
	return app, err
}
