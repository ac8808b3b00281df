package router

import (
	"context"

	"orgchart-backend/internal/app"
	"orgchart-backend/internal/config"
	"orgchart-backend/internal/constants"
	healthhandlers "orgchart-backend/internal/interfaces/handlers/health"
	transferhandlers "orgchart-backend/internal/interfaces/handlers/transfers"
	"orgchart-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// CreateApp builds the container from config and returns the Fiber app over it.
func CreateApp(cfg *config.Config) (*fiber.App, *app.Container, error) {
	c, err := app.Build(context.Background(), cfg)
	if err != nil {
		return nil, nil, err
	}
	return NewApp(c, cfg.CORSAllowedSuffix), c, nil
}

// NewApp registers global middleware and routes over a wired container.
// An empty corsSuffix leaves CORS handling off.
func NewApp(c *app.Container, corsSuffix string) *fiber.App {
	f := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          middleware.ErrorHandler,
	})

	if corsSuffix != "" {
		f.Use(middleware.CORS(corsSuffix))
	}
	f.Use(middleware.Tracing())
	f.Use(middleware.RouteLogger())

	// --- Routes (no auth) ---
	var healthHandlers healthhandlers.Handlers
	healthHandlers.Rdb = c.Redis
	healthHandlers.Overdue = c.Manager.Transfers
	if sqlDB, err := c.DB.DB(); err == nil {
		healthHandlers.DB = sqlDB
	}
	f.Get("/health/json", healthHandlers.JSON)

	f.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(c.Registry, promhttp.HandlerOpts{})))

	// --- Ownership transfers (actor required) ---
	h := &transferhandlers.Handlers{Manager: c.Manager}
	orgGroup := f.Group("/api/v1/orgs/:org_id/ownership-transfers", middleware.RequireActor())
	orgGroup.Post("/", h.Initiate)
	orgGroup.Get("/", middleware.AuthorizePermission(c.Guard, constants.ViewTransferHistory), h.History)

	transferGroup := f.Group("/api/v1/ownership-transfers", middleware.RequireActor())
	transferGroup.Post("/:id/accept", h.Accept)
	transferGroup.Post("/:id/reject", h.Reject)
	transferGroup.Post("/:id/cancel", h.Cancel)

	return f
}
