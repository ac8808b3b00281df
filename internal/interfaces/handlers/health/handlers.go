package health

import (
	healthsvc "orgchart-backend/internal/application/health"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// Handlers holds dependencies for health endpoints.
type Handlers struct {
	Rdb     *redis.Client
	DB      healthsvc.DBPinger
	Overdue healthsvc.OverdueCounter
}

// JSON returns health data as JSON. Status 503 when a required dependency is down.
func (h *Handlers) JSON(c *fiber.Ctx) error {
	result := healthsvc.CollectHealth(c.UserContext(), h.Rdb, h.DB, h.Overdue)
	status := fiber.StatusOK
	if result.Status != "ok" {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(fiber.Map{
		"service":      "orgchart-api",
		"status":       result.Status,
		"runtime":      result.Runtime,
		"dependencies": result.Dependencies,
		"transfers":    result.Transfers,
	})
}
