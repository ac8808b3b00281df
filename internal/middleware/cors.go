package middleware

import (
	"strings"

	"orgchart-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// CORS allows browser origins whose host ends with allowedSuffix (e.g. ".orgchart.app")
// plus localhost during development. Requests without an Origin pass through.
func CORS(allowedSuffix string) fiber.Handler {
	suffix := strings.ToLower(allowedSuffix)
	return func(c *fiber.Ctx) error {
		origin := c.Get("Origin")
		if origin == "" {
			return c.Next()
		}
		lower := strings.ToLower(origin)
		local := strings.HasPrefix(lower, "http://localhost:") || strings.HasPrefix(lower, "http://127.0.0.1:")
		if !local && (suffix == "" || !strings.HasSuffix(lower, suffix)) {
			return response.Error(c, "Not allowed by CORS", fiber.StatusForbidden, nil)
		}
		c.Set("Access-Control-Allow-Origin", origin)
		c.Set("Access-Control-Allow-Credentials", "true")
		c.Set("Access-Control-Allow-Headers", "Content-Type, "+ActorHeader+", "+traceIDHeader)
		c.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Vary(fiber.HeaderOrigin)
		if c.Method() == fiber.MethodOptions {
			return c.SendStatus(fiber.StatusNoContent)
		}
		return c.Next()
	}
}
