package middleware

import (
	"orgchart-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// ActorHeader carries the authenticated user id. Authentication happens at the
// gateway in front of this service; requests without the header are rejected.
const ActorHeader = "X-User-Id"

const actorLocal = "actor_id"

// RequireActor ensures a valid actor id is present and stores it in Locals.
func RequireActor() fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Get(ActorHeader)
		if raw == "" {
			return response.Unauthorized(c, "Unauthorized")
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return response.Unauthorized(c, "Unauthorized")
		}
		c.Locals(actorLocal, id)
		return c.Next()
	}
}

// GetActorID returns the actor set by RequireActor (uuid.Nil if absent).
func GetActorID(c *fiber.Ctx) uuid.UUID {
	if id, ok := c.Locals(actorLocal).(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}
