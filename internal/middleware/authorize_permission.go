package middleware

import (
	"errors"

	policies "orgchart-backend/internal/application/policies/transfers"
	"orgchart-backend/internal/constants"
	"orgchart-backend/internal/domain"
	"orgchart-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// AuthorizePermission checks the actor's role in the :org_id organization against
// PermissionRoles. Not a member or role not allowed -> 403; unknown permission -> 500.
func AuthorizePermission(guard *policies.Guard, permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actorID := GetActorID(c)
		if actorID == uuid.Nil {
			return response.Unauthorized(c, "Unauthorized")
		}
		if roles, ok := constants.PermissionRoles[permission]; !ok || len(roles) == 0 {
			return response.Error(c, "Permission configuration error", fiber.StatusInternalServerError, nil)
		}
		orgID, err := uuid.Parse(c.Params("org_id"))
		if err != nil {
			return response.Error(c, "Invalid organization id", fiber.StatusBadRequest, nil)
		}
		if _, err := guard.Authorize(c.UserContext(), orgID, actorID, permission); err != nil {
			if errors.Is(err, domain.ErrForbidden) {
				return response.Error(c, "User is Forbidden from performing this action", fiber.StatusForbidden, nil)
			}
			return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
		}
		return c.Next()
	}
}
