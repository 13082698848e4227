package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/qpflow-api/internal/repository"
	"github.com/noah-isme/qpflow-api/internal/service"
	"github.com/noah-isme/qpflow-api/internal/utils"
)

// LoadIdentity resolves the authenticated user's active privileges and binds
// the full identity to the request. Runs after JWTProtected.
func LoadIdentity(users repository.UserRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals("user_id").(uint)
		if !ok || userID == 0 {
			return utils.SendError(c, fiber.StatusUnauthorized, "unauthenticated")
		}

		privileges, err := users.ActivePrivileges(c.Context(), userID)
		if err != nil {
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to resolve identity")
		}

		c.Locals("identity", service.Identity{UserID: userID, Privileges: privileges})
		return c.Next()
	}
}
