package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/qpflow-api/internal/service"
	"github.com/noah-isme/qpflow-api/internal/utils"
)

// RequirePrivilege ensures the authenticated user holds one of the named
// privileges. Runs after LoadIdentity.
func RequirePrivilege(privileges ...string) fiber.Handler {
	required := make([]string, 0, len(privileges))
	for _, privilege := range privileges {
		normalized := strings.ToUpper(strings.TrimSpace(privilege))
		if normalized != "" {
			required = append(required, normalized)
		}
	}

	return func(c *fiber.Ctx) error {
		identity, ok := c.Locals("identity").(service.Identity)
		if !ok || identity.UserID == 0 {
			return utils.SendError(c, fiber.StatusUnauthorized, "unauthenticated")
		}

		for _, privilege := range required {
			if identity.HasPrivilege(privilege) {
				return c.Next()
			}
		}
		return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
	}
}
