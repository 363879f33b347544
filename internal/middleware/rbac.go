package middleware

import (
	"go-dashboard/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

// RequireWorkspace rejects users whose token does not grant the workspace.
// It must run after AuthMiddleware.
func RequireWorkspace(skipAuth bool, workspace string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if skipAuth {
			return c.Next()
		}

		claims, ok := c.Locals(utils.UserClaimsKey).(*utils.UserClaims)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		}
		if !claims.CanAccess(workspace) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Forbidden: no access to workspace",
			})
		}
		return c.Next()
	}
}
