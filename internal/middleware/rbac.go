package middleware

import (
	"slices"

	"crm-support/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

// RequireRole restricts a route to the given roles. AuthMiddleware must run
// first so the claims are present in locals.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := c.Locals(utils.UserClaimsKey).(*utils.UserClaims)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		}

		if !slices.Contains(roles, claims.Role) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Forbidden: insufficient role",
			})
		}

		return c.Next()
	}
}
