package middleware

import (
	"log"
	"strings"

	"tokoshop/internal/services"

	"github.com/gofiber/fiber/v2"
)

const (
	localUserID = "user_id"
	localRole   = "role"
)

// AuthRequired is a Fiber middleware to check for a valid JWT token.
func AuthRequired(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return unauthorized(c, "Authorization header is required")
		}

		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			return unauthorized(c, "Authorization header format must be 'Bearer <token>'")
		}

		claims, err := authService.ValidateToken(parts[1])
		if err != nil {
			log.Printf("JWT validation failed: %v", err)
			return unauthorized(c, "Invalid or expired token")
		}

		// Store the principal in Fiber context for subsequent handlers
		c.Locals(localUserID, claims["user_id"].(string))
		role, _ := claims["role"].(string)
		c.Locals(localRole, role)

		return c.Next()
	}
}

// AdminOnly rejects principals without the admin role. It must run after
// AuthRequired.
func AdminOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if role, _ := c.Locals(localRole).(string); role != services.RoleAdmin {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"kind":    "forbidden",
				"message": "Admin role required",
			})
		}
		return c.Next()
	}
}

// Principal returns the authenticated user id stored by AuthRequired.
func Principal(c *fiber.Ctx) string {
	owner, _ := c.Locals(localUserID).(string)
	return owner
}

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"kind":    "unauthorized",
		"message": message,
	})
}
