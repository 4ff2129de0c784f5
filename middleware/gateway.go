package middleware

import (
	"log"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// ServiceAuthMiddleware guards operator routes (seeding, manual lifecycle
// transitions, agent triggers) with a shared Bearer token. When
// MISSION_SERVICE_TOKEN is unset the guard is disabled, which is the
// expected setup for local development and test mode.
func ServiceAuthMiddleware() fiber.Handler {
	expectedToken := os.Getenv("MISSION_SERVICE_TOKEN")
	if expectedToken == "" {
		log.Println("⚠️  MISSION_SERVICE_TOKEN not set — operator routes are unauthenticated")
		return func(c *fiber.Ctx) error {
			return c.Next()
		}
	}

	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			log.Printf("🚫 [SERVICE_AUTH] Missing Authorization header for %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "service authentication token missing",
			})
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			// no "Bearer " prefix — accept the raw value
			token = authHeader
		}

		if token != expectedToken {
			log.Printf("❌ [SERVICE_AUTH] Invalid token for %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid service authentication token",
			})
		}
		return c.Next()
	}
}
