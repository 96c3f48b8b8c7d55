package middleware

import (
	"errors"
	"strings"

	"github.com/VanshGarg05/WhatsappWebClone/internal/httpx"
	"github.com/VanshGarg05/WhatsappWebClone/internal/service"
	"github.com/gofiber/fiber/v2"
)

// AuthRequired validates the session token from the Authorization header or
// the "token" cookie and stashes the caller's identity in Locals.
func AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		var tokenString string
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				return httpx.Unauthorized(c, "invalid_authorization", "Invalid authorization format")
			}
			tokenString = parts[1]
		} else {
			tokenString = c.Cookies("token")
		}

		claims, err := service.VerifyToken(tokenString)
		if err != nil {
			if errors.Is(err, service.ErrUnauthenticated) {
				return httpx.Unauthorized(c, "missing_token", "Missing token")
			}
			return httpx.Unauthorized(c, "invalid_token", "Invalid or expired token")
		}

		c.Locals("userID", claims.UserID)
		c.Locals("username", claims.Username)

		return c.Next()
	}
}
