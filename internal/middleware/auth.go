package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/chatwave/chatwave-backend/internal/httpx"
	"github.com/chatwave/chatwave-backend/internal/service"
)

// AuthRequired authenticates the request through the auth service, so token
// verification (signature, expiry, user-still-exists) lives in one place.
func AuthRequired(authService *service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		var tokenString string
		if authHeader != "" {
			// Extract token from "Bearer <token>"
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				return httpx.Unauthorized(c, "invalid_authorization", "Invalid authorization format")
			}
			tokenString = parts[1]
		} else {
			// Browsers cannot set headers on the WebSocket upgrade request,
			// so the token is also accepted as a query parameter there.
			tokenString = c.Query("token")
		}

		if tokenString == "" {
			return httpx.Unauthorized(c, "missing_access_token", "Missing access token")
		}

		claims, err := authService.VerifyToken(tokenString)
		if err != nil {
			return httpx.Unauthorized(c, "invalid_access_token", "Invalid or expired token")
		}

		c.Locals("userID", claims.UserID)
		c.Locals("username", claims.Username)

		return c.Next()
	}
}
