package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

const localsUserID = "auth_user_id"

// RequireAuth verifies the bearer token (expiry enforced) and stores the
// subject id for the handler.
func (h *AuthHandler) RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)

		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
		}

		claims, err := h.tokens.VerifyAccessToken(token, false)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
		}

		c.Locals(localsUserID, claims.Subject)

		return c.Next()
	}
}
