package handler

import (
	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(app *fiber.App, h *AuthHandler) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	api := app.Group("/api/v1")
	api.Post("/register", h.Register)
	api.Post("/confirm-email", h.ConfirmEmail)
	api.Post("/resend-confirmation", h.ResendConfirmation)
	api.Post("/forgot-password", h.ForgotPassword)
	api.Post("/reset-password", h.ResetPassword)
	api.Post("/login", h.Login)
	api.Post("/refresh", h.Refresh)
	api.Post("/change-password", h.RequireAuth(), h.ChangePassword)
}
