package handler

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"

	"github.com/grzegorz-kurc/MyStorage/internal/auth/dto"
	"github.com/grzegorz-kurc/MyStorage/internal/auth/service"
	autherror "github.com/grzegorz-kurc/MyStorage/internal/errors"
)

type AuthHandler struct {
	userService *service.UserService
	tokens      service.TokenGenerator
}

func NewAuthHandler(userService *service.UserService, tokens service.TokenGenerator) *AuthHandler {
	return &AuthHandler{userService: userService, tokens: tokens}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var input dto.RegisterInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid input",
		})
	}

	if err := input.Validate(); err != nil {
		return validationErrorResponse(c, err)
	}

	user, err := h.userService.Register(c.Context(), input)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":      user.ID,
		"email":   user.Email,
		"message": "registered successfully, please check your email for confirmation",
	})
}

func (h *AuthHandler) ConfirmEmail(c *fiber.Ctx) error {
	var input dto.ConfirmEmailInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}

	if err := input.Validate(); err != nil {
		return validationErrorResponse(c, err)
	}

	ok, err := h.userService.ConfirmEmail(c.Context(), input.UserID, input.Token)
	if err != nil {
		return errorResponse(c, err)
	}
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": autherror.ErrActionTokenInvalid.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "email confirmed"})
}

func (h *AuthHandler) ResendConfirmation(c *fiber.Ctx) error {
	var input dto.ResendConfirmationInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}

	if err := input.Validate(); err != nil {
		return validationErrorResponse(c, err)
	}

	if err := h.userService.ResendConfirmation(c.Context(), input.Email); err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "confirmation email sent"})
}

func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var input dto.ForgotPasswordInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}

	if err := input.Validate(); err != nil {
		return validationErrorResponse(c, err)
	}

	if err := h.userService.RequestPasswordReset(c.Context(), input.Email); err != nil {
		return errorResponse(c, err)
	}

	// Identical body whether or not the address is registered.
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "if the email is registered, a reset link has been sent",
	})
}

func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var input dto.ResetPasswordInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}

	if err := input.Validate(); err != nil {
		return validationErrorResponse(c, err)
	}

	if err := h.userService.ResetPassword(c.Context(), input); err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "password has been reset"})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input dto.LoginInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}

	if err := input.Validate(); err != nil {
		return validationErrorResponse(c, err)
	}

	tokenPair, err := h.userService.Login(c.Context(), input)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(tokenPair)
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var input dto.RefreshInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}

	if err := input.Validate(); err != nil {
		return validationErrorResponse(c, err)
	}

	tokens, err := h.userService.RefreshSession(c.Context(), input)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(tokens)
}

func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	userID, ok := c.Locals(localsUserID).(string)
	if !ok || userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	var input dto.ChangePasswordInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}

	if err := input.Validate(); err != nil {
		return validationErrorResponse(c, err)
	}

	if err := h.userService.ChangePassword(c.Context(), userID, input); err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "password changed"})
}

// validationErrorResponse returns ozzo field errors verbatim; they are safe
// to show the caller.
func validationErrorResponse(c *fiber.Ctx, err error) error {
	var fieldErrors validation.Errors
	if errors.As(err, &fieldErrors) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": fieldErrors})
	}

	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
}

// errorResponse maps service errors onto status codes. Anything unrecognized
// is reported as a generic internal error without detail.
func errorResponse(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, autherror.ErrInvalidCredentials),
		errors.Is(err, autherror.ErrAccountInactive),
		errors.Is(err, autherror.ErrRefreshTokenInvalid):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, autherror.ErrEmailAlreadyInUse),
		errors.Is(err, autherror.ErrAccountNotFound),
		errors.Is(err, autherror.ErrEmailConfirmed),
		errors.Is(err, autherror.ErrActionTokenInvalid),
		errors.Is(err, autherror.ErrPasswordMismatch):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, autherror.ErrEmailDeliveryFailed):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
}
