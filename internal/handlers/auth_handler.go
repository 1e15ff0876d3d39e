package handlers

import (
	"errors"

	"github.com/chatwave/chatwave-backend/internal/httpx"
	"github.com/chatwave/chatwave-backend/internal/service"
	"github.com/chatwave/chatwave-backend/internal/validation"
	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService *service.AuthService
	userService *service.UserService
}

func NewAuthHandler(authService *service.AuthService, userService *service.UserService) *AuthHandler {
	return &AuthHandler{authService: authService, userService: userService}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var input service.RegisterInput
	if err := c.BodyParser(&input); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}

	input.Email = validation.NormalizeEmail(input.Email)
	input.Username = validation.NormalizeUsername(input.Username)
	if !validation.ValidateEmail(input.Email) {
		return httpx.BadRequest(c, "invalid_email", "A valid email is required")
	}
	if !validation.ValidateUsername(input.Username) {
		return httpx.BadRequest(c, "invalid_username", "Username must be 3-32 characters (letters, digits, underscore)")
	}
	if !validation.ValidatePassword(input.Password) {
		return httpx.BadRequest(c, "weak_password", "Password is too short")
	}

	result, err := h.authService.Register(input)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) || errors.Is(err, service.ErrUsernameTaken) {
			return httpx.BadRequest(c, "already_exists", err.Error())
		}
		return httpx.Internal(c, "register_failed")
	}

	return c.Status(fiber.StatusCreated).JSON(result)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input service.LoginInput
	if err := c.BodyParser(&input); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}

	input.Email = validation.NormalizeEmail(input.Email)
	if input.Email == "" || input.Password == "" {
		return httpx.BadRequest(c, "missing_credentials", "Email and password are required")
	}

	result, err := h.authService.Login(input)
	if err != nil {
		return httpx.Unauthorized(c, "invalid_credentials", "Invalid credentials")
	}

	return c.JSON(result)
}

func (h *AuthHandler) GetCurrentUser(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	user, err := h.userService.GetProfile(userID)
	if err != nil {
		return httpx.Unauthorized(c, "unknown_user", "Unknown user")
	}
	return c.JSON(user.ToResponse())
}
