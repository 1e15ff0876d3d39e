package handlers

import (
	"github.com/chatwave/chatwave-backend/internal/httpx"
	"github.com/chatwave/chatwave-backend/internal/models"
	"github.com/chatwave/chatwave-backend/internal/service"
	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// SearchUsers finds users by username, used to start new chats.
func (h *UserHandler) SearchUsers(c *fiber.Ctx) error {
	if _, err := httpx.LocalUint(c, "userID"); err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	query := c.Query("q")
	if query == "" {
		return httpx.BadRequest(c, "missing_query", "q is required")
	}

	users, err := h.userService.SearchUsers(query, c.QueryInt("limit"))
	if err != nil {
		return httpx.BadRequest(c, "search_failed", err.Error())
	}

	responses := make([]models.UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, users[i].ToResponse())
	}
	return c.JSON(fiber.Map{"users": responses})
}
