package handlers

import (
	"errors"
	"strconv"
	"time"

	"github.com/chatwave/chatwave-backend/internal/httpx"
	"github.com/chatwave/chatwave-backend/internal/service"
	"github.com/gofiber/fiber/v2"
)

type ChatHandler struct {
	chatService    *service.ChatService
	messageService *service.MessageService
}

func NewChatHandler(chatService *service.ChatService, messageService *service.MessageService) *ChatHandler {
	return &ChatHandler{
		chatService:    chatService,
		messageService: messageService,
	}
}

type createDirectChatInput struct {
	PeerID uint `json:"peer_id"`
}

// CreateDirectChat starts (or returns the existing) 1-on-1 chat with a peer.
func (h *ChatHandler) CreateDirectChat(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	var input createDirectChatInput
	if err := c.BodyParser(&input); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}
	if input.PeerID == 0 {
		return httpx.BadRequest(c, "missing_peer", "peer_id is required")
	}

	chat, err := h.chatService.CreateDirectChat(userID, input.PeerID)
	if err != nil {
		return httpx.BadRequest(c, "create_chat_failed", err.Error())
	}
	return c.Status(fiber.StatusCreated).JSON(chat.ToResponse())
}

type createGroupChatInput struct {
	Name      string `json:"name"`
	MemberIDs []uint `json:"member_ids"`
}

func (h *ChatHandler) CreateGroupChat(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	var input createGroupChatInput
	if err := c.BodyParser(&input); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}

	chat, err := h.chatService.CreateGroupChat(userID, input.Name, input.MemberIDs)
	if err != nil {
		return httpx.BadRequest(c, "create_group_failed", err.Error())
	}
	return c.Status(fiber.StatusCreated).JSON(chat.ToResponse())
}

// ListChats returns the caller's chat list with latest-message summaries.
func (h *ChatHandler) ListChats(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	summaries, err := h.chatService.ListChatSummaries(userID)
	if err != nil {
		return httpx.Internal(c, "list_chats_failed")
	}
	return c.JSON(fiber.Map{"chats": summaries})
}

// GetMessages returns chat history with optional before-cursor pagination.
func (h *ChatHandler) GetMessages(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	chatID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || chatID == 0 {
		return httpx.BadRequest(c, "invalid_chat", "Invalid chat id")
	}

	limit := 50
	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	var before *time.Time
	if beforeStr := c.Query("before"); beforeStr != "" {
		t, err := time.Parse(time.RFC3339, beforeStr)
		if err != nil {
			return httpx.BadRequest(c, "invalid_cursor", "before must be an RFC3339 timestamp")
		}
		before = &t
	}

	messages, err := h.messageService.GetChatMessages(userID, uint(chatID), before, limit)
	if err != nil {
		if errors.Is(err, service.ErrNotParticipant) {
			return httpx.Forbidden(c, "access_denied", "Access denied or chat not found")
		}
		return httpx.Internal(c, "get_messages_failed")
	}

	responses := make([]interface{}, 0, len(messages))
	for i := range messages {
		responses = append(responses, messages[i].ToResponse())
	}
	return c.JSON(fiber.Map{"messages": responses})
}

// LeaveChat removes the caller from a group chat.
func (h *ChatHandler) LeaveChat(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	chatID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || chatID == 0 {
		return httpx.BadRequest(c, "invalid_chat", "Invalid chat id")
	}

	chat, err := h.chatService.LeaveChat(uint(chatID), userID)
	if err != nil {
		if errors.Is(err, service.ErrNotParticipant) {
			return httpx.Forbidden(c, "access_denied", "Access denied or chat not found")
		}
		return httpx.BadRequest(c, "leave_chat_failed", err.Error())
	}
	if chat == nil {
		// Last participant left; the chat is gone.
		return c.JSON(fiber.Map{"deleted": true})
	}
	return c.JSON(chat.ToResponse())
}

// DeleteChat removes a chat outright (group admin, or either side of a 1-on-1).
func (h *ChatHandler) DeleteChat(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	chatID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || chatID == 0 {
		return httpx.BadRequest(c, "invalid_chat", "Invalid chat id")
	}

	if err := h.chatService.DeleteChat(uint(chatID), userID); err != nil {
		if errors.Is(err, service.ErrNotParticipant) {
			return httpx.Forbidden(c, "access_denied", "Access denied or chat not found")
		}
		return httpx.Internal(c, "delete_chat_failed")
	}
	return c.JSON(fiber.Map{"deleted": true})
}
