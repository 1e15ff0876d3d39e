package ws

import (
	"errors"
	"fmt"
	"log"

	"github.com/chatwave/chatwave-backend/internal/models"
	"github.com/chatwave/chatwave-backend/internal/service"
)

// MessageJoinChat subscribes the connection to a chat room after a
// membership check.
type MessageJoinChat struct {
	ChatID uint `json:"chatId"`
}

func (msg *MessageJoinChat) GetType() string {
	return "joinChat"
}

func (msg *MessageJoinChat) Process(ctx *MessageContext) error {
	if msg.ChatID == 0 {
		ctx.reply(ChatErrorEvent(0, "Chat ID is required to join."))
		return nil
	}

	chat, err := ctx.ChatService.GetChatForUser(msg.ChatID, ctx.UserID)
	if err != nil {
		ctx.reply(ChatErrorEvent(msg.ChatID, "Cannot join this chat. Access denied or chat not found."))
		return nil
	}

	ctx.Hub.JoinRoom(ctx.ConnID, ChatRoom(msg.ChatID))

	label := "1-on-1 Chat"
	if chat.IsGroupChat {
		label = chat.Name
	}
	ctx.reply(Event{Type: EvJoinedChat, Payload: JoinAckPayload{
		ChatID:  msg.ChatID,
		Message: fmt.Sprintf("Successfully joined chat: %s", label),
	}})
	return nil
}

// MessageLeaveChat unsubscribes the connection from a chat room.
type MessageLeaveChat struct {
	ChatID uint `json:"chatId"`
}

func (msg *MessageLeaveChat) GetType() string {
	return "leaveChat"
}

func (msg *MessageLeaveChat) Process(ctx *MessageContext) error {
	if msg.ChatID == 0 {
		ctx.reply(ChatErrorEvent(0, "Chat ID is required to leave."))
		return nil
	}

	room := ChatRoom(msg.ChatID)
	if !ctx.Hub.InRoom(ctx.ConnID, room) {
		// The desired state (not being in the room) already holds.
		ctx.reply(Event{Type: EvLeftChatAck, Payload: JoinAckPayload{
			ChatID:  msg.ChatID,
			Message: fmt.Sprintf("You were not in chat: %d", msg.ChatID),
		}})
		return nil
	}

	ctx.Hub.LeaveRoom(ctx.ConnID, room)
	ctx.reply(Event{Type: EvLeftChatAck, Payload: JoinAckPayload{
		ChatID:  msg.ChatID,
		Message: fmt.Sprintf("Successfully left chat: %d", msg.ChatID),
	}})

	ctx.Hub.BroadcastToRoom(room, Event{Type: EvUserDisconnectedFromChat, Payload: ChatMembershipPayload{
		ChatID:   msg.ChatID,
		UserID:   ctx.UserID,
		Username: ctx.Username,
	}})
	return nil
}

// MessageSend runs message dispatch: validate, authorize, persist, broadcast,
// and fast-path delivery for recipients online right now.
type MessageSend struct {
	ChatID      uint               `json:"chatId"`
	MessageType models.MessageType `json:"messageType"`
	Content     string             `json:"content"`
	FileURL     string             `json:"fileUrl"`
	FileName    string             `json:"fileName"`
	FileType    string             `json:"fileType"`
	FileSize    int64              `json:"fileSize"`
	TempID      string             `json:"tempId"`
}

func (msg *MessageSend) GetType() string {
	return "sendMessage"
}

func (msg *MessageSend) Process(ctx *MessageContext) error {
	result, err := ctx.MessageService.Dispatch(ctx.Ctx, ctx.UserID, service.SendMessageInput{
		ChatID:      msg.ChatID,
		MessageType: msg.MessageType,
		Content:     msg.Content,
		FileURL:     msg.FileURL,
		FileName:    msg.FileName,
		FileType:    msg.FileType,
		FileSize:    msg.FileSize,
		TempID:      msg.TempID,
	})
	if err != nil {
		ctx.reply(MessageErrorEvent(msg.ChatID, sendErrorText(err)))
		return nil
	}

	room := ChatRoom(msg.ChatID)
	response := result.Message.ToResponse()

	ctx.Hub.BroadcastToRoom(room, NewMessageEvent(response))
	ctx.reply(Event{Type: EvMessageSentAck, Payload: SentAckPayload{
		TempID:       result.TempID,
		FinalMessage: response,
	}})

	for _, update := range result.DeliveryUpdates {
		ctx.Hub.BroadcastToRoom(room, DeliveryUpdateEvent(update.ChatID, update.MessageID, update.UserID, update.DeliveredToAll))
	}

	ctx.ChatService.InvalidateChatLists(result.ParticipantIDs...)
	return nil
}

func sendErrorText(err error) string {
	switch {
	case errors.Is(err, service.ErrChatIDRequired):
		return "Chat ID is required to send a message."
	case errors.Is(err, service.ErrContentRequired):
		return "Text message content cannot be empty."
	case errors.Is(err, service.ErrFileURLRequired):
		return "File URL is required for file messages."
	case errors.Is(err, service.ErrUnsupportedType):
		return "Unsupported message type."
	case errors.Is(err, service.ErrNotParticipant):
		return "Cannot send message to this chat. Access denied or chat not found."
	default:
		log.Printf("sendMessage failed: %v", err)
		return "Failed to send message due to a server error."
	}
}
