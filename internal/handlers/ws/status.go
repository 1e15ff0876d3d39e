package ws

import (
	"errors"
	"log"

	"github.com/chatwave/chatwave-backend/internal/service"
)

// MessageMarkRead processes a batch of client-reported read events.
type MessageMarkRead struct {
	ChatID     uint   `json:"chatId"`
	MessageIDs []uint `json:"messageIds"`
}

func (msg *MessageMarkRead) GetType() string {
	return "markMessagesAsRead"
}

func (msg *MessageMarkRead) Process(ctx *MessageContext) error {
	update, err := ctx.StatusService.MarkMessagesRead(msg.ChatID, ctx.UserID, msg.MessageIDs)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMessagesRequired):
			ctx.reply(StatusErrorEvent(msg.ChatID, "Chat ID and a non-empty array of Message IDs are required."))
		case errors.Is(err, service.ErrNotParticipant):
			ctx.reply(StatusErrorEvent(msg.ChatID, "Access denied or chat not found."))
		default:
			log.Printf("markMessagesAsRead failed chat_id=%d user_id=%d: %v", msg.ChatID, ctx.UserID, err)
			ctx.reply(StatusErrorEvent(msg.ChatID, "Failed to mark messages as read."))
		}
		return nil
	}

	if update.Modified > 0 {
		room := ChatRoom(msg.ChatID)
		reader := ReaderRef{UserID: ctx.UserID, Username: ctx.Username}
		ctx.Hub.BroadcastToRoom(room, ReadUpdateEvent(msg.ChatID, reader, msg.MessageIDs, update.ReadByAll))
		ctx.Hub.BroadcastToRoom(room, ChatListUpdateEvent(msg.ChatID))
		ctx.ChatService.InvalidateChatLists(ctx.UserID)
	}

	ctx.reply(Event{Type: EvMarkReadAck, Payload: ReadAckPayload{
		ChatID:       msg.ChatID,
		UpdatedCount: update.Modified,
	}})
	return nil
}

// MessageDelivered is the single-message delivery acknowledgment, used when
// a client receives a message outside the sender-side online fast path.
type MessageDelivered struct {
	ChatID    uint `json:"chatId"`
	MessageID uint `json:"messageId"`
}

func (msg *MessageDelivered) GetType() string {
	return "messageDeliveredToClient"
}

func (msg *MessageDelivered) Process(ctx *MessageContext) error {
	update, err := ctx.StatusService.MarkDelivered(msg.ChatID, msg.MessageID, ctx.UserID)
	if err != nil {
		log.Printf("messageDeliveredToClient failed message_id=%d user_id=%d: %v", msg.MessageID, ctx.UserID, err)
		ctx.reply(StatusErrorEvent(msg.ChatID, "Failed to record delivery."))
		return nil
	}
	if update == nil {
		// Already delivered or own message; nothing to rebroadcast.
		return nil
	}

	ctx.Hub.BroadcastToRoom(ChatRoom(msg.ChatID), DeliveryUpdateEvent(update.ChatID, update.MessageID, update.UserID, update.DeliveredToAll))
	return nil
}
