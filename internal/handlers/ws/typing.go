package ws

import "log"

// MessageTypingStart sets a TTL-bounded typing indicator and notifies the
// rest of the room.
type MessageTypingStart struct {
	ChatID uint `json:"chatId"`
}

func (msg *MessageTypingStart) GetType() string {
	return "typingStart"
}

func (msg *MessageTypingStart) Process(ctx *MessageContext) error {
	if msg.ChatID == 0 {
		return nil
	}

	if err := ctx.Presence.SetTyping(ctx.Ctx, msg.ChatID, ctx.UserID, ctx.Username); err != nil {
		log.Printf("typingStart: indicator store failed chat_id=%d user_id=%d: %v", msg.ChatID, ctx.UserID, err)
	}

	ctx.Hub.BroadcastToRoomExcept(ChatRoom(msg.ChatID), ctx.ConnID,
		TypingEvent(msg.ChatID, ctx.UserID, ctx.Username, true))
	return nil
}

// MessageTypingStop clears the indicator and notifies the room.
type MessageTypingStop struct {
	ChatID uint `json:"chatId"`
}

func (msg *MessageTypingStop) GetType() string {
	return "typingStop"
}

func (msg *MessageTypingStop) Process(ctx *MessageContext) error {
	if msg.ChatID == 0 {
		return nil
	}

	if _, err := ctx.Presence.ClearTyping(ctx.Ctx, msg.ChatID, ctx.UserID); err != nil {
		log.Printf("typingStop: indicator clear failed chat_id=%d user_id=%d: %v", msg.ChatID, ctx.UserID, err)
	}

	ctx.Hub.BroadcastToRoomExcept(ChatRoom(msg.ChatID), ctx.ConnID,
		TypingEvent(msg.ChatID, ctx.UserID, ctx.Username, false))
	return nil
}
