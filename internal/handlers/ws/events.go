package ws

import (
	"time"

	"github.com/chatwave/chatwave-backend/internal/models"
)

// Outbound event names. Clients match on these.
const (
	EvNewMessage               = "newMessage"
	EvMessageDeliveryUpdate    = "messageDeliveryUpdate"
	EvMessagesReadUpdate       = "messagesReadUpdate"
	EvUserStatusUpdate         = "userStatusUpdate"
	EvUserConnectedToChat      = "userConnectedToChat"
	EvUserDisconnectedFromChat = "userDisconnectedFromChat"
	EvTyping                   = "typing"
	EvChatListUpdate           = "chatListUpdate"
	EvJoinedChat               = "joinedChat"
	EvLeftChatAck              = "leftChatAck"
	EvMessageSentAck           = "messageSentAck"
	EvMarkReadAck              = "markMessagesAsReadAck"
	EvChatError                = "chatError"
	EvMessageError             = "messageError"
	EvStatusError              = "statusError"
)

// Event is the outbound wire envelope, mirroring the inbound one.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type DeliveryUpdatePayload struct {
	ChatID            uint `json:"chatId"`
	MessageID         uint `json:"messageId"`
	DeliveredToUserID uint `json:"deliveredToUserId"`
	DeliveredToAll    bool `json:"deliveredToAll"`
}

type ReaderRef struct {
	UserID   uint   `json:"userId"`
	Username string `json:"username"`
}

type ReadUpdatePayload struct {
	ChatID            uint      `json:"chatId"`
	Reader            ReaderRef `json:"reader"`
	MessageIDs        []uint    `json:"messageIds"`
	MessagesReadByAll []uint    `json:"messagesReadByAll"`
}

type UserStatusPayload struct {
	ChatID       uint       `json:"chatId,omitempty"`
	UserID       uint       `json:"userId"`
	Username     string     `json:"username,omitempty"`
	OnlineStatus string     `json:"onlineStatus"`
	LastSeen     *time.Time `json:"lastSeen"`
}

type ChatMembershipPayload struct {
	ChatID   uint   `json:"chatId"`
	UserID   uint   `json:"userId"`
	Username string `json:"username"`
}

type TypingPayload struct {
	ChatID   uint   `json:"chatId"`
	UserID   uint   `json:"userId"`
	Username string `json:"username"`
	IsTyping bool   `json:"isTyping"`
}

type ChatListUpdatePayload struct {
	ChatID    uint      `json:"chatId"`
	Timestamp time.Time `json:"timestamp"`
}

type JoinAckPayload struct {
	ChatID  uint   `json:"chatId"`
	Message string `json:"message,omitempty"`
}

type SentAckPayload struct {
	TempID       string                 `json:"tempId,omitempty"`
	FinalMessage models.MessageResponse `json:"finalMessage"`
}

type ReadAckPayload struct {
	ChatID       uint `json:"chatId"`
	UpdatedCount int  `json:"updatedCount"`
}

type ErrorPayload struct {
	ChatID  uint   `json:"chatId,omitempty"`
	Message string `json:"message"`
}

func NewMessageEvent(message models.MessageResponse) Event {
	return Event{Type: EvNewMessage, Payload: message}
}

func DeliveryUpdateEvent(chatID, messageID, userID uint, toAll bool) Event {
	return Event{Type: EvMessageDeliveryUpdate, Payload: DeliveryUpdatePayload{
		ChatID:            chatID,
		MessageID:         messageID,
		DeliveredToUserID: userID,
		DeliveredToAll:    toAll,
	}}
}

func ReadUpdateEvent(chatID uint, reader ReaderRef, messageIDs, readByAll []uint) Event {
	if readByAll == nil {
		readByAll = []uint{}
	}
	return Event{Type: EvMessagesReadUpdate, Payload: ReadUpdatePayload{
		ChatID:            chatID,
		Reader:            reader,
		MessageIDs:        messageIDs,
		MessagesReadByAll: readByAll,
	}}
}

func OnlineEvent(chatID, userID uint, username string) Event {
	return Event{Type: EvUserStatusUpdate, Payload: UserStatusPayload{
		ChatID:       chatID,
		UserID:       userID,
		Username:     username,
		OnlineStatus: "online",
		LastSeen:     nil,
	}}
}

func OfflineEvent(chatID, userID uint, username string, lastSeen *time.Time) Event {
	return Event{Type: EvUserStatusUpdate, Payload: UserStatusPayload{
		ChatID:       chatID,
		UserID:       userID,
		Username:     username,
		OnlineStatus: "offline",
		LastSeen:     lastSeen,
	}}
}

func TypingEvent(chatID, userID uint, username string, isTyping bool) Event {
	return Event{Type: EvTyping, Payload: TypingPayload{
		ChatID:   chatID,
		UserID:   userID,
		Username: username,
		IsTyping: isTyping,
	}}
}

func ChatListUpdateEvent(chatID uint) Event {
	return Event{Type: EvChatListUpdate, Payload: ChatListUpdatePayload{
		ChatID:    chatID,
		Timestamp: time.Now().UTC(),
	}}
}

func ChatErrorEvent(chatID uint, message string) Event {
	return Event{Type: EvChatError, Payload: ErrorPayload{ChatID: chatID, Message: message}}
}

func MessageErrorEvent(chatID uint, message string) Event {
	return Event{Type: EvMessageError, Payload: ErrorPayload{ChatID: chatID, Message: message}}
}

func StatusErrorEvent(chatID uint, message string) Event {
	return Event{Type: EvStatusError, Payload: ErrorPayload{ChatID: chatID, Message: message}}
}
