package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/chatwave/chatwave-backend/internal/presence"
	"github.com/chatwave/chatwave-backend/internal/service"
)

// MessageContext provides all dependencies needed for message processing
type MessageContext struct {
	Ctx      context.Context
	ConnID   string
	UserID   uint
	Username string

	Hub            *Hub
	ChatService    *service.ChatService
	MessageService *service.MessageService
	StatusService  *service.StatusService
	Presence       presence.Store
}

// Message interface for all inbound WebSocket message types
type Message interface {
	GetType() string
	Process(ctx *MessageContext) error
}

// SerializedMessage is the wire format wrapper
type SerializedMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func ToJson(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

func FromJson(jsonBytes []byte, msg Message) error {
	return json.Unmarshal(jsonBytes, msg)
}

func CreateMessage(msgType string, typeRegistry map[string]reflect.Type) (Message, error) {
	msgTypeReflect, ok := typeRegistry[msgType]
	if !ok {
		return nil, fmt.Errorf("unknown message type: %s", msgType)
	}

	instance := reflect.New(msgTypeReflect).Interface()
	return instance.(Message), nil
}

// reply sends an event only to the originating connection.
func (ctx *MessageContext) reply(event Event) {
	if err := ctx.Hub.SendToConn(ctx.ConnID, event); err != nil {
		// The connection is likely mid-close; the disconnect sequence owns cleanup.
		return
	}
}
