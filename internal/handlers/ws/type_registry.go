package ws

import (
	"reflect"
)

var typeRegistry = map[string]reflect.Type{}

func init() {
	// Register all inbound message types
	RegisterType(&MessageJoinChat{})
	RegisterType(&MessageLeaveChat{})
	RegisterType(&MessageSend{})
	RegisterType(&MessageMarkRead{})
	RegisterType(&MessageDelivered{})
	RegisterType(&MessageTypingStart{})
	RegisterType(&MessageTypingStop{})
	RegisterType(&MessagePing{})
	RegisterType(&MessagePong{})
}

func RegisterType(msg Message) {
	typeRegistry[msg.GetType()] = reflect.TypeOf(msg).Elem()
}

// GetTypeRegistry returns the type registry for testing
func GetTypeRegistry() map[string]reflect.Type {
	return typeRegistry
}
