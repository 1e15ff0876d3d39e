package ws

// MessagePing is a keepalive ping from client
type MessagePing struct {
}

func (msg *MessagePing) GetType() string {
	return "ping"
}

func (msg *MessagePing) Process(ctx *MessageContext) error {
	ctx.reply(Event{Type: "pong"})
	return nil
}

// MessagePong is an application-level pong; it refreshes the connection's
// health timestamp alongside the protocol-level pong handler.
type MessagePong struct {
}

func (msg *MessagePong) GetType() string {
	return "pong"
}

func (msg *MessagePong) Process(ctx *MessageContext) error {
	ctx.Hub.MarkPong(ctx.ConnID)
	return nil
}
