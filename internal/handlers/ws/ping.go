package ws

// MessagePing is an application-level keepalive some clients send alongside
// protocol pings. Answered with a pong event.
type MessagePing struct{}

func (m *MessagePing) GetType() string {
	return "ping"
}

func (m *MessagePing) Process(ctx *MessageContext) error {
	return ctx.Conn.WriteEvent(Event{Type: EventPong})
}

// MessagePong is accepted and ignored; liveness tracking rides on protocol
// pongs handled by the hub.
type MessagePong struct{}

func (m *MessagePong) GetType() string {
	return "pong"
}

func (m *MessagePong) Process(ctx *MessageContext) error {
	return nil
}
