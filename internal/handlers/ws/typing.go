package ws

import "errors"

// MessageTyping is the typing frame. Ephemeral: never stored, dropped when
// the peer is offline.
type MessageTyping struct {
	ReceiverID uint `json:"receiver_id"`
}

func (m *MessageTyping) GetType() string {
	return "typing"
}

func (m *MessageTyping) Process(ctx *MessageContext) error {
	err := ctx.Hub.SendToUser(m.ReceiverID, NewUserTypingEvent(ctx.UserID, ctx.Username, true))
	if errors.Is(err, ErrNotConnected) {
		return nil
	}
	return err
}

type MessageStopTyping struct {
	ReceiverID uint `json:"receiver_id"`
}

func (m *MessageStopTyping) GetType() string {
	return "stopTyping"
}

func (m *MessageStopTyping) Process(ctx *MessageContext) error {
	err := ctx.Hub.SendToUser(m.ReceiverID, NewUserTypingEvent(ctx.UserID, ctx.Username, false))
	if errors.Is(err, ErrNotConnected) {
		return nil
	}
	return err
}
