package ws

import (
	"errors"
	"log"
)

// MessageMarkRead is the markAsRead frame for a single message. SenderID is
// advisory; the stored row decides who the receipt goes to.
type MessageMarkRead struct {
	MessageID uint `json:"message_id"`
	SenderID  uint `json:"sender_id"`
}

func (m *MessageMarkRead) GetType() string {
	return "markAsRead"
}

// Process transitions the message to read and pushes a messageRead receipt
// to the original sender. Only the first call for a message transitions it;
// repeats are acknowledged silently so no duplicate receipt is ever pushed.
func (m *MessageMarkRead) Process(ctx *MessageContext) error {
	message, transitioned, err := ctx.MessageService.MarkMessageRead(m.MessageID, ctx.UserID)
	if err != nil {
		log.Printf("Failed to mark message %d read for user %d: %v", m.MessageID, ctx.UserID, err)
		return SendError(ctx.Conn, "mark_read_failed", "could not mark message as read", err.Error())
	}
	if !transitioned {
		return nil
	}

	ctx.MessageCache.InvalidateConversation(message.SenderID, message.ReceiverID)

	if err := ctx.Hub.SendToUser(message.SenderID, NewMessageReadEvent(message.ID, ctx.UserID, *message.ReadAt)); err != nil {
		if !errors.Is(err, ErrNotConnected) {
			log.Printf("Failed to push read receipt for message %d: %v", message.ID, err)
		}
	}
	return nil
}

// MessageMarkConversationRead is the bulk frame: everything unread from one
// peer becomes read in a single transition.
type MessageMarkConversationRead struct {
	PeerID uint `json:"peer_id"`
}

func (m *MessageMarkConversationRead) GetType() string {
	return "markConversationRead"
}

// Process transitions every unread message from PeerID and pushes one
// messageRead receipt per transitioned row to the peer, then acknowledges
// the reader with a count. An already-read conversation yields count 0 and
// no receipts.
func (m *MessageMarkConversationRead) Process(ctx *MessageContext) error {
	messages, err := ctx.MessageService.MarkConversationRead(ctx.UserID, m.PeerID)
	if err != nil {
		log.Printf("Failed to mark conversation with user %d read for user %d: %v", m.PeerID, ctx.UserID, err)
		return SendError(ctx.Conn, "mark_read_failed", "could not mark conversation as read", err.Error())
	}

	if len(messages) > 0 {
		ctx.MessageCache.InvalidateConversation(ctx.UserID, m.PeerID)

		for _, message := range messages {
			ev := NewMessageReadEvent(message.ID, ctx.UserID, *message.ReadAt)
			if err := ctx.Hub.SendToUser(m.PeerID, ev); err != nil {
				if !errors.Is(err, ErrNotConnected) {
					log.Printf("Failed to push read receipt for message %d: %v", message.ID, err)
				}
				break
			}
		}
	}

	return ctx.Conn.WriteEvent(Event{Type: EventConversationRead, Payload: ConversationReadPayload{
		PeerID: m.PeerID,
		Count:  len(messages),
	}})
}
