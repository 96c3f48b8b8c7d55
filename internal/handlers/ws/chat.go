package ws

import (
	"errors"
	"log"

	"github.com/VanshGarg05/WhatsappWebClone/internal/models"
	"github.com/VanshGarg05/WhatsappWebClone/internal/service"
	"github.com/VanshGarg05/WhatsappWebClone/internal/validation"
)

// MessageChat is the sendMessage frame: persist first, then deliver.
type MessageChat struct {
	ReceiverID    uint               `json:"receiver_id"`
	Content       string             `json:"content"`
	MessageType   models.MessageType `json:"message_type"`
	ClientID      string             `json:"client_id"`
	AttachmentKey string             `json:"attachment_key"`
}

func (m *MessageChat) GetType() string {
	return "sendMessage"
}

// Process stores the message, then pushes receiveMessage to the recipient's
// binding if one exists and acknowledges the sender with messageAccepted.
// Store failure is terminal: the sender gets messageError and nothing is
// delivered. Delivery failure is not: the row exists and the recipient will
// fetch it on reconnect.
func (m *MessageChat) Process(ctx *MessageContext) error {
	content := validation.NormalizeMessageContent(m.Content)
	if !validation.ValidMessagePayload(content, m.AttachmentKey) {
		return SendError(ctx.Conn, "invalid_message", "message needs content or an attachment", "")
	}

	message, err := ctx.MessageService.SendMessage(ctx.UserID, service.SendMessageInput{
		ReceiverID:    m.ReceiverID,
		Content:       content,
		MessageType:   m.MessageType,
		ClientID:      m.ClientID,
		AttachmentKey: m.AttachmentKey,
	})
	if err != nil {
		log.Printf("Failed to store message from user %d: %v", ctx.UserID, err)
		return SendError(ctx.Conn, "send_failed", "could not send message", err.Error())
	}

	ctx.MessageCache.InvalidateConversation(message.SenderID, message.ReceiverID)

	response := message.ToResponse()

	if err := ctx.Hub.SendToUser(message.ReceiverID, NewReceiveMessageEvent(response)); err != nil {
		if !errors.Is(err, ErrNotConnected) {
			log.Printf("Failed to deliver message %d to user %d: %v", message.ID, message.ReceiverID, err)
		}
	}

	return ctx.Conn.WriteEvent(NewMessageAcceptedEvent(response))
}
