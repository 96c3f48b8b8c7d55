package service

import (
	"errors"
	"time"

	"github.com/VanshGarg05/WhatsappWebClone/internal/models"
	"github.com/VanshGarg05/WhatsappWebClone/internal/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MessageService struct {
	messageRepo repository.MessageRepositoryInterface
}

func NewMessageService(messageRepo repository.MessageRepositoryInterface) *MessageService {
	return &MessageService{messageRepo: messageRepo}
}

type SendMessageInput struct {
	ReceiverID    uint               `json:"receiver_id"`
	Content       string             `json:"content"`
	MessageType   models.MessageType `json:"message_type"`
	ClientID      string             `json:"client_id"`
	AttachmentKey string             `json:"attachment_key"`
}

// SendMessage persists a message with read=false and server-assigned
// ID/timestamp. A repeated client_id from the same sender returns the
// original row instead of inserting a duplicate, so retried sends are safe.
func (s *MessageService) SendMessage(senderID uint, input SendMessageInput) (*models.Message, error) {
	if input.ReceiverID == 0 {
		return nil, errors.New("receiver is required")
	}
	if senderID == input.ReceiverID {
		return nil, errors.New("cannot message yourself")
	}

	if input.ClientID != "" {
		if existing, err := s.messageRepo.FindByClientID(input.ClientID, senderID); err == nil {
			return existing, nil
		}
	}

	message := &models.Message{
		ClientID:      input.ClientID,
		SenderID:      senderID,
		ReceiverID:    input.ReceiverID,
		Content:       input.Content,
		MessageType:   input.MessageType,
		AttachmentKey: input.AttachmentKey,
	}
	if message.MessageType == "" {
		message.MessageType = models.TextMessage
	}
	if message.ClientID == "" {
		message.ClientID = uuid.NewString()
	}

	if err := s.messageRepo.Create(message); err != nil {
		return nil, err
	}

	// Reload with sender/receiver profiles for the push payload.
	return s.messageRepo.FindByID(message.ID)
}

func (s *MessageService) GetConversation(userID1, userID2 uint, limit int) ([]models.Message, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.messageRepo.FindConversation(userID1, userID2, limit)
}

func (s *MessageService) GetConversationCursor(userID1, userID2 uint, cursor uint, limit int) ([]models.Message, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.messageRepo.FindConversationCursor(userID1, userID2, cursor, limit)
}

// MarkMessageRead transitions one message, guarding that only its receiver
// may do so. Returns the message and whether this call performed the
// transition (false when it was already read, so callers emit no event).
func (s *MessageService) MarkMessageRead(messageID, readerID uint) (*models.Message, bool, error) {
	message, err := s.messageRepo.FindByID(messageID)
	if err != nil {
		return nil, false, err
	}
	if message.ReceiverID != readerID {
		return nil, false, errors.New("not the message recipient")
	}
	if message.IsRead {
		return message, false, nil
	}

	readAt := time.Now().UTC()
	if err := s.messageRepo.MarkAsRead(messageID, readAt); err != nil {
		return nil, false, err
	}
	message.IsRead = true
	message.ReadAt = &readAt
	return message, true, nil
}

// MarkConversationRead transitions every unread message from peerID to
// readerID and returns the transitioned rows. Idempotent: a second call
// returns an empty slice.
func (s *MessageService) MarkConversationRead(readerID, peerID uint) ([]models.Message, error) {
	return s.messageRepo.MarkConversationAsRead(readerID, peerID)
}

func (s *MessageService) UnreadCounts(receiverID uint) ([]repository.UnreadCountRow, error) {
	return s.messageRepo.AggregateUnreadCounts(receiverID)
}

// IsNotFound reports whether err is the store's missing-record error.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
