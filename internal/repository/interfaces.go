package repository

import (
	"time"

	"github.com/VanshGarg05/WhatsappWebClone/internal/models"
)

// UserRepositoryInterface defines the contract for user directory operations
type UserRepositoryInterface interface {
	Create(user *models.User) error
	FindByEmail(email string) (*models.User, error)
	FindByUsername(username string) (*models.User, error)
	FindByID(id uint) (*models.User, error)
	FindAllExcept(selfID uint) ([]models.User, error)
	Update(user *models.User) error
	SetPresence(userID uint, isOnline bool, lastSeen *time.Time) error
}

// MessageRepositoryInterface defines the contract for message store operations
type MessageRepositoryInterface interface {
	Create(message *models.Message) error
	FindByID(id uint) (*models.Message, error)
	FindByClientID(clientID string, senderID uint) (*models.Message, error)
	FindConversation(userID1, userID2 uint, limit int) ([]models.Message, error)
	FindConversationCursor(userID1, userID2 uint, cursor uint, limit int) ([]models.Message, error)
	MarkAsRead(messageID uint, readAt time.Time) error
	MarkConversationAsRead(readerID, peerID uint) ([]models.Message, error)
	AggregateUnreadCounts(receiverID uint) ([]UnreadCountRow, error)
}
