package repository

import (
	"time"

	"github.com/VanshGarg05/WhatsappWebClone/internal/models"
	"gorm.io/gorm"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(message *models.Message) error {
	return r.db.Create(message).Error
}

func (r *MessageRepository) FindByID(id uint) (*models.Message, error) {
	var message models.Message
	err := r.db.Preload("Sender").Preload("Receiver").First(&message, id).Error
	return &message, err
}

func (r *MessageRepository) FindByClientID(clientID string, senderID uint) (*models.Message, error) {
	var message models.Message
	err := r.db.Preload("Sender").Preload("Receiver").
		Where("client_id = ? AND sender_id = ?", clientID, senderID).
		First(&message).Error
	return &message, err
}

// FindConversation returns the most recent messages between two users in
// chronological order.
func (r *MessageRepository) FindConversation(userID1, userID2 uint, limit int) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.Preload("Sender").Preload("Receiver").
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			userID1, userID2, userID2, userID1).
		Order("created_at DESC").
		Limit(limit).
		Find(&messages).Error

	// Reverse to get chronological order
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, err
}

// FindConversationCursor fetches messages older than cursor for pagination,
// also in chronological order.
func (r *MessageRepository) FindConversationCursor(userID1, userID2 uint, cursor uint, limit int) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.Preload("Sender").Preload("Receiver").
		Where("id < ? AND ((sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?))",
			cursor, userID1, userID2, userID2, userID1).
		Order("created_at DESC").
		Limit(limit).
		Find(&messages).Error

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, err
}

// MarkAsRead transitions a single message to read. The flag and timestamp
// move in one update so read_at is set exactly when is_read becomes true.
func (r *MessageRepository) MarkAsRead(messageID uint, readAt time.Time) error {
	return r.db.Model(&models.Message{}).
		Where("id = ? AND is_read = false", messageID).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": readAt,
		}).Error
}

// MarkConversationAsRead transitions every unread message from peerID to
// readerID and returns the transitioned rows, all stamped with the same
// read_at. Running it again with nothing unread returns an empty slice.
func (r *MessageRepository) MarkConversationAsRead(readerID, peerID uint) ([]models.Message, error) {
	var transitioned []models.Message
	readAt := time.Now().UTC()

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("receiver_id = ? AND sender_id = ? AND is_read = false", readerID, peerID).
			Order("id ASC").
			Find(&transitioned).Error; err != nil {
			return err
		}
		if len(transitioned) == 0 {
			return nil
		}

		ids := make([]uint, len(transitioned))
		for i, m := range transitioned {
			ids[i] = m.ID
		}

		return tx.Model(&models.Message{}).
			Where("id IN ?", ids).
			Updates(map[string]interface{}{
				"is_read": true,
				"read_at": readAt,
			}).Error
	})
	if err != nil {
		return nil, err
	}

	for i := range transitioned {
		transitioned[i].IsRead = true
		at := readAt
		transitioned[i].ReadAt = &at
	}
	return transitioned, nil
}

// UnreadCountRow is one sender's unread total toward a receiver.
type UnreadCountRow struct {
	SenderID   uint   `gorm:"column:sender_id" json:"sender_id"`
	SenderName string `gorm:"column:sender_name" json:"sender_name"`
	Count      int64  `gorm:"column:unread_count" json:"unread_count"`
}

// AggregateUnreadCounts groups unread messages for a receiver by sender.
// Derived on demand from the messages table, never stored.
func (r *MessageRepository) AggregateUnreadCounts(receiverID uint) ([]UnreadCountRow, error) {
	var rows []UnreadCountRow
	err := r.db.Raw(`
SELECT m.sender_id, u.username AS sender_name, COUNT(*) AS unread_count
FROM messages m
JOIN users u ON u.id = m.sender_id
WHERE m.receiver_id = ? AND m.is_read = false AND m.deleted_at IS NULL
GROUP BY m.sender_id, u.username
ORDER BY unread_count DESC`, receiverID).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
