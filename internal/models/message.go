package models

import (
	"time"

	"gorm.io/gorm"
)

type MessageType string

const (
	TextMessage  MessageType = "text"
	ImageMessage MessageType = "image"
	FileMessage  MessageType = "file"
)

// Message is a single direct message between two users. Rows are immutable
// after insert except for the one-way read transition (is_read false->true,
// read_at set in the same update).
type Message struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Client-assigned UUID so retried sends deduplicate server-side.
	ClientID string `gorm:"type:varchar(36);uniqueIndex:idx_client_sender" json:"client_id"`

	SenderID   uint `gorm:"not null;uniqueIndex:idx_client_sender;index:idx_pair" json:"sender_id"`
	Sender     User `gorm:"foreignKey:SenderID" json:"sender"`
	ReceiverID uint `gorm:"not null;index:idx_pair;index:idx_unread" json:"receiver_id"`
	Receiver   User `gorm:"foreignKey:ReceiverID" json:"receiver"`

	Content     string      `gorm:"type:text;not null" json:"content"`
	MessageType MessageType `gorm:"type:varchar(20);default:'text'" json:"message_type"`

	// Object key in attachment storage; set only for image/file messages.
	AttachmentKey string `json:"attachment_key,omitempty"`

	IsRead bool       `gorm:"default:false;index:idx_unread" json:"is_read"`
	ReadAt *time.Time `json:"read_at"`
}

type MessageResponse struct {
	ID            uint         `json:"id"`
	ClientID      string       `json:"client_id"`
	SenderID      uint         `json:"sender_id"`
	Sender        UserResponse `json:"sender"`
	ReceiverID    uint         `json:"receiver_id"`
	Content       string       `json:"content"`
	MessageType   MessageType  `json:"message_type"`
	AttachmentKey string       `json:"attachment_key,omitempty"`
	IsRead        bool         `json:"is_read"`
	ReadAt        *time.Time   `json:"read_at"`
	CreatedAt     time.Time    `json:"created_at"`
}

func (m *Message) ToResponse() MessageResponse {
	return MessageResponse{
		ID:            m.ID,
		ClientID:      m.ClientID,
		SenderID:      m.SenderID,
		Sender:        m.Sender.ToResponse(),
		ReceiverID:    m.ReceiverID,
		Content:       m.Content,
		MessageType:   m.MessageType,
		AttachmentKey: m.AttachmentKey,
		IsRead:        m.IsRead,
		ReadAt:        m.ReadAt,
		CreatedAt:     m.CreatedAt,
	}
}
