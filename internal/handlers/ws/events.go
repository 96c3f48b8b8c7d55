package ws

import (
	"time"

	"github.com/VanshGarg05/WhatsappWebClone/internal/models"
)

// Server-to-client event kinds. This is a closed set: every push a client
// can observe is enumerated here with a fixed payload shape.
const (
	EventReceiveMessage   = "receiveMessage"
	EventMessageAccepted  = "messageAccepted"
	EventMessageRead      = "messageRead"
	EventConversationRead = "conversationRead"
	EventUserOnline       = "userOnline"
	EventUserOffline      = "userOffline"
	EventUserTyping       = "userTyping"
	EventSessionReplaced  = "sessionReplaced"
	EventError            = "error"
	EventPong             = "pong"
)

// Event is the server-to-client wire envelope.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// ReadReceiptPayload tells the original sender a message was read.
type ReadReceiptPayload struct {
	MessageID uint      `json:"message_id"`
	ReadBy    uint      `json:"read_by"`
	ReadAt    time.Time `json:"read_at"`
}

// ConversationReadPayload acknowledges a bulk read transition to the reader.
type ConversationReadPayload struct {
	PeerID uint `json:"peer_id"`
	Count  int  `json:"count"`
}

// PresencePayload carries an online/offline transition for one user.
// LastSeen is set only on the offline event.
type PresencePayload struct {
	UserID   uint       `json:"user_id"`
	Username string     `json:"user_name"`
	IsOnline bool       `json:"is_online"`
	LastSeen *time.Time `json:"last_seen,omitempty"`
}

type TypingPayload struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"user_name"`
	IsTyping bool   `json:"is_typing"`
}

type SessionReplacedPayload struct {
	Reason string `json:"reason"`
}

// ErrorPayload is pushed when an inbound frame cannot be processed.
type ErrorPayload struct {
	Code    string `json:"code"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func NewReceiveMessageEvent(msg models.MessageResponse) Event {
	return Event{Type: EventReceiveMessage, Payload: msg}
}

func NewMessageAcceptedEvent(msg models.MessageResponse) Event {
	return Event{Type: EventMessageAccepted, Payload: msg}
}

func NewMessageReadEvent(messageID, readBy uint, readAt time.Time) Event {
	return Event{Type: EventMessageRead, Payload: ReadReceiptPayload{
		MessageID: messageID,
		ReadBy:    readBy,
		ReadAt:    readAt,
	}}
}

func NewUserOnlineEvent(userID uint, username string) Event {
	return Event{Type: EventUserOnline, Payload: PresencePayload{
		UserID:   userID,
		Username: username,
		IsOnline: true,
	}}
}

func NewUserOfflineEvent(userID uint, username string, lastSeen time.Time) Event {
	return Event{Type: EventUserOffline, Payload: PresencePayload{
		UserID:   userID,
		Username: username,
		IsOnline: false,
		LastSeen: &lastSeen,
	}}
}

func NewUserTypingEvent(userID uint, username string, isTyping bool) Event {
	return Event{Type: EventUserTyping, Payload: TypingPayload{
		UserID:   userID,
		Username: username,
		IsTyping: isTyping,
	}}
}

func NewSessionReplacedEvent() Event {
	return Event{Type: EventSessionReplaced, Payload: SessionReplacedPayload{
		Reason: "signed in from another device",
	}}
}
