package ws

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/VanshGarg05/WhatsappWebClone/internal/cache"
	"github.com/VanshGarg05/WhatsappWebClone/internal/service"
)

// MessageContext provides all dependencies needed for message processing.
// Conn is the originating binding, so acknowledgments go back to the exact
// connection that sent the frame even if a newer login has since rebound
// the user.
type MessageContext struct {
	UserID   uint
	Username string
	Conn     *ClientConnection

	Hub            *Hub
	MessageService *service.MessageService
	UserService    *service.UserService
	MessageCache   *cache.MessageCache
}

// Message interface for all client-to-server frame types
type Message interface {
	GetType() string
	Process(ctx *MessageContext) error
}

// SerializedMessage is the wire format wrapper
type SerializedMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func ToJson(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

func FromJson(jsonBytes []byte, msg Message) error {
	return json.Unmarshal(jsonBytes, msg)
}

func CreateMessage(msgType string, typeRegistry map[string]reflect.Type) (Message, error) {
	msgTypeReflect, ok := typeRegistry[msgType]
	if !ok {
		return nil, fmt.Errorf("unknown message type: %s", msgType)
	}

	instance := reflect.New(msgTypeReflect).Interface()
	return instance.(Message), nil
}

// SendError pushes an error event to the client.
func SendError(conn *ClientConnection, code, message, details string) error {
	return conn.WriteEvent(Event{Type: EventError, Payload: ErrorPayload{
		Code:    code,
		Error:   message,
		Details: details,
	}})
}
