package handlers

import (
	"log"

	"github.com/VanshGarg05/WhatsappWebClone/internal/cache"
	"github.com/VanshGarg05/WhatsappWebClone/internal/handlers/ws"
	"github.com/VanshGarg05/WhatsappWebClone/internal/service"
	"github.com/gofiber/websocket/v2"
)

type WebSocketHandler struct {
	messageService *service.MessageService
	userService    *service.UserService
	hub            *ws.Hub
	messageCache   *cache.MessageCache
}

func NewWebSocketHandler(messageService *service.MessageService, userService *service.UserService, presenceCache *cache.PresenceCache, messageCache *cache.MessageCache) *WebSocketHandler {
	hub := ws.NewHub(presenceCache)
	ws.NewPresenceNotifier(hub, userService, presenceCache)

	return &WebSocketHandler{
		messageService: messageService,
		userService:    userService,
		hub:            hub,
		messageCache:   messageCache,
	}
}

// GetHub returns the hub instance (useful for sending events from REST handlers)
func (h *WebSocketHandler) GetHub() *ws.Hub {
	return h.hub
}

func (h *WebSocketHandler) HandleWebSocket(c *websocket.Conn) {
	userID := c.Locals("userID").(uint)
	username, _ := c.Locals("username").(string)

	client := h.hub.Register(userID, username, c)

	defer h.hub.Unregister(userID, c)

	log.Printf("User %d connected via WebSocket", userID)

	ctx := &ws.MessageContext{
		UserID:         userID,
		Username:       username,
		Conn:           client,
		Hub:            h.hub,
		MessageService: h.messageService,
		UserService:    h.userService,
		MessageCache:   h.messageCache,
	}

	// Frames from one connection are processed sequentially, which keeps
	// per-conversation delivery order for a given sender.
	for {
		_, messageBytes, err := c.ReadMessage()
		if err != nil {
			log.Printf("Error reading message from user %d: %v", userID, err)
			break
		}

		msg, err := ws.Deserialize(messageBytes)
		if err != nil {
			log.Printf("Error deserializing message from user %d: %v", userID, err)
			ws.SendError(client, "invalid_message", "Invalid message format", err.Error())
			continue
		}

		if err := msg.Process(ctx); err != nil {
			log.Printf("Error processing message %s from user %d: %v", msg.GetType(), userID, err)
			ws.SendError(client, "processing_failed", "Failed to process message", err.Error())
		}
	}

	log.Printf("User %d disconnected from WebSocket", userID)
}
