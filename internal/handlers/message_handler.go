package handlers

import (
	"errors"
	"log"
	"strconv"

	"github.com/VanshGarg05/WhatsappWebClone/internal/cache"
	"github.com/VanshGarg05/WhatsappWebClone/internal/handlers/ws"
	"github.com/VanshGarg05/WhatsappWebClone/internal/httpx"
	"github.com/VanshGarg05/WhatsappWebClone/internal/models"
	"github.com/VanshGarg05/WhatsappWebClone/internal/service"
	"github.com/VanshGarg05/WhatsappWebClone/internal/validation"
	"github.com/gofiber/fiber/v2"
)

// MessageHandler is the REST side of messaging. It shares the hub with the
// websocket layer so sends and read transitions made over HTTP still push
// realtime events to connected peers.
type MessageHandler struct {
	messageService *service.MessageService
	messageCache   *cache.MessageCache
	hub            *ws.Hub
}

func NewMessageHandler(messageService *service.MessageService, messageCache *cache.MessageCache, hub *ws.Hub) *MessageHandler {
	return &MessageHandler{
		messageService: messageService,
		messageCache:   messageCache,
		hub:            hub,
	}
}

func paramUserID(c *fiber.Ctx) (uint, error) {
	id64, err := strconv.ParseUint(c.Params("userId"), 10, 32)
	if err != nil || id64 == 0 {
		return 0, errors.New("invalid user id")
	}
	return uint(id64), nil
}

// SendMessage persists and delivers a message sent over HTTP instead of the
// socket. Same store-then-deliver path as the sendMessage frame.
func (h *MessageHandler) SendMessage(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	var input service.SendMessageInput
	if err := c.BodyParser(&input); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}

	input.Content = validation.NormalizeMessageContent(input.Content)
	if !validation.ValidMessagePayload(input.Content, input.AttachmentKey) {
		return httpx.BadRequest(c, "missing_content", "Content is required")
	}
	if input.ReceiverID == 0 {
		return httpx.BadRequest(c, "missing_receiver", "receiver_id is required")
	}

	message, err := h.messageService.SendMessage(userID, input)
	if err != nil {
		return httpx.BadRequest(c, "send_message_failed", err.Error())
	}

	h.messageCache.InvalidateConversation(message.SenderID, message.ReceiverID)

	response := message.ToResponse()
	// Delivery failure is not a send failure; the row is stored.
	if err := h.hub.SendToUser(message.ReceiverID, ws.NewReceiveMessageEvent(response)); err != nil && !errors.Is(err, ws.ErrNotConnected) {
		log.Printf("Failed to deliver message %d to user %d: %v", message.ID, message.ReceiverID, err)
	}

	return c.Status(fiber.StatusCreated).JSON(response)
}

// GetMessages returns a conversation page, newest page in chronological
// order, with cursor pagination for older history.
func (h *MessageHandler) GetMessages(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	peerID, err := paramUserID(c)
	if err != nil {
		return httpx.BadRequest(c, "invalid_user_id", "Invalid user id")
	}

	limit := 50
	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	var messages []models.Message
	if cursorStr := c.Query("cursor"); cursorStr != "" {
		cursor, err := strconv.ParseUint(cursorStr, 10, 32)
		if err != nil {
			return httpx.BadRequest(c, "invalid_cursor", "Invalid cursor")
		}
		messages, err = h.messageService.GetConversationCursor(userID, peerID, uint(cursor), limit)
		if err != nil {
			return httpx.Internal(c, "fetch_messages_failed")
		}
	} else {
		// Cache only the first page; cursor pages go to the store.
		if cached, ok := h.messageCache.GetConversation(userID, peerID); ok {
			messages = cached
		} else {
			messages, err = h.messageService.GetConversation(userID, peerID, limit)
			if err != nil {
				return httpx.Internal(c, "fetch_messages_failed")
			}
			if len(messages) > 0 {
				_ = h.messageCache.SetConversation(userID, peerID, messages)
			}
		}
	}

	responses := make([]models.MessageResponse, len(messages))
	for i := range messages {
		responses[i] = messages[i].ToResponse()
	}

	result := fiber.Map{
		"messages": responses,
		"count":    len(messages),
	}
	if len(messages) > 0 {
		// The first element is the oldest in this chronological page; use it
		// as the cursor for loading older history.
		result["next_cursor"] = messages[0].ID
	}

	return c.JSON(result)
}

// MarkConversationRead transitions every unread message from the peer and
// pushes read receipts to the peer's binding, matching the socket frame.
func (h *MessageHandler) MarkConversationRead(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	peerID, err := paramUserID(c)
	if err != nil {
		return httpx.BadRequest(c, "invalid_user_id", "Invalid user id")
	}

	messages, err := h.messageService.MarkConversationRead(userID, peerID)
	if err != nil {
		return httpx.Internal(c, "mark_read_failed")
	}

	if len(messages) > 0 {
		h.messageCache.InvalidateConversation(userID, peerID)

		for _, message := range messages {
			ev := ws.NewMessageReadEvent(message.ID, userID, *message.ReadAt)
			if err := h.hub.SendToUser(peerID, ev); err != nil {
				break
			}
		}
	}

	return c.JSON(fiber.Map{
		"marked": len(messages),
	})
}

// GetUnreadCounts returns per-sender unread totals for the caller.
func (h *MessageHandler) GetUnreadCounts(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	if cached, ok := h.messageCache.GetUnreadCounts(userID); ok {
		return c.JSON(fiber.Map{"unread": cached})
	}

	rows, err := h.messageService.UnreadCounts(userID)
	if err != nil {
		return httpx.Internal(c, "fetch_unread_failed")
	}
	_ = h.messageCache.SetUnreadCounts(userID, rows)

	return c.JSON(fiber.Map{"unread": rows})
}
