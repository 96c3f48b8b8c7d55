package handlers

import (
	"log"

	"github.com/VanshGarg05/WhatsappWebClone/internal/cache"
	"github.com/VanshGarg05/WhatsappWebClone/internal/handlers/ws"
	"github.com/VanshGarg05/WhatsappWebClone/internal/httpx"
	"github.com/VanshGarg05/WhatsappWebClone/internal/models"
	"github.com/VanshGarg05/WhatsappWebClone/internal/service"
	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	userService *service.UserService
	hub         *ws.Hub
	presence    *cache.PresenceCache
}

func NewUserHandler(userService *service.UserService, hub *ws.Hub, presence *cache.PresenceCache) *UserHandler {
	return &UserHandler{userService: userService, hub: hub, presence: presence}
}

// isOnline consults this process's hub first, then the Redis mirror, which
// also reflects bindings held by other instances behind the same store.
func (h *UserHandler) isOnline(userID uint) bool {
	if h.hub.IsOnline(userID) {
		return true
	}
	return h.presence.IsOnline(userID)
}

// ListUsers returns the contact directory: everyone except the caller,
// with presence overlaid from live state rather than the last persisted
// flag.
func (h *UserHandler) ListUsers(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	users, err := h.userService.ListUsers(userID)
	if err != nil {
		return httpx.Internal(c, "list_users_failed")
	}

	responses := make([]models.UserResponse, len(users))
	for i, user := range users {
		resp := user.ToResponse()
		resp.IsOnline = h.isOnline(user.ID)
		responses[i] = resp
	}

	current, err := h.userService.GetUserByID(userID)
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	return c.JSON(fiber.Map{
		"users":       responses,
		"currentUser": current.ToResponse(),
	})
}

// GetCurrentUser gets the authenticated user's profile.
func (h *UserHandler) GetCurrentUser(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	user, err := h.userService.GetUserByID(userID)
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	return c.JSON(fiber.Map{
		"user": user.ToResponse(),
	})
}

// GetOnlineUsers exposes the live bindings for presence resync, preferring
// the Redis mirror and falling back to this process's hub.
func (h *UserHandler) GetOnlineUsers(c *fiber.Ctx) error {
	if _, err := httpx.LocalUint(c, "userID"); err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	if h.presence.Enabled() {
		ids, err := h.presence.OnlineUserIDs()
		if err == nil {
			count, countErr := h.presence.OnlineCount()
			if countErr != nil {
				count = int64(len(ids))
			}
			return c.JSON(fiber.Map{
				"online_user_ids": ids,
				"count":           count,
			})
		}
		log.Printf("Failed to read presence cache, falling back to hub: %v", err)
	}

	return c.JSON(fiber.Map{
		"online_user_ids": h.hub.OnlineUserIDs(),
		"count":           h.hub.Count(),
	})
}
