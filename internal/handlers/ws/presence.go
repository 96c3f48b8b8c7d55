package ws

import (
	"log"
	"time"

	"github.com/VanshGarg05/WhatsappWebClone/internal/cache"
)

// PresenceStore is the durable side of presence, satisfied by
// service.UserService.
type PresenceStore interface {
	SetUserOnline(userID uint) error
	SetUserOffline(userID uint, lastSeen time.Time) error
}

// PresenceNotifier turns hub bind/unbind transitions into presence
// broadcasts and store updates. The broadcast goes out immediately; the
// store and cache writes are fire-and-forget so a slow database never
// blocks the connection path.
type PresenceNotifier struct {
	hub      *Hub
	store    PresenceStore
	presence *cache.PresenceCache
}

func NewPresenceNotifier(hub *Hub, store PresenceStore, presence *cache.PresenceCache) *PresenceNotifier {
	n := &PresenceNotifier{
		hub:      hub,
		store:    store,
		presence: presence,
	}
	hub.SetPresenceNotifier(n)
	return n
}

// UserConnected broadcasts userOnline and records the transition. A rebind
// by a second login lands here too, which readers treat as a redundant
// "still online".
func (n *PresenceNotifier) UserConnected(userID uint, username string) {
	n.hub.Broadcast(NewUserOnlineEvent(userID, username))

	go func() {
		if err := n.presence.SetOnline(userID); err != nil {
			log.Printf("Failed to cache online presence for user %d: %v", userID, err)
		}
		if err := n.store.SetUserOnline(userID); err != nil {
			log.Printf("Failed to persist online presence for user %d: %v", userID, err)
		}
	}()
}

// UserDisconnected broadcasts userOffline with the last seen timestamp and
// records the transition. Only called for unbinds that actually removed a
// binding, so an evicted connection never flips its user offline.
func (n *PresenceNotifier) UserDisconnected(userID uint, username string) {
	lastSeen := time.Now().UTC()
	n.hub.Broadcast(NewUserOfflineEvent(userID, username, lastSeen))

	go func() {
		if err := n.presence.SetOffline(userID); err != nil {
			log.Printf("Failed to clear cached presence for user %d: %v", userID, err)
		}
		if err := n.store.SetUserOffline(userID, lastSeen); err != nil {
			log.Printf("Failed to persist offline presence for user %d: %v", userID, err)
		}
	}()
}
