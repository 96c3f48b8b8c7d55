package ws

import (
	"encoding/json"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/VanshGarg05/WhatsappWebClone/internal/cache"
	"github.com/gofiber/websocket/v2"
)

// ErrNotConnected is returned by SendToUser when the target has no binding.
// Callers treat it as "store only", never as a failure.
var ErrNotConnected = errors.New("user has no active connection")

// Conn is the subset of *websocket.Conn the hub touches, so tests can bind
// fakes that record frames.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetReadDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	Close() error
}

// ClientConnection is one live binding: a user identity attached to a single
// socket. All frame writes go through writeMu because the underlying
// connection is not safe for concurrent writers.
type ClientConnection struct {
	Conn     Conn
	UserID   uint
	Username string

	PingTicker *time.Ticker
	CloseChan  chan struct{}

	// Unix nanos, written by the read goroutine's pong handler and read by
	// the health sweeper.
	lastPong atomic.Int64

	writeMu   sync.Mutex
	closeOnce sync.Once
}

func (c *ClientConnection) touchPong() {
	c.lastPong.Store(time.Now().UnixNano())
}

func (c *ClientConnection) lastPongTime() time.Time {
	return time.Unix(0, c.lastPong.Load())
}

// WriteEvent marshals and writes a single event frame.
func (c *ClientConnection) WriteEvent(ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.Conn.WriteMessage(websocket.TextMessage, data)
}

func (c *ClientConnection) stop() {
	c.closeOnce.Do(func() {
		if c.PingTicker != nil {
			c.PingTicker.Stop()
		}
		close(c.CloseChan)
	})
}

// Hub is the presence registry: the authoritative map from user identity to
// its one active connection, held in process memory. bind/unbind/lookup are
// the only operations that touch the map, always under clientsMux, and never
// perform store I/O while holding it.
type Hub struct {
	clients    map[uint]*ClientConnection
	clientsMux sync.RWMutex

	presenceCache *cache.PresenceCache
	notifier      *PresenceNotifier

	pingInterval time.Duration
	pongTimeout  time.Duration
}

func NewHub(presenceCache *cache.PresenceCache) *Hub {
	hub := &Hub{
		clients:       make(map[uint]*ClientConnection),
		presenceCache: presenceCache,
		pingInterval:  30 * time.Second,
		pongTimeout:   90 * time.Second,
	}

	go hub.connectionHealthChecker()

	return hub
}

// SetPresenceNotifier attaches the broadcaster invoked on every bind and on
// every unbind that actually removed a binding. Eviction by a newer login
// does not count as an unbind: the user never went offline.
func (h *Hub) SetPresenceNotifier(n *PresenceNotifier) {
	h.notifier = n
}

// Register binds userID to conn, evicting any prior binding for the same
// identity. The evicted connection is told why before it is closed, so a
// second login does not leave the first tab silently orphaned. Exactly one
// binding per user survives.
func (h *Hub) Register(userID uint, username string, conn Conn) *ClientConnection {
	client := &ClientConnection{
		Conn:       conn,
		UserID:     userID,
		Username:   username,
		PingTicker: time.NewTicker(h.pingInterval),
		CloseChan:  make(chan struct{}),
	}
	client.touchPong()

	conn.SetPongHandler(func(appData string) error {
		client.touchPong()
		conn.SetReadDeadline(time.Now().Add(h.pongTimeout))
		if err := h.presenceCache.Refresh(userID); err != nil {
			log.Printf("Failed to refresh presence TTL for user %d: %v", userID, err)
		}
		return nil
	})
	conn.SetReadDeadline(time.Now().Add(h.pongTimeout))

	h.clientsMux.Lock()
	evicted := h.clients[userID]
	h.clients[userID] = client
	total := len(h.clients)
	h.clientsMux.Unlock()

	if evicted != nil {
		if err := evicted.WriteEvent(NewSessionReplacedEvent()); err != nil {
			log.Printf("Failed to notify evicted connection for user %d: %v", userID, err)
		}
		evicted.stop()
		evicted.Conn.Close()
		log.Printf("User %d rebound, prior connection evicted", userID)
	}

	go h.pingRoutine(client)

	log.Printf("User %d connected to hub (total: %d)", userID, total)

	if h.notifier != nil {
		h.notifier.UserConnected(userID, username)
	}
	return client
}

// Unregister removes the binding for userID if it still belongs to conn.
// Idempotent: unbinding an unbound id, or a connection that has already been
// evicted by a newer login, is a no-op. Reports whether a binding was
// actually removed so callers know to broadcast offline.
func (h *Hub) Unregister(userID uint, conn Conn) bool {
	h.clientsMux.Lock()
	client, exists := h.clients[userID]
	if !exists || client.Conn != conn {
		h.clientsMux.Unlock()
		return false
	}
	delete(h.clients, userID)
	total := len(h.clients)
	h.clientsMux.Unlock()

	client.stop()
	log.Printf("User %d disconnected from hub (total: %d)", userID, total)

	if h.notifier != nil {
		h.notifier.UserDisconnected(userID, client.Username)
	}
	return true
}

// IsOnline is the lookup operation: O(1), no side effects.
func (h *Hub) IsOnline(userID uint) bool {
	h.clientsMux.RLock()
	defer h.clientsMux.RUnlock()
	_, exists := h.clients[userID]
	return exists
}

// SendToUser pushes an event to userID's binding. Returns ErrNotConnected
// when there is none. A failed write tears the binding down: the connection
// is presumed dead and the client will resync on reconnect.
func (h *Hub) SendToUser(userID uint, ev Event) error {
	h.clientsMux.RLock()
	client, exists := h.clients[userID]
	h.clientsMux.RUnlock()

	if !exists {
		return ErrNotConnected
	}

	if err := client.WriteEvent(ev); err != nil {
		log.Printf("Error sending %s to user %d: %v", ev.Type, userID, err)
		if h.Unregister(userID, client.Conn) {
			client.Conn.Close()
		}
		return err
	}
	return nil
}

// Broadcast fans an event out to every bound connection. Clients filter by
// user id in their local lists; this is not a targeted push.
func (h *Hub) Broadcast(ev Event) {
	h.clientsMux.RLock()
	clients := make([]*ClientConnection, 0, len(h.clients))
	for _, client := range h.clients {
		clients = append(clients, client)
	}
	h.clientsMux.RUnlock()

	for _, client := range clients {
		if err := client.WriteEvent(ev); err != nil {
			log.Printf("Error broadcasting %s to user %d: %v", ev.Type, client.UserID, err)
			if h.Unregister(client.UserID, client.Conn) {
				client.Conn.Close()
			}
		}
	}
}

// OnlineUserIDs returns the ids with a live binding.
func (h *Hub) OnlineUserIDs() []uint {
	h.clientsMux.RLock()
	defer h.clientsMux.RUnlock()

	users := make([]uint, 0, len(h.clients))
	for userID := range h.clients {
		users = append(users, userID)
	}
	return users
}

// Count returns the number of bound connections.
func (h *Hub) Count() int {
	h.clientsMux.RLock()
	defer h.clientsMux.RUnlock()
	return len(h.clients)
}

// pingRoutine keeps the connection alive until the binding is torn down.
func (h *Hub) pingRoutine(client *ClientConnection) {
	for {
		select {
		case <-client.CloseChan:
			return
		case <-client.PingTicker.C:
			client.writeMu.Lock()
			err := client.Conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second))
			client.writeMu.Unlock()
			if err != nil {
				log.Printf("Ping failed for user %d: %v", client.UserID, err)
				if h.Unregister(client.UserID, client.Conn) {
					client.Conn.Close()
				}
				return
			}
		}
	}
}

// connectionHealthChecker sweeps bindings whose peer stopped answering
// pings. Connection close remains the primary unbind signal; this only
// catches sockets that died without a close frame.
func (h *Hub) connectionHealthChecker() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		h.sweepStale(time.Now())
	}
}

func (h *Hub) sweepStale(now time.Time) {
	h.clientsMux.RLock()
	dead := make([]*ClientConnection, 0)
	for _, client := range h.clients {
		if now.Sub(client.lastPongTime()) > h.pongTimeout {
			dead = append(dead, client)
		}
	}
	h.clientsMux.RUnlock()

	for _, client := range dead {
		log.Printf("Removing dead connection for user %d (no pong received)", client.UserID)
		if h.Unregister(client.UserID, client.Conn) {
			client.Conn.Close()
		}
	}
}
