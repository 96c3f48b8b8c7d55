// Package reconciler maintains a client's local view of conversations,
// contacts, and unread counts as realtime events and REST responses arrive.
// It is transport-agnostic: callers feed it decoded events and it keeps the
// merged state consistent, deduplicated, and ordered.
package reconciler

import (
	"sort"
	"sync"
	"time"

	"github.com/VanshGarg05/WhatsappWebClone/internal/models"
)

// DefaultUnreadDebounce coalesces bursts of events into one unread refresh.
const DefaultUnreadDebounce = 300 * time.Millisecond

// Contact is one entry in the local directory with live presence.
type Contact struct {
	UserID   uint
	Username string
	IsOnline bool
	LastSeen *time.Time
	IsTyping bool
}

// Reconciler merges pushed events with fetched state. Message lists are
// append-if-new: an event and a refetch carrying the same message ID yield
// one entry. Unknown conversation state is resolved by refetch, never by
// guessing.
type Reconciler struct {
	mu sync.Mutex

	selfID        uint
	contacts      map[uint]*Contact
	conversations map[uint][]models.MessageResponse
	seen          map[uint]map[uint]struct{}

	unreadDebounce time.Duration
	unreadTimer    *time.Timer
	refreshUnread  func()
}

// New builds a reconciler for the given user. refreshUnread is invoked,
// debounced, whenever an event may have changed unread counts; it typically
// refetches the unread aggregate over REST.
func New(selfID uint, refreshUnread func()) *Reconciler {
	return &Reconciler{
		selfID:         selfID,
		contacts:       make(map[uint]*Contact),
		conversations:  make(map[uint][]models.MessageResponse),
		seen:           make(map[uint]map[uint]struct{}),
		unreadDebounce: DefaultUnreadDebounce,
		refreshUnread:  refreshUnread,
	}
}

// SetUnreadDebounce overrides the coalescing window. Tests use a short one.
func (r *Reconciler) SetUnreadDebounce(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unreadDebounce = d
}

// SetContacts replaces the directory from a fetched user list, preserving
// any live typing flags already observed.
func (r *Reconciler) SetContacts(users []models.UserResponse) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fresh := make(map[uint]*Contact, len(users))
	for _, u := range users {
		contact := &Contact{
			UserID:   u.ID,
			Username: u.Username,
			IsOnline: u.IsOnline,
			LastSeen: u.LastSeen,
		}
		if prev, ok := r.contacts[u.ID]; ok {
			contact.IsTyping = prev.IsTyping
		}
		fresh[u.ID] = contact
	}
	r.contacts = fresh
}

// Contact returns a snapshot of one directory entry.
func (r *Reconciler) Contact(userID uint) (Contact, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.contacts[userID]
	if !ok {
		return Contact{}, false
	}
	return *c, true
}

// peerOf resolves which conversation a message belongs to from this
// client's perspective.
func (r *Reconciler) peerOf(msg models.MessageResponse) uint {
	if msg.SenderID == r.selfID {
		return msg.ReceiverID
	}
	return msg.SenderID
}

// ApplyMessage merges one pushed or acknowledged message. Duplicates by
// message ID are dropped, which makes receiveMessage followed by a refetch
// of the same row safe. Returns whether the message was new.
func (r *Reconciler) ApplyMessage(msg models.MessageResponse) bool {
	r.mu.Lock()
	peer := r.peerOf(msg)
	ids, ok := r.seen[peer]
	if !ok {
		ids = make(map[uint]struct{})
		r.seen[peer] = ids
	}
	if _, dup := ids[msg.ID]; dup {
		r.mu.Unlock()
		return false
	}
	ids[msg.ID] = struct{}{}
	r.conversations[peer] = append(r.conversations[peer], msg)
	inbound := msg.ReceiverID == r.selfID && !msg.IsRead
	r.mu.Unlock()

	if inbound {
		r.scheduleUnreadRefresh()
	}
	return true
}

// ApplyReadReceipt marks a message read in the local view. Receipts for
// unknown messages are ignored; the next resync will carry the final state.
func (r *Reconciler) ApplyReadReceipt(messageID, readBy uint, readAt time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	msgs, ok := r.conversations[readBy]
	if !ok {
		return false
	}
	for i := range msgs {
		if msgs[i].ID == messageID {
			if msgs[i].IsRead {
				return false
			}
			msgs[i].IsRead = true
			at := readAt
			msgs[i].ReadAt = &at
			return true
		}
	}
	return false
}

// ApplyPresence updates a contact's online state. Events for users not in
// the directory are dropped; the directory refetch will pick them up.
func (r *Reconciler) ApplyPresence(userID uint, isOnline bool, lastSeen *time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	contact, ok := r.contacts[userID]
	if !ok {
		return false
	}
	contact.IsOnline = isOnline
	if lastSeen != nil {
		contact.LastSeen = lastSeen
	}
	if !isOnline {
		contact.IsTyping = false
	}
	return true
}

// ApplyTyping flips the transient typing flag. Never persisted, cleared
// when the contact goes offline.
func (r *Reconciler) ApplyTyping(userID uint, isTyping bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	contact, ok := r.contacts[userID]
	if !ok {
		return false
	}
	contact.IsTyping = isTyping
	return true
}

// Resync replaces a conversation with fetched rows. Used after reconnect:
// anything missed while offline arrives here, and previously pushed rows
// deduplicate against the fetched page.
func (r *Reconciler) Resync(peerID uint, msgs []models.MessageResponse) {
	r.mu.Lock()
	sorted := make([]models.MessageResponse, len(msgs))
	copy(sorted, msgs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ID < sorted[j].ID
	})

	ids := make(map[uint]struct{}, len(sorted))
	for _, m := range sorted {
		ids[m.ID] = struct{}{}
	}
	r.seen[peerID] = ids
	r.conversations[peerID] = sorted
	r.mu.Unlock()

	r.scheduleUnreadRefresh()
}

// Conversation returns a copy of the local view for one peer.
func (r *Reconciler) Conversation(peerID uint) []models.MessageResponse {
	r.mu.Lock()
	defer r.mu.Unlock()

	msgs := r.conversations[peerID]
	out := make([]models.MessageResponse, len(msgs))
	copy(out, msgs)
	return out
}

// scheduleUnreadRefresh arms or re-arms the debounce timer so a burst of
// events produces one refresh after the window closes.
func (r *Reconciler) scheduleUnreadRefresh() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.refreshUnread == nil {
		return
	}
	if r.unreadTimer != nil {
		r.unreadTimer.Stop()
	}
	r.unreadTimer = time.AfterFunc(r.unreadDebounce, r.refreshUnread)
}

// Close stops the pending refresh timer, if any.
func (r *Reconciler) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.unreadTimer != nil {
		r.unreadTimer.Stop()
		r.unreadTimer = nil
	}
}
