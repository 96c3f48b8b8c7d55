package service

import (
	"errors"
	"time"

	"github.com/VanshGarg05/WhatsappWebClone/internal/models"
	"github.com/VanshGarg05/WhatsappWebClone/internal/repository"
	"github.com/VanshGarg05/WhatsappWebClone/internal/testutil"
)

// mockUserRepo is an in-memory UserRepositoryInterface.
type mockUserRepo struct {
	users  map[uint]*models.User
	nextID uint

	setPresenceErr error
	lastPresence   *presenceCall
}

type presenceCall struct {
	userID   uint
	isOnline bool
	lastSeen *time.Time
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[uint]*models.User), nextID: 1}
}

func (m *mockUserRepo) Create(user *models.User) error {
	user.ID = m.nextID
	m.nextID++
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	copied := *user
	m.users[user.ID] = &copied
	return nil
}

func (m *mockUserRepo) FindByEmail(email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, testutil.GetRecordNotFoundError()
}

func (m *mockUserRepo) FindByUsername(username string) (*models.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, testutil.GetRecordNotFoundError()
}

func (m *mockUserRepo) FindByID(id uint) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, testutil.GetRecordNotFoundError()
	}
	copied := *u
	return &copied, nil
}

func (m *mockUserRepo) FindAllExcept(selfID uint) ([]models.User, error) {
	var out []models.User
	for _, u := range m.users {
		if u.ID != selfID {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (m *mockUserRepo) Update(user *models.User) error {
	if _, ok := m.users[user.ID]; !ok {
		return testutil.GetRecordNotFoundError()
	}
	copied := *user
	m.users[user.ID] = &copied
	return nil
}

func (m *mockUserRepo) SetPresence(userID uint, isOnline bool, lastSeen *time.Time) error {
	if m.setPresenceErr != nil {
		return m.setPresenceErr
	}
	m.lastPresence = &presenceCall{userID: userID, isOnline: isOnline, lastSeen: lastSeen}
	if u, ok := m.users[userID]; ok {
		u.IsOnline = isOnline
		u.LastSeen = lastSeen
	}
	return nil
}

// mockMessageRepo is an in-memory MessageRepositoryInterface.
type mockMessageRepo struct {
	messages map[uint]*models.Message
	nextID   uint

	createErr error
}

func newMockMessageRepo() *mockMessageRepo {
	return &mockMessageRepo{messages: make(map[uint]*models.Message), nextID: 1}
}

func (m *mockMessageRepo) Create(message *models.Message) error {
	if m.createErr != nil {
		return m.createErr
	}
	for _, existing := range m.messages {
		if existing.ClientID == message.ClientID && existing.SenderID == message.SenderID {
			return errors.New("duplicate key")
		}
	}
	message.ID = m.nextID
	m.nextID++
	message.CreatedAt = time.Now()
	copied := *message
	m.messages[message.ID] = &copied
	return nil
}

func (m *mockMessageRepo) FindByID(id uint) (*models.Message, error) {
	msg, ok := m.messages[id]
	if !ok {
		return nil, testutil.GetRecordNotFoundError()
	}
	copied := *msg
	return &copied, nil
}

func (m *mockMessageRepo) FindByClientID(clientID string, senderID uint) (*models.Message, error) {
	for _, msg := range m.messages {
		if msg.ClientID == clientID && msg.SenderID == senderID {
			copied := *msg
			return &copied, nil
		}
	}
	return nil, testutil.GetRecordNotFoundError()
}

func (m *mockMessageRepo) FindConversation(userID1, userID2 uint, limit int) ([]models.Message, error) {
	var out []models.Message
	for id := uint(1); id < m.nextID; id++ {
		msg, ok := m.messages[id]
		if !ok {
			continue
		}
		if (msg.SenderID == userID1 && msg.ReceiverID == userID2) ||
			(msg.SenderID == userID2 && msg.ReceiverID == userID1) {
			out = append(out, *msg)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (m *mockMessageRepo) FindConversationCursor(userID1, userID2 uint, cursor uint, limit int) ([]models.Message, error) {
	var out []models.Message
	for id := uint(1); id < m.nextID && id < cursor; id++ {
		msg, ok := m.messages[id]
		if !ok {
			continue
		}
		if (msg.SenderID == userID1 && msg.ReceiverID == userID2) ||
			(msg.SenderID == userID2 && msg.ReceiverID == userID1) {
			out = append(out, *msg)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (m *mockMessageRepo) MarkAsRead(messageID uint, readAt time.Time) error {
	msg, ok := m.messages[messageID]
	if !ok {
		return testutil.GetRecordNotFoundError()
	}
	if !msg.IsRead {
		msg.IsRead = true
		at := readAt
		msg.ReadAt = &at
	}
	return nil
}

func (m *mockMessageRepo) MarkConversationAsRead(readerID, peerID uint) ([]models.Message, error) {
	readAt := time.Now().UTC()
	var transitioned []models.Message
	for id := uint(1); id < m.nextID; id++ {
		msg, ok := m.messages[id]
		if !ok {
			continue
		}
		if msg.ReceiverID == readerID && msg.SenderID == peerID && !msg.IsRead {
			msg.IsRead = true
			at := readAt
			msg.ReadAt = &at
			transitioned = append(transitioned, *msg)
		}
	}
	return transitioned, nil
}

func (m *mockMessageRepo) AggregateUnreadCounts(receiverID uint) ([]repository.UnreadCountRow, error) {
	counts := make(map[uint]int64)
	for _, msg := range m.messages {
		if msg.ReceiverID == receiverID && !msg.IsRead {
			counts[msg.SenderID]++
		}
	}
	var rows []repository.UnreadCountRow
	for senderID, count := range counts {
		rows = append(rows, repository.UnreadCountRow{SenderID: senderID, Count: count})
	}
	return rows, nil
}
