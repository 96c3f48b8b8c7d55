package cache

import (
	"fmt"
	"time"

	"github.com/VanshGarg05/WhatsappWebClone/internal/models"
	"github.com/VanshGarg05/WhatsappWebClone/internal/repository"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	ConversationTTL = 5 * time.Minute
	UnreadCountTTL  = 1 * time.Minute
)

// MessageCache holds recent conversation pages and unread aggregates. Both
// are invalidated on send and on mark-read; a cache miss always falls back
// to Postgres, so unread counts remain recomputable from the messages table.
type MessageCache struct {
	redis *RedisCache
}

func NewMessageCache(redis *RedisCache) *MessageCache {
	return &MessageCache{redis: redis}
}

// conversationKey is symmetric: smaller ID first.
func conversationKey(userID1, userID2 uint) string {
	if userID1 > userID2 {
		userID1, userID2 = userID2, userID1
	}
	return fmt.Sprintf("conv:%d:%d", userID1, userID2)
}

func unreadKey(receiverID uint) string {
	return fmt.Sprintf("unread:%d", receiverID)
}

func (mc *MessageCache) GetConversation(userID1, userID2 uint) ([]models.Message, bool) {
	if mc == nil || mc.redis == nil {
		return nil, false
	}
	data, err := mc.redis.Get(conversationKey(userID1, userID2))
	if err != nil || data == nil {
		return nil, false
	}

	var messages []models.Message
	if err := msgpack.Unmarshal(data, &messages); err != nil {
		return nil, false
	}
	return messages, true
}

func (mc *MessageCache) SetConversation(userID1, userID2 uint, messages []models.Message) error {
	if mc == nil || mc.redis == nil {
		return nil
	}
	data, err := msgpack.Marshal(messages)
	if err != nil {
		return err
	}
	return mc.redis.Set(conversationKey(userID1, userID2), data, ConversationTTL)
}

func (mc *MessageCache) GetUnreadCounts(receiverID uint) ([]repository.UnreadCountRow, bool) {
	if mc == nil || mc.redis == nil {
		return nil, false
	}
	data, err := mc.redis.Get(unreadKey(receiverID))
	if err != nil || data == nil {
		return nil, false
	}

	var rows []repository.UnreadCountRow
	if err := msgpack.Unmarshal(data, &rows); err != nil {
		return nil, false
	}
	return rows, true
}

func (mc *MessageCache) SetUnreadCounts(receiverID uint, rows []repository.UnreadCountRow) error {
	if mc == nil || mc.redis == nil {
		return nil
	}
	data, err := msgpack.Marshal(rows)
	if err != nil {
		return err
	}
	return mc.redis.Set(unreadKey(receiverID), data, UnreadCountTTL)
}

// InvalidateConversation drops the cached page and both parties' unread
// aggregates. Called after a send or a read transition.
func (mc *MessageCache) InvalidateConversation(userID1, userID2 uint) error {
	if mc == nil || mc.redis == nil {
		return nil
	}
	return mc.redis.Delete(
		conversationKey(userID1, userID2),
		unreadKey(userID1),
		unreadKey(userID2),
	)
}
