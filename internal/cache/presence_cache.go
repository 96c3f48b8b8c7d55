package cache

import (
	"fmt"
	"strconv"
	"time"
)

// PresenceTTL bounds how long a user stays "online" in Redis without a pong.
// Matches the hub's pong timeout so a wedged connection ages out of the cache
// around the time the hub sweeps it.
const PresenceTTL = 90 * time.Second

// PresenceCache mirrors the hub's in-memory bindings in Redis so REST
// handlers can answer "is this user online" without touching the hub. The
// hub map stays authoritative; this is a read optimization only.
type PresenceCache struct {
	redis *RedisCache
}

func NewPresenceCache(redis *RedisCache) *PresenceCache {
	return &PresenceCache{redis: redis}
}

func presenceKey(userID uint) string {
	return fmt.Sprintf("presence:%d", userID)
}

// Enabled reports whether a Redis backend is attached. Readers fall back to
// the hub when it is not.
func (pc *PresenceCache) Enabled() bool {
	return pc != nil && pc.redis != nil
}

func (pc *PresenceCache) SetOnline(userID uint) error {
	if pc == nil || pc.redis == nil {
		return nil
	}
	if err := pc.redis.SetAdd("presence:online", userID); err != nil {
		return err
	}
	return pc.redis.Set(presenceKey(userID), []byte("1"), PresenceTTL)
}

func (pc *PresenceCache) SetOffline(userID uint) error {
	if pc == nil || pc.redis == nil {
		return nil
	}
	if err := pc.redis.SetRemove("presence:online", userID); err != nil {
		return err
	}
	return pc.redis.Delete(presenceKey(userID))
}

// Refresh extends the TTL; the hub calls this on every pong.
func (pc *PresenceCache) Refresh(userID uint) error {
	if pc == nil || pc.redis == nil {
		return nil
	}
	return pc.redis.Set(presenceKey(userID), []byte("1"), PresenceTTL)
}

func (pc *PresenceCache) IsOnline(userID uint) bool {
	if pc == nil || pc.redis == nil {
		return false
	}
	return pc.redis.Exists(presenceKey(userID))
}

func (pc *PresenceCache) OnlineUserIDs() ([]uint, error) {
	if pc == nil || pc.redis == nil {
		return nil, nil
	}
	members, err := pc.redis.SetMembers("presence:online")
	if err != nil {
		return nil, err
	}

	userIDs := make([]uint, 0, len(members))
	for _, member := range members {
		if id, err := strconv.ParseUint(member, 10, 32); err == nil {
			userIDs = append(userIDs, uint(id))
		}
	}
	return userIDs, nil
}

func (pc *PresenceCache) OnlineCount() (int64, error) {
	if pc == nil || pc.redis == nil {
		return 0, nil
	}
	return pc.redis.SetCard("presence:online")
}
