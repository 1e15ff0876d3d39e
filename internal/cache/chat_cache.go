package cache

import (
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// ChatListTTL bounds staleness of cached chat-list summaries.
const ChatListTTL = 5 * time.Minute

// ChatSummary is one row of a user's chat list.
type ChatSummary struct {
	ChatID         uint      `msgpack:"chat_id" json:"chat_id"`
	Name           string    `msgpack:"name" json:"name"`
	IsGroupChat    bool      `msgpack:"is_group_chat" json:"is_group_chat"`
	LatestSender   uint      `msgpack:"latest_sender" json:"latest_sender"`
	LatestPreview  string    `msgpack:"latest_preview" json:"latest_preview"`
	LatestAt       time.Time `msgpack:"latest_at" json:"latest_at"`
	UnreadCount    int64     `msgpack:"unread_count" json:"unread_count"`
	ParticipantIDs []uint    `msgpack:"participant_ids" json:"participant_ids"`
}

// ChatCache caches per-user chat-list summaries. Dispatch and status updates
// invalidate it for every participant of the affected chat.
type ChatCache struct {
	redis *RedisCache
}

func NewChatCache(redis *RedisCache) *ChatCache {
	return &ChatCache{redis: redis}
}

func chatListKey(userID uint) string {
	return fmt.Sprintf("user:%d:chats", userID)
}

// GetChatList retrieves the cached chat list for a user.
func (cc *ChatCache) GetChatList(userID uint) ([]ChatSummary, bool) {
	if cc == nil || cc.redis == nil {
		return nil, false
	}
	data, err := cc.redis.Get(chatListKey(userID))
	if err != nil || data == nil {
		return nil, false
	}

	var summaries []ChatSummary
	if err := msgpack.Unmarshal(data, &summaries); err != nil {
		return nil, false
	}
	return summaries, true
}

// SetChatList caches the chat list for a user.
func (cc *ChatCache) SetChatList(userID uint, summaries []ChatSummary) error {
	if cc == nil || cc.redis == nil {
		return nil
	}
	data, err := msgpack.Marshal(summaries)
	if err != nil {
		return err
	}
	return cc.redis.Set(chatListKey(userID), data, ChatListTTL)
}

// Invalidate drops the cached chat list for every given user.
func (cc *ChatCache) Invalidate(userIDs ...uint) {
	if cc == nil || cc.redis == nil {
		return
	}
	for _, id := range userIDs {
		_ = cc.redis.Delete(chatListKey(id))
	}
}
