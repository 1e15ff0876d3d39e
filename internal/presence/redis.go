package presence

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps presence in redis sets so multiple server instances share
// one view. Atomicity comes from redis set primitives and transactional
// pipelines, never from in-process locks.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func connsKey(userID uint) string {
	return fmt.Sprintf("presence:conns:%d", userID)
}

func lastSeenKey(userID uint) string {
	return fmt.Sprintf("presence:lastseen:%d", userID)
}

func typingKey(chatID, userID uint) string {
	return fmt.Sprintf("typing:%d:%d", chatID, userID)
}

func (s *RedisStore) RegisterConnection(ctx context.Context, userID uint, connID string) error {
	return s.client.SAdd(ctx, connsKey(userID), connID).Err()
}

func (s *RedisStore) PruneAndSync(ctx context.Context, userID uint, liveConnIDs []string) (int64, error) {
	key := connsKey(userID)
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key)
	if len(liveConnIDs) > 0 {
		members := make([]interface{}, len(liveConnIDs))
		for i, id := range liveConnIDs {
			members[i] = id
		}
		pipe.SAdd(ctx, key, members...)
	}
	card := pipe.SCard(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return card.Val(), nil
}

func (s *RedisStore) CountLive(ctx context.Context, userID uint) (int64, error) {
	return s.client.SCard(ctx, connsKey(userID)).Result()
}

func (s *RedisStore) RemoveConnection(ctx context.Context, userID uint, connID string) (int64, bool, error) {
	key := connsKey(userID)
	pipe := s.client.TxPipeline()
	pipe.SRem(ctx, key, connID)
	card := pipe.SCard(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, false, err
	}

	remaining := card.Val()
	if remaining > 0 {
		return remaining, false, nil
	}
	if err := s.client.Set(ctx, lastSeenKey(userID), time.Now().UTC().Format(time.RFC3339), 0).Err(); err != nil {
		return 0, false, err
	}
	return 0, true, nil
}

func (s *RedisStore) LastSeen(ctx context.Context, userID uint) (*time.Time, error) {
	val, err := s.client.Get(ctx, lastSeenKey(userID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *RedisStore) SetTyping(ctx context.Context, chatID, userID uint, username string) error {
	return s.client.Set(ctx, typingKey(chatID, userID), username, TypingTTL).Err()
}

func (s *RedisStore) ClearTyping(ctx context.Context, chatID, userID uint) (bool, error) {
	removed, err := s.client.Del(ctx, typingKey(chatID, userID)).Result()
	if err != nil {
		return false, err
	}
	return removed > 0, nil
}

func (s *RedisStore) ClearAllTyping(ctx context.Context, userID uint, chatIDs []uint) ([]uint, error) {
	var cleared []uint
	for _, chatID := range chatIDs {
		removed, err := s.client.Del(ctx, typingKey(chatID, userID)).Result()
		if err != nil {
			return cleared, err
		}
		if removed > 0 {
			cleared = append(cleared, chatID)
		}
	}
	return cleared, nil
}
