package presence

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a process-local Store for single-instance deployments and
// tests. It mirrors the redis semantics, including typing TTL expiry.
type MemoryStore struct {
	mu       sync.Mutex
	conns    map[uint]map[string]bool
	lastSeen map[uint]time.Time
	typing   map[uint]map[uint]typingEntry // chatID -> userID -> entry
}

type typingEntry struct {
	username  string
	expiresAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		conns:    make(map[uint]map[string]bool),
		lastSeen: make(map[uint]time.Time),
		typing:   make(map[uint]map[uint]typingEntry),
	}
}

func (s *MemoryStore) RegisterConnection(_ context.Context, userID uint, connID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conns[userID] == nil {
		s.conns[userID] = make(map[string]bool)
	}
	s.conns[userID][connID] = true
	return nil
}

func (s *MemoryStore) PruneAndSync(_ context.Context, userID uint, liveConnIDs []string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := make(map[string]bool, len(liveConnIDs))
	for _, id := range liveConnIDs {
		set[id] = true
	}
	if len(set) == 0 {
		delete(s.conns, userID)
		return 0, nil
	}
	s.conns[userID] = set
	return int64(len(set)), nil
}

func (s *MemoryStore) CountLive(_ context.Context, userID uint) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.conns[userID])), nil
}

func (s *MemoryStore) RemoveConnection(_ context.Context, userID uint, connID string) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := s.conns[userID]
	delete(set, connID)
	if len(set) > 0 {
		return int64(len(set)), false, nil
	}
	delete(s.conns, userID)
	s.lastSeen[userID] = time.Now().UTC()
	return 0, true, nil
}

func (s *MemoryStore) LastSeen(_ context.Context, userID uint) (*time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.lastSeen[userID]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (s *MemoryStore) SetTyping(_ context.Context, chatID, userID uint, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.typing[chatID] == nil {
		s.typing[chatID] = make(map[uint]typingEntry)
	}
	s.typing[chatID][userID] = typingEntry{username: username, expiresAt: time.Now().Add(TypingTTL)}
	return nil
}

func (s *MemoryStore) ClearTyping(_ context.Context, chatID, userID uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.typing[chatID][userID]
	if !ok {
		return false, nil
	}
	delete(s.typing[chatID], userID)
	if entry.expiresAt.Before(time.Now()) {
		// Expired keys count as absent, matching redis TTL behavior.
		return false, nil
	}
	return true, nil
}

func (s *MemoryStore) ClearAllTyping(ctx context.Context, userID uint, chatIDs []uint) ([]uint, error) {
	var cleared []uint
	for _, chatID := range chatIDs {
		present, err := s.ClearTyping(ctx, chatID, userID)
		if err != nil {
			return cleared, err
		}
		if present {
			cleared = append(cleared, chatID)
		}
	}
	return cleared, nil
}
