package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/chatwave/chatwave-backend/internal/models"
)

// MockUserRepository is a mock implementation of UserRepository for testing
type MockUserRepository struct {
	users  map[uint]*models.User
	nextID uint
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users:  make(map[uint]*models.User),
		nextID: 1,
	}
}

func (m *MockUserRepository) Create(user *models.User) error {
	if user.ID == 0 {
		user.ID = m.nextID
		m.nextID++
	}
	m.users[user.ID] = user
	return nil
}

func (m *MockUserRepository) FindByEmail(email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, errors.New("record not found")
}

func (m *MockUserRepository) FindByUsername(username string) (*models.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, errors.New("record not found")
}

func (m *MockUserRepository) FindByID(id uint) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, errors.New("record not found")
}

func (m *MockUserRepository) UpdateLastSeen(userID uint, lastSeen time.Time) error {
	u, ok := m.users[userID]
	if !ok {
		return errors.New("record not found")
	}
	u.LastSeen = &lastSeen
	return nil
}

func (m *MockUserRepository) SearchUsers(query string, limit int) ([]models.User, error) {
	var result []models.User
	for _, u := range m.users {
		if len(result) >= limit {
			break
		}
		if strings.Contains(strings.ToLower(u.Username), strings.ToLower(query)) {
			result = append(result, *u)
		}
	}
	return result, nil
}

// MockChatRepository is a mock implementation of ChatRepository for testing
type MockChatRepository struct {
	chats  map[uint]*models.Chat
	nextID uint
}

func NewMockChatRepository() *MockChatRepository {
	return &MockChatRepository{
		chats:  make(map[uint]*models.Chat),
		nextID: 1,
	}
}

func (m *MockChatRepository) Create(chat *models.Chat) error {
	if chat.ID == 0 {
		chat.ID = m.nextID
		m.nextID++
	}
	m.chats[chat.ID] = chat
	return nil
}

func (m *MockChatRepository) FindByID(id uint) (*models.Chat, error) {
	if c, ok := m.chats[id]; ok {
		return c, nil
	}
	return nil, errors.New("record not found")
}

func (m *MockChatRepository) FindByParticipant(userID uint) ([]models.Chat, error) {
	var result []models.Chat
	for _, c := range m.chats {
		if c.HasParticipant(userID) {
			result = append(result, *c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *MockChatRepository) FindDirectChat(userID1, userID2 uint) (*models.Chat, error) {
	for _, c := range m.chats {
		if !c.IsGroupChat && c.HasParticipant(userID1) && c.HasParticipant(userID2) {
			return c, nil
		}
	}
	return nil, errors.New("record not found")
}

func (m *MockChatRepository) IsParticipant(chatID, userID uint) (bool, error) {
	c, ok := m.chats[chatID]
	if !ok {
		return false, errors.New("record not found")
	}
	return c.HasParticipant(userID), nil
}

func (m *MockChatRepository) RemoveParticipant(chatID, userID uint) error {
	c, ok := m.chats[chatID]
	if !ok {
		return errors.New("record not found")
	}
	remaining := c.Participants[:0]
	for _, p := range c.Participants {
		if p.ID != userID {
			remaining = append(remaining, p)
		}
	}
	c.Participants = remaining
	return nil
}

func (m *MockChatRepository) CountParticipants(chatID uint) (int64, error) {
	c, ok := m.chats[chatID]
	if !ok {
		return 0, errors.New("record not found")
	}
	return int64(len(c.Participants)), nil
}

func (m *MockChatRepository) UpdateAdmin(chatID uint, adminID *uint) error {
	c, ok := m.chats[chatID]
	if !ok {
		return errors.New("record not found")
	}
	c.AdminID = adminID
	return nil
}

func (m *MockChatRepository) Delete(chatID uint) error {
	delete(m.chats, chatID)
	return nil
}

// MockMessageRepository is a mock implementation of MessageRepository for testing
type MockMessageRepository struct {
	messages map[uint]*models.Message
	nextID   uint

	// set by tests that exercise the catch-up scan
	receipts *MockReceiptRepository
}

func NewMockMessageRepository() *MockMessageRepository {
	return &MockMessageRepository{
		messages: make(map[uint]*models.Message),
		nextID:   1,
	}
}

func (m *MockMessageRepository) Create(message *models.Message) error {
	if message.ID == 0 {
		message.ID = m.nextID
		m.nextID++
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}
	m.messages[message.ID] = message
	return nil
}

func (m *MockMessageRepository) FindByID(id uint) (*models.Message, error) {
	if msg, ok := m.messages[id]; ok {
		return msg, nil
	}
	return nil, errors.New("record not found")
}

func (m *MockMessageRepository) FindByClientID(clientID string, senderID uint) (*models.Message, error) {
	for _, msg := range m.messages {
		if msg.ClientID == clientID && msg.SenderID == senderID {
			return msg, nil
		}
	}
	return nil, errors.New("record not found")
}

func (m *MockMessageRepository) FindByChat(chatID uint, before *time.Time, limit int) ([]models.Message, error) {
	var result []models.Message
	for _, msg := range m.messages {
		if msg.ChatID != chatID {
			continue
		}
		if before != nil && !msg.CreatedAt.Before(*before) {
			continue
		}
		result = append(result, *msg)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	if limit > 0 && len(result) > limit {
		result = result[len(result)-limit:]
	}
	return result, nil
}

func (m *MockMessageRepository) FindUndeliveredForUser(chatID, userID uint) ([]models.Message, error) {
	var result []models.Message
	for _, msg := range m.messages {
		if msg.ChatID != chatID || msg.SenderID == userID {
			continue
		}
		if m.receipts != nil && m.receipts.has(msg.ID, userID, models.ReceiptDelivered) {
			continue
		}
		result = append(result, *msg)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *MockMessageRepository) FindLatestByChat(chatID uint) (*models.Message, error) {
	var latest *models.Message
	for _, msg := range m.messages {
		if msg.ChatID != chatID {
			continue
		}
		if latest == nil || msg.ID > latest.ID {
			latest = msg
		}
	}
	if latest == nil {
		return nil, errors.New("record not found")
	}
	return latest, nil
}

func (m *MockMessageRepository) UpdateStatus(messageID uint, status models.MessageStatus) error {
	msg, ok := m.messages[messageID]
	if !ok {
		return errors.New("record not found")
	}
	msg.Status = status
	return nil
}

func (m *MockMessageRepository) CountUnreadForUser(chatID, userID uint) (int64, error) {
	var count int64
	for _, msg := range m.messages {
		if msg.ChatID != chatID || msg.SenderID == userID {
			continue
		}
		if m.receipts != nil && m.receipts.has(msg.ID, userID, models.ReceiptRead) {
			continue
		}
		count++
	}
	return count, nil
}

func (m *MockMessageRepository) DeleteByChat(chatID uint) error {
	for id, msg := range m.messages {
		if msg.ChatID == chatID {
			delete(m.messages, id)
		}
	}
	return nil
}

type receiptKey struct {
	messageID uint
	userID    uint
	kind      models.ReceiptKind
}

// MockReceiptRepository mirrors the conditional-insert semantics of the real
// repository: the sender guard and the already-present check both happen
// inside Add/AddBatch.
type MockReceiptRepository struct {
	rows     map[receiptKey]bool
	messages *MockMessageRepository
}

func NewMockReceiptRepository(messages *MockMessageRepository) *MockReceiptRepository {
	r := &MockReceiptRepository{
		rows:     make(map[receiptKey]bool),
		messages: messages,
	}
	messages.receipts = r
	return r
}

func (m *MockReceiptRepository) has(messageID, userID uint, kind models.ReceiptKind) bool {
	return m.rows[receiptKey{messageID, userID, kind}]
}

func (m *MockReceiptRepository) Add(messageID, userID uint, kind models.ReceiptKind) (bool, error) {
	msg, ok := m.messages.messages[messageID]
	if !ok || msg.SenderID == userID {
		return false, nil
	}
	key := receiptKey{messageID, userID, kind}
	if m.rows[key] {
		return false, nil
	}
	m.rows[key] = true
	return true, nil
}

func (m *MockReceiptRepository) AddBatch(chatID, userID uint, messageIDs []uint, kind models.ReceiptKind) ([]uint, error) {
	var touched []uint
	for _, id := range messageIDs {
		msg, ok := m.messages.messages[id]
		if !ok || msg.ChatID != chatID || msg.SenderID == userID {
			continue
		}
		key := receiptKey{id, userID, kind}
		if m.rows[key] {
			continue
		}
		m.rows[key] = true
		touched = append(touched, id)
	}
	return touched, nil
}

func (m *MockReceiptRepository) UserIDs(messageID uint, kind models.ReceiptKind) ([]uint, error) {
	var ids []uint
	for key := range m.rows {
		if key.messageID == messageID && key.kind == kind {
			ids = append(ids, key.userID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (m *MockReceiptRepository) ListByMessages(messageIDs []uint, kind models.ReceiptKind) ([]models.MessageReceipt, error) {
	wanted := make(map[uint]bool, len(messageIDs))
	for _, id := range messageIDs {
		wanted[id] = true
	}
	var receipts []models.MessageReceipt
	for key := range m.rows {
		if key.kind == kind && wanted[key.messageID] {
			receipts = append(receipts, models.MessageReceipt{
				MessageID: key.messageID,
				UserID:    key.userID,
				Kind:      key.kind,
			})
		}
	}
	return receipts, nil
}

func (m *MockReceiptRepository) Has(messageID, userID uint, kind models.ReceiptKind) (bool, error) {
	return m.has(messageID, userID, kind), nil
}

// fakePresence is a minimal presence.Store where tests dictate who is online.
type fakePresence struct {
	live map[uint]int64
}

func newFakePresence() *fakePresence {
	return &fakePresence{live: make(map[uint]int64)}
}

func (f *fakePresence) RegisterConnection(ctx context.Context, userID uint, connID string) error {
	f.live[userID]++
	return nil
}

func (f *fakePresence) PruneAndSync(ctx context.Context, userID uint, liveConnIDs []string) (int64, error) {
	f.live[userID] = int64(len(liveConnIDs))
	return f.live[userID], nil
}

func (f *fakePresence) CountLive(ctx context.Context, userID uint) (int64, error) {
	return f.live[userID], nil
}

func (f *fakePresence) RemoveConnection(ctx context.Context, userID uint, connID string) (int64, bool, error) {
	if f.live[userID] > 0 {
		f.live[userID]--
	}
	return f.live[userID], f.live[userID] == 0, nil
}

func (f *fakePresence) LastSeen(ctx context.Context, userID uint) (*time.Time, error) {
	return nil, nil
}

func (f *fakePresence) SetTyping(ctx context.Context, chatID, userID uint, username string) error {
	return nil
}

func (f *fakePresence) ClearTyping(ctx context.Context, chatID, userID uint) (bool, error) {
	return false, nil
}

func (f *fakePresence) ClearAllTyping(ctx context.Context, userID uint, chatIDs []uint) ([]uint, error) {
	return nil, nil
}
