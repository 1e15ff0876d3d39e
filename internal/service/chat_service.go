package service

import (
	"errors"
	"log"

	"github.com/chatwave/chatwave-backend/internal/cache"
	"github.com/chatwave/chatwave-backend/internal/models"
	"github.com/chatwave/chatwave-backend/internal/repository"
	"gorm.io/gorm"
)

type ChatService struct {
	chatRepo    repository.ChatRepositoryInterface
	messageRepo repository.MessageRepositoryInterface
	userRepo    repository.UserRepositoryInterface
	chatCache   *cache.ChatCache
}

func NewChatService(chatRepo repository.ChatRepositoryInterface, messageRepo repository.MessageRepositoryInterface, userRepo repository.UserRepositoryInterface, chatCache *cache.ChatCache) *ChatService {
	return &ChatService{
		chatRepo:    chatRepo,
		messageRepo: messageRepo,
		userRepo:    userRepo,
		chatCache:   chatCache,
	}
}

// CreateDirectChat returns the existing 1-on-1 chat between the two users or
// creates it. A direct chat always has exactly two distinct participants.
func (s *ChatService) CreateDirectChat(creatorID, peerID uint) (*models.Chat, error) {
	if creatorID == peerID {
		return nil, errors.New("cannot start a chat with yourself")
	}

	if existing, err := s.chatRepo.FindDirectChat(creatorID, peerID); err == nil {
		return existing, nil
	}

	creator, err := s.userRepo.FindByID(creatorID)
	if err != nil {
		return nil, err
	}
	peer, err := s.userRepo.FindByID(peerID)
	if err != nil {
		return nil, errors.New("peer not found")
	}

	chat := &models.Chat{
		IsGroupChat:  false,
		Participants: []models.User{*creator, *peer},
	}
	if err := s.chatRepo.Create(chat); err != nil {
		return nil, err
	}
	s.chatCache.Invalidate(creatorID, peerID)
	return s.chatRepo.FindByID(chat.ID)
}

// CreateGroupChat creates a group with the creator as admin.
func (s *ChatService) CreateGroupChat(creatorID uint, name string, memberIDs []uint) (*models.Chat, error) {
	if name == "" {
		return nil, errors.New("group name is required")
	}

	seen := map[uint]bool{creatorID: true}
	participants := []models.User{}
	creator, err := s.userRepo.FindByID(creatorID)
	if err != nil {
		return nil, err
	}
	participants = append(participants, *creator)
	for _, id := range memberIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		member, err := s.userRepo.FindByID(id)
		if err != nil {
			return nil, errors.New("member not found")
		}
		participants = append(participants, *member)
	}
	if len(participants) < 2 {
		return nil, errors.New("a group chat needs at least two participants")
	}

	adminID := creatorID
	chat := &models.Chat{
		Name:         name,
		IsGroupChat:  true,
		AdminID:      &adminID,
		Participants: participants,
	}
	if err := s.chatRepo.Create(chat); err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(participants))
	for _, p := range participants {
		ids = append(ids, p.ID)
	}
	s.chatCache.Invalidate(ids...)
	return s.chatRepo.FindByID(chat.ID)
}

// GetChatForUser loads a chat and enforces membership.
func (s *ChatService) GetChatForUser(chatID, userID uint) (*models.Chat, error) {
	chat, err := s.chatRepo.FindByID(chatID)
	if err != nil || !chat.HasParticipant(userID) {
		return nil, ErrNotParticipant
	}
	return chat, nil
}

// ListChatsForUser returns every chat the user participates in.
func (s *ChatService) ListChatsForUser(userID uint) ([]models.Chat, error) {
	return s.chatRepo.FindByParticipant(userID)
}

// ListChatSummaries builds the user's chat list with latest-message previews
// and unread counts, served from cache when fresh.
func (s *ChatService) ListChatSummaries(userID uint) ([]cache.ChatSummary, error) {
	if cached, ok := s.chatCache.GetChatList(userID); ok {
		return cached, nil
	}

	chats, err := s.chatRepo.FindByParticipant(userID)
	if err != nil {
		return nil, err
	}

	summaries := make([]cache.ChatSummary, 0, len(chats))
	for i := range chats {
		chat := &chats[i]
		summary := cache.ChatSummary{
			ChatID:         chat.ID,
			Name:           chat.Name,
			IsGroupChat:    chat.IsGroupChat,
			ParticipantIDs: chat.ParticipantIDs(),
		}
		if latest, err := s.messageRepo.FindLatestByChat(chat.ID); err == nil {
			summary.LatestSender = latest.SenderID
			summary.LatestPreview = latest.Content
			summary.LatestAt = latest.CreatedAt
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("chat_list: latest message lookup failed chat_id=%d: %v", chat.ID, err)
		}
		if unread, err := s.messageRepo.CountUnreadForUser(chat.ID, userID); err == nil {
			summary.UnreadCount = unread
		}
		summaries = append(summaries, summary)
	}

	if err := s.chatCache.SetChatList(userID, summaries); err != nil {
		log.Printf("chat_list: cache store failed user_id=%d: %v", userID, err)
	}
	return summaries, nil
}

// LeaveChat removes the user from a group chat. The last participant leaving
// destroys the chat and its messages; a departing admin hands the role to
// the first remaining participant.
func (s *ChatService) LeaveChat(chatID, userID uint) (*models.Chat, error) {
	chat, err := s.chatRepo.FindByID(chatID)
	if err != nil || !chat.HasParticipant(userID) {
		return nil, ErrNotParticipant
	}
	if !chat.IsGroupChat {
		return nil, errors.New("cannot leave a 1-on-1 chat; delete it instead")
	}

	if err := s.chatRepo.RemoveParticipant(chatID, userID); err != nil {
		return nil, err
	}

	remaining, err := s.chatRepo.CountParticipants(chatID)
	if err != nil {
		return nil, err
	}
	if remaining == 0 {
		if err := s.messageRepo.DeleteByChat(chatID); err != nil {
			log.Printf("leave: message cleanup failed chat_id=%d: %v", chatID, err)
		}
		if err := s.chatRepo.Delete(chatID); err != nil {
			return nil, err
		}
		s.chatCache.Invalidate(userID)
		return nil, nil
	}

	updated, err := s.chatRepo.FindByID(chatID)
	if err != nil {
		return nil, err
	}
	if chat.AdminID != nil && *chat.AdminID == userID && len(updated.Participants) > 0 {
		newAdmin := updated.Participants[0].ID
		if err := s.chatRepo.UpdateAdmin(chatID, &newAdmin); err != nil {
			log.Printf("leave: admin handoff failed chat_id=%d: %v", chatID, err)
		}
	}

	s.chatCache.Invalidate(append(updated.ParticipantIDs(), userID)...)
	return updated, nil
}

// DeleteChat removes a chat entirely. Group chats require the admin; either
// participant may delete a 1-on-1 chat.
func (s *ChatService) DeleteChat(chatID, userID uint) error {
	chat, err := s.chatRepo.FindByID(chatID)
	if err != nil || !chat.HasParticipant(userID) {
		return ErrNotParticipant
	}
	if chat.IsGroupChat && (chat.AdminID == nil || *chat.AdminID != userID) {
		return ErrNotParticipant
	}

	participantIDs := chat.ParticipantIDs()
	if err := s.messageRepo.DeleteByChat(chatID); err != nil {
		return err
	}
	if err := s.chatRepo.Delete(chatID); err != nil {
		return err
	}
	s.chatCache.Invalidate(participantIDs...)
	return nil
}

// InvalidateChatLists drops cached chat lists for the given users. Message
// dispatch calls this after every send.
func (s *ChatService) InvalidateChatLists(userIDs ...uint) {
	s.chatCache.Invalidate(userIDs...)
}
