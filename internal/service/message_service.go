package service

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/chatwave/chatwave-backend/internal/models"
	"github.com/chatwave/chatwave-backend/internal/presence"
	"github.com/chatwave/chatwave-backend/internal/repository"
	"github.com/chatwave/chatwave-backend/internal/validation"
)

type MessageService struct {
	chatRepo    repository.ChatRepositoryInterface
	messageRepo repository.MessageRepositoryInterface
	receiptRepo repository.ReceiptRepositoryInterface
	presence    presence.Store
}

func NewMessageService(chatRepo repository.ChatRepositoryInterface, messageRepo repository.MessageRepositoryInterface, receiptRepo repository.ReceiptRepositoryInterface, presenceStore presence.Store) *MessageService {
	return &MessageService{
		chatRepo:    chatRepo,
		messageRepo: messageRepo,
		receiptRepo: receiptRepo,
		presence:    presenceStore,
	}
}

type SendMessageInput struct {
	ChatID      uint               `json:"chat_id"`
	MessageType models.MessageType `json:"message_type"`
	Content     string             `json:"content"`
	FileURL     string             `json:"file_url"`
	FileName    string             `json:"file_name"`
	FileType    string             `json:"file_type"`
	FileSize    int64              `json:"file_size"`
	TempID      string             `json:"temp_id"`
}

// DispatchResult is everything the transport layer needs to broadcast after
// a successful send: the persisted message, the fast-path delivery updates
// for recipients that were online at send time, and the participant IDs
// whose chat-list caches must be invalidated.
type DispatchResult struct {
	Message         *models.Message
	TempID          string
	DeliveryUpdates []DeliveryUpdate
	ParticipantIDs  []uint
}

// Dispatch validates, authorizes, and persists a message, then advances the
// delivered set for every other participant who is online right now.
func (s *MessageService) Dispatch(ctx context.Context, senderID uint, input SendMessageInput) (*DispatchResult, error) {
	if input.ChatID == 0 {
		return nil, ErrChatIDRequired
	}
	if input.MessageType == "" {
		input.MessageType = models.TextMessage
	}
	switch {
	case input.MessageType == models.TextMessage:
		if strings.TrimSpace(input.Content) == "" {
			return nil, ErrContentRequired
		}
	case input.MessageType.IsFileKind():
		if input.FileURL == "" {
			return nil, ErrFileURLRequired
		}
	default:
		return nil, ErrUnsupportedType
	}

	chat, err := s.chatRepo.FindByID(input.ChatID)
	if err != nil || !chat.HasParticipant(senderID) {
		return nil, ErrNotParticipant
	}

	// Client retries resend with the same temp ID; hand back the already
	// persisted message instead of tripping the unique index.
	if input.TempID != "" {
		if existing, err := s.GetByClientID(input.TempID, senderID); err == nil {
			return &DispatchResult{
				Message:        existing,
				TempID:         input.TempID,
				ParticipantIDs: chat.ParticipantIDs(),
			}, nil
		}
	}

	message := &models.Message{
		ChatID:      input.ChatID,
		ClientID:    input.TempID,
		SenderID:    senderID,
		MessageType: input.MessageType,
		Content:     validation.TrimAndLimit(input.Content, validation.MaxMessageLength()),
		FileURL:     input.FileURL,
		FileName:    input.FileName,
		FileType:    input.FileType,
		FileSize:    input.FileSize,
		Status:      models.StatusSent,
	}
	if err := s.messageRepo.Create(message); err != nil {
		return nil, err
	}

	// Reload with sender resolved for the broadcast payload.
	persisted, err := s.messageRepo.FindByID(message.ID)
	if err != nil {
		persisted = message
	}

	result := &DispatchResult{
		Message:        persisted,
		TempID:         input.TempID,
		ParticipantIDs: chat.ParticipantIDs(),
	}

	// Sender-side fast path: recipients online right now get a delivered
	// receipt immediately. Offline recipients converge via the connect-time
	// catch-up scan instead.
	participants := chat.ParticipantIDs()
	for _, pid := range participants {
		if pid == senderID {
			continue
		}
		live, err := s.presence.CountLive(ctx, pid)
		if err != nil {
			log.Printf("dispatch: presence lookup failed user_id=%d: %v", pid, err)
			continue
		}
		if live == 0 {
			continue
		}

		added, err := s.receiptRepo.Add(message.ID, pid, models.ReceiptDelivered)
		if err != nil {
			log.Printf("dispatch: receipt add failed message_id=%d user_id=%d: %v", message.ID, pid, err)
			continue
		}
		if !added {
			continue
		}

		delivered, err := s.receiptRepo.UserIDs(message.ID, models.ReceiptDelivered)
		if err != nil {
			log.Printf("dispatch: receipt load failed message_id=%d: %v", message.ID, err)
			continue
		}
		deliveredToAll := CompleteForAllOthers(delivered, participants, senderID)
		if !chat.IsGroupChat && deliveredToAll {
			if err := s.messageRepo.UpdateStatus(message.ID, models.StatusDelivered); err != nil {
				log.Printf("dispatch: status projection failed message_id=%d: %v", message.ID, err)
			}
		}
		result.DeliveryUpdates = append(result.DeliveryUpdates, DeliveryUpdate{
			ChatID:         chat.ID,
			MessageID:      message.ID,
			UserID:         pid,
			DeliveredToAll: deliveredToAll,
		})
	}

	return result, nil
}

// GetChatMessages fetches chat history with an optional before-timestamp
// cursor, newest page first in chronological order.
func (s *MessageService) GetChatMessages(userID, chatID uint, before *time.Time, limit int) ([]models.Message, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	member, err := s.chatRepo.IsParticipant(chatID, userID)
	if err != nil || !member {
		return nil, ErrNotParticipant
	}
	return s.messageRepo.FindByChat(chatID, before, limit)
}

// GetByClientID finds a message by client temp ID for send deduplication.
func (s *MessageService) GetByClientID(clientID string, senderID uint) (*models.Message, error) {
	return s.messageRepo.FindByClientID(clientID, senderID)
}
