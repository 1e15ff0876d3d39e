package repository

import (
	"time"

	"github.com/chatwave/chatwave-backend/internal/models"
)

// UserRepositoryInterface defines the contract for user repository operations
type UserRepositoryInterface interface {
	Create(user *models.User) error
	FindByEmail(email string) (*models.User, error)
	FindByUsername(username string) (*models.User, error)
	FindByID(id uint) (*models.User, error)
	UpdateLastSeen(userID uint, lastSeen time.Time) error
	SearchUsers(query string, limit int) ([]models.User, error)
}

// ChatRepositoryInterface defines the contract for chat repository operations
type ChatRepositoryInterface interface {
	Create(chat *models.Chat) error
	FindByID(id uint) (*models.Chat, error)
	FindByParticipant(userID uint) ([]models.Chat, error)
	FindDirectChat(userID1, userID2 uint) (*models.Chat, error)
	IsParticipant(chatID, userID uint) (bool, error)
	RemoveParticipant(chatID, userID uint) error
	CountParticipants(chatID uint) (int64, error)
	UpdateAdmin(chatID uint, adminID *uint) error
	Delete(chatID uint) error
}

// MessageRepositoryInterface defines the contract for message repository operations
type MessageRepositoryInterface interface {
	Create(message *models.Message) error
	FindByID(id uint) (*models.Message, error)
	FindByClientID(clientID string, senderID uint) (*models.Message, error)
	FindByChat(chatID uint, before *time.Time, limit int) ([]models.Message, error)
	FindUndeliveredForUser(chatID, userID uint) ([]models.Message, error)
	FindLatestByChat(chatID uint) (*models.Message, error)
	UpdateStatus(messageID uint, status models.MessageStatus) error
	CountUnreadForUser(chatID, userID uint) (int64, error)
	DeleteByChat(chatID uint) error
}

// ReceiptRepositoryInterface defines the contract for the atomic add-to-set
// receipt operations the status protocol is built on.
type ReceiptRepositoryInterface interface {
	Add(messageID, userID uint, kind models.ReceiptKind) (bool, error)
	AddBatch(chatID, userID uint, messageIDs []uint, kind models.ReceiptKind) ([]uint, error)
	UserIDs(messageID uint, kind models.ReceiptKind) ([]uint, error)
	ListByMessages(messageIDs []uint, kind models.ReceiptKind) ([]models.MessageReceipt, error)
	Has(messageID, userID uint, kind models.ReceiptKind) (bool, error)
}
