package repository

import (
	"time"

	"github.com/chatwave/chatwave-backend/internal/models"
	"gorm.io/gorm"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(message *models.Message) error {
	return r.db.Create(message).Error
}

func (r *MessageRepository) FindByID(id uint) (*models.Message, error) {
	var message models.Message
	err := r.db.Preload("Sender").Preload("Receipts").First(&message, id).Error
	return &message, err
}

func (r *MessageRepository) FindByClientID(clientID string, senderID uint) (*models.Message, error) {
	var message models.Message
	err := r.db.Preload("Sender").
		Where("client_id = ? AND sender_id = ?", clientID, senderID).
		First(&message).Error
	return &message, err
}

// FindByChat returns messages for a chat, newest first, optionally before a
// timestamp cursor, then reversed to chronological order.
func (r *MessageRepository) FindByChat(chatID uint, before *time.Time, limit int) ([]models.Message, error) {
	q := r.db.Preload("Sender").Preload("Receipts").Where("chat_id = ?", chatID)
	if before != nil {
		q = q.Where("created_at < ?", *before)
	}

	var messages []models.Message
	err := q.Order("created_at DESC").Limit(limit).Find(&messages).Error

	// Reverse to get chronological order
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, err
}

// FindUndeliveredForUser returns messages in the chat sent by someone else
// that the user has no delivered receipt for. Feeds the connect-time catch-up.
func (r *MessageRepository) FindUndeliveredForUser(chatID, userID uint) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.Preload("Receipts").
		Where("chat_id = ? AND sender_id <> ?", chatID, userID).
		Where(`NOT EXISTS (
			SELECT 1 FROM message_receipts mr
			WHERE mr.message_id = messages.id AND mr.user_id = ? AND mr.kind = ?
		)`, userID, models.ReceiptDelivered).
		Find(&messages).Error
	return messages, err
}

// FindLatestByChat returns the most recent message of a chat, or a gorm
// record-not-found error for an empty chat.
func (r *MessageRepository) FindLatestByChat(chatID uint) (*models.Message, error) {
	var message models.Message
	err := r.db.Preload("Sender").
		Where("chat_id = ?", chatID).
		Order("created_at DESC").
		First(&message).Error
	return &message, err
}

func (r *MessageRepository) UpdateStatus(messageID uint, status models.MessageStatus) error {
	return r.db.Model(&models.Message{}).Where("id = ?", messageID).
		Update("status", status).Error
}

// CountUnreadForUser counts messages in a chat the user has not read and did
// not send. Used for chat-list summaries.
func (r *MessageRepository) CountUnreadForUser(chatID, userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Message{}).
		Where("chat_id = ? AND sender_id <> ?", chatID, userID).
		Where(`NOT EXISTS (
			SELECT 1 FROM message_receipts mr
			WHERE mr.message_id = messages.id AND mr.user_id = ? AND mr.kind = ?
		)`, userID, models.ReceiptRead).
		Count(&count).Error
	return count, err
}

func (r *MessageRepository) DeleteByChat(chatID uint) error {
	return r.db.Where("chat_id = ?", chatID).Delete(&models.Message{}).Error
}
