package repository

import (
	"github.com/chatwave/chatwave-backend/internal/models"
	"gorm.io/gorm"
)

type ChatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

func (r *ChatRepository) Create(chat *models.Chat) error {
	return r.db.Create(chat).Error
}

func (r *ChatRepository) FindByID(id uint) (*models.Chat, error) {
	var chat models.Chat
	if err := r.db.Preload("Participants").First(&chat, id).Error; err != nil {
		return nil, err
	}
	return &chat, nil
}

// FindByParticipant returns every chat the user is a member of, with
// participants preloaded. Used by the connect-time room join and catch-up.
func (r *ChatRepository) FindByParticipant(userID uint) ([]models.Chat, error) {
	var chats []models.Chat
	err := r.db.Joins("JOIN chat_participants ON chat_participants.chat_id = chats.id").
		Where("chat_participants.user_id = ?", userID).
		Preload("Participants").
		Find(&chats).Error
	return chats, err
}

// FindDirectChat returns the existing 1-on-1 chat between the two users, if any.
func (r *ChatRepository) FindDirectChat(userID1, userID2 uint) (*models.Chat, error) {
	var chat models.Chat
	err := r.db.
		Joins("JOIN chat_participants cp1 ON cp1.chat_id = chats.id AND cp1.user_id = ?", userID1).
		Joins("JOIN chat_participants cp2 ON cp2.chat_id = chats.id AND cp2.user_id = ?", userID2).
		Where("chats.is_group_chat = false").
		Preload("Participants").
		First(&chat).Error
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

func (r *ChatRepository) IsParticipant(chatID, userID uint) (bool, error) {
	var count int64
	err := r.db.Table("chat_participants").
		Where("chat_id = ? AND user_id = ?", chatID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *ChatRepository) RemoveParticipant(chatID, userID uint) error {
	return r.db.Exec(
		"DELETE FROM chat_participants WHERE chat_id = ? AND user_id = ?",
		chatID, userID,
	).Error
}

func (r *ChatRepository) CountParticipants(chatID uint) (int64, error) {
	var count int64
	err := r.db.Table("chat_participants").Where("chat_id = ?", chatID).Count(&count).Error
	return count, err
}

func (r *ChatRepository) UpdateAdmin(chatID uint, adminID *uint) error {
	return r.db.Model(&models.Chat{}).Where("id = ?", chatID).Update("admin_id", adminID).Error
}

// Delete removes the chat; messages and receipts cascade at the database level.
func (r *ChatRepository) Delete(chatID uint) error {
	if err := r.db.Exec("DELETE FROM chat_participants WHERE chat_id = ?", chatID).Error; err != nil {
		return err
	}
	return r.db.Delete(&models.Chat{}, chatID).Error
}
