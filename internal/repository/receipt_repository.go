package repository

import (
	"github.com/chatwave/chatwave-backend/internal/models"
	"gorm.io/gorm"
)

type ReceiptRepository struct {
	db *gorm.DB
}

func NewReceiptRepository(db *gorm.DB) *ReceiptRepository {
	return &ReceiptRepository{db: db}
}

// Add inserts one receipt if absent. The sender guard is folded into the
// insert so a user can never acquire a receipt on their own message. Returns
// whether a row was actually added, which is what keeps concurrent handlers
// from double-counting the same (message, user) pair.
func (r *ReceiptRepository) Add(messageID, userID uint, kind models.ReceiptKind) (bool, error) {
	res := r.db.Exec(`
		INSERT INTO message_receipts (message_id, user_id, kind, created_at)
		SELECT m.id, ?, ?, NOW()
		FROM messages m
		WHERE m.id = ? AND m.sender_id <> ?
		ON CONFLICT (message_id, user_id, kind) DO NOTHING
	`, userID, kind, messageID, userID)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// AddBatch inserts receipts for every message in the batch that belongs to the
// chat, was not sent by the user, and has no receipt of this kind yet.
// Returns the IDs of the messages actually touched.
func (r *ReceiptRepository) AddBatch(chatID, userID uint, messageIDs []uint, kind models.ReceiptKind) ([]uint, error) {
	if len(messageIDs) == 0 {
		return nil, nil
	}
	var touched []uint
	err := r.db.Raw(`
		INSERT INTO message_receipts (message_id, user_id, kind, created_at)
		SELECT m.id, ?, ?, NOW()
		FROM messages m
		WHERE m.id IN ? AND m.chat_id = ? AND m.sender_id <> ?
		ON CONFLICT (message_id, user_id, kind) DO NOTHING
		RETURNING message_id
	`, userID, kind, messageIDs, chatID, userID).Scan(&touched).Error
	if err != nil {
		return nil, err
	}
	return touched, nil
}

// UserIDs returns the users holding a receipt of the given kind on a message.
func (r *ReceiptRepository) UserIDs(messageID uint, kind models.ReceiptKind) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.MessageReceipt{}).
		Where("message_id = ? AND kind = ?", messageID, kind).
		Pluck("user_id", &ids).Error
	return ids, err
}

// ListByMessages loads all receipts of one kind for a batch of messages.
func (r *ReceiptRepository) ListByMessages(messageIDs []uint, kind models.ReceiptKind) ([]models.MessageReceipt, error) {
	if len(messageIDs) == 0 {
		return nil, nil
	}
	var receipts []models.MessageReceipt
	err := r.db.Where("message_id IN ? AND kind = ?", messageIDs, kind).
		Find(&receipts).Error
	return receipts, err
}

// Has reports whether a receipt exists.
func (r *ReceiptRepository) Has(messageID, userID uint, kind models.ReceiptKind) (bool, error) {
	var count int64
	err := r.db.Model(&models.MessageReceipt{}).
		Where("message_id = ? AND user_id = ? AND kind = ?", messageID, userID, kind).
		Count(&count).Error
	return count > 0, err
}
