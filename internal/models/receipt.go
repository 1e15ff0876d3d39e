package models

import (
	"time"
)

type ReceiptKind string

const (
	ReceiptDelivered ReceiptKind = "delivered"
	ReceiptRead      ReceiptKind = "read"
)

// MessageReceipt records that one user has delivered or read one message.
// Rows are only ever inserted (the status sets grow monotonically); the
// composite primary key makes the insert the atomic add-to-set primitive.
type MessageReceipt struct {
	MessageID uint        `gorm:"primaryKey" json:"message_id"`
	UserID    uint        `gorm:"primaryKey" json:"user_id"`
	Kind      ReceiptKind `gorm:"primaryKey;type:varchar(10)" json:"kind"`
	CreatedAt time.Time   `json:"created_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}
