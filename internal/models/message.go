package models

import (
	"time"

	"gorm.io/gorm"
)

type MessageType string

const (
	TextMessage  MessageType = "text"
	ImageMessage MessageType = "image"
	VideoMessage MessageType = "video"
	AudioMessage MessageType = "audio"
	FileMessage  MessageType = "file"
)

// IsFileKind reports whether the message type carries a file reference.
func (t MessageType) IsFileKind() bool {
	switch t {
	case ImageMessage, VideoMessage, AudioMessage, FileMessage:
		return true
	}
	return false
}

type MessageStatus string

const (
	StatusSending   MessageStatus = "sending"
	StatusSent      MessageStatus = "sent"
	StatusDelivered MessageStatus = "delivered"
	StatusRead      MessageStatus = "read"
	StatusFailed    MessageStatus = "failed"
)

// Message is one message in a chat. Status is a coarse projection kept for
// 1-on-1 convenience; the authoritative delivery/read truth is the receipt
// rows (DeliveredTo/ReadBy) combined with the participant set.
type Message struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Client-side UUID for reconciling the optimistic local copy.
	ClientID string `gorm:"type:varchar(36);uniqueIndex:idx_client_sender" json:"client_id"`

	ChatID   uint `gorm:"not null;index" json:"chat_id"`
	Chat     Chat `gorm:"foreignKey:ChatID;constraint:OnDelete:CASCADE" json:"-"`
	SenderID uint `gorm:"not null;uniqueIndex:idx_client_sender;index" json:"sender_id"`
	Sender   User `gorm:"foreignKey:SenderID" json:"sender"`

	MessageType MessageType `gorm:"type:varchar(20);default:'text'" json:"message_type"`
	Content     string      `gorm:"type:text" json:"content"`
	FileURL     string      `json:"file_url,omitempty"`
	FileName    string      `json:"file_name,omitempty"`
	FileType    string      `json:"file_type,omitempty"`
	FileSize    int64       `json:"file_size,omitempty"`

	Status MessageStatus `gorm:"type:varchar(20);default:'sent';index" json:"status"`

	Receipts []MessageReceipt `gorm:"foreignKey:MessageID;constraint:OnDelete:CASCADE" json:"-"`
}

// ReceiptUserIDs collects the user IDs of loaded receipts of the given kind.
func (m *Message) ReceiptUserIDs(kind ReceiptKind) []uint {
	var ids []uint
	for _, r := range m.Receipts {
		if r.Kind == kind {
			ids = append(ids, r.UserID)
		}
	}
	return ids
}

type MessageResponse struct {
	ID          uint          `json:"id"`
	ClientID    string        `json:"client_id,omitempty"`
	ChatID      uint          `json:"chat_id"`
	SenderID    uint          `json:"sender_id"`
	Sender      UserResponse  `json:"sender"`
	MessageType MessageType   `json:"message_type"`
	Content     string        `json:"content,omitempty"`
	FileURL     string        `json:"file_url,omitempty"`
	FileName    string        `json:"file_name,omitempty"`
	FileType    string        `json:"file_type,omitempty"`
	FileSize    int64         `json:"file_size,omitempty"`
	Status      MessageStatus `json:"status"`
	DeliveredTo []uint        `json:"delivered_to"`
	ReadBy      []uint        `json:"read_by"`
	CreatedAt   time.Time     `json:"created_at"`
}

func (m *Message) ToResponse() MessageResponse {
	delivered := m.ReceiptUserIDs(ReceiptDelivered)
	read := m.ReceiptUserIDs(ReceiptRead)
	if delivered == nil {
		delivered = []uint{}
	}
	if read == nil {
		read = []uint{}
	}
	return MessageResponse{
		ID:          m.ID,
		ClientID:    m.ClientID,
		ChatID:      m.ChatID,
		SenderID:    m.SenderID,
		Sender:      m.Sender.ToResponse(),
		MessageType: m.MessageType,
		Content:     m.Content,
		FileURL:     m.FileURL,
		FileName:    m.FileName,
		FileType:    m.FileType,
		FileSize:    m.FileSize,
		Status:      m.Status,
		DeliveredTo: delivered,
		ReadBy:      read,
		CreatedAt:   m.CreatedAt,
	}
}
