package models

import (
	"time"

	"gorm.io/gorm"
)

// Chat is a conversation between two or more users. 1-on-1 chats always have
// exactly two participants and no admin; group chats require one.
type Chat struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name        string `gorm:"size:100" json:"name"`
	IsGroupChat bool   `gorm:"not null;default:false" json:"is_group_chat"`
	AdminID     *uint  `json:"admin_id"`

	Admin        *User  `gorm:"foreignKey:AdminID" json:"admin,omitempty"`
	Participants []User `gorm:"many2many:chat_participants;" json:"participants"`
}

// ParticipantIDs returns the IDs of all participants in load order.
func (c *Chat) ParticipantIDs() []uint {
	ids := make([]uint, 0, len(c.Participants))
	for _, p := range c.Participants {
		ids = append(ids, p.ID)
	}
	return ids
}

// HasParticipant reports whether userID is a member of the chat.
func (c *Chat) HasParticipant(userID uint) bool {
	for _, p := range c.Participants {
		if p.ID == userID {
			return true
		}
	}
	return false
}

type ChatResponse struct {
	ID           uint           `json:"id"`
	Name         string         `json:"name"`
	IsGroupChat  bool           `json:"is_group_chat"`
	AdminID      *uint          `json:"admin_id,omitempty"`
	Participants []UserResponse `json:"participants"`
	CreatedAt    time.Time      `json:"created_at"`
}

func (c *Chat) ToResponse() ChatResponse {
	participants := make([]UserResponse, 0, len(c.Participants))
	for _, p := range c.Participants {
		participants = append(participants, p.ToResponse())
	}
	return ChatResponse{
		ID:           c.ID,
		Name:         c.Name,
		IsGroupChat:  c.IsGroupChat,
		AdminID:      c.AdminID,
		Participants: participants,
		CreatedAt:    c.CreatedAt,
	}
}
