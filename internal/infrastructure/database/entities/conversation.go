package entities

import (
	"time"

	"jan-server/services/assistant-api/internal/domain/conversation"
)

func (Conversation) TableName() string {
	return "conversations"
}

type Conversation struct {
	ID                uint   `gorm:"primaryKey"`
	UserID            string `gorm:"size:255;not null;index:idx_conversations_user"`
	ConfigurationID   uint   `gorm:"not null;index"`
	Name              string `gorm:"size:255;not null"`
	IsNameSetManually bool   `gorm:"not null;default:false"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// EtoD converts the row to the domain conversation.
func (c *Conversation) EtoD() *conversation.Conversation {
	return &conversation.Conversation{
		ID:                c.ID,
		UserID:            c.UserID,
		ConfigurationID:   c.ConfigurationID,
		Name:              c.Name,
		IsNameSetManually: c.IsNameSetManually,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
}

func NewSchemaConversation(c *conversation.Conversation) *Conversation {
	return &Conversation{
		ID:                c.ID,
		UserID:            c.UserID,
		ConfigurationID:   c.ConfigurationID,
		Name:              c.Name,
		IsNameSetManually: c.IsNameSetManually,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
}
