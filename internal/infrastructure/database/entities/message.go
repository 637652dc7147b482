package entities

import (
	"time"

	"gorm.io/datatypes"

	"jan-server/services/assistant-api/internal/domain/message"
)

func (Message) TableName() string {
	return "messages"
}

// Message rows form a tree per conversation through ParentID.
type Message struct {
	ID              uint                                 `gorm:"primaryKey"`
	ConversationID  uint                                 `gorm:"not null;index:idx_messages_conversation"`
	ParentID        *uint                                `gorm:"index"`
	Type            string                               `gorm:"size:16;not null"`
	Data            datatypes.JSONType[message.Data]     `gorm:"not null"`
	Rating          *string                              `gorm:"size:16"`
	RatingComment   *string                              `gorm:"type:text"`
	Error           *string                              `gorm:"type:text"`
	Tools           datatypes.JSONType[[]string]         `gorm:"not null"`
	Debug           datatypes.JSONType[[]string]         `gorm:"not null"`
	Sources         datatypes.JSONType[[]message.Source] `gorm:"not null"`
	ConfigurationID uint                                 `gorm:"not null;index"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (m *Message) EtoD() *message.Message {
	msg := &message.Message{
		ID:              m.ID,
		ConversationID:  m.ConversationID,
		ParentID:        m.ParentID,
		Type:            message.MessageType(m.Type),
		Data:            m.Data.Data(),
		RatingComment:   m.RatingComment,
		Error:           m.Error,
		Tools:           nonNil(m.Tools.Data()),
		Debug:           nonNil(m.Debug.Data()),
		Sources:         nonNil(m.Sources.Data()),
		ConfigurationID: m.ConfigurationID,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
	if m.Rating != nil {
		rating := message.Rating(*m.Rating)
		msg.Rating = &rating
	}
	return msg
}

func NewSchemaMessage(m *message.Message) *Message {
	row := &Message{
		ID:              m.ID,
		ConversationID:  m.ConversationID,
		ParentID:        m.ParentID,
		Type:            string(m.Type),
		Data:            datatypes.NewJSONType(m.Data),
		RatingComment:   m.RatingComment,
		Error:           m.Error,
		Tools:           datatypes.NewJSONType(nonNil(m.Tools)),
		Debug:           datatypes.NewJSONType(nonNil(m.Debug)),
		Sources:         datatypes.NewJSONType(nonNil(m.Sources)),
		ConfigurationID: m.ConfigurationID,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
	if m.Rating != nil {
		rating := string(*m.Rating)
		row.Rating = &rating
	}
	return row
}

func nonNil[T any](values []T) []T {
	if values == nil {
		return []T{}
	}
	return values
}
