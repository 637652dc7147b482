package responses

import (
	"time"

	"jan-server/services/assistant-api/internal/domain/conversation"
	"jan-server/services/assistant-api/internal/domain/message"
)

type ConversationResponse struct {
	ID                uint      `json:"id"`
	ConfigurationID   uint      `json:"configurationId"`
	Name              string    `json:"name"`
	IsNameSetManually bool      `json:"isNameSetManually"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

func NewConversationResponse(c *conversation.Conversation) ConversationResponse {
	return ConversationResponse{
		ID:                c.ID,
		ConfigurationID:   c.ConfigurationID,
		Name:              c.Name,
		IsNameSetManually: c.IsNameSetManually,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
}

type MessageResponse struct {
	ID             uint             `json:"id"`
	ConversationID uint             `json:"conversationId"`
	ParentID       *uint            `json:"parentId"`
	Type           string           `json:"type"`
	Content        string           `json:"content"`
	Rating         *string          `json:"rating,omitempty"`
	RatingComment  *string          `json:"ratingComment,omitempty"`
	Error          *string          `json:"error,omitempty"`
	Tools          []string         `json:"tools,omitempty"`
	Debug          []string         `json:"debug,omitempty"`
	Sources        []message.Source `json:"sources,omitempty"`
	CreatedAt      time.Time        `json:"createdAt"`
}

func NewMessageResponse(m *message.Message) MessageResponse {
	resp := MessageResponse{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		ParentID:       m.ParentID,
		Type:           string(m.Type),
		Content:        m.Data.Content,
		RatingComment:  m.RatingComment,
		Error:          m.Error,
		Tools:          m.Tools,
		Debug:          m.Debug,
		Sources:        m.Sources,
		CreatedAt:      m.CreatedAt,
	}
	if m.Rating != nil {
		rating := string(*m.Rating)
		resp.Rating = &rating
	}
	return resp
}

// DocumentContentResponse holds the cited chunks of a document.
type DocumentContentResponse struct {
	Contents []string `json:"contents"`
}
