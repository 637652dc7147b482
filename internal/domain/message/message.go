package message

import (
	"context"
	"time"
)

type MessageType string

const (
	MessageTypeHuman MessageType = "human"
	MessageTypeAI    MessageType = "ai"
)

type Rating string

const (
	RatingLame Rating = "lame"
	RatingOkay Rating = "okay"
	RatingGood Rating = "good"
)

// ValidRating reports whether r is one of lame, okay or good.
func ValidRating(r Rating) bool {
	switch r {
	case RatingLame, RatingOkay, RatingGood:
		return true
	}
	return false
}

// Data is the content payload stored in the message's JSON column.
type Data struct {
	Content          string         `json:"content"`
	AdditionalKwargs map[string]any `json:"additional_kwargs,omitempty"`
}

// Message is a node in the conversation tree. ParentID is nil for the first
// message of a thread; edits create siblings under the same parent.
type Message struct {
	ID              uint
	ConversationID  uint
	ParentID        *uint
	Type            MessageType
	Data            Data
	Rating          *Rating
	RatingComment   *string
	Error           *string
	Tools           []string
	Debug           []string
	Sources         []Source
	ConfigurationID uint
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Chunk is the retrieved passage of a Source.
type Chunk struct {
	URI      string  `json:"uri,omitempty"`
	Content  string  `json:"content"`
	MimeType string  `json:"mimeType"`
	Pages    []int   `json:"pages,omitempty"`
	Score    float64 `json:"score,omitempty"`
}

// Document describes the file a chunk was retrieved from.
type Document struct {
	URI      string `json:"uri,omitempty"`
	Name     string `json:"name,omitempty"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"size,omitempty"`
	Link     string `json:"link,omitempty"`
}

// Source is a retrieval reference attached to an AI message.
type Source struct {
	Title               string         `json:"title"`
	ExtensionExternalID string         `json:"extensionExternalId"`
	Chunk               Chunk          `json:"chunk"`
	Document            Document       `json:"document"`
	Metadata            map[string]any `json:"metadata,omitempty"`
}

// MessageRepository persists messages.
type MessageRepository interface {
	Create(ctx context.Context, msg *Message) error
	FindByID(ctx context.Context, id uint) (*Message, error)
	// FindLatest returns nil without error when the conversation has no messages.
	FindLatest(ctx context.Context, conversationID uint) (*Message, error)
	// GetThread walks parent ids from leafID and returns the path root first.
	GetThread(ctx context.Context, conversationID uint, leafID uint) ([]*Message, error)
	ListByConversation(ctx context.Context, conversationID uint) ([]*Message, error)
	UpdateRating(ctx context.Context, id uint, rating Rating, comment *string) error
}
