package conversation

import (
	"context"
	"time"

	"jan-server/services/assistant-api/internal/domain/query"
)

// Conversation is a chat thread owned by one user and bound to one assistant configuration.
type Conversation struct {
	ID                uint
	UserID            string
	ConfigurationID   uint
	Name              string
	IsNameSetManually bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ConversationRepository persists conversations. Delete removes the
// conversation's messages and file links with it.
type ConversationRepository interface {
	Create(ctx context.Context, conv *Conversation) error
	Update(ctx context.Context, conv *Conversation) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*Conversation, error)
	FindByUserID(ctx context.Context, userID string, pagination query.Pagination) ([]*Conversation, error)
	CountByUserID(ctx context.Context, userID string) (int64, error)
}
