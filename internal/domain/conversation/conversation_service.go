package conversation

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"jan-server/services/assistant-api/internal/domain/query"
	"jan-server/services/assistant-api/internal/domain/user"
	"jan-server/services/assistant-api/internal/utils/platformerrors"
)

const maxNameLength = 255

// ConversationService handles business logic for conversations
type ConversationService struct {
	repo ConversationRepository
	log  zerolog.Logger
}

// NewConversationService creates a new conversation service
func NewConversationService(repo ConversationRepository, log zerolog.Logger) *ConversationService {
	return &ConversationService{
		repo: repo,
		log:  log.With().Str("component", "conversation-service").Logger(),
	}
}

// CreateConversation creates a conversation for the user. An empty name is
// replaced by a placeholder and can later be set by the client.
func (s *ConversationService) CreateConversation(ctx context.Context, u *user.User, configurationID uint, name string) (*Conversation, error) {
	name = strings.TrimSpace(name)
	if len(name) > maxNameLength {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			fmt.Sprintf("name must be at most %d characters", maxNameLength), nil, "ab338d28-f52a-46df-8e7f-55754751017b")
	}
	if configurationID == 0 {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"configurationId is required", nil, "8d4ff886-dede-4cd1-aa95-b6f84c30f7b6")
	}

	conv := &Conversation{
		UserID:            u.ID,
		ConfigurationID:   configurationID,
		Name:              name,
		IsNameSetManually: name != "",
	}
	if conv.Name == "" {
		conv.Name = "New conversation"
	}

	if err := s.repo.Create(ctx, conv); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to create conversation")
	}
	return conv, nil
}

// GetConversations returns the user's conversations, newest first.
func (s *ConversationService) GetConversations(ctx context.Context, u *user.User, pagination query.Pagination) ([]*Conversation, int64, error) {
	conversations, err := s.repo.FindByUserID(ctx, u.ID, pagination)
	if err != nil {
		return nil, 0, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to list conversations")
	}
	total, err := s.repo.CountByUserID(ctx, u.ID)
	if err != nil {
		return nil, 0, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to count conversations")
	}
	return conversations, total, nil
}

// GetConversation retrieves a conversation and validates ownership
func (s *ConversationService) GetConversation(ctx context.Context, u *user.User, id uint) (*Conversation, error) {
	conv, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "conversation not found")
	}
	if u == nil || conv.UserID != u.ID {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound,
			fmt.Sprintf("Cannot find a conversation with id %d for this user", id), nil, "69b25f65-9db2-4f7b-88d5-c187a1b8b593")
	}
	return conv, nil
}

// UpdateConversation renames the conversation and marks the name as user chosen.
func (s *ConversationService) UpdateConversation(ctx context.Context, u *user.User, id uint, name string) (*Conversation, error) {
	conv, err := s.GetConversation(ctx, u, id)
	if err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxNameLength {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"name must be between 1 and 255 characters", nil, "13a513ed-5221-467d-a929-895fd461107c")
	}

	conv.Name = name
	conv.IsNameSetManually = true
	if err := s.repo.Update(ctx, conv); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to update conversation")
	}
	return conv, nil
}

// DeleteConversation deletes the conversation together with its messages.
func (s *ConversationService) DeleteConversation(ctx context.Context, u *user.User, id uint) error {
	if _, err := s.GetConversation(ctx, u, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to delete conversation")
	}
	s.log.Debug().Uint("conversation_id", id).Msg("conversation deleted")
	return nil
}
