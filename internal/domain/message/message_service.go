package message

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"jan-server/services/assistant-api/internal/domain/conversation"
	"jan-server/services/assistant-api/internal/domain/user"
	"jan-server/services/assistant-api/internal/utils/platformerrors"
)

// ConversationFinder loads an owned conversation.
type ConversationFinder interface {
	GetConversation(ctx context.Context, u *user.User, id uint) (*conversation.Conversation, error)
}

// MessageService serves the message history of conversations.
type MessageService struct {
	repo          MessageRepository
	conversations ConversationFinder
	log           zerolog.Logger
}

func NewMessageService(repo MessageRepository, conversations ConversationFinder, log zerolog.Logger) *MessageService {
	return &MessageService{
		repo:          repo,
		conversations: conversations,
		log:           log.With().Str("component", "message-service").Logger(),
	}
}

// GetHistory returns all messages of the conversation ordered by id so clients can rebuild the tree.
func (s *MessageService) GetHistory(ctx context.Context, u *user.User, conversationID uint) ([]*Message, error) {
	if _, err := s.conversations.GetConversation(ctx, u, conversationID); err != nil {
		return nil, err
	}
	messages, err := s.repo.ListByConversation(ctx, conversationID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to load messages")
	}
	return messages, nil
}

// GetMessageThread returns the path from the root to leafID.
func (s *MessageService) GetMessageThread(ctx context.Context, conversationID uint, leafID uint) ([]*Message, error) {
	thread, err := s.repo.GetThread(ctx, conversationID, leafID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to load message thread")
	}
	return thread, nil
}

// RateMessage stores a rating on a message of an owned conversation.
func (s *MessageService) RateMessage(ctx context.Context, u *user.User, conversationID uint, messageID uint, rating Rating, comment *string) (*Message, error) {
	if !ValidRating(rating) {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"rating must be one of lame, okay, good", nil, "cb1b83ee-6835-4ed7-93e5-6b177230c2e9")
	}
	if _, err := s.conversations.GetConversation(ctx, u, conversationID); err != nil {
		return nil, err
	}

	msg, err := s.repo.FindByID(ctx, messageID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "message not found")
	}
	if msg.ConversationID != conversationID {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound,
			fmt.Sprintf("Cannot find a message with id %d for this user", messageID), nil, "9170753a-23d1-458d-9e2f-8d01c4dd796e")
	}

	if err := s.repo.UpdateRating(ctx, messageID, rating, comment); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to rate message")
	}
	msg.Rating = &rating
	msg.RatingComment = comment
	return msg, nil
}
