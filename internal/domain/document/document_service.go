package document

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"jan-server/services/assistant-api/internal/domain/conversation"
	"jan-server/services/assistant-api/internal/domain/message"
	"jan-server/services/assistant-api/internal/domain/user"
	"jan-server/services/assistant-api/internal/utils/platformerrors"
)

type MessageFinder interface {
	FindByID(ctx context.Context, id uint) (*message.Message, error)
}

type ConversationFinder interface {
	FindByID(ctx context.Context, id uint) (*conversation.Conversation, error)
}

// ChunkResolver loads chunk contents through the extension with the given
// external id. ok is false when no such extension can provide chunks.
type ChunkResolver interface {
	GetChunks(ctx context.Context, externalID, documentURI string, chunkURIs []string) (chunks []string, ok bool, err error)
}

// DocumentService returns the cited content of a document referenced by a message.
type DocumentService struct {
	messages      MessageFinder
	conversations ConversationFinder
	chunks        ChunkResolver
	log           zerolog.Logger
}

func NewDocumentService(messages MessageFinder, conversations ConversationFinder, chunks ChunkResolver, log zerolog.Logger) *DocumentService {
	return &DocumentService{
		messages:      messages,
		conversations: conversations,
		chunks:        chunks,
		log:           log.With().Str("component", "document-service").Logger(),
	}
}

// GetDocumentContent returns the chunk contents of documentURI cited by the message.
func (s *DocumentService) GetDocumentContent(ctx context.Context, u *user.User, conversationID uint, messageID uint, documentURI string) ([]string, error) {
	msg, err := s.loadOwnedMessage(ctx, u, messageID)
	if err != nil {
		return nil, err
	}

	var references []message.Source
	for _, source := range msg.Sources {
		if source.Document.URI == documentURI {
			references = append(references, source)
		}
	}
	if len(references) == 0 {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound,
			fmt.Sprintf("Cannot find a document with uri %s for this user", documentURI), nil, "eff2132b-dfdc-424a-bd9f-0978c799af64")
	}

	return s.fetchContent(ctx, conversationID, documentURI, references)
}

func (s *DocumentService) loadOwnedMessage(ctx context.Context, u *user.User, messageID uint) (*message.Message, error) {
	notFound := func(err error) error {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound,
			fmt.Sprintf("Cannot find a message with id %d for this user", messageID), err, "a453e7da-ad8f-4c53-bcc8-f837a66df392")
	}

	msg, err := s.messages.FindByID(ctx, messageID)
	if err != nil {
		if platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound) {
			return nil, notFound(err)
		}
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to load message")
	}

	conv, err := s.conversations.FindByID(ctx, msg.ConversationID)
	if err != nil {
		if platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound) {
			return nil, notFound(err)
		}
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to load conversation")
	}
	if u == nil || conv.UserID != u.ID {
		return nil, notFound(nil)
	}
	return msg, nil
}

func (s *DocumentService) fetchContent(ctx context.Context, conversationID uint, documentURI string, references []message.Source) ([]string, error) {
	inline := true
	for _, ref := range references {
		if ref.Chunk.Content == "" {
			inline = false
			break
		}
	}
	if inline {
		contents := make([]string, len(references))
		for i, ref := range references {
			contents[i] = ref.Chunk.Content
		}
		return contents, nil
	}

	chunkURIs := make([]string, 0, len(references))
	for _, ref := range references {
		if ref.Chunk.URI != "" {
			chunkURIs = append(chunkURIs, ref.Chunk.URI)
		}
	}
	if len(chunkURIs) == 0 {
		return []string{}, nil
	}

	chunks, ok, err := s.chunks.GetChunks(ctx, references[0].ExtensionExternalID, documentURI, chunkURIs)
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeExternal,
			"failed to load document chunks", err, "969ec5c5-069d-4961-8e87-5eac4439f7ea")
	}
	if !ok || chunks == nil {
		s.log.Debug().
			Uint("conversation_id", conversationID).
			Str("extension", references[0].ExtensionExternalID).
			Msg("no chunk provider for document")
		return []string{}, nil
	}
	return chunks, nil
}
