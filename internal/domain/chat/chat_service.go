package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"jan-server/services/assistant-api/internal/domain/configuration"
	"jan-server/services/assistant-api/internal/domain/file"
	"jan-server/services/assistant-api/internal/domain/user"
	"jan-server/services/assistant-api/internal/infrastructure/metrics"
	"jan-server/services/assistant-api/internal/utils/platformerrors"
	"jan-server/services/assistant-api/pkg/telemetry"
)

// FileFinder loads attached files.
type FileFinder interface {
	FindByID(ctx context.Context, id uint) (*file.File, error)
}

// ChatRequest is one user turn in a conversation.
type ChatRequest struct {
	User           *user.User
	ConversationID uint
	Configuration  *configuration.Configuration
	Input          string
	EditMessageID  *uint
	FileIDs        []uint
}

// ChatService runs chat turns through the history middleware and the
// middlewares contributed by the configuration's extensions.
type ChatService struct {
	history    *HistoryMiddleware
	extensions MiddlewareSource
	files      FileFinder
	sanitizer  *telemetry.Sanitizer
	log        zerolog.Logger
}

func NewChatService(history *HistoryMiddleware, extensions MiddlewareSource, files FileFinder, sanitizer *telemetry.Sanitizer, log zerolog.Logger) *ChatService {
	return &ChatService{
		history:    history,
		extensions: extensions,
		files:      files,
		sanitizer:  sanitizer,
		log:        log.With().Str("component", "chat-service").Logger(),
	}
}

// Chat executes the turn and streams its events to result. The stream is
// always completed; a failure is published as an error event before completion.
func (s *ChatService) Chat(ctx context.Context, req ChatRequest, result *ResultStream) error {
	defer result.Complete()

	err := s.run(ctx, req, result)
	if err != nil {
		metrics.RecordChatTurn("error")
		result.Publish(Event{Type: EventError, Error: userMessage(err)})
		s.log.Warn().Err(err).
			Uint("conversation_id", req.ConversationID).
			Str("user_id", s.sanitizer.SanitizeUserID(req.User.ID)).
			Msg("chat turn failed")
		return err
	}

	metrics.RecordChatTurn("success")
	return nil
}

func (s *ChatService) run(ctx context.Context, req ChatRequest, result *ResultStream) error {
	if strings.TrimSpace(req.Input) == "" {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"query is required", nil, "525148cb-95f6-4276-b0ce-7f9173e8df8e")
	}
	if req.Configuration == nil {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"No model configured.", nil, "14fa1da2-9e3c-4229-8103-c98b93406b60")
	}

	if err := s.history.CheckEditedMessage(ctx, req.ConversationID, req.EditMessageID); err != nil {
		return err
	}

	files, err := s.resolveFiles(ctx, req.User, req.FileIDs)
	if err != nil {
		return err
	}

	extensionMiddlewares, err := s.extensions.Middlewares(ctx, req.User, req.Configuration.ID)
	if err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to load extensions")
	}

	chatCtx := &ChatContext{
		Input:          req.Input,
		User:           req.User,
		ConversationID: req.ConversationID,
		Configuration:  req.Configuration,
		EditMessageID:  req.EditMessageID,
		Files:          files,
		Tools:          []Tool{},
		Result:         result,
	}

	s.log.Debug().
		Uint("conversation_id", req.ConversationID).
		Uint("configuration_id", req.Configuration.ID).
		Int("middlewares", len(extensionMiddlewares)+1).
		Str("input", s.sanitizer.SanitizeText(req.Input)).
		Msg("running chat turn")

	middlewares := append([]Middleware{s.history}, extensionMiddlewares...)
	return NewPipeline(middlewares...).Run(ctx, chatCtx)
}

func (s *ChatService) resolveFiles(ctx context.Context, u *user.User, ids []uint) ([]ChatFile, error) {
	files := make([]ChatFile, 0, len(ids))
	for _, id := range ids {
		f, err := s.files.FindByID(ctx, id)
		if err != nil {
			return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "file not found")
		}
		if f.UserID != nil && !f.OwnedBy(u.ID) {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound,
				fmt.Sprintf("Cannot find a file with id %d for this user", id), nil, "71ca2a8f-516b-4a01-b343-b08ffa0f6237")
		}
		files = append(files, ChatFile{ID: f.ID, FileName: f.FileName, MimeType: f.MimeType})
	}
	return files, nil
}

func userMessage(err error) string {
	var platformErr *platformerrors.PlatformError
	if errors.As(err, &platformErr) && platformErr.Message != "" {
		return platformErr.Message
	}
	return err.Error()
}
