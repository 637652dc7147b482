package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"jan-server/services/assistant-api/internal/domain/chat"
	"jan-server/services/assistant-api/internal/domain/configuration"
	"jan-server/services/assistant-api/internal/domain/conversation"
	"jan-server/services/assistant-api/internal/domain/document"
	"jan-server/services/assistant-api/internal/domain/message"
	"jan-server/services/assistant-api/internal/interfaces/httpserver/middlewares"
	"jan-server/services/assistant-api/internal/interfaces/httpserver/requests"
	"jan-server/services/assistant-api/internal/interfaces/httpserver/responses"
	"jan-server/services/assistant-api/internal/utils/functional"
	"jan-server/services/assistant-api/internal/utils/platformerrors"
)

// MessageHandler serves message history, chat turns, ratings and cited documents.
type MessageHandler struct {
	messages       *message.MessageService
	chat           *chat.ChatService
	conversations  *conversation.ConversationService
	configurations *configuration.ConfigurationService
	documents      *document.DocumentService
	log            zerolog.Logger
}

func NewMessageHandler(
	messages *message.MessageService,
	chatService *chat.ChatService,
	conversations *conversation.ConversationService,
	configurations *configuration.ConfigurationService,
	documents *document.DocumentService,
	log zerolog.Logger,
) *MessageHandler {
	return &MessageHandler{
		messages:       messages,
		chat:           chatService,
		conversations:  conversations,
		configurations: configurations,
		documents:      documents,
		log:            log.With().Str("component", "message-handler").Logger(),
	}
}

func (h *MessageHandler) History(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}
	conversationID, err := requests.GetUintParam(c, "id")
	if err != nil {
		responses.HandleError(c, err, "invalid conversation id")
		return
	}

	history, err := h.messages.GetHistory(c.Request.Context(), u, conversationID)
	if err != nil {
		responses.HandleError(c, err, "failed to load messages")
		return
	}
	c.JSON(http.StatusOK, responses.NewListResponse(functional.Map(history, responses.NewMessageResponse)))
}

// Chat runs one turn and streams its events as SSE. Errors that happen before
// the stream starts are returned as JSON; later failures arrive as error events.
func (h *MessageHandler) Chat(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}
	conversationID, err := requests.GetUintParam(c, "id")
	if err != nil {
		responses.HandleError(c, err, "invalid conversation id")
		return
	}
	var req requests.ChatRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	conv, err := h.conversations.GetConversation(ctx, u, conversationID)
	if err != nil {
		responses.HandleError(c, err, "conversation not found")
		return
	}
	cfg, err := h.configurations.GetConfiguration(ctx, u, conv.ConfigurationID)
	if err != nil {
		responses.HandleError(c, err, "configuration not available")
		return
	}

	writer := middlewares.NewSSEWriter(c)
	stream := chat.NewResultStream()
	stream.Subscribe(func(e chat.Event) {
		if err := writer.Write(string(e.Type), e.Payload()); err != nil {
			h.log.Debug().Err(err).Uint("conversation_id", conv.ID).Msg("client stopped reading the stream")
		}
	})

	_ = h.chat.Chat(ctx, chat.ChatRequest{
		User:           u,
		ConversationID: conv.ID,
		Configuration:  cfg,
		Input:          req.Query,
		EditMessageID:  req.EditMessageID,
		FileIDs:        req.Files,
	}, stream)
}

func (h *MessageHandler) Rate(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}
	conversationID, err := requests.GetUintParam(c, "id")
	if err != nil {
		responses.HandleError(c, err, "invalid conversation id")
		return
	}
	messageID, err := requests.GetUintParam(c, "messageId")
	if err != nil {
		responses.HandleError(c, err, "invalid message id")
		return
	}
	var req requests.RateMessageRequest
	if !bindJSON(c, &req) {
		return
	}

	msg, err := h.messages.RateMessage(c.Request.Context(), u, conversationID, messageID, message.Rating(req.Rating), req.Comment)
	if err != nil {
		responses.HandleError(c, err, "failed to rate message")
		return
	}
	c.JSON(http.StatusOK, responses.NewMessageResponse(msg))
}

func (h *MessageHandler) DocumentContent(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}
	conversationID, err := requests.GetUintParam(c, "id")
	if err != nil {
		responses.HandleError(c, err, "invalid conversation id")
		return
	}
	messageID, err := requests.GetUintParam(c, "messageId")
	if err != nil {
		responses.HandleError(c, err, "invalid message id")
		return
	}
	uri := strings.TrimSpace(c.Query("uri"))
	if uri == "" {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "uri is required", "f1e2d3c4-b5a6-4978-8a9b-0c1d2e3f4a5b")
		return
	}

	contents, err := h.documents.GetDocumentContent(c.Request.Context(), u, conversationID, messageID, uri)
	if err != nil {
		responses.HandleError(c, err, "failed to load document")
		return
	}
	c.JSON(http.StatusOK, responses.DocumentContentResponse{Contents: contents})
}
