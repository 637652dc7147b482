package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"jan-server/services/assistant-api/internal/domain/conversation"
	"jan-server/services/assistant-api/internal/utils/functional"
	"jan-server/services/assistant-api/internal/interfaces/httpserver/requests"
	"jan-server/services/assistant-api/internal/interfaces/httpserver/responses"
)

// ConversationHandler exposes the conversations of the current user.
type ConversationHandler struct {
	service *conversation.ConversationService
	log     zerolog.Logger
}

func NewConversationHandler(service *conversation.ConversationService, log zerolog.Logger) *ConversationHandler {
	return &ConversationHandler{
		service: service,
		log:     log.With().Str("component", "conversation-handler").Logger(),
	}
}

func (h *ConversationHandler) List(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}
	pagination, err := requests.GetPaginationFromQuery(c)
	if err != nil {
		responses.HandleError(c, err, "invalid pagination")
		return
	}

	items, total, err := h.service.GetConversations(c.Request.Context(), u, pagination)
	if err != nil {
		responses.HandleError(c, err, "failed to list conversations")
		return
	}
	c.JSON(http.StatusOK, responses.NewPageResponse(functional.Map(items, responses.NewConversationResponse), total))
}

func (h *ConversationHandler) Create(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}
	var req requests.CreateConversationRequest
	if !bindJSON(c, &req) {
		return
	}

	conv, err := h.service.CreateConversation(c.Request.Context(), u, req.ConfigurationID, req.Name)
	if err != nil {
		responses.HandleError(c, err, "failed to create conversation")
		return
	}
	c.JSON(http.StatusCreated, responses.NewConversationResponse(conv))
}

func (h *ConversationHandler) Get(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}
	id, err := requests.GetUintParam(c, "id")
	if err != nil {
		responses.HandleError(c, err, "invalid conversation id")
		return
	}

	conv, err := h.service.GetConversation(c.Request.Context(), u, id)
	if err != nil {
		responses.HandleError(c, err, "conversation not found")
		return
	}
	c.JSON(http.StatusOK, responses.NewConversationResponse(conv))
}

func (h *ConversationHandler) Rename(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}
	id, err := requests.GetUintParam(c, "id")
	if err != nil {
		responses.HandleError(c, err, "invalid conversation id")
		return
	}
	var req requests.UpdateConversationRequest
	if !bindJSON(c, &req) {
		return
	}

	conv, err := h.service.UpdateConversation(c.Request.Context(), u, id, req.Name)
	if err != nil {
		responses.HandleError(c, err, "failed to rename conversation")
		return
	}
	c.JSON(http.StatusOK, responses.NewConversationResponse(conv))
}

func (h *ConversationHandler) Delete(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}
	id, err := requests.GetUintParam(c, "id")
	if err != nil {
		responses.HandleError(c, err, "invalid conversation id")
		return
	}

	if err := h.service.DeleteConversation(c.Request.Context(), u, id); err != nil {
		responses.HandleError(c, err, "failed to delete conversation")
		return
	}
	c.Status(http.StatusNoContent)
}
