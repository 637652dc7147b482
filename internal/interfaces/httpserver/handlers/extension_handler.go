package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"jan-server/services/assistant-api/internal/domain/extension"
	"jan-server/services/assistant-api/internal/interfaces/httpserver/requests"
	"jan-server/services/assistant-api/internal/interfaces/httpserver/responses"
)

// ExtensionHandler manages the extensions of a configuration. Secret values
// are masked in every response.
type ExtensionHandler struct {
	service *extension.ExtensionService
	log     zerolog.Logger
}

func NewExtensionHandler(service *extension.ExtensionService, log zerolog.Logger) *ExtensionHandler {
	return &ExtensionHandler{
		service: service,
		log:     log.With().Str("component", "extension-handler").Logger(),
	}
}

func (h *ExtensionHandler) List(c *gin.Context) {
	configurationID, err := requests.GetUintParam(c, "configurationId")
	if err != nil {
		responses.HandleError(c, err, "invalid configuration id")
		return
	}

	exts, err := h.service.GetExtensions(c.Request.Context(), configurationID)
	if err != nil {
		responses.HandleError(c, err, "failed to list extensions")
		return
	}
	items := make([]responses.ExtensionResponse, 0, len(exts))
	for _, ext := range exts {
		items = append(items, h.render(ext))
	}
	c.JSON(http.StatusOK, responses.NewListResponse(items))
}

func (h *ExtensionHandler) Create(c *gin.Context) {
	configurationID, err := requests.GetUintParam(c, "configurationId")
	if err != nil {
		responses.HandleError(c, err, "invalid configuration id")
		return
	}
	var req requests.ExtensionRequest
	if !bindJSON(c, &req) {
		return
	}

	ext, err := h.service.CreateExtension(c.Request.Context(), configurationID, extensionInput(req))
	if err != nil {
		responses.HandleError(c, err, "failed to create extension")
		return
	}
	c.JSON(http.StatusCreated, h.render(ext))
}

func (h *ExtensionHandler) Update(c *gin.Context) {
	configurationID, err := requests.GetUintParam(c, "configurationId")
	if err != nil {
		responses.HandleError(c, err, "invalid configuration id")
		return
	}
	id, err := requests.GetUintParam(c, "extensionId")
	if err != nil {
		responses.HandleError(c, err, "invalid extension id")
		return
	}
	var req requests.ExtensionRequest
	if !bindJSON(c, &req) {
		return
	}

	ext, err := h.service.UpdateExtension(c.Request.Context(), configurationID, id, extensionInput(req))
	if err != nil {
		responses.HandleError(c, err, "failed to update extension")
		return
	}
	c.JSON(http.StatusOK, h.render(ext))
}

func (h *ExtensionHandler) Delete(c *gin.Context) {
	configurationID, err := requests.GetUintParam(c, "configurationId")
	if err != nil {
		responses.HandleError(c, err, "invalid configuration id")
		return
	}
	id, err := requests.GetUintParam(c, "extensionId")
	if err != nil {
		responses.HandleError(c, err, "invalid extension id")
		return
	}

	if err := h.service.DeleteExtension(c.Request.Context(), configurationID, id); err != nil {
		responses.HandleError(c, err, "failed to delete extension")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ExtensionHandler) Specs(c *gin.Context) {
	c.JSON(http.StatusOK, responses.NewListResponse(h.service.GetExtensionSpecs()))
}

// Test runs the kind's check on unsaved values. The bucket id is passed to
// the kind as the "bucketId" value.
func (h *ExtensionHandler) Test(c *gin.Context) {
	var req requests.TestExtensionRequest
	if !bindJSON(c, &req) {
		return
	}

	values := make(map[string]any, len(req.Values)+1)
	for key, value := range req.Values {
		values[key] = value
	}
	if req.BucketID != nil {
		values["bucketId"] = *req.BucketID
	}

	if err := h.service.TestExtension(c.Request.Context(), req.Name, values); err != nil {
		responses.HandleError(c, err, "extension test failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *ExtensionHandler) render(ext *extension.Extension) responses.ExtensionResponse {
	return responses.NewExtensionResponse(ext, h.service.MaskSecrets(ext))
}

func extensionInput(req requests.ExtensionRequest) extension.CreateExtensionInput {
	return extension.CreateExtensionInput{
		Name:     req.Name,
		Values:   req.Values,
		Enabled:  req.Enabled,
		BucketID: req.BucketID,
	}
}
