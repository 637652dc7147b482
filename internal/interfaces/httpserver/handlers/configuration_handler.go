package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"jan-server/services/assistant-api/internal/domain/configuration"
	"jan-server/services/assistant-api/internal/interfaces/httpserver/requests"
	"jan-server/services/assistant-api/internal/interfaces/httpserver/responses"
	"jan-server/services/assistant-api/internal/utils/functional"
)

// ConfigurationHandler manages assistant configurations.
type ConfigurationHandler struct {
	service *configuration.ConfigurationService
	log     zerolog.Logger
}

func NewConfigurationHandler(service *configuration.ConfigurationService, log zerolog.Logger) *ConfigurationHandler {
	return &ConfigurationHandler{
		service: service,
		log:     log.With().Str("component", "configuration-handler").Logger(),
	}
}

// List returns the configurations visible to the user. enabled=true hides
// disabled ones for admins too.
func (h *ConfigurationHandler) List(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}

	items, err := h.service.GetConfigurations(c.Request.Context(), u, c.Query("enabled") == "true")
	if err != nil {
		responses.HandleError(c, err, "failed to list configurations")
		return
	}
	c.JSON(http.StatusOK, responses.NewListResponse(functional.Map(items, responses.NewConfigurationResponse)))
}

func (h *ConfigurationHandler) Create(c *gin.Context) {
	var req requests.ConfigurationRequest
	if !bindJSON(c, &req) {
		return
	}

	cfg, err := h.service.CreateConfiguration(c.Request.Context(), configurationFromRequest(req))
	if err != nil {
		responses.HandleError(c, err, "failed to create configuration")
		return
	}
	c.JSON(http.StatusCreated, responses.NewConfigurationResponse(cfg))
}

func (h *ConfigurationHandler) Get(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}
	id, err := requests.GetUintParam(c, "configurationId")
	if err != nil {
		responses.HandleError(c, err, "invalid configuration id")
		return
	}

	cfg, err := h.service.GetConfiguration(c.Request.Context(), u, id)
	if err != nil {
		responses.HandleError(c, err, "configuration not found")
		return
	}
	c.JSON(http.StatusOK, responses.NewConfigurationResponse(cfg))
}

func (h *ConfigurationHandler) Update(c *gin.Context) {
	id, err := requests.GetUintParam(c, "configurationId")
	if err != nil {
		responses.HandleError(c, err, "invalid configuration id")
		return
	}
	var req requests.ConfigurationRequest
	if !bindJSON(c, &req) {
		return
	}

	cfg, err := h.service.UpdateConfiguration(c.Request.Context(), id, configurationFromRequest(req))
	if err != nil {
		responses.HandleError(c, err, "failed to update configuration")
		return
	}
	c.JSON(http.StatusOK, responses.NewConfigurationResponse(cfg))
}

func (h *ConfigurationHandler) Delete(c *gin.Context) {
	id, err := requests.GetUintParam(c, "configurationId")
	if err != nil {
		responses.HandleError(c, err, "invalid configuration id")
		return
	}

	if err := h.service.DeleteConfiguration(c.Request.Context(), id); err != nil {
		responses.HandleError(c, err, "failed to delete configuration")
		return
	}
	c.Status(http.StatusNoContent)
}

func configurationFromRequest(req requests.ConfigurationRequest) *configuration.Configuration {
	return &configuration.Configuration{
		Name:         req.Name,
		Description:  req.Description,
		Enabled:      req.Enabled,
		UserGroupIDs: req.UserGroupIDs,
	}
}
