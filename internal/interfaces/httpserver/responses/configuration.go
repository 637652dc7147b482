package responses

import (
	"time"

	"jan-server/services/assistant-api/internal/domain/configuration"
	"jan-server/services/assistant-api/internal/domain/extension"
)

type ConfigurationResponse struct {
	ID           uint      `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Enabled      bool      `json:"enabled"`
	UserGroupIDs []string  `json:"userGroupIds"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func NewConfigurationResponse(c *configuration.Configuration) ConfigurationResponse {
	groups := c.UserGroupIDs
	if groups == nil {
		groups = []string{}
	}
	return ConfigurationResponse{
		ID:           c.ID,
		Name:         c.Name,
		Description:  c.Description,
		Enabled:      c.Enabled,
		UserGroupIDs: groups,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

type ExtensionResponse struct {
	ID              uint           `json:"id"`
	ConfigurationID *uint          `json:"configurationId,omitempty"`
	BucketID        *uint          `json:"bucketId,omitempty"`
	Name            string         `json:"name"`
	ExternalID      string         `json:"externalId"`
	Enabled         bool           `json:"enabled"`
	Values          map[string]any `json:"values"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

// NewExtensionResponse renders ext with values that are already masked.
func NewExtensionResponse(ext *extension.Extension, maskedValues map[string]any) ExtensionResponse {
	if maskedValues == nil {
		maskedValues = map[string]any{}
	}
	return ExtensionResponse{
		ID:              ext.ID,
		ConfigurationID: ext.ConfigurationID,
		BucketID:        ext.BucketID,
		Name:            ext.Name,
		ExternalID:      ext.ExternalID,
		Enabled:         ext.Enabled,
		Values:          maskedValues,
		CreatedAt:       ext.CreatedAt,
		UpdatedAt:       ext.UpdatedAt,
	}
}
