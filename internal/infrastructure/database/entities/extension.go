package entities

import (
	"time"

	"gorm.io/datatypes"

	"jan-server/services/assistant-api/internal/domain/extension"
)

func (Extension) TableName() string {
	return "extensions"
}

type Extension struct {
	ID              uint                               `gorm:"primaryKey"`
	ConfigurationID *uint                              `gorm:"index"`
	BucketID        *uint                              `gorm:"index"`
	Name            string                             `gorm:"size:255;not null"`
	ExternalID      string                             `gorm:"size:255;index"`
	Enabled         bool                               `gorm:"not null;default:false"`
	Values          datatypes.JSONType[map[string]any] `gorm:"not null"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (e *Extension) EtoD() *extension.Extension {
	values := e.Values.Data()
	if values == nil {
		values = map[string]any{}
	}
	return &extension.Extension{
		ID:              e.ID,
		ConfigurationID: e.ConfigurationID,
		BucketID:        e.BucketID,
		Name:            e.Name,
		ExternalID:      e.ExternalID,
		Enabled:         e.Enabled,
		Values:          values,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}

func NewSchemaExtension(e *extension.Extension) *Extension {
	values := e.Values
	if values == nil {
		values = map[string]any{}
	}
	return &Extension{
		ID:              e.ID,
		ConfigurationID: e.ConfigurationID,
		BucketID:        e.BucketID,
		Name:            e.Name,
		ExternalID:      e.ExternalID,
		Enabled:         e.Enabled,
		Values:          datatypes.NewJSONType(values),
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}
