package entities

import (
	"time"

	"gorm.io/datatypes"

	"jan-server/services/assistant-api/internal/domain/configuration"
)

func (Configuration) TableName() string {
	return "configurations"
}

type Configuration struct {
	ID           uint                         `gorm:"primaryKey"`
	Name         string                       `gorm:"size:255;not null"`
	Description  string                       `gorm:"type:text"`
	Enabled      bool                         `gorm:"not null;default:false"`
	UserGroupIDs datatypes.JSONType[[]string] `gorm:"not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (c *Configuration) EtoD() *configuration.Configuration {
	return &configuration.Configuration{
		ID:           c.ID,
		Name:         c.Name,
		Description:  c.Description,
		Enabled:      c.Enabled,
		UserGroupIDs: nonNil(c.UserGroupIDs.Data()),
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

func NewSchemaConfiguration(c *configuration.Configuration) *Configuration {
	return &Configuration{
		ID:           c.ID,
		Name:         c.Name,
		Description:  c.Description,
		Enabled:      c.Enabled,
		UserGroupIDs: datatypes.NewJSONType(nonNil(c.UserGroupIDs)),
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}
