package entities

import (
	"time"

	"gorm.io/datatypes"

	"jan-server/services/assistant-api/internal/domain/bucket"
)

func (Bucket) TableName() string {
	return "buckets"
}

type Bucket struct {
	ID                        uint                                   `gorm:"primaryKey"`
	Name                      string                                 `gorm:"size:255;not null"`
	Endpoint                  string                                 `gorm:"size:1024;not null"`
	IndexName                 string                                 `gorm:"size:255"`
	Headers                   datatypes.JSONType[map[string]string]  `gorm:"not null"`
	IsDefault                 bool                                   `gorm:"not null;default:false"`
	PerUserQuota              int                                    `gorm:"not null;default:20"`
	AllowedFileNameExtensions datatypes.JSONType[[]string]           `gorm:"not null"`
	FileSizeLimits            datatypes.JSONType[map[string]float64] `gorm:"not null"`
	Type                      string                                 `gorm:"size:32;not null;index"`
	CreatedAt                 time.Time
	UpdatedAt                 time.Time
}

func (b *Bucket) EtoD() *bucket.Bucket {
	return &bucket.Bucket{
		ID:                        b.ID,
		Name:                      b.Name,
		Endpoint:                  b.Endpoint,
		IndexName:                 b.IndexName,
		Headers:                   b.Headers.Data(),
		IsDefault:                 b.IsDefault,
		PerUserQuota:              b.PerUserQuota,
		AllowedFileNameExtensions: nonNil(b.AllowedFileNameExtensions.Data()),
		FileSizeLimits:            b.FileSizeLimits.Data(),
		Type:                      bucket.BucketType(b.Type),
		CreatedAt:                 b.CreatedAt,
		UpdatedAt:                 b.UpdatedAt,
	}
}

func NewSchemaBucket(b *bucket.Bucket) *Bucket {
	headers := b.Headers
	if headers == nil {
		headers = map[string]string{}
	}
	limits := b.FileSizeLimits
	if limits == nil {
		limits = map[string]float64{}
	}
	return &Bucket{
		ID:                        b.ID,
		Name:                      b.Name,
		Endpoint:                  b.Endpoint,
		IndexName:                 b.IndexName,
		Headers:                   datatypes.NewJSONType(headers),
		IsDefault:                 b.IsDefault,
		PerUserQuota:              b.PerUserQuota,
		AllowedFileNameExtensions: datatypes.NewJSONType(nonNil(b.AllowedFileNameExtensions)),
		FileSizeLimits:            datatypes.NewJSONType(limits),
		Type:                      string(b.Type),
		CreatedAt:                 b.CreatedAt,
		UpdatedAt:                 b.UpdatedAt,
	}
}
