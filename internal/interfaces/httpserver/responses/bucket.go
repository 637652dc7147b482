package responses

import (
	"time"

	"jan-server/services/assistant-api/internal/domain/bucket"
	"jan-server/services/assistant-api/internal/domain/file"
)

type BucketResponse struct {
	ID                        uint               `json:"id"`
	Name                      string             `json:"name"`
	Endpoint                  string             `json:"endpoint"`
	IndexName                 string             `json:"indexName"`
	Headers                   map[string]string  `json:"headers"`
	IsDefault                 bool               `json:"isDefault"`
	PerUserQuota              int                `json:"perUserQuota"`
	AllowedFileNameExtensions []string           `json:"allowedFileNameExtensions"`
	FileSizeLimits            map[string]float64 `json:"fileSizeLimits"`
	Type                      string             `json:"type"`
	CreatedAt                 time.Time          `json:"createdAt"`
	UpdatedAt                 time.Time          `json:"updatedAt"`
}

func NewBucketResponse(b *bucket.Bucket) BucketResponse {
	return BucketResponse{
		ID:                        b.ID,
		Name:                      b.Name,
		Endpoint:                  b.Endpoint,
		IndexName:                 b.IndexName,
		Headers:                   b.Headers,
		IsDefault:                 b.IsDefault,
		PerUserQuota:              b.PerUserQuota,
		AllowedFileNameExtensions: b.AllowedFileNameExtensions,
		FileSizeLimits:            b.FileSizeLimits,
		Type:                      string(b.Type),
		CreatedAt:                 b.CreatedAt,
		UpdatedAt:                 b.UpdatedAt,
	}
}

type FileResponse struct {
	ID           uint      `json:"id"`
	FileName     string    `json:"fileName"`
	MimeType     string    `json:"mimeType"`
	FileSize     int64     `json:"fileSize"`
	BucketID     *uint     `json:"bucketId,omitempty"`
	UploadStatus string    `json:"uploadStatus"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func NewFileResponse(f *file.File) FileResponse {
	return FileResponse{
		ID:           f.ID,
		FileName:     f.FileName,
		MimeType:     f.MimeType,
		FileSize:     f.FileSize,
		BucketID:     f.BucketID,
		UploadStatus: string(f.UploadStatus),
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
	}
}
