package entities

import (
	"time"

	"jan-server/services/assistant-api/internal/domain/file"
)

func (File) TableName() string {
	return "files"
}

type File struct {
	ID           uint    `gorm:"primaryKey"`
	MimeType     string  `gorm:"size:255"`
	FileSize     int64   `gorm:"not null;default:0"`
	FileName     string  `gorm:"size:1024;not null"`
	UserID       *string `gorm:"size:255;index:idx_files_user_bucket"`
	BucketID     *uint   `gorm:"index:idx_files_user_bucket"`
	ExtensionID  *uint
	UploadStatus string `gorm:"size:32;not null;index"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (f *File) EtoD() *file.File {
	return &file.File{
		ID:           f.ID,
		MimeType:     f.MimeType,
		FileSize:     f.FileSize,
		FileName:     f.FileName,
		UserID:       f.UserID,
		BucketID:     f.BucketID,
		ExtensionID:  f.ExtensionID,
		UploadStatus: file.UploadStatus(f.UploadStatus),
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
	}
}

func NewSchemaFile(f *file.File) *File {
	return &File{
		ID:           f.ID,
		MimeType:     f.MimeType,
		FileSize:     f.FileSize,
		FileName:     f.FileName,
		UserID:       f.UserID,
		BucketID:     f.BucketID,
		ExtensionID:  f.ExtensionID,
		UploadStatus: string(f.UploadStatus),
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
	}
}

func (Blob) TableName() string {
	return "blobs"
}

// Blob keeps a base64 payload in Buffer unless StorageKey points to offloaded data.
type Blob struct {
	ID         string  `gorm:"primaryKey;size:36"`
	FileID     uint    `gorm:"not null;index"`
	UserID     *string `gorm:"size:255"`
	Type       string  `gorm:"size:255"`
	Category   string  `gorm:"size:32;not null"`
	Buffer     string  `gorm:"type:text"`
	StorageKey *string `gorm:"size:512"`
	CreatedAt  time.Time
}

func (b *Blob) EtoD() *file.Blob {
	return &file.Blob{
		ID:         b.ID,
		FileID:     b.FileID,
		UserID:     b.UserID,
		Type:       b.Type,
		Category:   file.BlobCategory(b.Category),
		Buffer:     b.Buffer,
		StorageKey: b.StorageKey,
		CreatedAt:  b.CreatedAt,
	}
}

func NewSchemaBlob(b *file.Blob) *Blob {
	return &Blob{
		ID:         b.ID,
		FileID:     b.FileID,
		UserID:     b.UserID,
		Type:       b.Type,
		Category:   string(b.Category),
		Buffer:     b.Buffer,
		StorageKey: b.StorageKey,
		CreatedAt:  b.CreatedAt,
	}
}

func (ConversationFile) TableName() string {
	return "conversation_files"
}

type ConversationFile struct {
	ID             uint  `gorm:"primaryKey"`
	ConversationID uint  `gorm:"not null;index"`
	MessageID      *uint `gorm:"index"`
	FileID         uint  `gorm:"not null;index"`
	CreatedAt      time.Time
}

func (c *ConversationFile) EtoD() *file.ConversationFile {
	return &file.ConversationFile{
		ID:             c.ID,
		ConversationID: c.ConversationID,
		MessageID:      c.MessageID,
		FileID:         c.FileID,
		CreatedAt:      c.CreatedAt,
	}
}

func NewSchemaConversationFile(c *file.ConversationFile) *ConversationFile {
	return &ConversationFile{
		ID:             c.ID,
		ConversationID: c.ConversationID,
		MessageID:      c.MessageID,
		FileID:         c.FileID,
		CreatedAt:      c.CreatedAt,
	}
}
