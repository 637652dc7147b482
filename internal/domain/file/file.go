package file

import (
	"context"
	"time"

	"jan-server/services/assistant-api/internal/domain/query"
)

type UploadStatus string

const (
	UploadStatusInProgress UploadStatus = "inProgress"
	UploadStatusSuccessful UploadStatus = "successful"
)

type BlobCategory string

const (
	BlobCategoryOriginal  BlobCategory = "file_original"
	BlobCategoryProcessed BlobCategory = "file_processed"
)

// ProcessedMimeType is the blob type of a files API processing result.
const ProcessedMimeType = "application/reis+processed"

// EmbedType selects what the files API does with an upload.
type EmbedType string

const (
	EmbedTypeVector        EmbedType = "vector"
	EmbedTypeText          EmbedType = "text"
	EmbedTypeVectorAndText EmbedType = "vector_and_text"
	EmbedTypeNone          EmbedType = "none"
)

// ParseEmbedType returns the embed type for raw and whether it is known.
func ParseEmbedType(raw string) (EmbedType, bool) {
	switch t := EmbedType(raw); t {
	case EmbedTypeVector, EmbedTypeText, EmbedTypeVectorAndText, EmbedTypeNone:
		return t, true
	}
	return "", false
}

func (t EmbedType) embedsVector() bool {
	return t == EmbedTypeVector || t == EmbedTypeVectorAndText
}

func (t EmbedType) embedsText() bool {
	return t == EmbedTypeText || t == EmbedTypeVectorAndText
}

// File is an uploaded file. BucketID is nil for files that are not embedded.
type File struct {
	ID           uint
	MimeType     string
	FileSize     int64
	FileName     string
	UserID       *string
	BucketID     *uint
	ExtensionID  *uint
	UploadStatus UploadStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// OwnedBy reports whether userID owns the file.
func (f *File) OwnedBy(userID string) bool {
	return f.UserID != nil && *f.UserID == userID
}

// Blob is a binary payload of a file. Buffer holds base64 data unless the
// payload was offloaded, in which case StorageKey is set.
type Blob struct {
	ID         string
	FileID     uint
	UserID     *string
	Type       string
	Category   BlobCategory
	Buffer     string
	StorageKey *string
	CreatedAt  time.Time
}

// ConversationFile links a file to a conversation and, once sent, to the message it was sent with.
type ConversationFile struct {
	ID             uint
	ConversationID uint
	MessageID      *uint
	FileID         uint
	CreatedAt      time.Time
}

type FileRepository interface {
	Create(ctx context.Context, f *File) error
	Update(ctx context.Context, f *File) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*File, error)
	FindByIDAndBucket(ctx context.Context, id uint, bucketID uint) (*File, error)
	CountByUserAndBucket(ctx context.Context, userID string, bucketID uint) (int64, error)
	FindByBucket(ctx context.Context, bucketID uint, pagination query.Pagination) ([]*File, int64, error)
	FindByUserAndBucket(ctx context.Context, userID string, bucketID uint, pagination query.Pagination) ([]*File, int64, error)
	FindByIDsAndUser(ctx context.Context, ids []uint, userID string, pagination query.Pagination) ([]*File, int64, error)
	FindStaleInProgress(ctx context.Context, updatedBefore time.Time) ([]*File, error)
}

type BlobRepository interface {
	Create(ctx context.Context, b *Blob) error
	FindByFileID(ctx context.Context, fileID uint) ([]*Blob, error)
	// FindByFileAndCategory returns nil without error when no blob matches.
	FindByFileAndCategory(ctx context.Context, fileID uint, category BlobCategory) (*Blob, error)
	DeleteByFileID(ctx context.Context, fileID uint) error
}

type ConversationFileRepository interface {
	Create(ctx context.Context, cf *ConversationFile) error
	FindByConversation(ctx context.Context, conversationID uint) ([]*ConversationFile, error)
	FindByConversationAndFiles(ctx context.Context, conversationID uint, fileIDs []uint) ([]*ConversationFile, error)
	AssignMessage(ctx context.Context, ids []uint, messageID uint) error
}

// BlobStorage stores offloaded blob payloads. Put returns the key to read them back.
type BlobStorage interface {
	Name() string
	Put(ctx context.Context, fileID uint, data []byte, contentType string) (string, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// Translator renders localized user facing messages.
type Translator interface {
	Translate(ctx context.Context, key string, args map[string]string) string
}

// BucketExtensions finds the external id of the extension backed by a bucket.
type BucketExtensions interface {
	ExternalIDForBucket(ctx context.Context, bucketID uint) (string, bool, error)
}
