package bucket

import (
	"context"
	"time"
)

type BucketType string

const (
	BucketTypeGeneral      BucketType = "general"
	BucketTypeUser         BucketType = "user"
	BucketTypeConversation BucketType = "conversation"
)

// ParseBucketType returns the type for raw and whether it is known.
func ParseBucketType(raw string) (BucketType, bool) {
	switch t := BucketType(raw); t {
	case BucketTypeGeneral, BucketTypeUser, BucketTypeConversation:
		return t, true
	}
	return "", false
}

// Bucket is a files API destination with its upload policy.
type Bucket struct {
	ID                        uint
	Name                      string
	Endpoint                  string
	IndexName                 string
	Headers                   map[string]string
	IsDefault                 bool
	PerUserQuota              int
	AllowedFileNameExtensions []string
	// FileSizeLimits maps a mime type, an extension without dot, or "general" to a limit in MB.
	FileSizeLimits map[string]float64
	Type           BucketType
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Path returns the files API bucket path for an upload or a search by userID
// in this bucket. conversationID is zero when the operation is not bound to a conversation.
func (b *Bucket) Path(userID string, conversationID uint) string {
	switch b.Type {
	case BucketTypeGeneral:
		return "general"
	case BucketTypeConversation:
		if conversationID > 0 {
			return "conversation-" + uintToString(conversationID)
		}
		return "user-" + userID
	default:
		return "user-" + userID
	}
}

// BucketRepository persists buckets.
type BucketRepository interface {
	Create(ctx context.Context, b *Bucket) error
	Update(ctx context.Context, b *Bucket) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*Bucket, error)
	FindAll(ctx context.Context) ([]*Bucket, error)
	// FindFirstByType returns nil without error when no bucket has the type.
	FindFirstByType(ctx context.Context, t BucketType) (*Bucket, error)
	// ClearDefault unsets IsDefault on every bucket except exceptID.
	ClearDefault(ctx context.Context, exceptID uint) error
}
