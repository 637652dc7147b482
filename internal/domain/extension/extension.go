package extension

import (
	"context"
	"time"

	"jan-server/services/assistant-api/internal/domain/chat"
	"jan-server/services/assistant-api/internal/domain/user"
)

type ExtensionType string

const (
	ExtensionTypeLLM  ExtensionType = "llm"
	ExtensionTypeTool ExtensionType = "tool"
)

// Extension is a configured instance of an extension kind within an assistant configuration.
type Extension struct {
	ID              uint
	ConfigurationID *uint
	BucketID        *uint
	// Name is the kind, for example "openai-model".
	Name       string
	ExternalID string
	Enabled    bool
	Values     map[string]any
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ArgumentSpec describes one configurable value of an extension kind.
type ArgumentSpec struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required,omitempty"`
	// Format "password" marks secrets that are never returned to clients.
	Format  string `json:"format,omitempty"`
	Default any    `json:"default,omitempty"`
}

type Spec struct {
	Name           string                  `json:"name"`
	Title          string                  `json:"title"`
	Description    string                  `json:"description"`
	Type           ExtensionType           `json:"type"`
	RequiresBucket bool                    `json:"requiresBucket,omitempty"`
	Arguments      map[string]ArgumentSpec `json:"arguments"`
}

// Kind implements one extension type.
type Kind interface {
	Spec() Spec
	// Test checks values without storing them, for example by calling the remote endpoint.
	Test(ctx context.Context, values map[string]any) error
	// Middlewares returns the chat middlewares contributed by ext for the user.
	Middlewares(ctx context.Context, u *user.User, ext *Extension) ([]chat.Middleware, error)
}

// ChunkProvider is implemented by kinds that can load chunk contents of the documents they cite.
type ChunkProvider interface {
	GetChunks(ctx context.Context, ext *Extension, documentURI string, chunkURIs []string) ([]string, error)
}

type ExtensionRepository interface {
	Create(ctx context.Context, ext *Extension) error
	Update(ctx context.Context, ext *Extension) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*Extension, error)
	FindByConfiguration(ctx context.Context, configurationID uint) ([]*Extension, error)
	FindByExternalID(ctx context.Context, externalID string) (*Extension, error)
	// FindByBucketID returns nil without error when no extension uses the bucket.
	FindByBucketID(ctx context.Context, bucketID uint) (*Extension, error)
}
