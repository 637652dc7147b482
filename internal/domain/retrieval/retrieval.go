// Package retrieval describes the external files API that stores, embeds and
// searches uploaded documents.
package retrieval

import (
	"context"
	"encoding/json"
	"fmt"

	"jan-server/services/assistant-api/internal/domain/message"
)

// FileType is a file format the files API can ingest.
type FileType struct {
	FileNameExtension string `json:"fileNameExtension"`
	MimeType          string `json:"mimeType"`
}

type UploadFileRequest struct {
	FileName  string
	MimeType  string
	Bucket    string
	ID        string
	IndexName string
	Content   []byte
}

type ProcessFileRequest struct {
	FileName  string
	MimeType  string
	ChunkSize int
	Content   []byte
}

type SearchRequest struct {
	Query     string
	Bucket    string
	IndexName string
	Take      int
}

type Document struct {
	Content  string `json:"content"`
	MimeType string `json:"mimeType"`
	Name     string `json:"name"`
}

// FilesAPI is a client bound to one files API endpoint.
type FilesAPI interface {
	GetFileTypes(ctx context.Context) ([]FileType, error)
	UploadFile(ctx context.Context, req UploadFileRequest) error
	ProcessFile(ctx context.Context, req ProcessFileRequest) (json.RawMessage, error)
	DeleteFile(ctx context.Context, id string) error
	GetChunks(ctx context.Context, documentURI string, chunkURIs []string) ([]string, error)
	GetDocument(ctx context.Context, uri string) (*Document, error)
	Search(ctx context.Context, req SearchRequest) ([]message.Source, error)
}

// ClientFactory builds FilesAPI clients for bucket endpoints.
type ClientFactory interface {
	ForEndpoint(endpoint string, headers map[string]string) FilesAPI
	// Forget drops anything cached for the endpoint and headers.
	Forget(endpoint string, headers map[string]string)
}

// ResponseError is returned for every non-2xx files API response.
type ResponseError struct {
	StatusCode int
	Body       string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("files api responded with status %d: %s", e.StatusCode, e.Body)
}
