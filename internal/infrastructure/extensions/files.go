package extensions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"jan-server/services/assistant-api/internal/domain/bucket"
	"jan-server/services/assistant-api/internal/domain/chat"
	"jan-server/services/assistant-api/internal/domain/extension"
	"jan-server/services/assistant-api/internal/domain/message"
	"jan-server/services/assistant-api/internal/domain/retrieval"
	"jan-server/services/assistant-api/internal/domain/user"
)

const (
	FilesKindName    = "files"
	defaultFilesTake = 20
)

// BucketFinder loads the bucket backing a files extension.
type BucketFinder interface {
	GetBucket(ctx context.Context, id uint) (*bucket.Bucket, error)
}

// FilesKind searches the documents of a bucket.
type FilesKind struct {
	buckets BucketFinder
	clients retrieval.ClientFactory
}

var (
	_ extension.Kind          = (*FilesKind)(nil)
	_ extension.ChunkProvider = (*FilesKind)(nil)
)

func NewFilesKind(buckets BucketFinder, clients retrieval.ClientFactory) *FilesKind {
	return &FilesKind{buckets: buckets, clients: clients}
}

func (k *FilesKind) Spec() extension.Spec {
	return extension.Spec{
		Name:           FilesKindName,
		Title:          "Files",
		Description:    "Searches the documents uploaded to a bucket.",
		Type:           extension.ExtensionTypeTool,
		RequiresBucket: true,
		Arguments: map[string]extension.ArgumentSpec{
			"description": {
				Type:        "string",
				Title:       "Description",
				Description: "Tells the model which documents the bucket contains.",
			},
			"take": {
				Type:        "number",
				Title:       "Results",
				Description: "Number of passages returned per search.",
				Default:     defaultFilesTake,
			},
		},
	}
}

// Test checks that the files API of the bucket in values["bucketId"] answers.
// Without a bucket there is nothing to reach yet.
func (k *FilesKind) Test(ctx context.Context, values map[string]any) error {
	bucketID := uint(floatValue(values, "bucketId", 0))
	if bucketID == 0 {
		return nil
	}
	api, _, err := k.client(ctx, &bucketID)
	if err != nil {
		return err
	}
	_, err = api.GetFileTypes(ctx)
	return err
}

func (k *FilesKind) Middlewares(ctx context.Context, u *user.User, ext *extension.Extension) ([]chat.Middleware, error) {
	if ext.BucketID == nil {
		return nil, errors.New("files extension has no bucket")
	}
	tool := &filesTool{
		kind:        k,
		ext:         ext,
		name:        fmt.Sprintf("files_%d", ext.ID),
		description: stringValue(ext.Values, "description"),
		take:        int(floatValue(ext.Values, "take", defaultFilesTake)),
	}
	return []chat.Middleware{&toolMiddleware{tools: []chat.Tool{tool}}}, nil
}

func (k *FilesKind) GetChunks(ctx context.Context, ext *extension.Extension, documentURI string, chunkURIs []string) ([]string, error) {
	api, _, err := k.client(ctx, ext.BucketID)
	if err != nil {
		return nil, err
	}
	return api.GetChunks(ctx, documentURI, chunkURIs)
}

func (k *FilesKind) client(ctx context.Context, bucketID *uint) (retrieval.FilesAPI, *bucket.Bucket, error) {
	if bucketID == nil {
		return nil, nil, errors.New("files extension has no bucket")
	}
	b, err := k.buckets.GetBucket(ctx, *bucketID)
	if err != nil {
		return nil, nil, err
	}
	return k.clients.ForEndpoint(b.Endpoint, b.Headers), b, nil
}

type filesTool struct {
	kind        *FilesKind
	ext         *extension.Extension
	name        string
	description string
	take        int
}

type filesToolArguments struct {
	Query string `json:"query" jsonschema:"description=The search query"`
}

var filesToolParameters = reflectToolParameters(&filesToolArguments{})

type filesToolResult struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (t *filesTool) Name() string {
	return t.name
}

func (t *filesTool) DisplayName() string {
	return "Files"
}

func (t *filesTool) Description() string {
	if t.description != "" {
		return t.description
	}
	return "Searches the uploaded documents and returns relevant passages for the query."
}

func (t *filesTool) Parameters() json.RawMessage {
	return filesToolParameters
}

func (t *filesTool) ReturnDirect() bool {
	return false
}

func (t *filesTool) Invoke(ctx context.Context, chatCtx *chat.ChatContext, arguments json.RawMessage) (string, error) {
	var args filesToolArguments
	if err := json.Unmarshal(arguments, &args); err != nil {
		return "", fmt.Errorf("invalid tool arguments: %w", err)
	}
	if strings.TrimSpace(args.Query) == "" {
		return "", errors.New("query is required")
	}

	api, b, err := t.kind.client(ctx, t.ext.BucketID)
	if err != nil {
		return "", err
	}

	userID := ""
	if chatCtx.User != nil {
		userID = chatCtx.User.ID
	}
	sources, err := api.Search(ctx, retrieval.SearchRequest{
		Query:     args.Query,
		Bucket:    b.Path(userID, chatCtx.ConversationID),
		IndexName: b.IndexName,
		Take:      t.take,
	})
	if err != nil {
		return "", err
	}

	if chatCtx.History != nil {
		chatCtx.History.AddSources(t.ext.ExternalID, sources)
	}
	return formatSources(sources)
}

func formatSources(sources []message.Source) (string, error) {
	results := make([]filesToolResult, 0, len(sources))
	for _, source := range sources {
		results = append(results, filesToolResult{Title: source.Title, Content: source.Chunk.Content})
	}
	out, err := json.Marshal(results)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
