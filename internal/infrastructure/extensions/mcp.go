package extensions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"jan-server/services/assistant-api/internal/domain/chat"
	"jan-server/services/assistant-api/internal/domain/extension"
	"jan-server/services/assistant-api/internal/domain/message"
	"jan-server/services/assistant-api/internal/domain/user"
)

const MCPKindName = "mcp-tools"

// MCPKind offers the tools of a remote MCP server to the model.
type MCPKind struct {
	timeout time.Duration
	log     zerolog.Logger
}

var _ extension.Kind = (*MCPKind)(nil)

// NewMCPKind creates the kind. timeout bounds listing and calling tools.
func NewMCPKind(timeout time.Duration, log zerolog.Logger) *MCPKind {
	return &MCPKind{
		timeout: timeout,
		log:     log.With().Str("component", "mcp-extension").Logger(),
	}
}

func (k *MCPKind) Spec() extension.Spec {
	return extension.Spec{
		Name:        MCPKindName,
		Title:       "MCP Tools",
		Description: "Offers the tools of an MCP server reachable over streamable HTTP.",
		Type:        extension.ExtensionTypeTool,
		Arguments: map[string]extension.ArgumentSpec{
			"endpoint": {
				Type:     "string",
				Title:    "Endpoint",
				Required: true,
			},
			"apiKey": {
				Type:        "string",
				Title:       "API Key",
				Description: "Sent as bearer token.",
				Format:      "password",
			},
		},
	}
}

// Test connects and lists the tools of the server.
func (k *MCPKind) Test(ctx context.Context, values map[string]any) error {
	session, err := k.connect(ctx, stringValue(values, "endpoint"), stringValue(values, "apiKey"))
	if err != nil {
		return err
	}
	defer session.Close()

	listCtx, cancel := k.withTimeout(ctx)
	defer cancel()
	for _, err := range session.Tools(listCtx, nil) {
		if err != nil {
			return fmt.Errorf("failed to list MCP tools: %w", err)
		}
	}
	return nil
}

func (k *MCPKind) Middlewares(ctx context.Context, u *user.User, ext *extension.Extension) ([]chat.Middleware, error) {
	endpoint := stringValue(ext.Values, "endpoint")
	if endpoint == "" {
		return nil, errors.New("mcp extension has no endpoint")
	}
	return []chat.Middleware{&mcpMiddleware{
		kind:     k,
		ext:      ext,
		endpoint: endpoint,
		apiKey:   stringValue(ext.Values, "apiKey"),
	}}, nil
}

func (k *MCPKind) connect(ctx context.Context, endpoint, apiKey string) (*mcp.ClientSession, error) {
	if endpoint == "" {
		return nil, errors.New("endpoint is required")
	}

	headers := map[string]string{}
	if apiKey != "" {
		headers["Authorization"] = "Bearer " + apiKey
	}
	transport := &mcp.StreamableClientTransport{
		Endpoint:   endpoint,
		HTTPClient: &http.Client{Transport: &headerTransport{base: http.DefaultTransport, headers: headers}},
		MaxRetries: -1,
	}

	// The session lives as long as ctx, so no call timeout is applied here.
	client := mcp.NewClient(&mcp.Implementation{Name: "assistant-api", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MCP server %s: %w", endpoint, err)
	}
	return session, nil
}

func (k *MCPKind) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if k.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, k.timeout)
}

// headerTransport adds fixed headers to every request of the MCP session.
type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t *headerTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	if len(t.headers) > 0 {
		r = r.Clone(r.Context())
		for name, value := range t.headers {
			r.Header.Set(name, value)
		}
	}
	return t.base.RoundTrip(r)
}

// mcpMiddleware holds one MCP session for the rest of the chain.
type mcpMiddleware struct {
	kind     *MCPKind
	ext      *extension.Extension
	endpoint string
	apiKey   string
}

func (m *mcpMiddleware) Order() int {
	return toolOrder
}

// Invoke lists the server tools and keeps the session open until the model
// middleware returns. An unreachable server leaves the turn without its tools.
func (m *mcpMiddleware) Invoke(ctx context.Context, chatCtx *chat.ChatContext, next chat.Next) error {
	session, err := m.kind.connect(ctx, m.endpoint, m.apiKey)
	if err != nil {
		m.kind.log.Warn().Err(err).Str("extension", m.ext.ExternalID).Msg("MCP server unavailable")
		return next(ctx, chatCtx)
	}
	defer session.Close()

	listCtx, cancel := m.kind.withTimeout(ctx)
	defer cancel()
	for remote, err := range session.Tools(listCtx, nil) {
		if err != nil {
			m.kind.log.Warn().Err(err).Str("extension", m.ext.ExternalID).Msg("failed to list MCP tools")
			break
		}
		parameters, err := json.Marshal(remote.InputSchema)
		if err != nil || remote.InputSchema == nil {
			parameters = json.RawMessage(`{"type":"object"}`)
		}
		chatCtx.Tools = append(chatCtx.Tools, &mcpTool{
			kind:        m.kind,
			session:     session,
			externalID:  m.ext.ExternalID,
			name:        m.ext.ExternalID + "_" + remote.Name,
			remoteName:  remote.Name,
			title:       remote.Title,
			description: remote.Description,
			parameters:  parameters,
		})
	}
	return next(ctx, chatCtx)
}

type mcpTool struct {
	kind        *MCPKind
	session     *mcp.ClientSession
	externalID  string
	name        string
	remoteName  string
	title       string
	description string
	parameters  json.RawMessage
}

func (t *mcpTool) Name() string {
	return t.name
}

func (t *mcpTool) DisplayName() string {
	if t.title != "" {
		return t.title
	}
	return t.remoteName
}

func (t *mcpTool) Description() string {
	return t.description
}

func (t *mcpTool) Parameters() json.RawMessage {
	return t.parameters
}

func (t *mcpTool) ReturnDirect() bool {
	return false
}

func (t *mcpTool) Invoke(ctx context.Context, chatCtx *chat.ChatContext, arguments json.RawMessage) (string, error) {
	args := map[string]any{}
	if len(arguments) > 0 {
		if err := json.Unmarshal(arguments, &args); err != nil {
			return "", fmt.Errorf("invalid tool arguments: %w", err)
		}
	}

	callCtx, cancel := t.kind.withTimeout(ctx)
	defer cancel()
	result, err := t.session.CallTool(callCtx, &mcp.CallToolParams{Name: t.remoteName, Arguments: args})
	if err != nil {
		return "", err
	}

	texts, sources := readToolContent(result.Content)
	output := strings.Join(texts, "\n")
	if result.IsError {
		return "", errors.New(output)
	}
	if len(sources) > 0 && chatCtx.History != nil {
		chatCtx.History.AddSources(t.externalID, sources)
	}
	return output, nil
}

// readToolContent returns the text parts of a tool result. Embedded resources
// in the c4 JSON format contribute their text and a source.
func readToolContent(contents []mcp.Content) ([]string, []message.Source) {
	texts := make([]string, 0, len(contents))
	var sources []message.Source
	for _, content := range contents {
		switch c := content.(type) {
		case *mcp.TextContent:
			texts = append(texts, c.Text)
		case *mcp.EmbeddedResource:
			if c.Resource == nil || c.Resource.Text == "" {
				continue
			}
			if result, ok := parseC4JSON(c.Resource.Text); ok {
				texts = append(texts, result.content())
				sources = append(sources, result.source())
				continue
			}
			texts = append(texts, c.Resource.Text)
		}
	}
	return texts, sources
}

type c4JSON struct {
	Kind    string `json:"kind"`
	Version string `json:"version"`
	Data    struct {
		Text     string  `json:"text"`
		Original *string `json:"original"`
		ID       string  `json:"id"`
		Score    float64 `json:"score"`
		Region   struct {
			BoundingBoxes []struct {
				Page int `json:"page"`
			} `json:"bounding_boxes"`
			Pages []int `json:"pages"`
		} `json:"region"`
		Metadata struct {
			URI        string         `json:"uri"`
			MimeType   string         `json:"mime_type"`
			Link       string         `json:"link"`
			Size       int64          `json:"size"`
			Title      string         `json:"title"`
			Attributes map[string]any `json:"attributes"`
		} `json:"metadata"`
	} `json:"data"`
}

func parseC4JSON(raw string) (*c4JSON, bool) {
	var result c4JSON
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, false
	}
	if result.Kind == "" || result.Version == "" || result.Data.ID == "" || result.Data.Metadata.URI == "" {
		return nil, false
	}
	return &result, true
}

func (r *c4JSON) content() string {
	if r.Data.Original != nil {
		return *r.Data.Original
	}
	return r.Data.Text
}

// pages prefers the distinct pages of the bounding boxes over the page list.
func (r *c4JSON) pages() []int {
	pages := []int{}
	if len(r.Data.Region.BoundingBoxes) > 0 {
		seen := map[int]bool{}
		for _, box := range r.Data.Region.BoundingBoxes {
			if !seen[box.Page] {
				seen[box.Page] = true
				pages = append(pages, box.Page)
			}
		}
		return pages
	}
	return append(pages, r.Data.Region.Pages...)
}

func (r *c4JSON) source() message.Source {
	title := r.Data.Metadata.Title
	if title == "" {
		title = r.Data.ID
	}
	metadata := r.Data.Metadata.Attributes
	if metadata == nil {
		metadata = map[string]any{}
	}
	return message.Source{
		Title: title,
		Chunk: message.Chunk{
			Content:  r.content(),
			MimeType: "text/plain",
			Pages:    r.pages(),
			Score:    r.Data.Score,
		},
		Document: message.Document{
			URI:      r.Data.Metadata.URI,
			MimeType: r.Data.Metadata.MimeType,
			Link:     r.Data.Metadata.Link,
			Size:     r.Data.Metadata.Size,
		},
		Metadata: metadata,
	}
}
