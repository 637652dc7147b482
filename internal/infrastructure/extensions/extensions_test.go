package extensions

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jan-server/services/assistant-api/internal/domain/bucket"
	"jan-server/services/assistant-api/internal/domain/chat"
	"jan-server/services/assistant-api/internal/domain/extension"
	"jan-server/services/assistant-api/internal/domain/user"
	"jan-server/services/assistant-api/internal/infrastructure/filesapi"
	"jan-server/services/assistant-api/internal/infrastructure/metrics"
	"jan-server/services/assistant-api/internal/utils/httpclients"
)

// modelServer answers each chat completion request with the next scripted
// list of stream chunks and records the decoded requests.
type modelServer struct {
	mu       sync.Mutex
	replies  [][]string
	requests []openai.ChatCompletionRequest
}

func (s *modelServer) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/models":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"object":"list","data":[{"id":"gpt-test","object":"model"}]}`))
		case "/v1/chat/completions":
			var req openai.ChatCompletionRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

			s.mu.Lock()
			s.requests = append(s.requests, req)
			var chunks []string
			if len(s.replies) > 0 {
				chunks = s.replies[0]
				s.replies = s.replies[1:]
			}
			s.mu.Unlock()

			w.Header().Set("Content-Type", "text/event-stream")
			for _, chunk := range chunks {
				_, _ = fmt.Fprintf(w, "data: %s\n\n", chunk)
			}
			_, _ = w.Write([]byte("data: [DONE]\n\n"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func contentChunk(content string) string {
	return fmt.Sprintf(`{"choices":[{"index":0,"delta":{"content":%q}}]}`, content)
}

func toolCallChunk(id, name, arguments string) string {
	return fmt.Sprintf(`{"choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"id":%q,"type":"function","function":{"name":%q,"arguments":%q}}]}}]}`, id, name, arguments)
}

func newModelKind(t *testing.T, server *modelServer, options ModelOptions) (*OpenAIModelKind, string) {
	t.Helper()
	ts := httptest.NewServer(server.handler(t))
	t.Cleanup(ts.Close)
	kind := NewOpenAIModelKind(httpclients.NewClient("model-test", 5*time.Second), options, zerolog.Nop())
	return kind, ts.URL + "/v1"
}

func modelExtension(endpoint string) *extension.Extension {
	return &extension.Extension{
		ID:         1,
		ExternalID: "openai-model_1",
		Name:       OpenAIModelKindName,
		Enabled:    true,
		Values: map[string]any{
			"endpoint": endpoint,
			"apiKey":   "sk-test",
			"model":    "gpt-test",
		},
	}
}

func collect(result *chat.ResultStream) *[]chat.Event {
	events := &[]chat.Event{}
	result.Subscribe(func(e chat.Event) {
		*events = append(*events, e)
	})
	return events
}

func runModel(t *testing.T, kind *OpenAIModelKind, ext *extension.Extension, chatCtx *chat.ChatContext) {
	t.Helper()
	mws, err := kind.Middlewares(context.Background(), chatCtx.User, ext)
	require.NoError(t, err)
	require.Len(t, mws, 1)
	assert.Equal(t, modelOrder, mws[0].Order())

	err = mws[0].Invoke(context.Background(), chatCtx, func(ctx context.Context, c *chat.ChatContext) error {
		t.Fatal("model middleware must not call next")
		return nil
	})
	require.NoError(t, err)
}

type echoTool struct {
	calls []string
}

func (e *echoTool) Name() string                { return "echo" }
func (e *echoTool) DisplayName() string         { return "Echo" }
func (e *echoTool) Description() string         { return "echoes the text" }
func (e *echoTool) Parameters() json.RawMessage { return json.RawMessage(`{"type":"object"}`) }
func (e *echoTool) ReturnDirect() bool          { return false }
func (e *echoTool) Invoke(ctx context.Context, chatCtx *chat.ChatContext, arguments json.RawMessage) (string, error) {
	e.calls = append(e.calls, string(arguments))
	return "echoed", nil
}

func TestOpenAIModel_StreamsAnswer(t *testing.T) {
	server := &modelServer{replies: [][]string{{contentChunk("Hel"), contentChunk("lo")}}}
	kind, endpoint := newModelKind(t, server, ModelOptions{MaxToolRounds: 3, Debug: true})

	result := chat.NewResultStream()
	events := collect(result)
	chatCtx := &chat.ChatContext{Input: "hi", User: &user.User{ID: "u1"}, Result: result}

	runModel(t, kind, modelExtension(endpoint), chatCtx)

	assert.Equal(t, "gpt-test", chatCtx.LLM)
	assert.True(t, result.Completed())

	var chunks string
	var sawDebug bool
	for _, e := range *events {
		switch e.Type {
		case chat.EventChunk:
			chunks += e.Content
		case chat.EventDebug:
			sawDebug = true
		}
	}
	assert.Equal(t, "Hello", chunks)
	assert.True(t, sawDebug)
	assert.Equal(t, chat.EventCompleted, (*events)[len(*events)-1].Type)

	require.Len(t, server.requests, 1)
	req := server.requests[0]
	assert.True(t, req.Stream)
	assert.Empty(t, req.Tools)
	require.Len(t, req.Messages, 1)
	assert.Equal(t, openai.ChatMessageRoleUser, req.Messages[0].Role)
	assert.Equal(t, "hi", req.Messages[0].Content)
}

func TestOpenAIModel_ToolRoundTrip(t *testing.T) {
	server := &modelServer{replies: [][]string{
		{toolCallChunk("call_1", "echo", `{"text":"x"}`)},
		{contentChunk("done")},
	}}
	kind, endpoint := newModelKind(t, server, ModelOptions{MaxToolRounds: 3})

	tool := &echoTool{}
	result := chat.NewResultStream()
	events := collect(result)
	chatCtx := &chat.ChatContext{Input: "use the tool", Tools: []chat.Tool{tool}, Result: result}

	runModel(t, kind, modelExtension(endpoint), chatCtx)

	assert.Equal(t, []string{`{"text":"x"}`}, tool.calls)
	require.Len(t, server.requests, 2)
	require.Len(t, server.requests[0].Tools, 1)
	assert.Equal(t, "echo", server.requests[0].Tools[0].Function.Name)

	second := server.requests[1].Messages
	require.Len(t, second, 3)
	assert.Equal(t, openai.ChatMessageRoleAssistant, second[1].Role)
	require.Len(t, second[1].ToolCalls, 1)
	assert.Equal(t, openai.ChatMessageRoleTool, second[2].Role)
	assert.Equal(t, "call_1", second[2].ToolCallID)
	assert.Equal(t, "echoed", second[2].Content)

	var types []chat.EventType
	for _, e := range *events {
		types = append(types, e.Type)
	}
	assert.Equal(t, []chat.EventType{chat.EventToolStart, chat.EventToolEnd, chat.EventChunk, chat.EventCompleted}, types)
}

func TestOpenAIModel_StopsOfferingToolsAfterMaxRounds(t *testing.T) {
	server := &modelServer{replies: [][]string{
		{toolCallChunk("call_1", "echo", `{}`)},
		{contentChunk("final")},
	}}
	kind, endpoint := newModelKind(t, server, ModelOptions{MaxToolRounds: 1})

	chatCtx := &chat.ChatContext{Input: "loop", Tools: []chat.Tool{&echoTool{}}, Result: chat.NewResultStream()}
	runModel(t, kind, modelExtension(endpoint), chatCtx)

	require.Len(t, server.requests, 2)
	assert.NotEmpty(t, server.requests[0].Tools)
	assert.Empty(t, server.requests[1].Tools)
}

func TestOpenAIModel_UnknownToolIsReportedToModel(t *testing.T) {
	server := &modelServer{replies: [][]string{
		{toolCallChunk("call_9", "missing", `{}`)},
		{contentChunk("sorry")},
	}}
	kind, endpoint := newModelKind(t, server, ModelOptions{MaxToolRounds: 2})

	chatCtx := &chat.ChatContext{Input: "x", Tools: []chat.Tool{&echoTool{}}, Result: chat.NewResultStream()}
	runModel(t, kind, modelExtension(endpoint), chatCtx)

	require.Len(t, server.requests, 2)
	last := server.requests[1].Messages[len(server.requests[1].Messages)-1]
	assert.Equal(t, "Tool missing does not exist.", last.Content)
}

func TestOpenAIModel_DirectToolEndsTurn(t *testing.T) {
	server := &modelServer{replies: [][]string{
		{toolCallChunk("call_1", "structured-output_2", `{ "answer": 42 }`)},
	}}
	kind, endpoint := newModelKind(t, server, ModelOptions{MaxToolRounds: 3})

	structured := NewStructuredOutputKind()
	mws, err := structured.Middlewares(context.Background(), nil, &extension.Extension{
		ID:         2,
		ExternalID: "structured-output_2",
		Name:       StructuredOutputKindName,
		Values:     map[string]any{"schema": `{"type":"object","properties":{"answer":{"type":"number"}}}`},
	})
	require.NoError(t, err)

	result := chat.NewResultStream()
	events := collect(result)
	chatCtx := &chat.ChatContext{Input: "answer in json", Result: result}
	require.NoError(t, mws[0].Invoke(context.Background(), chatCtx, func(ctx context.Context, c *chat.ChatContext) error {
		runModel(t, kind, modelExtension(endpoint), c)
		return nil
	}))

	require.Len(t, server.requests, 1)
	var answer string
	for _, e := range *events {
		if e.Type == chat.EventChunk {
			answer += e.Content
		}
	}
	assert.Equal(t, `{"answer":42}`, answer)
	assert.True(t, result.Completed())
}

func TestOpenAIModel_Test(t *testing.T) {
	kind, endpoint := newModelKind(t, &modelServer{}, ModelOptions{})
	ctx := context.Background()

	require.NoError(t, kind.Test(ctx, map[string]any{"endpoint": endpoint, "model": "gpt-test"}))

	err := kind.Test(ctx, map[string]any{"endpoint": endpoint, "model": "other"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "other")

	err = kind.Test(ctx, map[string]any{"model": "gpt-test"})
	require.Error(t, err)
}

func TestStructuredOutput_TestValidatesSchema(t *testing.T) {
	kind := NewStructuredOutputKind()
	ctx := context.Background()

	assert.NoError(t, kind.Test(ctx, map[string]any{"schema": `{"type":"object"}`}))
	assert.Error(t, kind.Test(ctx, map[string]any{"schema": `[1,2]`}))
	assert.Error(t, kind.Test(ctx, map[string]any{}))
}

type bucketFinderFunc func(ctx context.Context, id uint) (*bucket.Bucket, error)

func (f bucketFinderFunc) GetBucket(ctx context.Context, id uint) (*bucket.Bucket, error) {
	return f(ctx, id)
}

func TestFilesKind_ToolSearchesBucketAndRecordsSources(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/files/search":
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "holidays", body["query"])
			assert.Equal(t, "conversation-5", body["bucket"])
			assert.Equal(t, float64(3), body["take"])
			_, _ = w.Write([]byte(`{"items":[{"title":"handbook.pdf","chunk":{"uri":"c1","content":"30 days","mimeType":"text/plain"},"document":{"uri":"d1","mimeType":"application/pdf"}}]}`))
		case "/chunks":
			_, _ = w.Write([]byte(`{"items":["30 days"]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(ts.Close)

	buckets := bucketFinderFunc(func(ctx context.Context, id uint) (*bucket.Bucket, error) {
		assert.Equal(t, uint(4), id)
		return &bucket.Bucket{ID: 4, Endpoint: ts.URL, Type: bucket.BucketTypeConversation}, nil
	})
	factory := filesapi.NewClientFactory(httpclients.NewClient("files-test", 5*time.Second), nil)
	kind := NewFilesKind(buckets, factory)

	bucketID := uint(4)
	ext := &extension.Extension{ID: 7, ExternalID: "files_7", Name: FilesKindName, BucketID: &bucketID, Values: map[string]any{"take": float64(3)}}

	mws, err := kind.Middlewares(context.Background(), &user.User{ID: "u1"}, ext)
	require.NoError(t, err)
	require.Len(t, mws, 1)

	chatCtx := &chat.ChatContext{User: &user.User{ID: "u1"}, ConversationID: 5}
	require.NoError(t, mws[0].Invoke(context.Background(), chatCtx, func(ctx context.Context, c *chat.ChatContext) error {
		return nil
	}))
	require.Len(t, chatCtx.Tools, 1)
	tool := chatCtx.Tools[0]
	assert.Equal(t, "files_7", tool.Name())
	assert.False(t, tool.ReturnDirect())

	out, err := tool.Invoke(context.Background(), chatCtx, json.RawMessage(`{"query":"holidays"}`))
	require.NoError(t, err)
	assert.JSONEq(t, `[{"title":"handbook.pdf","content":"30 days"}]`, out)

	chunks, err := kind.GetChunks(context.Background(), ext, "d1", []string{"c1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"30 days"}, chunks)
}

func toolCallCount(t *testing.T, tool, status string) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, metrics.ToolCallsTotal.WithLabelValues(tool, status).Write(&m))
	return m.GetCounter().GetValue()
}

func TestFilesKind_FailedSearchCountedOnceByModel(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(ts.Close)

	bucketID := uint(8)
	buckets := bucketFinderFunc(func(ctx context.Context, id uint) (*bucket.Bucket, error) {
		return &bucket.Bucket{ID: id, Endpoint: ts.URL, Type: bucket.BucketTypeUser}, nil
	})
	files := NewFilesKind(buckets, filesapi.NewClientFactory(httpclients.NewClient("files-test", 5*time.Second), nil))
	ext := &extension.Extension{ID: 8, ExternalID: "files_8", Name: FilesKindName, BucketID: &bucketID, Values: map[string]any{}}
	toolMws, err := files.Middlewares(context.Background(), &user.User{ID: "u1"}, ext)
	require.NoError(t, err)

	server := &modelServer{replies: [][]string{
		{toolCallChunk("call_1", "files_8", `{"query":"x"}`)},
		{contentChunk("nothing found")},
	}}
	kind, endpoint := newModelKind(t, server, ModelOptions{MaxToolRounds: 2})

	before := toolCallCount(t, "files_8", "error")
	chatCtx := &chat.ChatContext{User: &user.User{ID: "u1"}, Input: "search", Result: chat.NewResultStream()}
	require.NoError(t, toolMws[0].Invoke(context.Background(), chatCtx, func(ctx context.Context, c *chat.ChatContext) error {
		runModel(t, kind, modelExtension(endpoint), c)
		return nil
	}))

	assert.Equal(t, before+1, toolCallCount(t, "files_8", "error"))
	require.Len(t, server.requests, 2)
	last := server.requests[1].Messages[len(server.requests[1].Messages)-1]
	assert.Contains(t, last.Content, "Error:")
}

func TestFilesKind_RequiresBucket(t *testing.T) {
	kind := NewFilesKind(nil, nil)
	assert.True(t, kind.Spec().RequiresBucket)

	_, err := kind.Middlewares(context.Background(), nil, &extension.Extension{ID: 1, Name: FilesKindName})
	assert.Error(t, err)
	assert.NoError(t, kind.Test(context.Background(), map[string]any{}))
}

func TestRegistry_ContainsAllKinds(t *testing.T) {
	model := NewOpenAIModelKind(httpclients.NewClient("model-test", time.Second), ModelOptions{}, zerolog.Nop())
	registry := NewRegistry(model, NewFilesKind(nil, nil), NewStructuredOutputKind(), NewMCPKind(time.Second, zerolog.Nop()))

	for _, name := range []string{OpenAIModelKindName, FilesKindName, StructuredOutputKindName, MCPKindName} {
		_, ok := registry.Get(name)
		assert.True(t, ok, name)
	}
	assert.Len(t, registry.Specs(), 4)
}

func TestFilesToolParametersRequireQuery(t *testing.T) {
	var schema struct {
		Type                 string                    `json:"type"`
		Properties           map[string]map[string]any `json:"properties"`
		Required             []string                  `json:"required"`
		AdditionalProperties *bool                     `json:"additionalProperties"`
	}
	require.NoError(t, json.Unmarshal(filesToolParameters, &schema))

	assert.Equal(t, "object", schema.Type)
	assert.Equal(t, []string{"query"}, schema.Required)
	assert.Equal(t, "string", schema.Properties["query"]["type"])
	assert.Equal(t, "The search query", schema.Properties["query"]["description"])
	require.NotNil(t, schema.AdditionalProperties)
	assert.False(t, *schema.AdditionalProperties)
}
