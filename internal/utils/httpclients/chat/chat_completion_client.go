package chat

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/sashabaranov/go-openai"
	"resty.dev/v3"

	"jan-server/services/assistant-api/internal/infrastructure/logger"
	"jan-server/services/assistant-api/internal/utils/platformerrors"
)

const (
	dataPrefix           = "data: "
	doneMarker           = "[DONE]"
	scannerInitialBuffer = 12 * 1024        // 12KB
	scannerMaxBuffer     = 10 * 1024 * 1024 // 10MB
)

// ChatCompletionClient talks to an OpenAI compatible endpoint.
type ChatCompletionClient struct {
	client  *resty.Client
	baseURL string
	name    string
}

type toolCallAccumulator struct {
	ID        string
	Type      openai.ToolType
	Index     int
	Name      string
	Arguments strings.Builder
}

func NewChatCompletionClient(client *resty.Client, name, baseURL string) *ChatCompletionClient {
	return &ChatCompletionClient{
		client:  client,
		baseURL: normalizeBaseURL(baseURL),
		name:    name,
	}
}

// ListModels calls GET /models. It is used to check endpoint and credentials.
func (c *ChatCompletionClient) ListModels(ctx context.Context, apiKey string) (*openai.ModelsList, error) {
	var respBody openai.ModelsList
	resp, err := c.prepareRequest(ctx, apiKey).
		SetResult(&respBody).
		Get(c.endpoint("/models"))
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, "model endpoint unreachable", err, "4a6d9e03-07d5-4c8b-91f1-3a7b1dbfb1a0")
	}
	if resp.IsError() {
		return nil, c.errorFromResponse(ctx, resp, "list models failed")
	}
	return &respBody, nil
}

// StreamChatCompletion streams a completion and calls onContent for every
// text delta. The returned message holds the whole content and the tool calls
// assembled from their fragments.
func (c *ChatCompletionClient) StreamChatCompletion(ctx context.Context, apiKey string, request openai.ChatCompletionRequest, onContent func(string)) (*openai.ChatCompletionMessage, error) {
	request.Stream = true

	resp, err := c.prepareRequest(ctx, apiKey).
		SetBody(request).
		SetDoNotParseResponse(true).
		SetHeader("Accept", "text/event-stream").
		SetHeader("Accept-Encoding", "identity").
		Post(c.endpoint("/chat/completions"))
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, "streaming request failed", err, "a0a8b7c9-3a61-4d6b-9e8f-2c6d5e4f3b21")
	}
	if resp.RawResponse == nil || resp.RawResponse.Body == nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, "streaming request failed: empty response body", nil, "1b3ab461-dbf9-4034-8abb-dfc6ea8486c5")
	}
	defer func() {
		if closeErr := resp.RawResponse.Body.Close(); closeErr != nil {
			log := logger.GetLogger()
			log.Error().Err(closeErr).Str("client", c.name).Msg("unable to close response body")
		}
	}()
	if resp.StatusCode() > 299 {
		return nil, c.errorFromBody(ctx, resp, "streaming request failed")
	}

	var content strings.Builder
	toolCalls := make(map[int]*toolCallAccumulator)

	scanner := bufio.NewScanner(resp.RawResponse.Body)
	scanner.Buffer(make([]byte, 0, scannerInitialBuffer), scannerMaxBuffer)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, found := strings.CutPrefix(scanner.Text(), dataPrefix)
		if !found {
			continue
		}
		data = strings.TrimSpace(data)
		if data == doneMarker {
			break
		}

		var chunk openai.ChatCompletionStreamResponse
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			log := logger.GetLogger()
			log.Error().Err(err).Str("client", c.name).Msg("failed to parse stream chunk JSON")
			continue
		}
		for _, choice := range chunk.Choices {
			if choice.Delta.Content != "" {
				content.WriteString(choice.Delta.Content)
				if onContent != nil {
					onContent(choice.Delta.Content)
				}
			}
			for i := range choice.Delta.ToolCalls {
				accumulateToolCall(&choice.Delta.ToolCalls[i], toolCalls)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, "reading stream failed", err, "6f1b0c4e-58d2-4d1e-a3c7-0e9f8b7a6d54")
	}

	return &openai.ChatCompletionMessage{
		Role:      openai.ChatMessageRoleAssistant,
		Content:   content.String(),
		ToolCalls: collectToolCalls(toolCalls),
	}, nil
}

func accumulateToolCall(delta *openai.ToolCall, acc map[int]*toolCallAccumulator) {
	index := 0
	if delta.Index != nil {
		index = *delta.Index
	}
	call, ok := acc[index]
	if !ok {
		call = &toolCallAccumulator{Index: index, Type: openai.ToolTypeFunction}
		acc[index] = call
	}
	if delta.ID != "" {
		call.ID = delta.ID
	}
	if delta.Type != "" {
		call.Type = delta.Type
	}
	if delta.Function.Name != "" {
		call.Name = delta.Function.Name
	}
	call.Arguments.WriteString(delta.Function.Arguments)
}

func collectToolCalls(acc map[int]*toolCallAccumulator) []openai.ToolCall {
	if len(acc) == 0 {
		return nil
	}
	indexes := make([]int, 0, len(acc))
	for index := range acc {
		indexes = append(indexes, index)
	}
	sort.Ints(indexes)

	calls := make([]openai.ToolCall, 0, len(indexes))
	for _, index := range indexes {
		call := acc[index]
		id := call.ID
		if id == "" {
			id = fmt.Sprintf("call_%d", index)
		}
		calls = append(calls, openai.ToolCall{
			ID:   id,
			Type: call.Type,
			Function: openai.FunctionCall{
				Name:      call.Name,
				Arguments: call.Arguments.String(),
			},
		})
	}
	return calls
}

func (c *ChatCompletionClient) prepareRequest(ctx context.Context, apiKey string) *resty.Request {
	req := c.client.R().SetContext(ctx)
	req.SetHeader("Content-Type", "application/json")
	if strings.TrimSpace(apiKey) != "" {
		req.SetHeader("Authorization", fmt.Sprintf("Bearer %s", apiKey))
	}
	return req
}

func (c *ChatCompletionClient) endpoint(path string) string {
	if c.baseURL == "" {
		return path
	}
	if strings.HasPrefix(path, "/") {
		return c.baseURL + path
	}
	return c.baseURL + "/" + path
}

func (c *ChatCompletionClient) errorFromResponse(ctx context.Context, resp *resty.Response, message string) error {
	trimmed := strings.TrimSpace(resp.String())
	if trimmed == "" {
		trimmed = resp.Status()
	}
	return platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, fmt.Sprintf("%s: %s", message, trimmed), nil, "a1f46e0d-4017-4411-ac05-987946c3066d")
}

func (c *ChatCompletionClient) errorFromBody(ctx context.Context, resp *resty.Response, message string) error {
	scanner := bufio.NewScanner(resp.RawResponse.Body)
	var body strings.Builder
	for scanner.Scan() && body.Len() < 4096 {
		body.WriteString(scanner.Text())
	}
	trimmed := strings.TrimSpace(body.String())
	if trimmed == "" {
		trimmed = resp.Status()
	}
	return platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, fmt.Sprintf("%s: %s", message, trimmed), nil, "b8797de4-38cb-4bd9-9ae8-b9a04e70f6ab")
}

func normalizeBaseURL(baseURL string) string {
	return strings.TrimRight(strings.TrimSpace(baseURL), "/")
}
