package extensions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"resty.dev/v3"

	"jan-server/services/assistant-api/internal/domain/chat"
	"jan-server/services/assistant-api/internal/domain/extension"
	"jan-server/services/assistant-api/internal/domain/message"
	"jan-server/services/assistant-api/internal/domain/user"
	"jan-server/services/assistant-api/internal/infrastructure/metrics"
	chatclient "jan-server/services/assistant-api/internal/utils/httpclients/chat"
)

const (
	OpenAIModelKindName = "openai-model"
	// modelOrder runs the model after every tool middleware.
	modelOrder         = 1000
	defaultTemperature = 0.7
)

// ModelOptions tunes the model middleware.
type ModelOptions struct {
	MaxToolRounds int
	Debug         bool
}

// OpenAIModelKind answers with any OpenAI compatible chat completions endpoint.
type OpenAIModelKind struct {
	client  *resty.Client
	options ModelOptions
	log     zerolog.Logger
}

var _ extension.Kind = (*OpenAIModelKind)(nil)

func NewOpenAIModelKind(client *resty.Client, options ModelOptions, log zerolog.Logger) *OpenAIModelKind {
	if options.MaxToolRounds <= 0 {
		options.MaxToolRounds = 5
	}
	return &OpenAIModelKind{
		client:  client,
		options: options,
		log:     log.With().Str("component", "openai-model").Logger(),
	}
}

func (k *OpenAIModelKind) Spec() extension.Spec {
	return extension.Spec{
		Name:        OpenAIModelKindName,
		Title:       "OpenAI Compatible Model",
		Description: "Answers with a chat completions endpoint that speaks the OpenAI protocol.",
		Type:        extension.ExtensionTypeLLM,
		Arguments: map[string]extension.ArgumentSpec{
			"endpoint": {
				Type:        "string",
				Title:       "Endpoint",
				Description: "Base URL of the API, for example https://api.openai.com/v1",
				Required:    true,
			},
			"apiKey": {
				Type:   "string",
				Title:  "API Key",
				Format: "password",
			},
			"model": {
				Type:     "string",
				Title:    "Model",
				Required: true,
			},
			"temperature": {
				Type:    "number",
				Title:   "Temperature",
				Default: defaultTemperature,
			},
		},
	}
}

// Test lists the models of the endpoint and checks the configured one is served.
func (k *OpenAIModelKind) Test(ctx context.Context, values map[string]any) error {
	settings, err := parseModelSettings(values)
	if err != nil {
		return err
	}
	models, err := k.chatClient(settings).ListModels(ctx, settings.apiKey)
	if err != nil {
		return err
	}
	if len(models.Models) == 0 {
		return nil
	}
	for _, m := range models.Models {
		if m.ID == settings.model {
			return nil
		}
	}
	return fmt.Errorf("model %q is not available", settings.model)
}

func (k *OpenAIModelKind) Middlewares(ctx context.Context, u *user.User, ext *extension.Extension) ([]chat.Middleware, error) {
	settings, err := parseModelSettings(ext.Values)
	if err != nil {
		return nil, err
	}
	return []chat.Middleware{&modelMiddleware{
		client:   k.chatClient(settings),
		settings: settings,
		options:  k.options,
		log:      k.log,
	}}, nil
}

func (k *OpenAIModelKind) chatClient(settings modelSettings) *chatclient.ChatCompletionClient {
	return chatclient.NewChatCompletionClient(k.client, OpenAIModelKindName, settings.endpoint)
}

type modelSettings struct {
	endpoint    string
	apiKey      string
	model       string
	temperature float64
}

func parseModelSettings(values map[string]any) (modelSettings, error) {
	settings := modelSettings{
		endpoint:    stringValue(values, "endpoint"),
		apiKey:      stringValue(values, "apiKey"),
		model:       stringValue(values, "model"),
		temperature: floatValue(values, "temperature", defaultTemperature),
	}
	if settings.endpoint == "" {
		return settings, errors.New("endpoint is required")
	}
	if settings.model == "" {
		return settings, errors.New("model is required")
	}
	return settings, nil
}

type modelMiddleware struct {
	client   *chatclient.ChatCompletionClient
	settings modelSettings
	options  ModelOptions
	log      zerolog.Logger
}

func (m *modelMiddleware) Order() int {
	return modelOrder
}

// Invoke answers the turn. It is the end of the chain and does not call next.
func (m *modelMiddleware) Invoke(ctx context.Context, chatCtx *chat.ChatContext, next chat.Next) error {
	chatCtx.LLM = m.settings.model

	messages := buildMessages(chatCtx)
	tools, byName := toolDefinitions(chatCtx.Tools)

	answer, err := m.converse(ctx, chatCtx, messages, tools, byName)
	if err != nil {
		return err
	}

	if chatCtx.History != nil {
		chatCtx.History.AddMessage(ctx, &message.Message{
			Type: message.MessageTypeAI,
			Data: message.Data{Content: answer},
		}, false, nil)
	}
	if chatCtx.Result != nil {
		chatCtx.Result.Complete()
	}
	return nil
}

// converse calls the model until it answers without tool calls, a direct tool
// returns or the round limit is reached. The last round offers no tools.
func (m *modelMiddleware) converse(ctx context.Context, chatCtx *chat.ChatContext, messages []openai.ChatCompletionMessage, tools []openai.Tool, byName map[string]chat.Tool) (string, error) {
	for round := 0; ; round++ {
		request := openai.ChatCompletionRequest{
			Model:       m.settings.model,
			Messages:    messages,
			Temperature: float32(m.settings.temperature),
		}
		if len(tools) > 0 && round < m.options.MaxToolRounds {
			request.Tools = tools
		}
		m.debug(chatCtx, fmt.Sprintf("calling %s with %d messages and %d tools", m.settings.model, len(messages), len(request.Tools)))

		reply, err := m.client.StreamChatCompletion(ctx, m.settings.apiKey, request, func(content string) {
			publish(chatCtx, chat.Event{Type: chat.EventChunk, Content: content})
		})
		if err != nil {
			return "", err
		}
		if len(reply.ToolCalls) == 0 || len(request.Tools) == 0 {
			return reply.Content, nil
		}

		messages = append(messages, *reply)
		for _, call := range reply.ToolCalls {
			output, direct := m.callTool(ctx, chatCtx, byName, call)
			if direct {
				publish(chatCtx, chat.Event{Type: chat.EventChunk, Content: output})
				return output, nil
			}
			messages = append(messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    output,
				ToolCallID: call.ID,
			})
		}
	}
}

// callTool runs one tool call. Failures become the tool output so the model
// can recover. direct is set when the tool ends the turn.
func (m *modelMiddleware) callTool(ctx context.Context, chatCtx *chat.ChatContext, byName map[string]chat.Tool, call openai.ToolCall) (string, bool) {
	tool, ok := byName[call.Function.Name]
	if !ok {
		metrics.RecordToolCall(call.Function.Name, "unknown")
		return fmt.Sprintf("Tool %s does not exist.", call.Function.Name), false
	}

	info := &chat.ToolInfo{Name: tool.Name(), DisplayName: tool.DisplayName()}
	publish(chatCtx, chat.Event{Type: chat.EventToolStart, Tool: info})
	defer publish(chatCtx, chat.Event{Type: chat.EventToolEnd, Tool: info})

	arguments := json.RawMessage(call.Function.Arguments)
	if strings.TrimSpace(call.Function.Arguments) == "" {
		arguments = json.RawMessage("{}")
	}
	m.debug(chatCtx, fmt.Sprintf("tool %s called with %s", tool.Name(), call.Function.Arguments))

	output, err := tool.Invoke(ctx, chatCtx, arguments)
	if err != nil {
		metrics.RecordToolCall(tool.Name(), "error")
		m.log.Warn().Err(err).Str("tool", tool.Name()).Msg("tool call failed")
		return fmt.Sprintf("Error: %s", err.Error()), false
	}
	metrics.RecordToolCall(tool.Name(), "success")
	return output, tool.ReturnDirect()
}

func (m *modelMiddleware) debug(chatCtx *chat.ChatContext, content string) {
	if !m.options.Debug {
		return
	}
	publish(chatCtx, chat.Event{Type: chat.EventDebug, Content: content})
}

func publish(chatCtx *chat.ChatContext, e chat.Event) {
	if chatCtx.Result != nil {
		chatCtx.Result.Publish(e)
	}
}

func buildMessages(chatCtx *chat.ChatContext) []openai.ChatCompletionMessage {
	var messages []openai.ChatCompletionMessage
	if chatCtx.History != nil {
		for _, msg := range chatCtx.History.Messages() {
			role := openai.ChatMessageRoleUser
			if msg.Type == message.MessageTypeAI {
				role = openai.ChatMessageRoleAssistant
			}
			messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: msg.Data.Content})
		}
	}

	input := chatCtx.Input
	if len(chatCtx.Files) > 0 {
		names := make([]string, 0, len(chatCtx.Files))
		for _, f := range chatCtx.Files {
			names = append(names, f.FileName)
		}
		input += "\n\nAttached files: " + strings.Join(names, ", ")
	}
	return append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: input})
}

func toolDefinitions(tools []chat.Tool) ([]openai.Tool, map[string]chat.Tool) {
	definitions := make([]openai.Tool, 0, len(tools))
	byName := make(map[string]chat.Tool, len(tools))
	for _, tool := range tools {
		if _, seen := byName[tool.Name()]; seen {
			continue
		}
		byName[tool.Name()] = tool
		definitions = append(definitions, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        tool.Name(),
				Description: tool.Description(),
				Parameters:  tool.Parameters(),
			},
		})
	}
	return definitions, byName
}
