package extensions

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"jan-server/services/assistant-api/internal/domain/chat"
	"jan-server/services/assistant-api/internal/domain/extension"
	"jan-server/services/assistant-api/internal/domain/user"
)

const StructuredOutputKindName = "structured-output"

// StructuredOutputKind lets the model answer with JSON matching a schema.
type StructuredOutputKind struct{}

var _ extension.Kind = (*StructuredOutputKind)(nil)

func NewStructuredOutputKind() *StructuredOutputKind {
	return &StructuredOutputKind{}
}

func (k *StructuredOutputKind) Spec() extension.Spec {
	return extension.Spec{
		Name:        StructuredOutputKindName,
		Title:       "Structured Output",
		Description: "This tool allows the llm to return a structured output to the user.",
		Type:        extension.ExtensionTypeTool,
		Arguments: map[string]extension.ArgumentSpec{
			"schema": {
				Type:        "string",
				Title:       "output schema",
				Description: "the output json schema",
				Required:    true,
				Format:      "textarea",
			},
		},
	}
}

func (k *StructuredOutputKind) Test(ctx context.Context, values map[string]any) error {
	_, err := parseSchema(stringValue(values, "schema"))
	return err
}

func (k *StructuredOutputKind) Middlewares(ctx context.Context, u *user.User, ext *extension.Extension) ([]chat.Middleware, error) {
	schema, err := parseSchema(stringValue(ext.Values, "schema"))
	if err != nil {
		return nil, err
	}
	return []chat.Middleware{
		&toolMiddleware{tools: []chat.Tool{&structuredOutputTool{name: ext.ExternalID, schema: schema}}},
	}, nil
}

func parseSchema(raw string) (json.RawMessage, error) {
	if raw == "" {
		return nil, errors.New("schema is required")
	}
	var object map[string]any
	if err := json.Unmarshal([]byte(raw), &object); err != nil {
		return nil, fmt.Errorf("schema is not a JSON object: %w", err)
	}
	return json.RawMessage(raw), nil
}

type structuredOutputTool struct {
	name   string
	schema json.RawMessage
}

func (t *structuredOutputTool) Name() string {
	return t.name
}

func (t *structuredOutputTool) DisplayName() string {
	return "Structured Output"
}

func (t *structuredOutputTool) Description() string {
	return "This tool should be called in the end of a response chain when the user prompts a structured output. " +
		"When calling this tool never return any other content than this to the user. " +
		"The output will return a json string which should not be modified"
}

func (t *structuredOutputTool) Parameters() json.RawMessage {
	return t.schema
}

func (t *structuredOutputTool) ReturnDirect() bool {
	return true
}

// Invoke returns the arguments unchanged apart from whitespace.
func (t *structuredOutputTool) Invoke(ctx context.Context, chatCtx *chat.ChatContext, arguments json.RawMessage) (string, error) {
	var compact bytes.Buffer
	if err := json.Compact(&compact, arguments); err != nil {
		return "", fmt.Errorf("invalid tool arguments: %w", err)
	}
	return compact.String(), nil
}
