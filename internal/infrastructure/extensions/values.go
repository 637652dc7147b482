// Package extensions implements the extension kinds an assistant configuration
// can be composed of.
package extensions

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/invopop/jsonschema"

	"jan-server/services/assistant-api/internal/domain/chat"
)

// toolOrder places tool middlewares after the history and before the model.
const toolOrder = 0

func stringValue(values map[string]any, key string) string {
	switch v := values[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case fmt.Stringer:
		return strings.TrimSpace(v.String())
	default:
		return ""
	}
}

func floatValue(values map[string]any, key string, fallback float64) float64 {
	switch v := values[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case uint:
		return float64(v)
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return f
		}
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
	}
	return fallback
}

// toolMiddleware adds tools to the chat context and continues the chain.
type toolMiddleware struct {
	tools []chat.Tool
}

func (m *toolMiddleware) Order() int {
	return toolOrder
}

func (m *toolMiddleware) Invoke(ctx context.Context, chatCtx *chat.ChatContext, next chat.Next) error {
	chatCtx.Tools = append(chatCtx.Tools, m.tools...)
	return next(ctx, chatCtx)
}

// reflectToolParameters builds the inline JSON schema of a tool arguments struct.
// Fields without omitempty are required.
func reflectToolParameters(v any) json.RawMessage {
	reflector := &jsonschema.Reflector{
		Anonymous:                 true,
		AllowAdditionalProperties: false,
		DoNotReference:            true,
		ExpandedStruct:            true,
	}
	schema := reflector.Reflect(v)
	schema.Version = ""
	raw, err := json.Marshal(schema)
	if err != nil {
		panic(fmt.Sprintf("reflect tool parameters: %v", err))
	}
	return raw
}
