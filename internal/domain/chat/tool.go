package chat

import (
	"context"
	"encoding/json"
)

// Tool is a function the model may call during a chat turn.
type Tool interface {
	Name() string
	DisplayName() string
	Description() string
	// Parameters is the JSON schema of the arguments object.
	Parameters() json.RawMessage
	// ReturnDirect ends the turn with the tool output as the answer.
	ReturnDirect() bool
	Invoke(ctx context.Context, chatCtx *ChatContext, arguments json.RawMessage) (string, error)
}
