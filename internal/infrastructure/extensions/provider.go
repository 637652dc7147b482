package extensions

import (
	"github.com/google/wire"
	"github.com/rs/zerolog"

	"jan-server/services/assistant-api/internal/config"
	"jan-server/services/assistant-api/internal/domain/extension"
	"jan-server/services/assistant-api/internal/utils/httpclients"
)

// ProvideOpenAIModelKind builds the model kind with its own HTTP client so
// model timeouts stay independent from the files API.
func ProvideOpenAIModelKind(cfg *config.Config, log zerolog.Logger) *OpenAIModelKind {
	client := httpclients.NewClient("model-api", cfg.ChatModelTimeout)
	return NewOpenAIModelKind(client, ModelOptions{
		MaxToolRounds: cfg.ChatMaxToolRounds,
		Debug:         cfg.ChatDebug,
	}, log)
}

func ProvideMCPKind(cfg *config.Config, log zerolog.Logger) *MCPKind {
	return NewMCPKind(cfg.MCPCallTimeout, log)
}

// NewRegistry registers every extension kind the service ships with.
func NewRegistry(model *OpenAIModelKind, files *FilesKind, structured *StructuredOutputKind, mcpTools *MCPKind) *extension.Registry {
	return extension.NewRegistry(model, files, structured, mcpTools)
}

var ExtensionProvider = wire.NewSet(
	ProvideOpenAIModelKind,
	NewFilesKind,
	NewStructuredOutputKind,
	ProvideMCPKind,
	NewRegistry,
)
