package handlers

import "github.com/google/wire"

// Provider wires HTTP handlers.
type Provider struct {
	Conversations  *ConversationHandler
	Messages       *MessageHandler
	Buckets        *BucketHandler
	Files          *FileHandler
	Configurations *ConfigurationHandler
	Extensions     *ExtensionHandler
}

func NewProvider(
	conversations *ConversationHandler,
	messages *MessageHandler,
	buckets *BucketHandler,
	files *FileHandler,
	configurations *ConfigurationHandler,
	extensions *ExtensionHandler,
) *Provider {
	return &Provider{
		Conversations:  conversations,
		Messages:       messages,
		Buckets:        buckets,
		Files:          files,
		Configurations: configurations,
		Extensions:     extensions,
	}
}

var HandlerProvider = wire.NewSet(
	NewConversationHandler,
	NewMessageHandler,
	NewBucketHandler,
	NewFileHandler,
	NewConfigurationHandler,
	NewExtensionHandler,
	NewProvider,
)
