package domain

import (
	"github.com/google/wire"

	"jan-server/services/assistant-api/internal/domain/bucket"
	"jan-server/services/assistant-api/internal/domain/chat"
	"jan-server/services/assistant-api/internal/domain/configuration"
	"jan-server/services/assistant-api/internal/domain/conversation"
	"jan-server/services/assistant-api/internal/domain/document"
	"jan-server/services/assistant-api/internal/domain/extension"
	"jan-server/services/assistant-api/internal/domain/file"
	"jan-server/services/assistant-api/internal/domain/message"
)

// ServiceProvider provides all domain services
var ServiceProvider = wire.NewSet(
	// Conversations and messages
	conversation.NewConversationService,
	message.NewMessageService,
	wire.Bind(new(message.ConversationFinder), new(*conversation.ConversationService)),

	// Configurations and extensions
	configuration.NewConfigurationService,
	extension.NewExtensionService,

	// Buckets and files
	bucket.NewBucketService,
	file.NewBlobStore,
	file.NewFileService,
	file.NewUploadService,
	wire.Bind(new(file.BucketResolver), new(*bucket.BucketService)),
	wire.Bind(new(file.BucketFinder), new(bucket.BucketRepository)),
	wire.Bind(new(file.BucketExtensions), new(*extension.ExtensionService)),

	// Chat
	chat.NewHistoryMiddleware,
	chat.NewChatService,
	wire.Bind(new(chat.MiddlewareSource), new(*extension.ExtensionService)),
	wire.Bind(new(chat.FileFinder), new(file.FileRepository)),
	wire.Bind(new(chat.MessageStore), new(message.MessageRepository)),
	wire.Bind(new(chat.ConversationFileStore), new(file.ConversationFileRepository)),

	// Documents
	document.NewDocumentService,
	wire.Bind(new(document.MessageFinder), new(message.MessageRepository)),
	wire.Bind(new(document.ConversationFinder), new(conversation.ConversationRepository)),
	wire.Bind(new(document.ChunkResolver), new(*extension.ExtensionService)),
)
