package chat

import (
	"jan-server/services/assistant-api/internal/domain/configuration"
	"jan-server/services/assistant-api/internal/domain/user"
)

// ChatFile is a file the user attached to the chat input.
type ChatFile struct {
	ID       uint
	FileName string
	MimeType string
}

// ChatContext is the mutable state shared by the middlewares of one chat turn.
type ChatContext struct {
	Input          string
	User           *user.User
	ConversationID uint
	Configuration  *configuration.Configuration
	EditMessageID  *uint
	Files          []ChatFile
	Tools          []Tool
	History        *History
	Result         *ResultStream
	// LLM names the model that answered, set by the model middleware.
	LLM string
}
