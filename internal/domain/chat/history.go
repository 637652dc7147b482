package chat

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"jan-server/services/assistant-api/internal/domain/file"
	"jan-server/services/assistant-api/internal/domain/message"
	"jan-server/services/assistant-api/internal/infrastructure/metrics"
	"jan-server/services/assistant-api/internal/utils/platformerrors"
)

// HistoryOrder runs the history middleware before any extension middleware.
const HistoryOrder = -100

// MessageStore is the message persistence the history needs.
type MessageStore interface {
	Create(ctx context.Context, msg *message.Message) error
	FindByID(ctx context.Context, id uint) (*message.Message, error)
	FindLatest(ctx context.Context, conversationID uint) (*message.Message, error)
	GetThread(ctx context.Context, conversationID uint, leafID uint) ([]*message.Message, error)
}

// ConversationFileStore links chat files to the messages they were sent with.
type ConversationFileStore interface {
	Create(ctx context.Context, cf *file.ConversationFile) error
	FindByConversationAndFiles(ctx context.Context, conversationID uint, fileIDs []uint) ([]*file.ConversationFile, error)
	AssignMessage(ctx context.Context, ids []uint, messageID uint) error
}

// HistoryMiddleware persists the human input and exposes the conversation
// thread to later middlewares.
type HistoryMiddleware struct {
	messages MessageStore
	files    ConversationFileStore
	log      zerolog.Logger
}

func NewHistoryMiddleware(messages MessageStore, files ConversationFileStore, log zerolog.Logger) *HistoryMiddleware {
	return &HistoryMiddleware{
		messages: messages,
		files:    files,
		log:      log.With().Str("component", "chat-history").Logger(),
	}
}

// CheckEditedMessage fails with NotFound unless the edited message belongs
// to the conversation.
func (m *HistoryMiddleware) CheckEditedMessage(ctx context.Context, conversationID uint, editMessageID *uint) error {
	if editMessageID == nil || *editMessageID == 0 {
		return nil
	}
	_, err := findEditedMessage(ctx, m.messages, conversationID, *editMessageID)
	return err
}

func findEditedMessage(ctx context.Context, messages MessageStore, conversationID uint, id uint) (*message.Message, error) {
	edited, err := messages.FindByID(ctx, id)
	if err != nil || edited == nil || edited.ConversationID != conversationID {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound,
			fmt.Sprintf("Cannot find a message with id %d in this conversation", id), err, "3f0d6a51-8c2e-4b7a-9e64-1d5b2c7a9f08")
	}
	return edited, nil
}

func (m *HistoryMiddleware) Order() int {
	return HistoryOrder
}

func (m *HistoryMiddleware) Invoke(ctx context.Context, chatCtx *ChatContext, next Next) error {
	var configurationID uint
	if chatCtx.Configuration != nil {
		configurationID = chatCtx.Configuration.ID
	}

	history := NewHistory(chatCtx.ConversationID, configurationID, chatCtx, m.messages, m.files, m.log)
	history.AddMessage(ctx, &message.Message{
		Type: message.MessageTypeHuman,
		Data: message.Data{Content: chatCtx.Input},
	}, true, chatCtx.EditMessageID)

	chatCtx.History = history
	return next(ctx, chatCtx)
}

// History tracks one chat turn: the stored thread, the tools used, debug
// output and the sources collected for the answer.
type History struct {
	conversationID  uint
	configurationID uint
	chatCtx         *ChatContext
	messages        MessageStore
	files           ConversationFileStore
	log             zerolog.Logger

	mu              sync.Mutex
	tools           []string
	debug           []string
	sources         []message.Source
	stored          []*message.Message
	currentParentID *uint
}

// NewHistory creates a history bound to the chat context and subscribes to its result stream.
func NewHistory(conversationID, configurationID uint, chatCtx *ChatContext, messages MessageStore, files ConversationFileStore, log zerolog.Logger) *History {
	h := &History{
		conversationID:  conversationID,
		configurationID: configurationID,
		chatCtx:         chatCtx,
		messages:        messages,
		files:           files,
		log:             log,
	}

	if chatCtx.Result != nil {
		chatCtx.Result.Subscribe(func(e Event) {
			h.mu.Lock()
			defer h.mu.Unlock()
			switch e.Type {
			case EventToolStart:
				if e.Tool != nil {
					h.tools = append(h.tools, e.Tool.Name)
				}
			case EventDebug:
				h.debug = append(h.debug, e.Content)
			}
		})
	}
	return h
}

// AddSources records sources found by an extension for the pending AI message.
func (h *History) AddSources(extensionExternalID string, sources []message.Source) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, source := range sources {
		source.ExtensionExternalID = extensionExternalID
		h.sources = append(h.sources, source)
	}
}

// Sources returns the sources recorded so far during the turn.
func (h *History) Sources() []message.Source {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]message.Source(nil), h.sources...)
}

// Messages returns the thread that preceded the current input, root first.
func (h *History) Messages() []*message.Message {
	if h.conversationID <= 0 {
		return []*message.Message{}
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stored == nil {
		return []*message.Message{}
	}
	return h.stored
}

// Tools returns the names of the tools started during the turn.
func (h *History) Tools() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string{}, h.tools...)
}

// AddMessage stores msg in the conversation. Human messages are only stored
// when persistHuman is set. Persistence errors are logged and swallowed so the
// chat answer still reaches the user.
func (h *History) AddMessage(ctx context.Context, msg *message.Message, persistHuman bool, editMessageID *uint) {
	var err error
	switch {
	case msg.Type == message.MessageTypeAI:
		err = h.addAIMessage(ctx, msg)
	case persistHuman:
		err = h.addHumanMessage(ctx, msg, editMessageID)
	}

	if err != nil {
		metrics.RecordHistoryPersistFailure()
		h.log.Error().Err(err).Uint("conversation_id", h.conversationID).Msg("Failed to store message in history.")
	}
}

func (h *History) addAIMessage(ctx context.Context, msg *message.Message) error {
	h.mu.Lock()
	sources := append([]message.Source{}, h.sources...)
	msg.Tools = append([]string{}, h.tools...)
	msg.Debug = append([]string{}, h.debug...)
	msg.Sources = sources
	msg.ParentID = h.currentParentID
	h.mu.Unlock()

	h.publishSourceReferences(sources)

	msg.ConversationID = h.conversationID
	msg.ConfigurationID = h.configurationID
	if err := h.messages.Create(ctx, msg); err != nil {
		return err
	}

	h.setParent(msg.ID)
	h.publish(Event{Type: EventSaved, MessageID: msg.ID, MessageType: message.MessageTypeAI})
	return nil
}

func (h *History) addHumanMessage(ctx context.Context, msg *message.Message, editMessageID *uint) error {
	var parentID *uint
	if editMessageID != nil && *editMessageID > 0 {
		edited, err := findEditedMessage(ctx, h.messages, h.conversationID, *editMessageID)
		if err != nil {
			return err
		}
		parentID = edited.ParentID
	} else {
		latest, err := h.messages.FindLatest(ctx, h.conversationID)
		if err != nil {
			return err
		}
		if latest != nil {
			id := latest.ID
			parentID = &id
		}
	}

	var stored []*message.Message
	if parentID != nil {
		thread, err := h.messages.GetThread(ctx, h.conversationID, *parentID)
		if err != nil {
			return err
		}
		stored = thread
	}

	h.mu.Lock()
	h.currentParentID = parentID
	h.stored = stored
	h.mu.Unlock()

	msg.ConversationID = h.conversationID
	msg.ConfigurationID = h.configurationID
	msg.ParentID = parentID
	msg.Tools = []string{}
	msg.Debug = []string{}
	msg.Sources = []message.Source{}
	if err := h.messages.Create(ctx, msg); err != nil {
		return err
	}
	h.setParent(msg.ID)

	if err := h.attachFiles(ctx, msg.ID); err != nil {
		return err
	}

	h.publish(Event{Type: EventSaved, MessageID: msg.ID, MessageType: message.MessageTypeHuman})
	return nil
}

// attachFiles links the chat files to messageID. Links created by an upload
// without a message get the id; files not linked to the conversation yet get a new link.
func (h *History) attachFiles(ctx context.Context, messageID uint) error {
	if h.files == nil || len(h.chatCtx.Files) == 0 {
		return nil
	}

	fileIDs := make([]uint, 0, len(h.chatCtx.Files))
	for _, f := range h.chatCtx.Files {
		fileIDs = append(fileIDs, f.ID)
	}

	existing, err := h.files.FindByConversationAndFiles(ctx, h.conversationID, fileIDs)
	if err != nil {
		return err
	}

	linked := make(map[uint]bool, len(existing))
	var toUpdate []uint
	for _, cf := range existing {
		linked[cf.FileID] = true
		if cf.MessageID == nil {
			toUpdate = append(toUpdate, cf.ID)
		}
	}

	if len(toUpdate) > 0 {
		if err := h.files.AssignMessage(ctx, toUpdate, messageID); err != nil {
			return err
		}
	}

	for _, fileID := range fileIDs {
		if linked[fileID] {
			continue
		}
		linked[fileID] = true
		id := messageID
		if err := h.files.Create(ctx, &file.ConversationFile{
			ConversationID: h.conversationID,
			MessageID:      &id,
			FileID:         fileID,
		}); err != nil {
			return err
		}
	}
	return nil
}

// publishSourceReferences sends the sources without chunk content; clients
// fetch the content on demand through the document endpoint.
func (h *History) publishSourceReferences(sources []message.Source) {
	if len(sources) == 0 {
		return
	}
	redacted := make([]message.Source, len(sources))
	for i, source := range sources {
		source.Chunk.Content = ""
		redacted[i] = source
	}
	h.publish(Event{Type: EventSources, Sources: redacted})
}

func (h *History) setParent(id uint) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.currentParentID = &id
}

func (h *History) publish(e Event) {
	if h.chatCtx.Result != nil {
		h.chatCtx.Result.Publish(e)
	}
}
