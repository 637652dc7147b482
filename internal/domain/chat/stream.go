package chat

import (
	"sync"

	"jan-server/services/assistant-api/internal/domain/message"
)

type EventType string

const (
	EventChunk     EventType = "chunk"
	EventToolStart EventType = "tool_start"
	EventToolEnd   EventType = "tool_end"
	EventDebug     EventType = "debug"
	EventSources   EventType = "sources"
	EventSaved     EventType = "saved"
	EventError     EventType = "error"
	EventCompleted EventType = "completed"
)

type ToolInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
}

// Event is one item of the streamed chat result. Which fields are set depends on Type.
type Event struct {
	Type        EventType
	Content     string
	Tool        *ToolInfo
	Sources     []message.Source
	MessageID   uint
	MessageType message.MessageType
	Error       string
}

// Payload returns the JSON body sent to clients for the event.
func (e Event) Payload() any {
	switch e.Type {
	case EventChunk, EventDebug:
		return map[string]any{"content": e.Content}
	case EventToolStart, EventToolEnd:
		return map[string]any{"tool": e.Tool}
	case EventSources:
		return map[string]any{"content": e.Sources}
	case EventSaved:
		return map[string]any{"messageId": e.MessageID, "messageType": e.MessageType}
	case EventError:
		return map[string]any{"error": e.Error}
	default:
		return map[string]any{}
	}
}

// ResultStream fans chat events out to subscribers. Events published from one
// goroutine are delivered in order; nothing is delivered after Complete.
type ResultStream struct {
	mu          sync.Mutex
	subscribers []func(Event)
	completed   bool
}

func NewResultStream() *ResultStream {
	return &ResultStream{}
}

// Subscribe registers fn for every event published after the call.
func (s *ResultStream) Subscribe(fn func(Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// Publish delivers e synchronously to all subscribers.
func (s *ResultStream) Publish(e Event) {
	s.mu.Lock()
	if s.completed {
		s.mu.Unlock()
		return
	}
	subscribers := append([]func(Event){}, s.subscribers...)
	s.mu.Unlock()

	for _, fn := range subscribers {
		fn(e)
	}
}

// Complete publishes the completed event once. Later calls are no-ops.
func (s *ResultStream) Complete() {
	s.mu.Lock()
	if s.completed {
		s.mu.Unlock()
		return
	}
	s.completed = true
	subscribers := append([]func(Event){}, s.subscribers...)
	s.mu.Unlock()

	for _, fn := range subscribers {
		fn(Event{Type: EventCompleted})
	}
}

func (s *ResultStream) Completed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completed
}
