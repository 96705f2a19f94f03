// Package events defines the typed observability events emitted by the
// orchestration loop and the HTTP surface, plus the emitter that fans them
// out to registered listeners.
package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType identifies an event family.
type EventType string

const (
	// Conversation events
	ConversationStart EventType = "conversation_start"
	ConversationTurn  EventType = "conversation_turn"
	ConversationEnd   EventType = "conversation_end"
	ConversationError EventType = "conversation_error"

	// Tool events
	ToolCallStart EventType = "tool_call_start"
	ToolCallEnd   EventType = "tool_call_end"
	ToolCallError EventType = "tool_call_error"

	// Streaming events
	StreamingStart EventType = "streaming_start"
	StreamingEnd   EventType = "streaming_end"

	// Degraded-mode events
	FallbackEngaged  EventType = "fallback_engaged"
	MaxRoundsReached EventType = "max_rounds_reached"
)

// EventData is implemented by every typed event payload.
type EventData interface {
	GetEventType() EventType
}

// BaseEventData carries fields common to all events.
type BaseEventData struct {
	Timestamp time.Time `json:"timestamp"`
	TraceID   string    `json:"trace_id,omitempty"`
}

// Event wraps typed event data with identity for listeners.
type Event struct {
	ID        string    `json:"event_id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      EventData `json:"data"`
}

// GenerateEventID creates a unique event identifier.
func GenerateEventID() string {
	return uuid.NewString()
}

// NewEvent wraps event data into an Event envelope.
func NewEvent(data EventData) *Event {
	return &Event{
		ID:        GenerateEventID(),
		Type:      data.GetEventType(),
		Timestamp: time.Now(),
		Data:      data,
	}
}

// ConversationStartEvent marks the beginning of one orchestrated exchange.
type ConversationStartEvent struct {
	BaseEventData
	Question   string `json:"question"`
	PersonID   string `json:"person_id"`
	ToolsCount int    `json:"tools_count"`
	History    int    `json:"history_messages"`
}

func (e *ConversationStartEvent) GetEventType() EventType { return ConversationStart }

// ConversationTurnEvent marks one completion-service round trip.
type ConversationTurnEvent struct {
	BaseEventData
	Round        int `json:"round"`
	MessageCount int `json:"message_count"`
	ToolCalls    int `json:"tool_calls"`
}

func (e *ConversationTurnEvent) GetEventType() EventType { return ConversationTurn }

// ConversationEndEvent marks a terminal model response.
type ConversationEndEvent struct {
	BaseEventData
	Rounds       int           `json:"rounds"`
	ToolsUsed    int           `json:"tools_used"`
	AnswerLength int           `json:"answer_length"`
	Duration     time.Duration `json:"duration"`
}

func (e *ConversationEndEvent) GetEventType() EventType { return ConversationEnd }

// ConversationErrorEvent marks a completion-service failure that aborts the loop.
type ConversationErrorEvent struct {
	BaseEventData
	Round int    `json:"round"`
	Error string `json:"error"`
}

func (e *ConversationErrorEvent) GetEventType() EventType { return ConversationError }

// ToolCallStartEvent marks dispatch of one tool invocation.
type ToolCallStartEvent struct {
	BaseEventData
	Round        int    `json:"round"`
	ToolName     string `json:"tool_name"`
	InvocationID string `json:"invocation_id"`
	Endpoint     string `json:"endpoint,omitempty"`
	IsParallel   bool   `json:"is_parallel"`
}

func (e *ToolCallStartEvent) GetEventType() EventType { return ToolCallStart }

// ToolCallEndEvent marks a successful tool result.
type ToolCallEndEvent struct {
	BaseEventData
	Round        int           `json:"round"`
	ToolName     string        `json:"tool_name"`
	InvocationID string        `json:"invocation_id"`
	ResultBytes  int           `json:"result_bytes"`
	Duration     time.Duration `json:"duration"`
}

func (e *ToolCallEndEvent) GetEventType() EventType { return ToolCallEnd }

// ToolCallErrorEvent marks a captured tool failure. The loop continues.
type ToolCallErrorEvent struct {
	BaseEventData
	Round        int           `json:"round"`
	ToolName     string        `json:"tool_name"`
	InvocationID string        `json:"invocation_id"`
	Error        string        `json:"error"`
	Duration     time.Duration `json:"duration"`
}

func (e *ToolCallErrorEvent) GetEventType() EventType { return ToolCallError }

// StreamingStartEvent marks the start of SSE emission to a client.
type StreamingStartEvent struct {
	BaseEventData
	AnswerLength int `json:"answer_length"`
}

func (e *StreamingStartEvent) GetEventType() EventType { return StreamingStart }

// StreamingEndEvent marks the end of SSE emission, whether completed or
// cut short by a client disconnect.
type StreamingEndEvent struct {
	BaseEventData
	ChunksSent   int  `json:"chunks_sent"`
	Disconnected bool `json:"disconnected"`
}

func (e *StreamingEndEvent) GetEventType() EventType { return StreamingEnd }

// FallbackEngagedEvent marks activation of the degraded-answer path.
type FallbackEngagedEvent struct {
	BaseEventData
	Tier  int    `json:"tier"`
	Cause string `json:"cause"`
}

func (e *FallbackEngagedEvent) GetEventType() EventType { return FallbackEngaged }

// MaxRoundsReachedEvent marks a conversation aborted by the round cap.
type MaxRoundsReachedEvent struct {
	BaseEventData
	MaxRounds int `json:"max_rounds"`
}

func (e *MaxRoundsReachedEvent) GetEventType() EventType { return MaxRoundsReached }
