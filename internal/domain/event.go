package domain

import "fmt"

// ChatEventKind tags the variants of the chat event union.
type ChatEventKind string

const (
	EventChunk        ChatEventKind = "chunk"
	EventThinking     ChatEventKind = "thinking"
	EventToolStatus   ChatEventKind = "tool_status"
	EventToolResult   ChatEventKind = "tool_result"
	EventToolApproval ChatEventKind = "tool_approval"
	EventDone         ChatEventKind = "done"
	EventCancelled    ChatEventKind = "cancelled"
	EventError        ChatEventKind = "error"
)

// ToolState is the lifecycle state carried by a tool_status event.
type ToolState string

const (
	ToolStateStart ToolState = "start"
	ToolStateEnd   ToolState = "end"
)

// ChatEvent is one streaming event for the active turn. Exactly the payload
// field matching Kind is set; the rest are nil.
type ChatEvent struct {
	Kind         ChatEventKind `json:"kind"`
	Chunk        *ChunkData    `json:"chunk,omitempty"`
	Thinking     *ThinkingData `json:"thinking,omitempty"`
	ToolStatus   *ToolStatus   `json:"toolStatus,omitempty"`
	ToolResult   *ToolResult   `json:"toolResult,omitempty"`
	ToolApproval *ToolApproval `json:"toolApproval,omitempty"`
	Done         *DoneData     `json:"done,omitempty"`
	Error        *ErrorData    `json:"error,omitempty"`
}

type ChunkData struct {
	Content string `json:"content"`
}

type ThinkingData struct {
	Content string `json:"content"`
}

type ToolStatus struct {
	ToolCallID string    `json:"tool_call_id"`
	Name       string    `json:"name"`
	Label      string    `json:"label"`
	State      ToolState `json:"state"`
	OK         *bool     `json:"ok,omitempty"`
	Summary    string    `json:"summary,omitempty"`
}

type ToolResult struct {
	ToolCallID string `json:"tool_call_id"`
	Name       string `json:"name,omitempty"`
	OK         bool   `json:"ok"`
	Summary    string `json:"summary,omitempty"`
	Output     string `json:"output,omitempty"`
}

type ToolApproval struct {
	RequestID string         `json:"request_id"`
	Name      string         `json:"name"`
	Args      map[string]any `json:"args"`
}

type DoneData struct {
	Usage *Usage `json:"usage,omitempty"`
}

type ErrorData struct {
	Message string `json:"message"`
}

// Usage reports token accounting for a completed turn.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

var knownKinds = map[ChatEventKind]bool{
	EventChunk:        true,
	EventThinking:     true,
	EventToolStatus:   true,
	EventToolResult:   true,
	EventToolApproval: true,
	EventDone:         true,
	EventCancelled:    true,
	EventError:        true,
}

// Validate rejects events with unknown tags. Unknown kinds are a protocol
// error, not something to ignore silently.
func (e ChatEvent) Validate() error {
	if !knownKinds[e.Kind] {
		return fmt.Errorf("unknown chat event kind %q", e.Kind)
	}
	return nil
}

// Terminal reports whether the event ends the turn.
func (e ChatEvent) Terminal() bool {
	switch e.Kind {
	case EventDone, EventCancelled, EventError:
		return true
	}
	return false
}

// Constructors keep payload/kind pairing in one place.

func ChunkEvent(content string) ChatEvent {
	return ChatEvent{Kind: EventChunk, Chunk: &ChunkData{Content: content}}
}

func ThinkingEvent(content string) ChatEvent {
	return ChatEvent{Kind: EventThinking, Thinking: &ThinkingData{Content: content}}
}

func ToolStatusEvent(s ToolStatus) ChatEvent {
	return ChatEvent{Kind: EventToolStatus, ToolStatus: &s}
}

func ToolResultEvent(r ToolResult) ChatEvent {
	return ChatEvent{Kind: EventToolResult, ToolResult: &r}
}

func ToolApprovalEvent(a ToolApproval) ChatEvent {
	return ChatEvent{Kind: EventToolApproval, ToolApproval: &a}
}

func DoneEvent(usage *Usage) ChatEvent {
	return ChatEvent{Kind: EventDone, Done: &DoneData{Usage: usage}}
}

func CancelledEvent() ChatEvent {
	return ChatEvent{Kind: EventCancelled}
}

func ErrorEvent(message string) ChatEvent {
	return ChatEvent{Kind: EventError, Error: &ErrorData{Message: message}}
}
