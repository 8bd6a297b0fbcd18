// Package llm talks to an OpenAI-compatible chat completions endpoint.
// The backend turn loop drives it one completion at a time; streaming
// towards the UI is synthesized from per-step responses.
package llm

import (
	"context"
	"net/http"

	"github.com/mfern/kestrel/internal/domain"
)

// HTTPClient lets tests substitute the transport.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Message is one entry of the wire-format conversation.
type Message struct {
	Role             string     `json:"role"`
	Content          string     `json:"content"`
	ReasoningContent string     `json:"reasoning_content,omitempty"`
	ToolCalls        []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID       string     `json:"tool_call_id,omitempty"`
}

// ToolCall mirrors the function-call shape of the completions API.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Request is one completion step.
type Request struct {
	Model    string
	Messages []Message
	Tools    []domain.Tool
}

// Response is the assistant message of one completion step.
type Response struct {
	Content          string
	ReasoningContent string
	ToolCalls        []ToolCall
	Usage            domain.Usage
}

// Provider produces one completion per call.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req *Request) (*Response, error)
}
