package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/mfern/kestrel/internal/domain"
)

const defaultBaseURL = "https://api.kimi.com/coding/v1"

// Client is an OpenAI-compatible chat completions client.
type Client struct {
	token   string
	baseURL string
	http    HTTPClient
}

func NewClient(token, baseURLOverride string) *Client {
	return NewClientWithHTTP(token, baseURLOverride, &http.Client{})
}

func NewClientWithHTTP(token, baseURLOverride string, httpClient HTTPClient) *Client {
	baseURL := baseURLOverride
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimSuffix(baseURL, "/")
	return &Client{
		token:   token,
		baseURL: baseURL,
		http:    httpClient,
	}
}

func (c *Client) Name() string { return "openai-compatible" }

type wireRequest struct {
	Model      string     `json:"model"`
	Messages   []Message  `json:"messages"`
	Stream     bool       `json:"stream"`
	Tools      []wireTool `json:"tools,omitempty"`
	ToolChoice string     `json:"tool_choice,omitempty"`
}

type wireTool struct {
	Type     string           `json:"type"`
	Function wireToolFunction `json:"function"`
}

type wireToolFunction struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Parameters  domain.JSONSchema `json:"parameters"`
}

type wireResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// Complete performs one non-streaming completion step.
func (c *Client) Complete(ctx context.Context, req *Request) (*Response, error) {
	wire := wireRequest{
		Model:    req.Model,
		Messages: req.Messages,
		Stream:   false,
	}
	if len(req.Tools) > 0 {
		for _, t := range req.Tools {
			wire.Tools = append(wire.Tools, wireTool{
				Type: "function",
				Function: wireToolFunction{
					Name:        t.Name,
					Description: t.Description,
					Parameters:  t.Parameters,
				},
			})
		}
		wire.ToolChoice = "auto"
	}

	body, err := json.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("api error %d: %s", resp.StatusCode, strings.TrimSpace(string(text)))
	}

	var parsed wireResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("no message in response")
	}

	msg := parsed.Choices[0].Message
	usage := domain.Usage{
		PromptTokens:     parsed.Usage.PromptTokens,
		CompletionTokens: parsed.Usage.CompletionTokens,
		TotalTokens:      parsed.Usage.TotalTokens,
	}
	if usage.TotalTokens == 0 {
		usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
	}

	return &Response{
		Content:          msg.Content,
		ReasoningContent: msg.ReasoningContent,
		ToolCalls:        msg.ToolCalls,
		Usage:            usage,
	}, nil
}

var _ Provider = (*Client)(nil)
