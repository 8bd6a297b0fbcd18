package agent

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfern/kestrel/internal/auth"
	"github.com/mfern/kestrel/internal/domain"
	"github.com/mfern/kestrel/internal/llm"
	"github.com/mfern/kestrel/internal/storage"
	"github.com/mfern/kestrel/internal/tool"
)

type fakeProvider struct {
	mu        sync.Mutex
	requests  []*llm.Request
	responses []*llm.Response
	err       error
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Complete(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	if len(f.responses) == 0 {
		return &llm.Response{Content: "fallback"}, nil
	}
	r := f.responses[0]
	f.responses = f.responses[1:]
	return r, nil
}

func (f *fakeProvider) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeProvider) lastRequest() *llm.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

type echoTool struct {
	name     string
	out      tool.Result
	executed bool
}

func (e *echoTool) Info() domain.Tool {
	return domain.Tool{Name: e.name, Parameters: domain.JSONSchema{"type": "object"}}
}

func (e *echoTool) Execute(ctx context.Context, args map[string]any) (*tool.Result, error) {
	e.executed = true
	out := e.out
	return &out, nil
}

func newTestAgent(t *testing.T, provider *fakeProvider, tools ...tool.Executor) (*Agent, string) {
	t.Helper()

	store, err := storage.New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	authStore := auth.NewStore(filepath.Join(t.TempDir(), "auth.json"))
	require.NoError(t, authStore.SetAPIKey("test-key", ""))

	a := New(store, authStore)
	a.newProvider = func(token, apiBase string) llm.Provider { return provider }
	a.newRegistry = func(workDir string) *tool.Registry {
		r := tool.NewRegistry()
		for _, tl := range tools {
			r.Register(tl)
		}
		return r
	}

	now := time.Now().UTC()
	sess := &domain.Session{
		ID: "sess-1", Title: "test", WorkDir: t.TempDir(),
		CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, a.CreateSession(context.Background(), sess))

	return a, sess.ID
}

func drain(t *testing.T, events <-chan domain.ChatEvent) []domain.ChatEvent {
	t.Helper()
	var out []domain.ChatEvent
	timeout := time.After(10 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-timeout:
			t.Fatalf("timed out draining events, got %d so far", len(out))
		}
	}
}

func kinds(events []domain.ChatEvent) []domain.ChatEventKind {
	out := make([]domain.ChatEventKind, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Kind)
	}
	return out
}

func TestTurnPlainContent(t *testing.T) {
	provider := &fakeProvider{responses: []*llm.Response{{
		Content:          "hello there",
		ReasoningContent: "pondering",
		Usage:            domain.Usage{PromptTokens: 3, CompletionTokens: 4, TotalTokens: 7},
	}}}
	a, sessID := newTestAgent(t, provider)

	events, err := a.StartTurn(context.Background(), sessID, "hi", domain.Settings{})
	require.NoError(t, err)

	got := drain(t, events)
	require.Equal(t, []domain.ChatEventKind{
		domain.EventThinking, domain.EventChunk, domain.EventDone,
	}, kinds(got))
	assert.Equal(t, "pondering", got[0].Thinking.Content)
	assert.Equal(t, "hello there", got[1].Chunk.Content)
	require.NotNil(t, got[2].Done.Usage)
	assert.Equal(t, 7, got[2].Done.Usage.TotalTokens)
}

func TestTurnToolCallNoApproval(t *testing.T) {
	reader := &echoTool{name: "lookup", out: tool.Result{OK: true, Summary: "found it", Output: "data"}}
	provider := &fakeProvider{responses: []*llm.Response{
		{ToolCalls: []llm.ToolCall{{
			ID: "call-1", Type: "function",
			Function: llm.FunctionCall{Name: "lookup", Arguments: `{"q":"x"}`},
		}}},
		{Content: "here is the answer"},
	}}
	a, sessID := newTestAgent(t, provider, reader)

	events, err := a.StartTurn(context.Background(), sessID, "find x", domain.Settings{})
	require.NoError(t, err)

	got := drain(t, events)
	require.Equal(t, []domain.ChatEventKind{
		domain.EventToolStatus, domain.EventToolStatus, domain.EventToolResult,
		domain.EventChunk, domain.EventDone,
	}, kinds(got))

	assert.True(t, reader.executed)
	assert.Equal(t, domain.ToolStateStart, got[0].ToolStatus.State)
	assert.Equal(t, domain.ToolStateEnd, got[1].ToolStatus.State)
	assert.Equal(t, "call-1", got[1].ToolStatus.ToolCallID)
	require.NotNil(t, got[1].ToolStatus.OK)
	assert.True(t, *got[1].ToolStatus.OK)
	assert.Equal(t, "found it", got[2].ToolResult.Summary)

	// The tool reply went back to the model on the second request.
	last := provider.lastRequest()
	final := last.Messages[len(last.Messages)-1]
	assert.Equal(t, "tool", final.Role)
	assert.Equal(t, "call-1", final.ToolCallID)
	assert.Contains(t, final.Content, "found it")
}

func TestTurnApprovalApproved(t *testing.T) {
	sh := &echoTool{name: "shell", out: tool.Result{OK: true, Summary: "ran"}}
	provider := &fakeProvider{responses: []*llm.Response{
		{ToolCalls: []llm.ToolCall{{
			ID: "call-9", Type: "function",
			Function: llm.FunctionCall{Name: "shell", Arguments: `{"command":"ls"}`},
		}}},
		{Content: "done"},
	}}
	a, sessID := newTestAgent(t, provider, sh)

	events, err := a.StartTurn(context.Background(), sessID, "run ls", domain.Settings{})
	require.NoError(t, err)

	first := <-events
	require.Equal(t, domain.EventToolApproval, first.Kind)
	assert.Equal(t, sessID+":call-9", first.ToolApproval.RequestID)
	assert.Equal(t, "shell", first.ToolApproval.Name)

	require.NoError(t, a.RespondApproval(first.ToolApproval.RequestID, true))

	got := drain(t, events)
	assert.True(t, sh.executed)
	require.Equal(t, []domain.ChatEventKind{
		domain.EventToolStatus, domain.EventToolStatus, domain.EventToolResult,
		domain.EventChunk, domain.EventDone,
	}, kinds(got))
}

func TestTurnApprovalRejected(t *testing.T) {
	sh := &echoTool{name: "shell", out: tool.Result{OK: true, Summary: "ran"}}
	provider := &fakeProvider{responses: []*llm.Response{
		{ToolCalls: []llm.ToolCall{{
			ID: "call-2", Type: "function",
			Function: llm.FunctionCall{Name: "shell", Arguments: `{"command":"rm -rf /"}`},
		}}},
		{Content: "understood"},
	}}
	a, sessID := newTestAgent(t, provider, sh)

	events, err := a.StartTurn(context.Background(), sessID, "please", domain.Settings{})
	require.NoError(t, err)

	first := <-events
	require.Equal(t, domain.EventToolApproval, first.Kind)
	require.NoError(t, a.RespondApproval(first.ToolApproval.RequestID, false))

	got := drain(t, events)
	assert.False(t, sh.executed)

	require.Equal(t, []domain.ChatEventKind{
		domain.EventToolStatus, domain.EventToolResult,
		domain.EventChunk, domain.EventDone,
	}, kinds(got))
	require.NotNil(t, got[0].ToolStatus.OK)
	assert.False(t, *got[0].ToolStatus.OK)
	assert.Equal(t, rejectedSummary, got[0].ToolStatus.Summary)
	assert.False(t, got[1].ToolResult.OK)
}

func TestTurnYoloSkipsApproval(t *testing.T) {
	sh := &echoTool{name: "shell", out: tool.Result{OK: true, Summary: "ran"}}
	provider := &fakeProvider{responses: []*llm.Response{
		{ToolCalls: []llm.ToolCall{{
			ID: "call-3", Type: "function",
			Function: llm.FunctionCall{Name: "shell", Arguments: `{"command":"ls"}`},
		}}},
		{Content: "done"},
	}}
	a, sessID := newTestAgent(t, provider, sh)

	events, err := a.StartTurn(context.Background(), sessID, "run", domain.Settings{Yolo: true})
	require.NoError(t, err)

	got := drain(t, events)
	assert.True(t, sh.executed)
	assert.NotContains(t, kinds(got), domain.EventToolApproval)
}

func TestTurnCancelDuringApproval(t *testing.T) {
	sh := &echoTool{name: "shell"}
	provider := &fakeProvider{responses: []*llm.Response{
		{ToolCalls: []llm.ToolCall{{
			ID: "call-4", Type: "function",
			Function: llm.FunctionCall{Name: "shell", Arguments: `{}`},
		}}},
	}}
	a, sessID := newTestAgent(t, provider, sh)

	events, err := a.StartTurn(context.Background(), sessID, "run", domain.Settings{})
	require.NoError(t, err)

	first := <-events
	require.Equal(t, domain.EventToolApproval, first.Kind)

	a.CancelTurn(sessID)

	got := drain(t, events)
	require.NotEmpty(t, got)
	assert.Equal(t, domain.EventCancelled, got[len(got)-1].Kind)
	assert.False(t, sh.executed)
}

func TestTurnProviderError(t *testing.T) {
	provider := &fakeProvider{err: assert.AnError}
	a, sessID := newTestAgent(t, provider)

	events, err := a.StartTurn(context.Background(), sessID, "hi", domain.Settings{})
	require.NoError(t, err)

	got := drain(t, events)
	require.Len(t, got, 1)
	assert.Equal(t, domain.EventError, got[0].Kind)
	assert.Contains(t, got[0].Error.Message, assert.AnError.Error())
}

func TestTurnExceedsMaxSteps(t *testing.T) {
	lookup := &echoTool{name: "lookup", out: tool.Result{OK: true, Summary: "ok"}}
	// Every step returns another tool call, never a final answer.
	responses := make([]*llm.Response, maxToolSteps)
	for i := range responses {
		responses[i] = &llm.Response{ToolCalls: []llm.ToolCall{{
			ID: "loop", Type: "function",
			Function: llm.FunctionCall{Name: "lookup", Arguments: `{}`},
		}}}
	}
	provider := &fakeProvider{responses: responses}
	a, sessID := newTestAgent(t, provider, lookup)

	events, err := a.StartTurn(context.Background(), sessID, "loop", domain.Settings{})
	require.NoError(t, err)

	got := drain(t, events)
	require.NotEmpty(t, got)
	last := got[len(got)-1]
	assert.Equal(t, domain.EventError, last.Kind)
	assert.Contains(t, last.Error.Message, "maximum tool steps")
	assert.Equal(t, maxToolSteps, provider.requestCount())
}

func TestStartTurnNotLoggedIn(t *testing.T) {
	store, err := storage.New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	a := New(store, auth.NewStore(filepath.Join(t.TempDir(), "auth.json")))

	now := time.Now().UTC()
	sess := &domain.Session{ID: "s", Title: "t", WorkDir: t.TempDir(), CreatedAt: now, UpdatedAt: now}
	require.NoError(t, a.CreateSession(context.Background(), sess))

	_, err = a.StartTurn(context.Background(), sess.ID, "hi", domain.Settings{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not logged in")
}

func TestStartTurnUnknownSession(t *testing.T) {
	provider := &fakeProvider{}
	a, _ := newTestAgent(t, provider)

	_, err := a.StartTurn(context.Background(), "missing", "hi", domain.Settings{})
	assert.Error(t, err)
}

func TestTurnIncludesHistory(t *testing.T) {
	provider := &fakeProvider{responses: []*llm.Response{{Content: "reply"}}}
	a, sessID := newTestAgent(t, provider)
	ctx := context.Background()

	require.NoError(t, a.PersistMessage(ctx, sessID, domain.RoleUser, "earlier question"))
	require.NoError(t, a.PersistMessage(ctx, sessID, domain.RoleAssistant, "earlier answer"))

	events, err := a.StartTurn(ctx, sessID, "follow-up", domain.Settings{})
	require.NoError(t, err)
	drain(t, events)

	req := provider.lastRequest()
	require.GreaterOrEqual(t, len(req.Messages), 4)
	assert.Equal(t, "system", req.Messages[0].Role)
	assert.Equal(t, "earlier question", req.Messages[1].Content)
	assert.Equal(t, "earlier answer", req.Messages[2].Content)
	assert.Equal(t, "follow-up", req.Messages[len(req.Messages)-1].Content)
}

func TestRespondApprovalStaleRequest(t *testing.T) {
	provider := &fakeProvider{}
	a, _ := newTestAgent(t, provider)
	assert.NoError(t, a.RespondApproval("never-issued", true))
}
