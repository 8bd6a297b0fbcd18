// Package agent runs turns against the model provider: it builds the
// conversation, executes tool calls with approval gating, and reports
// progress as chat events.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mfern/kestrel/internal/auth"
	"github.com/mfern/kestrel/internal/backend"
	"github.com/mfern/kestrel/internal/config"
	"github.com/mfern/kestrel/internal/domain"
	"github.com/mfern/kestrel/internal/llm"
	"github.com/mfern/kestrel/internal/logging"
	"github.com/mfern/kestrel/internal/skills"
	"github.com/mfern/kestrel/internal/storage"
	"github.com/mfern/kestrel/internal/tool"
)

const (
	maxToolSteps = 20
	eventBuffer  = 64

	rejectedSummary = "User rejected tool request."
)

type Agent struct {
	store *storage.Storage
	auth  *auth.Store
	log   *logging.Logger

	// Overridable for tests.
	newProvider func(token, apiBase string) llm.Provider
	newRegistry func(workDir string) *tool.Registry

	mu        sync.Mutex
	cancels   map[string]*turnHandle
	approvals map[string]chan bool
}

// turnHandle identifies one in-flight turn so a finishing turn only
// removes its own registration.
type turnHandle struct {
	id     string
	cancel context.CancelFunc
}

func New(store *storage.Storage, authStore *auth.Store) *Agent {
	return &Agent{
		store: store,
		auth:  authStore,
		log:   logging.New("agent"),
		newProvider: func(token, apiBase string) llm.Provider {
			return llm.NewClient(token, apiBase)
		},
		newRegistry: tool.DefaultRegistry,
		cancels:     make(map[string]*turnHandle),
		approvals:   make(map[string]chan bool),
	}
}

func (a *Agent) StartTurn(ctx context.Context, sessionID, message string, settings domain.Settings) (<-chan domain.ChatEvent, error) {
	sess, err := a.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	token, apiBase, err := a.auth.Credentials()
	if err != nil {
		return nil, err
	}
	history, err := a.store.ListMessages(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	workDir := config.ResolveWorkDir(sess.WorkDir, settings)
	home, _ := os.UserHomeDir()
	available, _ := skills.Discover(home, workDir, settings.SkillsDir)

	// The turn outlives the call that started it; only CancelTurn or a
	// terminal event ends it.
	turnCtx, cancel := context.WithCancel(context.Background())
	handle := &turnHandle{id: uuid.NewString(), cancel: cancel}
	a.mu.Lock()
	if prev, ok := a.cancels[sessionID]; ok {
		prev.cancel()
	}
	a.cancels[sessionID] = handle
	a.mu.Unlock()

	events := make(chan domain.ChatEvent, eventBuffer)
	t := &turn{
		agent:     a,
		handle:    handle,
		sessionID: sessionID,
		workDir:   workDir,
		model:     config.ResolveModel(settings),
		yolo:      settings.Yolo,
		provider:  a.newProvider(token, apiBase),
		registry:  a.newRegistry(workDir),
		events:    events,
		log:       a.log.WithSession(sessionID),
	}
	go t.run(turnCtx, message, history, available)
	return events, nil
}

func (a *Agent) CancelTurn(sessionID string) {
	a.mu.Lock()
	handle, ok := a.cancels[sessionID]
	a.mu.Unlock()
	if ok {
		handle.cancel()
	}
}

func (a *Agent) RespondApproval(requestID string, approved bool) error {
	a.mu.Lock()
	reply, ok := a.approvals[requestID]
	if ok {
		delete(a.approvals, requestID)
	}
	a.mu.Unlock()
	if ok {
		reply <- approved
	}
	return nil
}

func (a *Agent) CreateSession(ctx context.Context, sess *domain.Session) error {
	return a.store.CreateSession(ctx, sess)
}

func (a *Agent) ListSessions(ctx context.Context, workDir string) ([]*domain.Session, error) {
	return a.store.ListSessions(ctx, workDir, 0)
}

func (a *Agent) DeleteSession(ctx context.Context, sessionID string) error {
	a.CancelTurn(sessionID)
	return a.store.DeleteSession(ctx, sessionID)
}

func (a *Agent) PersistMessage(ctx context.Context, sessionID string, role domain.Role, content string) error {
	msg := &domain.Message{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
	if err := a.store.CreateMessage(ctx, msg); err != nil {
		return err
	}
	return a.store.TouchSession(ctx, sessionID, msg.Timestamp)
}

func (a *Agent) LoadSessionMessages(ctx context.Context, sessionID string) ([]*domain.Message, error) {
	return a.store.ListMessages(ctx, sessionID)
}

func (a *Agent) SearchFiles(ctx context.Context, workDir, query string, limit int) ([]string, error) {
	return tool.SearchPaths(workDir, query, limit)
}

func (a *Agent) clearTurn(sessionID string, handle *turnHandle) {
	handle.cancel()
	a.mu.Lock()
	if cur, ok := a.cancels[sessionID]; ok && cur.id == handle.id {
		delete(a.cancels, sessionID)
	}
	a.mu.Unlock()
}

// turn carries the state for one streaming cycle.
type turn struct {
	agent     *Agent
	handle    *turnHandle
	sessionID string
	workDir   string
	model     string
	yolo      bool
	provider  llm.Provider
	registry  *tool.Registry
	events    chan<- domain.ChatEvent
	log       *logging.Logger
}

func (t *turn) emit(ev domain.ChatEvent) {
	t.events <- ev
}

func (t *turn) run(ctx context.Context, userMessage string, history []*domain.Message, available []domain.Skill) {
	defer close(t.events)
	defer t.agent.clearTurn(t.sessionID, t.handle)

	msgs := []llm.Message{{Role: "system", Content: systemPrompt(t.workDir, available)}}
	for _, m := range history {
		if m.Role == domain.RoleUser || m.Role == domain.RoleAssistant {
			msgs = append(msgs, llm.Message{Role: string(m.Role), Content: m.Content})
		}
	}
	msgs = append(msgs, llm.Message{Role: "user", Content: expandSkills(userMessage, available)})

	for step := 0; step < maxToolSteps; step++ {
		if ctx.Err() != nil {
			t.emit(domain.CancelledEvent())
			return
		}

		resp, err := t.provider.Complete(ctx, &llm.Request{
			Model:    t.model,
			Messages: msgs,
			Tools:    t.registry.Definitions(),
		})
		if err != nil {
			if ctx.Err() != nil {
				t.emit(domain.CancelledEvent())
			} else {
				t.log.Error("completion_failed", map[string]any{"step": step}, err)
				t.emit(domain.ErrorEvent(err.Error()))
			}
			return
		}

		if resp.ReasoningContent != "" {
			t.emit(domain.ThinkingEvent(resp.ReasoningContent))
		}

		if len(resp.ToolCalls) > 0 {
			msgs = append(msgs, llm.Message{
				Role:             "assistant",
				Content:          resp.Content,
				ReasoningContent: resp.ReasoningContent,
				ToolCalls:        resp.ToolCalls,
			})
			cancelled := false
			for _, call := range resp.ToolCalls {
				var reply llm.Message
				reply, cancelled = t.handleToolCall(ctx, call)
				if cancelled {
					break
				}
				msgs = append(msgs, reply)
			}
			if cancelled {
				t.emit(domain.CancelledEvent())
				return
			}
			continue
		}

		if resp.Content != "" {
			t.emit(domain.ChunkEvent(resp.Content))
			usage := resp.Usage
			t.emit(domain.DoneEvent(&usage))
			return
		}
	}

	t.emit(domain.ErrorEvent("exceeded maximum tool steps"))
}

// handleToolCall runs one tool call through approval, execution, and
// events. It returns the tool reply message for the model, or
// cancelled=true when the turn was cancelled while waiting.
func (t *turn) handleToolCall(ctx context.Context, call llm.ToolCall) (reply llm.Message, cancelled bool) {
	id := call.ID
	if id == "" {
		id = uuid.NewString()
	}
	name := call.Function.Name

	var args map[string]any
	if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil || args == nil {
		args = map[string]any{}
	}
	label := tool.Label(name, args)

	approved := true
	if tool.NeedsApproval(name) && !t.yolo {
		var answered bool
		approved, answered = t.requestApproval(ctx, id, name, args)
		if !answered {
			return llm.Message{}, true
		}
	}

	var out *tool.Result
	if approved {
		t.emit(domain.ToolStatusEvent(domain.ToolStatus{
			ToolCallID: id, Name: name, Label: label, State: domain.ToolStateStart,
		}))
		out = t.registry.Execute(ctx, name, args)
		ok := out.OK
		t.emit(domain.ToolStatusEvent(domain.ToolStatus{
			ToolCallID: id, Name: name, Label: label, State: domain.ToolStateEnd,
			OK: &ok, Summary: out.Summary,
		}))
	} else {
		rejected := false
		t.emit(domain.ToolStatusEvent(domain.ToolStatus{
			ToolCallID: id, Name: name, Label: label, State: domain.ToolStateEnd,
			OK: &rejected, Summary: rejectedSummary,
		}))
		out = &tool.Result{Summary: rejectedSummary}
	}

	t.emit(domain.ToolResultEvent(domain.ToolResult{
		ToolCallID: id, Name: name, OK: out.OK, Summary: out.Summary, Output: out.Output,
	}))

	content, _ := json.Marshal(map[string]any{
		"ok":      out.OK,
		"summary": out.Summary,
		"output":  out.Output,
	})
	return llm.Message{Role: "tool", ToolCallID: id, Content: string(content)}, false
}

// requestApproval parks the turn until the user answers or the turn is
// cancelled. answered=false means cancellation.
func (t *turn) requestApproval(ctx context.Context, toolCallID, name string, args map[string]any) (approved, answered bool) {
	requestID := t.sessionID + ":" + toolCallID
	reply := make(chan bool, 1)

	t.agent.mu.Lock()
	t.agent.approvals[requestID] = reply
	t.agent.mu.Unlock()

	t.emit(domain.ToolApprovalEvent(domain.ToolApproval{
		RequestID: requestID, Name: name, Args: args,
	}))

	select {
	case <-ctx.Done():
		t.agent.mu.Lock()
		delete(t.agent.approvals, requestID)
		t.agent.mu.Unlock()
		return false, false
	case v := <-reply:
		return v, true
	}
}

var _ backend.Backend = (*Agent)(nil)
