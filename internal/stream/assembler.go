// Package stream assembles chat events for one turn into renderable
// buffers: assistant text, thinking text, and one row per tool call.
package stream

import (
	"context"
	"strings"

	"github.com/mfern/kestrel/internal/domain"
	"github.com/mfern/kestrel/internal/logging"
)

// ToolEntry is the visible state of one tool call, keyed by its id.
// Events for a known id update the entry in place; the rendered row is
// reformatted from the entry every time, never appended to.
type ToolEntry struct {
	ToolCallID string
	Label      string
	Summary    string
	Output     string
	Done       bool
	OK         *bool
}

// Render reformats the full row text from the entry's current fields.
func (e *ToolEntry) Render() string {
	parts := make([]string, 0, 3)
	if e.Label != "" {
		parts = append(parts, e.Label)
	} else {
		parts = append(parts, e.ToolCallID)
	}
	if e.Summary != "" {
		parts = append(parts, e.Summary)
	}
	if e.Output != "" {
		parts = append(parts, e.Output)
	}
	return strings.Join(parts, "\n")
}

// View is the display surface the assembler renders into.
type View interface {
	RenderAssistant(text string)
	RenderThinking(text string)
	RenderTool(entry ToolEntry)
	Notice(message string)
}

// Scheduler defers a render to the next tick. Implementations coalesce:
// the function runs once per tick no matter how often it was scheduled.
// The TUI backs this with its frame timer; tests drive it by hand.
type Scheduler interface {
	Schedule(fn func())
}

// Persister saves the assembled assistant text when the turn ends.
type Persister interface {
	PersistMessage(ctx context.Context, sessionID string, role domain.Role, content string) error
}

// Outcome says how a turn ended.
type Outcome int

const (
	OutcomeDone Outcome = iota
	OutcomeCancelled
	OutcomeError
)

// Assembler accumulates one turn's streaming output. All methods must be
// called from the same goroutine; renders scheduled through the Scheduler
// come back on that goroutine too.
type Assembler struct {
	view    View
	sched   Scheduler
	persist Persister
	log     *logging.Logger

	sessionID string
	// generation detects stale renders: a scheduled render captured under
	// an earlier generation discards itself instead of drawing over the
	// next turn's view.
	generation int

	text       strings.Builder
	thinking   strings.Builder
	entries    map[string]*ToolEntry
	entryOrder []string

	textQueued     bool
	thinkingQueued bool
	finished       bool
}

func NewAssembler(view View, sched Scheduler, persister Persister) *Assembler {
	return &Assembler{
		view:    view,
		sched:   sched,
		persist: persister,
		log:     logging.New("stream"),
		entries: make(map[string]*ToolEntry),
	}
}

// Reset prepares the assembler for a new turn. Any render still queued
// for the previous turn becomes stale and is discarded when it fires.
func (a *Assembler) Reset(sessionID string) {
	a.generation++
	a.sessionID = sessionID
	a.text.Reset()
	a.thinking.Reset()
	a.entries = make(map[string]*ToolEntry)
	a.entryOrder = nil
	a.textQueued = false
	a.thinkingQueued = false
	a.finished = false
}

// Text returns the assistant buffer assembled so far.
func (a *Assembler) Text() string { return a.text.String() }

// ThinkingText returns the thinking buffer assembled so far.
func (a *Assembler) ThinkingText() string { return a.thinking.String() }

// Entries returns tool entries in first-seen order.
func (a *Assembler) Entries() []ToolEntry {
	out := make([]ToolEntry, 0, len(a.entryOrder))
	for _, id := range a.entryOrder {
		out = append(out, *a.entries[id])
	}
	return out
}

func (a *Assembler) OnChunk(text string) {
	a.text.WriteString(text)
	if a.textQueued {
		return
	}
	a.textQueued = true
	gen := a.generation
	a.sched.Schedule(func() {
		if gen != a.generation {
			return
		}
		a.textQueued = false
		a.view.RenderAssistant(a.text.String())
	})
}

func (a *Assembler) OnThinking(text string) {
	a.thinking.WriteString(text)
	if a.thinkingQueued {
		return
	}
	a.thinkingQueued = true
	gen := a.generation
	a.sched.Schedule(func() {
		if gen != a.generation {
			return
		}
		a.thinkingQueued = false
		a.view.RenderThinking(a.thinking.String())
	})
}

func (a *Assembler) OnToolStatus(status domain.ToolStatus) {
	entry := a.entry(status.ToolCallID)
	if status.Label != "" {
		entry.Label = status.Label
	} else if entry.Label == "" && status.Name != "" {
		entry.Label = status.Name
	}
	if status.State == domain.ToolStateEnd {
		entry.Done = true
		entry.OK = status.OK
	}
	if status.Summary != "" {
		entry.Summary = status.Summary
	}
	a.view.RenderTool(*entry)
}

func (a *Assembler) OnToolResult(result domain.ToolResult) {
	entry := a.entry(result.ToolCallID)
	if entry.Label == "" && result.Name != "" {
		entry.Label = result.Name
	}
	if result.Summary != "" {
		entry.Summary = result.Summary
	}
	if result.Output != "" {
		entry.Output = result.Output
	}
	entry.Done = true
	ok := result.OK
	entry.OK = &ok
	a.view.RenderTool(*entry)
}

// OnDone finalizes the turn and persists the assembled assistant text.
func (a *Assembler) OnDone(ctx context.Context) {
	a.finalize(ctx, OutcomeDone, "")
}

// OnCancelled finalizes identically to done; buffered content stays
// visible and is still persisted.
func (a *Assembler) OnCancelled(ctx context.Context) {
	a.finalize(ctx, OutcomeCancelled, "")
}

// OnError surfaces the message and finalizes. Partial content is kept.
func (a *Assembler) OnError(ctx context.Context, message string) {
	a.finalize(ctx, OutcomeError, message)
}

func (a *Assembler) finalize(ctx context.Context, outcome Outcome, errMessage string) {
	if a.finished {
		return
	}
	a.finished = true

	// Flush whatever a queued render had not drawn yet.
	a.textQueued = false
	a.thinkingQueued = false
	if a.thinking.Len() > 0 {
		a.view.RenderThinking(a.thinking.String())
	}
	if a.text.Len() > 0 {
		a.view.RenderAssistant(a.text.String())
	}

	if errMessage != "" {
		a.view.Notice(errMessage)
	}

	text := a.text.String()
	if strings.TrimSpace(text) != "" && a.persist != nil {
		if err := a.persist.PersistMessage(ctx, a.sessionID, domain.RoleAssistant, text); err != nil {
			a.log.Error("persist_failed", map[string]any{"session": a.sessionID}, err)
			a.view.Notice("Failed to save assistant message: " + err.Error())
		}
	}
}

// Finished reports whether the turn has reached a terminal event.
func (a *Assembler) Finished() bool { return a.finished }

func (a *Assembler) entry(id string) *ToolEntry {
	if e, ok := a.entries[id]; ok {
		return e
	}
	e := &ToolEntry{ToolCallID: id}
	a.entries[id] = e
	a.entryOrder = append(a.entryOrder, id)
	return e
}
