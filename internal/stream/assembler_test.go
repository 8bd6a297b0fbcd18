package stream

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfern/kestrel/internal/domain"
)

// manualScheduler queues callbacks until the test ticks.
type manualScheduler struct {
	queued []func()
}

func (s *manualScheduler) Schedule(fn func()) {
	s.queued = append(s.queued, fn)
}

func (s *manualScheduler) tick() {
	queued := s.queued
	s.queued = nil
	for _, fn := range queued {
		fn()
	}
}

type fakeView struct {
	assistant []string
	thinking  []string
	tools     []ToolEntry
	notices   []string
}

func (v *fakeView) RenderAssistant(text string) { v.assistant = append(v.assistant, text) }
func (v *fakeView) RenderThinking(text string)  { v.thinking = append(v.thinking, text) }
func (v *fakeView) RenderTool(e ToolEntry)      { v.tools = append(v.tools, e) }
func (v *fakeView) Notice(msg string)           { v.notices = append(v.notices, msg) }

type fakePersister struct {
	calls []struct {
		sessionID string
		role      domain.Role
		content   string
	}
	err error
}

func (p *fakePersister) PersistMessage(ctx context.Context, sessionID string, role domain.Role, content string) error {
	p.calls = append(p.calls, struct {
		sessionID string
		role      domain.Role
		content   string
	}{sessionID, role, content})
	return p.err
}

func newAssembler(t *testing.T) (*Assembler, *fakeView, *manualScheduler, *fakePersister) {
	t.Helper()
	view := &fakeView{}
	sched := &manualScheduler{}
	persister := &fakePersister{}
	a := NewAssembler(view, sched, persister)
	a.Reset("sess-1")
	return a, view, sched, persister
}

func TestChunksConcatenateInOrder(t *testing.T) {
	a, view, sched, _ := newAssembler(t)

	a.OnChunk("Hel")
	a.OnChunk("lo ")
	a.OnChunk("world")
	assert.Equal(t, "Hello world", a.Text())

	// All three chunks coalesced into a single queued render.
	require.Len(t, sched.queued, 1)
	sched.tick()
	require.Len(t, view.assistant, 1)
	assert.Equal(t, "Hello world", view.assistant[0])

	// Later chunks schedule a fresh render of the full buffer.
	a.OnChunk("!")
	sched.tick()
	assert.Equal(t, "Hello world!", view.assistant[len(view.assistant)-1])
}

func TestThinkingBufferIsSeparate(t *testing.T) {
	a, view, sched, _ := newAssembler(t)

	a.OnThinking("step one. ")
	a.OnChunk("answer")
	a.OnThinking("step two.")
	sched.tick()

	assert.Equal(t, "step one. step two.", a.ThinkingText())
	assert.Equal(t, "answer", a.Text())
	require.Len(t, view.thinking, 1)
	assert.Equal(t, "step one. step two.", view.thinking[0])
}

func TestStaleRenderDiscarded(t *testing.T) {
	a, view, sched, _ := newAssembler(t)

	a.OnChunk("from old turn")
	// Turn torn down before the scheduled render fires.
	a.Reset("sess-1")
	a.OnChunk("new turn")
	sched.tick()

	// Only the new turn's render ran; the old closure discarded itself.
	require.Len(t, view.assistant, 1)
	assert.Equal(t, "new turn", view.assistant[0])
}

func TestToolEntriesIdempotentByID(t *testing.T) {
	a, view, _, _ := newAssembler(t)

	a.OnToolStatus(domain.ToolStatus{ToolCallID: "t1", Label: "Running ls", State: domain.ToolStateStart})
	ok := true
	a.OnToolStatus(domain.ToolStatus{ToolCallID: "t1", Label: "Running ls", State: domain.ToolStateEnd, OK: &ok, Summary: "Command completed"})
	a.OnToolResult(domain.ToolResult{ToolCallID: "t1", OK: true, Summary: "Command completed", Output: "file.txt"})

	entries := a.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "Running ls", entries[0].Label)
	assert.Equal(t, "Command completed", entries[0].Summary)
	assert.Equal(t, "file.txt", entries[0].Output)
	assert.True(t, entries[0].Done)

	// Same summary twice never duplicates in the rendered row.
	rendered := entries[0].Render()
	assert.Equal(t, "Running ls\nCommand completed\nfile.txt", rendered)

	// Three events, three renders of the same single row.
	require.Len(t, view.tools, 3)
	for _, row := range view.tools {
		assert.Equal(t, "t1", row.ToolCallID)
	}
}

func TestToolEntriesKeepFirstSeenOrder(t *testing.T) {
	a, _, _, _ := newAssembler(t)

	a.OnToolStatus(domain.ToolStatus{ToolCallID: "b", Label: "B", State: domain.ToolStateStart})
	a.OnToolStatus(domain.ToolStatus{ToolCallID: "a", Label: "A", State: domain.ToolStateStart})
	a.OnToolResult(domain.ToolResult{ToolCallID: "b", OK: true})

	entries := a.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "b", entries[0].ToolCallID)
	assert.Equal(t, "a", entries[1].ToolCallID)
}

func TestDonePersistsExactBuffer(t *testing.T) {
	a, _, _, persister := newAssembler(t)

	a.OnChunk("final ")
	a.OnChunk("answer")
	a.OnDone(context.Background())

	require.Len(t, persister.calls, 1)
	assert.Equal(t, "sess-1", persister.calls[0].sessionID)
	assert.Equal(t, domain.RoleAssistant, persister.calls[0].role)
	assert.Equal(t, "final answer", persister.calls[0].content)
}

func TestDoneWithWhitespaceBufferSkipsPersist(t *testing.T) {
	a, _, _, persister := newAssembler(t)

	a.OnChunk("  \n\t ")
	a.OnDone(context.Background())
	assert.Empty(t, persister.calls)
}

func TestCancelledKeepsPartialContent(t *testing.T) {
	a, view, _, persister := newAssembler(t)

	a.OnChunk("partial")
	a.OnCancelled(context.Background())

	assert.Equal(t, "partial", a.Text())
	assert.True(t, a.Finished())
	// The final flush rendered the remaining buffer.
	require.NotEmpty(t, view.assistant)
	assert.Equal(t, "partial", view.assistant[len(view.assistant)-1])
	// Partial content still persists.
	require.Len(t, persister.calls, 1)
	assert.Equal(t, "partial", persister.calls[0].content)
}

func TestErrorSurfacesNoticeAndFinalizes(t *testing.T) {
	a, view, _, _ := newAssembler(t)

	a.OnChunk("before the failure")
	a.OnError(context.Background(), "stream broke")

	assert.True(t, a.Finished())
	assert.Contains(t, view.notices, "stream broke")
	assert.Equal(t, "before the failure", view.assistant[len(view.assistant)-1])
}

func TestPersistFailureReportedNotRetried(t *testing.T) {
	a, view, _, persister := newAssembler(t)
	persister.err = errors.New("disk full")

	a.OnChunk("content")
	a.OnDone(context.Background())

	require.Len(t, persister.calls, 1)
	require.Len(t, view.notices, 1)
	assert.Contains(t, view.notices[0], "disk full")
	// Buffer still rendered despite the failure.
	assert.Equal(t, "content", view.assistant[len(view.assistant)-1])
}

func TestFinalizeIsIdempotent(t *testing.T) {
	a, _, _, persister := newAssembler(t)

	a.OnChunk("once")
	a.OnDone(context.Background())
	a.OnDone(context.Background())
	a.OnCancelled(context.Background())

	assert.Len(t, persister.calls, 1)
}
