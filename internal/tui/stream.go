package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mfern/kestrel/internal/domain"
	"github.com/mfern/kestrel/internal/stream"
)

// viewSink is the display surface the assembler renders into. It keeps
// the live turn only; finished turns are folded into the model's history
// buffer.
type viewSink struct {
	thinking  string
	assistant string
	toolRows  map[string]string
	toolOrder []string
	notices   []string
}

func newViewSink() *viewSink {
	return &viewSink{toolRows: make(map[string]string)}
}

func (v *viewSink) RenderAssistant(text string) { v.assistant = text }
func (v *viewSink) RenderThinking(text string)  { v.thinking = text }

func (v *viewSink) RenderTool(entry stream.ToolEntry) {
	if _, seen := v.toolRows[entry.ToolCallID]; !seen {
		v.toolOrder = append(v.toolOrder, entry.ToolCallID)
	}
	v.toolRows[entry.ToolCallID] = renderToolRow(entry)
}

func (v *viewSink) Notice(message string) {
	v.notices = append(v.notices, message)
}

func (v *viewSink) reset() {
	v.thinking = ""
	v.assistant = ""
	v.toolRows = make(map[string]string)
	v.toolOrder = nil
	v.notices = nil
}

func (v *viewSink) empty() bool {
	return v.thinking == "" && v.assistant == "" && len(v.toolOrder) == 0 && len(v.notices) == 0
}

// render lays out the live turn: thinking first, then tool rows in
// first-seen order, then the assistant text.
func (v *viewSink) render() string {
	var b strings.Builder
	if v.thinking != "" {
		b.WriteString(thinkingStyle.Render(v.thinking))
		b.WriteString("\n\n")
	}
	for _, id := range v.toolOrder {
		b.WriteString(v.toolRows[id])
		b.WriteString("\n")
	}
	if len(v.toolOrder) > 0 {
		b.WriteString("\n")
	}
	if v.assistant != "" {
		b.WriteString(textStyle.Render(v.assistant))
		b.WriteString("\n")
	}
	for _, n := range v.notices {
		b.WriteString(errorStyle.Render(n))
		b.WriteString("\n")
	}
	return b.String()
}

func renderToolRow(entry stream.ToolEntry) string {
	glyph := dimStyle.Render("…")
	if entry.Done {
		if entry.OK == nil || *entry.OK {
			glyph = successStyle.Render("✓")
		} else {
			glyph = errorStyle.Render("✗")
		}
	}
	lines := strings.Split(entry.Render(), "\n")
	var b strings.Builder
	b.WriteString(glyph)
	b.WriteString(" ")
	b.WriteString(toolStyle.Render(lines[0]))
	for _, line := range lines[1:] {
		b.WriteString("\n    ")
		b.WriteString(toolOutputStyle.Render(line))
	}
	return b.String()
}

// tickScheduler backs stream.Scheduler with the Bubble Tea frame timer.
// Scheduled functions run together when the timer fires, so repeated
// scheduling within one interval coalesces into a single render.
type tickScheduler struct {
	pending []func()
	armed   bool
}

func (s *tickScheduler) Schedule(fn func()) {
	s.pending = append(s.pending, fn)
}

func (s *tickScheduler) flush() {
	jobs := s.pending
	s.pending = nil
	s.armed = false
	for _, fn := range jobs {
		fn()
	}
}

// waitForEvent receives the next event from the active turn's channel.
// The command re-arms itself from Update after every delivery.
func waitForEvent(ch <-chan domain.ChatEvent) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		return chatEventMsg{event: ev, ok: ok}
	}
}

func (m Model) handleChatEventMsg(msg chatEventMsg) (tea.Model, tea.Cmd) {
	if !msg.ok {
		// Channel closed without a terminal event; treat as done.
		if m.streaming() {
			m.finishTurn("")
		}
		return m, m.renderCmd()
	}

	ev := msg.event
	if err := ev.Validate(); err != nil {
		m.log.Error("bad_event", nil, err)
		m.assembler.OnError(context.Background(), err.Error())
		m.controller.CancelTurn()
		m.finishTurn("")
		return m, m.renderCmd()
	}

	switch ev.Kind {
	case domain.EventChunk:
		m.assembler.OnChunk(ev.Chunk.Content)

	case domain.EventThinking:
		m.assembler.OnThinking(ev.Thinking.Content)

	case domain.EventToolStatus:
		m.assembler.OnToolStatus(*ev.ToolStatus)

	case domain.EventToolResult:
		m.assembler.OnToolResult(*ev.ToolResult)

	case domain.EventToolApproval:
		if m.coordinator.HandleRequest(*ev.ToolApproval) {
			break // answered from remembered decisions
		}
		m.refreshViewport()

	case domain.EventDone:
		if ev.Done != nil {
			m.lastUsage = ev.Done.Usage
		}
		m.assembler.OnDone(context.Background())
		m.controller.AppendAssistant(m.assembler.Text())
		m.finishTurn("")
		return m, m.renderCmd()

	case domain.EventCancelled:
		m.assembler.OnCancelled(context.Background())
		m.controller.AppendAssistant(m.assembler.Text())
		m.finishTurn(errorStyle.Render("⚠ Cancelled"))
		return m, m.renderCmd()

	case domain.EventError:
		m.assembler.OnError(context.Background(), ev.Error.Message)
		m.controller.AppendAssistant(m.assembler.Text())
		m.finishTurn("")
		return m, m.renderCmd()
	}

	return m, tea.Batch(waitForEvent(m.events), m.renderCmd())
}

// finishTurn folds the live turn into the history buffer and returns the
// controller to idle.
func (m *Model) finishTurn(trailer string) {
	m.controller.FinishTurn()
	m.coordinator.Clear()
	m.sched.flush()
	if !m.sink.empty() {
		m.history.WriteString(m.sink.render())
		m.history.WriteString("\n")
	}
	if trailer != "" {
		m.history.WriteString(trailer)
		m.history.WriteString("\n\n")
	}
	m.sink.reset()
	m.events = nil
	m.refreshViewport()
}

func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	content := m.history.String() + m.sink.render()
	m.viewport.SetContent(content)
	m.viewport.GotoBottom()
}

// rebuildHistory re-renders the history buffer from the controller's
// transcript, used after opening a session or clearing the view.
func (m *Model) rebuildHistory() {
	m.history.Reset()
	for _, msg := range m.controller.Transcript() {
		switch msg.Role {
		case domain.RoleUser:
			m.history.WriteString(userStyle.Render("❯ " + msg.Content))
			m.history.WriteString("\n\n")
		case domain.RoleAssistant:
			if msg.Content != "" {
				m.history.WriteString(textStyle.Render(msg.Content))
				m.history.WriteString("\n\n")
			}
		}
	}
	m.refreshViewport()
}
