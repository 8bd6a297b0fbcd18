package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mfern/kestrel/internal/domain"
)

// orderedSessions returns the picker order: pinned sessions first, in
// pin order, then the rest by recency as the controller loaded them.
func (m Model) orderedSessions() []*domain.Session {
	byID := make(map[string]*domain.Session)
	for _, s := range m.controller.Sessions() {
		byID[s.ID] = s
	}
	out := make([]*domain.Session, 0, len(byID))
	for _, id := range m.controller.Pinned() {
		if s, ok := byID[id]; ok {
			out = append(out, s)
			delete(byID, id)
		}
	}
	for _, s := range m.controller.Sessions() {
		if _, ok := byID[s.ID]; ok {
			out = append(out, s)
		}
	}
	return out
}

func (m Model) handleSessionsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	sessions := m.orderedSessions()

	switch msg.String() {
	case "esc", "q":
		m.mode = modeChat
		return m, nil

	case "up", "k":
		if m.sessionCursor > 0 {
			m.sessionCursor--
		}
		return m, nil

	case "down", "j":
		if m.sessionCursor < len(sessions)-1 {
			m.sessionCursor++
		}
		return m, nil

	case "enter":
		if m.sessionCursor >= len(sessions) {
			return m, nil
		}
		target := sessions[m.sessionCursor]
		if err := m.controller.OpenSession(context.Background(), target.ID); err != nil {
			m.notice = "Failed to open session: " + err.Error()
			m.mode = modeChat
			return m, nil
		}
		m.mode = modeChat
		m.sink.reset()
		m.lastUsage = nil
		m.notice = ""
		m.rebuildHistory()
		return m, nil

	case "p":
		if m.sessionCursor >= len(sessions) {
			return m, nil
		}
		target := sessions[m.sessionCursor]
		if m.controller.IsPinned(target.ID) {
			m.controller.Unpin(target.ID)
		} else {
			m.controller.Pin(target.ID)
		}
		return m, nil

	case "d":
		if m.sessionCursor >= len(sessions) {
			return m, nil
		}
		target := sessions[m.sessionCursor]
		wasActive := m.controller.Active() != nil && m.controller.Active().ID == target.ID
		if err := m.controller.DeleteSession(context.Background(), target.ID); err != nil {
			m.notice = "Delete failed: " + err.Error()
		}
		if wasActive {
			m.history.Reset()
			m.sink.reset()
			m.refreshViewport()
		}
		if m.sessionCursor >= len(sessions)-1 && m.sessionCursor > 0 {
			m.sessionCursor--
		}
		return m, nil
	}

	return m, nil
}

func (m Model) renderSessionList() string {
	sessions := m.orderedSessions()

	var b strings.Builder
	b.WriteString(titleStyle.Render("Sessions"))
	b.WriteString("\n\n")

	if len(sessions) == 0 {
		b.WriteString(dimStyle.Render("  No sessions yet. Send a message to start one."))
		b.WriteString("\n")
	}

	for i, s := range sessions {
		marker := "  "
		if m.controller.IsPinned(s.ID) {
			marker = pinStyle.Render("★ ")
		}
		line := fmt.Sprintf("%s%s  %s", marker, s.Title, dimStyle.Render(relativeTime(s.UpdatedAt)))
		if active := m.controller.Active(); active != nil && active.ID == s.ID {
			line += dimStyle.Render("  (current)")
		}
		if i == m.sessionCursor {
			line = selectedStyle.Render("▸ " + s.Title)
			if m.controller.IsPinned(s.ID) {
				line = pinStyle.Render("★ ") + line
			}
			line += "  " + dimStyle.Render(relativeTime(s.UpdatedAt))
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render("  ↑↓: navigate │ Enter: open │ p: pin │ d: delete │ Esc: back"))
	return b.String()
}

func relativeTime(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
