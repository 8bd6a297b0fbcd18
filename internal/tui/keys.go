package tui

import (
	"context"
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mfern/kestrel/internal/session"
)

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.mode == modeSessions {
		return m.handleSessionsKey(msg)
	}

	// A pending tool approval captures the keyboard until answered.
	if m.coordinator.Pending() != nil {
		return m.handleApprovalKey(msg)
	}

	if m.engine.Active() {
		switch msg.String() {
		case "up":
			m.engine.Prev()
			return m, nil
		case "down":
			m.engine.Next()
			return m, nil
		case "tab", "enter":
			if text, cursor, ok := m.engine.Commit(m.input.Value(), m.cursorOffset()); ok {
				m.input.SetValue(text)
				m.setCursorOffset(cursor)
				return m, nil
			}
			if msg.String() == "tab" {
				return m, nil
			}
			// Enter with nothing selectable sends the message instead.
			m.engine.Close()
		case "esc":
			m.engine.Close()
			return m, nil
		}
	}

	switch msg.String() {
	case "ctrl+c":
		if m.streaming() {
			m.controller.CancelTurn()
			return m, nil
		}
		m.quitting = true
		return m, tea.Quit

	case "esc":
		if m.streaming() {
			m.controller.CancelTurn()
			return m, nil
		}
		return m, nil

	case "enter":
		return m.handleEnter()

	case "alt+enter", "ctrl+j":
		if !m.streaming() {
			m.input.SetValue(m.input.Value() + "\n")
		}
		return m, nil
	}

	return m.updateInput(msg)
}

func (m Model) handleApprovalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var approved, remember, answered bool
	switch msg.String() {
	case "y":
		approved, answered = true, true
	case "n":
		answered = true
	case "a":
		approved, remember, answered = true, true, true
	case "d":
		remember, answered = true, true
	case "ctrl+c":
		m.controller.CancelTurn()
		m.coordinator.Clear()
		return m, nil
	}
	if !answered {
		return m, nil
	}
	if err := m.coordinator.Respond(approved, remember); err != nil {
		m.notice = "Approval response failed: " + err.Error()
	}
	m.refreshViewport()
	return m, nil
}

func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	text := m.input.Value()
	trimmed := strings.TrimSpace(text)

	if strings.HasPrefix(trimmed, "/") {
		m.input.Reset()
		m.engine.Close()
		return m.runCommand(trimmed)
	}

	events, err := m.controller.SendMessage(context.Background(), text)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrEmptyMessage):
			// Nothing to send.
		case errors.Is(err, session.ErrStreaming):
			m.notice = "A response is still streaming"
		case errors.Is(err, session.ErrNotLoggedIn):
			m.notice = "Not logged in. Use /login <api-key>"
		default:
			m.notice = err.Error()
		}
		return m, nil
	}

	m.input.Reset()
	m.engine.Close()
	m.notice = ""
	m.lastUsage = nil

	m.history.WriteString(userStyle.Render("❯ " + strings.TrimSpace(text)))
	m.history.WriteString("\n\n")

	m.assembler.Reset(m.controller.Active().ID)
	m.sink.reset()
	m.events = events
	m.refreshViewport()

	return m, tea.Batch(waitForEvent(events), m.spinner.Tick)
}
