package tui

import (
	"fmt"
	"strings"

	"github.com/mfern/kestrel/internal/complete"
	"github.com/mfern/kestrel/internal/config"
	"github.com/mfern/kestrel/internal/session"
	"github.com/mfern/kestrel/internal/tool"
)

// chromeHeight is the vertical space the header, status bar, and input
// area take away from the viewport.
const chromeHeight = 9

func (m Model) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}
	if !m.ready {
		return "\n  Initializing..."
	}
	if m.mode == modeSessions {
		return m.renderSessionList()
	}

	var b strings.Builder

	header := titleStyle.Render("⚡ kestrel") + "  " + dimStyle.Render(m.controller.WorkDir())
	b.WriteString(header)
	b.WriteString("\n\n")

	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	b.WriteString(m.renderStatus())
	b.WriteString("\n")

	b.WriteString(m.renderInputArea())

	return b.String()
}

func (m Model) renderStatus() string {
	var parts []string

	switch m.controller.State() {
	case session.NoSession:
		parts = append(parts, "no session")
	case session.ActiveIdle:
		parts = append(parts, m.controller.Active().Title)
	case session.ActiveStreaming:
		parts = append(parts, m.spinner.View()+" "+m.controller.Active().Title)
	}

	parts = append(parts, config.ResolveModel(m.controller.Settings()))
	if m.controller.Settings().Yolo {
		parts = append(parts, "yolo")
	}
	if m.controller.Settings().Thinking {
		parts = append(parts, "thinking")
	}
	if m.lastUsage != nil {
		parts = append(parts, fmt.Sprintf("%d tok", m.lastUsage.TotalTokens))
	}

	status := statusStyle.Render(strings.Join(parts, " │ "))
	if m.notice != "" {
		status += "  " + errorStyle.Render(m.notice)
	}
	return status
}

func (m Model) renderInputArea() string {
	if req := m.coordinator.Pending(); req != nil {
		label := tool.Label(req.Name, req.Args)
		body := toolStyle.Render("Tool approval: ") + textStyle.Render(label) + "\n" +
			dimStyle.Render("y: allow once │ n: deny once │ a: always allow │ d: always deny")
		return approvalBorderStyle.Width(m.width - 4).Render(body)
	}

	if m.streaming() {
		return fmt.Sprintf("  %s Waiting for response... %s", m.spinner.View(),
			dimStyle.Render("(ctrl+c to cancel)"))
	}

	var b strings.Builder
	panel := m.renderSuggestions()

	inputBox := inputBorderStyle.Width(m.width - 4).Render(m.input.View())

	// The input sits at the bottom of the screen, so the panel almost
	// always anchors above it.
	spaceBelow := 1
	spaceAbove := m.viewport.Height
	panelHeight := strings.Count(panel, "\n") + 1

	if panel != "" && complete.Placement(spaceBelow, spaceAbove, panelHeight) == complete.AnchorAbove {
		b.WriteString(panel)
		b.WriteString("\n")
		b.WriteString(inputBox)
	} else {
		b.WriteString(inputBox)
		if panel != "" {
			b.WriteString("\n")
			b.WriteString(panel)
		}
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("  Enter: send │ Alt+Enter: newline │ /help: commands │ Esc/Ctrl+c: quit"))
	return b.String()
}

func (m Model) renderSuggestions() string {
	if !m.engine.Active() {
		return ""
	}
	suggestions := m.engine.Suggestions()
	if len(suggestions) == 0 {
		return ""
	}

	var b strings.Builder
	for i, s := range suggestions {
		if i == m.engine.SelectedIndex() {
			b.WriteString(selectedStyle.Render("▸ " + s.Display))
		} else {
			b.WriteString("  " + s.Display)
		}
		if s.Detail != "" {
			b.WriteString("  " + dimStyle.Render(s.Detail))
		}
		if i < len(suggestions)-1 {
			b.WriteString("\n")
		}
	}
	return panelStyle.Width(m.width - 4).Render(b.String())
}
