package tui

import (
	"context"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mfern/kestrel/internal/complete"
	"github.com/mfern/kestrel/internal/config"
	"github.com/mfern/kestrel/internal/domain"
	"github.com/mfern/kestrel/internal/skills"
)

// runCommand executes a slash command. The input has already been
// cleared; trimmed starts with "/".
func (m Model) runCommand(trimmed string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(trimmed)
	name := strings.TrimPrefix(fields[0], "/")
	args := fields[1:]

	switch canonicalCommand(name) {
	case "new", "clear":
		m.controller.CloseSession()
		m.history.Reset()
		m.sink.reset()
		m.notice = "Started a new session"
		m.refreshViewport()

	case "sessions":
		if err := m.controller.LoadSessions(context.Background()); err != nil {
			m.notice = "Failed to load sessions: " + err.Error()
			return m, nil
		}
		m.mode = modeSessions
		m.sessionCursor = 0

	case "pin":
		if active := m.controller.Active(); active != nil {
			m.controller.Pin(active.ID)
			m.notice = "Pinned " + active.Title
		} else {
			m.notice = "No active session to pin"
		}

	case "unpin":
		if active := m.controller.Active(); active != nil {
			m.controller.Unpin(active.ID)
			m.notice = "Unpinned " + active.Title
		} else {
			m.notice = "No active session to unpin"
		}

	case "model":
		if len(args) == 0 {
			m.notice = "Model: " + config.ResolveModel(m.controller.Settings())
			return m, nil
		}
		m.controller.UpdateSettings(func(s *domain.Settings) { s.Model = args[0] })
		m.notice = "Model set to " + args[0]

	case "thinking":
		m.controller.UpdateSettings(func(s *domain.Settings) { s.Thinking = !s.Thinking })
		m.notice = "Thinking " + onOff(m.controller.Settings().Thinking)

	case "yolo":
		m.controller.UpdateSettings(func(s *domain.Settings) { s.Yolo = !s.Yolo })
		if m.controller.Settings().Yolo {
			m.notice = "Yolo mode on: tools run without approval"
		} else {
			m.notice = "Yolo mode off"
		}

	case "workdir":
		if len(args) == 0 {
			m.notice = "Working directory: " + m.controller.WorkDir()
			return m, nil
		}
		dir := args[0]
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			m.notice = "Not a directory: " + dir
			return m, nil
		}
		m.controller.UpdateSettings(func(s *domain.Settings) { s.WorkDir = dir })
		m.engine.SetWorkDir(m.controller.WorkDir())
		m.reloadSkills()
		m.notice = "Working directory set to " + dir

	case "skills":
		m.showSkills()

	case "login":
		if len(args) == 0 {
			m.notice = "Usage: /login <api-key> [api-base]"
			return m, nil
		}
		apiBase := ""
		if len(args) > 1 {
			apiBase = args[1]
		}
		if err := m.auth.SetAPIKey(args[0], apiBase); err != nil {
			m.notice = "Login failed: " + err.Error()
			return m, nil
		}
		m.notice = "Logged in"

	case "logout":
		if err := m.auth.Clear(); err != nil {
			m.notice = "Logout failed: " + err.Error()
			return m, nil
		}
		m.notice = "Logged out"

	case "help":
		m.showHelp()

	case "quit":
		m.quitting = true
		return m, tea.Quit

	default:
		m.notice = "Unknown command: /" + name
	}

	return m, nil
}

// canonicalCommand maps aliases onto the registry's primary names.
func canonicalCommand(name string) string {
	for _, cmd := range complete.DefaultCommands() {
		if cmd.Name == name {
			return cmd.Name
		}
		for _, alias := range cmd.Aliases {
			if alias == name {
				return cmd.Name
			}
		}
	}
	return name
}

func (m *Model) reloadSkills() {
	home, _ := os.UserHomeDir()
	found, _ := skills.Discover(home, m.controller.WorkDir(), m.controller.Settings().SkillsDir)
	m.engine.SetSkills(found)
}

func (m *Model) showSkills() {
	home, _ := os.UserHomeDir()
	found, roots := skills.Discover(home, m.controller.WorkDir(), m.controller.Settings().SkillsDir)
	m.engine.SetSkills(found)

	var b strings.Builder
	b.WriteString(toolStyle.Render("Skills"))
	b.WriteString("\n")
	if len(found) == 0 {
		b.WriteString(dimStyle.Render("  none found under: " + strings.Join(roots, ", ")))
		b.WriteString("\n")
	}
	for _, sk := range found {
		b.WriteString(fmt.Sprintf("  %s  %s\n", textStyle.Render("$"+sk.Name), dimStyle.Render(sk.Description)))
	}
	m.history.WriteString(b.String())
	m.history.WriteString("\n")
	m.refreshViewport()
}

func (m *Model) showHelp() {
	var b strings.Builder
	b.WriteString(toolStyle.Render("Commands"))
	b.WriteString("\n")
	for _, cmd := range complete.DefaultCommands() {
		label := "/" + cmd.Name
		if len(cmd.Aliases) > 0 {
			label += " (/" + strings.Join(cmd.Aliases, ", /") + ")"
		}
		b.WriteString(fmt.Sprintf("  %-28s %s\n", textStyle.Render(label), dimStyle.Render(cmd.Description)))
	}
	m.history.WriteString(b.String())
	m.history.WriteString("\n")
	m.refreshViewport()
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
