// Package render provides output formatting for the non-interactive CLI.
package render

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/mfern/kestrel/internal/auth"
	"github.com/mfern/kestrel/internal/domain"
	"github.com/mfern/kestrel/internal/textutil"
)

// Renderer handles output formatting. pretty enables color and layout
// for terminals; plain output is kept stable for piping.
type Renderer struct {
	pretty bool
}

func New(pretty bool) *Renderer {
	return &Renderer{pretty: pretty}
}

// Sessions formats the session list, pinned sessions marked.
func (r *Renderer) Sessions(sessions []*domain.Session, pinned map[string]bool) string {
	if len(sessions) == 0 {
		return "No sessions found"
	}

	var sb strings.Builder
	if r.pretty {
		sb.WriteString(color.CyanString("Sessions\n"))
		sb.WriteString(strings.Repeat("─", 60) + "\n")
	}

	for _, s := range sessions {
		marker := " "
		if pinned[s.ID] {
			marker = "★"
		}
		timeStr := s.UpdatedAt.Format("2006-01-02 15:04")
		title := textutil.TruncateRunes(s.Title, 40)
		if r.pretty {
			fmt.Fprintf(&sb, "%s %s  %s  %s\n",
				color.YellowString(marker), color.HiBlackString(timeStr), title, color.HiBlackString(s.ID))
		} else {
			fmt.Fprintf(&sb, "%s\t%s\t%s\t%s\n", marker, timeStr, s.ID, title)
		}
	}

	return sb.String()
}

// Transcript formats a session's stored messages.
func (r *Renderer) Transcript(msgs []*domain.Message) string {
	if len(msgs) == 0 {
		return "No messages"
	}

	var sb strings.Builder
	for _, m := range msgs {
		switch m.Role {
		case domain.RoleUser:
			if r.pretty {
				fmt.Fprintf(&sb, "%s %s\n\n", color.CyanString("❯"), m.Content)
			} else {
				fmt.Fprintf(&sb, "user: %s\n\n", m.Content)
			}
		case domain.RoleAssistant:
			if m.Content == "" && len(m.ToolCalls) > 0 {
				for _, tc := range m.ToolCalls {
					if r.pretty {
						fmt.Fprintf(&sb, "%s %s\n", color.BlueString("⚙"), tc.Name)
					} else {
						fmt.Fprintf(&sb, "tool: %s\n", tc.Name)
					}
				}
				sb.WriteString("\n")
				continue
			}
			fmt.Fprintf(&sb, "%s\n\n", m.Content)
		}
	}
	return sb.String()
}

// Skills formats the discovered skill list.
func (r *Renderer) Skills(found []domain.Skill, roots []string) string {
	var sb strings.Builder
	if r.pretty {
		sb.WriteString(color.CyanString("Skills\n"))
		sb.WriteString(strings.Repeat("─", 60) + "\n")
	}

	if len(found) == 0 {
		fmt.Fprintf(&sb, "No skills found under: %s\n", strings.Join(roots, ", "))
		return sb.String()
	}

	for _, sk := range found {
		if r.pretty {
			fmt.Fprintf(&sb, "%s  %s\n", color.GreenString("$"+sk.Name), color.HiBlackString(sk.Description))
		} else {
			fmt.Fprintf(&sb, "%s\t%s\n", sk.Name, sk.Description)
		}
	}
	return sb.String()
}

// Status formats login state and the active configuration.
func (r *Renderer) Status(st auth.Status, model, workDir string, sessionCount int) string {
	var sb strings.Builder

	login := "not logged in"
	if st.IsLoggedIn {
		login = "logged in"
		if st.User != "" {
			login += " as " + st.User
		}
	}

	if r.pretty {
		mark := color.RedString("✗")
		if st.IsLoggedIn {
			mark = color.GreenString("✓")
		}
		fmt.Fprintf(&sb, "%s %s (%s)\n", mark, login, st.Mode)
		fmt.Fprintf(&sb, "  model:    %s\n", model)
		fmt.Fprintf(&sb, "  workdir:  %s\n", workDir)
		fmt.Fprintf(&sb, "  sessions: %d\n", sessionCount)
	} else {
		fmt.Fprintf(&sb, "auth: %s (%s)\n", login, st.Mode)
		fmt.Fprintf(&sb, "model: %s\n", model)
		fmt.Fprintf(&sb, "workdir: %s\n", workDir)
		fmt.Fprintf(&sb, "sessions: %d\n", sessionCount)
	}
	return sb.String()
}
