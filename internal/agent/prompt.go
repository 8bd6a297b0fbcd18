package agent

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mfern/kestrel/internal/domain"
)

// systemPrompt gives the model its working context: directory listing,
// project instructions from AGENTS.md, and the available skills.
func systemPrompt(workDir string, available []domain.Skill) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Current working directory: %s\n\nDirectory listing:\n%s\n", workDir, listDirectory(workDir))

	if agents := loadAgentsMD(workDir); agents != "" {
		b.WriteString("\nAGENTS.md:\n")
		b.WriteString(agents)
		b.WriteString("\n")
	}

	if len(available) > 0 {
		b.WriteString("\nAvailable skills (referenced as $name in user messages):\n")
		for _, s := range available {
			fmt.Fprintf(&b, "- %s: %s\n", s.Name, s.Description)
		}
	}

	return b.String()
}

type dirEntry struct {
	name  string
	isDir bool
	size  int64
}

// listDirectory renders a flat ls -l style listing of the top level,
// directories first.
func listDirectory(workDir string) string {
	entries, err := os.ReadDir(workDir)
	if err != nil {
		return fmt.Sprintf("(unreadable: %v)\n", err)
	}

	list := make([]dirEntry, 0, len(entries))
	for _, e := range entries {
		var size int64
		if info, err := e.Info(); err == nil && !e.IsDir() {
			size = info.Size()
		}
		list = append(list, dirEntry{name: e.Name(), isDir: e.IsDir(), size: size})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].isDir != list[j].isDir {
			return list[i].isDir
		}
		return list[i].name < list[j].name
	})

	var b strings.Builder
	fmt.Fprintf(&b, "total %d\n", len(list))
	for _, e := range list {
		typeChar, perms, size := "-", "rw-r--r--", humanSize(e.size)
		if e.isDir {
			typeChar, perms, size = "d", "rwxr-xr-x", "-"
		}
		fmt.Fprintf(&b, "%s%s  %8s  %s\n", typeChar, perms, size, e.name)
	}
	return b.String()
}

func humanSize(n int64) string {
	switch {
	case n < 1024:
		return fmt.Sprintf("%d", n)
	case n < 1024*1024:
		return fmt.Sprintf("%.1fK", float64(n)/1024)
	default:
		return fmt.Sprintf("%.1fM", float64(n)/(1024*1024))
	}
}

func loadAgentsMD(workDir string) string {
	for _, name := range []string{"AGENTS.md", "agents.md"} {
		if data, err := os.ReadFile(filepath.Join(workDir, name)); err == nil {
			return string(data)
		}
	}
	return ""
}

// expandSkills appends the body of every skill the message references via
// a $name token, so the model sees the instructions inline.
func expandSkills(message string, available []domain.Skill) string {
	if len(available) == 0 || !strings.Contains(message, "$") {
		return message
	}

	var expanded []string
	for _, s := range available {
		if !containsToken(message, "$"+s.Name) {
			continue
		}
		data, err := os.ReadFile(s.Path)
		if err != nil {
			continue
		}
		expanded = append(expanded, fmt.Sprintf("Skill %s:\n%s", s.Name, strings.TrimSpace(string(data))))
	}
	if len(expanded) == 0 {
		return message
	}
	return message + "\n\n" + strings.Join(expanded, "\n\n")
}

// containsToken matches $name only when it ends at a word boundary, so
// $deploy does not match inside $deploy-prod.
func containsToken(s, token string) bool {
	for i := 0; ; {
		idx := strings.Index(s[i:], token)
		if idx < 0 {
			return false
		}
		end := i + idx + len(token)
		if end == len(s) || !isWordByte(s[end]) {
			return true
		}
		i = end
	}
}

func isWordByte(b byte) bool {
	return b == '-' || b == '_' ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
