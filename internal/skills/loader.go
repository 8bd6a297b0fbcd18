// Package skills discovers SKILL.md definitions from the well-known skill
// roots and feeds the `$` autocomplete source.
package skills

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/mfern/kestrel/internal/domain"
)

// RootCandidates lists the directories scanned for skills, in priority
// order. Earlier roots win when two skills share a name.
func RootCandidates(homeDir, workDir string) []string {
	return []string{
		filepath.Join(homeDir, ".config", "agents", "skills"),
		filepath.Join(homeDir, ".agents", "skills"),
		filepath.Join(homeDir, ".kestrel", "skills"),
		filepath.Join(homeDir, ".claude", "skills"),
		filepath.Join(homeDir, ".codex", "skills"),
		filepath.Join(workDir, ".agents", "skills"),
		filepath.Join(workDir, ".kestrel", "skills"),
		filepath.Join(workDir, ".claude", "skills"),
		filepath.Join(workDir, ".codex", "skills"),
	}
}

// Discover scans skill roots and returns the deduplicated skill list plus
// the roots that actually exist. A non-empty overrideDir replaces the
// candidate roots entirely.
func Discover(homeDir, workDir, overrideDir string) ([]domain.Skill, []string) {
	var roots []string
	if overrideDir != "" {
		if isDir(overrideDir) {
			roots = append(roots, overrideDir)
		}
	} else {
		for _, root := range RootCandidates(homeDir, workDir) {
			if isDir(root) {
				roots = append(roots, root)
			}
		}
	}

	seen := make(map[string]bool)
	var skills []domain.Skill
	for _, root := range roots {
		for _, skill := range collect(root) {
			key := strings.ToLower(skill.Name)
			if seen[key] {
				continue
			}
			seen[key] = true
			skills = append(skills, skill)
		}
	}
	return skills, roots
}

// collect reads every <root>/<dir>/SKILL.md under one root.
func collect(root string) []domain.Skill {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil
	}

	var skills []domain.Skill
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		skillFile := filepath.Join(root, entry.Name(), "SKILL.md")
		info, err := os.Stat(skillFile)
		if err != nil || info.IsDir() {
			continue
		}
		content, err := os.ReadFile(skillFile)
		if err != nil {
			continue
		}

		name, description := parseFrontmatter(string(content))
		if name == "" {
			name = entry.Name()
		}
		skills = append(skills, domain.Skill{
			Name:        name,
			Description: description,
			Path:        skillFile,
			Root:        root,
		})
	}
	return skills
}

// parseFrontmatter extracts name and description from a leading YAML-style
// frontmatter block:
//
//	---
//	name: SkillName
//	description: what it does
//	---
func parseFrontmatter(content string) (name, description string) {
	lines := strings.Split(content, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "---" {
		return "", ""
	}

	for _, line := range lines[1:] {
		trimmed := strings.TrimSpace(line)
		if trimmed == "---" {
			break
		}
		key, value, ok := strings.Cut(trimmed, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		value = strings.Trim(value, `"'`)
		if value == "" {
			continue
		}
		switch strings.TrimSpace(key) {
		case "name":
			name = value
		case "description":
			description = value
		}
	}
	return name, description
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
