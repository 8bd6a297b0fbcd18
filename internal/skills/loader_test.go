package skills

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSkill(t *testing.T, root, dir, content string) {
	t.Helper()
	skillDir := filepath.Join(root, dir)
	require.NoError(t, os.MkdirAll(skillDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(skillDir, "SKILL.md"), []byte(content), 0644))
}

func TestParseFrontmatter(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantName string
		wantDesc string
	}{
		{
			name: "full frontmatter",
			content: `---
name: Review
description: "Review uncommitted changes"
---
body`,
			wantName: "Review",
			wantDesc: "Review uncommitted changes",
		},
		{
			name:     "no frontmatter",
			content:  "just a description",
			wantName: "",
			wantDesc: "",
		},
		{
			name: "single quotes and extras ignored",
			content: `---
name: 'deploy'
version: 2
---`,
			wantName: "deploy",
			wantDesc: "",
		},
		{
			name: "empty values skipped",
			content: `---
name:
description: has one
---`,
			wantName: "",
			wantDesc: "has one",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, desc := parseFrontmatter(tt.content)
			assert.Equal(t, tt.wantName, name)
			assert.Equal(t, tt.wantDesc, desc)
		})
	}
}

func TestDiscoverDedupesByName(t *testing.T) {
	home := t.TempDir()
	work := t.TempDir()

	userRoot := filepath.Join(home, ".kestrel", "skills")
	writeSkill(t, userRoot, "review", "---\nname: Review\ndescription: user copy\n---")

	projectRoot := filepath.Join(work, ".agents", "skills")
	writeSkill(t, projectRoot, "review-dup", "---\nname: review\ndescription: project copy\n---")
	writeSkill(t, projectRoot, "deploy", "---\nname: Deploy\n---")

	found, roots := Discover(home, work, "")
	require.Len(t, roots, 2)
	require.Len(t, found, 2)

	// the user root is scanned first, so its Review wins over the
	// project-level duplicate (case-insensitive)
	assert.Equal(t, "Review", found[0].Name)
	assert.Equal(t, "user copy", found[0].Description)
	assert.Equal(t, "Deploy", found[1].Name)
}

func TestDiscoverFallbackName(t *testing.T) {
	home := t.TempDir()
	root := filepath.Join(home, ".kestrel", "skills")
	writeSkill(t, root, "unnamed-skill", "no frontmatter here")

	found, _ := Discover(home, t.TempDir(), "")
	require.Len(t, found, 1)
	assert.Equal(t, "unnamed-skill", found[0].Name)
}

func TestDiscoverOverrideDir(t *testing.T) {
	home := t.TempDir()
	writeSkill(t, filepath.Join(home, ".kestrel", "skills"), "hidden", "---\nname: Hidden\n---")

	override := t.TempDir()
	writeSkill(t, override, "only", "---\nname: Only\n---")

	found, roots := Discover(home, t.TempDir(), override)
	require.Len(t, roots, 1)
	require.Len(t, found, 1)
	assert.Equal(t, "Only", found[0].Name)
}

func TestDiscoverIgnoresFilesWithoutSkillMd(t *testing.T) {
	home := t.TempDir()
	root := filepath.Join(home, ".kestrel", "skills")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty-dir"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "stray.md"), []byte("x"), 0644))

	found, _ := Discover(home, t.TempDir(), "")
	assert.Empty(t, found)
}
