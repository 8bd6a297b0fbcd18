package tool

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryDefinitionsOrder(t *testing.T) {
	r := DefaultRegistry(t.TempDir())
	defs := r.Definitions()
	require.Len(t, defs, 6)
	names := make([]string, 0, len(defs))
	for _, d := range defs {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{
		"read_file", "write_file", "str_replace_file",
		"shell", "search_files", "fetch_url",
	}, names)
}

func TestRegistryUnknownTool(t *testing.T) {
	r := NewRegistry()
	res := r.Execute(context.Background(), "bogus", nil)
	assert.False(t, res.OK)
	assert.Contains(t, res.Summary, "Unknown tool")
}

func TestNeedsApproval(t *testing.T) {
	assert.True(t, NeedsApproval("shell"))
	assert.True(t, NeedsApproval("write_file"))
	assert.True(t, NeedsApproval("str_replace_file"))
	assert.False(t, NeedsApproval("read_file"))
	assert.False(t, NeedsApproval("search_files"))
	assert.False(t, NeedsApproval("fetch_url"))
}

func TestLabel(t *testing.T) {
	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{"read_file", map[string]any{"path": "main.go"}, "Reading main.go"},
		{"read_file", nil, "Reading file"},
		{"write_file", map[string]any{"path": "out.txt"}, "Writing out.txt"},
		{"str_replace_file", map[string]any{"path": "a.go"}, "Editing a.go"},
		{"shell", map[string]any{"command": "ls -la"}, "Running ls -la"},
		{"shell", nil, "Running command"},
		{"search_files", map[string]any{"query": "handler"}, "Searching for handler"},
		{"fetch_url", map[string]any{"url": "https://example.com"}, "Fetching https://example.com"},
		{"mystery", nil, "Running mystery"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Label(tt.name, tt.args), "%s %v", tt.name, tt.args)
	}
}

func TestResolvePathRejectsEscape(t *testing.T) {
	dir := t.TempDir()

	_, err := resolvePath(dir, "../outside.txt")
	assert.Error(t, err)

	full, err := resolvePath(dir, "sub/inside.txt")
	require.NoError(t, err)
	assert.Contains(t, full, dir)
}
