package tool

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShellCombinedOutput(t *testing.T) {
	s := NewShell(t.TempDir())
	res, err := s.Execute(context.Background(), map[string]any{
		"command": "echo out; echo err 1>&2",
	})
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Contains(t, res.Output, "out")
	assert.Contains(t, res.Output, "err")
}

func TestShellFailure(t *testing.T) {
	s := NewShell(t.TempDir())
	res, err := s.Execute(context.Background(), map[string]any{"command": "exit 3"})
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Contains(t, res.Summary, "Command failed")
}

func TestShellTimeout(t *testing.T) {
	s := NewShell(t.TempDir())
	res, err := s.Execute(context.Background(), map[string]any{
		"command": "sleep 5",
		"timeout": float64(1),
	})
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Contains(t, res.Summary, "timed out")
}

func TestShellRunsInWorkDir(t *testing.T) {
	dir := t.TempDir()
	s := NewShell(dir)
	res, err := s.Execute(context.Background(), map[string]any{"command": "touch marker.txt"})
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.FileExists(t, filepath.Join(dir, "marker.txt"))
}

func TestShellMissingCommand(t *testing.T) {
	s := NewShell(t.TempDir())
	res, err := s.Execute(context.Background(), map[string]any{})
	require.NoError(t, err)
	assert.False(t, res.OK)
}
