package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfern/kestrel/internal/domain"
)

func TestSettingsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")

	missing, err := LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, domain.Settings{}, missing)

	want := domain.Settings{
		WorkDir:        "/tmp/project",
		Model:          "kimi-k2.5",
		Yolo:           true,
		PinnedSessions: []string{"a", "b"},
	}
	require.NoError(t, SaveSettings(path, want))

	got, err := LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadSettingsInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	_, err := LoadSettings(path)
	assert.Error(t, err)
}

func TestResolveWorkDir(t *testing.T) {
	t.Setenv("KESTREL_WORK_DIR", "/env/dir")

	assert.Equal(t, "/session/dir", ResolveWorkDir("/session/dir", domain.Settings{WorkDir: "/settings/dir"}))
	assert.Equal(t, "/settings/dir", ResolveWorkDir("", domain.Settings{WorkDir: "/settings/dir"}))
	assert.Equal(t, "/env/dir", ResolveWorkDir("", domain.Settings{}))
}

func TestResolveModel(t *testing.T) {
	assert.Equal(t, "custom", ResolveModel(domain.Settings{Model: "custom"}))
	assert.Equal(t, defaultModel, ResolveModel(domain.Settings{}))
}
