package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mfern/kestrel/internal/domain"
)

const defaultModel = "kimi-k2.5"

// LoadSettings reads the settings file. A missing file yields zero-value
// settings rather than an error; first save creates it.
func LoadSettings(path string) (domain.Settings, error) {
	var s domain.Settings
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return s, fmt.Errorf("read settings %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return domain.Settings{}, fmt.Errorf("parse settings %s: %w", path, err)
	}
	return s, nil
}

// SaveSettings writes the settings file, creating parent directories.
func SaveSettings(path string, s domain.Settings) error {
	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write settings %s: %w", path, err)
	}
	return nil
}

// ResolveModel returns the configured model or the default.
func ResolveModel(s domain.Settings) string {
	if s.Model != "" {
		return s.Model
	}
	return defaultModel
}

// ResolveWorkDir applies the working directory precedence: the session's own
// directory wins, then the settings directory, then the environment default.
func ResolveWorkDir(sessionDir string, s domain.Settings) string {
	if sessionDir != "" {
		return sessionDir
	}
	if s.WorkDir != "" {
		return s.WorkDir
	}
	return DefaultWorkDir()
}
