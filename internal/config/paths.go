// Package config provides the kestrel home directory layout, working
// directory resolution, and the persisted user settings.
package config

import (
	"os"
	"path/filepath"
	"sync"
)

// Paths holds standard kestrel directory paths.
type Paths struct {
	// Home is the kestrel home directory (~/.kestrel)
	Home string

	// Data is the data directory (~/.kestrel/data)
	Data string

	// Skills is the user skills directory (~/.kestrel/skills)
	Skills string

	// SettingsFile is the settings file path (~/.kestrel/settings.json)
	SettingsFile string

	// AuthFile is the auth config path (~/.kestrel/auth.json)
	AuthFile string

	// ApprovalsFile holds remembered tool approval decisions
	ApprovalsFile string

	// LogFile receives structured logs while the TUI owns the terminal
	LogFile string
}

var (
	paths     *Paths
	pathsOnce sync.Once
)

// GetPaths returns the singleton paths configuration.
func GetPaths() *Paths {
	pathsOnce.Do(func() {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		kHome := filepath.Join(home, ".kestrel")

		paths = &Paths{
			Home:          kHome,
			Data:          filepath.Join(kHome, "data"),
			Skills:        filepath.Join(kHome, "skills"),
			SettingsFile:  filepath.Join(kHome, "settings.json"),
			AuthFile:      filepath.Join(kHome, "auth.json"),
			ApprovalsFile: filepath.Join(kHome, "approvals.json"),
			LogFile:       filepath.Join(kHome, "kestrel.log"),
		}
	})
	return paths
}

// ResetPaths resets the cached paths (for testing).
func ResetPaths() {
	pathsOnce = sync.Once{}
	paths = nil
}

// EnsureDir creates a directory if it doesn't exist.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// DefaultWorkDir resolves the environment-derived working directory:
// KESTREL_WORK_DIR, then the shell's PWD, then the process cwd.
func DefaultWorkDir() string {
	if wd := os.Getenv("KESTREL_WORK_DIR"); wd != "" {
		return wd
	}
	if wd := os.Getenv("PWD"); wd != "" {
		return wd
	}
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}
