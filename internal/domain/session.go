// Package domain defines the core types shared across kestrel: sessions,
// messages, the chat event union, and user settings.
package domain

import (
	"time"
)

// Session represents one conversation with the assistant.
type Session struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	WorkDir   string    `json:"workDir,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Skill is a reusable capability discovered from a SKILL.md file.
type Skill struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Path        string `json:"path"`
	Root        string `json:"root"`
}
