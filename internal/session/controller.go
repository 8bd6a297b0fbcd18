// Package session owns the active session and the lifecycle of its turns:
// NoSession, ActiveIdle, ActiveStreaming.
package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/mfern/kestrel/internal/auth"
	"github.com/mfern/kestrel/internal/backend"
	"github.com/mfern/kestrel/internal/config"
	"github.com/mfern/kestrel/internal/domain"
	"github.com/mfern/kestrel/internal/logging"
	"github.com/mfern/kestrel/internal/textutil"
)

type State int

const (
	NoSession State = iota
	ActiveIdle
	ActiveStreaming
)

func (s State) String() string {
	switch s {
	case NoSession:
		return "no_session"
	case ActiveIdle:
		return "active_idle"
	case ActiveStreaming:
		return "active_streaming"
	}
	return "unknown"
}

const maxTitleRunes = 50

var (
	ErrEmptyMessage = errors.New("message is empty")
	ErrStreaming    = errors.New("a turn is already streaming")
	ErrNotLoggedIn  = errors.New("not logged in")
)

// AuthChecker answers whether the user can start a turn.
type AuthChecker interface {
	CheckStatus() auth.Status
}

// Controller is the session state machine. It is single-goroutine like the
// rest of the core; the TUI drives it from its update loop.
type Controller struct {
	backend      backend.Backend
	auth         AuthChecker
	log          *logging.Logger
	settingsPath string

	settings   domain.Settings
	state      State
	active     *domain.Session
	transcript []domain.Message
	sessions   []*domain.Session
}

func NewController(b backend.Backend, authChecker AuthChecker, settings domain.Settings, settingsPath string) *Controller {
	return &Controller{
		backend:      b,
		auth:         authChecker,
		log:          logging.New("session"),
		settingsPath: settingsPath,
		settings:     settings,
		state:        NoSession,
	}
}

func (c *Controller) State() State              { return c.state }
func (c *Controller) Active() *domain.Session   { return c.active }
func (c *Controller) Settings() domain.Settings { return c.settings }

// Transcript returns the in-memory message view for the active session.
func (c *Controller) Transcript() []domain.Message {
	out := make([]domain.Message, len(c.transcript))
	copy(out, c.transcript)
	return out
}

// Sessions returns the in-memory session list, most recently updated first.
func (c *Controller) Sessions() []*domain.Session {
	out := make([]*domain.Session, len(c.sessions))
	copy(out, c.sessions)
	return out
}

// WorkDir resolves the effective working directory for the active session.
func (c *Controller) WorkDir() string {
	sessionDir := ""
	if c.active != nil {
		sessionDir = c.active.WorkDir
	}
	return config.ResolveWorkDir(sessionDir, c.settings)
}

// LoadSessions refreshes the list from storage and drops pinned ids that
// no longer correspond to a live session.
func (c *Controller) LoadSessions(ctx context.Context) error {
	sessions, err := c.backend.ListSessions(ctx, "")
	if err != nil {
		return err
	}
	c.sessions = sessions

	live := make(map[string]bool, len(sessions))
	for _, s := range sessions {
		live[s.ID] = true
	}
	kept := c.settings.PinnedSessions[:0:0]
	for _, id := range c.settings.PinnedSessions {
		if live[id] {
			kept = append(kept, id)
		}
	}
	if len(kept) != len(c.settings.PinnedSessions) {
		c.settings.PinnedSessions = kept
		c.saveSettings()
	}
	return nil
}

// OpenSession makes a session active from any state, clearing turn state
// and loading its persisted messages.
func (c *Controller) OpenSession(ctx context.Context, id string) error {
	var target *domain.Session
	for _, s := range c.sessions {
		if s.ID == id {
			target = s
			break
		}
	}
	if target == nil {
		return errors.New("unknown session: " + id)
	}

	messages, err := c.backend.LoadSessionMessages(ctx, id)
	if err != nil {
		return err
	}
	c.active = target
	c.transcript = c.transcript[:0]
	for _, m := range messages {
		c.transcript = append(c.transcript, *m)
	}
	c.state = ActiveIdle
	return nil
}

// CloseSession returns to NoSession, dropping the transcript view.
func (c *Controller) CloseSession() {
	if c.state == ActiveStreaming && c.active != nil {
		c.backend.CancelTurn(c.active.ID)
	}
	c.active = nil
	c.transcript = nil
	c.state = NoSession
}

// SendMessage validates, creates a session on the first message, appends
// the user message optimistically, and starts the turn. A nil error means
// the returned channel carries the turn's events and the controller is in
// ActiveStreaming until FinishTurn.
func (c *Controller) SendMessage(ctx context.Context, text string) (<-chan domain.ChatEvent, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, ErrEmptyMessage
	}
	if c.state == ActiveStreaming {
		return nil, ErrStreaming
	}
	if !c.auth.CheckStatus().IsLoggedIn {
		return nil, ErrNotLoggedIn
	}

	isNew := c.active == nil
	if isNew {
		c.active = c.newSession(trimmed)
		if err := c.backend.CreateSession(ctx, c.active); err != nil {
			c.active = nil
			return nil, err
		}
		c.transcript = nil
	}

	// Optimistic append: the user sees their message before any backend
	// acknowledgment.
	c.transcript = append(c.transcript, domain.Message{
		SessionID: c.active.ID,
		Role:      domain.RoleUser,
		Content:   trimmed,
		Timestamp: time.Now().UTC(),
	})
	if err := c.backend.PersistMessage(ctx, c.active.ID, domain.RoleUser, trimmed); err != nil {
		// Reported by the caller; the rendered transcript is not rolled back.
		c.log.Warn("persist_user_message_failed", map[string]any{"session": c.active.ID}, err)
	}

	events, err := c.backend.StartTurn(ctx, c.active.ID, trimmed, c.settings)
	if err != nil {
		// Ack failure finalizes as cancelled; the optimistic message stays.
		c.state = ActiveIdle
		return nil, err
	}

	c.state = ActiveStreaming
	c.active.UpdatedAt = time.Now().UTC()
	if isNew {
		c.sessions = append([]*domain.Session{c.active}, c.sessions...)
	}
	return events, nil
}

// AppendAssistant records the assembled assistant reply in the transcript
// view once a turn finishes.
func (c *Controller) AppendAssistant(content string) {
	if c.active == nil || strings.TrimSpace(content) == "" {
		return
	}
	c.transcript = append(c.transcript, domain.Message{
		SessionID: c.active.ID,
		Role:      domain.RoleAssistant,
		Content:   content,
		Timestamp: time.Now().UTC(),
	})
}

// FinishTurn returns to ActiveIdle after a terminal event.
func (c *Controller) FinishTurn() {
	if c.state == ActiveStreaming {
		c.state = ActiveIdle
	}
}

// CancelTurn asks the backend to cancel the in-flight turn. The state
// change happens when the cancelled event arrives.
func (c *Controller) CancelTurn() {
	if c.state == ActiveStreaming && c.active != nil {
		c.backend.CancelTurn(c.active.ID)
	}
}

// DeleteSession removes a session from the list and pinned ids, deletes it
// in storage, and closes it if it was active. The in-memory list mutates
// even if the storage call fails.
func (c *Controller) DeleteSession(ctx context.Context, id string) error {
	kept := c.sessions[:0:0]
	for _, s := range c.sessions {
		if s.ID != id {
			kept = append(kept, s)
		}
	}
	c.sessions = kept
	c.Unpin(id)

	wasActive := c.active != nil && c.active.ID == id
	if wasActive {
		c.CloseSession()
	}

	if err := c.backend.DeleteSession(ctx, id); err != nil {
		return err
	}
	return nil
}

// Pinned returns the pinned session ids, most recently pinned first.
func (c *Controller) Pinned() []string {
	out := make([]string, len(c.settings.PinnedSessions))
	copy(out, c.settings.PinnedSessions)
	return out
}

func (c *Controller) IsPinned(id string) bool {
	for _, p := range c.settings.PinnedSessions {
		if p == id {
			return true
		}
	}
	return false
}

// Pin moves a session to the front of the pinned set.
func (c *Controller) Pin(id string) {
	pinned := []string{id}
	for _, p := range c.settings.PinnedSessions {
		if p != id {
			pinned = append(pinned, p)
		}
	}
	c.settings.PinnedSessions = pinned
	c.saveSettings()
}

func (c *Controller) Unpin(id string) {
	kept := c.settings.PinnedSessions[:0:0]
	for _, p := range c.settings.PinnedSessions {
		if p != id {
			kept = append(kept, p)
		}
	}
	if len(kept) != len(c.settings.PinnedSessions) {
		c.settings.PinnedSessions = kept
		c.saveSettings()
	}
}

// UpdateSettings mutates the settings snapshot used for future turns and
// persists it.
func (c *Controller) UpdateSettings(mutate func(*domain.Settings)) {
	mutate(&c.settings)
	c.saveSettings()
}

func (c *Controller) newSession(firstPrompt string) *domain.Session {
	now := time.Now().UTC()
	return &domain.Session{
		ID:        ulid.Make().String(),
		Title:     textutil.TruncateRunes(firstPrompt, maxTitleRunes),
		WorkDir:   config.ResolveWorkDir("", c.settings),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (c *Controller) saveSettings() {
	if c.settingsPath == "" {
		return
	}
	if err := config.SaveSettings(c.settingsPath, c.settings); err != nil {
		c.log.Warn("save_settings_failed", nil, err)
	}
}
