// Package backend defines the call surface the chat core consumes. The
// in-process implementation lives in internal/agent; the core only sees
// this interface so it can be driven by fakes in tests.
package backend

import (
	"context"

	"github.com/mfern/kestrel/internal/domain"
)

type Backend interface {
	// StartTurn begins one user-message-to-completion cycle. A nil error
	// means events for the turn will arrive on the returned channel until
	// a terminal event (done, cancelled, error), after which the channel
	// is closed. An error aborts the turn before any event is produced.
	StartTurn(ctx context.Context, sessionID, message string, settings domain.Settings) (<-chan domain.ChatEvent, error)

	// CancelTurn requests cancellation of the in-flight turn for a
	// session. The turn finishes with a cancelled event.
	CancelTurn(sessionID string)

	// RespondApproval answers a pending tool approval request. Stale or
	// unknown request ids are ignored.
	RespondApproval(requestID string, approved bool) error

	CreateSession(ctx context.Context, sess *domain.Session) error
	ListSessions(ctx context.Context, workDir string) ([]*domain.Session, error)
	DeleteSession(ctx context.Context, sessionID string) error

	PersistMessage(ctx context.Context, sessionID string, role domain.Role, content string) error
	LoadSessionMessages(ctx context.Context, sessionID string) ([]*domain.Message, error)

	SearchFiles(ctx context.Context, workDir, query string, limit int) ([]string, error)
}
