package repositories

import (
	"context"
	"errors"

	"github.com/scode550/MultiRole-Chatbot/internal/models"
)

// SessionRepository persists chat sessions: id, role, original
// filenames, and the ordered transcript.
type SessionRepository interface {
	Insert(ctx context.Context, session *models.Session) error
	Get(ctx context.Context, sessionID string) (*models.Session, error)

	// List returns all sessions, most recently created first.
	List(ctx context.Context) ([]*models.Session, error)

	// AppendTurns reads the transcript, appends the given turns in
	// order, and writes it back. The store does not enforce
	// user/assistant alternation.
	AppendTurns(ctx context.Context, sessionID string, turns ...models.Turn) error

	Delete(ctx context.Context, sessionID string) error
	Exists(ctx context.Context, sessionID string) (bool, error)

	Ping(ctx context.Context) error
	Close() error
}

// SessionRepositoryError wraps session store failures.
type SessionRepositoryError struct {
	Operation string
	SessionID string
	Err       error
	Message   string
	NotFound  bool
}

func (e *SessionRepositoryError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Operation + " " + e.SessionID + ": " + e.Err.Error()
	}
	return e.Operation + " " + e.SessionID + ": unknown error"
}

func (e *SessionRepositoryError) Unwrap() error {
	return e.Err
}

// NewSessionRepositoryError creates a new session repository error.
func NewSessionRepositoryError(operation, sessionID string, err error, message string) *SessionRepositoryError {
	return &SessionRepositoryError{Operation: operation, SessionID: sessionID, Err: err, Message: message}
}

// SessionNotFoundError reports a lookup for an unknown session id.
func SessionNotFoundError(sessionID string) error {
	return &SessionRepositoryError{
		Operation: "get",
		SessionID: sessionID,
		Message:   "session not found: " + sessionID,
		NotFound:  true,
	}
}

// SessionAlreadyExistsError reports an insert under a taken id.
func SessionAlreadyExistsError(sessionID string) error {
	return NewSessionRepositoryError("insert", sessionID, nil, "session already exists: "+sessionID)
}

// IsSessionNotFound reports whether err is a session-not-found error.
func IsSessionNotFound(err error) bool {
	var repoErr *SessionRepositoryError
	if errors.As(err, &repoErr) {
		return repoErr.NotFound
	}
	return false
}
