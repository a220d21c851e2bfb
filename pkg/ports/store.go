package ports

import (
	"context"

	"github.com/aretw0/stepwise/pkg/domain"
)

// SessionStore defines the interface for persisting per-session workflow state.
// Implementations must isolate sessions from each other: a write to one id is
// never observable through another.
type SessionStore interface {
	// Save persists the state for a given session ID.
	Save(ctx context.Context, sessionID string, state *domain.SessionState) error

	// Load retrieves the state for a given session ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.SessionState, error)

	// Delete removes the state for a given session ID.
	Delete(ctx context.Context, sessionID string) error

	// List returns the ids of all known sessions.
	List(ctx context.Context) ([]string, error)
}
