package ports

import (
	"context"

	"github.com/aretw0/intake/pkg/domain"
)

// SessionStore defines the interface for persisting session state.
// This enables durable execution: a conversation can stop at any
// suspension point and resume later, possibly on another replica.
type SessionStore interface {
	// Save persists the session under its ID.
	Save(ctx context.Context, sessionID string, sess *domain.Session) error

	// Load retrieves the session for an ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.Session, error)

	// Delete removes the session for an ID.
	Delete(ctx context.Context, sessionID string) error

	// List returns the known session IDs.
	List(ctx context.Context) ([]string, error)
}
