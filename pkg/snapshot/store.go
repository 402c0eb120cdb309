package snapshot

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no document exists for a session.
var ErrNotFound = errors.New("snapshot: not found")

// Store persists session documents.
type Store interface {
	// Save writes the document for a session, replacing any previous one.
	Save(ctx context.Context, sessionID string, doc *Document) error

	// Load reads the document for a session. Returns ErrNotFound when
	// none exists.
	Load(ctx context.Context, sessionID string) (*Document, error)

	// List returns the session IDs with stored documents.
	List(ctx context.Context) ([]string, error)

	// Delete removes a session's document. Deleting a missing document
	// is a no-op.
	Delete(ctx context.Context, sessionID string) error

	// Close releases backend resources.
	Close() error
}
