package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nlct/pass-auth/internal/domain/models"
)

// SessionRepository defines the interface for the database-backed session
// rows behind the session store.
type SessionRepository interface {
	// Get retrieves a session row by its external ID.
	// Returns domainErrors.ErrSessionNotFound if absent.
	Get(ctx context.Context, sessionID string) (*models.SessionRecord, error)

	// CreateBare inserts an empty row for a new session ID. Inserting an ID
	// that already exists is a no-op.
	CreateBare(ctx context.Context, sessionID string, now time.Time) error

	// Touch refreshes last_touched on an existing row.
	Touch(ctx context.Context, sessionID string, now time.Time) error

	// Upsert writes serialized session data, inserting the row if a
	// concurrent GC removed it since the read.
	Upsert(ctx context.Context, sessionID string, data []byte, userID *uuid.UUID, now time.Time) error

	// Delete removes a session row. Deleting an absent row is a no-op.
	Delete(ctx context.Context, sessionID string) error

	// DeleteTouchedBefore removes rows idle past the cutoff. Returns the
	// number of rows removed.
	DeleteTouchedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
