package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nlct/pass-auth/internal/domain/models"
)

// AccountTokenRepository defines the interface for the single-use tokens
// backing email verification and password reset links. One row per user:
// creating a new token replaces any outstanding one.
type AccountTokenRepository interface {
	// Create persists a new token, replacing any existing token for the
	// same user.
	Create(ctx context.Context, token *models.AccountToken) error

	// FindValidBySelector retrieves an unexpired token by its selector.
	// Returns domainErrors.ErrNotFound whether the selector is unknown or
	// the row has expired; callers cannot distinguish the two.
	FindValidBySelector(ctx context.Context, selector string, now time.Time) (*models.AccountToken, error)

	// Delete removes a consumed token by primary ID.
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteExpired removes all tokens past their expiry. Returns the number
	// of rows removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
